package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "fieldreport"

	// DefaultTimeout bounds each outbound HTTP request. Chat completions for
	// long reports are slow, so this is generous.
	DefaultTimeout = 5 * time.Minute

	// DefaultBatchSize is the number of datasets processed concurrently
	// when several are requested at once.
	DefaultBatchSize = 3

	// DefaultUserAgent identifies the tool when fetching data and the logo.
	DefaultUserAgent = "fieldreport/1.0"

	// DefaultMaxBodySize caps CSV and logo downloads.
	DefaultMaxBodySize = 10 * 1024 * 1024 // 10MB

	// DefaultTorStartupTimeout is the maximum time to wait for the embedded
	// Tor daemon to bootstrap.
	DefaultTorStartupTimeout = 3 * time.Minute

	// DefaultConverter is the PDF conversion backend.
	DefaultConverter = ConverterLibreOffice
)

// Converter backend names.
const (
	ConverterLibreOffice = "libreoffice"
	ConverterNative      = "native"
)

// Config holds the options of one invocation, assembled from flags, the
// settings file and the environment, and passed explicitly to every
// component that needs it.
type Config struct {
	// ConfigFilePath is the path to the settings file. If empty, the tool
	// searches for .fieldreport in the current directory and then in the
	// user's home directory.
	ConfigFilePath string

	// EnvFile is the dotenv file holding secrets. Empty means ".env" in the
	// current directory, if present.
	EnvFile string

	// Settings is the loaded settings file, or the defaults.
	Settings *File

	// Secrets are the credentials read from the environment.
	Secrets Secrets

	// Verbose enables debug logging.
	Verbose bool

	// JSONLog switches log output to JSON lines.
	JSONLog bool

	// Timeout bounds each outbound HTTP request.
	Timeout time.Duration

	// BatchSize is the number of datasets processed concurrently.
	BatchSize int

	// Datasets are the dataset labels requested on the command line.
	Datasets []string

	// AllDatasets selects every configured dataset.
	AllDatasets bool

	// OutputDir is where the docx, pdf and zip artifacts are written.
	OutputDir string

	// NoSend skips email and Telegram delivery.
	NoSend bool

	// Converter selects the PDF backend: "libreoffice" or "native".
	Converter string

	// JSONReport prints the run summary as JSON.
	JSONReport bool

	// MarkdownReport prints the run summary as Markdown.
	MarkdownReport bool

	// ReportFile writes the run summary to a file instead of stdout.
	ReportFile string

	// DBDir is the directory of the run history database.
	DBDir string

	// SaveToDB records runs in the history database.
	SaveToDB bool

	// UserAgent is sent when fetching data and the logo.
	UserAgent string

	// MaxBodySize caps downloaded bodies.
	MaxBodySize int64

	// ProxyAddress routes outbound HTTP through a SOCKS5 proxy ("host:port").
	ProxyAddress string

	// EmbeddedTor routes outbound HTTP through an embedded Tor daemon.
	EmbeddedTor bool

	// TorStartupTimeout bounds the embedded Tor bootstrap.
	TorStartupTimeout time.Duration
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Settings:          DefaultFile(),
		Timeout:           DefaultTimeout,
		BatchSize:         DefaultBatchSize,
		OutputDir:         ".",
		Converter:         DefaultConverter,
		DBDir:             XDGDataDir(),
		SaveToDB:          true,
		UserAgent:         DefaultUserAgent,
		MaxBodySize:       DefaultMaxBodySize,
		TorStartupTimeout: DefaultTorStartupTimeout,
	}
}

// XDGDataDir returns the XDG data directory for fieldreport.
// On Linux: ~/.local/share/fieldreport
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for fieldreport.
// On Linux: ~/.config/fieldreport
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// XDGCacheDir returns the XDG cache directory for fieldreport.
// The logo cache lives here.
func XDGCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// Validate checks the options needed to generate reports.
// It returns the first problem found.
func (c *Config) Validate() error {
	if len(c.Datasets) == 0 && !c.AllDatasets {
		return ErrNoDataset
	}
	if err := c.ValidateLocal(); err != nil {
		return err
	}
	if c.Secrets.LLMAPIKey == "" {
		return ErrMissingLLMKey
	}

	if c.NoSend || c.Settings == nil {
		return nil
	}
	if len(c.Settings.Email.Recipients) > 0 && c.Secrets.SMTPPassword == "" {
		return ErrMissingSMTPPassword
	}
	if c.Settings.Telegram.ChatID != "" && c.Secrets.TelegramToken == "" {
		return ErrMissingTelegramToken
	}
	return nil
}

// ValidateLocal checks the options that need no dataset and no
// credentials. render and preview use it on its own.
func (c *Config) ValidateLocal() error {
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	if c.Converter != ConverterLibreOffice && c.Converter != ConverterNative {
		return ErrUnknownConverter
	}
	if c.ProxyAddress != "" && c.EmbeddedTor {
		return ErrConflictingEgress
	}
	return nil
}

// SelectedDatasets resolves the requested labels against the settings.
func (c *Config) SelectedDatasets() ([]Dataset, error) {
	if c.Settings == nil {
		return nil, ErrNoDataset
	}
	if c.AllDatasets {
		return c.Settings.Datasets, nil
	}
	out := make([]Dataset, 0, len(c.Datasets))
	for _, q := range c.Datasets {
		ds, err := c.Settings.ResolveDataset(q)
		if err != nil {
			return nil, err
		}
		out = append(out, ds)
	}
	return out, nil
}
