package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/dcxsea/fieldreport/internal/asset"
	"github.com/dcxsea/fieldreport/internal/audit"
	"github.com/dcxsea/fieldreport/internal/config"
	"github.com/dcxsea/fieldreport/internal/convert"
	"github.com/dcxsea/fieldreport/internal/deliver"
	"github.com/dcxsea/fieldreport/internal/docx"
	"github.com/dcxsea/fieldreport/internal/document"
	"github.com/dcxsea/fieldreport/internal/egress"
	"github.com/dcxsea/fieldreport/internal/log"
	"github.com/dcxsea/fieldreport/internal/model"
	"github.com/dcxsea/fieldreport/internal/narrative"
	"github.com/dcxsea/fieldreport/internal/pipeline"
	"github.com/dcxsea/fieldreport/internal/source"
	"github.com/spf13/cobra"
)

// getBoolFlag retrieves a bool flag from the command or the root's
// persistent flags.
func getBoolFlag(cmd *cobra.Command, name string) bool {
	v, err := cmd.Flags().GetBool(name)
	if err != nil {
		v, err = cmd.Root().PersistentFlags().GetBool(name)
		if err != nil {
			return false
		}
	}
	return v
}

// getStringFlag retrieves a string flag from the command or the root's
// persistent flags.
func getStringFlag(cmd *cobra.Command, name string) string {
	v, err := cmd.Flags().GetString(name)
	if err != nil {
		v, err = cmd.Root().PersistentFlags().GetString(name)
		if err != nil {
			return ""
		}
	}
	return v
}

// loadConfig creates a Config from the global flags, the settings file and
// the environment.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Verbose = getBoolFlag(cmd, "verbose")
	cfg.JSONLog = getBoolFlag(cmd, "log-json")
	cfg.ConfigFilePath = getStringFlag(cmd, "config")
	cfg.EnvFile = getStringFlag(cmd, "env-file")

	settings, err := loadSettings(cfg.ConfigFilePath)
	if err != nil {
		return nil, err
	}
	cfg.Settings = settings

	cfg.Secrets, err = config.LoadSecrets(cfg.EnvFile)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadSettings reads the settings file. An explicitly named file must
// exist; otherwise the built-in defaults apply when no file is found.
func loadSettings(explicitPath string) (*config.File, error) {
	path := config.FindConfigFile(explicitPath)
	switch {
	case path != "":
		settings, err := config.LoadConfigFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
		return settings, nil
	case explicitPath != "":
		return nil, fmt.Errorf("configuration file not found: %s", explicitPath)
	default:
		return config.DefaultFile(), nil
	}
}

// addEgressFlags adds the flags that choose how outbound requests leave
// the machine.
func addEgressFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("proxy", "x", "",
		"Send requests through a SOCKS5 proxy (e.g., 127.0.0.1:9050)")
	cmd.Flags().Bool("tor", false,
		"Send requests through an embedded Tor daemon")
	cmd.Flags().Duration("tor-timeout", config.DefaultTorStartupTimeout,
		"Timeout for embedded Tor startup")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each outbound request")
	cmd.Flags().Int64("max-body-size", config.DefaultMaxBodySize,
		"Maximum size of a downloaded CSV or logo in bytes")
}

// readEgressFlags copies the egress flags into cfg.
func readEgressFlags(cmd *cobra.Command, cfg *config.Config) error {
	var err error
	if cfg.ProxyAddress, err = cmd.Flags().GetString("proxy"); err != nil {
		return err
	}
	if cfg.EmbeddedTor, err = cmd.Flags().GetBool("tor"); err != nil {
		return err
	}
	if cfg.TorStartupTimeout, err = cmd.Flags().GetDuration("tor-timeout"); err != nil {
		return err
	}
	if cfg.Timeout, err = cmd.Flags().GetDuration("timeout"); err != nil {
		return err
	}
	if cfg.MaxBodySize, err = cmd.Flags().GetInt64("max-body-size"); err != nil {
		return err
	}
	return nil
}

// setupLogger creates the secure logger selected by the flags.
func setupLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	if cfg.JSONLog {
		return log.NewSecureJSONLogger(w, cfg.Verbose)
	}
	return log.NewSecureLogger(w, cfg.Verbose)
}

// signalContext returns a context that is cancelled on SIGINT or SIGTERM.
func signalContext(logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			logger.Info("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

// openEgress returns the client factory for the configured route and a
// function that releases it. Progress of the Tor bootstrap goes to out.
func openEgress(ctx context.Context, cfg *config.Config, out io.Writer, logger *slog.Logger) (*egress.Client, func(), error) {
	opts := []egress.Option{
		egress.WithTimeout(cfg.Timeout),
		egress.WithHeaders(cfg.Settings.Headers),
	}

	switch {
	case cfg.EmbeddedTor:
		fmt.Fprintln(out, "Starting embedded Tor daemon...")
		fmt.Fprintf(out, "This may take 1-3 minutes while Tor bootstraps.\n\n")

		tor := egress.NewEmbeddedTor(egress.WithStartupTimeout(cfg.TorStartupTimeout))
		if err := tor.Start(ctx); err != nil {
			return nil, nil, err
		}
		stop := func() {
			logger.Info("stopping embedded Tor daemon...")
			if err := tor.Stop(); err != nil {
				logger.Error("failed to stop embedded Tor", "error", err)
			}
		}

		client, err := tor.NewClient(opts...)
		if err != nil {
			stop()
			return nil, nil, fmt.Errorf("failed to create Tor client: %w", err)
		}
		if status := client.CheckConnection(ctx); status != egress.ProxyStatusOK {
			stop()
			return nil, nil, fmt.Errorf("embedded Tor proxy check failed: %s", status)
		}
		logger.Info("embedded Tor daemon started", "socksAddr", tor.SocksAddr())
		return client, stop, nil

	case cfg.ProxyAddress != "":
		client, err := egress.NewClient(append(opts, egress.WithProxy(cfg.ProxyAddress))...)
		if err != nil {
			return nil, nil, err
		}
		if status := client.CheckConnection(ctx); status != egress.ProxyStatusOK {
			return nil, nil, fmt.Errorf("proxy check failed: %s (make sure a SOCKS5 proxy is running at %s)",
				status, cfg.ProxyAddress)
		}
		logger.Info("proxy connection verified", "address", cfg.ProxyAddress)
		return client, func() {}, nil

	default:
		client, err := egress.NewClient(opts...)
		if err != nil {
			return nil, nil, err
		}
		return client, func() {}, nil
	}
}

func newFetcher(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) *source.Fetcher {
	return source.NewFetcher(httpClient,
		source.WithUserAgent(cfg.UserAgent),
		source.WithMaxBodySize(cfg.MaxBodySize),
		source.WithFetcherLogger(logger),
	)
}

// newRenderer creates the document renderer. A nil httpClient leaves the
// cover without a logo.
func newRenderer(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) *document.Renderer {
	opts := []document.Option{
		document.WithCoverText(cfg.Settings.Cover),
		document.WithLogger(logger),
	}
	if httpClient != nil {
		logos := asset.NewHTTPLogoSource(httpClient,
			asset.WithUserAgent(cfg.UserAgent),
			asset.WithMaxBodySize(cfg.MaxBodySize),
			asset.WithCacheDir(config.XDGCacheDir()),
			asset.WithLogger(logger),
		)
		opts = append(opts, document.WithLogoSource(logos))
	}
	return document.NewRenderer(opts...)
}

func newDocxWriter(cfg *config.Config) *docx.Writer {
	return docx.NewWriter(docx.WithCreator(cfg.Settings.Cover.PreparedBy))
}

// newConverter creates the selected PDF converter wrapped in the retry
// policy from the settings.
func newConverter(cfg *config.Config, logger *slog.Logger) convert.Converter {
	var base convert.Converter
	switch cfg.Converter {
	case config.ConverterNative:
		base = convert.NewNative(
			convert.WithCreator(cfg.Settings.Cover.PreparedBy),
			convert.WithNativeLogger(logger),
		)
	default:
		base = convert.NewLibreOffice(
			convert.WithBinary(cfg.Settings.Converter.Binary),
			convert.WithLibreOfficeLogger(logger),
		)
	}
	return convert.NewRetrying(base,
		convert.WithAttempts(cfg.Settings.Converter.Attempts),
		convert.WithDelay(cfg.Settings.Converter.Delay),
		convert.WithRetryLogger(logger),
	)
}

// buildComponents wires every pipeline dependency from cfg. Delivery
// channels without recipients are left out.
func buildComponents(cfg *config.Config, client *egress.Client, logger *slog.Logger) (pipeline.Components, error) {
	httpClient := client.HTTPClient()
	s := cfg.Settings

	generator, err := narrative.NewOpenAI(cfg.Secrets.LLMAPIKey,
		narrative.WithModel(s.LLM.Model),
		narrative.WithBaseURL(s.LLM.BaseURL),
		narrative.WithHTTPClient(httpClient),
		narrative.WithSystemPrompt(s.LLM.SystemPrompt),
		narrative.WithMaxTokens(s.LLM.MaxTokens),
		narrative.WithTemperature(s.LLM.Temperature),
		narrative.WithGeneratorLogger(logger),
	)
	if err != nil {
		return pipeline.Components{}, err
	}

	c := pipeline.Components{
		Fetcher:   newFetcher(cfg, httpClient, logger),
		Generator: generator,
		Renderer:  newRenderer(cfg, httpClient, logger),
		Writer:    newDocxWriter(cfg),
		Converter: newConverter(cfg, logger),
		Auditor:   audit.New(audit.WithMaxSize(cfg.MaxBodySize), audit.WithLogger(logger)),
	}

	if len(s.Email.Recipients) > 0 && cfg.Secrets.SMTPPassword != "" {
		c.Email = deliver.NewEmail(s.Email.From, s.Email.Recipients,
			deliver.WithSMTPServer(s.Email.Host, s.Email.Port),
			deliver.WithCredentials(s.Email.Username, cfg.Secrets.SMTPPassword),
			deliver.WithEmailLogger(logger),
		)
	}
	if s.Telegram.ChatID != "" && cfg.Secrets.TelegramToken != "" {
		c.Telegram = deliver.NewTelegram(cfg.Secrets.TelegramToken, s.Telegram.ChatID,
			deliver.WithEndpoint(s.Telegram.Endpoint),
			deliver.WithTelegramHTTPClient(httpClient),
			deliver.WithTelegramLogger(logger),
		)
	}
	return c, nil
}

// newPipeline creates the report pipeline for one run.
func newPipeline(c pipeline.Components, cfg *config.Config, logger *slog.Logger, hooks ...pipeline.StepHook) *pipeline.Pipeline {
	opts := []pipeline.Option{
		pipeline.WithLogger(logger),
		pipeline.WithContinueOnError(true),
	}
	for _, h := range hooks {
		opts = append(opts, pipeline.WithStepHook(h))
	}

	return pipeline.DefaultPipeline(c, opts,
		pipeline.WithPipelineOutputDir(cfg.OutputDir),
		pipeline.WithPipelineInstructions(cfg.Settings.LLM.Instructions),
		pipeline.WithPipelineNoSend(cfg.NoSend),
	)
}

// runDataset executes one run and returns it. Step failures are recorded in
// the run, not returned.
func runDataset(ctx context.Context, p *pipeline.Pipeline, ds model.Dataset, logger *slog.Logger) *model.Run {
	run := model.NewRun(ds)
	if err := p.Execute(ctx, run); err != nil {
		logger.Warn("run finished with errors", "dataset", ds.Label, "error", err)
	}
	return run
}
