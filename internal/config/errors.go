package config

import "errors"

// Configuration validation errors returned by Config.Validate and the
// settings helpers. Callers match them with errors.Is.
var (
	// ErrNoDataset is returned when neither a dataset label nor --all is given.
	ErrNoDataset = errors.New("no dataset specified: name a dataset or use --all")

	// ErrUnknownDataset is returned when a label matches no configured dataset.
	ErrUnknownDataset = errors.New("unknown dataset")

	// ErrAmbiguousDataset is returned when an abbreviated label matches
	// more than one configured dataset.
	ErrAmbiguousDataset = errors.New("ambiguous dataset")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrUnknownConverter is returned for a converter other than
	// "libreoffice" or "native".
	ErrUnknownConverter = errors.New("unknown converter: use libreoffice or native")

	// ErrConflictingEgress is returned when both a SOCKS5 proxy and the
	// embedded Tor daemon are requested.
	ErrConflictingEgress = errors.New("conflicting egress: --proxy and --tor cannot be used together")

	// ErrMissingLLMKey is returned when no language model API key is set.
	ErrMissingLLMKey = errors.New("missing API key: set FIELDREPORT_LLM_API_KEY or OPENAI_API_KEY")

	// ErrMissingSMTPPassword is returned when email recipients are
	// configured without a password.
	ErrMissingSMTPPassword = errors.New("missing SMTP password: set EMAIL_PASSWORD or use --no-send")

	// ErrMissingTelegramToken is returned when a Telegram chat is configured
	// without a bot token.
	ErrMissingTelegramToken = errors.New("missing Telegram bot token: set TELEGRAM_BOT_TOKEN or use --no-send")
)
