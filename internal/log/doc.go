// Package log provides secure logging built on the standard slog package.
//
// The SecureHandler masks credentials before they reach any output:
//   - attributes named like credentials (password, token, api_key, ...)
//   - values shaped like credentials (OpenAI keys, Telegram bot tokens,
//     bearer tokens, JWTs)
//   - credentials embedded in longer strings and errors, such as the bot
//     token inside a Telegram Bot API URL
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	slog.SetDefault(logger)
//
//	logger.Error("telegram upload failed", "error", err) // token in URL is masked
package log
