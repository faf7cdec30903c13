package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// Environment variables holding secrets.
const (
	EnvLLMAPIKey      = "FIELDREPORT_LLM_API_KEY"
	EnvOpenAIAPIKey   = "OPENAI_API_KEY"
	EnvTelegramToken  = "TELEGRAM_BOT_TOKEN"
	EnvSMTPPassword   = "EMAIL_PASSWORD"
	DefaultDotEnvFile = ".env"
)

// Secrets are credentials that never live in the settings file.
type Secrets struct {
	LLMAPIKey     string
	TelegramToken string
	SMTPPassword  string
}

// LoadSecrets loads the dotenv file, if any, and reads secrets from the
// environment. Variables already set in the environment win over the file.
// A missing default .env is not an error; a missing explicit path is.
func LoadSecrets(envFile string) (Secrets, error) {
	path := envFile
	if path == "" {
		path = DefaultDotEnvFile
	}

	if err := godotenv.Load(path); err != nil {
		if envFile != "" || !errors.Is(err, fs.ErrNotExist) {
			return Secrets{}, fmt.Errorf("failed to load %s: %w", path, err)
		}
	}

	return SecretsFromEnv(), nil
}

// SecretsFromEnv reads secrets from the process environment only.
func SecretsFromEnv() Secrets {
	key := os.Getenv(EnvLLMAPIKey)
	if key == "" {
		key = os.Getenv(EnvOpenAIAPIKey)
	}
	return Secrets{
		LLMAPIKey:     key,
		TelegramToken: os.Getenv(EnvTelegramToken),
		SMTPPassword:  os.Getenv(EnvSMTPPassword),
	}
}
