package config

import (
	"os"
	"path/filepath"
	"testing"
)

// These tests modify the process environment and therefore do not run in
// parallel.

func TestLoadSecrets(t *testing.T) {
	t.Run("reads dotenv file", func(t *testing.T) {
		t.Setenv(EnvLLMAPIKey, "")
		t.Setenv(EnvOpenAIAPIKey, "")
		t.Setenv(EnvTelegramToken, "")
		t.Setenv(EnvSMTPPassword, "")
		os.Unsetenv(EnvOpenAIAPIKey)
		os.Unsetenv(EnvTelegramToken)
		os.Unsetenv(EnvSMTPPassword)
		os.Unsetenv(EnvLLMAPIKey)

		path := filepath.Join(t.TempDir(), "secrets.env")
		content := "OPENAI_API_KEY=sk-file\nTELEGRAM_BOT_TOKEN=123:abc\nEMAIL_PASSWORD=hunter2\n"
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}

		s, err := LoadSecrets(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if s.LLMAPIKey != "sk-file" {
			t.Errorf("expected key from file, got %q", s.LLMAPIKey)
		}
		if s.TelegramToken != "123:abc" || s.SMTPPassword != "hunter2" {
			t.Errorf("unexpected secrets %+v", s)
		}
	})

	t.Run("environment wins over file", func(t *testing.T) {
		t.Setenv(EnvLLMAPIKey, "sk-env")

		path := filepath.Join(t.TempDir(), "secrets.env")
		if err := os.WriteFile(path, []byte("FIELDREPORT_LLM_API_KEY=sk-file\n"), 0o600); err != nil {
			t.Fatal(err)
		}

		s, err := LoadSecrets(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if s.LLMAPIKey != "sk-env" {
			t.Errorf("expected environment value, got %q", s.LLMAPIKey)
		}
	})

	t.Run("explicit missing file is an error", func(t *testing.T) {
		if _, err := LoadSecrets(filepath.Join(t.TempDir(), "missing.env")); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("prefers dedicated key over OPENAI_API_KEY", func(t *testing.T) {
		t.Setenv(EnvLLMAPIKey, "sk-dedicated")
		t.Setenv(EnvOpenAIAPIKey, "sk-openai")

		if got := SecretsFromEnv().LLMAPIKey; got != "sk-dedicated" {
			t.Errorf("expected dedicated key, got %q", got)
		}
	})
}
