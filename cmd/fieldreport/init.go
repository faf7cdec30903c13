package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dcxsea/fieldreport/internal/config"
	"github.com/spf13/cobra"
)

//go:embed templates/fieldreport.yaml
var configTemplate embed.FS

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a fieldreport configuration file",
		Long: `Init writes a commented .fieldreport configuration file.

The generated file contains the cover page wording, the dataset list, the
language model settings, the converter retry policy and the delivery
recipients. Credentials never go into this file; put them in the
environment or a .env file.

Examples:
  # Create .fieldreport in the current directory
  fieldreport init

  # Create the file at a specific path
  fieldreport init -o ~/.config/fieldreport/config.yaml

  # Overwrite an existing file
  fieldreport init -f`,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultConfigFile,
		"Output file path for the configuration")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing configuration file")

	return cmd
}

func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	content, err := configTemplate.ReadFile("templates/fieldreport.yaml")
	if err != nil {
		return fmt.Errorf("failed to read config template: %w", err)
	}

	if dir := filepath.Dir(outputPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(outputPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created configuration file: %s\n", outputPath)
	fmt.Fprintln(out, "\nEdit this file to set:")
	fmt.Fprintln(out, "  - the datasets and their CSV export URLs")
	fmt.Fprintln(out, "  - the email and Telegram recipients")
	fmt.Fprintf(out, "\nCredentials are read from %s, %s and %s.\n",
		config.EnvLLMAPIKey, config.EnvTelegramToken, config.EnvSMTPPassword)

	return nil
}
