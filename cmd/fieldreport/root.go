package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for fieldreport.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fieldreport",
		Short: "Generate and deliver narrative survey reports",
		Long: `fieldreport fetches survey data published as CSV, asks a language model
to write a narrative report about it, renders the report as a Word document
with a cover page, converts it to PDF, bundles both into a ZIP archive and
delivers them by email and Telegram.

Settings are read from .fieldreport in the current or home directory (see
'fieldreport init'). Credentials are read from the environment, optionally
loaded from a .env file:
  FIELDREPORT_LLM_API_KEY (or OPENAI_API_KEY)
  TELEGRAM_BOT_TOKEN
  EMAIL_PASSWORD`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("log-json", false, "Write logs as JSON lines")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .fieldreport in current or home directory)")
	cmd.PersistentFlags().String("env-file", "",
		"Load credentials from this file (default: .env when present)")

	cmd.AddCommand(NewGenerateCmd())
	cmd.AddCommand(NewRenderCmd())
	cmd.AddCommand(NewPreviewCmd())
	cmd.AddCommand(NewDashboardCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
