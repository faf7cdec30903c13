package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/dcxsea/fieldreport/internal/config"
	"github.com/dcxsea/fieldreport/internal/report"
	"github.com/dcxsea/fieldreport/internal/source"
	"github.com/spf13/cobra"
)

// overviewTitle heads the overview table preview.
const overviewTitle = "Overview"

// NewPreviewCmd creates the preview command.
func NewPreviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preview [dataset]",
		Short: "Preview a dataset or a rendered report in the terminal",
		Long: `Preview shows survey data or a rendered report as Markdown.

Without arguments the overview table is shown. With a dataset label the
dataset's records are shown. With --document a report text file is
rendered exactly as 'render' would lay it out, cover page included.

On a terminal the Markdown is styled; when piped it is written unchanged.

Examples:
  # Show the overview table
  fieldreport preview

  # Show the one year records
  fieldreport preview "One Year"

  # Check how a report text will be laid out
  fieldreport preview --document notes.txt

  # Save the Markdown
  fieldreport preview "6 Months" > six-months.md`,
		Args: cobra.MaximumNArgs(1),
		RunE: runPreviewCmd,
	}

	cmd.Flags().String("document", "",
		"Render this report text file instead of showing data (\"-\" for stdin)")
	cmd.Flags().StringP("style", "s", "dracula",
		"Terminal style: dracula, dark, light, notty, ...")
	cmd.Flags().IntP("width", "w", 0,
		"Word wrap width (default: terminal width)")

	addEgressFlags(cmd)

	return cmd
}

func runPreviewCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := readEgressFlags(cmd, cfg); err != nil {
		return err
	}
	if err := cfg.ValidateLocal(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	documentPath, err := cmd.Flags().GetString("document")
	if err != nil {
		return err
	}
	style, err := cmd.Flags().GetString("style")
	if err != nil {
		return err
	}
	width, err := cmd.Flags().GetInt("width")
	if err != nil {
		return err
	}
	previewOpts := []report.PreviewOption{report.WithStyle(style), report.WithWidth(width)}

	logger := setupLogger(cfg, os.Stderr)
	slog.SetDefault(logger)

	ctx, cancel := signalContext(logger)
	defer cancel()

	var md string
	if documentPath != "" {
		text, err := readInput(documentPath, cmd.InOrStdin())
		if err != nil {
			return err
		}
		md, err = documentPreview(ctx, cfg, text, logger)
		if err != nil {
			return err
		}
	} else {
		client, release, err := openEgress(ctx, cfg, cmd.ErrOrStderr(), logger)
		if err != nil {
			return err
		}
		defer release()

		fetcher := newFetcher(cfg, client.HTTPClient(), logger)
		md, err = datasetPreview(ctx, cfg, fetcher, args)
		if err != nil {
			return err
		}
	}

	return report.Preview(cmd.OutOrStdout(), md, previewOpts...)
}

// documentPreview renders text without a logo and returns it as Markdown.
func documentPreview(ctx context.Context, cfg *config.Config, text string, logger *slog.Logger) (string, error) {
	doc, err := newRenderer(cfg, nil, logger).Render(ctx, text)
	if err != nil {
		return "", err
	}
	return report.DocumentMarkdown(doc)
}

// datasetPreview fetches the named dataset, or the overview without a
// name, and returns it as a Markdown table.
func datasetPreview(ctx context.Context, cfg *config.Config, fetcher TableFetcher, args []string) (string, error) {
	title, url := overviewTitle, cfg.Settings.OverviewURL
	if len(args) > 0 {
		ds, err := cfg.Settings.ResolveDataset(args[0])
		if err != nil {
			return "", err
		}
		title, url = ds.Title, ds.URL
	}
	if url == "" {
		return "", fmt.Errorf("no URL configured for %s", title)
	}

	table, err := fetcher.Fetch(ctx, url)
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", title, err)
	}
	return report.TableMarkdown(title, table)
}

// TableFetcher retrieves a sheet as a table.
type TableFetcher interface {
	Fetch(ctx context.Context, url string) (*source.Table, error)
}
