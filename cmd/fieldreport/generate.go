package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dcxsea/fieldreport/internal/config"
	"github.com/dcxsea/fieldreport/internal/database"
	"github.com/dcxsea/fieldreport/internal/model"
	"github.com/dcxsea/fieldreport/internal/pipeline"
	"github.com/dcxsea/fieldreport/internal/report"
	"github.com/spf13/cobra"
)

// NewGenerateCmd creates the generate command.
func NewGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate [dataset...]",
		Short: "Generate and deliver reports for one or more datasets",
		Long: `Generate runs the full report pipeline for each dataset:

  fetch     download the survey CSV
  generate  ask the language model for a narrative report
  render    lay the report out as a Word document with a cover page
  convert   convert the document to PDF
  audit     check both files for leftover metadata
  archive   bundle both files into a ZIP archive
  email     send the archive to the configured recipients
  telegram  send both files to the configured chat

A failed step is reported and the remaining independent steps still run.
Every run is saved to the history database (see 'fieldreport history').

Datasets are named by label or title; matching is case-insensitive and
tolerates abbreviations ("oneyr", "6 & 12") as long as only one dataset
matches.

Examples:
  # Generate the one year report
  fieldreport generate "One Year"

  # Generate every configured dataset, three at a time
  fieldreport generate --all

  # Write files only, without sending anything
  fieldreport generate --no-send -d reports "6 Months"

  # Convert without LibreOffice
  fieldreport generate --converter native "One Year"

  # Print the run summary as JSON
  fieldreport generate --json "One Year"`,
		Args: cobra.ArbitraryArgs,
		RunE: runGenerateCmd,
	}

	cmd.Flags().BoolP("all", "a", false,
		"Generate every configured dataset")
	cmd.Flags().StringP("output-dir", "d", ".",
		"Directory for the generated .docx, .pdf and .zip files")
	cmd.Flags().BoolP("no-send", "n", false,
		"Skip email and Telegram delivery")
	cmd.Flags().String("converter", config.DefaultConverter,
		"PDF converter: libreoffice or native")
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of datasets processed concurrently")
	cmd.Flags().Bool("no-history", false,
		"Do not save runs to the history database")

	cmd.Flags().BoolP("json", "j", false,
		"Output JSON run summary (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown run summary (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write the run summary to the specified file path")

	addEgressFlags(cmd)

	return cmd
}

func runGenerateCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildGenerateConfig(cmd, args)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	datasets, err := cfg.SelectedDatasets()
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cfg, os.Stderr)
	slog.SetDefault(logger)

	ctx, cancel := signalContext(logger)
	defer cancel()

	return runGenerate(ctx, cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg, datasets, logger)
}

// buildGenerateConfig creates a Config from the generate flags.
func buildGenerateConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	if err := readEgressFlags(cmd, cfg); err != nil {
		return nil, err
	}
	if cfg.AllDatasets, err = cmd.Flags().GetBool("all"); err != nil {
		return nil, err
	}
	if cfg.OutputDir, err = cmd.Flags().GetString("output-dir"); err != nil {
		return nil, err
	}
	if cfg.NoSend, err = cmd.Flags().GetBool("no-send"); err != nil {
		return nil, err
	}
	if cfg.Converter, err = cmd.Flags().GetString("converter"); err != nil {
		return nil, err
	}
	if cfg.BatchSize, err = cmd.Flags().GetInt("batch"); err != nil {
		return nil, err
	}
	noHistory, err := cmd.Flags().GetBool("no-history")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noHistory

	if cfg.JSONReport, err = cmd.Flags().GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = cmd.Flags().GetString("output"); err != nil {
		return nil, err
	}

	cfg.Datasets = args
	return cfg, nil
}

// runGenerate executes the pipeline for every dataset. Summaries go to
// stdout (or the report file) and progress to stderr.
func runGenerate(ctx context.Context, stdout, stderr io.Writer, cfg *config.Config, datasets []model.Dataset, logger *slog.Logger) error {
	logger.Info("starting generation",
		"datasets", len(datasets),
		"noSend", cfg.NoSend,
		"converter", cfg.Converter,
		"batchSize", cfg.BatchSize,
	)

	var db *database.RunDB
	if cfg.SaveToDB {
		var err error
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Info("database opened", "path", db.Path())
	}

	if err := os.MkdirAll(cfg.OutputDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	out, closeOut, err := openReportOutput(cfg, stdout)
	if err != nil {
		return err
	}
	defer closeOut()
	writer := newReportWriter(cfg, out)

	client, release, err := openEgress(ctx, cfg, stderr, logger)
	if err != nil {
		return err
	}
	defer release()

	components, err := buildComponents(cfg, client, logger)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	done := func(run *model.Run) {
		if _, err := writer.Write(run); err != nil {
			logger.Error("report failed", "dataset", run.Dataset.Label, "error", err)
		}
		if err := saveRun(ctx, db, run, logger); err != nil {
			logger.Error("failed to save run", "dataset", run.Dataset.Label, "error", err)
		}
	}

	if len(datasets) > 1 && cfg.BatchSize > 1 {
		return runBatch(ctx, stderr, cfg, components, datasets, done, logger)
	}
	return runSequential(ctx, stderr, cfg, components, datasets, done, logger)
}

// runSequential generates datasets one at a time.
func runSequential(ctx context.Context, progress io.Writer, cfg *config.Config, c pipeline.Components, datasets []model.Dataset, done func(*model.Run), logger *slog.Logger) error {
	for _, ds := range datasets {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		fmt.Fprintf(progress, "Generating %s...\n", ds.Title)
		start := time.Now()

		run := runDataset(ctx, newPipeline(c, cfg, logger), ds, logger)

		fmt.Fprintf(progress, "Finished %s in %s\n\n", ds.Title, time.Since(start).Round(time.Millisecond))
		done(run)
	}
	return nil
}

// runBatch generates datasets concurrently using BatchProcessor.
func runBatch(ctx context.Context, progress io.Writer, cfg *config.Config, c pipeline.Components, datasets []model.Dataset, done func(*model.Run), logger *slog.Logger) error {
	fmt.Fprintf(progress, "Generating %d reports (concurrency: %d)...\n\n", len(datasets), cfg.BatchSize)
	start := time.Now()

	bp := pipeline.NewBatchProcessor(
		func() *pipeline.Pipeline { return newPipeline(c, cfg, logger) },
		pipeline.WithConcurrency(cfg.BatchSize),
		pipeline.WithBatchLogger(logger),
	)

	var mu sync.Mutex
	err := bp.ProcessBatchWithCallback(ctx, datasets, func(run *model.Run, index int) {
		mu.Lock()
		defer mu.Unlock()

		fmt.Fprintf(progress, "[%d/%d] Finished %s\n", index+1, len(datasets), run.Dataset.Title)
		done(run)
	})

	fmt.Fprintf(progress, "\nBatch completed in %s\n", time.Since(start).Round(time.Millisecond))
	return err
}

// openReportOutput returns where run summaries are written: the report
// file when one is set, otherwise stdout.
func openReportOutput(cfg *config.Config, stdout io.Writer) (io.Writer, func(), error) {
	if cfg.ReportFile == "" {
		return stdout, func() {}, nil
	}

	if dir := filepath.Dir(cfg.ReportFile); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	// Summaries list recipients and chat IDs.
	f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil //nolint:errcheck // Nothing to recover on close
}

// newReportWriter returns the summary writer for the selected format.
func newReportWriter(cfg *config.Config, out io.Writer) report.Writer {
	switch {
	case cfg.JSONReport:
		return report.NewJSONWriter(out, report.WithPrettyPrint(), report.WithVersion(getVersion()))
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(out)
	default:
		return report.NewSimpleWriter(out, report.WithVerbose(cfg.Verbose))
	}
}

// saveRun stores the run in the history database. A nil db is a no-op.
func saveRun(ctx context.Context, db *database.RunDB, run *model.Run, logger *slog.Logger) error {
	if db == nil {
		return nil
	}
	// The run context may already be cancelled; the record is still wanted.
	id, err := db.SaveRun(context.WithoutCancel(ctx), run)
	if err != nil {
		return err
	}
	logger.Info("run saved to database", "id", id, "dataset", run.Dataset.Label)
	return nil
}
