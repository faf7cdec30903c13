package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dcxsea/fieldreport/internal/config"
	"github.com/dcxsea/fieldreport/internal/database"
	"github.com/dcxsea/fieldreport/internal/model"
	"github.com/dcxsea/fieldreport/internal/pipeline"
	"github.com/dcxsea/fieldreport/internal/tui"
	"github.com/spf13/cobra"
)

// dashboardLogFile receives logs while the dashboard owns the terminal.
const dashboardLogFile = "dashboard.log"

// NewDashboardCmd creates the dashboard command.
func NewDashboardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Browse survey data and generate reports interactively",
		Long: `Dashboard opens a terminal interface with the dataset list on the left
and the selected data on the right. The blank entry at the top shows the
overview table.

Keys:
  up/down   move in the focused pane
  enter     load the selected dataset
  tab       switch focus between the list and the table
  /         filter the dataset list (esc to clear)
  g         generate and send the report for the loaded dataset
  q         quit

Progress of each pipeline step is shown under the table. Logs are written
to the fieldreport cache directory (dashboard.log).`,
		Args: cobra.NoArgs,
		RunE: runDashboardCmd,
	}

	cmd.Flags().StringP("output-dir", "d", ".",
		"Directory for the generated .docx, .pdf and .zip files")
	cmd.Flags().BoolP("no-send", "n", false,
		"Skip email and Telegram delivery")
	cmd.Flags().String("converter", config.DefaultConverter,
		"PDF converter: libreoffice or native")

	addEgressFlags(cmd)

	return cmd
}

func runDashboardCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := readEgressFlags(cmd, cfg); err != nil {
		return err
	}
	if cfg.OutputDir, err = cmd.Flags().GetString("output-dir"); err != nil {
		return err
	}
	if cfg.NoSend, err = cmd.Flags().GetBool("no-send"); err != nil {
		return err
	}
	if cfg.Converter, err = cmd.Flags().GetString("converter"); err != nil {
		return err
	}

	// Every configured dataset is selectable.
	cfg.AllDatasets = true
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logOut, closeLog, err := openDashboardLog(config.XDGCacheDir())
	if err != nil {
		return err
	}
	defer closeLog()
	logger := setupLogger(cfg, logOut)
	slog.SetDefault(logger)

	ctx, cancel := signalContext(logger)
	defer cancel()

	if err := os.MkdirAll(cfg.OutputDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	client, release, err := openEgress(ctx, cfg, cmd.ErrOrStderr(), logger)
	if err != nil {
		return err
	}
	defer release()

	components, err := buildComponents(cfg, client, logger)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	app := tui.NewApp(cfg.Settings.Datasets, components.Fetcher,
		dashboardGenerator(cfg, components, db, logger),
		tui.WithContext(ctx),
		tui.WithOverviewURL(cfg.Settings.OverviewURL),
	)
	return tui.Run(ctx, app)
}

// dashboardGenerator returns the dashboard's generate action: one pipeline
// run, saved to the history database. The run counts as failed only when
// no archive was produced.
func dashboardGenerator(cfg *config.Config, c pipeline.Components, db *database.RunDB, logger *slog.Logger) tui.GenerateFunc {
	return func(ctx context.Context, ds model.Dataset, hook pipeline.StepHook) (*model.Run, error) {
		run := model.NewRun(ds)
		err := newPipeline(c, cfg, logger, hook).Execute(ctx, run)

		if saveErr := saveRun(ctx, db, run, logger); saveErr != nil {
			logger.Error("failed to save run", "dataset", ds.Label, "error", saveErr)
		}
		if run.ArchivePath != "" {
			return run, nil
		}
		return run, err
	}
}

// openDashboardLog opens the dashboard log file in dir for appending.
func openDashboardLog(dir string) (io.Writer, func(), error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, dashboardLogFile), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil //nolint:errcheck // Nothing to recover on close
}
