package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dcxsea/fieldreport/internal/config"
	"github.com/dcxsea/fieldreport/internal/database"
	"github.com/dcxsea/fieldreport/internal/model"
	"github.com/dcxsea/fieldreport/internal/report"
	"github.com/spf13/cobra"
)

// defaultHistoryLimit caps the run list when --limit is not given.
const defaultHistoryLimit = 20

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show previously generated reports",
		Long: `History lists the runs saved by 'fieldreport generate' and the dashboard.

Each line shows when the run started, which dataset it was for, whether
every step succeeded, how many deliveries went out and how many metadata
findings the audit reported. Use --show to see one run in full.

Examples:
  # List recent runs of every dataset
  fieldreport history

  # List runs of one dataset
  fieldreport history --dataset "One Year"

  # Show the latest run of a dataset
  fieldreport history --dataset "One Year" --latest

  # Show one run as JSON
  fieldreport history --show 12 --json

  # List the datasets with saved runs
  fieldreport history --list-datasets`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().BoolP("list-datasets", "L", false,
		"List the datasets that have saved runs")
	cmd.Flags().StringP("dataset", "d", "",
		"Only show runs of this dataset")
	cmd.Flags().Int64P("show", "s", 0,
		"Show the run with this ID")
	cmd.Flags().Bool("latest", false,
		"Show the latest run of --dataset")
	cmd.Flags().IntP("limit", "n", defaultHistoryLimit,
		"Maximum number of runs to list (0 for all)")

	cmd.Flags().BoolP("json", "j", false,
		"Output the run in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output the run in Markdown format")

	return cmd
}

// historyOptions holds the history command's flags.
type historyOptions struct {
	listDatasets bool
	dataset      string
	show         int64
	latest       bool
	limit        int
	json         bool
	markdown     bool
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	var (
		opts historyOptions
		err  error
	)
	if opts.listDatasets, err = cmd.Flags().GetBool("list-datasets"); err != nil {
		return err
	}
	if opts.dataset, err = cmd.Flags().GetString("dataset"); err != nil {
		return err
	}
	if opts.show, err = cmd.Flags().GetInt64("show"); err != nil {
		return err
	}
	if opts.latest, err = cmd.Flags().GetBool("latest"); err != nil {
		return err
	}
	if opts.limit, err = cmd.Flags().GetInt("limit"); err != nil {
		return err
	}
	if opts.json, err = cmd.Flags().GetBool("json"); err != nil {
		return err
	}
	if opts.markdown, err = cmd.Flags().GetBool("markdown"); err != nil {
		return err
	}

	// Validate before opening the database so that a bad flag combination
	// does not create an empty database file.
	if err := opts.validate(); err != nil {
		return err
	}

	settings, err := loadSettings(getStringFlag(cmd, "config"))
	if err != nil {
		return err
	}
	opts.dataset = resolveHistoryDataset(settings, opts.dataset)

	db, err := database.Open(config.XDGDataDir(), database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	return runHistory(cmd.Context(), cmd.OutOrStdout(), db, opts)
}

func (o historyOptions) validate() error {
	switch {
	case o.json && o.markdown:
		return config.ErrConflictingReportFormats
	case o.latest && o.dataset == "":
		return errors.New("--latest requires --dataset")
	case o.latest && o.show > 0:
		return errors.New("--latest and --show cannot be used together")
	case o.limit < 0:
		return errors.New("--limit must not be negative")
	}
	return nil
}

// resolveHistoryDataset maps a typed dataset name to its configured label.
// Runs of datasets no longer configured are still found by exact label.
func resolveHistoryDataset(settings *config.File, query string) string {
	if query == "" || settings == nil {
		return query
	}
	if ds, err := settings.ResolveDataset(query); err == nil {
		return ds.Label
	}
	return query
}

// runHistory performs the selected history action.
func runHistory(ctx context.Context, out io.Writer, db *database.RunDB, opts historyOptions) error {
	switch {
	case opts.listDatasets:
		return listDatasets(ctx, out, db)
	case opts.show > 0:
		run, err := db.GetRun(ctx, opts.show)
		if err != nil {
			return err
		}
		_, err = historyWriter(out, opts).Write(run)
		return err
	case opts.latest:
		run, err := db.LatestRun(ctx, opts.dataset)
		if err != nil {
			return err
		}
		_, err = historyWriter(out, opts).Write(run)
		return err
	default:
		return listRuns(ctx, out, db, opts.dataset, opts.limit)
	}
}

func historyWriter(out io.Writer, opts historyOptions) report.Writer {
	switch {
	case opts.json:
		return report.NewJSONWriter(out, report.WithPrettyPrint(), report.WithVersion(getVersion()))
	case opts.markdown:
		return report.NewMarkdownWriter(out)
	default:
		return report.NewSimpleWriter(out, report.WithVerbose(true))
	}
}

// listDatasets prints the datasets that have saved runs.
func listDatasets(ctx context.Context, out io.Writer, db *database.RunDB) error {
	labels, err := db.ListDatasets(ctx)
	if err != nil {
		return err
	}

	if len(labels) == 0 {
		fmt.Fprintln(out, "No runs found in the database.")
		fmt.Fprintln(out, "\nUse 'fieldreport generate <dataset>' to generate a report.")
		return nil
	}

	fmt.Fprintf(out, "Datasets with saved runs (%d):\n\n", len(labels))
	for _, label := range labels {
		fmt.Fprintf(out, "  • %s\n", label)
	}
	fmt.Fprintln(out, "\nUse 'fieldreport history --dataset <label>' to see the runs of a dataset.")
	return nil
}

// listRuns prints one line per run, newest first.
func listRuns(ctx context.Context, out io.Writer, db *database.RunDB, dataset string, limit int) error {
	runs, err := db.ListRuns(ctx, dataset, limit)
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		if dataset != "" {
			fmt.Fprintf(out, "No runs found for %s\n", dataset)
		} else {
			fmt.Fprintln(out, "No runs found in the database.")
		}
		fmt.Fprintln(out, "\nUse 'fieldreport generate <dataset>' to generate a report.")
		return nil
	}

	if dataset != "" {
		fmt.Fprintf(out, "Runs of %s (%d):\n\n", dataset, len(runs))
	} else {
		fmt.Fprintf(out, "Recent runs (%d):\n\n", len(runs))
	}
	fmt.Fprintf(out, "  %-6s  %-19s  %-16s  %-8s  %-5s  %s\n", "ID", "Started", "Dataset", "Status", "Sent", "Findings")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 72))

	for _, r := range runs {
		deliveries, err := db.Deliveries(ctx, r.ID)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "  %-6d  %-19s  %-16s  %-8s  %-5s  %d\n",
			r.ID,
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			clip(r.Dataset, 16),
			runStatus(r),
			sentSummary(deliveries),
			r.Findings,
		)
	}

	fmt.Fprintln(out, "\nUse 'fieldreport history --show <id>' to see a run in full.")
	return nil
}

func runStatus(r database.RunSummary) string {
	if r.Succeeded {
		return "ok"
	}
	return fmt.Sprintf("%d failed", r.FailedSteps)
}

// sentSummary returns "sent/attempted", or "-" when nothing was attempted.
func sentSummary(deliveries []model.Delivery) string {
	if len(deliveries) == 0 {
		return "-"
	}
	sent := 0
	for _, d := range deliveries {
		if d.Sent {
			sent++
		}
	}
	return fmt.Sprintf("%d/%d", sent, len(deliveries))
}

// clip shortens s to n runes.
func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
