package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/dcxsea/fieldreport/internal/config"
	"github.com/dcxsea/fieldreport/internal/convert"
	"github.com/dcxsea/fieldreport/internal/model"
	"github.com/spf13/cobra"
)

// NewRenderCmd creates the render command.
func NewRenderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render <text-file>",
		Short: "Render report text into a Word document",
		Long: `Render lays out an existing report text as a Word document with the
standard cover page, without fetching data or calling the language model.

The first line of the text is treated as a preamble and dropped. The rest
may use headings (#, ##, ###, ####), **bold**, *italic*, ***both***,
| pipe | tables |, "- " bullets and --- page breaks.

Use "-" to read the text from standard input.

Examples:
  # Render a saved report
  fieldreport render notes.txt

  # Name the output and produce a PDF too
  fieldreport render --title "One Year Report" --pdf notes.txt

  # Render from a pipe without downloading the logo
  cat notes.txt | fieldreport render --no-logo -`,
		Args: cobra.ExactArgs(1),
		RunE: runRenderCmd,
	}

	cmd.Flags().String("title", "",
		"Report title used for the file names (default: the input file name)")
	cmd.Flags().StringP("output-dir", "d", ".",
		"Directory for the generated files")
	cmd.Flags().Bool("pdf", false,
		"Also convert the document to PDF")
	cmd.Flags().String("converter", config.DefaultConverter,
		"PDF converter: libreoffice or native")
	cmd.Flags().Bool("no-logo", false,
		"Do not download the cover logo")

	addEgressFlags(cmd)

	return cmd
}

// renderOptions holds the render command's own flags.
type renderOptions struct {
	input  string
	title  string
	pdf    bool
	noLogo bool
}

func runRenderCmd(cmd *cobra.Command, args []string) error {
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
	if cfg.Converter, err = cmd.Flags().GetString("converter"); err != nil {
		return err
	}
	if err := cfg.ValidateLocal(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	opts := renderOptions{input: args[0]}
	if opts.title, err = cmd.Flags().GetString("title"); err != nil {
		return err
	}
	if opts.pdf, err = cmd.Flags().GetBool("pdf"); err != nil {
		return err
	}
	if opts.noLogo, err = cmd.Flags().GetBool("no-logo"); err != nil {
		return err
	}

	logger := setupLogger(cfg, os.Stderr)
	slog.SetDefault(logger)

	ctx, cancel := signalContext(logger)
	defer cancel()

	text, err := readInput(opts.input, cmd.InOrStdin())
	if err != nil {
		return err
	}

	var httpClient *http.Client
	if !opts.noLogo {
		client, release, err := openEgress(ctx, cfg, cmd.ErrOrStderr(), logger)
		if err != nil {
			return err
		}
		defer release()
		httpClient = client.HTTPClient()
	}

	return renderText(ctx, cmd.OutOrStdout(), cfg, httpClient, text, opts, logger)
}

// renderText writes the document for text, and the PDF when asked.
func renderText(ctx context.Context, out io.Writer, cfg *config.Config, httpClient *http.Client, text string, opts renderOptions, logger *slog.Logger) error {
	ds := model.Dataset{Title: reportTitle(opts)}

	doc, err := newRenderer(cfg, httpClient, logger).Render(ctx, text)
	if err != nil {
		return err
	}
	if doc.Title == "" {
		doc.Title = ds.Title
	}

	if err := os.MkdirAll(cfg.OutputDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	docxPath := filepath.Join(cfg.OutputDir, ds.FileStem()+".docx")
	if err := newDocxWriter(cfg).WriteFile(docxPath, doc); err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}
	fmt.Fprintf(out, "Document saved: %s\n", docxPath)

	if !opts.pdf {
		return nil
	}

	pdfPath := filepath.Join(cfg.OutputDir, ds.FileStem()+".pdf")
	job := convert.Job{Source: docxPath, Target: pdfPath, Document: doc}
	if err := newConverter(cfg, logger).Convert(ctx, job); err != nil {
		return fmt.Errorf("failed to convert document: %w", err)
	}
	fmt.Fprintf(out, "PDF saved: %s\n", pdfPath)
	return nil
}

// reportTitle returns the --title value or the input file's base name.
func reportTitle(opts renderOptions) string {
	if t := strings.TrimSpace(opts.title); t != "" {
		return t
	}
	if opts.input == "-" || opts.input == "" {
		return "Report"
	}
	base := filepath.Base(opts.input)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// readInput reads a text file, or stdin for "-".
func readInput(path string, stdin io.Reader) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path) //nolint:gosec // User-provided input path is intentional
	}
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("input file not found: %s", path)
		}
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return string(data), nil
}
