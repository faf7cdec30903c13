package convert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// CommandRunner runs an external program and returns its combined output.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// LibreOffice converts with a headless LibreOffice.
type LibreOffice struct {
	binary   string
	run      CommandRunner
	lookPath func(string) (string, error)
	logger   *slog.Logger
}

// LibreOfficeOption configures a LibreOffice converter.
type LibreOfficeOption func(*LibreOffice)

// WithBinary sets the program name or path. Default: soffice.
func WithBinary(binary string) LibreOfficeOption {
	return func(l *LibreOffice) {
		if binary != "" {
			l.binary = binary
		}
	}
}

// WithCommandRunner replaces process execution.
func WithCommandRunner(run CommandRunner) LibreOfficeOption {
	return func(l *LibreOffice) {
		l.run = run
	}
}

// WithLookPath replaces the program lookup.
func WithLookPath(lookPath func(string) (string, error)) LibreOfficeOption {
	return func(l *LibreOffice) {
		l.lookPath = lookPath
	}
}

// WithLibreOfficeLogger sets the logger.
func WithLibreOfficeLogger(logger *slog.Logger) LibreOfficeOption {
	return func(l *LibreOffice) {
		l.logger = logger
	}
}

// NewLibreOffice creates a LibreOffice converter.
func NewLibreOffice(opts ...LibreOfficeOption) *LibreOffice {
	l := &LibreOffice{
		binary:   "soffice",
		run:      execRunner,
		lookPath: exec.LookPath,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Convert runs soffice --headless --convert-to pdf. LibreOffice names the
// output after the source, so the result is renamed when Target differs.
func (l *LibreOffice) Convert(ctx context.Context, job Job) error {
	bin, err := l.resolve()
	if err != nil {
		return err
	}

	outDir := filepath.Dir(job.Target)
	if err := os.MkdirAll(outDir, 0o750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	args := []string{"--headless", "--convert-to", "pdf", "--outdir", outDir, job.Source}
	l.logger.Debug("running converter", "binary", bin, "source", job.Source)

	out, err := l.run(ctx, bin, args...)
	if err != nil {
		return fmt.Errorf("%s failed: %w: %s", filepath.Base(bin), err, strings.TrimSpace(string(out)))
	}

	stem := strings.TrimSuffix(filepath.Base(job.Source), filepath.Ext(job.Source))
	produced := filepath.Join(outDir, stem+".pdf")
	if _, err := os.Stat(produced); err != nil {
		return fmt.Errorf("%w: %s", ErrNoOutput, produced)
	}
	if filepath.Clean(produced) != filepath.Clean(job.Target) {
		if err := os.Rename(produced, job.Target); err != nil {
			return fmt.Errorf("failed to move converted file: %w", err)
		}
	}
	return nil
}

// resolve finds the binary. Distributions install LibreOffice as either
// soffice or libreoffice.
func (l *LibreOffice) resolve() (string, error) {
	path, err := l.lookPath(l.binary)
	if err == nil {
		return path, nil
	}
	if l.binary == "soffice" {
		if path, altErr := l.lookPath("libreoffice"); altErr == nil {
			return path, nil
		}
	}
	if errors.Is(err, exec.ErrNotFound) {
		return "", fmt.Errorf("%w: %s", ErrConverterNotFound, l.binary)
	}
	return "", fmt.Errorf("%w: %s: %v", ErrConverterNotFound, l.binary, err)
}
