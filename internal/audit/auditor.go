package audit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dcxsea/fieldreport/internal/model"
)

// Auditor inspects files by extension.
type Auditor struct {
	// maxSize limits how much of a file is read.
	maxSize int64

	logger *slog.Logger
}

// Option configures an Auditor.
type Option func(*Auditor)

// WithMaxSize limits how many bytes of a file are inspected.
func WithMaxSize(size int64) Option {
	return func(a *Auditor) {
		if size > 0 {
			a.maxSize = size
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Auditor) {
		a.logger = logger
	}
}

// New creates an Auditor.
func New(opts ...Option) *Auditor {
	a := &Auditor{
		maxSize: 50 * 1024 * 1024, // 50MB
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Audit inspects every path and returns all findings. Files that cannot be
// read are reported in the joined error; the other files are still
// inspected.
func (a *Auditor) Audit(ctx context.Context, paths ...string) ([]model.Finding, error) {
	findings := make([]model.Finding, 0)
	var errs []error

	for _, p := range paths {
		select {
		case <-ctx.Done():
			return findings, ctx.Err()
		default:
		}

		fileFindings, err := a.AuditFile(p)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		findings = append(findings, fileFindings...)
	}

	a.logger.Debug("audit completed", "files", len(paths), "findings", len(findings))
	return findings, errors.Join(errs...)
}

// AuditFile inspects one file. Unsupported extensions yield no findings.
func (a *Auditor) AuditFile(path string) ([]model.Finding, error) {
	location := filepath.Base(path)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		data, err := a.read(path)
		if err != nil {
			return nil, err
		}
		return pdfFindings(data, location), nil
	case ".docx":
		return a.docxFindings(path, location)
	case ".jpg", ".jpeg", ".tif", ".tiff", ".png", ".webp", ".heic":
		data, err := a.read(path)
		if err != nil {
			return nil, err
		}
		return exifFindings(data, location), nil
	default:
		return nil, nil
	}
}

func (a *Auditor) read(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to audit %s: %w", path, err)
	}
	if info.Size() > a.maxSize {
		return nil, fmt.Errorf("failed to audit %s: file larger than %d bytes", path, a.maxSize)
	}
	data, err := os.ReadFile(path) //nolint:gosec // artifacts written by this process
	if err != nil {
		return nil, fmt.Errorf("failed to audit %s: %w", path, err)
	}
	return data, nil
}
