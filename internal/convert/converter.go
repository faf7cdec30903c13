package convert

import (
	"context"
	"errors"

	"github.com/dcxsea/fieldreport/internal/document"
)

var (
	// ErrConverterNotFound is returned when the conversion program is not
	// installed.
	ErrConverterNotFound = errors.New("converter not found")

	// ErrNoDocument is returned by converters that need the rendered
	// document when the job carries none.
	ErrNoDocument = errors.New("job has no rendered document")

	// ErrNoOutput is returned when the converter ran but the expected file
	// was not produced.
	ErrNoOutput = errors.New("converter produced no output")

	// ErrConversionFailed is returned once every attempt failed.
	ErrConversionFailed = errors.New("conversion failed")
)

// Job describes one conversion.
type Job struct {
	// Source is the editable (DOCX) file.
	Source string

	// Target is the PDF path to write.
	Target string

	// Document is the rendered document Source was written from.
	Document *document.Document
}

// Converter converts a job's source into its target.
type Converter interface {
	Convert(ctx context.Context, job Job) error
}

// ConverterFunc adapts a function to the Converter interface.
type ConverterFunc func(ctx context.Context, job Job) error

// Convert calls f.
func (f ConverterFunc) Convert(ctx context.Context, job Job) error {
	return f(ctx, job)
}
