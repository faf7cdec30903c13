package report

import (
	"io"

	"github.com/dcxsea/fieldreport/internal/model"
)

// Writer writes run summaries.
type Writer interface {
	// Write outputs the summary of one run.
	// Returns the number of bytes written and any error encountered.
	Write(run *model.Run) (int, error)
}

// MultiWriter writes to multiple Writers simultaneously.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the run to all configured Writers and stops on the first
// error.
func (m *MultiWriter) Write(run *model.Run) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(run)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteAll writes every non-nil run with w.
func WriteAll(w Writer, runs []*model.Run) (int, error) {
	var total int
	for _, run := range runs {
		if run == nil {
			continue
		}
		n, err := w.Write(run)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// severities lists severity levels from most to least severe.
var severities = []model.Severity{
	model.SeverityCritical,
	model.SeverityHigh,
	model.SeverityMedium,
	model.SeverityLow,
	model.SeverityInfo,
}

// findingsBySeverity returns the run's findings of one severity.
func findingsBySeverity(run *model.Run, s model.Severity) []model.Finding {
	var out []model.Finding
	for _, f := range run.Findings {
		if f.Severity == s {
			out = append(out, f)
		}
	}
	return out
}

// statusText returns a one-line status for a run.
func statusText(run *model.Run) string {
	switch {
	case run.TimedOut:
		return "Timed out (partial results)"
	case !run.Succeeded():
		return "Completed with errors"
	default:
		return "Complete"
	}
}

// truncateString truncates a string to maxLen runes with an ellipsis.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
