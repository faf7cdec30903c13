package report

import (
	"encoding/json"
	"io"

	"github.com/dcxsea/fieldreport/internal/model"
)

// JSONWriter outputs run summaries as JSON, one document per run.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string

	// version is stamped into every document when set.
	version string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with two-space indentation.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// WithVersion stamps the tool version into every document.
func WithVersion(version string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.version = version
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// JSONReport wraps a run with output-only fields.
type JSONReport struct {
	Version   string     `json:"version,omitempty"`
	Status    string     `json:"status"`
	Succeeded bool       `json:"succeeded"`
	Run       *model.Run `json:"run"`

	// Summary counts findings by severity name.
	Summary map[string]int `json:"summary"`
}

// NewJSONReport creates a JSONReport for run.
func NewJSONReport(run *model.Run, version string) *JSONReport {
	summary := make(map[string]int, len(severities))
	for _, s := range severities {
		summary[s.String()] = run.CountBySeverity(s)
	}
	return &JSONReport{
		Version:   version,
		Status:    statusText(run),
		Succeeded: run.Succeeded(),
		Run:       run,
		Summary:   summary,
	}
}

// Write outputs the run wrapped in a JSONReport.
func (w *JSONWriter) Write(run *model.Run) (int, error) {
	return w.writeJSON(NewJSONReport(run, w.version))
}

func (w *JSONWriter) writeJSON(v any) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, err
	}

	data = append(data, '\n')
	return w.output.Write(data)
}
