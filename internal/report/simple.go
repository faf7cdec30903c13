package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dcxsea/fieldreport/internal/model"
)

// SimpleWriter outputs human-readable text summaries.
type SimpleWriter struct {
	baseWriter

	// verbose adds finding impact and recommendation lines.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the run summary.
func (w *SimpleWriter) Write(run *model.Run) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, run)
	w.writeSteps(&sb, run)
	w.writeArtifacts(&sb, run)
	w.writeDeliveries(&sb, run)
	w.writeFindings(&sb, run)

	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")

	return io.WriteString(w.output, sb.String())
}

func section(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")
}

func (w *SimpleWriter) writeHeader(sb *strings.Builder, run *model.Run) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	fmt.Fprintf(sb, "%s\n", strings.ToUpper(run.Dataset.Title))
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "Dataset:  %s\n", run.Dataset.Label)
	fmt.Fprintf(sb, "Started:  %s\n", run.StartedAt.Format("2006-01-02 15:04:05 MST"))
	if run.Table != nil {
		fmt.Fprintf(sb, "Rows:     %d\n", len(run.Table.Rows))
	}
	fmt.Fprintf(sb, "Status:   %s\n\n", statusText(run))
}

func (w *SimpleWriter) writeSteps(sb *strings.Builder, run *model.Run) {
	section(sb, "STEPS")

	if len(run.Steps) == 0 {
		sb.WriteString("  No steps ran\n\n")
		return
	}
	for _, s := range run.Steps {
		fmt.Fprintf(sb, "  [%s] %-9s %s", stepIndicator(s.Status), s.Name, s.Duration.Round(time.Millisecond))
		switch {
		case s.Error != "":
			fmt.Fprintf(sb, "  %s", s.Error)
		case s.Message != "":
			fmt.Fprintf(sb, "  %s", s.Message)
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeArtifacts(sb *strings.Builder, run *model.Run) {
	artifacts := run.Artifacts()
	if len(artifacts) == 0 {
		return
	}

	section(sb, "ARTIFACTS")
	for _, a := range artifacts {
		fmt.Fprintf(sb, "  %-4s %s\n", a.Kind, a.Path)
		if a.Digest != "" {
			fmt.Fprintf(sb, "       sha3-256 %s\n", a.Digest)
		}
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeDeliveries(sb *strings.Builder, run *model.Run) {
	if len(run.Deliveries) == 0 {
		return
	}

	section(sb, "DELIVERIES")
	for _, d := range run.Deliveries {
		if d.Sent {
			fmt.Fprintf(sb, "  [+] %s %s -> %s\n", d.Channel, d.File, d.Target)
			continue
		}
		fmt.Fprintf(sb, "  [x] %s %s -> %s: %s\n", d.Channel, d.File, d.Target, d.Error)
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeFindings(sb *strings.Builder, run *model.Run) {
	if len(run.Findings) == 0 {
		return
	}

	section(sb, "METADATA FINDINGS")
	for _, severity := range severities {
		findings := findingsBySeverity(run, severity)
		if len(findings) == 0 {
			continue
		}
		fmt.Fprintf(sb, "[%s] %s\n", severityIndicator(severity), severity)
		for _, f := range findings {
			fmt.Fprintf(sb, "  * %s\n", f.Title)
			if f.Value != "" {
				fmt.Fprintf(sb, "    Value: %s\n", f.Value)
			}
			if f.Location != "" {
				fmt.Fprintf(sb, "    Location: %s\n", f.Location)
			}
			if w.verbose && f.Recommendation != "" {
				fmt.Fprintf(sb, "    Recommendation: %s\n", f.Recommendation)
			}
		}
		sb.WriteString("\n")
	}
}

func stepIndicator(s model.StepStatus) string {
	switch s {
	case model.StepOK:
		return "ok"
	case model.StepFailed:
		return "!!"
	case model.StepSkipped:
		return "--"
	default:
		return "??"
	}
}

func severityIndicator(severity model.Severity) string {
	switch severity {
	case model.SeverityCritical:
		return "!!!"
	case model.SeverityHigh:
		return "!!"
	case model.SeverityMedium:
		return "!"
	case model.SeverityLow:
		return "-"
	case model.SeverityInfo:
		return "i"
	default:
		return "?"
	}
}
