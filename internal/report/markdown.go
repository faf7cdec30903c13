package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/dcxsea/fieldreport/internal/model"
	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
)

// MarkdownWriter outputs run summaries in Markdown.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the run summary in Markdown.
func (w *MarkdownWriter) Write(run *model.Run) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, run)
	w.writeSteps(md, run)
	w.writeArtifacts(md, run)
	w.writeDeliveries(md, run)
	w.writeFindings(md, run)

	md.HorizontalRule()
	md.PlainText("")

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, run *model.Run) {
	md.H1(run.Dataset.Title)
	md.PlainText("")

	rows := [][]string{
		{"Dataset", run.Dataset.Label},
		{"Started", run.StartedAt.Format("2006-01-02 15:04:05 MST")},
	}
	if run.Table != nil {
		rows = append(rows, []string{"Rows", strconv.Itoa(len(run.Table.Rows))})
	}
	rows = append(rows, []string{"Status", w.statusBadge(run)})

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")

	switch {
	case run.TimedOut:
		md.Warning("The run was cancelled before every step ran.")
	case !run.Succeeded():
		md.Cautionf("%d step(s) failed.", len(run.Failed()))
	}
	md.PlainText("")
}

func (w *MarkdownWriter) statusBadge(run *model.Run) string {
	switch {
	case run.TimedOut:
		return "⚠️ " + statusText(run)
	case !run.Succeeded():
		return "❌ " + statusText(run)
	default:
		return "✅ " + statusText(run)
	}
}

func (w *MarkdownWriter) writeSteps(md *markdown.Markdown, run *model.Run) {
	md.H2("Steps")
	md.PlainText("")

	if len(run.Steps) == 0 {
		md.PlainText("No steps ran.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(run.Steps))
	for i, s := range run.Steps {
		detail := s.Error
		if detail == "" {
			detail = s.Message
		}
		if detail == "" {
			detail = "-"
		}
		rows[i] = []string{s.Name, string(s.Status), s.Duration.String(), truncateString(detail, 80)}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Step", "Status", "Duration", "Detail"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeArtifacts(md *markdown.Markdown, run *model.Run) {
	artifacts := run.Artifacts()
	if len(artifacts) == 0 {
		return
	}

	md.H2("Artifacts")
	md.PlainText("")

	rows := make([][]string, len(artifacts))
	for i, a := range artifacts {
		digest := "-"
		if a.Digest != "" {
			digest = markdown.Code(a.Digest)
		}
		rows[i] = []string{a.Kind, markdown.Code(a.Path), digest}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Kind", "Path", "SHA3-256"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeDeliveries(md *markdown.Markdown, run *model.Run) {
	if len(run.Deliveries) == 0 {
		return
	}

	md.H2("Deliveries")
	md.PlainText("")

	items := make([]string, len(run.Deliveries))
	for i, d := range run.Deliveries {
		if d.Sent {
			items[i] = fmt.Sprintf("✅ %s: %s to %s", d.Channel, d.File, d.Target)
			continue
		}
		items[i] = fmt.Sprintf("❌ %s: %s to %s (%s)", d.Channel, d.File, d.Target, d.Error)
	}
	md.BulletList(items...)
	md.PlainText("")
}

func (w *MarkdownWriter) writeFindings(md *markdown.Markdown, run *model.Run) {
	md.H2("Metadata Findings")
	md.PlainText("")

	if len(run.Findings) == 0 {
		md.Tip("No metadata found in the outbound artifacts.")
		md.PlainText("")
		return
	}

	w.writePieChart(md, run)

	for _, severity := range severities {
		findings := findingsBySeverity(run, severity)
		if len(findings) == 0 {
			continue
		}

		md.H3(severity.String())
		md.PlainText("")

		rows := make([][]string, len(findings))
		for i, f := range findings {
			rows[i] = []string{
				f.Title,
				truncateString(orDash(f.Value), 50),
				truncateString(orDash(f.Location), 40),
				truncateString(orDash(f.Recommendation), 60),
			}
		}
		md.Table(markdown.TableSet{
			Header: []string{"Title", "Value", "Location", "Recommendation"},
			Rows:   rows,
		})
		md.PlainText("")

		for _, f := range findings {
			if f.Impact != "" {
				md.Details(f.Title, f.Impact)
			}
		}
		md.PlainText("")
	}
}

func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, run *model.Run) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Finding Severity Distribution"),
		piechart.WithShowData(true),
	)
	for _, s := range severities {
		if n := run.CountBySeverity(s); n > 0 {
			chart.LabelAndIntValue(s.String(), uint64(n))
		}
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
