package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dcxsea/fieldreport/internal/document"
	"github.com/dcxsea/fieldreport/internal/model"
)

func sampleRun() *model.Run {
	run := model.NewRun(model.Dataset{Label: "One Year", Title: "One Year Report"})
	run.StartedAt = time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	run.Table = &model.Table{Columns: []string{"Village"}, Rows: [][]string{{"Kibera"}, {"Mathare"}}}
	run.DocxPath = "/out/One Year Report.docx"
	run.ArchivePath = "/out/One Year Report.zip"
	run.Digests["One Year Report.docx"] = strings.Repeat("ab", 32)
	run.Steps = []model.StepResult{
		{Name: "fetch", Status: model.StepOK, Duration: 120 * time.Millisecond},
		{Name: "convert", Status: model.StepFailed, Error: "conversion failed: soffice not found"},
		{Name: "email", Status: model.StepSkipped, Message: "step skipped: no archive"},
	}
	run.AddFinding(model.NewFinding("docx_creator", "Document author", "alice", run.DocxPath))
	run.AddDelivery(model.Delivery{Channel: "telegram", Target: "-100123", File: "One Year Report.docx", Sent: true})
	run.AddDelivery(model.Delivery{Channel: "email", Target: "a@example.com", File: "One Year Report.zip", Error: "auth failed"})
	return run
}

func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if _, err := NewSimpleWriter(&buf, WithVerbose(true)).Write(sampleRun()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := buf.String()
	for _, want := range []string{
		"ONE YEAR REPORT",
		"Dataset:  One Year",
		"Rows:     2",
		"Status:   Completed with errors",
		"[ok] fetch",
		"[!!] convert",
		"soffice not found",
		"[--] email",
		"sha3-256 " + strings.Repeat("ab", 32),
		"[+] telegram",
		"[x] email",
		"Document author",
		"Value: alice",
		"Recommendation:",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output:\n%s", want, output)
		}
	}
}

func TestSimpleWriter_OmitsEmptySections(t *testing.T) {
	t.Parallel()

	run := model.NewRun(model.Dataset{Label: "6 Months", Title: "6 Months Report"})
	var buf bytes.Buffer
	if _, err := NewSimpleWriter(&buf).Write(run); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "No steps ran") {
		t.Errorf("expected empty steps notice, got:\n%s", output)
	}
	for _, section := range []string{"ARTIFACTS", "DELIVERIES", "METADATA FINDINGS"} {
		if strings.Contains(output, section) {
			t.Errorf("expected %s to be omitted", section)
		}
	}
}

func TestJSONWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := NewJSONWriter(&buf, WithPrettyPrint(), WithVersion("1.2.3"))
	if _, err := w.Write(sampleRun()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got struct {
		Version   string         `json:"version"`
		Succeeded bool           `json:"succeeded"`
		Summary   map[string]int `json:"summary"`
		Run       struct {
			Dataset struct {
				Title string `json:"title"`
			} `json:"dataset"`
			Steps []model.StepResult `json:"steps"`
		} `json:"run"`
	}
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}
	if got.Version != "1.2.3" || got.Succeeded {
		t.Errorf("unexpected header %+v", got)
	}
	if got.Run.Dataset.Title != "One Year Report" || len(got.Run.Steps) != 3 {
		t.Errorf("unexpected run %+v", got.Run)
	}
	total := 0
	for _, n := range got.Summary {
		total += n
	}
	if len(got.Summary) != 5 || total != 1 {
		t.Errorf("expected one finding in summary, got %v", got.Summary)
	}
	if !strings.Contains(buf.String(), "\n  ") {
		t.Error("expected indented output")
	}
}

func TestJSONWriter_Compact(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if _, err := NewJSONWriter(&buf).Write(sampleRun()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Count(buf.String(), "\n") != 1 {
		t.Errorf("expected a single line, got:\n%s", buf.String())
	}
}

func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if _, err := NewMarkdownWriter(&buf).Write(sampleRun()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := buf.String()
	for _, want := range []string{
		"# One Year Report",
		"## Steps",
		"convert",
		"## Artifacts",
		"## Deliveries",
		"## Metadata Findings",
		"mermaid",
		"Document author",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output:\n%s", want, output)
		}
	}
}

type failingWriter struct{ err error }

func (f failingWriter) Write(*model.Run) (int, error) { return 0, f.err }

func TestMultiWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes to every writer", func(t *testing.T) {
		t.Parallel()

		var a, b bytes.Buffer
		n, err := NewMultiWriter(NewSimpleWriter(&a), NewJSONWriter(&b)).Write(sampleRun())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if a.Len() == 0 || b.Len() == 0 || n != a.Len()+b.Len() {
			t.Errorf("unexpected byte counts n=%d a=%d b=%d", n, a.Len(), b.Len())
		}
	})

	t.Run("stops on first error", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("boom")
		var buf bytes.Buffer
		_, err := NewMultiWriter(failingWriter{boom}, NewSimpleWriter(&buf)).Write(sampleRun())
		if !errors.Is(err, boom) {
			t.Errorf("expected boom, got %v", err)
		}
		if buf.Len() != 0 {
			t.Error("expected second writer not to run")
		}
	})
}

func TestWriteAll_SkipsNilRuns(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if _, err := WriteAll(NewJSONWriter(&buf), []*model.Run{sampleRun(), nil, sampleRun()}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Count(buf.String(), "\n") != 2 {
		t.Errorf("expected 2 JSON lines, got:\n%s", buf.String())
	}
}

func TestTruncateString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is too long", 10, "this is..."},
		{"abcdef", 3, "abc"},
		{"ünïcödé text", 8, "ünïcö..."},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			if got := truncateString(tt.in, tt.max); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestDocumentMarkdown(t *testing.T) {
	t.Parallel()

	doc := &document.Document{
		Cover: document.Cover{
			CoverText: document.DefaultCoverText(),
			Date:      time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		},
		Body: []document.Element{
			{Kind: document.Heading, Level: 2, Runs: []document.InlineRun{{Text: "Findings"}}},
			{Kind: document.Paragraph, Runs: []document.InlineRun{
				{Text: "mixed", Style: document.BoldItalic},
				{Text: " and "},
				{Text: "strong", Style: document.Bold},
				{Text: " or "},
				{Text: "soft", Style: document.Italic},
			}},
			{Kind: document.Paragraph},
			{Kind: document.Bullet, Runs: []document.InlineRun{{Text: "first"}}},
			{Kind: document.Bullet, Runs: []document.InlineRun{{Text: "second"}}},
			{Kind: document.PageBreak},
			{Kind: document.Heading, Level: 4, Runs: []document.InlineRun{{Text: "Detail"}}},
			{Kind: document.TableElement, Table: &document.Table{
				Header: []string{"A", "B"},
				Rows:   [][]string{{"1", "2", "3"}, {"4"}},
			}},
		},
	}

	got, err := DocumentMarkdown(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{
		"**DCx Co., Ltd.**",
		"# Report",
		"## Indigenous Agriculture Adaptation",
		"Prepared for: Jack Jasmin",
		"Date: March 01, 2025",
		"## Findings",
		"***mixed*** and **strong** or *soft*",
		"first",
		"second",
		"#### Detail",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("expected %q in output:\n%s", want, got)
		}
	}

	lines := strings.Split(got, "\n")
	var tableLines []string
	for _, l := range lines {
		if strings.HasPrefix(strings.TrimSpace(l), "|") {
			tableLines = append(tableLines, l)
		}
	}
	if len(tableLines) != 4 {
		t.Fatalf("expected header, separator and 2 rows, got %d:\n%s", len(tableLines), got)
	}
	cols := strings.Count(tableLines[0], "|")
	for _, l := range tableLines[1:] {
		if strings.Count(l, "|") != cols {
			t.Errorf("expected ragged rows to be padded, got %q", l)
		}
	}
}

func TestTableMarkdown(t *testing.T) {
	t.Parallel()

	t.Run("renders rows", func(t *testing.T) {
		t.Parallel()

		got, err := TableMarkdown("One Year", &model.Table{
			Columns: []string{"Village", "Wells"},
			Rows:    [][]string{{"Kibera", "4"}, {"Mathare"}},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(got, "# One Year") || !strings.Contains(got, "Kibera") || !strings.Contains(got, "Mathare") {
			t.Errorf("unexpected output:\n%s", got)
		}
	})

	t.Run("empty table", func(t *testing.T) {
		t.Parallel()

		got, err := TableMarkdown("One Year", nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(got, "No data available.") {
			t.Errorf("expected empty notice, got:\n%s", got)
		}
	})
}

func TestPreview(t *testing.T) {
	t.Parallel()

	const md = "# Title\n\nSome **bold** text.\n"

	t.Run("non-terminal output is unchanged", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if err := Preview(&buf, md); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if buf.String() != md {
			t.Errorf("expected raw markdown, got %q", buf.String())
		}
	})

	t.Run("forced styling renders through glamour", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if err := Preview(&buf, md, WithForceStyling(true), WithStyle("dark"), WithWidth(60)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		out := buf.String()
		if out == md || !strings.Contains(out, "Title") {
			t.Errorf("expected rendered output, got %q", out)
		}
	})
}
