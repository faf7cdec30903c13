package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dcxsea/fieldreport/internal/convert"
	"github.com/dcxsea/fieldreport/internal/deliver"
	"github.com/dcxsea/fieldreport/internal/document"
	"github.com/dcxsea/fieldreport/internal/model"
	"github.com/dcxsea/fieldreport/internal/narrative"
)

type fakeFetcher struct {
	table *model.Table
	err   error
	url   string
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (*model.Table, error) {
	f.url = url
	return f.table, f.err
}

type fakeGenerator struct {
	text   string
	err    error
	prompt string
}

func (f *fakeGenerator) Complete(_ context.Context, prompt string) (string, error) {
	f.prompt = prompt
	return f.text, f.err
}

type fakeRenderer struct{}

func (fakeRenderer) Render(_ context.Context, _ string) (*document.Document, error) {
	return &document.Document{Body: []document.Element{{Kind: document.Paragraph}}}, nil
}

// fileWriter writes the document title so tests can check the file.
type fileWriter struct{}

func (fileWriter) WriteFile(path string, doc *document.Document) error {
	return os.WriteFile(path, []byte(doc.Title), 0o600)
}

type fakeAuditor struct {
	paths []string
}

func (f *fakeAuditor) Audit(_ context.Context, paths ...string) ([]model.Finding, error) {
	f.paths = paths
	return []model.Finding{
		model.NewFinding("docx_creator", "Document author", "alice", paths[0]),
		model.NewFinding("docx_creator", "Document author", "alice", paths[0]),
	}, nil
}

type fakeEmail struct {
	msg deliver.Message
	err error
}

func (f *fakeEmail) Send(_ context.Context, m deliver.Message) error {
	f.msg = m
	return f.err
}

func (f *fakeEmail) Recipients() []string { return []string{"a@example.com", "b@example.com"} }

type fakeTelegram struct {
	captions []string
	failOn   string
}

func (f *fakeTelegram) SendDocument(_ context.Context, path, caption string) error {
	if f.failOn != "" && strings.HasSuffix(path, f.failOn) {
		return errors.New("upload failed")
	}
	f.captions = append(f.captions, caption)
	return nil
}

func (f *fakeTelegram) Chat() string { return "-100123" }

func TestGenerateStep(t *testing.T) {
	t.Parallel()

	t.Run("skips without data", func(t *testing.T) {
		t.Parallel()

		gen := &fakeGenerator{text: "x"}
		err := NewGenerateStep(gen, "").Do(context.Background(), testRun())
		if !errors.Is(err, ErrSkipped) {
			t.Errorf("expected ErrSkipped, got %v", err)
		}
		if gen.prompt != "" {
			t.Error("generator should not be called")
		}
	})

	t.Run("stores generated text", func(t *testing.T) {
		t.Parallel()

		run := testRun()
		run.Table = &model.Table{Columns: []string{"Village", "Wells"}, Rows: [][]string{{"Kibera", "4"}}}
		gen := &fakeGenerator{text: "Title\n# Summary"}

		if err := NewGenerateStep(gen, "Write it.").Do(context.Background(), run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if run.Narrative != "Title\n# Summary" {
			t.Errorf("unexpected narrative %q", run.Narrative)
		}
		if !strings.HasPrefix(gen.prompt, "Write it.") || !strings.Contains(gen.prompt, "Kibera") {
			t.Errorf("unexpected prompt %q", gen.prompt)
		}
	})

	t.Run("wraps generator errors", func(t *testing.T) {
		t.Parallel()

		run := testRun()
		run.Table = &model.Table{Columns: []string{"a"}, Rows: [][]string{{"1"}}}
		err := NewGenerateStep(&fakeGenerator{err: narrative.ErrEmptyCompletion}, "").Do(context.Background(), run)
		if !errors.Is(err, narrative.ErrEmptyCompletion) {
			t.Errorf("expected ErrEmptyCompletion, got %v", err)
		}
	})
}

func TestRenderConvertArchiveSteps(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	run := testRun()
	ctx := context.Background()

	if err := NewRenderStep(fakeRenderer{}, fileWriter{}, dir).Do(ctx, testRun()); !errors.Is(err, ErrSkipped) {
		t.Errorf("expected render to skip without text, got %v", err)
	}

	run.Narrative = "Title\nbody"
	if err := NewRenderStep(fakeRenderer{}, fileWriter{}, dir).Do(ctx, run); err != nil {
		t.Fatalf("render: %v", err)
	}
	wantDocx := filepath.Join(dir, "One Year Report.docx")
	if run.DocxPath != wantDocx {
		t.Errorf("expected %s, got %s", wantDocx, run.DocxPath)
	}
	if data, _ := os.ReadFile(wantDocx); string(data) != "One Year Report" {
		t.Errorf("expected title to default to the dataset title, got %q", data)
	}

	var job convert.Job
	conv := convert.ConverterFunc(func(_ context.Context, j convert.Job) error {
		job = j
		return os.WriteFile(j.Target, []byte("%PDF-1.4"), 0o600)
	})
	if err := NewConvertStep(conv, dir).Do(ctx, run); err != nil {
		t.Fatalf("convert: %v", err)
	}
	if job.Source != wantDocx || job.Document != run.Document {
		t.Errorf("unexpected job %+v", job)
	}
	if run.PDFPath != filepath.Join(dir, "One Year Report.pdf") {
		t.Errorf("unexpected pdf path %s", run.PDFPath)
	}

	auditor := &fakeAuditor{}
	if err := NewAuditStep(auditor).Do(ctx, run); err != nil {
		t.Fatalf("audit: %v", err)
	}
	if len(auditor.paths) != 2 {
		t.Errorf("expected both artifacts audited, got %v", auditor.paths)
	}
	if len(run.Findings) != 1 {
		t.Errorf("expected duplicate finding to collapse, got %d", len(run.Findings))
	}

	if err := NewArchiveStep(dir).Do(ctx, run); err != nil {
		t.Fatalf("archive: %v", err)
	}
	if run.ArchivePath != filepath.Join(dir, "One Year Report.zip") {
		t.Errorf("unexpected archive path %s", run.ArchivePath)
	}
	if len(run.Digests) != 2 || len(run.Digests["One Year Report.pdf"]) != 64 {
		t.Errorf("unexpected digests %v", run.Digests)
	}
}

func TestConvertStep_SkipsWithoutDocx(t *testing.T) {
	t.Parallel()

	called := false
	conv := convert.ConverterFunc(func(context.Context, convert.Job) error {
		called = true
		return nil
	})
	err := NewConvertStep(conv, t.TempDir()).Do(context.Background(), testRun())
	if !errors.Is(err, ErrSkipped) || called {
		t.Errorf("expected skip without calling converter, got %v (called=%v)", err, called)
	}
}

func TestEmailStep(t *testing.T) {
	t.Parallel()

	t.Run("sends archive", func(t *testing.T) {
		t.Parallel()

		run := testRun()
		run.ArchivePath = "/out/One Year Report.zip"
		sender := &fakeEmail{}

		if err := NewEmailStep(sender).Do(context.Background(), run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if sender.msg.Subject != "One Year Report Generated Report" {
			t.Errorf("unexpected subject %q", sender.msg.Subject)
		}
		if sender.msg.Body != "Please find the attached reports." {
			t.Errorf("unexpected body %q", sender.msg.Body)
		}
		if len(run.Deliveries) != 1 || !run.Deliveries[0].Sent || run.Deliveries[0].Target != "a@example.com, b@example.com" {
			t.Errorf("unexpected deliveries %+v", run.Deliveries)
		}
	})

	t.Run("records failure", func(t *testing.T) {
		t.Parallel()

		run := testRun()
		run.ArchivePath = "/out/x.zip"
		err := NewEmailStep(&fakeEmail{err: errors.New("auth failed")}).Do(context.Background(), run)
		if err == nil {
			t.Fatal("expected error")
		}
		if run.Deliveries[0].Sent || run.Deliveries[0].Error != "auth failed" {
			t.Errorf("unexpected delivery %+v", run.Deliveries[0])
		}
	})

	t.Run("skips without archive", func(t *testing.T) {
		t.Parallel()

		err := NewEmailStep(&fakeEmail{}).Do(context.Background(), testRun())
		if !errors.Is(err, ErrSkipped) {
			t.Errorf("expected ErrSkipped, got %v", err)
		}
	})
}

func TestTelegramStep(t *testing.T) {
	t.Parallel()

	t.Run("sends docx and pdf separately", func(t *testing.T) {
		t.Parallel()

		run := testRun()
		run.DocxPath = "/out/One Year Report.docx"
		run.PDFPath = "/out/One Year Report.pdf"
		sender := &fakeTelegram{}

		if err := NewTelegramStep(sender).Do(context.Background(), run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []string{
			"Here is your generated One Year Report (Word).",
			"Here is your generated One Year Report (PDF).",
		}
		if strings.Join(sender.captions, "|") != strings.Join(want, "|") {
			t.Errorf("unexpected captions %q", sender.captions)
		}
		if len(run.Deliveries) != 2 {
			t.Errorf("expected 2 deliveries, got %d", len(run.Deliveries))
		}
	})

	t.Run("a failed upload does not stop the other", func(t *testing.T) {
		t.Parallel()

		run := testRun()
		run.DocxPath = "/out/r.docx"
		run.PDFPath = "/out/r.pdf"
		sender := &fakeTelegram{failOn: ".docx"}

		err := NewTelegramStep(sender).Do(context.Background(), run)
		if err == nil {
			t.Fatal("expected error")
		}
		if len(sender.captions) != 1 || !strings.HasSuffix(sender.captions[0], "(PDF).") {
			t.Errorf("expected PDF upload, got %q", sender.captions)
		}
	})

	t.Run("skips without artifacts", func(t *testing.T) {
		t.Parallel()

		err := NewTelegramStep(&fakeTelegram{}).Do(context.Background(), testRun())
		if !errors.Is(err, ErrSkipped) {
			t.Errorf("expected ErrSkipped, got %v", err)
		}
	})
}

func TestDefaultPipeline(t *testing.T) {
	t.Parallel()

	full := Components{
		Fetcher:   &fakeFetcher{},
		Generator: &fakeGenerator{},
		Renderer:  fakeRenderer{},
		Writer:    fileWriter{},
		Auditor:   &fakeAuditor{},
		Email:     &fakeEmail{},
		Telegram:  &fakeTelegram{},
	}

	tests := []struct {
		name  string
		comps Components
		opts  []DefaultPipelineOption
		want  string
	}{
		{"all steps", full, nil, "fetch,generate,render,convert,audit,archive,email,telegram"},
		{"no send", full, []DefaultPipelineOption{WithPipelineNoSend(true)}, "fetch,generate,render,convert,audit,archive"},
		{"nil channels are left out", Components{Fetcher: &fakeFetcher{}}, nil, "fetch,generate,render,convert,audit,archive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := DefaultPipeline(tt.comps, nil, tt.opts...)
			if got := strings.Join(p.StepNames(), ","); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestDefaultPipeline_EndToEnd(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	fetcher := &fakeFetcher{table: &model.Table{Columns: []string{"Village"}, Rows: [][]string{{"Kibera"}}}}
	email := &fakeEmail{}
	tg := &fakeTelegram{}
	conv := convert.ConverterFunc(func(_ context.Context, j convert.Job) error {
		return os.WriteFile(j.Target, []byte("%PDF-1.4"), 0o600)
	})

	p := DefaultPipeline(Components{
		Fetcher:   fetcher,
		Generator: &fakeGenerator{text: "Title\n# Findings"},
		Renderer:  fakeRenderer{},
		Writer:    fileWriter{},
		Converter: conv,
		Auditor:   &fakeAuditor{},
		Email:     email,
		Telegram:  tg,
	}, []Option{WithContinueOnError(true)}, WithPipelineOutputDir(dir))

	run := testRun()
	if err := p.Execute(context.Background(), run); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fetcher.url != "http://example.com/csv" {
		t.Errorf("unexpected fetch url %q", fetcher.url)
	}
	if len(run.Steps) != 8 || !run.Succeeded() {
		t.Errorf("expected 8 successful steps, got %+v", run.Steps)
	}
	if len(run.Artifacts()) != 3 {
		t.Errorf("expected docx, pdf and zip, got %+v", run.Artifacts())
	}
	if len(email.msg.Attachments) != 1 || len(tg.captions) != 2 {
		t.Errorf("expected email with archive and two telegram uploads")
	}
}

func TestDefaultPipeline_FetchFailureSkipsDependents(t *testing.T) {
	t.Parallel()

	p := DefaultPipeline(Components{
		Fetcher:  &fakeFetcher{err: errors.New("status 404")},
		Email:    &fakeEmail{},
		Telegram: &fakeTelegram{},
	}, []Option{WithContinueOnError(true)}, WithPipelineOutputDir(t.TempDir()))

	run := testRun()
	if err := p.Execute(context.Background(), run); err == nil {
		t.Fatal("expected fetch error")
	}
	for _, s := range run.Steps[1:] {
		if s.Status != model.StepSkipped {
			t.Errorf("expected %s skipped, got %s", s.Name, s.Status)
		}
	}
}
