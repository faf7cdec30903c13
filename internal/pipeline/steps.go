package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/dcxsea/fieldreport/internal/archive"
	"github.com/dcxsea/fieldreport/internal/convert"
	"github.com/dcxsea/fieldreport/internal/deliver"
	"github.com/dcxsea/fieldreport/internal/document"
	"github.com/dcxsea/fieldreport/internal/model"
	"github.com/dcxsea/fieldreport/internal/narrative"
)

// Step names, in pipeline order.
const (
	StepFetch    = "fetch"
	StepGenerate = "generate"
	StepRender   = "render"
	StepConvert  = "convert"
	StepAudit    = "audit"
	StepArchive  = "archive"
	StepEmail    = "email"
	StepTelegram = "telegram"
)

// TableFetcher retrieves a dataset's survey data.
type TableFetcher interface {
	Fetch(ctx context.Context, url string) (*model.Table, error)
}

// DocumentRenderer turns report text into a document.
type DocumentRenderer interface {
	Render(ctx context.Context, text string) (*document.Document, error)
}

// DocumentWriter writes a document to a file.
type DocumentWriter interface {
	WriteFile(path string, doc *document.Document) error
}

// Auditor inspects artifacts for metadata.
type Auditor interface {
	Audit(ctx context.Context, paths ...string) ([]model.Finding, error)
}

// EmailSender sends one email with attachments.
type EmailSender interface {
	Send(ctx context.Context, m deliver.Message) error
	Recipients() []string
}

// DocumentSender uploads one file with a caption.
type DocumentSender interface {
	SendDocument(ctx context.Context, path, caption string) error
	Chat() string
}

// FetchStep downloads the dataset's CSV into run.Table.
type FetchStep struct {
	fetcher TableFetcher
}

// NewFetchStep creates a FetchStep.
func NewFetchStep(fetcher TableFetcher) *FetchStep {
	return &FetchStep{fetcher: fetcher}
}

// Name returns the step name.
func (s *FetchStep) Name() string { return StepFetch }

// Do executes the fetch step.
func (s *FetchStep) Do(ctx context.Context, run *model.Run) error {
	table, err := s.fetcher.Fetch(ctx, run.Dataset.URL)
	if err != nil {
		return err
	}
	run.Table = table
	return nil
}

// GenerateStep asks the model for report text about run.Table.
type GenerateStep struct {
	generator    narrative.Generator
	instructions string
}

// NewGenerateStep creates a GenerateStep. Empty instructions select the
// built-in report layout.
func NewGenerateStep(generator narrative.Generator, instructions string) *GenerateStep {
	return &GenerateStep{generator: generator, instructions: instructions}
}

// Name returns the step name.
func (s *GenerateStep) Name() string { return StepGenerate }

// Do executes the generate step.
func (s *GenerateStep) Do(ctx context.Context, run *model.Run) error {
	if run.Table.Empty() {
		return skip("no data available")
	}

	prompt, err := narrative.BuildPrompt(s.instructions, run.Table.Records())
	if err != nil {
		return err
	}

	text, err := s.generator.Complete(ctx, prompt)
	if err != nil {
		return fmt.Errorf("failed to generate report: %w", err)
	}
	run.Narrative = text
	return nil
}

// RenderStep renders run.Narrative and writes {Title}.docx.
type RenderStep struct {
	renderer  DocumentRenderer
	writer    DocumentWriter
	outputDir string
}

// NewRenderStep creates a RenderStep writing into outputDir.
func NewRenderStep(renderer DocumentRenderer, writer DocumentWriter, outputDir string) *RenderStep {
	return &RenderStep{renderer: renderer, writer: writer, outputDir: outputDir}
}

// Name returns the step name.
func (s *RenderStep) Name() string { return StepRender }

// Do executes the render step.
func (s *RenderStep) Do(ctx context.Context, run *model.Run) error {
	if run.Narrative == "" {
		return skip("no report text")
	}

	doc, err := s.renderer.Render(ctx, run.Narrative)
	if err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	if doc.Title == "" {
		doc.Title = run.Dataset.Title
	}

	path := filepath.Join(s.outputDir, run.Dataset.FileStem()+".docx")
	if err := s.writer.WriteFile(path, doc); err != nil {
		return fmt.Errorf("failed to save Word document: %w", err)
	}

	run.Document = doc
	run.DocxPath = path
	return nil
}

// ConvertStep produces {Title}.pdf from the DOCX.
type ConvertStep struct {
	converter convert.Converter
	outputDir string
}

// NewConvertStep creates a ConvertStep. Wrap the converter in
// convert.Retrying for the retry policy.
func NewConvertStep(converter convert.Converter, outputDir string) *ConvertStep {
	return &ConvertStep{converter: converter, outputDir: outputDir}
}

// Name returns the step name.
func (s *ConvertStep) Name() string { return StepConvert }

// Do executes the convert step.
func (s *ConvertStep) Do(ctx context.Context, run *model.Run) error {
	if run.DocxPath == "" {
		return skip("no Word document")
	}

	target := filepath.Join(s.outputDir, run.Dataset.FileStem()+".pdf")
	job := convert.Job{Source: run.DocxPath, Target: target, Document: run.Document}
	if err := s.converter.Convert(ctx, job); err != nil {
		return err
	}
	run.PDFPath = target
	return nil
}

// AuditStep records metadata findings for the artifacts produced so far.
type AuditStep struct {
	auditor Auditor
}

// NewAuditStep creates an AuditStep.
func NewAuditStep(auditor Auditor) *AuditStep {
	return &AuditStep{auditor: auditor}
}

// Name returns the step name.
func (s *AuditStep) Name() string { return StepAudit }

// Do executes the audit step. Findings are kept even when some artifact
// could not be read.
func (s *AuditStep) Do(ctx context.Context, run *model.Run) error {
	paths := existing(run.DocxPath, run.PDFPath)
	if len(paths) == 0 {
		return skip("no artifacts")
	}

	findings, err := s.auditor.Audit(ctx, paths...)
	for _, f := range findings {
		run.AddFinding(f)
	}
	return err
}

// ArchiveStep bundles the artifacts into {Title}.zip.
type ArchiveStep struct {
	outputDir string
}

// NewArchiveStep creates an ArchiveStep.
func NewArchiveStep(outputDir string) *ArchiveStep {
	return &ArchiveStep{outputDir: outputDir}
}

// Name returns the step name.
func (s *ArchiveStep) Name() string { return StepArchive }

// Do executes the archive step. Whichever of the DOCX and PDF exist are
// archived.
func (s *ArchiveStep) Do(_ context.Context, run *model.Run) error {
	paths := existing(run.DocxPath, run.PDFPath)
	if len(paths) == 0 {
		return skip("no artifacts")
	}

	zipPath := filepath.Join(s.outputDir, run.Dataset.FileStem()+".zip")
	digests, err := archive.Create(zipPath, paths...)
	if err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}

	run.ArchivePath = zipPath
	for name, d := range digests {
		run.Digests[name] = d
	}
	return nil
}

// EmailStep mails the archive to the recipient list.
type EmailStep struct {
	sender EmailSender
	now    func() time.Time
}

// NewEmailStep creates an EmailStep.
func NewEmailStep(sender EmailSender) *EmailStep {
	return &EmailStep{sender: sender, now: time.Now}
}

// Name returns the step name.
func (s *EmailStep) Name() string { return StepEmail }

// Do executes the email step.
func (s *EmailStep) Do(ctx context.Context, run *model.Run) error {
	if run.ArchivePath == "" {
		return skip("no archive")
	}

	msg := deliver.Message{
		Subject:     run.Dataset.Title + " Generated Report",
		Body:        "Please find the attached reports.",
		Attachments: []string{run.ArchivePath},
	}
	err := s.sender.Send(ctx, msg)
	run.AddDelivery(delivery("email", strings.Join(s.sender.Recipients(), ", "), run.ArchivePath, err, s.now))
	return err
}

// TelegramStep posts the DOCX and the PDF as two documents.
type TelegramStep struct {
	sender DocumentSender
	now    func() time.Time
}

// NewTelegramStep creates a TelegramStep.
func NewTelegramStep(sender DocumentSender) *TelegramStep {
	return &TelegramStep{sender: sender, now: time.Now}
}

// Name returns the step name.
func (s *TelegramStep) Name() string { return StepTelegram }

// Do executes the telegram step. Both uploads are attempted; the error
// joins any failures.
func (s *TelegramStep) Do(ctx context.Context, run *model.Run) error {
	uploads := []struct{ path, kind string }{
		{run.DocxPath, "Word"},
		{run.PDFPath, "PDF"},
	}

	var errs []error
	sent := 0
	for _, u := range uploads {
		if u.path == "" {
			continue
		}
		caption := fmt.Sprintf("Here is your generated %s (%s).", run.Dataset.Title, u.kind)
		err := s.sender.SendDocument(ctx, u.path, caption)
		run.AddDelivery(delivery("telegram", s.sender.Chat(), u.path, err, s.now))
		if err != nil {
			errs = append(errs, err)
			continue
		}
		sent++
	}

	if sent == 0 && len(errs) == 0 {
		return skip("no artifacts")
	}
	return errors.Join(errs...)
}

func delivery(channel, target, path string, err error, now func() time.Time) model.Delivery {
	d := model.Delivery{Channel: channel, Target: target, File: filepath.Base(path)}
	if err != nil {
		d.Error = err.Error()
		return d
	}
	d.Sent = true
	d.SentAt = now()
	return d
}

// existing returns the non-empty paths in order.
func existing(paths ...string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// DefaultPipelineConfig holds configuration for the default pipeline.
type DefaultPipelineConfig struct {
	// OutputDir is where the docx, pdf and zip files are written.
	OutputDir string

	// Instructions override the built-in report instructions.
	Instructions string

	// NoSend leaves out the email and telegram steps.
	NoSend bool
}

// DefaultPipelineOption configures a DefaultPipelineConfig.
type DefaultPipelineOption func(*DefaultPipelineConfig)

// WithPipelineOutputDir sets the artifact directory.
func WithPipelineOutputDir(dir string) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		if dir != "" {
			c.OutputDir = dir
		}
	}
}

// WithPipelineInstructions sets the report instructions.
func WithPipelineInstructions(instructions string) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Instructions = instructions
	}
}

// WithPipelineNoSend leaves out the delivery steps.
func WithPipelineNoSend(noSend bool) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.NoSend = noSend
	}
}

// Components are the collaborators of the default pipeline. Email and
// Telegram may be nil, which leaves out the corresponding step.
type Components struct {
	Fetcher   TableFetcher
	Generator narrative.Generator
	Renderer  DocumentRenderer
	Writer    DocumentWriter
	Converter convert.Converter
	Auditor   Auditor
	Email     EmailSender
	Telegram  DocumentSender
}

// DefaultPipeline creates the report generation pipeline in its standard
// order: fetch, generate, render, convert, audit, archive, email,
// telegram.
//
// The first variadic parameter accepts pipeline options (WithLogger, etc).
// The second accepts pipeline config options (WithPipelineOutputDir, etc).
func DefaultPipeline(c Components, pipelineOpts []Option, configOpts ...DefaultPipelineOption) *Pipeline {
	p := New(pipelineOpts...)

	cfg := &DefaultPipelineConfig{OutputDir: "."}
	for _, opt := range configOpts {
		opt(cfg)
	}

	p.AddSteps(
		NewFetchStep(c.Fetcher),
		NewGenerateStep(c.Generator, cfg.Instructions),
		NewRenderStep(c.Renderer, c.Writer, cfg.OutputDir),
		NewConvertStep(c.Converter, cfg.OutputDir),
		NewAuditStep(c.Auditor),
		NewArchiveStep(cfg.OutputDir),
	)

	if cfg.NoSend {
		return p
	}
	if c.Email != nil {
		p.AddStep(NewEmailStep(c.Email))
	}
	if c.Telegram != nil {
		p.AddStep(NewTelegramStep(c.Telegram))
	}
	return p
}
