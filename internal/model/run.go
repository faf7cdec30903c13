package model

import (
	"path/filepath"
	"time"

	"github.com/dcxsea/fieldreport/internal/document"
)

// StepStatus is the outcome of one pipeline step.
type StepStatus string

const (
	// StepOK means the step completed.
	StepOK StepStatus = "ok"
	// StepFailed means the step returned an error.
	StepFailed StepStatus = "failed"
	// StepSkipped means the step's inputs were missing.
	StepSkipped StepStatus = "skipped"
)

// StepResult records what happened in one step.
type StepResult struct {
	Name     string        `json:"name"`
	Status   StepStatus    `json:"status"`
	Message  string        `json:"message,omitempty"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Artifact is a file produced by a run.
type Artifact struct {
	Kind string `json:"kind"` // docx, pdf, zip
	Path string `json:"path"`

	// Digest is the hex SHA3-256 of the file, set once the file is archived.
	Digest string `json:"digest,omitempty"`
}

// Delivery records one distribution attempt.
type Delivery struct {
	Channel string    `json:"channel"` // email, telegram
	Target  string    `json:"target"`
	File    string    `json:"file"`
	Sent    bool      `json:"sent"`
	Error   string    `json:"error,omitempty"`
	SentAt  time.Time `json:"sent_at,omitzero"`
}

// Run carries the state of one report generation through the pipeline.
// Steps read what earlier steps produced and add their own output.
type Run struct {
	Dataset   Dataset   `json:"dataset"`
	StartedAt time.Time `json:"started_at"`

	// Table is the fetched survey data.
	Table *Table `json:"table,omitempty"`

	// Narrative is the generated report text.
	Narrative string `json:"narrative,omitempty"`

	// Document is the rendered report.
	Document *document.Document `json:"-"`

	// Artifact paths. Empty until the producing step succeeds.
	DocxPath    string `json:"docx_path,omitempty"`
	PDFPath     string `json:"pdf_path,omitempty"`
	ArchivePath string `json:"archive_path,omitempty"`

	// Digests maps artifact base names to hex SHA3-256 digests.
	Digests map[string]string `json:"digests,omitempty"`

	Findings   []Finding    `json:"findings,omitempty"`
	Deliveries []Delivery   `json:"deliveries,omitempty"`
	Steps      []StepResult `json:"steps"`

	// TimedOut is set when the run was cancelled before all steps ran.
	TimedOut bool `json:"timed_out,omitempty"`
}

// NewRun creates a Run for the dataset.
func NewRun(ds Dataset) *Run {
	return &Run{
		Dataset:   ds,
		StartedAt: time.Now(),
		Digests:   make(map[string]string),
	}
}

// AddFinding appends a finding unless the same type, value and location
// were already recorded.
func (r *Run) AddFinding(f Finding) {
	for _, existing := range r.Findings {
		if existing.Type == f.Type && existing.Value == f.Value && existing.Location == f.Location {
			return
		}
	}
	r.Findings = append(r.Findings, f)
}

// AddDelivery records a distribution attempt.
func (r *Run) AddDelivery(d Delivery) {
	r.Deliveries = append(r.Deliveries, d)
}

// Artifacts returns the files produced so far, in production order.
func (r *Run) Artifacts() []Artifact {
	var out []Artifact
	add := func(kind, path string) {
		if path == "" {
			return
		}
		out = append(out, Artifact{Kind: kind, Path: path, Digest: r.Digests[filepath.Base(path)]})
	}
	add("docx", r.DocxPath)
	add("pdf", r.PDFPath)
	add("zip", r.ArchivePath)
	return out
}

// Failed returns the results of failed steps.
func (r *Run) Failed() []StepResult {
	var out []StepResult
	for _, s := range r.Steps {
		if s.Status == StepFailed {
			out = append(out, s)
		}
	}
	return out
}

// Succeeded reports whether every step that ran completed.
func (r *Run) Succeeded() bool {
	return len(r.Failed()) == 0 && !r.TimedOut
}

// Step returns the result of the named step.
func (r *Run) Step(name string) (StepResult, bool) {
	for _, s := range r.Steps {
		if s.Name == name {
			return s, true
		}
	}
	return StepResult{}, false
}

// CountBySeverity returns how many findings have the given severity.
func (r *Run) CountBySeverity(s Severity) int {
	n := 0
	for _, f := range r.Findings {
		if f.Severity == s {
			n++
		}
	}
	return n
}
