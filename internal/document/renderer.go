package document

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// ErrRender is returned when rendering fails unexpectedly.
var ErrRender = errors.New("failed to render document")

// Renderer builds documents from report text.
// A Renderer keeps no per-call state and may be used concurrently.
type Renderer struct {
	cover  CoverText
	logos  LogoSource
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithCoverText overrides the cover wording.
func WithCoverText(text CoverText) Option {
	return func(r *Renderer) {
		r.cover = text
	}
}

// WithLogoSource sets where the cover logo is fetched from.
// Without a source the cover has no logo.
func WithLogoSource(src LogoSource) Option {
	return func(r *Renderer) {
		r.logos = src
	}
}

// WithLogger sets a custom logger for the renderer.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Renderer) {
		r.logger = logger
	}
}

// WithClock sets the clock used for the cover date stamp.
func WithClock(now func() time.Time) Option {
	return func(r *Renderer) {
		r.now = now
	}
}

// NewRenderer creates a Renderer with the default cover wording.
func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{
		cover:  DefaultCoverText(),
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render converts report text into a document.
//
// The first line of text is discarded. An empty body is valid and yields
// a cover-only document. Malformed markup degrades to plain text; the only
// error is an unexpected internal failure, in which case the document is
// nil.
func (r *Renderer) Render(ctx context.Context, text string) (doc *Document, err error) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("rendering aborted", "panic", p)
			doc = nil
			err = fmt.Errorf("%w: %v", ErrRender, p)
		}
	}()

	return &Document{
		Cover: r.buildCover(ctx),
		Body:  buildBody(text),
	}, nil
}

// buildCover assembles the cover page. A logo that cannot be fetched is
// logged and left out.
func (r *Renderer) buildCover(ctx context.Context) Cover {
	c := Cover{
		CoverText: r.cover,
		Date:      r.now(),
	}
	if r.logos == nil || r.cover.LogoURL == "" {
		return c
	}

	logo, err := r.logos.Logo(ctx, r.cover.LogoURL)
	if err != nil {
		r.logger.Error("failed to fetch cover logo",
			"url", r.cover.LogoURL,
			"error", err,
		)
		return c
	}
	c.Logo = logo
	return c
}

// buildBody classifies every line after the first and assembles the body.
func buildBody(text string) []Element {
	lines := strings.Split(text, "\n")
	if len(lines) <= 1 {
		return nil
	}

	var (
		body []Element
		acc  tableAccumulator
	)
	for _, line := range lines[1:] {
		b := Classify(strings.TrimSuffix(line, "\r"))

		if b.Kind != TableRowBlock {
			acc.close()
		}

		switch b.Kind {
		case PageBreakBlock:
			body = append(body, Element{Kind: PageBreak})
		case HeadingBlock:
			body = append(body, Element{
				Kind:  Heading,
				Level: b.Level,
				Runs:  plainRuns(b.Text),
			})
		case BulletBlock:
			body = append(body, Element{Kind: Bullet, Runs: ScanInline(b.Text)})
		case TableRowBlock:
			if t := acc.row(b.Cells); t != nil {
				body = append(body, Element{Kind: TableElement, Table: t})
			}
		default:
			body = append(body, Element{Kind: Paragraph, Runs: ScanInline(b.Text)})
		}
	}
	return body
}
