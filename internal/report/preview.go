package report

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"
)

// defaultWrap is the word wrap used when the terminal width is unknown.
const defaultWrap = 80

// PreviewOption configures Preview.
type PreviewOption func(*previewConfig)

type previewConfig struct {
	style string
	width int
	force bool
}

// WithStyle selects a glamour standard style such as "dark" or "dracula".
func WithStyle(style string) PreviewOption {
	return func(c *previewConfig) {
		if style != "" {
			c.style = style
		}
	}
}

// WithWidth sets the word wrap width.
func WithWidth(width int) PreviewOption {
	return func(c *previewConfig) {
		if width > 0 {
			c.width = width
		}
	}
}

// WithForceStyling renders through glamour even when w is not a terminal.
func WithForceStyling(force bool) PreviewOption {
	return func(c *previewConfig) {
		c.force = force
	}
}

// Preview writes Markdown to w. On a terminal it is rendered with glamour;
// otherwise the Markdown is written unchanged so that it can be piped.
func Preview(w io.Writer, md string, opts ...PreviewOption) error {
	cfg := &previewConfig{style: "dracula"}
	for _, opt := range opts {
		opt(cfg)
	}

	terminal := false
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		terminal = true
		if cfg.width == 0 {
			if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
				cfg.width = width
			}
		}
	}
	if cfg.width == 0 {
		cfg.width = defaultWrap
	}

	if !terminal && !cfg.force {
		_, err := io.WriteString(w, md)
		return err
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(cfg.style),
		glamour.WithWordWrap(cfg.width),
	)
	if err != nil {
		return fmt.Errorf("failed to create renderer: %w", err)
	}

	out, err := r.Render(md)
	if err != nil {
		return fmt.Errorf("failed to render markdown: %w", err)
	}

	_, err = io.WriteString(w, out)
	return err
}
