package convert

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/go-pdf/fpdf"

	"github.com/dcxsea/fieldreport/internal/document"
)

// Body layout in points.
const (
	bodyFontSize  = 11.0
	bodyLeading   = 15.0
	bulletIndent  = 14.0
	tableFontSize = 9.0
	tableRowH     = 14.0
	fontFamily    = "Helvetica"
)

// headingSizes maps heading levels to font sizes.
var headingSizes = map[int]float64{1: 20, 2: 16, 3: 14, 4: 12}

// Native lays out a rendered document as PDF without external programs.
// Core fonts only cover cp1252, so other characters are substituted.
type Native struct {
	creator string

	// compress deflates page content streams.
	compress bool

	logger *slog.Logger
}

// NativeOption configures a Native converter.
type NativeOption func(*Native)

// WithCreator sets the PDF creator field.
func WithCreator(creator string) NativeOption {
	return func(n *Native) {
		n.creator = creator
	}
}

// WithNativeLogger sets the logger.
func WithNativeLogger(logger *slog.Logger) NativeOption {
	return func(n *Native) {
		n.logger = logger
	}
}

// NewNative creates a Native converter.
func NewNative(opts ...NativeOption) *Native {
	n := &Native{
		creator:  "fieldreport",
		compress: true,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Convert writes job.Document to job.Target. job.Source is not read.
func (n *Native) Convert(ctx context.Context, job Job) error {
	if job.Document == nil {
		return ErrNoDocument
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	doc := job.Document
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetCompression(n.compress)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	m := document.PageMargin
	pdf.SetMargins(m, m, m)
	pdf.SetAutoPageBreak(true, m+document.DateStampSize)
	pdf.SetTitle(doc.Title, true)
	pdf.SetCreator(n.creator, true)
	if !doc.Cover.Date.IsZero() {
		pdf.SetCreationDate(doc.Cover.Date)
	}

	pdf.SetFooterFunc(func() {
		pdf.SetY(-m)
		pdf.SetFont(fontFamily, "", document.DateStampSize)
		pdf.CellFormat(0, document.DateStampSize, tr(doc.Cover.DateStamp()), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()
	writeCover(pdf, tr, doc.Cover)
	for _, el := range doc.Body {
		writeElement(pdf, tr, el)
	}

	if err := os.MkdirAll(filepath.Dir(job.Target), 0o750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := pdf.OutputFileAndClose(job.Target); err != nil {
		return fmt.Errorf("failed to write PDF: %w", err)
	}

	n.logger.Debug("wrote PDF", "path", job.Target, "pages", pdf.PageNo())
	return nil
}

func writeCover(pdf *fpdf.Fpdf, tr func(string) string, c document.Cover) {
	if c.Logo != nil && len(c.Logo.Data) > 0 {
		opts := fpdf.ImageOptions{ImageType: "PNG"}
		pdf.RegisterImageOptionsReader("logo", opts, bytes.NewReader(c.Logo.Data))
		x := (document.PageWidth - document.LogoWidth) / 2
		pdf.ImageOptions("logo", x, pdf.GetY(), document.LogoWidth, c.LogoHeight(), true, opts, 0, "")
	}

	centered(pdf, tr(c.CompanyName), "B", document.CompanyNameSize)
	pdf.Ln(document.CompanyNameSize)
	centered(pdf, tr(c.Heading), "B", document.HeadingSize)
	pdf.Ln(document.HeadingSize)
	centered(pdf, tr(c.Subtitle), "B", document.SubtitleSize)
	pdf.Ln(2 * document.SubtitleSize)
	centered(pdf, tr(c.PreparedForLine()), "", document.PreparedSize)
	pdf.Ln(document.PreparedSize)
	centered(pdf, tr(c.PreparedByLine()), "", document.PreparedSize)
	pdf.Ln(2 * document.PreparedSize)
}

func centered(pdf *fpdf.Fpdf, text, style string, size float64) {
	pdf.SetFont(fontFamily, style, size)
	pdf.MultiCell(0, size*1.25, text, "", "C", false)
}

func writeElement(pdf *fpdf.Fpdf, tr func(string) string, el document.Element) {
	switch el.Kind {
	case document.PageBreak:
		pdf.AddPage()
	case document.Heading:
		size := headingSizes[el.Level]
		if size == 0 {
			size = bodyFontSize
		}
		pdf.Ln(size / 2)
		pdf.SetFont(fontFamily, "B", size)
		pdf.MultiCell(0, size*1.25, tr(el.Text()), "", "L", false)
		pdf.Ln(size / 4)
	case document.Paragraph:
		writeRuns(pdf, tr, el.Runs)
		pdf.Ln(bodyLeading * 1.5)
	case document.Bullet:
		left, _, _, _ := pdf.GetMargins()
		pdf.SetX(left + bulletIndent)
		pdf.SetFont(fontFamily, "", bodyFontSize)
		pdf.Write(bodyLeading, tr("• "))
		writeRuns(pdf, tr, el.Runs)
		pdf.Ln(bodyLeading * 1.2)
	case document.TableElement:
		writeTable(pdf, tr, el.Table)
	}
}

func writeRuns(pdf *fpdf.Fpdf, tr func(string) string, runs []document.InlineRun) {
	for _, r := range runs {
		pdf.SetFont(fontFamily, fontStyle(r.Style), bodyFontSize)
		pdf.Write(bodyLeading, tr(r.Text))
	}
}

func fontStyle(s document.Style) string {
	style := ""
	if s.IsBold() {
		style += "B"
	}
	if s.IsItalic() {
		style += "I"
	}
	return style
}

func writeTable(pdf *fpdf.Fpdf, tr func(string) string, t *document.Table) {
	if t == nil {
		return
	}
	cols := t.Columns()
	if cols == 0 {
		cols = 1
	}
	pageW, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	colW := (pageW - left - right) / float64(cols)

	row := func(cells []string, style string, fill bool) {
		pdf.SetFont(fontFamily, style, tableFontSize)
		for i := range cols {
			text := ""
			if i < len(cells) {
				text = fit(pdf, tr, cells[i], colW-4)
			}
			pdf.CellFormat(colW, tableRowH, text, "1", 0, "L", fill, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.SetFillColor(230, 230, 230)
	row(t.Header, "B", true)
	for _, r := range t.Rows {
		row(r, "", false)
	}
	pdf.Ln(bodyLeading / 2)
}

// fit translates text for the core font and shortens it so it fits in
// width, marking the cut with "...". Cuts are made on the UTF-8 text.
func fit(pdf *fpdf.Fpdf, tr func(string) string, text string, width float64) string {
	if out := tr(text); pdf.GetStringWidth(out) <= width {
		return out
	}
	runes := []rune(text)
	for len(runes) > 0 && pdf.GetStringWidth(tr(string(runes)+"...")) > width {
		runes = runes[:len(runes)-1]
	}
	return tr(string(runes) + "...")
}
