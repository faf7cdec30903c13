package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dcxsea/fieldreport/internal/document"
)

// ErrNilDocument is returned when Write is called without a document.
var ErrNilDocument = errors.New("docx: nil document")

// Page geometry in twentieths of a point.
const (
	twipsPerPoint = 20
	emuPerPoint   = 12700
)

// Writer serialises documents to WordprocessingML packages.
type Writer struct {
	// creator is recorded as dc:creator in the core properties.
	creator string

	// now stamps the created/modified properties.
	now func() time.Time
}

// Option configures a Writer.
type Option func(*Writer)

// WithCreator sets the author recorded in the package metadata.
// The default leaves the creator empty.
func WithCreator(creator string) Option {
	return func(w *Writer) {
		w.creator = creator
	}
}

// WithClock sets the clock used for package timestamps.
func WithClock(now func() time.Time) Option {
	return func(w *Writer) {
		w.now = now
	}
}

// NewWriter creates a Writer.
func NewWriter(opts ...Option) *Writer {
	w := &Writer{now: time.Now}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// WriteFile writes doc to path, creating parent directories as needed.
func (w *Writer) WriteFile(path string, doc *document.Document) (err error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.Create(path) //nolint:gosec // output path is chosen by the operator
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	return w.Write(f, doc)
}

// Write writes doc as a .docx package to out.
func (w *Writer) Write(out io.Writer, doc *document.Document) error {
	if doc == nil {
		return ErrNilDocument
	}

	zw := zip.NewWriter(out)

	parts := []struct {
		name string
		data string
	}{
		{partContentTypes, contentTypesXML},
		{partRootRels, rootRelsXML},
		{partCore, w.coreXML(doc)},
		{partApp, appXML},
		{partDocument, documentXML(doc)},
		{partDocumentRels, documentRelsXML(doc.Cover.Logo != nil)},
		{partStyles, stylesXML},
		{partNumbering, numberingXML},
		{partFooter, footerXML(doc.Cover)},
	}
	for _, p := range parts {
		if err := writePart(zw, p.name, []byte(p.data)); err != nil {
			return err
		}
	}

	if doc.Cover.Logo != nil {
		if err := writePart(zw, partLogo, doc.Cover.Logo.Data); err != nil {
			return err
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finalize docx package: %w", err)
	}
	return nil
}

func writePart(zw *zip.Writer, name string, data []byte) error {
	pw, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("failed to add %s: %w", name, err)
	}
	if _, err := pw.Write(data); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

func (w *Writer) coreXML(doc *document.Document) string {
	stamp := w.now().UTC().Format(time.RFC3339)
	var b strings.Builder
	b.WriteString(xmlHeader)
	b.WriteString(`<cp:coreProperties xmlns:cp="` + nsCP + `" xmlns:dc="` + nsDC +
		`" xmlns:dcterms="http://purl.org/dc/terms/" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">`)
	b.WriteString("<dc:title>" + escape(doc.Title) + "</dc:title>")
	b.WriteString("<dc:creator>" + escape(w.creator) + "</dc:creator>")
	b.WriteString("<cp:lastModifiedBy>" + escape(w.creator) + "</cp:lastModifiedBy>")
	b.WriteString(`<dcterms:created xsi:type="dcterms:W3CDTF">` + stamp + "</dcterms:created>")
	b.WriteString(`<dcterms:modified xsi:type="dcterms:W3CDTF">` + stamp + "</dcterms:modified>")
	b.WriteString("</cp:coreProperties>")
	return b.String()
}

func documentRelsXML(withLogo bool) string {
	if withLogo {
		return documentRelsHead + documentRelsLogo + documentRelsTail
	}
	return documentRelsHead + documentRelsTail
}

func footerXML(c document.Cover) string {
	return xmlHeader + `<w:ftr xmlns:w="` + nsW + `"><w:p><w:pPr><w:jc w:val="center"/></w:pPr>` +
		textRun(c.DateStamp(), runProps{size: document.DateStampSize}) +
		`</w:p></w:ftr>`
}

// escape returns s with XML special characters escaped.
func escape(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s)) //nolint:errcheck // bytes.Buffer never fails
	return buf.String()
}
