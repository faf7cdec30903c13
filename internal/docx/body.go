package docx

import (
	"fmt"
	"strings"

	"github.com/dcxsea/fieldreport/internal/document"
)

// runProps are the character properties of a single run.
type runProps struct {
	bold   bool
	italic bool
	size   float64 // points; zero inherits the paragraph style
}

func (p runProps) xml() string {
	if !p.bold && !p.italic && p.size == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("<w:rPr>")
	if p.bold {
		b.WriteString("<w:b/>")
	}
	if p.italic {
		b.WriteString("<w:i/>")
	}
	if p.size > 0 {
		hp := int(p.size * 2)
		fmt.Fprintf(&b, `<w:sz w:val="%d"/><w:szCs w:val="%d"/>`, hp, hp)
	}
	b.WriteString("</w:rPr>")
	return b.String()
}

func textRun(text string, props runProps) string {
	return "<w:r>" + props.xml() + `<w:t xml:space="preserve">` + escape(text) + "</w:t></w:r>"
}

func breakRun(props runProps) string {
	return "<w:r>" + props.xml() + "<w:br/></w:r>"
}

// documentXML builds word/document.xml: the cover section followed by the
// body in a continuous section.
func documentXML(doc *document.Document) string {
	var b strings.Builder
	b.WriteString(xmlHeader)
	b.WriteString(`<w:document xmlns:w="` + nsW + `" xmlns:r="` + nsR + `" xmlns:wp="` + nsWP +
		`" xmlns:a="` + nsA + `" xmlns:pic="` + nsPic + `"><w:body>`)

	writeCover(&b, doc.Cover)
	b.WriteString("<w:p><w:pPr>")
	b.WriteString(sectionXML(true))
	b.WriteString("</w:pPr></w:p>")

	lastWasTable := false
	for _, e := range doc.Body {
		writeElement(&b, e)
		lastWasTable = e.Kind == document.TableElement
	}
	if lastWasTable {
		// a section may not end directly after a table
		b.WriteString("<w:p/>")
	}

	b.WriteString(sectionXML(false))
	b.WriteString("</w:body></w:document>")
	return b.String()
}

// sectionXML returns section properties. The cover section carries the
// footer; the body section starts continuously after it and inherits it.
func sectionXML(cover bool) string {
	var b strings.Builder
	b.WriteString("<w:sectPr>")
	if cover {
		b.WriteString(`<w:footerReference w:type="default" r:id="` + relFooter + `"/>`)
	} else {
		b.WriteString(`<w:type w:val="continuous"/>`)
	}
	fmt.Fprintf(&b, `<w:pgSz w:w="%d" w:h="%d"/>`,
		twips(document.PageWidth), twips(document.PageHeight))
	m := twips(document.PageMargin)
	fmt.Fprintf(&b, `<w:pgMar w:top="%d" w:right="%d" w:bottom="%d" w:left="%d" w:header="708" w:footer="708" w:gutter="0"/>`,
		m, m, m, m)
	b.WriteString("</w:sectPr>")
	return b.String()
}

func twips(points float64) int {
	return int(points*twipsPerPoint + 0.5)
}

func writeCover(b *strings.Builder, c document.Cover) {
	center := `<w:pPr><w:jc w:val="center"/></w:pPr>`
	spacer := "<w:p>" + breakRun(runProps{}) + "</w:p>"

	b.WriteString("<w:p>" + center)
	company := c.CompanyName
	if c.Logo != nil {
		b.WriteString(drawingRun(c))
		company = "  " + company
	}
	b.WriteString(textRun(company, runProps{bold: true, size: document.CompanyNameSize}))
	b.WriteString("</w:p>")

	b.WriteString(spacer)
	b.WriteString("<w:p>" + center)
	b.WriteString(textRun(c.Heading, runProps{bold: true, size: document.HeadingSize}))
	b.WriteString(breakRun(runProps{size: document.SubtitleSize}))
	b.WriteString("</w:p>")

	b.WriteString(spacer)
	b.WriteString("<w:p>" + center)
	b.WriteString(textRun(c.Subtitle, runProps{bold: true, size: document.SubtitleSize}))
	b.WriteString(breakRun(runProps{size: document.SubtitleSize}))
	b.WriteString("</w:p>")

	b.WriteString(spacer)
	b.WriteString(spacer)

	prepared := runProps{size: document.PreparedSize}
	b.WriteString("<w:p>" + center)
	b.WriteString(textRun(c.PreparedForLine(), prepared))
	b.WriteString(breakRun(prepared) + breakRun(prepared))
	b.WriteString(textRun(c.PreparedByLine(), prepared))
	b.WriteString(breakRun(prepared) + breakRun(prepared))
	b.WriteString("</w:p>")
}

func drawingRun(c document.Cover) string {
	cx := int(document.LogoWidth * emuPerPoint)
	cy := int(c.LogoHeight() * emuPerPoint)
	return fmt.Sprintf(`<w:r><w:drawing><wp:inline distT="0" distB="0" distL="0" distR="0">`+
		`<wp:extent cx="%d" cy="%d"/><wp:docPr id="1" name="Logo"/>`+
		`<a:graphic><a:graphicData uri="`+nsPic+`"><pic:pic>`+
		`<pic:nvPicPr><pic:cNvPr id="0" name="logo.png"/><pic:cNvPicPr/></pic:nvPicPr>`+
		`<pic:blipFill><a:blip r:embed="`+relLogo+`"/><a:stretch><a:fillRect/></a:stretch></pic:blipFill>`+
		`<pic:spPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="%d" cy="%d"/></a:xfrm><a:prstGeom prst="rect"><a:avLst/></a:prstGeom></pic:spPr>`+
		`</pic:pic></a:graphicData></a:graphic></wp:inline></w:drawing></w:r>`,
		cx, cy, cx, cy)
}

func writeElement(b *strings.Builder, e document.Element) {
	switch e.Kind {
	case document.PageBreak:
		b.WriteString(`<w:p><w:r><w:br w:type="page"/></w:r></w:p>`)
	case document.Heading:
		fmt.Fprintf(b, `<w:p><w:pPr><w:pStyle w:val="Heading%d"/></w:pPr>`, e.Level)
		b.WriteString(textRun(e.Text(), runProps{}))
		b.WriteString("</w:p>")
	case document.Bullet:
		b.WriteString(`<w:p><w:pPr><w:pStyle w:val="ListBullet"/><w:numPr><w:ilvl w:val="0"/><w:numId w:val="1"/></w:numPr></w:pPr>`)
		writeRuns(b, e.Runs)
		b.WriteString("</w:p>")
	case document.Paragraph:
		b.WriteString(`<w:p><w:pPr><w:jc w:val="both"/></w:pPr>`)
		writeRuns(b, e.Runs)
		b.WriteString("</w:p>")
	case document.TableElement:
		if e.Table != nil {
			writeTable(b, e.Table)
		}
	}
}

func writeRuns(b *strings.Builder, runs []document.InlineRun) {
	for _, r := range runs {
		b.WriteString(textRun(r.Text, runProps{bold: r.Style.IsBold(), italic: r.Style.IsItalic()}))
	}
}

// writeTable emits a grid as wide as the widest row. Rows keep their own
// cell counts; a row without cells gets one empty cell so the row stays
// well formed.
func writeTable(b *strings.Builder, t *document.Table) {
	cols := t.Columns()
	if cols == 0 {
		cols = 1
	}
	usable := document.PageWidth - 2*document.PageMargin
	colWidth := twips(usable / float64(cols))

	b.WriteString(`<w:tbl><w:tblPr><w:tblStyle w:val="TableGrid"/><w:tblW w:w="0" w:type="auto"/></w:tblPr><w:tblGrid>`)
	for range cols {
		fmt.Fprintf(b, `<w:gridCol w:w="%d"/>`, colWidth)
	}
	b.WriteString("</w:tblGrid>")

	writeRow(b, t.Header, colWidth, true)
	for _, row := range t.Rows {
		writeRow(b, row, colWidth, false)
	}
	b.WriteString("</w:tbl>")
}

func writeRow(b *strings.Builder, cells []string, width int, header bool) {
	b.WriteString("<w:tr>")
	if header {
		b.WriteString("<w:trPr><w:tblHeader/></w:trPr>")
	}
	if len(cells) == 0 {
		cells = []string{""}
	}
	for _, c := range cells {
		fmt.Fprintf(b, `<w:tc><w:tcPr><w:tcW w:w="%d" w:type="dxa"/></w:tcPr><w:p>`, width)
		b.WriteString(textRun(c, runProps{}))
		b.WriteString("</w:p></w:tc>")
	}
	b.WriteString("</w:tr>")
}
