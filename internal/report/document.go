package report

import (
	"bytes"
	"strings"

	"github.com/dcxsea/fieldreport/internal/document"
	"github.com/dcxsea/fieldreport/internal/model"
	"github.com/nao1215/markdown"
)

// DocumentMarkdown renders a document as Markdown for previewing: the cover
// as a short title block, then the body. Page breaks become horizontal
// rules.
func DocumentMarkdown(doc *document.Document) (string, error) {
	var buf bytes.Buffer
	md := markdown.NewMarkdown(&buf)

	writeCover(md, doc.Cover)

	var bullets []string
	flush := func() {
		if len(bullets) > 0 {
			md.BulletList(bullets...)
			md.PlainText("")
			bullets = nil
		}
	}

	for _, e := range doc.Body {
		if e.Kind != document.Bullet {
			flush()
		}
		switch e.Kind {
		case document.PageBreak:
			md.HorizontalRule()
			md.PlainText("")
		case document.Heading:
			heading(md, e.Level, e.Text())
			md.PlainText("")
		case document.Paragraph:
			if len(e.Runs) == 0 {
				continue
			}
			md.PlainText(inlineMarkdown(e.Runs))
			md.PlainText("")
		case document.Bullet:
			bullets = append(bullets, inlineMarkdown(e.Runs))
		case document.TableElement:
			if e.Table != nil {
				md.Table(tableSet(e.Table.Header, e.Table.Rows, e.Table.Columns()))
				md.PlainText("")
			}
		}
	}
	flush()

	if err := md.Build(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// TableMarkdown renders fetched survey data as a Markdown table.
func TableMarkdown(title string, t *model.Table) (string, error) {
	var buf bytes.Buffer
	md := markdown.NewMarkdown(&buf)

	md.H1(title)
	md.PlainText("")
	if t.Empty() {
		md.PlainText("No data available.")
	} else {
		md.Table(tableSet(t.Columns, t.Rows, len(t.Columns)))
	}
	md.PlainText("")

	if err := md.Build(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func writeCover(md *markdown.Markdown, c document.Cover) {
	if c.CompanyName != "" {
		md.PlainText(markdown.Bold(c.CompanyName))
		md.PlainText("")
	}
	md.H1(c.Heading)
	md.PlainText("")
	if c.Subtitle != "" {
		md.H2(c.Subtitle)
		md.PlainText("")
	}
	md.PlainText(c.PreparedForLine() + "  ")
	md.PlainText(c.PreparedByLine())
	md.PlainText("")
	md.PlainText(markdown.Italic(c.DateStamp()))
	md.PlainText("")
	md.HorizontalRule()
	md.PlainText("")
}

func heading(md *markdown.Markdown, level int, text string) {
	switch level {
	case 1:
		md.H1(text)
	case 2:
		md.H2(text)
	case 3:
		md.H3(text)
	default:
		md.H4(text)
	}
}

// inlineMarkdown joins runs back into emphasis markup.
func inlineMarkdown(runs []document.InlineRun) string {
	var sb strings.Builder
	for _, r := range runs {
		switch r.Style {
		case document.BoldItalic:
			sb.WriteString(markdown.Bold(markdown.Italic(r.Text)))
		case document.Bold:
			sb.WriteString(markdown.Bold(r.Text))
		case document.Italic:
			sb.WriteString(markdown.Italic(r.Text))
		default:
			sb.WriteString(r.Text)
		}
	}
	return sb.String()
}

// tableSet pads every row to width columns, since Markdown tables cannot
// be ragged.
func tableSet(header []string, rows [][]string, width int) markdown.TableSet {
	pad := func(row []string) []string {
		out := make([]string, width)
		for i := range out {
			if i < len(row) {
				out[i] = strings.ReplaceAll(row[i], "|", `\|`)
			}
		}
		return out
	}

	set := markdown.TableSet{Header: pad(header), Rows: make([][]string, len(rows))}
	for i, r := range rows {
		set.Rows[i] = pad(r)
	}
	return set
}
