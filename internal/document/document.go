package document

// ElementKind identifies a body element of a rendered document.
type ElementKind int

const (
	// PageBreak forces the following content onto a new page.
	PageBreak ElementKind = iota
	// Heading is a section heading, levels 1 to 4.
	Heading
	// Paragraph is a justified body paragraph.
	Paragraph
	// Bullet is a bulleted list item.
	Bullet
	// TableElement is a grid with a header row.
	TableElement
)

// String returns the element kind name.
func (k ElementKind) String() string {
	switch k {
	case PageBreak:
		return "page_break"
	case Heading:
		return "heading"
	case Paragraph:
		return "paragraph"
	case Bullet:
		return "bullet"
	case TableElement:
		return "table"
	default:
		return "unknown"
	}
}

// Element is one item of the document body.
type Element struct {
	Kind ElementKind `json:"kind"`

	// Level is set for headings only.
	Level int `json:"level,omitempty"`

	// Runs is the styled content of headings, paragraphs and bullets.
	// Headings always carry a single Plain run.
	Runs []InlineRun `json:"runs,omitempty"`

	// Table is set for table elements only.
	Table *Table `json:"table,omitempty"`
}

// Text returns the unstyled text of the element.
func (e Element) Text() string {
	return RunsText(e.Runs)
}

// Document is a rendered report: a cover page followed by body content.
type Document struct {
	// Title names the document in its metadata. It does not appear on
	// any page.
	Title string `json:"title,omitempty"`

	Cover Cover     `json:"cover"`
	Body  []Element `json:"body"`
}

// Tables returns the tables of the body in order.
func (d *Document) Tables() []*Table {
	var tables []*Table
	for _, e := range d.Body {
		if e.Kind == TableElement && e.Table != nil {
			tables = append(tables, e.Table)
		}
	}
	return tables
}

// Count returns the number of body elements of the given kind.
func (d *Document) Count(kind ElementKind) int {
	n := 0
	for _, e := range d.Body {
		if e.Kind == kind {
			n++
		}
	}
	return n
}
