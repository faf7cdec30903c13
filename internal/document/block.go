package document

import "strings"

// BlockKind identifies the kind of a classified input line.
type BlockKind int

const (
	// PageBreakBlock is a line consisting of "---".
	PageBreakBlock BlockKind = iota
	// HeadingBlock is a line starting with one to four '#' and a space.
	HeadingBlock
	// BulletBlock is a line starting with "* ".
	BulletBlock
	// TableRowBlock is any remaining line containing '|'.
	TableRowBlock
	// ParagraphBlock is everything else.
	ParagraphBlock
)

// String returns the name of the block kind.
func (k BlockKind) String() string {
	switch k {
	case PageBreakBlock:
		return "page_break"
	case HeadingBlock:
		return "heading"
	case BulletBlock:
		return "bullet"
	case TableRowBlock:
		return "table_row"
	case ParagraphBlock:
		return "paragraph"
	default:
		return "unknown"
	}
}

// Block is one classified line of report text.
type Block struct {
	// Kind is the classification result.
	Kind BlockKind

	// Level is the heading level (1-4). Zero for other kinds.
	Level int

	// Text is the heading, bullet or paragraph text with the marker removed.
	// Paragraph text is the untrimmed line.
	Text string

	// Cells holds the non-empty, trimmed cells of a table row.
	Cells []string
}

// rule is one entry of the ordered classification table.
// match receives both the raw line and its trimmed form.
type rule struct {
	name  string
	match func(raw, trimmed string) (Block, bool)
}

// headingMarkers are checked longest first so "#### " is never read as a
// level 1 heading with a "### " prefix in its text.
var headingMarkers = []struct {
	prefix string
	level  int
}{
	{"#### ", 4},
	{"### ", 3},
	{"## ", 2},
	{"# ", 1},
}

// rules is evaluated top to bottom and the first match wins.
// The final paragraph rule always matches.
var rules = []rule{
	{name: "page_break", match: matchPageBreak},
	{name: "heading", match: matchHeading},
	{name: "bullet", match: matchBullet},
	{name: "table_row", match: matchTableRow},
	{name: "paragraph", match: matchParagraph},
}

// Classify assigns a single line of report text to a block kind.
func Classify(line string) Block {
	trimmed := strings.TrimSpace(line)
	for _, r := range rules {
		if b, ok := r.match(line, trimmed); ok {
			return b
		}
	}
	// unreachable: matchParagraph accepts every line
	return Block{Kind: ParagraphBlock, Text: line}
}

func matchPageBreak(_, trimmed string) (Block, bool) {
	if trimmed == "---" {
		return Block{Kind: PageBreakBlock}, true
	}
	return Block{}, false
}

func matchHeading(_, trimmed string) (Block, bool) {
	for _, m := range headingMarkers {
		if strings.HasPrefix(trimmed, m.prefix) {
			return Block{
				Kind:  HeadingBlock,
				Level: m.level,
				Text:  trimmed[len(m.prefix):],
			}, true
		}
	}
	return Block{}, false
}

func matchBullet(_, trimmed string) (Block, bool) {
	if strings.HasPrefix(trimmed, "* ") {
		return Block{Kind: BulletBlock, Text: trimmed[2:]}, true
	}
	return Block{}, false
}

func matchTableRow(_, trimmed string) (Block, bool) {
	if !strings.Contains(trimmed, "|") {
		return Block{}, false
	}
	return Block{Kind: TableRowBlock, Cells: splitCells(trimmed)}, true
}

func matchParagraph(raw, _ string) (Block, bool) {
	return Block{Kind: ParagraphBlock, Text: raw}, true
}

// splitCells splits a table row on '|' and keeps the trimmed, non-empty
// fragments. Leading and trailing pipes therefore produce no cells, and
// neither do genuinely empty cells in the middle of a row.
func splitCells(line string) []string {
	parts := strings.Split(line, "|")
	cells := make([]string, 0, len(parts))
	for _, p := range parts {
		if c := strings.TrimSpace(p); c != "" {
			cells = append(cells, c)
		}
	}
	return cells
}
