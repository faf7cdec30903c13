package document

import (
	"slices"
	"testing"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		line  string
		kind  BlockKind
		level int
		text  string
		cells []string
	}{
		{name: "page break", line: "---", kind: PageBreakBlock},
		{name: "page break with surrounding spaces", line: "  ---  ", kind: PageBreakBlock},
		{name: "level 1 heading", line: "# Summary", kind: HeadingBlock, level: 1, text: "Summary"},
		{name: "level 2 heading", line: "## Findings", kind: HeadingBlock, level: 2, text: "Findings"},
		{name: "level 3 heading", line: "### Detail", kind: HeadingBlock, level: 3, text: "Detail"},
		{name: "level 4 heading", line: "#### X", kind: HeadingBlock, level: 4, text: "X"},
		{name: "indented heading", line: "   ## Indented", kind: HeadingBlock, level: 2, text: "Indented"},
		{name: "five hashes is a paragraph", line: "##### deep", kind: ParagraphBlock, text: "##### deep"},
		{name: "hash without space is a paragraph", line: "#tag", kind: ParagraphBlock, text: "#tag"},
		{name: "bullet", line: "* item one", kind: BulletBlock, text: "item one"},
		{name: "indented bullet", line: "    * nested", kind: BulletBlock, text: "nested"},
		{name: "bold line is not a bullet", line: "**bold** start", kind: ParagraphBlock, text: "**bold** start"},
		{name: "table row", line: "| a | b |", kind: TableRowBlock, cells: []string{"a", "b"}},
		{name: "table row drops empty cells", line: "|A||B|", kind: TableRowBlock, cells: []string{"A", "B"}},
		{name: "separator row keeps dashes", line: "|---|---|", kind: TableRowBlock, cells: []string{"---", "---"}},
		{name: "pipe inside prose is a table row", line: "yes | no", kind: TableRowBlock, cells: []string{"yes", "no"}},
		{name: "paragraph keeps whitespace", line: "  plain text ", kind: ParagraphBlock, text: "  plain text "},
		{name: "empty line", line: "", kind: ParagraphBlock, text: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := Classify(tt.line)
			if got.Kind != tt.kind {
				t.Fatalf("expected kind %s, got %s", tt.kind, got.Kind)
			}
			if got.Level != tt.level {
				t.Errorf("expected level %d, got %d", tt.level, got.Level)
			}
			if got.Text != tt.text {
				t.Errorf("expected text %q, got %q", tt.text, got.Text)
			}
			if !slices.Equal(got.Cells, tt.cells) {
				t.Errorf("expected cells %q, got %q", tt.cells, got.Cells)
			}
		})
	}
}

func TestClassifyPrecedence(t *testing.T) {
	t.Parallel()

	t.Run("heading with pipe stays a heading", func(t *testing.T) {
		t.Parallel()

		got := Classify("## A | B")
		if got.Kind != HeadingBlock {
			t.Errorf("expected heading, got %s", got.Kind)
		}
	})

	t.Run("bullet with pipe stays a bullet", func(t *testing.T) {
		t.Parallel()

		got := Classify("* a | b")
		if got.Kind != BulletBlock {
			t.Errorf("expected bullet, got %s", got.Kind)
		}
	})

	t.Run("rule table ends with the paragraph fallback", func(t *testing.T) {
		t.Parallel()

		if rules[len(rules)-1].name != "paragraph" {
			t.Errorf("expected last rule to be paragraph, got %s", rules[len(rules)-1].name)
		}
	})
}

func TestTableAccumulator(t *testing.T) {
	t.Parallel()

	var acc tableAccumulator
	if acc.open() {
		t.Fatal("expected accumulator to start closed")
	}

	first := acc.row([]string{"A", "B"})
	if first == nil {
		t.Fatal("expected first row to open a table")
	}
	if !acc.open() {
		t.Error("expected accumulator to be open")
	}
	if again := acc.row([]string{"1", "2", "3"}); again != nil {
		t.Error("expected second row to be appended, not open a new table")
	}
	if len(first.Rows) != 1 {
		t.Errorf("expected 1 data row, got %d", len(first.Rows))
	}
	if first.Columns() != 3 {
		t.Errorf("expected 3 columns from widest row, got %d", first.Columns())
	}

	acc.close()
	if acc.open() {
		t.Error("expected accumulator to be closed")
	}
	if next := acc.row([]string{"C"}); next == nil || next == first {
		t.Error("expected a fresh table after close")
	}
}
