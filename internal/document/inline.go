package document

import "regexp"

// Style is the emphasis applied to a run of text.
type Style int

const (
	// Plain is unstyled text.
	Plain Style = iota
	// Bold is text enclosed in "**".
	Bold
	// Italic is text enclosed in "*".
	Italic
	// BoldItalic is text enclosed in "***".
	BoldItalic
)

// String returns the style name.
func (s Style) String() string {
	switch s {
	case Plain:
		return "plain"
	case Bold:
		return "bold"
	case Italic:
		return "italic"
	case BoldItalic:
		return "bold_italic"
	default:
		return "unknown"
	}
}

// IsBold reports whether the style renders in a bold face.
func (s Style) IsBold() bool {
	return s == Bold || s == BoldItalic
}

// IsItalic reports whether the style renders in an italic face.
func (s Style) IsItalic() bool {
	return s == Italic || s == BoldItalic
}

// InlineRun is a contiguous piece of text sharing one style.
type InlineRun struct {
	Text  string `json:"text"`
	Style Style  `json:"style"`
}

// inlinePatterns is ordered by tie-break priority: when two patterns match
// at the same offset the earlier entry wins.
var inlinePatterns = []struct {
	style Style
	re    *regexp.Regexp
}{
	{BoldItalic, regexp.MustCompile(`\*\*\*(.+?)\*\*\*`)},
	{Bold, regexp.MustCompile(`\*\*(.+?)\*\*`)},
	{Italic, regexp.MustCompile(`\*(.+?)\*`)},
}

// ScanInline splits text into styled runs.
//
// At every position the earliest match of any pattern is taken. Text before
// it becomes a Plain run, the captured inner text takes the pattern's style
// and scanning resumes after the whole match. Unmatched markers stay in the
// plain text. An empty string yields no runs.
func ScanInline(text string) []InlineRun {
	var runs []InlineRun
	cursor := 0
	for cursor < len(text) {
		rest := text[cursor:]

		bestStart := -1
		var best []int
		var bestStyle Style
		for _, p := range inlinePatterns {
			loc := p.re.FindStringSubmatchIndex(rest)
			if loc == nil {
				continue
			}
			if bestStart == -1 || loc[0] < bestStart {
				bestStart = loc[0]
				best = loc
				bestStyle = p.style
			}
		}

		if best == nil {
			runs = append(runs, InlineRun{Text: rest, Style: Plain})
			break
		}

		if bestStart > 0 {
			runs = append(runs, InlineRun{Text: rest[:bestStart], Style: Plain})
		}
		runs = append(runs, InlineRun{Text: rest[best[2]:best[3]], Style: bestStyle})
		cursor += best[1]
	}
	return runs
}

// plainRuns wraps text in a single Plain run. Empty text yields no runs.
func plainRuns(text string) []InlineRun {
	if text == "" {
		return nil
	}
	return []InlineRun{{Text: text, Style: Plain}}
}

// RunsText concatenates the text of runs, dropping styles.
func RunsText(runs []InlineRun) string {
	n := 0
	for _, r := range runs {
		n += len(r.Text)
	}
	b := make([]byte, 0, n)
	for _, r := range runs {
		b = append(b, r.Text...)
	}
	return string(b)
}
