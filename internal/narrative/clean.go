package narrative

import (
	"regexp"
	"strings"
)

var (
	breakTag = regexp.MustCompile(`(?i)<br\s*/?>`)

	// formattingTag matches the inline and block tags models wrap text in.
	// Any other "<" is report text ("a<b", "land<2 ha") and stays.
	formattingTag = regexp.MustCompile(`(?i)</?(?:p|b|i|u|em|strong|span|div|font)\b[^<>\n]*>`)
)

// Clean prepares a completion for rendering. Line endings are normalised,
// <br> tags become newlines, common formatting tags are dropped with their
// text kept, and surrounding whitespace is trimmed.
func Clean(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	if !strings.Contains(text, "<") {
		return strings.TrimSpace(text)
	}
	text = breakTag.ReplaceAllString(text, "\n")
	text = formattingTag.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}
