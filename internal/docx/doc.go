// Package docx writes rendered documents as Office Open XML word
// processing packages (.docx).
//
// Only the features the renderer produces are emitted: a cover section
// with an optional inline logo and a dated footer, headings 1-4, justified
// paragraphs with bold and italic runs, bullets, page breaks and grid
// tables.
package docx
