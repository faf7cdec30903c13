// Package document turns narrative report text written in a small markdown
// subset into a structured, paginated document with a fixed cover page.
//
// The accepted subset is line oriented:
//
//	---            page break
//	# .. ####      headings, levels 1 to 4
//	* item         bullet
//	| a | b |      table row (the first row of a run is the header)
//	anything else  justified paragraph
//
// Paragraph and bullet text may carry ***bold italic***, **bold** and
// *italic* spans. Malformed markup is never an error; it is kept as plain
// text. The first line of the input is always discarded.
//
// The package only builds the document tree. Serialisation lives in
// internal/docx and internal/convert.
package document
