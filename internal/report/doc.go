// Package report presents runs and rendered documents.
//
// Run summaries are written by one of three writers:
//   - SimpleWriter: plain text for terminal display
//   - JSONWriter: structured JSON for tool integration
//   - MarkdownWriter: Markdown built with nao1215/markdown, for sharing
//
// DocumentMarkdown and TableMarkdown turn a rendered document or a fetched
// dataset back into Markdown, and Preview shows Markdown through glamour
// when the output is a terminal.
package report
