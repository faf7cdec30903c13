// Package narrative turns survey records into report text with a chat
// completion model.
//
// BuildPrompt combines the report instructions with the records as
// indented JSON, a Generator completes the prompt, and Clean normalises the
// completion before it reaches the document renderer.
package narrative
