// Package audit inspects outbound report artifacts for metadata that
// should not leave the organisation.
//
// Checks cover:
//   - PDF Info dictionary and XMP fields (author, creator, producer, ids)
//   - DOCX core properties (creator, lastModifiedBy)
//   - EXIF tags of images, standalone or embedded in a DOCX package
//   - DOCX body text, for private keys, API tokens and email addresses
//
// Findings are informational. An audit never blocks distribution.
package audit
