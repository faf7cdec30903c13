// Package convert produces the portable (PDF) copy of a rendered report.
//
// Two backends implement Converter: LibreOffice drives a headless soffice
// process over the written DOCX file, and Native lays the rendered document
// out directly with fpdf. Retrying wraps either one with a fixed number of
// attempts and a fixed delay between them.
package convert
