package audit

import (
	"encoding/hex"
	"regexp"
	"strings"

	"golang.org/x/text/encoding/unicode"

	"github.com/dcxsea/fieldreport/internal/model"
)

// pdfInfoPatterns match Info dictionary fields as literal or hex strings.
var pdfInfoPatterns = map[string]*regexp.Regexp{
	"author":   regexp.MustCompile(`/Author\s*\(((?:\\.|[^\\)])*)\)|/Author\s*<([0-9A-Fa-f]+)>`),
	"creator":  regexp.MustCompile(`/Creator\s*\(((?:\\.|[^\\)])*)\)|/Creator\s*<([0-9A-Fa-f]+)>`),
	"producer": regexp.MustCompile(`/Producer\s*\(((?:\\.|[^\\)])*)\)|/Producer\s*<([0-9A-Fa-f]+)>`),
}

// pdfXMPPatterns match XMP packet fields.
var pdfXMPPatterns = map[string]*regexp.Regexp{
	"xmp_creator":    regexp.MustCompile(`(?s)<dc:creator[^>]*>.*?<rdf:li[^>]*>([^<]+)</rdf:li>`),
	"xmp_tool":       regexp.MustCompile(`xmp:CreatorTool>([^<]+)<`),
	"xmp_producer":   regexp.MustCompile(`pdf:Producer>([^<]+)<`),
	"xmp_documentId": regexp.MustCompile(`xmpMM:DocumentID>([^<]+)<`),
	"xmp_instanceId": regexp.MustCompile(`xmpMM:InstanceID>([^<]+)<`),
}

// pdfFindings extracts metadata findings from raw PDF bytes. Compressed
// object streams are not inspected.
func pdfFindings(data []byte, location string) []model.Finding {
	content := string(data)
	findings := make([]model.Finding, 0)

	for field, pattern := range pdfInfoPatterns {
		m := pattern.FindStringSubmatch(content)
		if m == nil {
			continue
		}
		var value string
		if m[1] != "" {
			value = decodeLiteral(m[1])
		} else {
			value = decodeHex(m[2])
		}
		if f, ok := pdfFinding(field, value, location); ok {
			findings = append(findings, f)
		}
	}

	for field, pattern := range pdfXMPPatterns {
		if m := pattern.FindStringSubmatch(content); m != nil {
			if f, ok := pdfFinding(field, strings.TrimSpace(m[1]), location); ok {
				findings = append(findings, f)
			}
		}
	}
	return findings
}

func pdfFinding(field, value, location string) (model.Finding, bool) {
	if len(value) < 3 {
		return model.Finding{}, false
	}
	switch field {
	case "author", "xmp_creator":
		return model.NewFinding("pdf_author", "PDF Author Metadata", value, location), true
	case "creator", "xmp_tool":
		return model.NewFinding("pdf_creator", "PDF Creator Application", value, location), true
	case "producer", "xmp_producer":
		return model.NewFinding("pdf_producer", "PDF Producer", value, location), true
	case "xmp_documentId", "xmp_instanceId":
		return model.NewFinding("pdf_document_id", "PDF Document Identifier", value, location), true
	}
	return model.Finding{}, false
}

var utf16BE = unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM)

// decodeLiteral unescapes a PDF literal string. Strings starting with a
// UTF-16BE byte order mark are decoded.
func decodeLiteral(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 == len(s) {
			b.WriteByte(c)
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		default:
			b.WriteByte(s[i])
		}
	}
	return decodeUTF16(b.String())
}

// decodeHex decodes a PDF hex string.
func decodeHex(s string) string {
	if len(s)%2 == 1 {
		s += "0"
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return s
	}
	return decodeUTF16(string(raw))
}

func decodeUTF16(s string) string {
	if !strings.HasPrefix(s, "\xfe\xff") {
		return strings.TrimSpace(s)
	}
	out, err := utf16BE.NewDecoder().String(s)
	if err != nil {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(out)
}
