package audit

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"regexp"
	"strings"

	"github.com/dcxsea/fieldreport/internal/model"
)

// secretPattern matches credential material in report text.
type secretPattern struct {
	findingType string
	title       string
	pattern     *regexp.Regexp
}

// secretPatterns cover the credentials this tool itself handles plus the
// usual key formats that end up pasted into survey answers.
var secretPatterns = []secretPattern{
	{"text_private_key", "Private Key Block", regexp.MustCompile(`-----BEGIN (?:RSA |EC |DSA |OPENSSH |ENCRYPTED |PGP )?PRIVATE KEY(?: BLOCK)?-----`)},
	{"text_api_key", "OpenAI API Key", regexp.MustCompile(`\bsk-(?:proj-)?[A-Za-z0-9_\-]{20,}`)},
	{"text_api_key", "Telegram Bot Token", regexp.MustCompile(`\b\d{8,10}:[A-Za-z0-9_\-]{35}\b`)},
	{"text_api_key", "AWS Access Key ID", regexp.MustCompile(`\b(?:AKIA|ASIA)[A-Z0-9]{16}\b`)},
	{"text_api_key", "GitHub Token", regexp.MustCompile(`\bgh[pousr]_[A-Za-z0-9_]{36,255}\b`)},
}

var emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)

// documentText returns the character data of a WordprocessingML part.
// Runs are joined without separators and paragraphs end with a newline.
func documentText(data []byte) string {
	var sb strings.Builder
	dec := xml.NewDecoder(bytes.NewReader(data))
	inText := false
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return sb.String()
		}
		switch t := tok.(type) {
		case xml.StartElement:
			inText = t.Name.Local == "t"
		case xml.EndElement:
			inText = false
			if t.Name.Local == "p" {
				sb.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}
	return sb.String()
}

// textFindings reports credentials and email addresses in body text.
// Each distinct value is reported once.
func textFindings(text, location string) []model.Finding {
	findings := make([]model.Finding, 0)
	seen := make(map[string]bool)

	add := func(findingType, title, value string) {
		key := findingType + "|" + value
		if seen[key] {
			return
		}
		seen[key] = true
		findings = append(findings, model.NewFinding(findingType, title, value, location))
	}

	for _, p := range secretPatterns {
		for _, m := range p.pattern.FindAllString(text, 5) {
			add(p.findingType, p.title, redact(m))
		}
	}
	for _, m := range emailPattern.FindAllString(text, -1) {
		add("text_email", "Email Address in Report Body", strings.ToLower(m))
	}
	return findings
}

// redact keeps enough of a secret to recognise it.
func redact(value string) string {
	if strings.HasPrefix(value, "-----BEGIN") {
		return value
	}
	if len(value) > 10 {
		return value[:10] + "...[REDACTED]"
	}
	return value
}
