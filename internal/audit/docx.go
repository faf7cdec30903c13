package audit

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/dcxsea/fieldreport/internal/model"
)

// coreProperties is the subset of docProps/core.xml that is audited.
type coreProperties struct {
	Creator        string `xml:"http://purl.org/dc/elements/1.1/ creator"`
	LastModifiedBy string `xml:"http://schemas.openxmlformats.org/package/2006/metadata/core-properties lastModifiedBy"`
}

func (a *Auditor) docxFindings(docxPath, location string) ([]model.Finding, error) {
	zr, err := zip.OpenReader(docxPath)
	if err != nil {
		return nil, fmt.Errorf("failed to audit %s: %w", docxPath, err)
	}
	defer zr.Close()

	findings := make([]model.Finding, 0)
	for _, f := range zr.File {
		switch {
		case f.Name == "docProps/core.xml":
			data, err := a.readEntry(f)
			if err != nil {
				return nil, fmt.Errorf("failed to audit %s: %w", docxPath, err)
			}
			findings = append(findings, coreFindings(data, location+" -> "+f.Name)...)
		case strings.HasPrefix(f.Name, "word/media/"):
			data, err := a.readEntry(f)
			if err != nil {
				return nil, fmt.Errorf("failed to audit %s: %w", docxPath, err)
			}
			findings = append(findings, exifFindings(data, location+" -> "+path.Base(f.Name))...)
		case f.Name == "word/document.xml":
			data, err := a.readEntry(f)
			if err != nil {
				return nil, fmt.Errorf("failed to audit %s: %w", docxPath, err)
			}
			findings = append(findings, textFindings(documentText(data), location+" -> "+f.Name)...)
		}
	}
	return findings, nil
}

func (a *Auditor) readEntry(f *zip.File) ([]byte, error) {
	if int64(f.UncompressedSize64) > a.maxSize { //nolint:gosec // sizes fit in int64
		return nil, fmt.Errorf("%s larger than %d bytes", f.Name, a.maxSize)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(io.LimitReader(rc, a.maxSize))
}

func coreFindings(data []byte, location string) []model.Finding {
	var props coreProperties
	if err := xml.Unmarshal(data, &props); err != nil {
		return nil
	}

	findings := make([]model.Finding, 0)
	if v := strings.TrimSpace(props.Creator); v != "" {
		findings = append(findings, model.NewFinding("docx_creator", "Word Document Creator", v, location))
	}
	if v := strings.TrimSpace(props.LastModifiedBy); v != "" {
		findings = append(findings, model.NewFinding("docx_last_modified_by", "Word Document Last Modified By", v, location))
	}
	return findings
}
