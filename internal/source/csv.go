package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/dcxsea/fieldreport/internal/model"
)

// Table is the parsed survey data.
type Table = model.Table

// ParseCSV reads a CSV stream into a Table. The first record is the header.
// Header names are trimmed, rows shorter than the header are padded and
// rows that are entirely empty are skipped.
func ParseCSV(r io.Reader) (*Table, error) {
	// BOMOverride drops a UTF-8 BOM and decodes UTF-16 when marked as such.
	decoded := transform.NewReader(r, unicode.BOMOverride(transform.Nop))

	reader := csv.NewReader(decoded)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoData
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV header: %w", err)
	}

	table := &Table{Columns: make([]string, len(header))}
	for i, name := range header {
		table.Columns[i] = strings.TrimSpace(name)
	}

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse CSV row: %w", err)
		}
		if blank(record) {
			continue
		}
		for len(record) < len(table.Columns) {
			record = append(record, "")
		}
		table.Rows = append(table.Rows, record)
	}

	if table.Empty() {
		return nil, ErrNoData
	}
	return table, nil
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
