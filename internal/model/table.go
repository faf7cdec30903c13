package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Table is tabular survey data as fetched from the data source.
type Table struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Empty reports whether the table has no data rows.
func (t *Table) Empty() bool {
	return t == nil || len(t.Rows) == 0
}

// Records returns one record per data row. Cells missing from short rows
// become empty strings.
func (t *Table) Records() []Record {
	if t == nil {
		return nil
	}
	records := make([]Record, 0, len(t.Rows))
	for _, row := range t.Rows {
		rec := Record{Fields: make([]Field, len(t.Columns))}
		for i, col := range t.Columns {
			val := ""
			if i < len(row) {
				val = row[i]
			}
			rec.Fields[i] = Field{Name: col, Value: val}
		}
		records = append(records, rec)
	}
	return records
}

// Field is one column value of a record.
type Field struct {
	Name  string
	Value string
}

// Record is a row keyed by column name. Unlike a map it keeps column order
// when encoded as JSON.
type Record struct {
	Fields []Field
}

// Get returns the value of the named column.
func (r Record) Get(name string) (string, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// MarshalJSON encodes the record as an object in column order. Numeric
// cells are encoded as JSON numbers, everything else as strings.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r.Fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')

		if isNumber(f.Value) {
			buf.WriteString(strings.TrimSpace(f.Value))
			continue
		}
		val, err := json.Marshal(f.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// isNumber reports whether s is a finite decimal number that is also valid
// JSON number syntax.
func isNumber(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	if _, err := strconv.ParseFloat(s, 64); err != nil {
		return false
	}
	return json.Valid([]byte(s))
}
