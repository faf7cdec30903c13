package document

// Table is a simple grid: one header row followed by data rows.
// Rows are not reconciled with the header; a data row may have more or
// fewer cells than the header.
type Table struct {
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows,omitempty"`
}

// Columns returns the width of the widest row, header included.
func (t *Table) Columns() int {
	n := len(t.Header)
	for _, r := range t.Rows {
		if len(r) > n {
			n = len(r)
		}
	}
	return n
}

// tableState is the state of the table accumulator.
type tableState int

const (
	noTable tableState = iota
	tableOpen
)

// tableAccumulator groups consecutive table rows into one table.
//
//	noTable   + row   -> tableOpen (row becomes the header)
//	tableOpen + row   -> tableOpen (row appended)
//	any       + other -> noTable
type tableAccumulator struct {
	state tableState
	table *Table
}

// row feeds a table row into the accumulator. When the row opens a new
// table, that table is returned so the caller can place it in the body;
// otherwise nil is returned.
func (a *tableAccumulator) row(cells []string) *Table {
	switch a.state {
	case tableOpen:
		a.table.Rows = append(a.table.Rows, cells)
		return nil
	default:
		a.table = &Table{Header: cells}
		a.state = tableOpen
		return a.table
	}
}

// close ends the current table, if any.
func (a *tableAccumulator) close() {
	a.state = noTable
	a.table = nil
}

// open reports whether a table is currently accumulating rows.
func (a *tableAccumulator) open() bool {
	return a.state == tableOpen
}
