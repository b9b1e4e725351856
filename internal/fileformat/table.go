package fileformat

// table.go provides the in-memory table model the pipeline operates on.
//
// A Table is column-oriented. Cells are `any`: on input every cell is a
// string or nil (the missing marker); after datatype conversion cells are
// int64, float32, string, time.Time, []any (repeat columns) or nil.
// Missing FLOAT cells are NaN rather than nil, matching the numeric
// missing marker of the output contract.

import "math"

// Column is a named, order-preserving sequence of cell values indexed by
// original row position.
type Column struct {
	Name   string
	Values []any
}

// Row is one row of a processed table, keyed by output column name.
type Row map[string]any

// Table is an ordered collection of equally sized columns.
type Table struct {
	cols []Column
}

// NewTable creates a table from the given columns.
func NewTable(cols ...Column) *Table {
	return &Table{cols: cols}
}

// Names returns the column names in table order.
func (t *Table) Names() []string {
	names := make([]string, len(t.cols))
	for i, c := range t.cols {
		names[i] = c.Name
	}
	return names
}

// Column returns the column with the given name.
func (t *Table) Column(name string) (Column, bool) {
	for _, c := range t.cols {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// ColumnAt returns the column at the given position.
func (t *Table) ColumnAt(i int) Column {
	return t.cols[i]
}

// NumColumns returns the number of columns.
func (t *Table) NumColumns() int {
	return len(t.cols)
}

// NumRows returns the number of rows.
func (t *Table) NumRows() int {
	if len(t.cols) == 0 {
		return 0
	}
	return len(t.cols[0].Values)
}

// AppendColumn adds a column to the table.
func (t *Table) AppendColumn(c Column) {
	t.cols = append(t.cols, c)
}

// Row returns row i as a name-to-value mapping.
func (t *Table) Row(i int) Row {
	row := make(Row, len(t.cols))
	for _, c := range t.cols {
		row[c.Name] = c.Values[i]
	}
	return row
}

// FilterRows returns a new table containing only the rows for which keep
// returns true. Row positions passed to keep refer to the receiver.
func (t *Table) FilterRows(keep func(i int) bool) *Table {
	out := &Table{cols: make([]Column, len(t.cols))}
	n := t.NumRows()
	var kept []int
	for i := 0; i < n; i++ {
		if keep(i) {
			kept = append(kept, i)
		}
	}
	for ci, c := range t.cols {
		values := make([]any, 0, len(kept))
		for _, i := range kept {
			values = append(values, c.Values[i])
		}
		out.cols[ci] = Column{Name: c.Name, Values: values}
	}
	return out
}

// isMissing reports whether a cell value counts as missing: nil, the empty
// string, or a floating point NaN.
func isMissing(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case float32:
		return math.IsNaN(float64(t))
	case float64:
		return math.IsNaN(t)
	}
	return false
}
