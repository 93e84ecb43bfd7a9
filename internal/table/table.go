// Package table holds the in-memory tabular model shared by parsing,
// profiling, cleaning and export. Tables are immutable: every transformation
// returns a new Table and never touches its input.
package table

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Table is an ordered sequence of rows.
type Table struct {
	rows []Row
}

// New returns a table over a copy of rows.
func New(rows []Row) *Table {
	cp := make([]Row, len(rows))
	copy(cp, rows)
	return &Table{rows: cp}
}

// Len returns the number of rows. A nil table is empty.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rows)
}

// Row returns row i.
func (t *Table) Row(i int) Row { return t.rows[i] }

// Rows returns a copy of the row slice.
func (t *Table) Rows() []Row {
	if t == nil {
		return nil
	}
	out := make([]Row, len(t.rows))
	copy(out, t.rows)
	return out
}

// Columns returns the keys of the first row, which define the table's
// columns for profiling and export. Empty tables have no columns.
func (t *Table) Columns() []string {
	if t.Len() == 0 {
		return nil
	}
	return t.rows[0].Keys()
}

// AllColumns returns the union of keys across rows in first-appearance order.
func (t *Table) AllColumns() []string {
	seen := map[string]struct{}{}
	var out []string
	for _, r := range t.Rows() {
		for _, k := range r.keys {
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, k)
		}
	}
	return out
}

// Column returns the values of one column, missing where a row lacks the key.
func (t *Table) Column(name string) []Value {
	out := make([]Value, t.Len())
	for i, r := range t.Rows() {
		out[i] = r.Get(name)
	}
	return out
}

// Filter returns a new table with the rows for which keep returns true.
func (t *Table) Filter(keep func(Row) bool) *Table {
	out := make([]Row, 0, t.Len())
	for _, r := range t.Rows() {
		if keep(r) {
			out = append(out, r)
		}
	}
	return &Table{rows: out}
}

// Map returns a new table with fn applied to every row.
func (t *Table) Map(fn func(Row) Row) *Table {
	out := make([]Row, t.Len())
	for i, r := range t.Rows() {
		out[i] = fn(r)
	}
	return &Table{rows: out}
}

// Head returns the first n rows. A nil table yields an empty table.
func (t *Table) Head(n int) *Table {
	if t == nil {
		return New(nil)
	}
	if n < 0 {
		n = 0
	}
	if n > t.Len() {
		n = t.Len()
	}
	return New(t.rows[:n])
}

// Equal compares two tables row by row.
func (t *Table) Equal(o *Table) bool {
	if t.Len() != o.Len() {
		return false
	}
	for i := 0; i < t.Len(); i++ {
		if !t.rows[i].Equal(o.rows[i]) {
			return false
		}
	}
	return true
}

// MarshalJSON writes the table as an array of row objects.
func (t *Table) MarshalJSON() ([]byte, error) {
	rows := t.Rows()
	if rows == nil {
		rows = []Row{}
	}
	return json.Marshal(rows)
}

// UnmarshalJSON reads an array of row objects.
func (t *Table) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '[' {
		return fmt.Errorf("table: expected array of objects")
	}
	var rows []Row
	if err := json.Unmarshal(data, &rows); err != nil {
		return fmt.Errorf("table: %w", err)
	}
	t.rows = rows
	return nil
}
