// Package analysis profiles tables and computes descriptive statistics,
// chart series and the markdown dataset report.
package analysis

import (
	"github.com/KaramelBytes/qdata-clean/internal/table"
)

// ColumnType is the inferred type of a column.
type ColumnType string

const (
	TypeNumeric ColumnType = "numeric"
	TypeText    ColumnType = "text"
)

// ColumnProfile describes one column.
type ColumnProfile struct {
	Name  string     `json:"name"`
	Index int        `json:"index"`
	Type  ColumnType `json:"type"`
	// Missing counts rows whose value is null, empty or absent.
	Missing  int `json:"missing"`
	Distinct int `json:"distinct"`
	// NumericCount counts values that convert to a finite number.
	NumericCount int `json:"numeric_count"`
}

// Profile infers type, missing and distinct counts for every column of the
// first row. Keys first seen in later rows are not profiled; see
// UnprofiledColumns.
func Profile(t *table.Table) []ColumnProfile {
	cols := t.Columns()
	out := make([]ColumnProfile, 0, len(cols))
	rows := t.Rows()
	for i, name := range cols {
		p := ColumnProfile{Name: name, Index: i, Type: TypeText}
		seen := make(map[string]struct{})
		for _, r := range rows {
			v := r.Get(name)
			if v.IsMissing() {
				p.Missing++
				continue
			}
			if k, ok := v.Key(); ok {
				seen[k] = struct{}{}
			}
			if v.Numeric() {
				p.NumericCount++
			}
		}
		p.Distinct = len(seen)
		if p.NumericCount > 0 {
			p.Type = TypeNumeric
		}
		out = append(out, p)
	}
	return out
}

// NumericColumns returns the names of numeric columns in column order.
func NumericColumns(t *table.Table) []string {
	var out []string
	for _, p := range Profile(t) {
		if p.Type == TypeNumeric {
			out = append(out, p.Name)
		}
	}
	return out
}

// UnprofiledColumns returns keys that appear only after the first row.
func UnprofiledColumns(t *table.Table) []string {
	first := make(map[string]struct{})
	for _, c := range t.Columns() {
		first[c] = struct{}{}
	}
	var out []string
	for _, c := range t.AllColumns() {
		if _, ok := first[c]; !ok {
			out = append(out, c)
		}
	}
	return out
}
