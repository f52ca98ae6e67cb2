package dataset

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Kind classifies the values a column holds.
type Kind int

const (
	KindString Kind = iota
	KindNumber
	KindTime
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindTime:
		return "date"
	default:
		return "string"
	}
}

// Column describes a single named column.
type Column struct {
	Name string `json:"name"`
	Kind Kind   `json:"kind"`
}

// Dataset is an in-memory table of named columns and rows. It is the sole
// input to every metric and analyzer operation and is treated as read-only:
// derived tables are new Datasets, the original is never mutated.
type Dataset struct {
	cols  []Column
	index map[string]int
	rows  [][]string
}

// New builds a Dataset from column descriptors and row-major cells.
// Column names must be unique; every row must match the column count.
func New(cols []Column, rows [][]string) (*Dataset, error) {
	index := make(map[string]int, len(cols))
	for i, c := range cols {
		if _, dup := index[c.Name]; dup {
			return nil, fmt.Errorf("duplicate column %q", c.Name)
		}
		index[c.Name] = i
	}
	for i, row := range rows {
		if len(row) != len(cols) {
			return nil, fmt.Errorf("row %d has %d cells, want %d", i, len(row), len(cols))
		}
	}
	return &Dataset{cols: cols, index: index, rows: rows}, nil
}

// Empty returns a Dataset with no columns and no rows. Metric contracts skip
// column validation against an empty Dataset, so catalog introspection never
// needs real data.
func Empty() *Dataset {
	return &Dataset{index: map[string]int{}}
}

// Len returns the number of rows.
func (d *Dataset) Len() int { return len(d.rows) }

// Columns returns the column descriptors in declaration order.
func (d *Dataset) Columns() []Column { return d.cols }

// ColumnNames returns just the column names in declaration order.
func (d *Dataset) ColumnNames() []string {
	names := make([]string, len(d.cols))
	for i, c := range d.cols {
		names[i] = c.Name
	}
	return names
}

// Has reports whether a column exists.
func (d *Dataset) Has(name string) bool {
	_, ok := d.index[name]
	return ok
}

// Value returns the raw cell at (row, column).
func (d *Dataset) Value(row int, column string) (string, bool) {
	i, ok := d.index[column]
	if !ok || row < 0 || row >= len(d.rows) {
		return "", false
	}
	return d.rows[row][i], true
}

// Row returns the raw cells of one row.
func (d *Dataset) Row(i int) []string { return d.rows[i] }

// Strings returns a column's raw values, row order preserved.
func (d *Dataset) Strings(column string) []string {
	i, ok := d.index[column]
	if !ok {
		return nil
	}
	out := make([]string, len(d.rows))
	for r, row := range d.rows {
		out[r] = row[i]
	}
	return out
}

// Numbers returns a column parsed as float64. Blank or unparsable cells
// contribute 0 so downstream aggregation never sees NaN.
func (d *Dataset) Numbers(column string) []float64 {
	i, ok := d.index[column]
	if !ok {
		return nil
	}
	out := make([]float64, len(d.rows))
	for r, row := range d.rows {
		if v, err := strconv.ParseFloat(strings.TrimSpace(row[i]), 64); err == nil {
			out[r] = v
		}
	}
	return out
}

// Times returns a column parsed as timestamps. Unlike Numbers, a cell that
// fails to parse is an error: every time-series query depends on the dates,
// so the failure has to surface immediately.
func (d *Dataset) Times(column string) ([]time.Time, error) {
	i, ok := d.index[column]
	if !ok {
		return nil, fmt.Errorf("column %q not found", column)
	}
	out := make([]time.Time, len(d.rows))
	for r, row := range d.rows {
		t, err := ParseDate(row[i])
		if err != nil {
			return nil, fmt.Errorf("column %q row %d: %w", column, r, err)
		}
		out[r] = t
	}
	return out, nil
}

// Filter returns a new Dataset containing the rows for which keep returns
// true. Rows are shared with the receiver, which stays untouched.
func (d *Dataset) Filter(keep func(row int) bool) *Dataset {
	var rows [][]string
	for i := range d.rows {
		if keep(i) {
			rows = append(rows, d.rows[i])
		}
	}
	return &Dataset{cols: d.cols, index: d.index, rows: rows}
}

// NonEmpty returns how many cells in a column hold a non-blank value.
func (d *Dataset) NonEmpty(column string) int {
	i, ok := d.index[column]
	if !ok {
		return 0
	}
	n := 0
	for _, row := range d.rows {
		if strings.TrimSpace(row[i]) != "" {
			n++
		}
	}
	return n
}

// First returns the first non-blank value in a column.
func (d *Dataset) First(column string) string {
	i, ok := d.index[column]
	if !ok {
		return ""
	}
	for _, row := range d.rows {
		if v := strings.TrimSpace(row[i]); v != "" {
			return v
		}
	}
	return ""
}

// Unique returns the number of distinct non-blank values in a column.
func (d *Dataset) Unique(column string) int {
	i, ok := d.index[column]
	if !ok {
		return 0
	}
	seen := make(map[string]bool)
	for _, row := range d.rows {
		if v := strings.TrimSpace(row[i]); v != "" {
			seen[v] = true
		}
	}
	return len(seen)
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006/01/02",
	"01/02/2006",
	"Jan 2, 2006",
}

// ParseDate parses a date cell against the supported layouts.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date value")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparsable date value %q", s)
}
