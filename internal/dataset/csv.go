package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrNoRows is returned when a CSV holds headers but no data rows, or no
// content at all.
var ErrNoRows = errors.New("csv has no data rows")

// inference looks at the first kindSampleSize rows per column.
const kindSampleSize = 1000

// FromCSV reads an entire CSV stream into a Dataset. Headers become column
// names (lowercased, snake_cased), cells are trimmed, short rows are padded
// and long rows truncated to the header width. Column kinds are inferred
// from a sample of the values.
func FromCSV(r io.Reader) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err == io.EOF {
		return nil, ErrNoRows
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	names := make([]string, len(headers))
	for i, h := range headers {
		names[i] = toSnakeCase(h)
	}

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row %d: %w", len(rows)+1, err)
		}
		row := make([]string, len(names))
		for i := range row {
			if i < len(record) {
				row[i] = strings.TrimSpace(record[i])
			}
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, ErrNoRows
	}

	cols := make([]Column, len(names))
	for i, name := range names {
		cols[i] = Column{Name: name, Kind: inferKind(rows, i)}
	}

	return New(cols, rows)
}

// inferKind samples a column and classifies it. A column is numeric or
// temporal only if every sampled non-blank cell parses; anything else, or an
// all-blank column, is a string column.
func inferKind(rows [][]string, col int) Kind {
	sampled := 0
	numeric := true
	temporal := true

	for _, row := range rows {
		if sampled >= kindSampleSize {
			break
		}
		v := row[col]
		if v == "" {
			continue
		}
		sampled++
		if numeric {
			if _, err := strconv.ParseFloat(v, 64); err != nil {
				numeric = false
			}
		}
		if temporal {
			if _, err := ParseDate(v); err != nil {
				temporal = false
			}
		}
		if !numeric && !temporal {
			break
		}
	}

	switch {
	case sampled == 0:
		return KindString
	case numeric:
		return KindNumber
	case temporal:
		return KindTime
	default:
		return KindString
	}
}

func toSnakeCase(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "-", "_")
	return s
}
