// Package batch turns uploaded spreadsheets into bulk input: a header row of
// column paths and rows of cells that are either present or missing.
package batch

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnsupportedFormat is returned for file types other than CSV and XLSX.
	ErrUnsupportedFormat = errors.New("unsupported batch format")
	// ErrEmptyBatch is returned when the input has no header row.
	ErrEmptyBatch = errors.New("empty file")
	// ErrDuplicateHeader is returned when two columns share a header.
	ErrDuplicateHeader = errors.New("duplicate column header")
)

// Cell is one input value. Text is the raw cell text. A cell that is blank
// after trimming is not Present and is never written.
type Cell struct {
	Text    string
	Present bool
}

// Key returns the cell text as used for key matching.
func (c Cell) Key() string { return strings.TrimSpace(c.Text) }

// Batch is a parsed bulk input.
type Batch struct {
	Source  string
	Headers []string
	Rows    [][]Cell
}

// FromRecords builds a batch from raw records whose first record is the header.
// Columns with a blank header are dropped, and rows with no present cell are
// skipped.
func FromRecords(source string, records [][]string) (*Batch, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: %w", source, ErrEmptyBatch)
	}

	b := &Batch{Source: source}
	var keep []int
	seen := make(map[string]bool)
	for i, h := range records[0] {
		h = strings.TrimSpace(h)
		if h == "" {
			continue
		}
		if seen[h] {
			return nil, fmt.Errorf("%s: %w: %s", source, ErrDuplicateHeader, h)
		}
		seen[h] = true
		b.Headers = append(b.Headers, h)
		keep = append(keep, i)
	}
	if len(b.Headers) == 0 {
		return nil, fmt.Errorf("%s: %w", source, ErrEmptyBatch)
	}

	for _, rec := range records[1:] {
		row := make([]Cell, len(keep))
		hasValue := false
		for c, pos := range keep {
			if pos >= len(rec) {
				continue
			}
			row[c] = Cell{Text: rec[pos], Present: strings.TrimSpace(rec[pos]) != ""}
			hasValue = hasValue || row[c].Present
		}
		if hasValue {
			b.Rows = append(b.Rows, row)
		}
	}
	return b, nil
}

// New builds a batch from headers and row maps, mainly for callers that
// assemble input programmatically. Missing map entries are missing cells.
func New(source string, headers []string, rows []map[string]string) (*Batch, error) {
	records := make([][]string, 0, len(rows)+1)
	records = append(records, headers)
	for _, r := range rows {
		rec := make([]string, len(headers))
		for i, h := range headers {
			rec[i] = r[h]
		}
		records = append(records, rec)
	}
	return FromRecords(source, records)
}

// Len returns the number of data rows.
func (b *Batch) Len() int { return len(b.Rows) }

// Column returns the index of header, or -1.
func (b *Batch) Column(header string) int {
	for i, h := range b.Headers {
		if h == header {
			return i
		}
	}
	return -1
}
