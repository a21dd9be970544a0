// Package table holds the in-memory form of one delimited table and the store
// contract the mutation engine reads and replaces tables through.
package table

import (
	"sort"
	"strings"

	"github.com/JonMunkholm/devicebulk/internal/schema"
)

// Table is an ordered set of columns and rows. Every value is text; an empty
// string means "no value". The first column is the primary key.
type Table struct {
	Name    string     // Normalized table name
	Columns []string   // Header order as stored
	Rows    [][]string // Each row has exactly len(Columns) cells
}

// New builds a table, padding or truncating rows to the column count.
func New(name string, columns []string, rows [][]string) *Table {
	t := &Table{
		Name:    schema.NormalizeTableName(name),
		Columns: append([]string(nil), columns...),
		Rows:    make([][]string, 0, len(rows)),
	}
	for _, r := range rows {
		t.Rows = append(t.Rows, t.fit(r))
	}
	return t
}

// FromRecords builds a table from raw records where the first record is the header.
// Header cells are trimmed.
func FromRecords(name string, records [][]string) *Table {
	if len(records) == 0 {
		return New(name, nil, nil)
	}
	cols := make([]string, len(records[0]))
	for i, h := range records[0] {
		cols[i] = strings.TrimSpace(h)
	}
	return New(name, cols, records[1:])
}

// Records returns header plus rows, ready for csvio.WriteRecords.
func (t *Table) Records() [][]string {
	out := make([][]string, 0, len(t.Rows)+1)
	out = append(out, t.Columns)
	out = append(out, t.Rows...)
	return out
}

func (t *Table) fit(r []string) []string {
	row := make([]string, len(t.Columns))
	copy(row, r)
	return row
}

// PrimaryKey returns the name of the key column, or "" for a table with no columns.
func (t *Table) PrimaryKey() string {
	if len(t.Columns) == 0 {
		return ""
	}
	return t.Columns[0]
}

// ColumnIndex returns the position of column. An exact match wins over a
// case-insensitive one. Returns -1 if absent.
func (t *Table) ColumnIndex(column string) int {
	fold := -1
	for i, c := range t.Columns {
		if c == column {
			return i
		}
		if fold < 0 && strings.EqualFold(c, column) {
			fold = i
		}
	}
	return fold
}

// HasColumn reports whether column exists.
func (t *Table) HasColumn(column string) bool {
	return t.ColumnIndex(column) >= 0
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Rows) }

// Value returns the cell at row i for column, or "" if the column is absent.
func (t *Table) Value(i int, column string) string {
	c := t.ColumnIndex(column)
	if c < 0 || i < 0 || i >= len(t.Rows) {
		return ""
	}
	return t.Rows[i][c]
}

// Key returns the primary-key value of row i.
func (t *Table) Key(i int) string {
	if len(t.Columns) == 0 {
		return ""
	}
	return t.Rows[i][0]
}

// Append adds a row given as column -> value. Unknown columns are ignored.
// Keys are applied in sorted order so case-variant duplicates resolve the same way every time.
func (t *Table) Append(values map[string]string) {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	row := make([]string, len(t.Columns))
	for _, col := range keys {
		if c := t.ColumnIndex(col); c >= 0 {
			row[c] = values[col]
		}
	}
	t.Rows = append(t.Rows, row)
}

// AppendRow adds a row given in column order, padded or truncated to fit.
func (t *Table) AppendRow(row []string) {
	t.Rows = append(t.Rows, t.fit(row))
}

// FindByKey returns the index of the first row whose primary key equals key
// as text, or -1.
func (t *Table) FindByKey(key string) int {
	return t.FindBy(t.PrimaryKey(), key)
}

// FindBy returns the index of the first row whose column equals value as text, or -1.
func (t *Table) FindBy(column, value string) int {
	c := t.ColumnIndex(column)
	if c < 0 {
		return -1
	}
	for i, r := range t.Rows {
		if r[c] == value {
			return i
		}
	}
	return -1
}

// Set writes value into row i and reports whether the cell changed.
func (t *Table) Set(i int, column, value string) bool {
	c := t.ColumnIndex(column)
	if c < 0 || t.Rows[i][c] == value {
		return false
	}
	t.Rows[i][c] = value
	return true
}

// Filter keeps the rows for which keep returns true, preserving order,
// and returns how many rows were removed.
func (t *Table) Filter(keep func(row []string) bool) int {
	kept := t.Rows[:0:0]
	for _, r := range t.Rows {
		if keep(r) {
			kept = append(kept, r)
		}
	}
	removed := len(t.Rows) - len(kept)
	t.Rows = kept
	return removed
}

// Clone returns a deep copy.
func (t *Table) Clone() *Table {
	c := &Table{
		Name:    t.Name,
		Columns: append([]string(nil), t.Columns...),
		Rows:    make([][]string, len(t.Rows)),
	}
	for i, r := range t.Rows {
		c.Rows[i] = append([]string(nil), r...)
	}
	return c
}
