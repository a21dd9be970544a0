// Package defaults computes detected defaults from table contents and holds the
// operator-managed settings: user defaults, child-row templates and visibility.
package defaults

import (
	"sort"
	"strings"

	"github.com/JonMunkholm/devicebulk/internal/schema"
	"github.com/JonMunkholm/devicebulk/internal/table"
)

// Set maps table name -> column -> value. Table names are matched after
// normalization, case-insensitively; column names are matched exactly.
type Set map[string]map[string]string

func (s Set) columns(tableName string) map[string]string {
	if cols, ok := s[tableName]; ok {
		return cols
	}
	key := schema.TableKey(tableName)
	for name, cols := range s {
		if schema.TableKey(name) == key {
			return cols
		}
	}
	return nil
}

// Get returns the value for table/column and whether one is set.
func (s Set) Get(tableName, column string) (string, bool) {
	v, ok := s.columns(tableName)[column]
	return v, ok
}

// Put stores a value, creating the table entry under its normalized name.
func (s Set) Put(tableName, column, value string) {
	cols := s.columns(tableName)
	if cols == nil {
		cols = make(map[string]string)
		s[schema.NormalizeTableName(tableName)] = cols
	}
	cols[column] = value
}

// Tables returns the table names in sorted order.
func (s Set) Tables() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Detect computes detected defaults: a column gets one when its trimmed values
// collapse to exactly one distinct value. Tables with no rows contribute nothing.
func Detect(tables ...*table.Table) Set {
	out := make(Set)
	for _, t := range tables {
		if t == nil || len(t.Rows) == 0 {
			continue
		}
		cols := make(map[string]string)
		for c, name := range t.Columns {
			first := strings.TrimSpace(t.Rows[0][c])
			uniform := true
			for _, r := range t.Rows[1:] {
				if strings.TrimSpace(r[c]) != first {
					uniform = false
					break
				}
			}
			if uniform {
				cols[name] = first
			}
		}
		out[t.Name] = cols
	}
	return out
}

// Resolver merges user and detected defaults.
type Resolver struct {
	User     Set
	Detected Set
}

// Resolve returns the value to seed for a column with no explicit input:
// the user default if set, else the detected default, else "".
func (r Resolver) Resolve(tableName, column string) string {
	if v, ok := r.User.Get(tableName, column); ok {
		return v
	}
	if v, ok := r.Detected.Get(tableName, column); ok {
		return v
	}
	return ""
}

// Seed builds a row for t, in column order, where every column except those
// in skip is resolved. Skipped columns are left blank.
func (r Resolver) Seed(t *table.Table, skip ...string) []string {
	row := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		if containsFold(skip, c) {
			continue
		}
		row[i] = r.Resolve(t.Name, c)
	}
	return row
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
