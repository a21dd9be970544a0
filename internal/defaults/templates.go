package defaults

import (
	"sort"

	"github.com/JonMunkholm/devicebulk/internal/schema"
)

// TemplateRow is a partial child row: column -> value.
type TemplateRow map[string]string

// Clone returns a copy of the row.
func (t TemplateRow) Clone() TemplateRow {
	c := make(TemplateRow, len(t))
	for k, v := range t {
		c[k] = v
	}
	return c
}

// Templates maps a child table name to the rows instantiated for every new root entity.
type Templates map[string][]TemplateRow

// For returns the templates of tableName, matched after normalization.
func (t Templates) For(tableName string) []TemplateRow {
	if rows, ok := t[tableName]; ok {
		return rows
	}
	key := schema.TableKey(tableName)
	for name, rows := range t {
		if schema.TableKey(name) == key {
			return rows
		}
	}
	return nil
}

// Tables returns the normalized table names with at least one template, sorted.
func (t Templates) Tables() []string {
	seen := make(map[string]bool)
	var names []string
	for name, rows := range t {
		norm := schema.NormalizeTableName(name)
		if len(rows) == 0 || seen[schema.TableKey(norm)] {
			continue
		}
		seen[schema.TableKey(norm)] = true
		names = append(names, norm)
	}
	sort.Strings(names)
	return names
}
