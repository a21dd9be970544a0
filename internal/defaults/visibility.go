package defaults

import "github.com/JonMunkholm/devicebulk/internal/schema"

// TableVisibilityKey holds the table-level flag inside a TableVisibility.
const TableVisibilityKey = "__table_visible"

// TableVisibility maps column -> shown. The TableVisibilityKey entry is the
// table-level flag. Anything absent is shown.
type TableVisibility map[string]bool

// TableVisible reports the table-level flag.
func (v TableVisibility) TableVisible() bool {
	shown, ok := v[TableVisibilityKey]
	return !ok || shown
}

// ColumnVisible reports whether column is shown.
func (v TableVisibility) ColumnVisible(column string) bool {
	shown, ok := v[column]
	return !ok || shown
}

// Visibility is advisory presentation state per table. The engine never reads it.
type Visibility map[string]TableVisibility

// For returns the settings of tableName, matched after normalization.
func (v Visibility) For(tableName string) TableVisibility {
	if tv, ok := v[tableName]; ok {
		return tv
	}
	key := schema.TableKey(tableName)
	for name, tv := range v {
		if schema.TableKey(name) == key {
			return tv
		}
	}
	return TableVisibility{}
}

// VisibleColumns filters columns down to those shown for tableName.
func (v Visibility) VisibleColumns(tableName string, columns []string) []string {
	tv := v.For(tableName)
	out := make([]string, 0, len(columns))
	for _, c := range columns {
		if tv.ColumnVisible(c) {
			out = append(out, c)
		}
	}
	return out
}
