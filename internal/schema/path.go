package schema

import "strings"

// ColumnPath is a batch header resolved to a target table and column.
type ColumnPath struct {
	Table    string // Normalized table name
	Column   string
	Explicit bool // Header named the table ("Table.Column")
}

// ParseColumnPath resolves a batch header.
//
// "Table.Column" targets the named table; a bare "Column" targets root.
// Only the first separator splits, so "Port.Speed.Max" is column "Speed.Max"
// of table "Port". A schema qualifier in front of a qualified header is dropped:
// "dbo.Device.Name" is column "Name" of "Device".
func ParseColumnPath(header, root string) ColumnPath {
	h := strings.TrimSpace(header)

	if stripped := schemaPrefix.ReplaceAllString(h, ""); stripped != h && strings.Contains(stripped, ".") {
		h = stripped
	}

	table, column, ok := strings.Cut(h, ".")
	if !ok {
		return ColumnPath{Table: NormalizeTableName(root), Column: h}
	}

	return ColumnPath{
		Table:    NormalizeTableName(table),
		Column:   strings.TrimSpace(column),
		Explicit: true,
	}
}

// Targets reports whether the path points at column of table.
func (p ColumnPath) Targets(table, column string) bool {
	return SameTable(p.Table, table) && p.Column == column
}

// String renders the path in qualified form.
func (p ColumnPath) String() string {
	return p.Table + "." + p.Column
}
