// Package schema holds the naming rules and the relation catalog that tie the
// root table to its child tables.
package schema

import (
	"regexp"
	"strings"
)

// schemaPrefix matches a leading SQL Server schema qualifier such as "dbo." or "dbo_".
var schemaPrefix = regexp.MustCompile(`(?i)^dbo[_.]`)

// NormalizeTableName strips surrounding whitespace and a leading schema qualifier.
// Case is preserved; use TableKey for comparisons.
func NormalizeTableName(name string) string {
	return schemaPrefix.ReplaceAllString(strings.TrimSpace(name), "")
}

// TableKey returns the canonical lookup key for a table name.
// Two names refer to the same table iff their keys are equal.
func TableKey(name string) string {
	return strings.ToLower(NormalizeTableName(name))
}

// SameTable reports whether a and b name the same table.
func SameTable(a, b string) bool {
	return TableKey(a) == TableKey(b)
}
