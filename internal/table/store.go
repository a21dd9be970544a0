package table

import "context"

// Store loads and replaces whole tables. Implementations must make Replace
// atomic: readers see either the old table or the new one, never a mix.
type Store interface {
	// Load reads a table by name. Names are matched after normalization,
	// case-insensitively. A missing table fails with ErrTableNotFound.
	Load(ctx context.Context, name string) (*Table, error)

	// Replace overwrites the table's persisted rows with exactly t.Rows.
	Replace(ctx context.Context, t *Table) error

	// Tables lists the names of the tables the store can serve.
	Tables(ctx context.Context) ([]string, error)
}
