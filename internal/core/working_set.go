package core

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/JonMunkholm/devicebulk/internal/defaults"
	"github.com/JonMunkholm/devicebulk/internal/logging"
	"github.com/JonMunkholm/devicebulk/internal/schema"
	"github.com/JonMunkholm/devicebulk/internal/table"
)

// WorkingSet is the root table, its direct child tables and the relations
// between them, as loaded at one point in time. Operations take a working set
// and hand back the next one; nothing is shared implicitly.
type WorkingSet struct {
	Root     string // Normalized root table name
	Catalog  *schema.Catalog
	Tables   map[string]*table.Table // TableKey -> table
	Detected defaults.Set
	Warnings []string // Tables that failed to load
}

// LinkedChild is a loaded child table and the relation tying it to the root.
type LinkedChild struct {
	Table    *table.Table
	Relation schema.Relation
}

// FKColumn returns the child's foreign-key column.
func (c LinkedChild) FKColumn() string { return c.Relation.ParentColumn }

// LoadWorkingSet loads the root table and every direct child the catalog
// names. A child that fails to load is recorded as a warning and left out.
func LoadWorkingSet(ctx context.Context, store table.Store, catalog *schema.Catalog, root string) (*WorkingSet, error) {
	logger := logging.FromContext(ctx)

	rootTable, err := store.Load(ctx, root)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrRootTableMissing, schema.NormalizeTableName(root), err)
	}

	ws := &WorkingSet{
		Root:    rootTable.Name,
		Catalog: catalog,
		Tables:  map[string]*table.Table{schema.TableKey(rootTable.Name): rootTable},
	}

	for _, name := range catalog.ChildTables(root) {
		key := schema.TableKey(name)
		if _, loaded := ws.Tables[key]; loaded {
			continue
		}

		t, err := store.Load(ctx, name)
		if err != nil {
			var ioErr *table.IoError
			if !errors.As(err, &ioErr) {
				return nil, fmt.Errorf("load %s: %w", name, err)
			}
			logger.Warn("child table unavailable", "table", name, "error", err)
			ws.Warnings = append(ws.Warnings, err.Error())
			continue
		}
		ws.Tables[key] = t
	}

	ws.Detected = defaults.Detect(ws.all()...)
	return ws, nil
}

func (ws *WorkingSet) all() []*table.Table {
	out := make([]*table.Table, 0, len(ws.Tables))
	for _, t := range ws.Tables {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// RootTable returns the root table.
func (ws *WorkingSet) RootTable() *table.Table {
	return ws.Tables[schema.TableKey(ws.Root)]
}

// Table returns a loaded table by name.
func (ws *WorkingSet) Table(name string) (*table.Table, bool) {
	t, ok := ws.Tables[schema.TableKey(name)]
	return t, ok
}

// Names returns the loaded table names, root first, then children sorted.
func (ws *WorkingSet) Names() []string {
	names := []string{ws.Root}
	for _, t := range ws.all() {
		if !schema.SameTable(t.Name, ws.Root) {
			names = append(names, t.Name)
		}
	}
	return names
}

// Children returns every loaded child table with the relation linking it to
// the root, sorted by table name. A relation whose foreign-key column is not
// in the child table is inert and skipped with a warning.
func (ws *WorkingSet) Children() ([]LinkedChild, []string, error) {
	var (
		out      []LinkedChild
		warnings []string
	)
	for _, t := range ws.all() {
		if schema.SameTable(t.Name, ws.Root) {
			continue
		}
		rel, ok, err := ws.Catalog.Link(t.Name, ws.Root)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			continue
		}
		if !t.HasColumn(rel.ParentColumn) {
			warnings = append(warnings, fmt.Sprintf("relation %s ignored: %s has no column %s",
				rel.ForeignKeyName, t.Name, rel.ParentColumn))
			continue
		}
		out = append(out, LinkedChild{Table: t, Relation: rel})
	}
	return out, warnings, nil
}

// FKSource returns the root column whose value a child's foreign key holds:
// the relation's referenced column when the root has it, else the root key.
func (ws *WorkingSet) FKSource(rel schema.Relation) string {
	root := ws.RootTable()
	if c := root.ColumnIndex(rel.ReferencedColumn); c >= 0 {
		return root.Columns[c]
	}
	return root.PrimaryKey()
}

// with returns a new working set where the given tables replace their
// counterparts, and detected defaults are recomputed.
func (ws *WorkingSet) with(tables ...*table.Table) *WorkingSet {
	next := &WorkingSet{
		Root:     ws.Root,
		Catalog:  ws.Catalog,
		Tables:   make(map[string]*table.Table, len(ws.Tables)),
		Warnings: ws.Warnings,
	}
	for k, t := range ws.Tables {
		next.Tables[k] = t
	}
	for _, t := range tables {
		next.Tables[schema.TableKey(t.Name)] = t
	}
	next.Detected = defaults.Detect(next.all()...)
	return next
}
