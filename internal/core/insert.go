package core

import (
	"context"
	"sort"
	"strings"

	"github.com/JonMunkholm/devicebulk/internal/batch"
	"github.com/JonMunkholm/devicebulk/internal/defaults"
	"github.com/JonMunkholm/devicebulk/internal/schema"
	"github.com/JonMunkholm/devicebulk/internal/table"
)

// Insert adds one root row per batch row, plus child rows built from the
// configured templates and from any child columns in the batch.
//
// Each root row is seeded from defaults (the key column excepted) and
// overlaid with the row's present cells. Blank root keys are assigned from
// the table's next numeric key before anything is written, so child rows get
// their foreign key from the row itself. For each linked child table, the
// captured child cells are merged onto the first template row; with no
// template, a single default-seeded child row carries them.
//
// The root table is written first, then each touched child table once.
func (e *Engine) Insert(ctx context.Context, ws *WorkingSet, b *batch.Batch) (*WorkingSet, *Result, error) {
	r, err := e.begin(ctx, OpInsert, ws, b)
	if err != nil {
		return ws, nil, err
	}
	res := r.result
	resolver := e.resolver(ws)

	rootCols, childCols := r.mapColumns(b)
	rootKeys := table.NewKeyAllocator(r.root)
	childKeys := make(map[string]*table.KeyAllocator)
	keysFor := func(t *table.Table) *table.KeyAllocator {
		k := schema.TableKey(t.Name)
		if childKeys[k] == nil {
			childKeys[k] = table.NewKeyAllocator(t)
		}
		return childKeys[k]
	}

	touched := make(map[string]bool)

	for i, cells := range b.Rows {
		line := i + 2 // 1-based, after the header

		row := resolver.Seed(r.root, r.root.PrimaryKey())
		for _, tc := range rootCols {
			if c := cells[tc.col]; c.Present {
				row[tc.column] = c.Text
			}
		}

		row[0] = strings.TrimSpace(row[0])
		if key := row[0]; key != "" {
			if !rootKeys.Reserve(key) {
				r.warn("row %d skipped: %s %s already exists", line, r.root.PrimaryKey(), key)
				res.Skipped++
				continue
			}
		} else if next, ok := rootKeys.Next(); ok {
			row[0] = next
		} else {
			r.warn("row %d: %s has no numeric keys, key left blank", line, r.root.Name)
		}

		r.root.AppendRow(row)
		res.Applied++

		for _, lc := range r.children {
			fk := row[r.root.ColumnIndex(ws.FKSource(lc.Relation))]
			rows := buildChildRows(lc, e.templates.For(lc.Table.Name), childCols[schema.TableKey(lc.Table.Name)], cells, resolver)
			if len(rows) == 0 {
				continue
			}
			if fk == "" {
				r.warn("row %d: no %s value to link %s rows, %d skipped",
					line, ws.FKSource(lc.Relation), lc.Table.Name, len(rows))
				continue
			}

			fkCol := lc.Table.ColumnIndex(lc.FKColumn())
			alloc := keysFor(lc.Table)
			for _, child := range rows {
				child[fkCol] = fk
				// A key column filled by the foreign key is shared by every
				// row of this root row and is never deduplicated.
				if fkCol != 0 && !r.assignChildKey(line, lc.Table, child, alloc) {
					continue
				}
				lc.Table.AppendRow(child)
				res.ChildRows[lc.Table.Name]++
				touched[schema.TableKey(lc.Table.Name)] = true
			}
		}
	}

	if res.Applied == 0 {
		r.logger.Info("insert batch produced no rows", "supplied", res.Supplied)
		return ws, res, nil
	}

	plan := []*table.Table{r.root}
	for _, lc := range r.children {
		if touched[schema.TableKey(lc.Table.Name)] {
			plan = append(plan, lc.Table)
		}
	}

	next, err := r.writePlan(ctx, e.store, plan)
	r.logger.Info("insert batch finished",
		"supplied", res.Supplied, "applied", res.Applied, "skipped", res.Skipped, "child_tables", len(plan)-1)
	return next, res, err
}

// assignChildKey fills a blank child key from alloc, or reserves an explicit
// one. It returns false when the row must be dropped as a duplicate.
func (r *run) assignChildKey(line int, t *table.Table, row []string, alloc *table.KeyAllocator) bool {
	row[0] = strings.TrimSpace(row[0])
	if row[0] == "" {
		if next, ok := alloc.Next(); ok {
			row[0] = next
		}
		return true
	}
	if !alloc.Reserve(row[0]) {
		r.warn("row %d: %s row skipped, %s %s already exists", line, t.Name, t.PrimaryKey(), row[0])
		return false
	}
	return true
}

// buildChildRows returns the child rows for one new root row, in column order.
// The foreign-key column is left for the caller to set.
func buildChildRows(lc LinkedChild, templates []defaults.TemplateRow, cols []target, cells []batch.Cell, resolver defaults.Resolver) [][]string {
	t := lc.Table

	var captured []target
	for _, tc := range cols {
		if cells[tc.col].Present {
			captured = append(captured, tc)
		}
	}

	var rows [][]string
	for _, tmpl := range templates {
		rows = append(rows, templateRow(t, tmpl))
	}
	if len(captured) == 0 {
		return rows
	}

	if len(rows) == 0 {
		rows = append(rows, resolver.Seed(t, t.PrimaryKey(), lc.FKColumn()))
	}
	for _, tc := range captured {
		rows[0][tc.column] = cells[tc.col].Text
	}
	return rows
}

// templateRow lays a template out in the table's column order. Template
// columns the table lacks are dropped.
func templateRow(t *table.Table, tmpl defaults.TemplateRow) []string {
	cols := make([]string, 0, len(tmpl))
	for c := range tmpl {
		cols = append(cols, c)
	}
	sort.Strings(cols)

	row := make([]string, len(t.Columns))
	for _, c := range cols {
		if i := t.ColumnIndex(c); i >= 0 {
			row[i] = tmpl[c]
		}
	}
	return row
}
