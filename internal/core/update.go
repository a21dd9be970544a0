package core

import (
	"context"

	"github.com/JonMunkholm/devicebulk/internal/batch"
	"github.com/JonMunkholm/devicebulk/internal/schema"
	"github.com/JonMunkholm/devicebulk/internal/table"
)

// Update overwrites cells of existing rows located by key. Only cells that
// differ are written, so running the same batch twice changes nothing the
// second time.
//
// Root rows are located by the root key column, which the batch must carry.
// Child cells need the child's own key in the same row, as "Child.Key" or a
// bare column named like the child key; without it they are dropped.
func (e *Engine) Update(ctx context.Context, ws *WorkingSet, b *batch.Batch) (*WorkingSet, *Result, error) {
	r, err := e.begin(ctx, OpUpdate, ws, b)
	if err != nil {
		return ws, nil, err
	}
	res := r.result

	keyCol, err := r.keyColumn(b)
	if err != nil {
		return ws, nil, err
	}
	rootCols, childCols := r.mapColumns(b)

	childKeyCols := make(map[string]int)
	for _, lc := range r.children {
		key := schema.TableKey(lc.Table.Name)
		if len(childCols[key]) == 0 {
			continue
		}
		childKeyCols[key] = childKeyColumn(b, ws.Root, lc.Table)
		if childKeyCols[key] < 0 {
			r.warn("%s columns ignored: batch has no %s.%s column",
				lc.Table.Name, lc.Table.Name, lc.Table.PrimaryKey())
		}
	}

	rootDirty := false
	dirty := make(map[string]bool)

	for i, cells := range b.Rows {
		line := i + 2

		key := cells[keyCol]
		if !key.Present {
			r.warn("row %d skipped: blank %s", line, r.root.PrimaryKey())
			res.Skipped++
			continue
		}
		ri := r.root.FindByKey(key.Key())
		if ri < 0 {
			r.warn("row %d skipped: no %s with %s %s", line, r.root.Name, r.root.PrimaryKey(), key.Key())
			res.Skipped++
			continue
		}

		changed := false
		for _, tc := range rootCols {
			if tc.column == 0 {
				continue
			}
			if c := cells[tc.col]; c.Present && r.root.Set(ri, r.root.Columns[tc.column], c.Text) {
				changed = true
				rootDirty = true
			}
		}

		for _, lc := range r.children {
			tkey := schema.TableKey(lc.Table.Name)
			kc, ok := childKeyCols[tkey]
			if !ok || kc < 0 || !cells[kc].Present {
				continue
			}
			ci := lc.Table.FindByKey(cells[kc].Key())
			if ci < 0 {
				r.warn("row %d: no %s with %s %s", line, lc.Table.Name, lc.Table.PrimaryKey(), cells[kc].Key())
				continue
			}

			rowChanged := false
			for _, tc := range childCols[tkey] {
				if tc.column == 0 {
					continue
				}
				if c := cells[tc.col]; c.Present && lc.Table.Set(ci, lc.Table.Columns[tc.column], c.Text) {
					rowChanged = true
				}
			}
			if rowChanged {
				changed = true
				dirty[tkey] = true
				res.ChildRows[lc.Table.Name]++
			}
		}

		if changed {
			res.Applied++
		} else {
			res.Unchanged++
		}
	}

	var plan []*table.Table
	if rootDirty {
		plan = append(plan, r.root)
	}
	for _, lc := range r.children {
		if dirty[schema.TableKey(lc.Table.Name)] {
			plan = append(plan, lc.Table)
		}
	}
	if len(plan) == 0 {
		r.logger.Info("update batch changed nothing", "supplied", res.Supplied, "skipped", res.Skipped)
		return ws, res, nil
	}

	next, err := r.writePlan(ctx, e.store, plan)
	r.logger.Info("update batch finished",
		"supplied", res.Supplied, "applied", res.Applied, "unchanged", res.Unchanged, "skipped", res.Skipped)
	return next, res, err
}
