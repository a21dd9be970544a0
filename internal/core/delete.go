package core

import (
	"context"

	"github.com/JonMunkholm/devicebulk/internal/batch"
	"github.com/JonMunkholm/devicebulk/internal/table"
)

// Delete removes the root rows whose key is listed in the batch and, in every
// linked child table, the rows whose foreign key held a deleted value.
//
// Child tables are written before the root, each exactly once even when no
// row matched, so a failed child write leaves the root rows in place.
func (e *Engine) Delete(ctx context.Context, ws *WorkingSet, b *batch.Batch) (*WorkingSet, *Result, error) {
	r, err := e.begin(ctx, OpDelete, ws, b)
	if err != nil {
		return ws, nil, err
	}
	res := r.result

	keyCol, err := r.keyColumn(b)
	if err != nil {
		return ws, nil, err
	}

	keys := make(map[string]bool)
	for i, cells := range b.Rows {
		c := cells[keyCol]
		if !c.Present {
			r.warn("row %d skipped: blank %s", i+2, r.root.PrimaryKey())
			res.Skipped++
			continue
		}
		if r.root.FindByKey(c.Key()) < 0 {
			r.warn("row %d: no %s with %s %s", i+2, r.root.Name, r.root.PrimaryKey(), c.Key())
			res.Skipped++
		}
		keys[c.Key()] = true
	}
	if len(keys) == 0 {
		r.warn("no keys to delete")
		return ws, res, nil
	}

	// Values each foreign key may hold for a deleted row, per root column.
	// Keys listed in the batch match even when the root row is already gone.
	removedValues := map[int]map[string]bool{0: keys}
	valuesOf := func(col int) map[string]bool {
		if vals, ok := removedValues[col]; ok {
			return vals
		}
		vals := make(map[string]bool)
		for _, row := range r.root.Rows {
			if keys[row[0]] && row[col] != "" {
				vals[row[col]] = true
			}
		}
		removedValues[col] = vals
		return vals
	}

	var plan []*table.Table
	for _, lc := range r.children {
		match := valuesOf(r.root.ColumnIndex(ws.FKSource(lc.Relation)))
		fk := lc.Table.ColumnIndex(lc.FKColumn())
		removed := lc.Table.Filter(func(row []string) bool { return !match[row[fk]] })
		if removed > 0 {
			res.ChildRows[lc.Table.Name] = removed
		}
		plan = append(plan, lc.Table)
	}

	res.Applied = r.root.Filter(func(row []string) bool { return !keys[row[0]] })
	plan = append(plan, r.root)

	next, err := r.writePlan(ctx, e.store, plan)
	r.logger.Info("delete batch finished",
		"supplied", res.Supplied, "applied", res.Applied, "skipped", res.Skipped, "keys", len(keys))
	return next, res, err
}
