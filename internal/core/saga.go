package core

import (
	"context"

	"github.com/JonMunkholm/devicebulk/internal/table"
)

// writePlan replaces tables one at a time in the given order. The first
// failure stops the plan: later tables are reported as not attempted and
// tables already written stay written.
//
// It returns the next working set, holding the written tables and the
// previous state of everything else.
func (r *run) writePlan(ctx context.Context, store table.Store, plan []*table.Table) (*WorkingSet, error) {
	var (
		written []*table.Table
		failed  error
	)

	for _, t := range plan {
		w := TableWrite{Table: t.Name, Rows: t.Len()}

		switch {
		case failed != nil:
			w.Status = WriteSkipped
		default:
			if err := store.Replace(ctx, t); err != nil {
				failed = err
				w.Status = WriteFailed
				w.Error = err.Error()
				w.err = err
				r.logger.Error("table write failed", "table", t.Name, "error", err)
			} else {
				w.Status = WriteDone
				written = append(written, t)
				r.logger.Info("table written", "table", t.Name, "rows", t.Len())
			}
		}

		r.result.Writes = append(r.result.Writes, w)
	}

	return r.ws.with(written...), failed
}
