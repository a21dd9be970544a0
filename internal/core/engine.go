package core

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/JonMunkholm/devicebulk/internal/batch"
	"github.com/JonMunkholm/devicebulk/internal/defaults"
	"github.com/JonMunkholm/devicebulk/internal/logging"
	"github.com/JonMunkholm/devicebulk/internal/schema"
	"github.com/JonMunkholm/devicebulk/internal/table"
)

// Operation names a bulk mutation.
type Operation string

const (
	OpInsert Operation = "insert"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// ParseOperation validates an operation name.
func ParseOperation(s string) (Operation, error) {
	switch op := Operation(s); op {
	case OpInsert, OpUpdate, OpDelete:
		return op, nil
	default:
		return "", fmt.Errorf("unknown operation %q", s)
	}
}

// Engine applies bulk batches to a working set and persists the result
// through a table store.
type Engine struct {
	store     table.Store
	userDefs  defaults.Set
	templates defaults.Templates
}

// NewEngine returns an engine writing through store, using the operator's
// user defaults and child-row templates. Visibility settings are not consulted.
func NewEngine(store table.Store, settings defaults.Settings) *Engine {
	return &Engine{
		store:     store,
		userDefs:  settings.Defaults,
		templates: settings.Templates,
	}
}

// Run dispatches to Insert, Update or Delete.
func (e *Engine) Run(ctx context.Context, op Operation, ws *WorkingSet, b *batch.Batch) (*WorkingSet, *Result, error) {
	switch op {
	case OpInsert:
		return e.Insert(ctx, ws, b)
	case OpUpdate:
		return e.Update(ctx, ws, b)
	case OpDelete:
		return e.Delete(ctx, ws, b)
	default:
		return ws, nil, fmt.Errorf("unknown operation %q", op)
	}
}

func (e *Engine) resolver(ws *WorkingSet) defaults.Resolver {
	return defaults.Resolver{User: e.userDefs, Detected: ws.Detected}
}

// run carries the per-batch state shared by all three operations.
type run struct {
	ws       *WorkingSet
	result   *Result
	logger   *slog.Logger
	root     *table.Table
	children []LinkedChild // clones, sorted by name
}

func (e *Engine) begin(ctx context.Context, op Operation, ws *WorkingSet, b *batch.Batch) (*run, error) {
	if ws == nil || ws.RootTable() == nil {
		return nil, ErrRootTableMissing
	}

	res := newResult(op, b)
	r := &run{
		ws:     ws,
		result: res,
		logger: logging.WithFields(ctx, "batch_id", res.BatchID, "operation", op, "source", b.Source),
		root:   ws.RootTable().Clone(),
	}
	if len(r.root.Columns) == 0 {
		return nil, fmt.Errorf("%w: %s has no columns", ErrRootTableMissing, ws.Root)
	}

	linked, warnings, err := ws.Children()
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		r.warn("%s", w)
	}
	for _, c := range linked {
		r.children = append(r.children, LinkedChild{Table: c.Table.Clone(), Relation: c.Relation})
	}
	return r, nil
}

func (r *run) warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	r.result.Warnings = append(r.result.Warnings, msg)
	r.logger.Warn(msg)
}

func (r *run) child(name string) (LinkedChild, bool) {
	for _, c := range r.children {
		if schema.SameTable(c.Table.Name, name) {
			return c, true
		}
	}
	return LinkedChild{}, false
}

// target is a batch column mapped onto a loaded table.
type target struct {
	col    int    // Batch column
	table  string // Normalized table name
	column int    // Column index in the table
	path   schema.ColumnPath
}

// mapColumns resolves every batch header. Headers naming a table that is not
// loaded or a column the table lacks are reported once and ignored.
func (r *run) mapColumns(b *batch.Batch) (rootCols []target, childCols map[string][]target) {
	childCols = make(map[string][]target)
	for i, h := range b.Headers {
		p := schema.ParseColumnPath(h, r.ws.Root)

		if schema.SameTable(p.Table, r.root.Name) {
			if c := r.root.ColumnIndex(p.Column); c >= 0 {
				rootCols = append(rootCols, target{col: i, table: r.root.Name, column: c, path: p})
				continue
			}
			if !p.Explicit && r.isChildKey(p.Column) {
				// A bare child key name, used by update to locate child rows.
				continue
			}
			r.warn("column %q ignored: %s has no column %s", h, r.root.Name, p.Column)
			continue
		}

		lc, ok := r.child(p.Table)
		if !ok {
			r.warn("column %q ignored: table %s is not a loaded child of %s", h, p.Table, r.root.Name)
			continue
		}
		c := lc.Table.ColumnIndex(p.Column)
		if c < 0 {
			r.warn("column %q ignored: %s has no column %s", h, lc.Table.Name, p.Column)
			continue
		}
		key := schema.TableKey(lc.Table.Name)
		childCols[key] = append(childCols[key], target{col: i, table: lc.Table.Name, column: c, path: p})
	}
	return rootCols, childCols
}

func (r *run) isChildKey(column string) bool {
	for _, c := range r.children {
		if c.Table.PrimaryKey() == column {
			return true
		}
	}
	return false
}

// keyColumn finds the batch column holding the root key, as a bare header or
// "Root.Key".
func (r *run) keyColumn(b *batch.Batch) (int, error) {
	pk := r.root.PrimaryKey()
	for i, h := range b.Headers {
		p := schema.ParseColumnPath(h, r.ws.Root)
		if schema.SameTable(p.Table, r.root.Name) && r.root.ColumnIndex(p.Column) == 0 {
			return i, nil
		}
	}
	return -1, &ValidationError{
		Operation: r.result.Operation,
		Table:     r.root.Name,
		Message:   fmt.Sprintf("missing key column %s (use %s or %s.%s)", pk, pk, r.root.Name, pk),
	}
}

// childKeyColumn finds the batch column holding a child's key, as
// "Child.Key" or a bare header equal to the child key name.
func childKeyColumn(b *batch.Batch, root string, child *table.Table) int {
	pk := child.PrimaryKey()
	bare := -1
	for i, h := range b.Headers {
		p := schema.ParseColumnPath(h, root)
		if p.Explicit && schema.SameTable(p.Table, child.Name) && child.ColumnIndex(p.Column) == 0 {
			return i
		}
		if !p.Explicit && p.Column == pk && bare < 0 {
			bare = i
		}
	}
	return bare
}
