package core

import (
	"errors"
	"sort"

	"github.com/google/uuid"

	"github.com/JonMunkholm/devicebulk/internal/batch"
)

// WriteStatus is the outcome of one planned table write.
type WriteStatus string

const (
	WriteDone    WriteStatus = "written"
	WriteFailed  WriteStatus = "failed"
	WriteSkipped WriteStatus = "not_attempted"
)

// TableWrite reports one table in the write plan.
type TableWrite struct {
	Table  string      `json:"table"`
	Rows   int         `json:"rows"` // Row count of the table as written
	Status WriteStatus `json:"status"`
	Error  string      `json:"error,omitempty"`

	err error
}

// Result summarizes a batch.
type Result struct {
	BatchID   string         `json:"batchId"`
	Operation Operation      `json:"operation"`
	Source    string         `json:"source,omitempty"`
	Supplied  int            `json:"supplied"`  // Rows in the batch
	Applied   int            `json:"applied"`   // Root rows inserted, changed or removed
	Unchanged int            `json:"unchanged"` // Update rows whose cells already matched
	Skipped   int            `json:"skipped"`   // Rows not applied: blank, unknown or duplicate key
	ChildRows map[string]int `json:"childRows,omitempty"`
	Writes    []TableWrite   `json:"writes"`
	Warnings  []string       `json:"warnings,omitempty"`
}

func newResult(op Operation, b *batch.Batch) *Result {
	return &Result{
		BatchID:   uuid.NewString(),
		Operation: op,
		Source:    b.Source,
		Supplied:  b.Len(),
		ChildRows: make(map[string]int),
		Writes:    []TableWrite{},
	}
}

// Complete reports whether every planned write succeeded.
func (r *Result) Complete() bool {
	for _, w := range r.Writes {
		if w.Status != WriteDone {
			return false
		}
	}
	return true
}

// Err returns the write failure, if any.
func (r *Result) Err() error {
	var errs []error
	for _, w := range r.Writes {
		if w.err != nil {
			errs = append(errs, w.err)
		}
	}
	return errors.Join(errs...)
}

// WrittenTables returns the names of the tables durably replaced.
func (r *Result) WrittenTables() []string {
	var out []string
	for _, w := range r.Writes {
		if w.Status == WriteDone {
			out = append(out, w.Table)
		}
	}
	return out
}

// ChildTables returns the child tables with affected rows, sorted.
func (r *Result) ChildTables() []string {
	out := make([]string, 0, len(r.ChildRows))
	for name := range r.ChildRows {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
