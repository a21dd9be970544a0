package table

import (
	"errors"
	"fmt"
)

// ErrTableNotFound is returned when no file in the data directory serves a table name.
var ErrTableNotFound = errors.New("table not found")

// IoError reports a table that could not be loaded. It is not fatal: the table
// is left out of the working set and relations pointing at it go inert.
type IoError struct {
	Table string
	Path  string
	Err   error
}

func (e *IoError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("load table %s: %v", e.Table, e.Err)
	}
	return fmt.Sprintf("load table %s (%s): %v", e.Table, e.Path, e.Err)
}

func (e *IoError) Unwrap() error { return e.Err }

// WriteError reports a failed durable replace of one table.
type WriteError struct {
	Table string
	Path  string
	Err   error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write failed for table %s: %v", e.Table, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }
