package core

import (
	"errors"
	"fmt"
)

// ErrRootTableMissing is returned when the root table cannot be loaded.
// Nothing can run without it.
var ErrRootTableMissing = errors.New("root table missing")

// ValidationError reports a batch that cannot be applied at all, such as one
// lacking the root key column. It is raised before any table is written.
type ValidationError struct {
	Operation Operation
	Table     string
	Message   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Operation, e.Table, e.Message)
}
