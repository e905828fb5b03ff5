package schema

import (
	"errors"
	"fmt"
)

// Structural operation errors.
var (
	// ErrNotFound indicates the target table or column does not exist.
	ErrNotFound = errors.New("schema target not found")
	// ErrConflict indicates a concurrent structural change raced this one.
	// Callers may retry; the losing creator must not corrupt the table.
	ErrConflict = errors.New("concurrent schema change conflict")
	// ErrUnknownFieldType indicates a field type outside the supported taxonomy.
	ErrUnknownFieldType = errors.New("unknown field type")
	// ErrMissingChoices indicates a choice field without a choice list.
	ErrMissingChoices = errors.New("choice field requires a non-empty choice list")
	// ErrMissingTarget indicates a relationship field without a target entity.
	ErrMissingTarget = errors.New("relationship field requires a target entity")
)

// OperationError wraps an engine-level DDL failure with its structural context.
type OperationError struct {
	Op     string // Operation name (create-table, add-column...).
	Table  string // Target table.
	Column string // Target column, empty for table-level operations.
	Err    error  // Underlying engine error.
}

// Error implements the error interface.
func (e *OperationError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("schema: %s %s.%s: %v", e.Op, e.Table, e.Column, e.Err)
	}
	return fmt.Sprintf("schema: %s %s: %v", e.Op, e.Table, e.Err)
}

// Unwrap exposes the underlying engine error.
func (e *OperationError) Unwrap() error { return e.Err }
