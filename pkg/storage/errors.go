package storage

import "fmt"

// ConstraintError is spec.md §7's NOT NULL/CHECK/UNIQUE/index-duplicate
// violation error.
type ConstraintError struct {
	Message string
}

func (e *ConstraintError) Error() string { return e.Message }

func newConstraintError(format string, args ...interface{}) *ConstraintError {
	return &ConstraintError{Message: fmt.Sprintf(format, args...)}
}

// TransactionConflictError is raised when another transaction already
// holds an uncommitted version for a targeted row (spec.md §4.6/§4.7).
type TransactionConflictError struct {
	RowID RowID
}

func (e *TransactionConflictError) Error() string {
	return fmt.Sprintf("storage: transaction conflict on row %d", e.RowID)
}

// CatalogError is raised on a column-count mismatch at Append (spec.md
// §7).
type CatalogError struct {
	Message string
}

func (e *CatalogError) Error() string { return e.Message }

func newCatalogError(format string, args ...interface{}) *CatalogError {
	return &CatalogError{Message: fmt.Sprintf(format, args...)}
}

// NotImplementedError marks a documented gap: FOREIGN KEY on Append,
// multi-column UNIQUE, partial CHECK-referenced columns in Update
// (spec.md §7).
type NotImplementedError struct {
	Message string
}

func (e *NotImplementedError) Error() string { return e.Message }

func newNotImplementedError(format string, args ...interface{}) *NotImplementedError {
	return &NotImplementedError{Message: fmt.Sprintf(format, args...)}
}

// InternalError marks an assertion failure: a programmer bug, not a
// user-facing condition (spec.md §7).
type InternalError struct {
	Message string
}

func (e *InternalError) Error() string { return e.Message }

func newInternalError(format string, args ...interface{}) *InternalError {
	return &InternalError{Message: fmt.Sprintf(format, args...)}
}
