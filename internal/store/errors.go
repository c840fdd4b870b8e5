package store

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// StatementError wraps a database error with the statement ID and the
// SQL text that failed. Parameter values are deliberately not included.
type StatementError struct {
	// StatementID correlates the error with the debug log entry.
	StatementID uuid.UUID

	// SQL is the statement text. It contains placeholders only, never
	// values, so it is safe to log.
	SQL string

	// Err is the underlying driver error.
	Err error
}

// Error implements the error interface.
func (e *StatementError) Error() string {
	return fmt.Sprintf("statement %s failed: %v", e.StatementID, e.Err)
}

// Unwrap returns the underlying driver error.
func (e *StatementError) Unwrap() error {
	return e.Err
}

// StatementIDOf extracts the statement ID from an error chain.
func StatementIDOf(err error) (uuid.UUID, bool) {
	var se *StatementError
	if errors.As(err, &se) {
		return se.StatementID, true
	}
	return uuid.Nil, false
}
