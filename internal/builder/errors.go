package builder

import (
	"errors"
	"fmt"
)

// MisuseError reports a builder call made out of phase order or repeated
// when only one occurrence is allowed. The first misuse in a chain wins;
// later calls on a poisoned builder are no-ops.
type MisuseError struct {
	// Op is the builder method that was misused.
	Op string

	// Reason describes the violation.
	Reason string
}

// Error implements the error interface.
func (e *MisuseError) Error() string {
	return fmt.Sprintf("builder misuse: %s: %s", e.Op, e.Reason)
}

// IsMisuse reports whether the error chain contains a MisuseError.
func IsMisuse(err error) bool {
	var me *MisuseError
	return errors.As(err, &me)
}

func errMisuse(op, format string, args ...any) *MisuseError {
	return &MisuseError{Op: op, Reason: fmt.Sprintf(format, args...)}
}
