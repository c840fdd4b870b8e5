package querysql

import (
	"errors"
	"fmt"
)

// CompileError represents a validation failure detected while compiling a
// query description. Compile errors are programming or configuration
// errors, never transient faults: they are reported synchronously, are
// not retried, and no partial SQL is ever returned alongside one.
type CompileError struct {
	// Code identifies the error category.
	Code CompileErrorCode

	// Message is a human-readable description.
	Message string

	// Alias is the offending table alias, if any.
	Alias string

	// Table is the offending table name, if any.
	Table string

	// Column is the offending column reference, if any.
	Column string
}

// CompileErrorCode categorizes compile errors.
type CompileErrorCode string

const (
	// ErrCodeUnknownAlias indicates an alias not present in the registry
	// or not part of the query being compiled.
	ErrCodeUnknownAlias CompileErrorCode = "UNKNOWN_ALIAS"

	// ErrCodeAliasTableMismatch indicates the alias resolved but the
	// supplied table name does not match the registry's binding.
	ErrCodeAliasTableMismatch CompileErrorCode = "ALIAS_TABLE_MISMATCH"

	// ErrCodeUnknownColumn indicates a qualified column outside the
	// alias's allow-list.
	ErrCodeUnknownColumn CompileErrorCode = "UNKNOWN_COLUMN"

	// ErrCodeAmbiguousColumn indicates a bare column name in a query
	// that contains joins.
	ErrCodeAmbiguousColumn CompileErrorCode = "AMBIGUOUS_UNQUALIFIED_COLUMN"

	// ErrCodeMissingClause indicates SELECT or FROM (or a join's ON) was
	// absent at compile time.
	ErrCodeMissingClause CompileErrorCode = "MISSING_REQUIRED_CLAUSE"

	// ErrCodeAnonymousJoin indicates a join clause without an alias.
	// Anonymous joins cannot be whitelisted.
	ErrCodeAnonymousJoin CompileErrorCode = "ANONYMOUS_JOIN"

	// ErrCodeUnsupportedNode indicates a condition tree node that does
	// not match any known tagged variant, or a structurally malformed
	// leaf (a grammar violation, not a user error).
	ErrCodeUnsupportedNode CompileErrorCode = "UNSUPPORTED_CONDITION_NODE"

	// ErrCodeUnknownTemplate indicates the named join template is not
	// registered.
	ErrCodeUnknownTemplate CompileErrorCode = "UNKNOWN_TEMPLATE"
)

// Error implements the error interface.
func (e *CompileError) Error() string {
	switch {
	case e.Alias != "" && e.Column != "":
		return fmt.Sprintf("%s: %s (alias=%s, column=%s)", e.Code, e.Message, e.Alias, e.Column)
	case e.Alias != "" && e.Table != "":
		return fmt.Sprintf("%s: %s (alias=%s, table=%s)", e.Code, e.Message, e.Alias, e.Table)
	case e.Alias != "":
		return fmt.Sprintf("%s: %s (alias=%s)", e.Code, e.Message, e.Alias)
	case e.Column != "":
		return fmt.Sprintf("%s: %s (column=%s)", e.Code, e.Message, e.Column)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

// CodeOf extracts the compile error code from an error.
// Returns an empty code if the error is not a CompileError.
// Uses errors.As to handle wrapped errors.
func CodeOf(err error) CompileErrorCode {
	var ce *CompileError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}

// IsCompileError reports whether the error chain contains a CompileError
// with the given code.
func IsCompileError(err error, code CompileErrorCode) bool {
	return CodeOf(err) == code
}

func errUnknownAlias(alias string) *CompileError {
	return &CompileError{
		Code:    ErrCodeUnknownAlias,
		Message: "alias is not registered for this query",
		Alias:   alias,
	}
}

func errAliasTableMismatch(alias, supplied, registered string) *CompileError {
	return &CompileError{
		Code:    ErrCodeAliasTableMismatch,
		Message: fmt.Sprintf("alias is bound to table %q, not %q", registered, supplied),
		Alias:   alias,
		Table:   supplied,
	}
}

func errUnknownColumn(alias, column string) *CompileError {
	return &CompileError{
		Code:    ErrCodeUnknownColumn,
		Message: "column is not in the alias allow-list",
		Alias:   alias,
		Column:  column,
	}
}

func errAmbiguousColumn(column string) *CompileError {
	return &CompileError{
		Code:    ErrCodeAmbiguousColumn,
		Message: "unqualified column is ambiguous in a query with joins",
		Column:  column,
	}
}

func errMissingClause(clause string) *CompileError {
	return &CompileError{
		Code:    ErrCodeMissingClause,
		Message: fmt.Sprintf("required clause %s is missing", clause),
	}
}

func errAnonymousJoin(table string) *CompileError {
	return &CompileError{
		Code:    ErrCodeAnonymousJoin,
		Message: "join has no alias and cannot be whitelisted",
		Table:   table,
	}
}

func errUnsupportedNode(detail string) *CompileError {
	return &CompileError{
		Code:    ErrCodeUnsupportedNode,
		Message: detail,
	}
}

func errUnknownTemplate(name string) *CompileError {
	return &CompileError{
		Code:    ErrCodeUnknownTemplate,
		Message: fmt.Sprintf("join template %q is not registered", name),
	}
}
