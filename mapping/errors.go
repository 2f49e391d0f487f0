package mapping

import (
	"fmt"
	"strings"
)

// SchemaError indicates an invalid mapping definition: an unknown or malformed
// property, a null where a value is required, or an unresolvable analyzer or
// similarity reference. It is fatal to the single mapping update that carried
// the definition, never to the process.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type SchemaError struct {
	Field    string
	Property string
	Reason   string
	cause    error
}

func (e *SchemaError) Error() string {
	msg := fmt.Sprintf("mapping definition for [%s]", e.Field)
	if e.Property != "" {
		msg += fmt.Sprintf(" property [%s]", e.Property)
	}
	msg += ": " + e.Reason
	if e.cause != nil {
		msg += ": " + e.cause.Error()
	}
	return msg
}

func (e *SchemaError) Unwrap() error { return e.cause }

// ParseError indicates a document value could not be coerced to the declared
// field type. It carries the fully-qualified field name and wraps the cause.
// Failure is scoped to the one document being parsed.
type ParseError struct {
	Field string
	cause error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse [%s]: %v", e.Field, e.cause)
}

func (e *ParseError) Unwrap() error { return e.cause }

func newParseError(field string, cause error) *ParseError {
	return &ParseError{Field: field, cause: cause}
}

// ConflictError aggregates every conflict found by a merge. It is only
// returned once the complete merge walk finished, so the list is exhaustive.
type ConflictError struct {
	Conflicts []string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("merge failed with %d conflicts: [%s]",
		len(e.Conflicts), strings.Join(e.Conflicts, "; "))
}
