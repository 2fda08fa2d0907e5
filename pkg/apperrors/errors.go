// Package apperrors defines the classified errors surfaced by the
// query engine. Every failure a caller can observe carries one of the
// kinds below; messages are safe to display (no credentials, no stack
// traces).
package apperrors

import (
	"errors"
	"fmt"
)

// Kind classifies an engine error. The string value doubles as the
// wire-level error code.
type Kind string

const (
	// KindSyntax means the SQL could not be parsed.
	KindSyntax Kind = "SYNTAX_ERROR"
	// KindNotReadOnly means the statement is not a plain SELECT, or the
	// input contained more than one statement.
	KindNotReadOnly Kind = "NOT_READ_ONLY"
	// KindConnection means the target database could not be reached or
	// a pool could not be established within the connect timeout.
	KindConnection Kind = "CONNECTION_ERROR"
	// KindExecutionTimeout means the query exceeded the execution
	// timeout and was cancelled.
	KindExecutionTimeout Kind = "EXECUTION_TIMEOUT"
	// KindExecution means the target database rejected the query at
	// runtime; the database's message is preserved verbatim.
	KindExecution Kind = "EXECUTION_ERROR"
	// KindGeneration means the generation service was unreachable or
	// returned nothing a SQL statement could be extracted from.
	KindGeneration Kind = "GENERATION_ERROR"
	// KindNotFound means the named connection is not registered.
	KindNotFound Kind = "NOT_FOUND"
	// KindValidation means a request was malformed (bad name, bad URL,
	// empty body).
	KindValidation Kind = "VALIDATION_ERROR"
	// KindInternal is the fallback for unexpected engine failures.
	KindInternal Kind = "INTERNAL_ERROR"
)

// Error is a classified engine error. Details carries structured
// context for the caller (for example the generated SQL text when a
// natural-language request fails after generation).
type Error struct {
	Kind    Kind
	Message string
	Details map[string]any
	cause   error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// WithDetail returns e with an extra detail attached. The receiver is
// modified and returned for chaining.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any, 1)
	}
	e.Details[key] = value
	return e
}

// New creates a classified error.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a classified error that preserves cause for errors.Is /
// errors.As while presenting its own message.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), cause: cause}
}

// KindOf extracts the classification from err, unwrapping as needed.
// Unclassified errors report KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// DetailsOf returns the structured details attached to err, or nil.
func DetailsOf(err error) map[string]any {
	var e *Error
	if errors.As(err, &e) {
		return e.Details
	}
	return nil
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
