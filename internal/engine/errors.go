package engine

import (
	"errors"
	"fmt"
)

// RuntimeError represents an error that aborted an evaluation.
//
// Rejected triples are not runtime errors: they are reported in
// Plan.Dropped and the evaluation continues without them.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// Column is the column reference involved, if any.
	Column string

	// Err is the underlying error, if any.
	Err error
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeUnknownColumn indicates a column reference resolves to no column.
	ErrCodeUnknownColumn RuntimeErrorCode = "UNKNOWN_COLUMN"

	// ErrCodeUnknownType indicates a column whose type has no filter.
	ErrCodeUnknownType RuntimeErrorCode = "UNKNOWN_TYPE"

	// ErrCodeTooManyTriples indicates a request over the triple quota.
	ErrCodeTooManyTriples RuntimeErrorCode = "TOO_MANY_TRIPLES"

	// ErrCodeCompileFailed indicates the query could not be compiled to SQL.
	ErrCodeCompileFailed RuntimeErrorCode = "COMPILE_FAILED"

	// ErrCodeQueryFailed indicates the compiled query failed to execute.
	ErrCodeQueryFailed RuntimeErrorCode = "QUERY_FAILED"

	// ErrCodeSavedFilterNotFound indicates an unknown saved filter id.
	ErrCodeSavedFilterNotFound RuntimeErrorCode = "SAVED_FILTER_NOT_FOUND"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Column != "" {
		msg = fmt.Sprintf("%s (column=%q)", msg, e.Column)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// AsRuntimeError extracts a *RuntimeError from err.
// Uses errors.As to handle wrapped errors.
func AsRuntimeError(err error) (*RuntimeError, bool) {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}

// HasCode returns true if err is a RuntimeError with the given code.
func HasCode(err error, code RuntimeErrorCode) bool {
	re, ok := AsRuntimeError(err)
	return ok && re.Code == code
}

// NewUnknownColumnError creates a RuntimeError for an unresolvable reference.
func NewUnknownColumnError(ref, boardName string) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeUnknownColumn,
		Message: fmt.Sprintf("board %q has no such column", boardName),
		Column:  ref,
	}
}

// NewQuotaError creates a RuntimeError for a request over the triple quota.
func NewQuotaError(triples, maxTriples int) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeTooManyTriples,
		Message: fmt.Sprintf("request has %d triples, limit is %d", triples, maxTriples),
	}
}
