package filter

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes why a triple was rejected.
type ErrorCode string

const (
	// CodeUnsupportedOperator: operator is outside the type's vocabulary.
	CodeUnsupportedOperator ErrorCode = "UNSUPPORTED_OPERATOR"

	// CodeInvalidValue: wrong primitive type, out of bounds, malformed date,
	// unknown referenced entity or oversized list.
	CodeInvalidValue ErrorCode = "INVALID_VALUE"
)

// ErrUnknownType is returned by Table.For for a semantic type with no filter.
// Callers must resolve columns before dispatch; this is a programming error.
var ErrUnknownType = errors.New("unknown semantic type")

// ValidationError describes a rejected triple. Apply returns it alongside the
// unmodified query so callers can surface the problem to the end user.
type ValidationError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Filter is the filter family that rejected the triple (e.g. "priority").
	Filter string

	// Column is the column name the triple referenced.
	Column string

	// Operator is the operator as supplied.
	Operator Operator

	// Message is a human-readable description.
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%s: %s filter on %q: %s", e.Code, e.Filter, e.Column, e.Message)
	}
	return fmt.Sprintf("%s: %s filter: %s", e.Code, e.Filter, e.Message)
}

// AsValidationError extracts a *ValidationError from err.
// Uses errors.As to handle wrapped errors.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// IsUnsupportedOperator returns true if err rejects the operator itself.
func IsUnsupportedOperator(err error) bool {
	ve, ok := AsValidationError(err)
	return ok && ve.Code == CodeUnsupportedOperator
}

// IsInvalidValue returns true if err rejects the value.
func IsInvalidValue(err error) bool {
	ve, ok := AsValidationError(err)
	return ok && ve.Code == CodeInvalidValue
}
