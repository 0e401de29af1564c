package board

import (
	"errors"
	"fmt"

	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// Load error codes (E001-E099).
const (
	ErrCodeGeneric           = "E001" // Generic/unknown error
	ErrCodeNotFound          = "E002" // File not found or unreadable
	ErrCodeUnsupportedFormat = "E003" // Unknown file extension
	ErrCodeParseFailed       = "E004" // YAML/JSON/CUE syntax error
	ErrCodeSchemaMismatch    = "E005" // CUE schema unification failed
)

// Validation error codes (E100-E199).
const (
	ErrInvalidColumnID     = "E101" // id must be positive
	ErrDuplicateColumnID   = "E102" // id used twice
	ErrColumnNameEmpty     = "E103" // name is required
	ErrDuplicateColumnName = "E104" // name used twice
	ErrUnknownType         = "E105" // type is not a known semantic type
	ErrInvalidStorage      = "E106" // storage is not native or eav
	ErrNativeFieldMissing  = "E107" // native column without field
	ErrEAVFieldForbidden   = "E108" // eav column with field
	ErrUnknownNativeField  = "E109" // field is not a tasks column
	ErrChoicesNotAllowed   = "E110" // choices on a non-select column

	ErrFilterNameEmpty     = "E120" // saved filter without a name
	ErrDuplicateFilterName = "E121" // saved filter name used twice
	ErrUnknownColumnRef    = "E122" // triple names no column
	ErrOperatorEmpty       = "E123" // triple without operator
)

// LoadError reports a failure to read or decode a board file.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ValidationError is one semantic problem in a decoded board.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// InvalidBoardError wraps every validation problem found in a board.
type InvalidBoardError struct {
	Path   string
	Errors []ValidationError
}

func (e *InvalidBoardError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("%s: %s", e.Path, e.Errors[0].Error())
	}
	return fmt.Sprintf("%s: %d validation errors, first: %s", e.Path, len(e.Errors), e.Errors[0].Error())
}

// AsInvalidBoard extracts an *InvalidBoardError from err.
func AsInvalidBoard(err error) (*InvalidBoardError, bool) {
	var ib *InvalidBoardError
	if errors.As(err, &ib) {
		return ib, true
	}
	return nil, false
}

// formatCUEError extracts position info from CUE errors. It reports the
// first error positioned in file, falling back to any positioned error and
// then to the first error.
func formatCUEError(code, file string, err error) error {
	if err == nil {
		return nil
	}

	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &LoadError{Code: code, Message: err.Error()}
	}

	var fallback *LoadError
	for _, e := range errs {
		for _, pos := range cueerrors.Positions(e) {
			if !pos.IsValid() {
				continue
			}
			if pos.Filename() == file {
				return &LoadError{Code: code, Message: e.Error(), Pos: pos}
			}
			if fallback == nil {
				fallback = &LoadError{Code: code, Message: e.Error(), Pos: pos}
			}
		}
	}
	if fallback != nil {
		return fallback
	}
	return &LoadError{Code: code, Message: errs[0].Error()}
}
