package board

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/taskboard/internal/ir"
	"github.com/roach88/taskboard/internal/store"
)

// Validate checks a decoded board. Returns all errors found (does not
// fail-fast).
func Validate(b *Board) []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateColumns(b.Columns)...)
	errs = append(errs, validateFilterSets(b)...)
	return errs
}

func validateColumns(cols []ir.Column) []ValidationError {
	var errs []ValidationError
	ids := make(map[int64]int, len(cols))
	names := make(map[string]int, len(cols))

	for i, col := range cols {
		field := fmt.Sprintf("columns[%d]", i)

		if col.ID <= 0 {
			errs = append(errs, ValidationError{
				Field:   field + ".id",
				Message: fmt.Sprintf("id must be positive, got %d", col.ID),
				Code:    ErrInvalidColumnID,
			})
		} else if prev, dup := ids[col.ID]; dup {
			errs = append(errs, ValidationError{
				Field:   field + ".id",
				Message: fmt.Sprintf("id %d already used by columns[%d]", col.ID, prev),
				Code:    ErrDuplicateColumnID,
			})
		} else {
			ids[col.ID] = i
		}

		name := strings.TrimSpace(col.Name)
		if name == "" {
			errs = append(errs, ValidationError{
				Field:   field + ".name",
				Message: "name is required and must be non-empty",
				Code:    ErrColumnNameEmpty,
			})
		} else if prev, dup := names[name]; dup {
			errs = append(errs, ValidationError{
				Field:   field + ".name",
				Message: fmt.Sprintf("name %q already used by columns[%d]", name, prev),
				Code:    ErrDuplicateColumnName,
			})
		} else {
			names[name] = i
		}

		if _, ok := ir.KindOf(col.Type); !ok {
			errs = append(errs, ValidationError{
				Field:   field + ".type",
				Message: fmt.Sprintf("unknown type %q", col.Type),
				Code:    ErrUnknownType,
			})
		}

		errs = append(errs, validateStorage(field, col)...)

		if len(col.Options.Choices) > 0 && col.Type != ir.TypeSelect && col.Type != ir.TypeMultiSelect {
			errs = append(errs, ValidationError{
				Field:   field + ".options.choices",
				Message: fmt.Sprintf("choices are only allowed on select and multiselect columns, not %s", col.Type),
				Code:    ErrChoicesNotAllowed,
			})
		}
	}
	return errs
}

func validateStorage(field string, col ir.Column) []ValidationError {
	switch col.Storage {
	case ir.StorageEAV:
		if col.Field != "" {
			return []ValidationError{{
				Field:   field + ".field",
				Message: "eav columns are stored in field_values and must not name a field",
				Code:    ErrEAVFieldForbidden,
			}}
		}
	case ir.StorageNative:
		switch {
		case col.Field == "":
			if col.Type == ir.TypeLabels {
				return nil // defaults to the task_labels relation
			}
			return []ValidationError{{
				Field:   field + ".field",
				Message: "native columns must name a tasks column",
				Code:    ErrNativeFieldMissing,
			}}
		case col.Type == ir.TypeLabels:
			// Native labels name a relation table, not a tasks column.
		case !slices.Contains(store.NativeColumns, col.Field):
			return []ValidationError{{
				Field:   field + ".field",
				Message: fmt.Sprintf("unknown tasks column %q (want one of %s)", col.Field, strings.Join(store.NativeColumns, ", ")),
				Code:    ErrUnknownNativeField,
			}}
		}
	default:
		return []ValidationError{{
			Field:   field + ".storage",
			Message: fmt.Sprintf("storage must be %q or %q, got %q", ir.StorageNative, ir.StorageEAV, col.Storage),
			Code:    ErrInvalidStorage,
		}}
	}
	return nil
}

func validateFilterSets(b *Board) []ValidationError {
	var errs []ValidationError
	seen := make(map[string]bool, len(b.Filters))

	for i, fs := range b.Filters {
		field := fmt.Sprintf("filters[%d]", i)
		switch {
		case strings.TrimSpace(fs.Name) == "":
			errs = append(errs, ValidationError{
				Field:   field + ".name",
				Message: "saved filter name is required",
				Code:    ErrFilterNameEmpty,
			})
		case seen[fs.Name]:
			errs = append(errs, ValidationError{
				Field:   field + ".name",
				Message: fmt.Sprintf("saved filter %q defined twice", fs.Name),
				Code:    ErrDuplicateFilterName,
			})
		default:
			seen[fs.Name] = true
		}
		errs = append(errs, validateTriples(b, field+".where", fs.Where)...)
	}
	return errs
}

// ValidateTriples checks that every triple names a column on the board and
// carries an operator. Operator and value legality are checked by the
// filters at evaluation time.
func ValidateTriples(b *Board, triples []ir.Triple) []ValidationError {
	return validateTriples(b, "where", triples)
}

func validateTriples(b *Board, prefix string, triples []ir.Triple) []ValidationError {
	var errs []ValidationError
	for i, t := range triples {
		field := fmt.Sprintf("%s[%d]", prefix, i)
		if _, ok := b.Resolve(t.Column); !ok {
			errs = append(errs, ValidationError{
				Field:   field + ".column_reference",
				Message: fmt.Sprintf("no column %q on board %q", t.Column, b.Name),
				Code:    ErrUnknownColumnRef,
			})
		}
		if strings.TrimSpace(t.Operator) == "" {
			errs = append(errs, ValidationError{
				Field:   field + ".operator",
				Message: "operator is required",
				Code:    ErrOperatorEmpty,
			})
		}
	}
	return errs
}
