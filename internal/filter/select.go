package filter

import (
	"context"
	"fmt"
	"slices"

	"github.com/roach88/taskboard/internal/ir"
	"github.com/roach88/taskboard/internal/queryir"
)

// MaxSelectValues caps in/not_in lists for select columns.
const MaxSelectValues = 50

var (
	selectOps      = concatOps(membershipOps, emptinessOps)
	multiSelectOps = concatOps(opSet{OpContains, OpNotContains}, emptinessOps)
)

// SelectFilter handles single-choice select columns.
//
// When the column declares Options.Choices every value must be one of them.
type SelectFilter struct {
	core
}

// NewSelectFilter creates a SelectFilter.
func NewSelectFilter(opts ...Option) *SelectFilter {
	f := &SelectFilter{}
	f.core = newCore(f, buildOptions(opts))
	return f
}

func (f *SelectFilter) name() string      { return "select" }
func (f *SelectFilter) operators() opSet { return selectOps }

func (f *SelectFilter) validateSpecific(_ context.Context, col ir.Column, v ir.Value, op Operator) error {
	values, err := memberValues(v, op, MaxSelectValues)
	if err != nil {
		return err
	}
	return checkChoices(col, values)
}

func (f *SelectFilter) applyFilter(q queryir.Select, col ir.Column, v ir.Value, op Operator) (queryir.Select, error) {
	return builderFor(q, col, buildOpts{empty: queryir.EmptyText}).apply(q, op, v)
}

// MultiSelectFilter handles multiselect columns, whose value is a JSON array
// of choices. contains matches any of the given choices, not_contains none.
type MultiSelectFilter struct {
	core
}

// NewMultiSelectFilter creates a MultiSelectFilter.
func NewMultiSelectFilter(opts ...Option) *MultiSelectFilter {
	f := &MultiSelectFilter{}
	f.core = newCore(f, buildOptions(opts))
	return f
}

func (f *MultiSelectFilter) name() string      { return "multiselect" }
func (f *MultiSelectFilter) operators() opSet { return multiSelectOps }

func (f *MultiSelectFilter) validateSpecific(_ context.Context, col ir.Column, v ir.Value, _ Operator) error {
	values, err := scalarList(v, MaxSelectValues, isChoiceValue, "a string or number")
	if err != nil {
		return err
	}
	return checkChoices(col, values)
}

func (f *MultiSelectFilter) applyFilter(q queryir.Select, col ir.Column, v ir.Value, op Operator) (queryir.Select, error) {
	b := arrayBuilderFor(q, col)
	switch op {
	case OpContains:
		return b.narrow(q, queryir.ArrayAny{Left: b.lhs, Values: listOf(v)}), nil
	case OpNotContains:
		return b.narrow(q, queryir.ArrayAny{Left: b.lhs, Values: listOf(v), Negate: true}), nil
	case OpIsEmpty:
		return b.narrow(q, queryir.ArrayLength{Left: b.lhs, Op: queryir.OpEq, N: 0}), nil
	case OpIsNotEmpty:
		return b.narrow(q, queryir.ArrayLength{Left: b.lhs, Op: queryir.OpGt, N: 0}), nil
	default:
		return q, fmt.Errorf("operator %q has no multiselect mapping", op)
	}
}

// arrayBuilderFor addresses a JSON array value: the whole native column, or
// $.value of the EAV row.
func arrayBuilderFor(q queryir.Select, col ir.Column) builder {
	if col.IsEAV() {
		return jsonBuilder(col, buildOpts{})
	}
	return builder{lhs: queryir.JSONPath{Table: q.From, Column: col.Field, Path: "$"}}
}

// memberValues validates the value shape shared by select-like filters:
// a scalar for equals/not_equals, a 1..limit list (or a scalar) for
// in/not_in.
func memberValues(v ir.Value, op Operator, limit int) ([]ir.Value, error) {
	if op == OpIn || op == OpNotIn {
		return scalarList(v, limit, isChoiceValue, "a string or number")
	}
	if !isChoiceValue(v) {
		return nil, fmt.Errorf("expected a string or number, got %s", ir.Format(v))
	}
	return []ir.Value{v}, nil
}

// scalarList accepts a scalar or an array of 1..limit elements, each
// accepted by ok.
func scalarList(v ir.Value, limit int, ok func(ir.Value) bool, want string) ([]ir.Value, error) {
	values := listOf(v)
	if len(values) == 0 {
		return nil, fmt.Errorf("list must not be empty")
	}
	if len(values) > limit {
		return nil, fmt.Errorf("list has %d values, maximum is %d", len(values), limit)
	}
	for i, elem := range values {
		if !ok(elem) {
			return nil, fmt.Errorf("value[%d]: expected %s, got %s", i, want, ir.Format(elem))
		}
	}
	return values, nil
}

func isChoiceValue(v ir.Value) bool {
	switch v.(type) {
	case ir.String, ir.Number:
		return true
	}
	return false
}

func checkChoices(col ir.Column, values []ir.Value) error {
	if len(col.Options.Choices) == 0 {
		return nil
	}
	for _, v := range values {
		label := choiceLabel(v)
		if !slices.Contains(col.Options.Choices, label) {
			return fmt.Errorf("%q is not an option of %s", label, col.Name)
		}
	}
	return nil
}

// choiceLabel renders a choice the way Options.Choices spells it.
func choiceLabel(v ir.Value) string {
	if s, ok := v.(ir.String); ok {
		return string(s)
	}
	data, err := ir.MarshalValue(v)
	if err != nil {
		return ir.Format(v)
	}
	return string(data)
}
