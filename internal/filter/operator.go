package filter

import (
	"slices"
	"strings"
)

// Operator is a filter operator as it appears in a triple.
type Operator string

const (
	OpEquals       Operator = "equals"
	OpNotEquals    Operator = "not_equals"
	OpContains     Operator = "contains"
	OpNotContains  Operator = "not_contains"
	OpStartsWith   Operator = "starts_with"
	OpEndsWith     Operator = "ends_with"
	OpGreaterThan  Operator = "greater_than"
	OpLessThan     Operator = "less_than"
	OpGreaterEqual Operator = "greater_equal"
	OpLessEqual    Operator = "less_equal"
	OpIn           Operator = "in"
	OpNotIn        Operator = "not_in"
	OpIsNull       Operator = "is_null"
	OpIsNotNull    Operator = "is_not_null"
	OpIsEmpty      Operator = "is_empty"
	OpIsNotEmpty   Operator = "is_not_empty"

	// Date-only range operators.
	OpBetween Operator = "between" // value: [from, to]
	OpWithin  Operator = "within"  // value: relative range name
)

// nullTolerant reports whether an operator takes no value.
func nullTolerant(op Operator) bool {
	switch op {
	case OpIsNull, OpIsNotNull, OpIsEmpty, OpIsNotEmpty:
		return true
	}
	return false
}

// opSet is a closed operator vocabulary, kept in declaration order.
type opSet []Operator

func (s opSet) has(op Operator) bool {
	return slices.Contains(s, op)
}

func (s opSet) String() string {
	names := make([]string, len(s))
	for i, op := range s {
		names[i] = string(op)
	}
	return strings.Join(names, ", ")
}

var (
	comparisonOps = opSet{OpEquals, OpNotEquals, OpGreaterThan, OpLessThan, OpGreaterEqual, OpLessEqual}
	emptinessOps  = opSet{OpIsEmpty, OpIsNotEmpty}
	membershipOps = opSet{OpEquals, OpNotEquals, OpIn, OpNotIn}
)

func concatOps(sets ...opSet) opSet {
	var out opSet
	for _, s := range sets {
		out = append(out, s...)
	}
	return out
}
