package queryir

import (
	"fmt"
	"regexp"
)

var (
	identPattern    = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	jsonPathPattern = regexp.MustCompile(`^\$(\.[A-Za-z_][A-Za-z0-9_]*)*$`)
)

// ValidationResult contains the structural problems found in a query.
//
// Identifiers and JSON paths are rendered into SQL text (values never are),
// so backends refuse to compile a query that is not Valid.
type ValidationResult struct {
	// Valid is true when Problems is empty.
	Valid bool

	// Problems lists each structural defect found.
	Problems []string
}

// Validate checks that a query is safe to compile:
//  1. Table, alias and column names are plain identifiers
//  2. JSON paths are "$" or simple dotted member paths
//  3. In and ArrayAny lists are non-empty
//  4. Operands and predicates are non-nil
//
// Validate is a pure function with no side effects.
func Validate(q Select) ValidationResult {
	v := &validator{}
	v.validateSelect(q)

	return ValidationResult{
		Valid:    len(v.problems) == 0,
		Problems: v.problems,
	}
}

// validator accumulates problems during traversal.
type validator struct {
	problems []string
}

func (v *validator) addProblem(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

func (v *validator) ident(what, name string) {
	if !identPattern.MatchString(name) {
		v.addProblem("invalid %s identifier %q", what, name)
	}
}

func (v *validator) validateSelect(q Select) {
	v.ident("table", q.From)

	for _, j := range q.Joins {
		v.ident("join table", j.Table)
		v.ident("join alias", j.Alias)
		v.ident("join foreign key", j.ForeignKey)
		v.ident("join scope column", j.ScopeColumn)
	}

	for _, p := range q.Where {
		v.validatePredicate(p)
	}
}

func (v *validator) validateOperand(o Operand) {
	switch op := o.(type) {
	case Field:
		if op.Table != "" {
			v.ident("table", op.Table)
		}
		v.ident("column", op.Name)
	case JSONPath:
		v.ident("table", op.Table)
		v.ident("column", op.Column)
		if !jsonPathPattern.MatchString(op.Path) {
			v.addProblem("invalid JSON path %q", op.Path)
		}
	case Cast:
		switch op.To {
		case CastNumber, CastDate, CastDateTime:
		default:
			v.addProblem("unknown cast %q", op.To)
		}
		v.validateOperand(op.Expr)
	case nil:
		v.addProblem("nil operand")
	default:
		v.addProblem("unknown operand type: %T", o)
	}
}

func (v *validator) validateCompareOp(op CompareOp) {
	switch op {
	case OpEq, OpNe, OpLt, OpLe, OpGt, OpGe:
	default:
		v.addProblem("unknown comparison operator %q", op)
	}
}

func (v *validator) validatePredicate(p Predicate) {
	switch pred := p.(type) {
	case Compare:
		v.validateOperand(pred.Left)
		v.validateCompareOp(pred.Op)
	case Like:
		v.validateOperand(pred.Left)
	case In:
		v.validateOperand(pred.Left)
		if len(pred.Values) == 0 {
			v.addProblem("empty IN list")
		}
	case IsNull:
		v.validateOperand(pred.Left)
	case IsEmpty:
		v.validateOperand(pred.Left)
	case And:
		for _, c := range pred.Predicates {
			v.validatePredicate(c)
		}
	case Or:
		for _, c := range pred.Predicates {
			v.validatePredicate(c)
		}
	case Not:
		v.validatePredicate(pred.Predicate)
	case Exists:
		v.ident("relation table", pred.Relation.Table)
		v.ident("relation foreign key", pred.Relation.ForeignKey)
		for _, c := range pred.Where {
			v.validatePredicate(c)
		}
	case RelationCount:
		v.ident("relation table", pred.Relation.Table)
		v.ident("relation foreign key", pred.Relation.ForeignKey)
		v.validateCompareOp(pred.Op)
	case ArrayAny:
		v.validateOperand(pred.Left)
		if len(pred.Values) == 0 {
			v.addProblem("empty array membership list")
		}
	case ArrayLength:
		v.validateOperand(pred.Left)
		v.validateCompareOp(pred.Op)
	case nil:
		v.addProblem("nil predicate")
	default:
		v.addProblem("unknown predicate type: %T", p)
	}
}
