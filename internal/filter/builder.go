package filter

import (
	"fmt"
	"strings"

	"github.com/roach88/taskboard/internal/ir"
	"github.com/roach88/taskboard/internal/queryir"
)

// EAV layout. field_values holds one row per (task, column) with the value
// serialized as {"value": <json>}.
const (
	EAVTable       = "field_values"
	EAVForeignKey  = "task_id"
	EAVScopeColumn = "column_id"
	EAVValueColumn = "value"
	EAVValuePath   = "$.value"
)

// buildOpts tunes the shared operator mapping for one type.
type buildOpts struct {
	nativeCast queryir.CastType // cast for comparisons on native columns ("" = none)
	jsonCast   queryir.CastType // cast for comparisons on JSON paths ("" = none)
	empty      queryir.EmptyMode
}

// builder maps operators onto predicates for one resolved column. The native
// and JSON-path builders differ only in lhs, cast and join.
type builder struct {
	lhs  queryir.Operand // uncast left-hand side
	cast queryir.CastType
	join *queryir.Join // EAV join required by lhs, nil for native columns
	opts buildOpts
}

// builderFor picks the native-column or JSON-path builder for col.
func builderFor(q queryir.Select, col ir.Column, opts buildOpts) builder {
	if col.IsEAV() {
		return jsonBuilder(col, opts)
	}
	return nativeBuilder(q, col, opts)
}

// nativeBuilder addresses <from>.<col.Field>.
func nativeBuilder(q queryir.Select, col ir.Column, opts buildOpts) builder {
	return builder{
		lhs:  queryir.Field{Table: q.From, Name: col.Field},
		cast: opts.nativeCast,
		opts: opts,
	}
}

// jsonBuilder addresses $.value inside the column's field_values row.
func jsonBuilder(col ir.Column, opts buildOpts) builder {
	join := eavJoin(col)
	return builder{
		lhs:  queryir.JSONPath{Table: join.Alias, Column: EAVValueColumn, Path: EAVValuePath},
		cast: opts.jsonCast,
		join: &join,
		opts: opts,
	}
}

// eavJoin is the LEFT JOIN that exposes col's field_values row.
func eavJoin(col ir.Column) queryir.Join {
	return queryir.Join{
		Table:       EAVTable,
		Alias:       fmt.Sprintf("cf_%d", col.ID),
		ForeignKey:  EAVForeignKey,
		ScopeColumn: EAVScopeColumn,
		ScopeValue:  ir.Number(col.ID),
	}
}

// compared is the operand used for ordering/equality comparisons.
func (b builder) compared() queryir.Operand {
	if b.cast == "" {
		return b.lhs
	}
	return queryir.Cast{Expr: b.lhs, To: b.cast}
}

// narrow adds preds (and the EAV join, if any) in one step.
func (b builder) narrow(q queryir.Select, preds ...queryir.Predicate) queryir.Select {
	if b.join != nil {
		q = q.WithJoin(*b.join)
	}
	return q.With(preds...)
}

// apply narrows q by (op, v).
func (b builder) apply(q queryir.Select, op Operator, v ir.Value) (queryir.Select, error) {
	pred, err := b.predicate(op, v)
	if err != nil {
		return q, err
	}
	return b.narrow(q, pred), nil
}

// predicate maps a generic operator onto a predicate.
//
// Negative operators (not_equals, not_contains, not_in) also match rows with
// no value, so "status is not done" includes tasks without a status in both
// storage modes.
func (b builder) predicate(op Operator, v ir.Value) (queryir.Predicate, error) {
	switch op {
	case OpEquals:
		return queryir.Compare{Left: b.compared(), Op: queryir.OpEq, Value: v}, nil
	case OpNotEquals:
		return b.orMissing(queryir.Compare{Left: b.compared(), Op: queryir.OpNe, Value: v}), nil
	case OpGreaterThan:
		return queryir.Compare{Left: b.compared(), Op: queryir.OpGt, Value: v}, nil
	case OpLessThan:
		return queryir.Compare{Left: b.compared(), Op: queryir.OpLt, Value: v}, nil
	case OpGreaterEqual:
		return queryir.Compare{Left: b.compared(), Op: queryir.OpGe, Value: v}, nil
	case OpLessEqual:
		return queryir.Compare{Left: b.compared(), Op: queryir.OpLe, Value: v}, nil
	case OpContains, OpNotContains, OpStartsWith, OpEndsWith:
		s, ok := v.(ir.String)
		if !ok {
			return nil, fmt.Errorf("operator %q requires a string, got %s", op, ir.Format(v))
		}
		return b.like(op, string(s)), nil
	case OpIn:
		return queryir.In{Left: b.compared(), Values: listOf(v)}, nil
	case OpNotIn:
		return b.orMissing(queryir.In{Left: b.compared(), Values: listOf(v), Negate: true}), nil
	case OpIsNull:
		return queryir.IsNull{Left: b.lhs}, nil
	case OpIsNotNull:
		return queryir.IsNull{Left: b.lhs, Negate: true}, nil
	case OpIsEmpty:
		return queryir.IsEmpty{Left: b.lhs, Mode: b.opts.empty}, nil
	case OpIsNotEmpty:
		return queryir.IsEmpty{Left: b.lhs, Mode: b.opts.empty, Negate: true}, nil
	default:
		return nil, fmt.Errorf("operator %q has no predicate mapping", op)
	}
}

func (b builder) like(op Operator, s string) queryir.Predicate {
	escaped := escapeLike(s)
	switch op {
	case OpStartsWith:
		return queryir.Like{Left: b.lhs, Pattern: escaped + "%"}
	case OpEndsWith:
		return queryir.Like{Left: b.lhs, Pattern: "%" + escaped}
	case OpNotContains:
		return b.orMissing(queryir.Like{Left: b.lhs, Pattern: "%" + escaped + "%", Negate: true})
	default:
		return queryir.Like{Left: b.lhs, Pattern: "%" + escaped + "%"}
	}
}

func (b builder) orMissing(p queryir.Predicate) queryir.Predicate {
	return queryir.Or{Predicates: []queryir.Predicate{queryir.IsNull{Left: b.lhs}, p}}
}

// rangePredicates builds an inclusive [from, to] range; nil bounds are open.
func (b builder) rangePredicates(from, to ir.Value) []queryir.Predicate {
	var preds []queryir.Predicate
	if !ir.IsNull(from) {
		preds = append(preds, queryir.Compare{Left: b.compared(), Op: queryir.OpGe, Value: from})
	}
	if !ir.IsNull(to) {
		preds = append(preds, queryir.Compare{Left: b.compared(), Op: queryir.OpLe, Value: to})
	}
	return preds
}

// escapeLike escapes LIKE metacharacters with a backslash.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// listOf returns the elements of an array value, or the value itself as a
// one-element list.
func listOf(v ir.Value) []ir.Value {
	if arr, ok := v.(ir.Array); ok {
		return []ir.Value(arr)
	}
	return []ir.Value{v}
}
