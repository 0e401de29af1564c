package filter

import (
	"context"
	"fmt"

	"github.com/roach88/taskboard/internal/ir"
	"github.com/roach88/taskboard/internal/queryir"
)

// MaxLabelValues caps the label ids in one filter.
const MaxLabelValues = 20

// Native label storage is a pivot table keyed by task id. A labels column's
// Field names the pivot table; LabelRelationTable is used when it is empty.
const (
	LabelRelationTable = "task_labels"
	LabelRelationTask  = "task_id"
	LabelRelationLabel = "label_id"
)

var labelOps = concatOps(opSet{OpContains, OpNotContains}, emptinessOps)

// LabelsFilter handles labels columns.
//
// Natively the predicate is a relationship check against the pivot table
// ("has any of", "has none of"); in EAV mode the value is a JSON array of
// label ids.
type LabelsFilter struct {
	core
	directory Directory
}

// NewLabelsFilter creates a LabelsFilter. Label ids are verified through the
// directory given by WithDirectory.
func NewLabelsFilter(opts ...Option) *LabelsFilter {
	o := buildOptions(opts)
	f := &LabelsFilter{directory: o.directory}
	f.core = newCore(f, o)
	return f
}

func (f *LabelsFilter) name() string      { return "labels" }
func (f *LabelsFilter) operators() opSet { return labelOps }

func (f *LabelsFilter) validateSpecific(ctx context.Context, _ ir.Column, v ir.Value, _ Operator) error {
	var exists existsFunc
	if f.directory != nil {
		exists = f.directory.LabelExists
	}
	_, err := referenceIDs(ctx, v, MaxLabelValues, "label", exists)
	return err
}

func (f *LabelsFilter) applyFilter(q queryir.Select, col ir.Column, v ir.Value, op Operator) (queryir.Select, error) {
	ids := listOf(normalizeIDs(v))

	if col.IsEAV() {
		b := jsonBuilder(col, buildOpts{})
		switch op {
		case OpContains:
			return b.narrow(q, queryir.ArrayAny{Left: b.lhs, Values: ids}), nil
		case OpNotContains:
			return b.narrow(q, queryir.ArrayAny{Left: b.lhs, Values: ids, Negate: true}), nil
		case OpIsEmpty:
			return b.narrow(q, queryir.ArrayLength{Left: b.lhs, Op: queryir.OpEq, N: 0}), nil
		case OpIsNotEmpty:
			return b.narrow(q, queryir.ArrayLength{Left: b.lhs, Op: queryir.OpGt, N: 0}), nil
		}
		return q, fmt.Errorf("operator %q has no labels mapping", op)
	}

	rel := labelRelation(col)
	switch op {
	case OpContains:
		return q.With(queryir.Exists{Relation: rel, Where: []queryir.Predicate{labelIn(rel, ids)}}), nil
	case OpNotContains:
		return q.With(queryir.Exists{Relation: rel, Where: []queryir.Predicate{labelIn(rel, ids)}, Negate: true}), nil
	case OpIsEmpty:
		return q.With(queryir.Exists{Relation: rel, Negate: true}), nil
	case OpIsNotEmpty:
		return q.With(queryir.Exists{Relation: rel}), nil
	}
	return q, fmt.Errorf("operator %q has no labels mapping", op)
}

// ApplyAll keeps tasks that carry every one of the given labels.
func (f *LabelsFilter) ApplyAll(ctx context.Context, q queryir.Select, col ir.Column, ids any) (queryir.Select, error) {
	return f.applyWith(ctx, q, col, ids, OpContains, func(q queryir.Select, col ir.Column, v ir.Value, _ Operator) (queryir.Select, error) {
		ids := listOf(normalizeIDs(v))
		preds := make([]queryir.Predicate, len(ids))
		if col.IsEAV() {
			b := jsonBuilder(col, buildOpts{})
			for i, id := range ids {
				preds[i] = queryir.ArrayAny{Left: b.lhs, Values: []ir.Value{id}}
			}
			return b.narrow(q, preds...), nil
		}
		rel := labelRelation(col)
		for i, id := range ids {
			preds[i] = queryir.Exists{Relation: rel, Where: []queryir.Predicate{labelIn(rel, []ir.Value{id})}}
		}
		return q.With(preds...), nil
	})
}

// ApplyCount keeps tasks whose number of labels compares to n with op.
func (f *LabelsFilter) ApplyCount(ctx context.Context, q queryir.Select, col ir.Column, op queryir.CompareOp, n int) (queryir.Select, error) {
	const countOp = Operator("count")
	check := func() (ir.Value, *ValidationError) {
		if !validCompareOp(op) {
			return nil, f.invalid(col, countOp, fmt.Sprintf("unknown comparison %q", op))
		}
		if n < 0 {
			return nil, f.invalid(col, countOp, fmt.Sprintf("count must not be negative, got %d", n))
		}
		return ir.Number(n), nil
	}
	build := func(q queryir.Select, col ir.Column, _ ir.Value, _ Operator) (queryir.Select, error) {
		if col.IsEAV() {
			b := jsonBuilder(col, buildOpts{})
			return b.narrow(q, queryir.ArrayLength{Left: b.lhs, Op: op, N: n}), nil
		}
		return q.With(queryir.RelationCount{Relation: labelRelation(col), Op: op, N: n}), nil
	}
	return f.applyChecked(ctx, q, col, n, countOp, check, build)
}

func labelRelation(col ir.Column) queryir.Relation {
	table := col.Field
	if table == "" {
		table = LabelRelationTable
	}
	return queryir.Relation{Table: table, ForeignKey: LabelRelationTask}
}

func labelIn(rel queryir.Relation, ids []ir.Value) queryir.Predicate {
	return queryir.In{Left: queryir.Field{Table: rel.Table, Name: LabelRelationLabel}, Values: ids}
}

func validCompareOp(op queryir.CompareOp) bool {
	switch op {
	case queryir.OpEq, queryir.OpNe, queryir.OpLt, queryir.OpLe, queryir.OpGt, queryir.OpGe:
		return true
	}
	return false
}
