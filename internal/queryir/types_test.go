package queryir

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/roach88/taskboard/internal/ir"
)

func TestSelect_WithDoesNotAlias(t *testing.T) {
	base := NewSelect("tasks").With(IsNull{Left: Field{Table: "tasks", Name: "assignee_id"}})
	// Force spare capacity so a naive append would share the backing array.
	base.Where = append(make([]Predicate, 0, 8), base.Where...)

	a := base.With(Compare{Left: Field{Name: "status"}, Op: OpEq, Value: ir.String("done")})
	b := base.With(Compare{Left: Field{Name: "status"}, Op: OpEq, Value: ir.String("todo")})

	assert.Len(t, base.Where, 1)
	assert.Len(t, a.Where, 2)
	assert.Len(t, b.Where, 2)
	assert.Equal(t, ir.String("done"), a.Where[1].(Compare).Value)
	assert.Equal(t, ir.String("todo"), b.Where[1].(Compare).Value)
}

func TestSelect_WithJoinDeduplicates(t *testing.T) {
	j := Join{Table: "field_values", Alias: "cf_3", ForeignKey: "task_id", ScopeColumn: "column_id", ScopeValue: ir.Number(3)}

	q := NewSelect("tasks").WithJoin(j).WithJoin(j)

	assert.Len(t, q.Joins, 1)
	assert.True(t, q.HasJoin("cf_3"))
	assert.False(t, q.HasJoin("cf_4"))
}

func TestSelect_UnchangedCopyIsEqual(t *testing.T) {
	q := NewSelect("tasks").With(Like{Left: Field{Name: "title"}, Pattern: "%bug%"})
	same := q

	if diff := cmp.Diff(q, same); diff != "" {
		t.Fatalf("unexpected diff (-want +got):\n%s", diff)
	}
}

func TestPredicates_AreSealed(t *testing.T) {
	preds := []Predicate{
		Compare{}, Like{}, In{}, IsNull{}, IsEmpty{}, And{}, Or{}, Not{},
		Exists{}, RelationCount{}, ArrayAny{}, ArrayLength{},
	}
	assert.Len(t, preds, 12)

	operands := []Operand{Field{}, JSONPath{}, Cast{}}
	assert.Len(t, operands, 3)
}
