package filter

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/taskboard/internal/ir"
	"github.com/roach88/taskboard/internal/queryir"
)

func TestTable_CoversEverySemanticType(t *testing.T) {
	table := NewTable()

	want := map[ir.SemanticType]any{
		ir.TypeText: &TextFilter{}, ir.TypeLongText: &TextFilter{}, ir.TypeEmail: &TextFilter{}, ir.TypeURL: &TextFilter{},
		ir.TypeNumber: &NumberFilter{},
		ir.TypeDate:   &DateFilter{}, ir.TypeDateTime: &DateFilter{},
		ir.TypeBoolean: &CheckboxFilter{}, ir.TypeCheckbox: &CheckboxFilter{},
		ir.TypeSelect: &SelectFilter{}, ir.TypeMultiSelect: &MultiSelectFilter{},
		ir.TypeStatus: &StatusFilter{}, ir.TypePriority: &PriorityFilter{},
		ir.TypeLabels: &LabelsFilter{},
		ir.TypeUser:   &AssigneeFilter{}, ir.TypeAssignee: &AssigneeFilter{},
	}
	require.Len(t, want, len(ir.SemanticTypes))

	for _, st := range ir.SemanticTypes {
		f, err := table.For(st)
		require.NoError(t, err, st)
		assert.IsType(t, want[st], f, st)
	}
}

func TestTable_UnknownTypeIsCallerError(t *testing.T) {
	table := NewTable()

	f, err := table.For("formula")
	assert.Nil(t, f)
	assert.True(t, errors.Is(err, ErrUnknownType))

	_, err = table.Operators("formula")
	assert.True(t, errors.Is(err, ErrUnknownType))
}

func TestTable_Operators(t *testing.T) {
	table := NewTable()

	ops, err := table.Operators(ir.TypeText)
	require.NoError(t, err)
	assert.Equal(t, []Operator{OpEquals, OpNotEquals, OpContains, OpNotContains, OpStartsWith, OpEndsWith, OpIsEmpty, OpIsNotEmpty}, ops)

	ops, err = table.Operators(ir.TypeCheckbox)
	require.NoError(t, err)
	assert.Equal(t, []Operator{OpEquals, OpNotEquals}, ops)

	ops, err = table.Operators(ir.TypeLabels)
	require.NoError(t, err)
	assert.Equal(t, []Operator{OpContains, OpNotContains, OpIsEmpty, OpIsNotEmpty}, ops)

	ops, err = table.Operators(ir.TypeDateTime)
	require.NoError(t, err)
	assert.Contains(t, ops, OpBetween)
	assert.Contains(t, ops, OpWithin)
}

func TestTable_ConcurrentUse(t *testing.T) {
	table := testTable()
	f := mustFilter(t, table, ir.TypeStatus)
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make([]queryir.Select, 32)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			q, err := f.Apply(ctx, queryir.NewSelect("tasks"), colStatus, "todo", OpEquals)
			if err == nil {
				results[i] = q
			}
		}(i)
	}
	wg.Wait()

	for _, q := range results {
		assert.Equal(t, results[0], q)
		assert.Len(t, q.Where, 1)
	}
}

func TestMemoDirectory_CachesHitsNotErrors(t *testing.T) {
	ctx := context.Background()
	inner := newFakeDirectory()
	memo := NewMemoDirectory(inner)

	for i := 0; i < 3; i++ {
		ok, err := memo.UserExists(ctx, 1)
		require.NoError(t, err)
		assert.True(t, ok)
		ok, err = memo.LabelExists(ctx, 99)
		require.NoError(t, err)
		assert.False(t, ok)
	}
	assert.Equal(t, 2, inner.calls)

	ids, err := memo.UsersWithRole(ctx, "engineer")
	require.NoError(t, err)
	ids[0] = 42 // callers may not corrupt the cache
	ids, err = memo.UsersWithRole(ctx, "engineer")
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, ids)
	assert.Equal(t, 3, inner.calls)

	inner.err = errDirectoryDown
	_, err = memo.UserExists(ctx, 2)
	assert.Error(t, err)
	inner.err = nil
	ok, err := memo.UserExists(ctx, 2)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 5, inner.calls)
}

func TestMemoDirectory_SharedAcrossFilters(t *testing.T) {
	ctx := context.Background()
	inner := newFakeDirectory()
	table := NewTable(WithLogger(discardLogger()), WithDirectory(NewMemoDirectory(inner)))

	f := mustFilter(t, table, ir.TypeAssignee)
	for i := 0; i < 5; i++ {
		assert.True(t, f.Validate(ctx, colOwner, []any{1, 2}, OpIn))
	}
	assert.Equal(t, 2, inner.calls)
}
