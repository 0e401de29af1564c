package engine_test

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/taskboard/internal/board"
	"github.com/roach88/taskboard/internal/engine"
	"github.com/roach88/taskboard/internal/filter"
	"github.com/roach88/taskboard/internal/ir"
	"github.com/roach88/taskboard/internal/store"
	"github.com/roach88/taskboard/internal/testutil"
)

func testBoard() *board.Board {
	return &board.Board{
		Name: "sprint",
		Columns: []ir.Column{
			{ID: 1, Name: "Title", Type: ir.TypeText, Storage: ir.StorageNative, Field: "title"},
			{ID: 2, Name: "Status", Type: ir.TypeStatus, Storage: ir.StorageNative, Field: "status"},
			{ID: 3, Name: "Owner", Type: ir.TypeAssignee, Storage: ir.StorageNative, Field: "assignee_id"},
			{ID: 4, Name: "Labels", Type: ir.TypeLabels, Storage: ir.StorageNative},
			{ID: 7, Name: "Notes", Type: ir.TypeLongText, Storage: ir.StorageEAV},
		},
	}
}

func seedStore(t *testing.T) *store.Store {
	t.Helper()
	ctx := context.Background()

	s, err := store.Open(filepath.Join(t.TempDir(), "engine.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	require.NoError(t, s.CreateUser(ctx, 1, "ana", "engineer"))
	require.NoError(t, s.CreateUser(ctx, 2, "bo", "designer"))
	require.NoError(t, s.CreateLabel(ctx, 1, "bug"))
	require.NoError(t, s.CreateLabel(ctx, 2, "docs"))
	require.NoError(t, s.SaveColumns(ctx, testBoard().Columns))

	tasks := []store.Task{
		{ID: 1, Fields: map[string]ir.Value{"title": ir.String("Fix login API"), "status": ir.String("todo"), "assignee_id": ir.Number(1)}},
		{ID: 2, Fields: map[string]ir.Value{"title": ir.String("Write docs"), "status": ir.String("done"), "assignee_id": ir.Number(2)}},
		{ID: 3, Fields: map[string]ir.Value{"title": ir.String("Refactor API client"), "status": ir.String("in_progress")}},
	}
	for _, task := range tasks {
		require.NoError(t, s.CreateTask(ctx, task))
	}
	require.NoError(t, s.AddTaskLabel(ctx, 1, 1))
	require.NoError(t, s.AddTaskLabel(ctx, 3, 2))
	require.NoError(t, s.SetFieldValue(ctx, ir.FieldValue{TaskID: 1, ColumnID: 7, Value: ir.String("api timeout on submit")}))
	require.NoError(t, s.SetFieldValue(ctx, ir.FieldValue{TaskID: 2, ColumnID: 7, Value: ir.String("needs screenshots")}))
	return s
}

func newEngine(t *testing.T, s *store.Store, opts ...engine.Option) *engine.Engine {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	opts = append([]engine.Option{engine.WithStore(s), engine.WithLogger(logger)}, opts...)
	e, err := engine.New(opts...)
	require.NoError(t, err)
	return e
}

func TestEvaluate_ConjunctiveAcrossStorageModes(t *testing.T) {
	e := newEngine(t, seedStore(t))
	ctx := context.Background()

	tests := []struct {
		name    string
		triples []ir.Triple
		want    []int64
	}{
		{"no triples", nil, []int64{1, 2, 3}},
		{"native text", []ir.Triple{{Column: "Title", Operator: "contains", Value: "API"}}, []int64{1, 3}},
		{"native and eav", []ir.Triple{
			{Column: "Title", Operator: "contains", Value: "API"},
			{Column: "cf_7", Operator: "contains", Value: "timeout"},
		}, []int64{1}},
		{"eav negation includes tasks without a value", []ir.Triple{
			{Column: "Notes", Operator: "not_contains", Value: "timeout"},
		}, []int64{2, 3}},
		{"status open", []ir.Triple{{Column: "status", Operator: "not_equals", Value: "done"}}, []int64{1, 3}},
		{"unassigned", []ir.Triple{{Column: "Owner", Operator: "is_empty"}}, []int64{3}},
		{"labels", []ir.Triple{{Column: "Labels", Operator: "contains", Value: []any{2}}}, []int64{3}},
		{"labels none of", []ir.Triple{{Column: "Labels", Operator: "not_contains", Value: []any{1}}}, []int64{2, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := e.Evaluate(ctx, testBoard(), tt.triples)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.TaskIDs)
			assert.Empty(t, res.Dropped)
			assert.Len(t, res.Applied, len(tt.triples))
		})
	}
}

func TestEvaluate_RejectedTriplesAreDropped(t *testing.T) {
	capture, logger := testutil.NewLogCapture()
	e := newEngine(t, seedStore(t), engine.WithLogger(logger))

	res, err := e.Evaluate(context.Background(), testBoard(), []ir.Triple{
		{Column: "Status", Operator: "equals", Value: "blocked"},
		{Column: "Owner", Operator: "in", Value: []any{1, 99}},
		{Column: "Title", Operator: "greater_than", Value: "a"},
		{Column: "Title", Operator: "starts_with", Value: "Fix"},
	})
	require.NoError(t, err)

	assert.Equal(t, []int64{1}, res.TaskIDs)
	require.Len(t, res.Dropped, 3)
	assert.Equal(t, filter.CodeInvalidValue, res.Dropped[0].Code)
	assert.Contains(t, res.Dropped[1].Message, "user 99 does not exist")
	assert.Equal(t, filter.CodeUnsupportedOperator, res.Dropped[2].Code)
	assert.Equal(t, []ir.Triple{{Column: "Title", Operator: "starts_with", Value: "Fix"}}, res.Applied)

	assert.Len(t, capture.AtLevel(slog.LevelWarn), 3)
}

func TestEvaluate_UnknownColumnAborts(t *testing.T) {
	e := newEngine(t, seedStore(t))

	_, err := e.Evaluate(context.Background(), testBoard(), []ir.Triple{
		{Column: "Title", Operator: "contains", Value: "x"},
		{Column: "Sprint", Operator: "equals", Value: "x"},
	})
	require.Error(t, err)
	assert.True(t, engine.HasCode(err, engine.ErrCodeUnknownColumn))

	re, ok := engine.AsRuntimeError(err)
	require.True(t, ok)
	assert.Equal(t, "Sprint", re.Column)
}

func TestEvaluate_UnknownTypeAborts(t *testing.T) {
	e := newEngine(t, seedStore(t))
	b := testBoard()
	b.Columns = append(b.Columns, ir.Column{ID: 9, Name: "Mood", Type: "mood", Storage: ir.StorageEAV})

	_, err := e.Evaluate(context.Background(), b, []ir.Triple{{Column: "Mood", Operator: "equals", Value: "x"}})
	assert.True(t, engine.HasCode(err, engine.ErrCodeUnknownType))
	assert.ErrorIs(t, err, filter.ErrUnknownType)
}

func TestEvaluate_TripleQuota(t *testing.T) {
	e := newEngine(t, seedStore(t), engine.WithMaxTriples(1))

	_, err := e.Evaluate(context.Background(), testBoard(), []ir.Triple{
		{Column: "Title", Operator: "contains", Value: "a"},
		{Column: "Title", Operator: "contains", Value: "b"},
	})
	assert.True(t, engine.HasCode(err, engine.ErrCodeTooManyTriples))
	assert.Contains(t, err.Error(), "request has 2 triples, limit is 1")
}

func TestEvaluate_RequiresStore(t *testing.T) {
	e, err := engine.New()
	require.NoError(t, err)

	_, err = e.Evaluate(context.Background(), testBoard(), nil)
	assert.EqualError(t, err, "engine: no store configured")
}

func TestPlan_WithoutStore(t *testing.T) {
	e, err := engine.New(engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)

	plan, err := e.Plan(context.Background(), testBoard(), []ir.Triple{
		{Column: "Title", Operator: "equals", Value: "x"},
	})
	require.NoError(t, err)
	assert.Equal(t, "SELECT tasks.* FROM tasks WHERE tasks.title = ? ORDER BY tasks.id ASC", plan.SQL)
	assert.Equal(t, []any{"x"}, plan.Params)
}

func TestPlan_PostgresDialect(t *testing.T) {
	e, err := engine.New(
		engine.WithDialect("postgres"),
		engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	require.NoError(t, err)

	plan, err := e.Plan(context.Background(), testBoard(), []ir.Triple{
		{Column: "Title", Operator: "equals", Value: "x"},
	})
	require.NoError(t, err)
	assert.Contains(t, plan.SQL, `"tasks"."title" = $1`)
}

func TestNew_UnknownDialect(t *testing.T) {
	_, err := engine.New(engine.WithDialect("oracle"))
	assert.Error(t, err)
}

func TestEvaluateSaved(t *testing.T) {
	e := newEngine(t, seedStore(t))
	ctx := context.Background()

	id, err := e.SaveFilterSet(ctx, board.FilterSet{
		Name:  "api work",
		Where: []ir.Triple{{Column: "Title", Operator: "contains", Value: "API"}},
	})
	require.NoError(t, err)

	again, err := e.SaveFilterSet(ctx, board.FilterSet{
		Name:  "api work (copy)",
		Where: []ir.Triple{{Column: "Title", Operator: "contains", Value: "API"}},
	})
	require.NoError(t, err)
	assert.Equal(t, id, again, "identical triples share one saved filter")

	res, err := e.EvaluateSaved(ctx, testBoard(), id)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3}, res.TaskIDs)

	_, err = e.EvaluateSaved(ctx, testBoard(), "no-such-id")
	assert.True(t, engine.HasCode(err, engine.ErrCodeSavedFilterNotFound))
	assert.ErrorIs(t, err, store.ErrNotFound)
}
