package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/taskboard/internal/filter"
	"github.com/roach88/taskboard/internal/ir"
)

var _ filter.Directory = (*Store)(nil)

func TestDirectory_ExistsAndRoles(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	require.NoError(t, s.CreateUser(ctx, 1, "ana", "engineer"))
	require.NoError(t, s.CreateUser(ctx, 2, "bo", "designer"))
	require.NoError(t, s.CreateUser(ctx, 3, "cy", "engineer"))
	require.NoError(t, s.CreateLabel(ctx, 10, "bug"))

	ok, err := s.UserExists(ctx, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.UserExists(ctx, 99)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.LabelExists(ctx, 10)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.LabelExists(ctx, 11)
	require.NoError(t, err)
	assert.False(t, ok)

	ids, err := s.UsersWithRole(ctx, "engineer")
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3}, ids)

	ids, err = s.UsersWithRole(ctx, "manager")
	require.NoError(t, err)
	assert.NotNil(t, ids)
	assert.Empty(t, ids)
}

func TestCreateTask_RejectsUnknownColumn(t *testing.T) {
	s := createTestStore(t)

	err := s.CreateTask(context.Background(), Task{ID: 1, Fields: map[string]ir.Value{"secret": ir.String("x")}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown native column "secret"`)
}

func TestTaskIDs_RunsCompiledQuery(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	require.NoError(t, s.CreateTask(ctx, Task{ID: 2, Fields: map[string]ir.Value{"status": ir.String("done")}}))
	require.NoError(t, s.CreateTask(ctx, Task{ID: 1, Fields: map[string]ir.Value{"status": ir.String("todo")}}))
	require.NoError(t, s.CreateTask(ctx, Task{ID: 3, Fields: map[string]ir.Value{"tags": ir.Array{ir.String("a")}}}))

	ids, err := s.TaskIDs(ctx, `SELECT tasks.* FROM tasks ORDER BY tasks.id ASC`, nil)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, ids)

	ids, err = s.TaskIDs(ctx, `SELECT tasks.* FROM tasks WHERE tasks.status = ? ORDER BY tasks.id ASC`, []any{"done"})
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, ids)

	ids, err = s.TaskIDs(ctx, `SELECT tasks.* FROM tasks WHERE json_array_length(tasks.tags) = 1 ORDER BY tasks.id ASC`, nil)
	require.NoError(t, err)
	assert.Equal(t, []int64{3}, ids)
}

func TestFieldValue_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	require.NoError(t, s.SaveColumns(ctx, []ir.Column{
		{ID: 7, Name: "Points", Type: ir.TypeNumber, Storage: ir.StorageEAV},
	}))
	require.NoError(t, s.CreateTask(ctx, Task{ID: 1}))

	require.NoError(t, s.SetFieldValue(ctx, ir.FieldValue{TaskID: 1, ColumnID: 7, Value: ir.Number(3)}))
	got, err := s.FieldValue(ctx, 1, 7)
	require.NoError(t, err)
	assert.Equal(t, ir.Number(3), got)

	// Upsert replaces.
	require.NoError(t, s.SetFieldValue(ctx, ir.FieldValue{TaskID: 1, ColumnID: 7, Value: ir.Array{ir.Number(1), ir.Number(2)}}))
	got, err = s.FieldValue(ctx, 1, 7)
	require.NoError(t, err)
	assert.Equal(t, ir.Array{ir.Number(1), ir.Number(2)}, got)

	var raw string
	require.NoError(t, s.db.QueryRow(`SELECT value FROM field_values WHERE task_id = 1`).Scan(&raw))
	assert.Equal(t, `{"value":[1,2]}`, raw)

	_, err = s.FieldValue(ctx, 2, 7)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSaveColumns_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	cols := []ir.Column{
		{ID: 1, Name: "Title", Type: ir.TypeText, Storage: ir.StorageNative, Field: "title", Required: true},
		{ID: 2, Name: "Stage", Type: ir.TypeSelect, Storage: ir.StorageEAV, Options: ir.ColumnOptions{Choices: []string{"a", "b"}}},
	}
	require.NoError(t, s.SaveColumns(ctx, cols))

	got, err := s.Columns(ctx)
	require.NoError(t, err)
	assert.Equal(t, cols, got)
}

func TestSaveFilter_DeduplicatesByFingerprint(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	triples := []ir.Triple{
		{Column: "Priority", Operator: "in", Value: []any{"high", "urgent"}},
		{Column: "Estimate", Operator: "greater_than", Value: 3},
	}

	first, err := s.SaveFilter(ctx, "hot", triples)
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, ir.MustFingerprint(triples), first.Fingerprint)

	second, err := s.SaveFilter(ctx, "hot again", triples)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "hot", second.Name)

	loaded, err := s.SavedFilter(ctx, first.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Triples, 2)
	assert.Equal(t, "Priority", loaded.Triples[0].Column)

	// Stored values decode to an equivalent fingerprint.
	assert.Equal(t, first.Fingerprint, ir.MustFingerprint(loaded.Triples))

	all, err := s.SavedFilters(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	_, err = s.SavedFilter(ctx, "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}
