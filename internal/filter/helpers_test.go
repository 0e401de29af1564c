package filter

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/taskboard/internal/ir"
	"github.com/roach88/taskboard/internal/queryir"
	"github.com/roach88/taskboard/internal/querysql"
	"github.com/roach88/taskboard/internal/testutil"
)

var (
	colTitle    = ir.Column{ID: 1, Name: "Title", Type: ir.TypeText, Storage: ir.StorageNative, Field: "title"}
	colNotes    = ir.Column{ID: 7, Name: "Notes", Type: ir.TypeText, Storage: ir.StorageEAV}
	colEstimate = ir.Column{ID: 2, Name: "Estimate", Type: ir.TypeNumber, Storage: ir.StorageNative, Field: "estimate"}
	colPoints   = ir.Column{ID: 7, Name: "Points", Type: ir.TypeNumber, Storage: ir.StorageEAV}
	colDue      = ir.Column{ID: 3, Name: "Due", Type: ir.TypeDate, Storage: ir.StorageNative, Field: "due_date"}
	colDueAt    = ir.Column{ID: 7, Name: "Due At", Type: ir.TypeDateTime, Storage: ir.StorageEAV}
	colDone     = ir.Column{ID: 4, Name: "Done", Type: ir.TypeCheckbox, Storage: ir.StorageNative, Field: "done"}
	colStatus   = ir.Column{ID: 5, Name: "Status", Type: ir.TypeStatus, Storage: ir.StorageNative, Field: "status"}
	colPriority = ir.Column{ID: 6, Name: "Priority", Type: ir.TypePriority, Storage: ir.StorageNative, Field: "priority"}
	colLabels   = ir.Column{ID: 9, Name: "Labels", Type: ir.TypeLabels, Storage: ir.StorageNative, Field: "task_labels"}
	colTags     = ir.Column{ID: 7, Name: "Tags", Type: ir.TypeLabels, Storage: ir.StorageEAV}
	colOwner    = ir.Column{ID: 10, Name: "Owner", Type: ir.TypeAssignee, Storage: ir.StorageNative, Field: "assignee_id"}
	colStage    = ir.Column{ID: 7, Name: "Stage", Type: ir.TypeSelect, Storage: ir.StorageEAV,
		Options: ir.ColumnOptions{Choices: []string{"backlog", "sprint", "shipped"}}}
	colTopics = ir.Column{ID: 11, Name: "Topics", Type: ir.TypeMultiSelect, Storage: ir.StorageNative, Field: "tags"}
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeDirectory is an in-memory Directory that counts lookups.
type fakeDirectory struct {
	users  map[int64]bool
	labels map[int64]bool
	roles  map[string][]int64
	err    error
	calls  int
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		users:  map[int64]bool{1: true, 2: true},
		labels: map[int64]bool{1: true, 2: true, 3: true},
		roles:  map[string][]int64{"engineer": {1, 2}},
	}
}

func (d *fakeDirectory) UserExists(_ context.Context, id int64) (bool, error) {
	d.calls++
	return d.users[id], d.err
}

func (d *fakeDirectory) LabelExists(_ context.Context, id int64) (bool, error) {
	d.calls++
	return d.labels[id], d.err
}

func (d *fakeDirectory) UsersWithRole(_ context.Context, role string) ([]int64, error) {
	d.calls++
	if d.err != nil {
		return nil, d.err
	}
	return d.roles[role], nil
}

var errDirectoryDown = errors.New("directory down")

func testTable(opts ...Option) *Table {
	base := []Option{
		WithLogger(discardLogger()),
		WithClock(testutil.Date(2024, 5, 15)),
		WithDirectory(newFakeDirectory()),
	}
	return NewTable(append(base, opts...)...)
}

func mustFilter(t *testing.T, table *Table, st ir.SemanticType) Filter {
	t.Helper()
	f, err := table.For(st)
	require.NoError(t, err)
	return f
}

func compileSQL(t *testing.T, q queryir.Select) (string, []any) {
	t.Helper()
	sql, params, err := querysql.NewSQLCompiler(nil).Compile(q)
	require.NoError(t, err)
	return sql, params
}

// applyOK applies a triple that must be accepted.
func applyOK(t *testing.T, f Filter, col ir.Column, value any, op Operator) queryir.Select {
	t.Helper()
	q, err := f.Apply(context.Background(), queryir.NewSelect("tasks"), col, value, op)
	require.NoError(t, err)
	return q
}

const eavJoinSQL = "LEFT JOIN field_values AS cf_7 ON cf_7.task_id = tasks.id AND cf_7.column_id = ?"
