package filter

import (
	"context"
	"log/slog"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/taskboard/internal/ir"
	"github.com/roach88/taskboard/internal/queryir"
	"github.com/roach88/taskboard/internal/testutil"
)

// baseQuery is a query that already carries a join and a predicate, so a
// rejected filter has something to (not) mutate.
func baseQuery() queryir.Select {
	return queryir.NewSelect("tasks").
		WithJoin(queryir.Join{Table: EAVTable, Alias: "cf_42", ForeignKey: EAVForeignKey, ScopeColumn: EAVScopeColumn, ScopeValue: ir.Number(42)}).
		With(queryir.Compare{Left: queryir.Field{Table: "tasks", Name: "status"}, Op: queryir.OpEq, Value: ir.String("todo")})
}

func TestApply_InvalidTripleLeavesQueryUnchanged(t *testing.T) {
	table := testTable()

	tests := []struct {
		name  string
		col   ir.Column
		value any
		op    Operator
	}{
		{"text unsupported operator", colTitle, "x", OpGreaterThan},
		{"text non-string", colNotes, 42, OpEquals},
		{"text too long", colTitle, string(make([]rune, 256)), OpContains},
		{"number magnitude", colPoints, 1e10, OpEquals},
		{"number garbage string", colEstimate, "forty-two", OpLessThan},
		{"number contains", colEstimate, 4, OpContains},
		{"date malformed", colDue, "2024-13-40", OpEquals},
		{"date before 1900", colDueAt, "1899-12-31", OpGreaterThan},
		{"date after 2100", colDue, "2101-01-01", OpLessThan},
		{"date unknown range", colDue, "next_decade", OpWithin},
		{"date inverted between", colDue, []any{"2024-05-02", "2024-05-01"}, OpBetween},
		{"checkbox maybe", colDone, "maybe", OpEquals},
		{"checkbox in", colDone, []any{true}, OpIn},
		{"select not an option", colStage, "archived", OpEquals},
		{"select too many", colStage, make([]any, 51), OpIn},
		{"select empty list", colStage, []any{}, OpIn},
		{"status unknown", colStatus, "blocked", OpEquals},
		{"status list with unknown", colStatus, []any{"todo", "wip"}, OpNotIn},
		{"priority unknown", colPriority, "blocker", OpEquals},
		{"priority too many", colPriority, []any{"low", "low", "low", "low", "low", "low", "low", "low", "low", "low", "low"}, OpIn},
		{"labels missing label", colLabels, []any{1, 99}, OpContains},
		{"labels equals", colTags, 1, OpEquals},
		{"assignee zero id", colOwner, 0, OpEquals},
		{"assignee fractional", colOwner, 1.5, OpEquals},
		{"assignee unknown user", colOwner, []any{1, 2, 3}, OpIn},
		{"null value", colTitle, nil, OpEquals},
		{"unrepresentable value", colTitle, map[string]any{"a": 1}, OpEquals},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			f := mustFilter(t, table, tt.col.Type)
			before := baseQuery()

			assert.False(t, f.Validate(ctx, tt.col, tt.value, tt.op))
			assert.NotEmpty(t, f.ValidationError(ctx, tt.col, tt.value, tt.op))

			got, err := f.Apply(ctx, before, tt.col, tt.value, tt.op)
			require.Error(t, err)
			_, isValidation := AsValidationError(err)
			assert.True(t, isValidation, "error must be a *ValidationError: %v", err)

			if diff := cmp.Diff(baseQuery(), got); diff != "" {
				t.Errorf("rejected filter changed the query (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(baseQuery(), before); diff != "" {
				t.Errorf("rejected filter mutated its input (-want +got):\n%s", diff)
			}
		})
	}
}

func TestApply_ValidTripleDoesNotMutateInput(t *testing.T) {
	table := testTable()
	ctx := context.Background()
	before := baseQuery()

	got, err := mustFilter(t, table, ir.TypeNumber).Apply(ctx, before, colPoints, 3, OpGreaterThan)
	require.NoError(t, err)

	assert.Len(t, got.Where, 2)
	assert.Len(t, got.Joins, 2)
	if diff := cmp.Diff(baseQuery(), before); diff != "" {
		t.Errorf("input mutated (-want +got):\n%s", diff)
	}
}

func TestValidate_UnsupportedOperatorCode(t *testing.T) {
	f := NewCheckboxFilter(WithLogger(discardLogger()))

	_, err := f.Apply(context.Background(), queryir.NewSelect("tasks"), colDone, true, OpContains)
	require.Error(t, err)
	assert.True(t, IsUnsupportedOperator(err))
	assert.False(t, IsInvalidValue(err))
	assert.Contains(t, err.Error(), "supported: equals, not_equals")
}

func TestValidate_NullTolerantOperatorsAcceptAnything(t *testing.T) {
	ctx := context.Background()
	f := NewTextFilter(WithLogger(discardLogger()))

	for _, op := range []Operator{OpIsEmpty, OpIsNotEmpty} {
		assert.True(t, f.Validate(ctx, colTitle, nil, op), op)
		assert.True(t, f.Validate(ctx, colTitle, "ignored", op), op)
		assert.Equal(t, "", f.ValidationError(ctx, colTitle, nil, op))
	}
}

func TestValidationError_EmptyWhenValid(t *testing.T) {
	f := NewNumberFilter(WithLogger(discardLogger()))
	assert.Equal(t, "", f.ValidationError(context.Background(), colEstimate, "42", OpEquals))
}

func TestApply_LogsDebugAndWarning(t *testing.T) {
	capture, logger := testutil.NewLogCapture()
	f := NewPriorityFilter(WithLogger(logger))
	ctx := context.Background()
	q := queryir.NewSelect("tasks")

	got, err := f.Apply(ctx, q, colPriority, "blocker", OpEquals)
	require.Error(t, err)
	assert.True(t, IsInvalidValue(err))
	assert.Empty(t, cmp.Diff(q, got))

	debug := capture.AtLevel(slog.LevelDebug)
	require.Len(t, debug, 1)
	assert.Equal(t, "applying filter", debug[0].Message)
	assert.Equal(t, "Priority", debug[0].Attrs["column"])

	warns := capture.AtLevel(slog.LevelWarn)
	require.Len(t, warns, 1)
	assert.Equal(t, "filter rejected", warns[0].Message)
	assert.Equal(t, "priority", warns[0].Attrs["filter"])
	assert.Equal(t, string(CodeInvalidValue), warns[0].Attrs["code"])
	assert.Contains(t, warns[0].Attrs["reason"], "blocker")
}

func TestApply_AcceptedTripleLogsNoWarning(t *testing.T) {
	capture, logger := testutil.NewLogCapture()
	f := NewStatusFilter(WithLogger(logger))

	_, err := f.Apply(context.Background(), queryir.NewSelect("tasks"), colStatus, "done", OpEquals)
	require.NoError(t, err)
	assert.Empty(t, capture.AtLevel(slog.LevelWarn))
}

func TestSupportedOperators_ReturnsCopy(t *testing.T) {
	f := NewTextFilter()
	ops := f.SupportedOperators()
	ops[0] = "mutated"

	assert.Equal(t, OpEquals, f.SupportedOperators()[0])
}

func TestValidationError_Message(t *testing.T) {
	err := &ValidationError{Code: CodeInvalidValue, Filter: "number", Column: "Estimate", Operator: OpEquals, Message: "bad"}
	assert.Equal(t, `INVALID_VALUE: number filter on "Estimate": bad`, err.Error())

	err.Column = ""
	assert.Equal(t, `INVALID_VALUE: number filter: bad`, err.Error())
}
