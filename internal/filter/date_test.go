package filter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/taskboard/internal/ir"
	"github.com/roach88/taskboard/internal/queryir"
	"github.com/roach88/taskboard/internal/testutil"
)

func newTestDateFilter(opts ...Option) *DateFilter {
	base := []Option{WithLogger(discardLogger()), WithClock(testutil.Date(2024, time.May, 15))}
	return NewDateFilter(append(base, opts...)...)
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Time
		hasTime bool
	}{
		{"2024-05-15", time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC), false},
		{"2024-05-15 08:30:00", time.Date(2024, 5, 15, 8, 30, 0, 0, time.UTC), true},
		{"2024-05-15T08:30:00", time.Date(2024, 5, 15, 8, 30, 0, 0, time.UTC), true},
		{"2024-05-15T08:30:00+02:00", time.Date(2024, 5, 15, 6, 30, 0, 0, time.UTC), true},
		{" 1900-01-01 ", time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC), false},
		{"2100-12-31 23:59:59", time.Date(2100, 12, 31, 23, 59, 59, 0, time.UTC), true},
	}
	for _, tt := range tests {
		got, hasTime, err := ParseDate(tt.in)
		require.NoError(t, err, tt.in)
		assert.True(t, tt.want.Equal(got), "%s: got %s", tt.in, got)
		assert.Equal(t, tt.hasTime, hasTime, tt.in)
	}

	// Bounds apply to the date as written, before conversion to UTC.
	got, hasTime, err := ParseDate("2100-12-31T20:00:00-05:00")
	require.NoError(t, err)
	assert.True(t, hasTime)
	assert.True(t, time.Date(2101, time.January, 1, 1, 0, 0, 0, time.UTC).Equal(got), got)
	_, _, err = ParseDate("1900-01-01T01:00:00+05:00")
	assert.NoError(t, err)
	_, _, err = ParseDate("1899-12-31T23:00:00-05:00")
	assert.Error(t, err)

	for _, bad := range []string{"", "15/05/2024", "2024-02-30", "1899-12-31", "2101-01-01", "tomorrow"} {
		_, _, err := ParseDate(bad)
		assert.Error(t, err, bad)
	}
}

func TestDateFilter_Comparisons(t *testing.T) {
	f := newTestDateFilter()

	sql, params := compileSQL(t, applyOK(t, f, colDue, "2024-05-15", OpGreaterEqual))
	assert.Equal(t, `SELECT tasks.* FROM tasks WHERE date(tasks.due_date) >= ? ORDER BY tasks.id ASC`, sql)
	assert.Equal(t, []any{"2024-05-15"}, params)

	// A time on a date column compares by day.
	_, params = compileSQL(t, applyOK(t, f, colDue, "2024-05-15T23:00:00", OpEquals))
	assert.Equal(t, []any{"2024-05-15"}, params)

	// A time on a datetime column compares by second.
	sql, params = compileSQL(t, applyOK(t, f, colDueAt, "2024-05-15T08:30:00Z", OpLessThan))
	assert.Equal(t, `SELECT tasks.* FROM tasks `+eavJoinSQL+` WHERE datetime(json_extract(cf_7.value, '$.value')) < ? ORDER BY tasks.id ASC`, sql)
	assert.Equal(t, []any{int64(7), "2024-05-15 08:30:00"}, params)

	// Blank strings count as empty in both storage modes.
	sql, params = compileSQL(t, applyOK(t, f, colDue, nil, OpIsEmpty))
	assert.Equal(t, `SELECT tasks.* FROM tasks WHERE (tasks.due_date IS NULL OR tasks.due_date = ?) ORDER BY tasks.id ASC`, sql)
	assert.Equal(t, []any{""}, params)
}

func TestDateFilter_ThisWeekDelegatesToRange(t *testing.T) {
	ctx := context.Background()
	f := newTestDateFilter()

	q, err := f.ApplyRelative(ctx, queryir.NewSelect("tasks"), colDue, "this_week")
	require.NoError(t, err)

	// 2024-05-15 is a Wednesday; weeks start on Monday.
	want, err := f.ApplyRange(ctx, queryir.NewSelect("tasks"), colDue, "2024-05-13", "2024-05-19")
	require.NoError(t, err)
	assert.Equal(t, want, q)

	sql, params := compileSQL(t, q)
	assert.Equal(t, `SELECT tasks.* FROM tasks WHERE date(tasks.due_date) >= ? AND date(tasks.due_date) <= ? ORDER BY tasks.id ASC`, sql)
	assert.Equal(t, []any{"2024-05-13", "2024-05-19"}, params)

	sunday := newTestDateFilter(WithWeekStart(time.Sunday))
	q, err = sunday.ApplyRelative(ctx, queryir.NewSelect("tasks"), colDue, "This_Week")
	require.NoError(t, err)
	_, params = compileSQL(t, q)
	assert.Equal(t, []any{"2024-05-12", "2024-05-18"}, params)
}

func TestDateFilter_RelativeFollowsClock(t *testing.T) {
	ctx := context.Background()
	clock := testutil.Date(2024, time.May, 15)
	f := NewDateFilter(WithLogger(discardLogger()), WithClock(clock))

	q, err := f.ApplyRelative(ctx, queryir.NewSelect("tasks"), colDue, "today")
	require.NoError(t, err)
	_, params := compileSQL(t, q)
	assert.Equal(t, []any{"2024-05-15", "2024-05-15"}, params)

	clock.Advance(24 * time.Hour)
	q, err = f.ApplyRelative(ctx, queryir.NewSelect("tasks"), colDue, "today")
	require.NoError(t, err)
	_, params = compileSQL(t, q)
	assert.Equal(t, []any{"2024-05-16", "2024-05-16"}, params)
}

func TestResolveRange(t *testing.T) {
	now := time.Date(2024, time.February, 29, 15, 0, 0, 0, time.UTC) // Thursday, leap day
	day := func(m time.Month, d int) time.Time { return time.Date(2024, m, d, 0, 0, 0, 0, time.UTC) }

	tests := []struct {
		name     string
		from, to time.Time
	}{
		{"today", day(2, 29), day(2, 29)},
		{"yesterday", day(2, 28), day(2, 28)},
		{"tomorrow", day(3, 1), day(3, 1)},
		{"this_week", day(2, 26), day(3, 3)},
		{"last_week", day(2, 19), day(2, 25)},
		{"next_week", day(3, 4), day(3, 10)},
		{"this_month", day(2, 1), day(2, 29)},
		{"last_month", day(1, 1), day(1, 31)},
		{"next_month", day(3, 1), day(3, 31)},
		{"this_year", day(1, 1), day(12, 31)},
		{"last_7_days", day(2, 23), day(2, 29)},
		{"last_30_days", day(1, 31), day(2, 29)},
		{"next_7_days", day(2, 29), day(3, 6)},
		{"overdue", time.Time{}, day(2, 28)},
	}
	require.Len(t, tests, len(RelativeRanges))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := ResolveRange(tt.name, now, time.Monday)
			require.NoError(t, err)
			assert.Equal(t, tt.from, r.From)
			assert.Equal(t, tt.to, r.To)
		})
	}

	_, err := ResolveRange("someday", now, time.Monday)
	assert.Error(t, err)
}

func TestDateFilter_Between(t *testing.T) {
	ctx := context.Background()
	f := newTestDateFilter()

	// Open lower bound.
	sql, params := compileSQL(t, applyOK(t, f, colDue, []any{nil, "2024-06-01"}, OpBetween))
	assert.Equal(t, `SELECT tasks.* FROM tasks WHERE date(tasks.due_date) <= ? ORDER BY tasks.id ASC`, sql)
	assert.Equal(t, []any{"2024-06-01"}, params)

	// Datetime column with a timed bound widens the date-only bound to the
	// end of its day.
	_, params = compileSQL(t, applyOK(t, f, colDueAt, []any{"2024-06-01 09:00:00", "2024-06-02"}, OpBetween))
	assert.Equal(t, []any{int64(7), "2024-06-01 09:00:00", "2024-06-02 23:59:59"}, params)

	assert.False(t, f.Validate(ctx, colDue, []any{nil, nil}, OpBetween))
	assert.False(t, f.Validate(ctx, colDue, "2024-06-01", OpBetween))
	assert.False(t, f.Validate(ctx, colDue, []any{"2024-06-01"}, OpBetween))
	assert.False(t, f.Validate(ctx, colDue, []any{"1800-01-01", "2024-06-01"}, OpBetween))

	_, err := f.ApplyRange(ctx, queryir.NewSelect("tasks"), colDue, nil, nil)
	assert.Error(t, err)
}

func TestDateFilter_Overdue(t *testing.T) {
	f := newTestDateFilter()

	q := applyOK(t, f, colDue, "overdue", OpWithin)
	require.Len(t, q.Where, 1)
	cmp, ok := q.Where[0].(queryir.Compare)
	require.True(t, ok)
	assert.Equal(t, queryir.OpLe, cmp.Op)
	assert.Equal(t, ir.String("2024-05-14"), cmp.Value)
}
