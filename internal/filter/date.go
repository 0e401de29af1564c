package filter

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/roach88/taskboard/internal/ir"
	"github.com/roach88/taskboard/internal/queryir"
)

// Canonical renderings bound into queries. They match SQLite's date() and
// datetime() output so text comparison is chronological.
const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04:05"
)

var dateInputLayouts = []struct {
	layout  string
	hasTime bool
}{
	{DateLayout, false},
	{DateTimeLayout, true},
	{"2006-01-02T15:04:05", true},
	{time.RFC3339, true},
}

var (
	minDate = time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)
	maxDate = time.Date(2101, time.January, 1, 0, 0, 0, 0, time.UTC) // exclusive
)

var dateOps = concatOps(comparisonOps, emptinessOps, opSet{OpBetween, OpWithin})

// DateFilter handles date and datetime columns.
//
// Besides the comparison operators it supports between ([from, to], either
// bound may be null) and within (a named range relative to the clock, see
// RelativeRanges). Both are inclusive.
type DateFilter struct {
	core
	clock     Clock
	weekStart time.Weekday
}

// NewDateFilter creates a DateFilter.
func NewDateFilter(opts ...Option) *DateFilter {
	o := buildOptions(opts)
	f := &DateFilter{clock: o.clock, weekStart: o.weekStart}
	f.core = newCore(f, o)
	return f
}

func (f *DateFilter) name() string      { return "date" }
func (f *DateFilter) operators() opSet { return dateOps }

func (f *DateFilter) validateSpecific(_ context.Context, _ ir.Column, v ir.Value, op Operator) error {
	switch op {
	case OpWithin:
		_, err := rangeName(v)
		return err
	case OpBetween:
		_, _, err := rangeBounds(v)
		return err
	default:
		_, err := dateValue(v)
		return err
	}
}

func (f *DateFilter) applyFilter(q queryir.Select, col ir.Column, v ir.Value, op Operator) (queryir.Select, error) {
	switch op {
	case OpWithin:
		name, err := rangeName(v)
		if err != nil {
			return q, err
		}
		r, err := ResolveRange(name, f.clock.Now(), f.weekStart)
		if err != nil {
			return q, err
		}
		from, to := r.bounds()
		return f.applyBounds(q, col, from, to)
	case OpBetween:
		from, to, err := rangeBounds(v)
		if err != nil {
			return q, err
		}
		return f.applyBounds(q, col, from, to)
	}

	if nullTolerant(op) {
		return builderFor(q, col, buildOpts{empty: queryir.EmptyText}).apply(q, op, v)
	}

	d, err := dateValue(v)
	if err != nil {
		return q, err
	}
	cast, rendered := d.render(col)
	return builderFor(q, col, buildOpts{nativeCast: cast, jsonCast: cast}).apply(q, op, rendered)
}

// ApplyRange keeps tasks whose date lies in [from, to]. Either bound may be
// nil for an open range.
func (f *DateFilter) ApplyRange(ctx context.Context, q queryir.Select, col ir.Column, from, to any) (queryir.Select, error) {
	return f.Apply(ctx, q, col, []any{from, to}, OpBetween)
}

// ApplyRelative keeps tasks whose date lies in a named relative range such
// as "today" or "this_week", resolved against the filter's clock.
func (f *DateFilter) ApplyRelative(ctx context.Context, q queryir.Select, col ir.Column, name string) (queryir.Select, error) {
	return f.Apply(ctx, q, col, name, OpWithin)
}

func (f *DateFilter) applyBounds(q queryir.Select, col ir.Column, from, to *dateBound) (queryir.Select, error) {
	// Compare at datetime granularity only when the column has a time
	// component and a bound carries one.
	withTime := col.Type == ir.TypeDateTime && (from.hasTimeOf() || to.hasTimeOf())
	cast := queryir.CastDate
	if withTime {
		cast = queryir.CastDateTime
	}

	bound := func(d *dateBound, endOfDay string) ir.Value {
		switch {
		case d == nil:
			return ir.Null{}
		case !withTime:
			return ir.String(d.t.Format(DateLayout))
		case d.hasTime:
			return ir.String(d.t.Format(DateTimeLayout))
		default:
			return ir.String(d.t.Format(DateLayout) + endOfDay)
		}
	}
	lo, hi := bound(from, " 00:00:00"), bound(to, " 23:59:59")

	b := builderFor(q, col, buildOpts{nativeCast: cast, jsonCast: cast})
	return b.narrow(q, b.rangePredicates(lo, hi)...), nil
}

// dateBound is a parsed date value.
type dateBound struct {
	t       time.Time
	hasTime bool
}

func (d *dateBound) hasTimeOf() bool {
	return d != nil && d.hasTime
}

// render picks the cast and canonical string for comparing against col.
// Datetime columns compare at second granularity when the value has a time;
// everything else compares by day.
func (d *dateBound) render(col ir.Column) (queryir.CastType, ir.Value) {
	if col.Type == ir.TypeDateTime && d.hasTime {
		return queryir.CastDateTime, ir.String(d.t.Format(DateTimeLayout))
	}
	return queryir.CastDate, ir.String(d.t.Format(DateLayout))
}

// ParseDate parses the accepted date spellings: YYYY-MM-DD, "YYYY-MM-DD
// HH:MM:SS", "YYYY-MM-DDTHH:MM:SS" and RFC 3339. The 1900..2100 bounds apply
// to the calendar date as written; offsets are then converted to UTC. The
// second result reports whether the input carried a time of day.
func ParseDate(s string) (time.Time, bool, error) {
	s = strings.TrimSpace(s)
	for _, l := range dateInputLayouts {
		t, err := time.Parse(l.layout, s)
		if err != nil {
			continue
		}
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		if day.Before(minDate) || !day.Before(maxDate) {
			return time.Time{}, false, fmt.Errorf("date %q is outside %s..2100-12-31", s, minDate.Format(DateLayout))
		}
		return t.UTC(), l.hasTime, nil
	}
	return time.Time{}, false, fmt.Errorf("%q is not a valid date", s)
}

func dateValue(v ir.Value) (*dateBound, error) {
	s, ok := v.(ir.String)
	if !ok {
		return nil, fmt.Errorf("expected a date string, got %s", ir.Format(v))
	}
	t, hasTime, err := ParseDate(string(s))
	if err != nil {
		return nil, err
	}
	return &dateBound{t: t, hasTime: hasTime}, nil
}

// rangeBounds validates a [from, to] pair. Null bounds are open; at least
// one must be set and from must not be after to.
func rangeBounds(v ir.Value) (from, to *dateBound, err error) {
	arr, ok := v.(ir.Array)
	if !ok || len(arr) != 2 {
		return nil, nil, fmt.Errorf("between expects [from, to], got %s", ir.Format(v))
	}
	if ir.IsNull(arr[0]) && ir.IsNull(arr[1]) {
		return nil, nil, fmt.Errorf("between needs at least one bound")
	}
	if !ir.IsNull(arr[0]) {
		if from, err = dateValue(arr[0]); err != nil {
			return nil, nil, fmt.Errorf("from: %w", err)
		}
	}
	if !ir.IsNull(arr[1]) {
		if to, err = dateValue(arr[1]); err != nil {
			return nil, nil, fmt.Errorf("to: %w", err)
		}
	}
	if from != nil && to != nil && from.t.After(to.t) {
		return nil, nil, fmt.Errorf("from %s is after to %s", from.t.Format(DateLayout), to.t.Format(DateLayout))
	}
	return from, to, nil
}

func rangeName(v ir.Value) (string, error) {
	s, ok := v.(ir.String)
	if !ok {
		return "", fmt.Errorf("expected a range name, got %s", ir.Format(v))
	}
	name := strings.ToLower(strings.TrimSpace(string(s)))
	if !slices.Contains(RelativeRanges, name) {
		return "", fmt.Errorf("unknown relative range %q (known: %s)", string(s), strings.Join(RelativeRanges, ", "))
	}
	return name, nil
}

// RelativeRanges lists the names accepted by within and ApplyRelative.
var RelativeRanges = []string{
	"today", "yesterday", "tomorrow",
	"this_week", "last_week", "next_week",
	"this_month", "last_month", "next_month",
	"this_year",
	"last_7_days", "last_30_days", "next_7_days",
	"overdue",
}

// DateRange is an inclusive range of days. A zero From is open-ended.
type DateRange struct {
	From time.Time
	To   time.Time
}

func (r DateRange) bounds() (from, to *dateBound) {
	if !r.From.IsZero() {
		from = &dateBound{t: r.From}
	}
	return from, &dateBound{t: r.To}
}

// ResolveRange computes a named relative range for the day containing now.
// Weeks begin on weekStart.
func ResolveRange(name string, now time.Time, weekStart time.Weekday) (DateRange, error) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	days := func(from, to int) DateRange {
		return DateRange{From: today.AddDate(0, 0, from), To: today.AddDate(0, 0, to)}
	}

	offset := (int(today.Weekday()) - int(weekStart) + 7) % 7
	week := func(n int) DateRange {
		start := today.AddDate(0, 0, 7*n-offset)
		return DateRange{From: start, To: start.AddDate(0, 0, 6)}
	}

	firstOfMonth := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
	month := func(n int) DateRange {
		start := firstOfMonth.AddDate(0, n, 0)
		return DateRange{From: start, To: start.AddDate(0, 1, -1)}
	}

	switch name {
	case "today":
		return days(0, 0), nil
	case "yesterday":
		return days(-1, -1), nil
	case "tomorrow":
		return days(1, 1), nil
	case "this_week":
		return week(0), nil
	case "last_week":
		return week(-1), nil
	case "next_week":
		return week(1), nil
	case "this_month":
		return month(0), nil
	case "last_month":
		return month(-1), nil
	case "next_month":
		return month(1), nil
	case "this_year":
		start := time.Date(today.Year(), time.January, 1, 0, 0, 0, 0, today.Location())
		return DateRange{From: start, To: start.AddDate(1, 0, -1)}, nil
	case "last_7_days":
		return days(-6, 0), nil
	case "last_30_days":
		return days(-29, 0), nil
	case "next_7_days":
		return days(0, 6), nil
	case "overdue":
		return DateRange{To: today.AddDate(0, 0, -1)}, nil
	default:
		return DateRange{}, fmt.Errorf("unknown relative range %q", name)
	}
}
