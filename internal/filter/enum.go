package filter

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/taskboard/internal/ir"
	"github.com/roach88/taskboard/internal/queryir"
)

var enumOps = concatOps(membershipOps, emptinessOps)

// enumFilter is a select over a fixed, closed vocabulary. Values must match
// a vocabulary entry exactly.
type enumFilter struct {
	core
	family string
	vocab  []string
	limit  int
}

func newEnumFilter(family string, vocab []string, limit int, o options) *enumFilter {
	f := &enumFilter{family: family, vocab: vocab, limit: limit}
	f.core = newCore(f, o)
	return f
}

func (f *enumFilter) name() string      { return f.family }
func (f *enumFilter) operators() opSet { return enumOps }

// Vocabulary returns the accepted values in order.
func (f *enumFilter) Vocabulary() []string {
	return slices.Clone(f.vocab)
}

func (f *enumFilter) validateSpecific(_ context.Context, _ ir.Column, v ir.Value, op Operator) error {
	values, err := memberValues(v, op, f.limit)
	if err != nil {
		return err
	}
	for _, val := range values {
		if _, err := f.normalize(val); err != nil {
			return err
		}
	}
	return nil
}

func (f *enumFilter) applyFilter(q queryir.Select, col ir.Column, v ir.Value, op Operator) (queryir.Select, error) {
	if !nullTolerant(op) {
		var err error
		if v, err = f.normalizeAll(v); err != nil {
			return q, err
		}
	}
	return builderFor(q, col, buildOpts{empty: queryir.EmptyText}).apply(q, op, v)
}

func (f *enumFilter) normalize(v ir.Value) (ir.String, error) {
	s, ok := v.(ir.String)
	if !ok {
		return "", fmt.Errorf("%s is not a %s (allowed: %s)", ir.Format(v), f.family, strings.Join(f.vocab, ", "))
	}
	if !slices.Contains(f.vocab, string(s)) {
		return "", fmt.Errorf("%q is not a %s (allowed: %s)", string(s), f.family, strings.Join(f.vocab, ", "))
	}
	return s, nil
}

// normalizeAll normalizes a scalar or every element of an array.
func (f *enumFilter) normalizeAll(v ir.Value) (ir.Value, error) {
	arr, isArray := v.(ir.Array)
	if !isArray {
		return f.normalize(v)
	}
	out := make(ir.Array, len(arr))
	for i, elem := range arr {
		s, err := f.normalize(elem)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

// Status vocabulary.
const (
	StatusTodo       = "todo"
	StatusInProgress = "in_progress"
	StatusReview     = "review"
	StatusDone       = "done"
)

// MaxStatusValues caps in/not_in lists for status columns.
const MaxStatusValues = 20

// StatusFilter handles status columns.
type StatusFilter struct {
	*enumFilter
}

// NewStatusFilter creates a StatusFilter.
func NewStatusFilter(opts ...Option) *StatusFilter {
	vocab := []string{StatusTodo, StatusInProgress, StatusReview, StatusDone}
	return &StatusFilter{newEnumFilter("status", vocab, MaxStatusValues, buildOptions(opts))}
}

// ApplyOpen keeps tasks that are not done, including tasks with no status.
func (f *StatusFilter) ApplyOpen(ctx context.Context, q queryir.Select, col ir.Column) (queryir.Select, error) {
	return f.Apply(ctx, q, col, StatusDone, OpNotEquals)
}

// Priority vocabulary, lowest first.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// MaxPriorityValues caps in/not_in lists for priority columns.
const MaxPriorityValues = 10

// PriorityFilter handles priority columns. Priorities are ordered
// low < medium < high < urgent.
type PriorityFilter struct {
	*enumFilter
}

// NewPriorityFilter creates a PriorityFilter.
func NewPriorityFilter(opts ...Option) *PriorityFilter {
	vocab := []string{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}
	return &PriorityFilter{newEnumFilter("priority", vocab, MaxPriorityValues, buildOptions(opts))}
}

// Level returns the rank of a priority, 1 (low) through 4 (urgent).
func (f *PriorityFilter) Level(priority string) (int, bool) {
	i := slices.Index(f.vocab, priority)
	if i < 0 {
		return 0, false
	}
	return i + 1, true
}

// ApplyAtLeast keeps tasks whose priority ranks at or above level.
func (f *PriorityFilter) ApplyAtLeast(ctx context.Context, q queryir.Select, col ir.Column, level string) (queryir.Select, error) {
	check := func() (ir.Value, *ValidationError) {
		v, err := f.normalize(ir.String(level))
		if err != nil {
			return nil, f.invalid(col, OpIn, err.Error())
		}
		return v, nil
	}
	build := func(q queryir.Select, col ir.Column, v ir.Value, _ Operator) (queryir.Select, error) {
		rank, _ := f.Level(string(v.(ir.String)))
		var levels ir.Array
		for _, p := range f.vocab[rank-1:] {
			levels = append(levels, ir.String(p))
		}
		return builderFor(q, col, buildOpts{empty: queryir.EmptyText}).apply(q, OpIn, levels)
	}
	return f.applyChecked(ctx, q, col, level, OpIn, check, build)
}

// ApplyHighOrAbove keeps high and urgent tasks.
func (f *PriorityFilter) ApplyHighOrAbove(ctx context.Context, q queryir.Select, col ir.Column) (queryir.Select, error) {
	return f.ApplyAtLeast(ctx, q, col, PriorityHigh)
}
