package filter

import (
	"fmt"

	"github.com/roach88/taskboard/internal/ir"
)

// Table maps semantic types to filter instances. It is built once and is
// safe for concurrent use; filters hold no per-call state.
type Table struct {
	text        *TextFilter
	number      *NumberFilter
	date        *DateFilter
	checkbox    *CheckboxFilter
	selection   *SelectFilter
	multiSelect *MultiSelectFilter
	status      *StatusFilter
	priority    *PriorityFilter
	labels      *LabelsFilter
	assignee    *AssigneeFilter
}

// NewTable builds one filter per family, sharing opts.
func NewTable(opts ...Option) *Table {
	return &Table{
		text:        NewTextFilter(opts...),
		number:      NewNumberFilter(opts...),
		date:        NewDateFilter(opts...),
		checkbox:    NewCheckboxFilter(opts...),
		selection:   NewSelectFilter(opts...),
		multiSelect: NewMultiSelectFilter(opts...),
		status:      NewStatusFilter(opts...),
		priority:    NewPriorityFilter(opts...),
		labels:      NewLabelsFilter(opts...),
		assignee:    NewAssigneeFilter(opts...),
	}
}

// For returns the filter for a semantic type. An unknown type returns
// ErrUnknownType; callers must resolve columns before dispatching.
func (t *Table) For(st ir.SemanticType) (Filter, error) {
	kind, ok := ir.KindOf(st)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, st)
	}
	switch kind {
	case ir.KindText:
		return t.text, nil
	case ir.KindNumber:
		return t.number, nil
	case ir.KindDate:
		return t.date, nil
	case ir.KindBoolean:
		return t.checkbox, nil
	case ir.KindSelect:
		if st == ir.TypeMultiSelect {
			return t.multiSelect, nil
		}
		return t.selection, nil
	case ir.KindStatus:
		return t.status, nil
	case ir.KindPriority:
		return t.priority, nil
	case ir.KindLabels:
		return t.labels, nil
	case ir.KindAssignee:
		return t.assignee, nil
	default:
		panic(fmt.Sprintf("filter: kind %s has no filter", kind))
	}
}

// Operators returns the operator vocabulary for a semantic type.
func (t *Table) Operators(st ir.SemanticType) ([]Operator, error) {
	f, err := t.For(st)
	if err != nil {
		return nil, err
	}
	return f.SupportedOperators(), nil
}

// Date returns the date filter for range conveniences.
func (t *Table) Date() *DateFilter { return t.date }

// Status returns the status filter.
func (t *Table) Status() *StatusFilter { return t.status }

// Priority returns the priority filter for level conveniences.
func (t *Table) Priority() *PriorityFilter { return t.priority }

// Labels returns the labels filter for has-all and count conveniences.
func (t *Table) Labels() *LabelsFilter { return t.labels }

// Assignee returns the assignee filter for user conveniences.
func (t *Table) Assignee() *AssigneeFilter { return t.assignee }
