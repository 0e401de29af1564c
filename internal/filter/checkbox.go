package filter

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/taskboard/internal/ir"
	"github.com/roach88/taskboard/internal/queryir"
)

var checkboxOps = opSet{OpEquals, OpNotEquals}

// CheckboxFilter handles boolean and checkbox columns. Every accepted
// spelling is normalized to a Bool before the predicate is built.
type CheckboxFilter struct {
	core
}

// NewCheckboxFilter creates a CheckboxFilter.
func NewCheckboxFilter(opts ...Option) *CheckboxFilter {
	f := &CheckboxFilter{}
	f.core = newCore(f, buildOptions(opts))
	return f
}

func (f *CheckboxFilter) name() string      { return "checkbox" }
func (f *CheckboxFilter) operators() opSet { return checkboxOps }

func (f *CheckboxFilter) validateSpecific(_ context.Context, _ ir.Column, v ir.Value, _ Operator) error {
	_, err := ToBool(v)
	return err
}

func (f *CheckboxFilter) applyFilter(q queryir.Select, col ir.Column, v ir.Value, op Operator) (queryir.Select, error) {
	b, err := ToBool(v)
	if err != nil {
		return q, err
	}
	return builderFor(q, col, buildOpts{}).apply(q, op, b)
}

// ToBool normalizes the accepted boolean spellings: bool, 0/1, and the
// case-insensitive strings true/false, 1/0, yes/no, on/off.
func ToBool(v ir.Value) (ir.Bool, error) {
	switch val := v.(type) {
	case ir.Bool:
		return val, nil
	case ir.Number:
		switch val {
		case 1:
			return true, nil
		case 0:
			return false, nil
		}
	case ir.String:
		switch strings.ToLower(strings.TrimSpace(string(val))) {
		case "true", "1", "yes", "on":
			return true, nil
		case "false", "0", "no", "off":
			return false, nil
		}
	}
	return false, fmt.Errorf("%s is not a boolean", ir.Format(v))
}
