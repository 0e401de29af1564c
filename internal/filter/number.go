package filter

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/roach88/taskboard/internal/ir"
	"github.com/roach88/taskboard/internal/queryir"
)

// MaxNumberMagnitude bounds accepted numeric values.
const MaxNumberMagnitude = 999999999.99

var numberOps = concatOps(comparisonOps, emptinessOps)

// NumberFilter handles number columns. Numeric strings are coerced.
type NumberFilter struct {
	core
}

// NewNumberFilter creates a NumberFilter.
func NewNumberFilter(opts ...Option) *NumberFilter {
	f := &NumberFilter{}
	f.core = newCore(f, buildOptions(opts))
	return f
}

func (f *NumberFilter) name() string      { return "number" }
func (f *NumberFilter) operators() opSet { return numberOps }

func (f *NumberFilter) validateSpecific(_ context.Context, _ ir.Column, v ir.Value, _ Operator) error {
	n, err := toNumber(v)
	if err != nil {
		return err
	}
	if math.Abs(float64(n)) > MaxNumberMagnitude {
		return fmt.Errorf("%s exceeds the maximum magnitude %.2f", ir.Format(n), MaxNumberMagnitude)
	}
	return nil
}

func (f *NumberFilter) applyFilter(q queryir.Select, col ir.Column, v ir.Value, op Operator) (queryir.Select, error) {
	if !nullTolerant(op) {
		n, err := toNumber(v)
		if err != nil {
			return q, err
		}
		v = n
	}
	b := builderFor(q, col, buildOpts{jsonCast: queryir.CastNumber, empty: queryir.EmptyNumber})
	return b.apply(q, op, v)
}

// toNumber accepts a Number or a string holding a finite decimal number.
func toNumber(v ir.Value) (ir.Number, error) {
	switch val := v.(type) {
	case ir.Number:
		if math.IsNaN(float64(val)) || math.IsInf(float64(val), 0) {
			return 0, fmt.Errorf("%s is not a finite number", ir.Format(val))
		}
		return val, nil
	case ir.String:
		f, err := strconv.ParseFloat(strings.TrimSpace(string(val)), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, fmt.Errorf("%s is not a number", ir.Format(val))
		}
		return ir.Number(f), nil
	default:
		return 0, fmt.Errorf("expected a number, got %s", ir.Format(v))
	}
}
