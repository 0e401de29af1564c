package filter

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/roach88/taskboard/internal/ir"
)

// existsFunc is one of the Directory lookups.
type existsFunc func(ctx context.Context, id int64) (bool, error)

// referenceIDs validates a scalar or list of entity ids: 1..limit positive
// integers (numeric strings allowed), each known to the directory. The whole
// list is rejected if any id is unknown.
func referenceIDs(ctx context.Context, v ir.Value, limit int, entity string, exists existsFunc) (ir.Array, error) {
	values := listOf(v)
	if len(values) == 0 {
		return nil, fmt.Errorf("list must not be empty")
	}
	if len(values) > limit {
		return nil, fmt.Errorf("list has %d %s ids, maximum is %d", len(values), entity, limit)
	}

	ids := make(ir.Array, len(values))
	for i, elem := range values {
		id, ok := toID(elem)
		if !ok {
			return nil, fmt.Errorf("%s is not a valid %s id", ir.Format(elem), entity)
		}
		ids[i] = ir.Number(id)
	}

	if exists == nil {
		return nil, fmt.Errorf("cannot verify %s ids: no directory configured", entity)
	}
	for _, id := range ids {
		n := int64(id.(ir.Number))
		ok, err := exists(ctx, n)
		if err != nil {
			return nil, fmt.Errorf("checking %s %d: %w", entity, n, err)
		}
		if !ok {
			return nil, fmt.Errorf("%s %d does not exist", entity, n)
		}
	}
	return ids, nil
}

// toID accepts a positive whole Number or a string holding one.
func toID(v ir.Value) (int64, bool) {
	switch val := v.(type) {
	case ir.Number:
		f := float64(val)
		if f < 1 || f != math.Trunc(f) || f > math.MaxInt64/2 {
			return 0, false
		}
		return int64(f), true
	case ir.String:
		n, err := strconv.ParseInt(strings.TrimSpace(string(val)), 10, 64)
		if err != nil || n < 1 {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

// normalizeIDs rewrites ids to Numbers, keeping the scalar/list shape.
func normalizeIDs(v ir.Value) ir.Value {
	if arr, ok := v.(ir.Array); ok {
		out := make(ir.Array, len(arr))
		for i, elem := range arr {
			out[i] = normalizeIDs(elem)
		}
		return out
	}
	if id, ok := toID(v); ok {
		return ir.Number(id)
	}
	return v
}
