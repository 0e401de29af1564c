package filter

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/taskboard/internal/ir"
	"github.com/roach88/taskboard/internal/queryir"
)

// MaxAssigneeValues caps in/not_in lists for user columns.
const MaxAssigneeValues = 50

var assigneeOps = concatOps(membershipOps, emptinessOps)

// AssigneeFilter handles user and assignee columns. Values are user ids that
// must exist in the directory.
type AssigneeFilter struct {
	core
	directory Directory
}

// NewAssigneeFilter creates an AssigneeFilter. User ids are verified through
// the directory given by WithDirectory.
func NewAssigneeFilter(opts ...Option) *AssigneeFilter {
	o := buildOptions(opts)
	f := &AssigneeFilter{directory: o.directory}
	f.core = newCore(f, o)
	return f
}

func (f *AssigneeFilter) name() string      { return "assignee" }
func (f *AssigneeFilter) operators() opSet { return assigneeOps }

func (f *AssigneeFilter) validateSpecific(ctx context.Context, _ ir.Column, v ir.Value, op Operator) error {
	if _, isArray := v.(ir.Array); isArray && op != OpIn && op != OpNotIn {
		return fmt.Errorf("operator %q takes a single user id, got %s", op, ir.Format(v))
	}
	var exists existsFunc
	if f.directory != nil {
		exists = f.directory.UserExists
	}
	_, err := referenceIDs(ctx, v, MaxAssigneeValues, "user", exists)
	return err
}

func (f *AssigneeFilter) applyFilter(q queryir.Select, col ir.Column, v ir.Value, op Operator) (queryir.Select, error) {
	return builderFor(q, col, buildOpts{}).apply(q, op, normalizeIDs(v))
}

// ApplyCurrentUser keeps tasks assigned to userID.
func (f *AssigneeFilter) ApplyCurrentUser(ctx context.Context, q queryir.Select, col ir.Column, userID int64) (queryir.Select, error) {
	return f.Apply(ctx, q, col, userID, OpEquals)
}

// ApplyUnassigned keeps tasks with no assignee.
func (f *AssigneeFilter) ApplyUnassigned(ctx context.Context, q queryir.Select, col ir.Column) (queryir.Select, error) {
	return f.Apply(ctx, q, col, nil, OpIsEmpty)
}

// ApplyRole keeps tasks assigned to any user holding role. A role with no
// users matches nothing.
func (f *AssigneeFilter) ApplyRole(ctx context.Context, q queryir.Select, col ir.Column, role string) (queryir.Select, error) {
	check := func() (ir.Value, *ValidationError) {
		role = strings.TrimSpace(role)
		if role == "" {
			return nil, f.invalid(col, OpIn, "role must not be empty")
		}
		if f.directory == nil {
			return nil, f.invalid(col, OpIn, "cannot resolve role: no directory configured")
		}
		ids, err := f.directory.UsersWithRole(ctx, role)
		if err != nil {
			return nil, f.invalid(col, OpIn, fmt.Sprintf("resolving role %q: %v", role, err))
		}
		out := make(ir.Array, len(ids))
		for i, id := range ids {
			out[i] = ir.Number(id)
		}
		return out, nil
	}
	build := func(q queryir.Select, col ir.Column, v ir.Value, _ Operator) (queryir.Select, error) {
		if len(v.(ir.Array)) == 0 {
			return q.With(queryir.Or{}), nil
		}
		return builderFor(q, col, buildOpts{}).apply(q, OpIn, v)
	}
	return f.applyChecked(ctx, q, col, role, OpIn, check, build)
}
