package filter

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/taskboard/internal/ir"
	"github.com/roach88/taskboard/internal/queryir"
)

// Filter is the contract every column-type filter implements.
type Filter interface {
	// Apply narrows q by the triple (col, op, value). It never fails for
	// well-formed inputs: an invalid triple returns q unmodified together
	// with a *ValidationError.
	Apply(ctx context.Context, q queryir.Select, col ir.Column, value any, op Operator) (queryir.Select, error)

	// SupportedOperators returns the type's closed operator vocabulary.
	SupportedOperators() []Operator

	// Validate reports whether (value, op) is acceptable for col.
	Validate(ctx context.Context, col ir.Column, value any, op Operator) bool

	// ValidationError returns a human-readable diagnostic for (value, op),
	// or "" when the pair is valid.
	ValidationError(ctx context.Context, col ir.Column, value any, op Operator) string
}

// typeHooks is what each concrete filter supplies to core.
type typeHooks interface {
	// name is the filter family used in logs and errors.
	name() string

	// operators is the closed vocabulary.
	operators() opSet

	// validateSpecific checks a non-null value for a non-null-tolerant
	// operator that is already known to be supported.
	validateSpecific(ctx context.Context, col ir.Column, v ir.Value, op Operator) error

	// applyFilter builds the narrowed query for a validated triple.
	applyFilter(q queryir.Select, col ir.Column, v ir.Value, op Operator) (queryir.Select, error)
}

// core implements the parts of Filter that are identical for every type.
// Concrete filters embed it and pass themselves as impl.
type core struct {
	impl   typeHooks
	logger *slog.Logger
}

func newCore(impl typeHooks, o options) core {
	return core{impl: impl, logger: o.logger}
}

// Apply logs the attempt, validates, and delegates to the type's
// applyFilter. On rejection the input query is returned as-is.
func (c core) Apply(ctx context.Context, q queryir.Select, col ir.Column, value any, op Operator) (queryir.Select, error) {
	return c.applyWith(ctx, q, col, value, op, c.impl.applyFilter)
}

// applyWith runs the template with a custom predicate construction step.
// Convenience filters (range, has-all, count) use it so they share logging,
// validation and the no-partial-mutation guarantee.
func (c core) applyWith(
	ctx context.Context, q queryir.Select, col ir.Column, value any, op Operator,
	build buildFunc,
) (queryir.Select, error) {
	check := func() (ir.Value, *ValidationError) { return c.check(ctx, col, value, op) }
	return c.applyChecked(ctx, q, col, value, op, check, build)
}

type buildFunc func(q queryir.Select, col ir.Column, v ir.Value, op Operator) (queryir.Select, error)

// applyChecked is applyWith with a caller-supplied validation step, for
// conveniences whose value is not a plain operand (a role, a count).
func (c core) applyChecked(
	ctx context.Context, q queryir.Select, col ir.Column, value any, op Operator,
	check func() (ir.Value, *ValidationError), build buildFunc,
) (queryir.Select, error) {
	c.logger.DebugContext(ctx, "applying filter",
		"filter", c.impl.name(),
		"column", col.Name,
		"operator", op,
		"value", value,
	)

	v, verr := check()
	if verr != nil {
		return q, c.reject(ctx, verr)
	}

	out, err := build(q, col, v, op)
	if err != nil {
		return q, c.reject(ctx, c.invalid(col, op, err.Error()))
	}
	return out, nil
}

func (c core) reject(ctx context.Context, verr *ValidationError) error {
	c.logger.WarnContext(ctx, "filter rejected",
		"filter", verr.Filter,
		"column", verr.Column,
		"operator", verr.Operator,
		"code", verr.Code,
		"reason", verr.Message,
	)
	return verr
}

// SupportedOperators returns a copy of the vocabulary.
func (c core) SupportedOperators() []Operator {
	return append([]Operator(nil), c.impl.operators()...)
}

// Validate reports whether (value, op) is acceptable.
func (c core) Validate(ctx context.Context, col ir.Column, value any, op Operator) bool {
	_, verr := c.check(ctx, col, value, op)
	return verr == nil
}

// ValidationError returns the diagnostic for (value, op), "" when valid.
func (c core) ValidationError(ctx context.Context, col ir.Column, value any, op Operator) string {
	if _, verr := c.check(ctx, col, value, op); verr != nil {
		return verr.Message
	}
	return ""
}

// check is the shared validation gate:
//  1. operator must be in the vocabulary
//  2. value must be representable as ir.Value
//  3. null-tolerant operators accept anything
//  4. other operators reject null
//  5. otherwise the type decides
func (c core) check(ctx context.Context, col ir.Column, value any, op Operator) (ir.Value, *ValidationError) {
	ops := c.impl.operators()
	if !ops.has(op) {
		return nil, &ValidationError{
			Code:     CodeUnsupportedOperator,
			Filter:   c.impl.name(),
			Column:   col.Name,
			Operator: op,
			Message:  fmt.Sprintf("operator %q is not supported (supported: %s)", op, ops),
		}
	}

	v, err := ir.FromAny(value)
	if err != nil {
		return nil, c.invalid(col, op, err.Error())
	}

	if nullTolerant(op) {
		return v, nil
	}
	if ir.IsNull(v) {
		return nil, c.invalid(col, op, fmt.Sprintf("operator %q requires a value", op))
	}

	if err := c.impl.validateSpecific(ctx, col, v, op); err != nil {
		return nil, c.invalid(col, op, err.Error())
	}
	return v, nil
}

func (c core) invalid(col ir.Column, op Operator, msg string) *ValidationError {
	return &ValidationError{
		Code:     CodeInvalidValue,
		Filter:   c.impl.name(),
		Column:   col.Name,
		Operator: op,
		Message:  msg,
	}
}
