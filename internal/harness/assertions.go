package harness

import (
	"fmt"
	"slices"
	"strings"
)

// ExpectationError describes one step whose outcome differs from its
// expect clause.
type ExpectationError struct {
	Step     string
	Check    string // "tasks", "dropped" or "error"
	Expected string
	Actual   string
}

func (e *ExpectationError) Error() string {
	return fmt.Sprintf("step %q: %s: expected %s, got %s", e.Step, e.Check, e.Expected, e.Actual)
}

// checkStep compares a step's outcome with its expect clause.
func checkStep(step Step, got StepResult) []error {
	var errs []error
	want := step.Expect

	if got.Error != want.Error {
		errs = append(errs, &ExpectationError{
			Step:     step.Name,
			Check:    "error",
			Expected: orNone(want.Error),
			Actual:   orNone(got.Error),
		})
		return errs
	}
	if want.Error != "" {
		return nil
	}

	if want.Tasks != nil && !slices.Equal(*want.Tasks, got.Tasks) {
		errs = append(errs, &ExpectationError{
			Step:     step.Name,
			Check:    "tasks",
			Expected: formatIDs(*want.Tasks),
			Actual:   formatIDs(got.Tasks),
		})
	}

	// Dropped expectations list codes only, in triple order.
	codes := make([]string, len(got.Dropped))
	for i, d := range got.Dropped {
		codes[i], _, _ = strings.Cut(d, " ")
	}
	if !slices.Equal(want.Dropped, codes) {
		errs = append(errs, &ExpectationError{
			Step:     step.Name,
			Check:    "dropped",
			Expected: "[" + strings.Join(want.Dropped, ", ") + "]",
			Actual:   "[" + strings.Join(codes, ", ") + "]",
		})
	}
	return errs
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
