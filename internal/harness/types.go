package harness

// StepResult is what one step actually produced.
type StepResult struct {
	Name    string   `json:"name"`
	SQL     string   `json:"sql,omitempty"`
	Params  []any    `json:"params,omitempty"`
	Tasks   []int64  `json:"tasks"`
	Dropped []string `json:"dropped,omitempty"` // "<code> <column> <operator>"
	SavedID string   `json:"saved_id,omitempty"`

	// Error is the runtime error code when the step failed.
	Error string `json:"error,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every step matched its expect clause.
	Pass bool `json:"pass"`

	Steps []StepResult `json:"steps"`

	// Errors contains expectation mismatches. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Steps:  []StepResult{},
		Errors: []string{},
	}
}

// AddError adds a mismatch and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
