package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/taskboard/internal/config"
	"github.com/roach88/taskboard/internal/filter"
	"github.com/roach88/taskboard/internal/ir"
)

// Scenario defines a filter conformance scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Board is the board file to load. LoadScenario resolves it relative
	// to the scenario file.
	Board string `yaml:"board"`

	// Now fixes the clock used by relative date ranges (YYYY-MM-DD or a
	// full timestamp). Empty means the real clock.
	Now string `yaml:"now,omitempty"`

	// WeekStart is the first day of the week for week ranges.
	// Defaults to monday.
	WeekStart string `yaml:"week_start,omitempty"`

	Setup Setup  `yaml:"setup"`
	Steps []Step `yaml:"steps"`
}

// Setup seeds the database before any step runs.
type Setup struct {
	Users  []User     `yaml:"users,omitempty"`
	Labels []Label    `yaml:"labels,omitempty"`
	Tasks  []TaskSeed `yaml:"tasks,omitempty"`
}

type User struct {
	ID   int64  `yaml:"id"`
	Name string `yaml:"name"`
	Role string `yaml:"role,omitempty"`
}

type Label struct {
	ID   int64  `yaml:"id"`
	Name string `yaml:"name"`
}

// TaskSeed is one task row plus its EAV values and label links.
type TaskSeed struct {
	ID int64 `yaml:"id"`

	// Fields holds native columns keyed by tasks column name.
	Fields map[string]any `yaml:"fields,omitempty"`

	// Values holds EAV values keyed by any column reference the board
	// resolves (name, id or cf_<id>).
	Values map[string]any `yaml:"values,omitempty"`

	Labels []int64 `yaml:"labels,omitempty"`
}

// Step evaluates one filter and checks the outcome.
type Step struct {
	Name string `yaml:"name"`

	// Filter names a board filter set. Mutually exclusive with Where.
	Filter string `yaml:"filter,omitempty"`

	// Where lists inline triples.
	Where []ir.Triple `yaml:"where,omitempty"`

	// Saved stores the triples first and evaluates them by saved id.
	Saved bool `yaml:"saved,omitempty"`

	Expect Expect `yaml:"expect"`
}

// Expect is the outcome a step must produce. A nil Tasks skips the match
// check; Error set means the step must fail with that runtime error code.
type Expect struct {
	Tasks   *[]int64 `yaml:"tasks,omitempty"`
	Dropped []string `yaml:"dropped,omitempty"`
	Error   string   `yaml:"error,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file.
// Unknown keys are rejected so typos surface as errors.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Board != "" && !filepath.IsAbs(scenario.Board) {
		scenario.Board = filepath.Join(filepath.Dir(path), scenario.Board)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Board == "" {
		return fmt.Errorf("board is required")
	}
	if _, err := os.Stat(s.Board); os.IsNotExist(err) {
		return fmt.Errorf("board file not found: %s", s.Board)
	}
	if s.Now != "" {
		if _, _, err := filter.ParseDate(s.Now); err != nil {
			return fmt.Errorf("now: %w", err)
		}
	}
	if s.WeekStart != "" {
		if _, err := config.ParseWeekday(s.WeekStart); err != nil {
			return fmt.Errorf("week_start: %w", err)
		}
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	seen := make(map[int64]bool)
	for i, task := range s.Setup.Tasks {
		if task.ID <= 0 {
			return fmt.Errorf("setup.tasks[%d]: id must be positive", i)
		}
		if seen[task.ID] {
			return fmt.Errorf("setup.tasks[%d]: duplicate task id %d", i, task.ID)
		}
		seen[task.ID] = true
	}

	names := make(map[string]bool)
	for i, step := range s.Steps {
		if step.Name == "" {
			return fmt.Errorf("steps[%d]: name is required", i)
		}
		if names[step.Name] {
			return fmt.Errorf("steps[%d]: duplicate step name %q", i, step.Name)
		}
		names[step.Name] = true
		if step.Filter != "" && len(step.Where) > 0 {
			return fmt.Errorf("steps[%d]: filter and where are mutually exclusive", i)
		}
		if step.Filter == "" && len(step.Where) == 0 {
			return fmt.Errorf("steps[%d]: filter or where is required", i)
		}
		if step.Expect.Error != "" && (step.Expect.Tasks != nil || len(step.Expect.Dropped) > 0) {
			return fmt.Errorf("steps[%d].expect: error excludes tasks and dropped", i)
		}
	}
	return nil
}
