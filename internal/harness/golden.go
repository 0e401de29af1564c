package harness

import (
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns an error if the scenario cannot run. Snapshot mismatches fail
// the test through goldie.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	AssertGolden(t, scenario.Name, result)
	return result, nil
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, name string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, Snapshot(name, result))
}

// Snapshot renders a result as stable plain text. Saved filter ids are
// random and left out.
func Snapshot(name string, result *Result) []byte {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n", name)
	for _, step := range result.Steps {
		fmt.Fprintf(&sb, "\n## %s\n", step.Name)
		if step.Error != "" {
			fmt.Fprintf(&sb, "error: %s\n", step.Error)
			continue
		}
		fmt.Fprintf(&sb, "sql: %s\n", step.SQL)
		fmt.Fprintf(&sb, "params: %s\n", formatParams(step.Params))
		fmt.Fprintf(&sb, "tasks: %s\n", formatIDs(step.Tasks))
		if step.SavedID != "" {
			sb.WriteString("saved: yes\n")
		}
		for _, d := range step.Dropped {
			fmt.Fprintf(&sb, "dropped: %s\n", d)
		}
	}
	return []byte(sb.String())
}

func formatParams(params []any) string {
	parts := make([]string, len(params))
	for i, p := range params {
		switch v := p.(type) {
		case nil:
			parts[i] = "null"
		case string:
			parts[i] = strconv.Quote(v)
		default:
			parts[i] = fmt.Sprint(v)
		}
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func formatIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
