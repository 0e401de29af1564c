package harness

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadSprint(t *testing.T) *Scenario {
	t.Helper()
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", "sprint_board.yaml"))
	require.NoError(t, err)
	return s
}

func TestRun_SprintBoard(t *testing.T) {
	result, err := Run(loadSprint(t))
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Empty(t, result.Errors)
	require.Len(t, result.Steps, 7)

	got := make(map[string][]int64, len(result.Steps))
	for _, step := range result.Steps {
		got[step.Name] = step.Tasks
	}
	want := map[string][]int64{
		"open urgent":                       {1, 3},
		"open urgent saved":                 {1, 3},
		"due this week":                     {1, 4},
		"bugs worth more than three points": {1},
		"unassigned":                        {3, 4},
		"invalid status is dropped":         {1, 3},
		"unknown column":                    {},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("matches mismatch (-want +got):\n%s", diff)
	}

	assert.NotEmpty(t, result.Steps[1].SavedID)
	assert.Equal(t, []string{"INVALID_VALUE Status equals"}, result.Steps[5].Dropped)
	assert.Equal(t, "UNKNOWN_COLUMN", result.Steps[6].Error)
}

func TestRun_ReportsMismatches(t *testing.T) {
	s := loadSprint(t)
	wrong := []int64{2}
	s.Steps = []Step{
		{Name: "open urgent", Filter: "open urgent", Expect: Expect{Tasks: &wrong}},
		{Name: "unknown column", Where: s.Steps[6].Where},
	}

	result, err := Run(s)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 2)
	assert.Equal(t, `step "open urgent": tasks: expected [2], got [1, 3]`, result.Errors[0])
	assert.Equal(t, `step "unknown column": error: expected none, got UNKNOWN_COLUMN`, result.Errors[1])
}

func TestRun_UnknownFilterSetAborts(t *testing.T) {
	s := loadSprint(t)
	s.Steps = []Step{{Name: "missing", Filter: "nope"}}

	_, err := Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `board "sprint" has no filter set "nope"`)
}

func TestRun_SetupRejectsNativeValues(t *testing.T) {
	s := loadSprint(t)
	s.Setup.Tasks = []TaskSeed{{ID: 9, Values: map[string]any{"Title": "x"}}}

	_, err := Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `column "Title" is native`)
}
