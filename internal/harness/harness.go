package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/roach88/taskboard/internal/board"
	"github.com/roach88/taskboard/internal/config"
	"github.com/roach88/taskboard/internal/engine"
	"github.com/roach88/taskboard/internal/filter"
	"github.com/roach88/taskboard/internal/ir"
	"github.com/roach88/taskboard/internal/store"
	"github.com/roach88/taskboard/internal/testutil"
)

// Harness is the scenario execution context.
type Harness struct {
	store  *store.Store
	engine *engine.Engine
	board  *board.Board
	clock  *testutil.FixedClock
	logger *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh SQLite file in a temporary directory;
// the store requires WAL mode, which in-memory databases do not support.
// Expectation mismatches are reported in Result.Errors. The returned error
// is reserved for scenarios that cannot run at all.
func Run(scenario *Scenario) (*Result, error) {
	b, err := board.Load(scenario.Board)
	if err != nil {
		return nil, fmt.Errorf("failed to load board: %w", err)
	}

	dir, err := os.MkdirTemp("", "taskfilter-scenario-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create scenario dir: %w", err)
	}
	defer os.RemoveAll(dir)

	st, err := store.Open(filepath.Join(dir, "scenario.db"))
	if err != nil {
		return nil, fmt.Errorf("failed to create store: %w", err)
	}
	defer st.Close()

	h, err := newHarness(scenario, st, b)
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	if err := h.executeSetup(ctx, scenario.Setup); err != nil {
		return nil, fmt.Errorf("failed to execute setup: %w", err)
	}

	result := NewResult()
	for _, step := range scenario.Steps {
		got, err := h.executeStep(ctx, step)
		if err != nil {
			return nil, fmt.Errorf("step %q: %w", step.Name, err)
		}
		result.Steps = append(result.Steps, got)
		for _, mismatch := range checkStep(step, got) {
			result.AddError(mismatch.Error())
		}
	}
	return result, nil
}

func newHarness(scenario *Scenario, st *store.Store, b *board.Board) (*Harness, error) {
	now := time.Now().UTC()
	if scenario.Now != "" {
		t, _, err := filter.ParseDate(scenario.Now)
		if err != nil {
			return nil, fmt.Errorf("now: %w", err)
		}
		now = t
	}
	weekStart := time.Monday
	if scenario.WeekStart != "" {
		day, err := config.ParseWeekday(scenario.WeekStart)
		if err != nil {
			return nil, fmt.Errorf("week_start: %w", err)
		}
		weekStart = day
	}

	h := &Harness{
		store:  st,
		board:  b,
		clock:  testutil.NewFixedClock(now),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	eng, err := engine.New(
		engine.WithStore(st),
		engine.WithLogger(h.logger),
		engine.WithFilterOptions(filter.WithClock(h.clock), filter.WithWeekStart(weekStart)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}
	h.engine = eng
	return h, nil
}

// executeSetup persists the board's columns and seeds users, labels and
// tasks in that order so foreign keys resolve.
func (h *Harness) executeSetup(ctx context.Context, setup Setup) error {
	if err := h.store.SaveColumns(ctx, h.board.Columns); err != nil {
		return err
	}
	for _, u := range setup.Users {
		if err := h.store.CreateUser(ctx, u.ID, u.Name, u.Role); err != nil {
			return err
		}
	}
	for _, l := range setup.Labels {
		if err := h.store.CreateLabel(ctx, l.ID, l.Name); err != nil {
			return err
		}
	}

	for i, seed := range setup.Tasks {
		task := store.Task{ID: seed.ID, Fields: make(map[string]ir.Value, len(seed.Fields))}
		for name, raw := range seed.Fields {
			v, err := ir.FromAny(raw)
			if err != nil {
				return fmt.Errorf("tasks[%d].fields.%s: %w", i, name, err)
			}
			task.Fields[name] = v
		}
		if err := h.store.CreateTask(ctx, task); err != nil {
			return err
		}

		for ref, raw := range seed.Values {
			col, ok := h.board.Resolve(ref)
			if !ok {
				return fmt.Errorf("tasks[%d].values: unknown column %q", i, ref)
			}
			if !col.IsEAV() {
				return fmt.Errorf("tasks[%d].values: column %q is native, use fields", i, ref)
			}
			v, err := ir.FromAny(raw)
			if err != nil {
				return fmt.Errorf("tasks[%d].values.%s: %w", i, ref, err)
			}
			fv := ir.FieldValue{TaskID: seed.ID, ColumnID: col.ID, Value: v}
			if err := h.store.SetFieldValue(ctx, fv); err != nil {
				return err
			}
		}

		for _, label := range seed.Labels {
			if err := h.store.AddTaskLabel(ctx, seed.ID, label); err != nil {
				return err
			}
		}
	}

	h.logger.Info("scenario seeded",
		"users", len(setup.Users),
		"labels", len(setup.Labels),
		"tasks", len(setup.Tasks),
	)
	return nil
}

// executeStep evaluates one step. Runtime errors from the engine become
// part of the step result; anything else aborts the scenario.
func (h *Harness) executeStep(ctx context.Context, step Step) (StepResult, error) {
	got := StepResult{Name: step.Name, Tasks: []int64{}}

	triples := step.Where
	if step.Filter != "" {
		fs, ok := h.board.FilterSet(step.Filter)
		if !ok {
			return got, fmt.Errorf("board %q has no filter set %q", h.board.Name, step.Filter)
		}
		triples = fs.Where
	}

	var res *engine.Result
	var err error
	if step.Saved {
		got.SavedID, err = h.engine.SaveFilterSet(ctx, board.FilterSet{Name: step.Name, Where: triples})
		if err != nil {
			return got, err
		}
		res, err = h.engine.EvaluateSaved(ctx, h.board, got.SavedID)
	} else {
		res, err = h.engine.Evaluate(ctx, h.board, triples)
	}

	if err != nil {
		rerr, ok := engine.AsRuntimeError(err)
		if !ok {
			return got, err
		}
		got.Error = string(rerr.Code)
		return got, nil
	}

	got.SQL = res.SQL
	got.Params = res.Params
	got.Tasks = append(got.Tasks, res.TaskIDs...)
	for _, d := range res.Dropped {
		got.Dropped = append(got.Dropped, fmt.Sprintf("%s %s %s", d.Code, d.Column, d.Operator))
	}

	h.logger.Info("scenario step evaluated",
		"step", step.Name,
		"matches", len(got.Tasks),
		"dropped", len(got.Dropped),
	)
	return got, nil
}
