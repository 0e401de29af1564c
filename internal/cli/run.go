package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/taskboard/internal/board"
	"github.com/roach88/taskboard/internal/engine"
	"github.com/roach88/taskboard/internal/ir"
	"github.com/roach88/taskboard/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database string
	Filter   string // saved filter set on the board
	Saved    string // saved filter id in the database
	Save     bool   // store the evaluated triples as a saved filter
}

// RunResult is the outcome of evaluating a filter against a database.
type RunResult struct {
	TaskIDs []int64   `json:"task_ids"`
	Count   int       `json:"count"`
	SQL     string    `json:"sql"`
	Dropped []Problem `json:"dropped,omitempty"`
	SavedID string    `json:"saved_id,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <board> [filters]",
		Short: "Evaluate filters against a task database",
		Long: `Evaluate a filter file, a saved filter set on the board, or a filter saved
in the database, and print the ids of matching tasks.

The database is a SQLite file; it is created with an empty schema if it
does not exist.`,
		Example: `  taskfilter run --db tasks.db board.yaml filters.yaml
  taskfilter run --db tasks.db board.yaml --filter "open work" --save
  taskfilter run --db tasks.db board.yaml --saved 6f1c...`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			filtersPath := ""
			if len(args) == 2 {
				filtersPath = args[1]
			}
			return runFilters(cmd.Context(), opts, args[0], filtersPath, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from config)")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "name of a saved filter set on the board")
	cmd.Flags().StringVar(&opts.Saved, "saved", "", "id of a filter saved in the database")
	cmd.Flags().BoolVar(&opts.Save, "save", false, "save the evaluated triples in the database")

	return cmd
}

func runFilters(ctx context.Context, opts *RunOptions, boardPath, filtersPath string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	if opts.Saved != "" && (filtersPath != "" || opts.Filter != "" || opts.Save) {
		_ = formatter.Error(ErrCodeUsage, "--saved cannot be combined with a filter file, --filter or --save", nil)
		return NewExitError(ExitCommandError, "conflicting filter sources")
	}

	b, err := loadBoard(formatter, boardPath)
	if err != nil {
		return err
	}

	var triples []ir.Triple
	if opts.Saved == "" {
		if triples, err = selectTriples(formatter, b, filtersPath, opts.Filter); err != nil {
			return err
		}
	}

	dbPath := opts.Config.DBPath
	opts.Logger.Info("opening database", "path", dbPath)
	st, err := store.Open(dbPath)
	if err != nil {
		_ = formatter.Error("E005", fmt.Sprintf("opening database %s: %v", dbPath, err), nil)
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	eng, err := opts.newEngine(engine.WithStore(st), engine.WithDialect(st.Dialect()))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to build engine", err)
	}

	var res *engine.Result
	if opts.Saved != "" {
		res, err = eng.EvaluateSaved(ctx, b, opts.Saved)
	} else {
		res, err = eng.Evaluate(ctx, b, triples)
	}
	if err != nil {
		return reportRuntimeError(formatter, err)
	}

	result := RunResult{
		TaskIDs: res.TaskIDs,
		Count:   len(res.TaskIDs),
		SQL:     res.SQL,
		Dropped: droppedProblems(res.Dropped),
	}
	if result.TaskIDs == nil {
		result.TaskIDs = []int64{}
	}

	if opts.Save {
		name := opts.Filter
		if name == "" {
			name = filtersPath
		}
		id, err := eng.SaveFilterSet(ctx, board.FilterSet{Name: name, Where: triples})
		if err != nil {
			_ = formatter.Error("E008", err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to save filter", err)
		}
		result.SavedID = id
	}

	return outputRunSuccess(formatter, result)
}

func outputRunSuccess(formatter *OutputFormatter, result RunResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	ids := make([]string, len(result.TaskIDs))
	for i, id := range result.TaskIDs {
		ids[i] = fmt.Sprint(id)
	}
	fmt.Fprintf(formatter.Writer, "%d task(s) match", result.Count)
	if result.Count > 0 {
		fmt.Fprintf(formatter.Writer, ": %s", strings.Join(ids, ", "))
	}
	fmt.Fprintln(formatter.Writer)

	for _, p := range result.Dropped {
		fmt.Fprintf(formatter.Writer, "  dropped %s [%s]: %s\n", p.Field, p.Code, p.Message)
	}
	if result.SavedID != "" {
		fmt.Fprintf(formatter.Writer, "Saved filter %s\n", result.SavedID)
	}
	formatter.VerboseLog("SQL: %s", result.SQL)
	return nil
}
