package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/taskboard/internal/board"
	"github.com/roach88/taskboard/internal/engine"
	"github.com/roach88/taskboard/internal/filter"
	"github.com/roach88/taskboard/internal/ir"
)

// ValidationResult summarizes a valid board.
type ValidationResult struct {
	Valid      bool   `json:"valid"`
	Board      string `json:"board"`
	Columns    int    `json:"columns"`
	FilterSets int    `json:"filter_sets"`
	Triples    int    `json:"triples"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <board> [filters]",
		Short: "Check a board and its filters without a database",
		Long: `Check a board definition, its saved filters and an optional filter file.

Every triple is run through the filter for its column's type, so unknown
operators and malformed values are reported along with board problems.
Referenced users and labels are not checked: there is no database.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			filtersPath := ""
			if len(args) == 2 {
				filtersPath = args[1]
			}
			return runValidate(cmd.Context(), rootOpts, args[0], filtersPath, cmd)
		},
	}
}

func runValidate(ctx context.Context, opts *RootOptions, boardPath, filtersPath string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	b, err := loadBoard(formatter, boardPath)
	if err != nil {
		return err
	}
	triples, err := selectTriples(formatter, b, filtersPath, "")
	if err != nil {
		return err
	}

	eng, err := opts.newEngine(engine.WithFilterOptions(filter.WithDirectory(filter.TrustingDirectory{})))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to build engine", err)
	}

	sets := append([]board.FilterSet(nil), b.Filters...)
	if filtersPath != "" {
		sets = append(sets, board.FilterSet{Name: filtersPath, Where: triples})
	}

	var problems []Problem
	count := 0
	for _, fs := range sets {
		formatter.VerboseLog("Checking filter %q: %d triple(s)", fs.Name, len(fs.Where))
		count += len(fs.Where)
		found, err := checkTriples(ctx, eng, b, fs.Name, fs.Where)
		if err != nil {
			return err
		}
		problems = append(problems, found...)
	}

	if len(problems) > 0 {
		return reportProblems(formatter, fmt.Sprintf("%d triple(s) would be rejected", len(problems)), problems)
	}

	result := ValidationResult{
		Valid:      true,
		Board:      b.Name,
		Columns:    len(b.Columns),
		FilterSets: len(b.Filters),
		Triples:    count,
	}
	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "✓ Board %q is valid: %d column(s), %d saved filter(s), %d triple(s)\n",
		result.Board, result.Columns, result.FilterSets, result.Triples)
	return nil
}

func checkTriples(ctx context.Context, eng *engine.Engine, b *board.Board, name string, triples []ir.Triple) ([]Problem, error) {
	plan, err := eng.Plan(ctx, b, triples)
	if err != nil {
		if re, ok := engine.AsRuntimeError(err); ok {
			return []Problem{{Field: name, Code: string(re.Code), Message: re.Error()}}, nil
		}
		return nil, WrapExitError(ExitCommandError, "planning failed", err)
	}

	problems := droppedProblems(plan.Dropped)
	for i := range problems {
		problems[i].Field = fmt.Sprintf("%s: %s", name, problems[i].Field)
	}
	return problems, nil
}
