package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/natefinch/atomic"
	"github.com/spf13/cobra"

	"github.com/roach88/taskboard/internal/engine"
	"github.com/roach88/taskboard/internal/filter"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
	Filter string // saved filter set on the board
	Strict bool   // fail when any triple is rejected
}

// CompilationResult is the compiled query.
type CompilationResult struct {
	Dialect string    `json:"dialect"`
	SQL     string    `json:"sql"`
	Params  []any     `json:"params"`
	Applied int       `json:"applied"`
	Dropped []Problem `json:"dropped,omitempty"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <board> [filters]",
		Short: "Compile filter triples to SQL",
		Long: `Compile a filter file, or a saved filter set on the board, to a SQL query
for the configured dialect.

Rejected triples are left out of the query and listed; with --strict they
fail the command instead.`,
		Example: `  taskfilter compile board.yaml filters.yaml
  taskfilter compile board.cue --filter "open work" -o query.json
  taskfilter --format json compile board.jsonc filters.jsonc`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			filtersPath := ""
			if len(args) == 2 {
				filtersPath = args[1]
			}
			return runCompile(cmd.Context(), opts, args[0], filtersPath, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "name of a saved filter set on the board")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "fail if any triple is rejected")

	return cmd
}

func runCompile(ctx context.Context, opts *CompileOptions, boardPath, filtersPath string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	b, err := loadBoard(formatter, boardPath)
	if err != nil {
		return err
	}
	triples, err := selectTriples(formatter, b, filtersPath, opts.Filter)
	if err != nil {
		return err
	}

	eng, err := opts.newEngine(engine.WithFilterOptions(filter.WithDirectory(filter.TrustingDirectory{})))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to build engine", err)
	}

	plan, err := eng.Plan(ctx, b, triples)
	if err != nil {
		return reportRuntimeError(formatter, err)
	}

	result := CompilationResult{
		Dialect: opts.Config.Dialect,
		SQL:     plan.SQL,
		Params:  plan.Params,
		Applied: len(plan.Applied),
		Dropped: droppedProblems(plan.Dropped),
	}
	if result.Params == nil {
		result.Params = []any{}
	}

	if opts.Strict && len(result.Dropped) > 0 {
		return reportProblems(formatter, fmt.Sprintf("%d triple(s) rejected", len(result.Dropped)), result.Dropped)
	}

	if opts.Output != "" {
		if err := writeResult(result, opts.Output); err != nil {
			_ = formatter.Error("E007", fmt.Sprintf("writing output file: %v", err), nil)
			return WrapExitError(ExitCommandError, "write failed", err)
		}
	}

	return outputCompileSuccess(formatter, result, opts.Output)
}

func outputCompileSuccess(formatter *OutputFormatter, result CompilationResult, outputFile string) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "%s\n", result.SQL)
	if len(result.Params) > 0 {
		fmt.Fprintf(formatter.Writer, "-- params: %v\n", result.Params)
	}
	for _, p := range result.Dropped {
		fmt.Fprintf(formatter.Writer, "-- dropped %s [%s]: %s\n", p.Field, p.Code, p.Message)
	}
	if outputFile != "" {
		fmt.Fprintf(formatter.Writer, "Wrote query to %s\n", outputFile)
	}
	return nil
}

// writeResult replaces the output file atomically.
func writeResult(result CompilationResult, filename string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling query: %w", err)
	}
	data = append(data, '\n')
	if err := atomic.WriteFile(filename, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	return nil
}

// reportRuntimeError prints an engine failure. Column and quota errors are
// caller mistakes (ExitFailure); anything else is a command error.
func reportRuntimeError(f *OutputFormatter, err error) error {
	re, ok := engine.AsRuntimeError(err)
	if !ok {
		_ = f.Error("E001", err.Error(), nil)
		return WrapExitError(ExitCommandError, "evaluation failed", err)
	}

	var details any
	if re.Column != "" {
		details = map[string]string{"column": re.Column}
	}
	_ = f.Error(string(re.Code), re.Error(), details)

	switch re.Code {
	case engine.ErrCodeUnknownColumn, engine.ErrCodeTooManyTriples, engine.ErrCodeSavedFilterNotFound:
		return WrapExitError(ExitFailure, string(re.Code), err)
	default:
		return WrapExitError(ExitCommandError, string(re.Code), err)
	}
}
