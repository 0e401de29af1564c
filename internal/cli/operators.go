package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/taskboard/internal/filter"
	"github.com/roach88/taskboard/internal/ir"
)

// TypeOperators is the operator vocabulary of one semantic type.
type TypeOperators struct {
	Type      ir.SemanticType   `json:"type"`
	Kind      string            `json:"kind"`
	Operators []filter.Operator `json:"operators"`
}

// NewOperatorsCommand creates the operators command.
func NewOperatorsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "operators [type]",
		Short: "List the operators each column type accepts",
		Long: `List the operators each semantic column type accepts, in the order
filters check them. With a type argument, list only that type.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOperators(rootOpts, args, cmd)
		},
	}
}

func runOperators(opts *RootOptions, args []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	table := filter.NewTable(filter.WithLogger(opts.Logger))

	types := ir.SemanticTypes
	if len(args) == 1 {
		types = []ir.SemanticType{ir.SemanticType(strings.ToLower(args[0]))}
	}

	result := make([]TypeOperators, 0, len(types))
	for _, st := range types {
		ops, err := table.Operators(st)
		if err != nil {
			_ = formatter.Error("UNKNOWN_TYPE", err.Error(), map[string]any{"known": ir.SemanticTypes})
			return WrapExitError(ExitCommandError, "unknown type", err)
		}
		kind, _ := ir.KindOf(st)
		result = append(result, TypeOperators{Type: st, Kind: kind.String(), Operators: ops})
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	for _, to := range result {
		names := make([]string, len(to.Operators))
		for i, op := range to.Operators {
			names[i] = string(op)
		}
		fmt.Fprintf(formatter.Writer, "%-12s %s\n", to.Type, strings.Join(names, ", "))
	}
	return nil
}
