package cli

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/taskboard/internal/config"
	"github.com/roach88/taskboard/internal/engine"
	"github.com/roach88/taskboard/internal/filter"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string

	// Env replaces the process environment during config resolution when
	// non-nil (for testing).
	Env map[string]string

	// Config is the resolved configuration, set before any subcommand runs.
	Config config.Config

	// Logger writes diagnostics to stderr at the configured level.
	Logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the taskfilter CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "taskfilter",
		Short: "Typed filters for task boards",
		Long: `Validate, compile and run typed filter triples against a task board.

A board file declares the columns tasks carry and where each is stored
(a native tasks column or the field_values table). Filter triples name a
column, an operator and a value; each is checked against the column's
type before it narrows the query.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return resolveConfig(cmd, opts)
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to a JSONC config file")

	cmd.AddCommand(NewOperatorsCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewRunCommand(opts))

	return cmd
}

// resolveConfig merges config layers, with explicitly set flags on top.
func resolveConfig(cmd *cobra.Command, opts *RootOptions) error {
	var overrides config.Config
	if cmd.Flags().Changed("format") {
		if !slices.Contains(ValidFormats, opts.Format) {
			return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
		}
		overrides.Format = opts.Format
	}
	if opts.Verbose {
		overrides.LogLevel = "debug"
	}
	if f := cmd.Flags().Lookup("db"); f != nil && f.Changed {
		overrides.DBPath = f.Value.String()
	}

	cfg, err := config.Load(config.LoadInput{
		Path:      opts.ConfigPath,
		Env:       opts.Env,
		Overrides: overrides,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}

	opts.Config = cfg
	opts.Format = cfg.Format
	opts.Logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	return nil
}

// formatter builds the output formatter for a command.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   o.Verbose,
	}
}

// newEngine builds an engine from the resolved config. extra options are
// applied last.
func (o *RootOptions) newEngine(extra ...engine.Option) (*engine.Engine, error) {
	opts := []engine.Option{
		engine.WithLogger(o.Logger),
		engine.WithDialect(o.Config.Dialect),
		engine.WithMaxTriples(o.Config.MaxTriples),
		engine.WithFilterOptions(filter.WithWeekStart(o.Config.Weekday())),
	}
	return engine.New(append(opts, extra...)...)
}
