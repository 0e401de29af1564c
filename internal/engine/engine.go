package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/taskboard/internal/board"
	"github.com/roach88/taskboard/internal/filter"
	"github.com/roach88/taskboard/internal/ir"
	"github.com/roach88/taskboard/internal/queryir"
	"github.com/roach88/taskboard/internal/querysql"
	"github.com/roach88/taskboard/internal/store"
)

// DefaultMaxTriples is the default maximum number of triples per request.
const DefaultMaxTriples = 100

// TasksTable is the table every evaluation selects from.
const TasksTable = "tasks"

// Engine evaluates filter requests. Safe for concurrent use: it holds no
// per-request state.
type Engine struct {
	store      *store.Store
	table      *filter.Table
	compiler   *querysql.SQLCompiler
	logger     *slog.Logger
	dialect    string
	filterOpts []filter.Option
	maxTriples int

	// perRequest is set when the table is built from the store; Plan then
	// builds a fresh table over a MemoDirectory for each request.
	perRequest bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithStore sets the store queries run against. The store is also the
// filters' entity directory unless WithTable supplies a table; lookups are
// memoized for the duration of one request.
func WithStore(s *store.Store) Option {
	return func(e *Engine) {
		e.store = s
	}
}

// WithTable overrides the filter dispatch table.
func WithTable(t *filter.Table) Option {
	return func(e *Engine) {
		e.table = t
	}
}

// WithFilterOptions passes options to the default filter table.
// Ignored when WithTable is used.
func WithFilterOptions(opts ...filter.Option) Option {
	return func(e *Engine) {
		e.filterOpts = append(e.filterOpts, opts...)
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithDialect selects the SQL dialect by name. Default: the store's
// dialect, or sqlite without a store.
func WithDialect(name string) Option {
	return func(e *Engine) {
		e.dialect = name
	}
}

// WithMaxTriples sets the per-request triple quota.
//
// Default: 100 triples (DefaultMaxTriples)
func WithMaxTriples(n int) Option {
	return func(e *Engine) {
		e.maxTriples = n
	}
}

// New creates an Engine. Without WithStore the engine can plan and compile
// queries but Evaluate fails.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		logger:     slog.Default(),
		maxTriples: DefaultMaxTriples,
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.dialect == "" {
		e.dialect = "sqlite"
		if e.store != nil {
			e.dialect = e.store.Dialect()
		}
	}
	d, err := querysql.DialectByName(e.dialect)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	e.compiler = querysql.NewSQLCompiler(d)

	if e.table == nil {
		var dir filter.Directory
		if e.store != nil {
			dir = e.store
			e.perRequest = true
		}
		e.table = e.newTable(dir)
	}
	return e, nil
}

// newTable builds the default table. filterOpts come last so callers can
// replace the directory.
func (e *Engine) newTable(dir filter.Directory) *filter.Table {
	fopts := []filter.Option{filter.WithLogger(e.logger)}
	if dir != nil {
		fopts = append(fopts, filter.WithDirectory(dir))
	}
	return filter.NewTable(append(fopts, e.filterOpts...)...)
}

// requestTable returns the table for one Plan call.
func (e *Engine) requestTable() *filter.Table {
	if !e.perRequest {
		return e.table
	}
	return e.newTable(filter.NewMemoDirectory(e.store))
}

// Table returns the engine's filter dispatch table.
func (e *Engine) Table() *filter.Table {
	return e.table
}

// Plan is a compiled filter request.
type Plan struct {
	Query   queryir.Select
	SQL     string
	Params  []any
	Applied []ir.Triple
	Dropped []*filter.ValidationError
}

// Result is an executed Plan.
type Result struct {
	Plan
	TaskIDs []int64
}

// Plan resolves, filters and compiles triples without running the query.
//
// Triples are applied in order; a rejected triple is recorded in Dropped
// and leaves the query unchanged. Column resolution failures abort.
func (e *Engine) Plan(ctx context.Context, b *board.Board, triples []ir.Triple) (*Plan, error) {
	if len(triples) > e.maxTriples {
		e.logger.Error("triple quota exceeded",
			"board", b.Name,
			"triples", len(triples),
			"max_triples", e.maxTriples,
		)
		return nil, NewQuotaError(len(triples), e.maxTriples)
	}

	table := e.requestTable()
	plan := &Plan{Query: queryir.NewSelect(TasksTable)}
	for _, t := range triples {
		col, ok := b.Resolve(t.Column)
		if !ok {
			return nil, NewUnknownColumnError(t.Column, b.Name)
		}

		f, err := table.For(col.Type)
		if err != nil {
			return nil, &RuntimeError{
				Code:    ErrCodeUnknownType,
				Message: fmt.Sprintf("column type %q has no filter", col.Type),
				Column:  t.Column,
				Err:     err,
			}
		}

		q, err := f.Apply(ctx, plan.Query, col, t.Value, filter.Operator(t.Operator))
		if err != nil {
			ve, ok := filter.AsValidationError(err)
			if !ok {
				return nil, fmt.Errorf("apply %s filter to %q: %w", col.Type, col.Name, err)
			}
			plan.Dropped = append(plan.Dropped, ve)
			continue
		}
		plan.Query = q
		plan.Applied = append(plan.Applied, t)
	}

	sqlStr, params, err := e.compiler.Compile(plan.Query)
	if err != nil {
		return nil, &RuntimeError{
			Code:    ErrCodeCompileFailed,
			Message: "could not compile filter query",
			Err:     err,
		}
	}
	plan.SQL = sqlStr
	plan.Params = params

	e.logger.Debug("filter plan compiled",
		"board", b.Name,
		"applied", len(plan.Applied),
		"dropped", len(plan.Dropped),
		"sql", sqlStr,
	)
	return plan, nil
}

// Evaluate plans the triples and runs the query against the store.
func (e *Engine) Evaluate(ctx context.Context, b *board.Board, triples []ir.Triple) (*Result, error) {
	if e.store == nil {
		return nil, errors.New("engine: no store configured")
	}

	plan, err := e.Plan(ctx, b, triples)
	if err != nil {
		return nil, err
	}

	ids, err := e.store.TaskIDs(ctx, plan.SQL, plan.Params)
	if err != nil {
		return nil, &RuntimeError{
			Code:    ErrCodeQueryFailed,
			Message: "filter query failed",
			Err:     err,
		}
	}

	e.logger.Info("filter evaluated",
		"board", b.Name,
		"matches", len(ids),
		"dropped", len(plan.Dropped),
	)
	return &Result{Plan: *plan, TaskIDs: ids}, nil
}

// EvaluateSaved evaluates a saved filter by id.
func (e *Engine) EvaluateSaved(ctx context.Context, b *board.Board, id string) (*Result, error) {
	if e.store == nil {
		return nil, errors.New("engine: no store configured")
	}

	saved, err := e.store.SavedFilter(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, &RuntimeError{
			Code:    ErrCodeSavedFilterNotFound,
			Message: fmt.Sprintf("no saved filter %q", id),
			Err:     err,
		}
	}
	if err != nil {
		return nil, fmt.Errorf("load saved filter %s: %w", id, err)
	}

	e.logger.Debug("evaluating saved filter",
		"id", saved.ID,
		"name", saved.Name,
		"fingerprint", saved.Fingerprint,
	)
	return e.Evaluate(ctx, b, saved.Triples)
}

// SaveFilterSet stores a board's named filter set and returns its id.
// Saving an identical triple list again returns the existing id.
func (e *Engine) SaveFilterSet(ctx context.Context, fs board.FilterSet) (string, error) {
	if e.store == nil {
		return "", errors.New("engine: no store configured")
	}
	saved, err := e.store.SaveFilter(ctx, fs.Name, fs.Where)
	if err != nil {
		return "", fmt.Errorf("save filter %q: %w", fs.Name, err)
	}
	return saved.ID, nil
}
