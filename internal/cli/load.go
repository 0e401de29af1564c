package cli

import (
	"errors"
	"fmt"

	"github.com/roach88/taskboard/internal/board"
	"github.com/roach88/taskboard/internal/filter"
	"github.com/roach88/taskboard/internal/ir"
)

// Problem is one reported issue with a board, a filter file or a triple.
type Problem struct {
	Field   string `json:"field,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error code for failures outside the board loader's code space.
const ErrCodeUsage = "E900" // Conflicting or missing arguments

// loadBoard loads a board and reports failures. Validation failures exit
// with ExitFailure; unreadable or malformed files with ExitCommandError.
func loadBoard(f *OutputFormatter, path string) (*board.Board, error) {
	b, err := board.Load(path)
	if err == nil {
		f.VerboseLog("Loaded board %q from %s: %d column(s), %d saved filter(s)", b.Name, path, len(b.Columns), len(b.Filters))
		return b, nil
	}

	if ib, ok := board.AsInvalidBoard(err); ok {
		problems := make([]Problem, len(ib.Errors))
		for i, ve := range ib.Errors {
			problems[i] = Problem{Field: ve.Field, Code: ve.Code, Message: ve.Message}
		}
		return nil, reportProblems(f, fmt.Sprintf("board %s is invalid", path), problems)
	}
	return nil, reportLoadError(f, err)
}

// selectTriples picks the triples a command evaluates: a filter file, or a
// saved filter set defined on the board.
func selectTriples(f *OutputFormatter, b *board.Board, filtersPath, setName string) ([]ir.Triple, error) {
	switch {
	case filtersPath != "" && setName != "":
		_ = f.Error(ErrCodeUsage, "give either a filter file or --filter, not both", nil)
		return nil, NewExitError(ExitCommandError, "conflicting filter sources")
	case setName != "":
		fs, ok := b.FilterSet(setName)
		if !ok {
			_ = f.Error(ErrCodeUsage, fmt.Sprintf("board %q has no saved filter %q", b.Name, setName), nil)
			return nil, NewExitError(ExitCommandError, "unknown saved filter")
		}
		return fs.Where, nil
	case filtersPath != "":
		triples, err := board.LoadFilters(filtersPath)
		if err != nil {
			return nil, reportLoadError(f, err)
		}
		if errs := board.ValidateTriples(b, triples); len(errs) > 0 {
			problems := make([]Problem, len(errs))
			for i, ve := range errs {
				problems[i] = Problem{Field: ve.Field, Code: ve.Code, Message: ve.Message}
			}
			return nil, reportProblems(f, fmt.Sprintf("filters %s do not match board %q", filtersPath, b.Name), problems)
		}
		f.VerboseLog("Loaded %d triple(s) from %s", len(triples), filtersPath)
		return triples, nil
	default:
		return nil, nil
	}
}

func reportLoadError(f *OutputFormatter, err error) error {
	var loadErr *board.LoadError
	if errors.As(err, &loadErr) {
		msg := loadErr.Message
		if loadErr.Pos.IsValid() {
			msg = fmt.Sprintf("%s:%d:%d: %s", loadErr.Pos.Filename(), loadErr.Pos.Line(), loadErr.Pos.Column(), msg)
		}
		_ = f.Error(loadErr.Code, msg, nil)
		return WrapExitError(ExitCommandError, loadErr.Code, err)
	}
	_ = f.Error(board.ErrCodeGeneric, err.Error(), nil)
	return WrapExitError(ExitCommandError, "load failed", err)
}

// reportProblems prints every problem and returns an ExitFailure error.
func reportProblems(f *OutputFormatter, summary string, problems []Problem) error {
	if f.Format == "json" {
		_ = f.encode(CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: problems[0].Code, Message: summary},
			Data:   problems,
		})
	} else {
		fmt.Fprintf(f.Writer, "✗ %s\n\n", summary)
		for _, p := range problems {
			if p.Field != "" {
				fmt.Fprintf(f.Writer, "  %s %s: %s\n", p.Code, p.Field, p.Message)
			} else {
				fmt.Fprintf(f.Writer, "  %s: %s\n", p.Code, p.Message)
			}
		}
	}
	return NewExitError(ExitFailure, fmt.Sprintf("%s (%d problem(s))", summary, len(problems)))
}

// droppedProblems converts rejected triples for output.
func droppedProblems(dropped []*filter.ValidationError) []Problem {
	problems := make([]Problem, len(dropped))
	for i, ve := range dropped {
		problems[i] = Problem{
			Field:   fmt.Sprintf("%s %s", ve.Column, ve.Operator),
			Code:    string(ve.Code),
			Message: ve.Message,
		}
	}
	return problems
}
