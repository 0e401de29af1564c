package filter

import (
	"context"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/taskboard/internal/ir"
	"github.com/roach88/taskboard/internal/queryir"
)

// MaxTextLength is the longest accepted text value, in runes.
const MaxTextLength = 255

var textOps = concatOps(
	opSet{OpEquals, OpNotEquals, OpContains, OpNotContains, OpStartsWith, OpEndsWith},
	emptinessOps,
)

// TextFilter handles text, long_text, email and url columns.
type TextFilter struct {
	core
}

// NewTextFilter creates a TextFilter.
func NewTextFilter(opts ...Option) *TextFilter {
	f := &TextFilter{}
	f.core = newCore(f, buildOptions(opts))
	return f
}

func (f *TextFilter) name() string      { return "text" }
func (f *TextFilter) operators() opSet { return textOps }

func (f *TextFilter) validateSpecific(_ context.Context, _ ir.Column, v ir.Value, _ Operator) error {
	s, ok := v.(ir.String)
	if !ok {
		return fmt.Errorf("expected a string, got %s", ir.Format(v))
	}
	if n := utf8.RuneCountInString(norm.NFC.String(string(s))); n > MaxTextLength {
		return fmt.Errorf("text is %d characters, maximum is %d", n, MaxTextLength)
	}
	return nil
}

func (f *TextFilter) applyFilter(q queryir.Select, col ir.Column, v ir.Value, op Operator) (queryir.Select, error) {
	if s, ok := v.(ir.String); ok {
		v = ir.String(norm.NFC.String(string(s)))
	}
	return builderFor(q, col, buildOpts{empty: queryir.EmptyText}).apply(q, op, v)
}
