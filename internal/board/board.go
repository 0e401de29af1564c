package board

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/roach88/taskboard/internal/ir"
)

// Board is a loaded board definition.
type Board struct {
	Name    string      `json:"name" yaml:"name"`
	Columns []ir.Column `json:"columns" yaml:"columns"`
	Filters []FilterSet `json:"filters,omitempty" yaml:"filters,omitempty"`
}

// FilterSet is a named, ordered list of triples. Triples are combined
// conjunctively.
type FilterSet struct {
	Name  string      `json:"name" yaml:"name"`
	Where []ir.Triple `json:"where" yaml:"where"`
}

// Resolve finds the column a triple's column_reference names.
//
// A reference matches, in order: a column name, the native field of a
// native column, a decimal column id, or "cf_<id>" for an EAV column.
func (b *Board) Resolve(ref string) (ir.Column, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ir.Column{}, false
	}
	for _, col := range b.Columns {
		if col.Name == ref {
			return col, true
		}
	}
	for _, col := range b.Columns {
		if !col.IsEAV() && col.Field != "" && col.Field == ref {
			return col, true
		}
	}

	idText, eavOnly := strings.CutPrefix(ref, "cf_")
	id, err := strconv.ParseInt(idText, 10, 64)
	if err != nil {
		return ir.Column{}, false
	}
	for _, col := range b.Columns {
		if col.ID == id && (!eavOnly || col.IsEAV()) {
			return col, true
		}
	}
	return ir.Column{}, false
}

// FilterSet returns the saved filter with the given name.
func (b *Board) FilterSet(name string) (FilterSet, bool) {
	for _, fs := range b.Filters {
		if fs.Name == name {
			return fs, true
		}
	}
	return FilterSet{}, false
}

// Format is a board file encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatCUE  Format = "cue"
	FormatJSON Format = "json"
)

// FormatOf picks a format from a file extension.
func FormatOf(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".cue":
		return FormatCUE, nil
	case ".json", ".jsonc":
		return FormatJSON, nil
	default:
		return "", &LoadError{
			Code:    ErrCodeUnsupportedFormat,
			Message: fmt.Sprintf("unsupported board file extension %q (want .yaml, .yml, .cue, .json or .jsonc)", ext),
		}
	}
}
