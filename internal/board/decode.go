package board

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/tailscale/hujson"
	"gopkg.in/yaml.v3"

	"github.com/roach88/taskboard/internal/ir"
)

//go:embed schema.cue
var schemaSource string

// Load reads, decodes and validates a board file.
// Validation problems are returned together as *InvalidBoardError.
func Load(path string) (*Board, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}

	b, err := Parse(path, data, format)
	if err != nil {
		return nil, err
	}
	if errs := Validate(b); len(errs) > 0 {
		return nil, &InvalidBoardError{Path: path, Errors: errs}
	}
	return b, nil
}

// Parse decodes board data without semantic validation. Empty storage
// modes default to native.
func Parse(path string, data []byte, format Format) (*Board, error) {
	var b Board
	var err error
	switch format {
	case FormatYAML:
		err = decodeYAML(path, data, &b)
	case FormatJSON:
		err = decodeJSON(path, data, &b)
	case FormatCUE:
		err = decodeCUE(path, data, "#Board", &b)
	default:
		err = &LoadError{Code: ErrCodeUnsupportedFormat, Message: fmt.Sprintf("unsupported format %q", format)}
	}
	if err != nil {
		return nil, err
	}

	for i := range b.Columns {
		if b.Columns[i].Storage == "" {
			b.Columns[i].Storage = ir.StorageNative
		}
	}
	return &b, nil
}

// LoadFilters reads a filter file: a list of triples, bare or under a
// "where" key. CUE filter files must use the "where" key.
func LoadFilters(path string) ([]ir.Triple, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	return ParseFilters(path, data, format)
}

// ParseFilters decodes filter file data.
func ParseFilters(path string, data []byte, format Format) ([]ir.Triple, error) {
	var file struct {
		Where []ir.Triple `json:"where" yaml:"where"`
	}

	switch format {
	case FormatYAML:
		var node yaml.Node
		if err := yaml.Unmarshal(data, &node); err != nil {
			return nil, parseError(path, err)
		}
		if len(node.Content) == 0 {
			return nil, nil
		}
		root := node.Content[0]
		var err error
		if root.Kind == yaml.SequenceNode {
			err = root.Decode(&file.Where)
		} else {
			err = root.Decode(&file)
		}
		if err != nil {
			return nil, parseError(path, err)
		}
	case FormatJSON:
		standardized, err := hujson.Standardize(data)
		if err != nil {
			return nil, parseError(path, err)
		}
		if trimmed := bytes.TrimSpace(standardized); len(trimmed) > 0 && trimmed[0] == '[' {
			err = strictJSON(trimmed, &file.Where)
		} else {
			err = strictJSON(standardized, &file)
		}
		if err != nil {
			return nil, parseError(path, err)
		}
	case FormatCUE:
		if err := decodeCUE(path, data, "#FilterFile", &file); err != nil {
			return nil, err
		}
	default:
		return nil, &LoadError{Code: ErrCodeUnsupportedFormat, Message: fmt.Sprintf("unsupported format %q", format)}
	}
	return file.Where, nil
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("reading %s: %v", path, err)}
	}
	return data, nil
}

func parseError(path string, err error) *LoadError {
	return &LoadError{Code: ErrCodeParseFailed, Message: fmt.Sprintf("%s: %v", path, err)}
}

func decodeYAML(path string, data []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return &LoadError{Code: ErrCodeParseFailed, Message: fmt.Sprintf("%s: empty document", path)}
		}
		return parseError(path, err)
	}
	return nil
}

func decodeJSON(path string, data []byte, out any) error {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return parseError(path, err)
	}
	if err := strictJSON(standardized, out); err != nil {
		return parseError(path, err)
	}
	return nil
}

// strictJSON decodes with json.Number values and rejects unknown keys.
func strictJSON(data []byte, out any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	dec.DisallowUnknownFields()
	return dec.Decode(out)
}

// decodeCUE unifies the file with a schema definition and decodes the
// concrete result through JSON, so values arrive in the same shapes the
// JSON path produces.
func decodeCUE(path string, data []byte, definition string, out any) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return formatCUEError(ErrCodeGeneric, "schema.cue", err)
	}

	value := ctx.CompileBytes(data, cue.Filename(path))
	if err := value.Err(); err != nil {
		return formatCUEError(ErrCodeParseFailed, path, err)
	}

	unified := schema.LookupPath(cue.ParsePath(definition)).Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return formatCUEError(ErrCodeSchemaMismatch, path, err)
	}

	raw, err := unified.MarshalJSON()
	if err != nil {
		return formatCUEError(ErrCodeSchemaMismatch, path, err)
	}
	if err := strictJSON(raw, out); err != nil {
		return parseError(path, err)
	}
	return nil
}
