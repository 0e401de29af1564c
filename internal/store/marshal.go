package store

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/roach88/taskboard/internal/ir"
)

// marshalFieldValue wraps a value as {"value": <json>} for field_values.
// The inner value uses the deterministic ir encoding.
func marshalFieldValue(v ir.Value) (string, error) {
	if v == nil {
		v = ir.Null{}
	}
	data, err := ir.MarshalValue(v)
	if err != nil {
		return "", fmt.Errorf("marshal field value: %w", err)
	}
	return `{"value":` + string(data) + `}`, nil
}

// unmarshalFieldValue reverses marshalFieldValue.
func unmarshalFieldValue(text string) (ir.Value, error) {
	var wrapper struct {
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal([]byte(text), &wrapper); err != nil {
		return nil, fmt.Errorf("unmarshal field value: %w", err)
	}
	if len(wrapper.Value) == 0 {
		return ir.Null{}, nil
	}
	v, err := ir.DecodeJSON(wrapper.Value)
	if err != nil {
		return nil, fmt.Errorf("unmarshal field value: %w", err)
	}
	return v, nil
}

// nativeParam converts a value for a native tasks column. Arrays are stored
// as JSON text.
func nativeParam(v ir.Value) (any, error) {
	switch val := v.(type) {
	case nil, ir.Null:
		return nil, nil
	case ir.Bool:
		return bool(val), nil
	case ir.Number:
		return float64(val), nil
	case ir.String:
		return string(val), nil
	case ir.Array:
		data, err := ir.MarshalValue(val)
		if err != nil {
			return nil, err
		}
		return string(data), nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}

// marshalTriples stores triples as canonical JSON so identical filters
// serialize identically.
func marshalTriples(triples []ir.Triple) (string, error) {
	list := make([]map[string]any, len(triples))
	for i, t := range triples {
		list[i] = map[string]any{
			"column_reference": t.Column,
			"operator":         t.Operator,
			"value":            t.Value,
		}
	}
	data, err := ir.MarshalCanonical(list)
	if err != nil {
		return "", fmt.Errorf("marshal triples: %w", err)
	}
	return string(data), nil
}

// unmarshalTriples decodes stored triples, keeping numbers exact.
func unmarshalTriples(text string) ([]ir.Triple, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(text)))
	dec.UseNumber()
	var triples []ir.Triple
	if err := dec.Decode(&triples); err != nil {
		return nil, fmt.Errorf("unmarshal triples: %w", err)
	}
	return triples, nil
}

func marshalOptions(opts ir.ColumnOptions) (string, error) {
	data, err := json.Marshal(opts)
	if err != nil {
		return "", fmt.Errorf("marshal column options: %w", err)
	}
	return string(data), nil
}

func unmarshalOptions(text string) (ir.ColumnOptions, error) {
	var opts ir.ColumnOptions
	if err := json.Unmarshal([]byte(text), &opts); err != nil {
		return opts, fmt.Errorf("unmarshal column options: %w", err)
	}
	return opts, nil
}
