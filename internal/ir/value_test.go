package ir

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromAny_Scalars(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want Value
	}{
		{"nil", nil, Null{}},
		{"bool", true, Bool(true)},
		{"string", "bug", String("bug")},
		{"float64", 42.5, Number(42.5)},
		{"int", 7, Number(7)},
		{"int64", int64(-3), Number(-3)},
		{"uint8", uint8(1), Number(1)},
		{"json.Number", json.Number("12"), Number(12)},
		{"passthrough", String("x"), String("x")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromAny(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFromAny_Arrays(t *testing.T) {
	got, err := FromAny([]any{1, "a", nil, []any{true}})
	require.NoError(t, err)
	assert.Equal(t, Array{Number(1), String("a"), Null{}, Array{Bool(true)}}, got)

	got, err = FromAny([]string{"x", "y"})
	require.NoError(t, err)
	assert.Equal(t, Array{String("x"), String("y")}, got)

	got, err = FromAny([]int{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, Array{Number(1), Number(2), Number(3)}, got)
}

func TestFromAny_Rejects(t *testing.T) {
	_, err := FromAny(map[string]any{"a": 1})
	assert.Error(t, err)

	_, err = FromAny(math.NaN())
	assert.Error(t, err)

	_, err = FromAny([]any{1, struct{}{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "array[1]")
}

func TestDecodeJSON(t *testing.T) {
	got, err := DecodeJSON([]byte(`[1, "two", true, null, 2.5]`))
	require.NoError(t, err)
	assert.Equal(t, Array{Number(1), String("two"), Bool(true), Null{}, Number(2.5)}, got)

	_, err = DecodeJSON([]byte(`{"value": 1}`))
	assert.Error(t, err, "objects are not field values")

	_, err = DecodeJSON([]byte(`[1,`))
	assert.Error(t, err)
}

func TestMarshalValue(t *testing.T) {
	tests := []struct {
		in   Value
		want string
	}{
		{Null{}, "null"},
		{nil, "null"},
		{Bool(false), "false"},
		{Number(42), "42"},
		{Number(0.1), "0.1"},
		{String("<a&b>"), `"<a&b>"`},
		{Array{Number(1), String("x")}, `[1,"x"]`},
		{Array{}, `[]`},
	}

	for _, tt := range tests {
		got, err := MarshalValue(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, string(got))
	}
}

func TestIsNull(t *testing.T) {
	assert.True(t, IsNull(nil))
	assert.True(t, IsNull(Null{}))
	assert.False(t, IsNull(String("")))
	assert.False(t, IsNull(Array{}))
}

func TestFormat(t *testing.T) {
	assert.Equal(t, `"blocker"`, Format(String("blocker")))
	assert.Equal(t, `[1, 2, "x"]`, Format(Array{Number(1), Number(2), String("x")}))
	assert.Equal(t, "null", Format(nil))
	assert.Equal(t, "true", Format(Bool(true)))
}

func TestToAny_RoundTrip(t *testing.T) {
	in := []any{1.0, "a", true, nil}
	v, err := FromAny(in)
	require.NoError(t, err)
	assert.Equal(t, in, ToAny(v))
}

func TestKindOf_CoversEverySemanticType(t *testing.T) {
	for _, st := range SemanticTypes {
		kind, ok := KindOf(st)
		assert.True(t, ok, "semantic type %s has no kind", st)
		assert.NotEqual(t, "", kind.String())
	}

	_, ok := KindOf("spreadsheet")
	assert.False(t, ok)
}
