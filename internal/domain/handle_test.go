package domain

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalIndex(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"string", "1", "1"},
		{"float", float64(1), "1"},
		{"fractional float", 1.5, "1.5"},
		{"json integer", json.Number("100"), "100"},
		{"json float with zero fraction", json.Number("1.0"), "1"},
		{"int", 7, "7"},
		{"bool", true, "true"},
		{"leading zero string kept", "01", "01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanonicalIndex(tt.in))
		})
	}
}

func TestQueryIndex(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"1", "1"},
		{"1.0", "1"},
		{"2e0", "2"},
		{"-3", "-3"},
		{"1.5", "1.5"},
		{"01", "01"},
		{"abc", "abc"},
		{"1a", "1a"},
		{"-", "-"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, QueryIndex(tt.in), "QueryIndex(%q)", tt.in)
	}

	stored, _ := Entry{"index": json.Number("1.0")}.Index()
	assert.Equal(t, stored, QueryIndex("1.0"))
}

func TestEntryIndex(t *testing.T) {
	t.Run("numeric and string index compare equal", func(t *testing.T) {
		a, _ := Entry{"index": float64(2)}.Index()
		b, _ := Entry{"index": "2"}.Index()
		assert.Equal(t, a, b)
	})

	t.Run("missing index", func(t *testing.T) {
		_, ok := Entry{"type": "URL"}.Index()
		assert.False(t, ok)
	})

	t.Run("null index counts as missing", func(t *testing.T) {
		_, ok := Entry{"index": nil}.Index()
		assert.False(t, ok)
	})
}

func TestEntryDataValue(t *testing.T) {
	tests := []struct {
		name  string
		entry Entry
		want  string
	}{
		{"string", Entry{"data": map[string]any{"value": "http://x"}}, "http://x"},
		{"number", Entry{"data": map[string]any{"value": json.Number("42")}}, "42"},
		{"float", Entry{"data": map[string]any{"value": 3.25}}, "3.25"},
		{"null", Entry{"data": map[string]any{"value": nil}}, NullValue},
		{"missing value", Entry{"data": map[string]any{"format": "string"}}, NullValue},
		{"missing data", Entry{"type": "URL"}, NullValue},
		{"data is not an object", Entry{"data": "raw"}, NullValue},
		{"object value", Entry{"data": map[string]any{"value": map[string]any{"a": "b"}}}, `{"a":"b"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.entry.DataValue())
		})
	}
}

func TestValueListClone(t *testing.T) {
	orig := ValueList{
		{"index": "1", "data": map[string]any{"value": "a", "tags": []any{"x"}}},
	}
	clone := orig.Clone()

	clone[0]["index"] = "9"
	clone[0]["data"].(map[string]any)["value"] = "changed"
	clone[0]["data"].(map[string]any)["tags"].([]any)[0] = "y"

	assert.Equal(t, "1", orig[0]["index"], "top-level field leaked")
	assert.Equal(t, "a", orig[0].DataValue(), "nested field leaked")
	assert.Equal(t, "x", orig[0]["data"].(map[string]any)["tags"].([]any)[0], "nested list leaked")
}

func TestValueListFirstOfType(t *testing.T) {
	list := ValueList{
		{"index": "1", "type": "URL", "data": map[string]any{"value": "first"}},
		{"index": "2", "type": "URL", "data": map[string]any{"value": "second"}},
	}

	e, ok := list.FirstOfType("URL")
	require.True(t, ok)
	assert.Equal(t, "first", e.DataValue())

	_, ok = list.FirstOfType("EMAIL")
	assert.False(t, ok)
}

func TestHandleName(t *testing.T) {
	assert.Equal(t, "21.T12995/x", HandleName("21.T12995", "x"))
}

func TestParseValueList(t *testing.T) {
	t.Run("decoded JSON object", func(t *testing.T) {
		var payload any
		dec := json.NewDecoder(strings.NewReader(`{"values":[{"index":1,"type":"URL","data":{"value":"x"}}]}`))
		dec.UseNumber()
		require.NoError(t, dec.Decode(&payload))

		list, err := ParseValueList(payload)
		require.NoError(t, err)
		require.Len(t, list, 1)
		idx, _ := list[0].Index()
		assert.Equal(t, "1", idx)
	})

	t.Run("empty values list", func(t *testing.T) {
		list, err := ParseValueList(map[string]any{"values": []any{}})
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	invalid := []struct {
		name    string
		payload any
	}{
		{"list body", []any{map[string]any{"index": "1"}}},
		{"string body", "values"},
		{"null body", nil},
		{"missing values", map[string]any{"handle": "x"}},
		{"values not a list", map[string]any{"values": "x"}},
		{"value not an object", map[string]any{"values": []any{"x"}}},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseValueList(tt.payload)
			assert.ErrorIs(t, err, ErrInvalidPayload)
		})
	}

	t.Run("result does not alias payload", func(t *testing.T) {
		entry := map[string]any{"index": "1"}
		list, err := ParseValueList(map[string]any{"values": []any{entry}})
		require.NoError(t, err)

		entry["index"] = "2"
		idx, _ := list[0].Index()
		assert.Equal(t, "1", idx)
	})
}
