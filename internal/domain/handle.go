package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// Well-known value entry fields
const (
	FieldIndex  = "index"
	FieldType   = "type"
	FieldData   = "data"
	FieldValue  = "value"
	FieldValues = "values"
)

// NullValue is the string form of an absent or null data value
const NullValue = "null"

// ErrInvalidPayload is returned when a request body is not an object holding
// a list of value objects.
var ErrInvalidPayload = errors.New("invalid JSON in PUT request")

// Entry is one value of a handle record. Fields other than index, type and
// data are carried through verbatim.
type Entry map[string]any

// Index returns the canonical string form of the entry's index and whether
// the entry has one.
func (e Entry) Index() (string, bool) {
	v, ok := e[FieldIndex]
	if !ok || v == nil {
		return "", false
	}
	return CanonicalIndex(v), true
}

// Type returns the entry's type tag
func (e Entry) Type() string {
	if s, ok := e[FieldType].(string); ok {
		return s
	}
	if v, ok := e[FieldType]; ok && v != nil {
		return Stringify(v)
	}
	return ""
}

// DataValue returns data.value as a string, NullValue when absent.
func (e Entry) DataValue() string {
	data, ok := e[FieldData].(map[string]any)
	if !ok {
		return NullValue
	}
	return Stringify(data[FieldValue])
}

// Clone returns a deep copy of the entry
func (e Entry) Clone() Entry {
	if e == nil {
		return nil
	}
	out := make(Entry, len(e))
	for k, v := range e {
		out[k] = cloneValue(v)
	}
	return out
}

// ValueList is the ordered list of entries stored under one handle
type ValueList []Entry

// Clone returns a deep copy of the list
func (l ValueList) Clone() ValueList {
	if l == nil {
		return nil
	}
	out := make(ValueList, len(l))
	for i, e := range l {
		out[i] = e.Clone()
	}
	return out
}

// FirstOfType returns the first entry with the given type.
func (l ValueList) FirstOfType(typ string) (Entry, bool) {
	for _, e := range l {
		if e.Type() == typ {
			return e, true
		}
	}
	return nil, false
}

// Indices returns the canonical indices of the entries that have one.
func (l ValueList) Indices() []string {
	out := make([]string, 0, len(l))
	for _, e := range l {
		if idx, ok := e.Index(); ok {
			out = append(out, idx)
		}
	}
	return out
}

// HandleName joins prefix and suffix into a handle identifier
func HandleName(prefix, suffix string) string {
	return prefix + "/" + suffix
}

// ParseValueList validates a decoded request body and extracts its values.
// The body must be an object whose "values" member is a list of objects.
// The returned list does not share memory with payload.
func ParseValueList(payload any) (ValueList, error) {
	var body map[string]any
	switch p := payload.(type) {
	case map[string]any:
		body = p
	case Entry:
		body = p
	default:
		return nil, fmt.Errorf("%w: body is %s, not an object", ErrInvalidPayload, jsonKind(payload))
	}

	raw, ok := body[FieldValues]
	if !ok {
		return nil, fmt.Errorf("%w: missing %q", ErrInvalidPayload, FieldValues)
	}

	switch items := raw.(type) {
	case ValueList:
		return items.Clone(), nil
	case []Entry:
		return ValueList(items).Clone(), nil
	case []map[string]any:
		out := make(ValueList, len(items))
		for i, m := range items {
			out[i] = Entry(m).Clone()
		}
		return out, nil
	case []any:
		out := make(ValueList, 0, len(items))
		for i, item := range items {
			switch m := item.(type) {
			case map[string]any:
				out = append(out, Entry(m).Clone())
			case Entry:
				out = append(out, m.Clone())
			default:
				return nil, fmt.Errorf("%w: values[%d] is %s, not an object", ErrInvalidPayload, i, jsonKind(item))
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %q is %s, not a list", ErrInvalidPayload, FieldValues, jsonKind(raw))
	}
}

// CanonicalIndex normalizes an index so that 1, 1.0, "1" and json.Number("1")
// all compare equal.
func CanonicalIndex(v any) string {
	switch n := v.(type) {
	case string:
		return n
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return strconv.FormatInt(i, 10)
		}
		if f, err := n.Float64(); err == nil {
			return strconv.FormatFloat(f, 'f', -1, 64)
		}
		return n.String()
	}
	return Stringify(v)
}

// QueryIndex canonicalizes an index given as text, such as a query
// parameter. Text that is a JSON number takes the numeric canonical form,
// so "1.0" addresses the entry stored with index 1.
func QueryIndex(raw string) string {
	if raw == "" || !(raw[0] == '-' || raw[0] >= '0' && raw[0] <= '9') || !json.Valid([]byte(raw)) {
		return raw
	}
	return CanonicalIndex(json.Number(raw))
}

// Stringify renders a JSON scalar the way filters compare it. Objects and
// lists render as compact JSON.
func Stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return NullValue
	case string:
		return x
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case fmt.Stringer:
		return x.String()
	}
	if b, err := json.Marshal(v); err == nil {
		return string(b)
	}
	return fmt.Sprint(v)
}

func cloneValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, vv := range x {
			out[k] = cloneValue(vv)
		}
		return out
	case Entry:
		return x.Clone()
	case []any:
		out := make([]any, len(x))
		for i, vv := range x {
			out[i] = cloneValue(vv)
		}
		return out
	default:
		return v
	}
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "a string"
	case bool:
		return "a boolean"
	case json.Number, float64, float32, int, int64, int32, uint64:
		return "a number"
	case []any:
		return "a list"
	case map[string]any, Entry:
		return "an object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
