package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ValueKind tags the variant held by a Value.
type ValueKind uint8

const (
	// ValueUnset means the field has no value yet.
	ValueUnset ValueKind = iota
	// ValueString is held by every supported kind except checkbox.
	ValueString
	// ValueBool is held by checkbox fields.
	ValueBool
	// ValueRaw keeps an arbitrary JSON value for unsupported field kinds.
	ValueRaw
)

func (k ValueKind) String() string {
	switch k {
	case ValueUnset:
		return "unset"
	case ValueString:
		return "string"
	case ValueBool:
		return "bool"
	case ValueRaw:
		return "raw"
	default:
		return "unknown"
	}
}

// Value is the tagged value stored on a field. The zero value is unset.
type Value struct {
	kind ValueKind
	str  string
	flag bool
	raw  json.RawMessage
}

// StringValue wraps s.
func StringValue(s string) Value {
	return Value{kind: ValueString, str: s}
}

// BoolValue wraps b.
func BoolValue(b bool) Value {
	return Value{kind: ValueBool, flag: b}
}

// Kind reports the held variant.
func (v Value) Kind() ValueKind {
	return v.kind
}

// IsSet reports whether the value holds anything.
func (v Value) IsSet() bool {
	return v.kind != ValueUnset
}

// Str returns the string payload.
func (v Value) Str() (string, bool) {
	return v.str, v.kind == ValueString
}

// Bool returns the boolean payload.
func (v Value) Bool() (bool, bool) {
	return v.flag, v.kind == ValueBool
}

// Interface returns nil, a string, a bool, or the decoded raw value.
func (v Value) Interface() any {
	switch v.kind {
	case ValueString:
		return v.str
	case ValueBool:
		return v.flag
	case ValueRaw:
		var out any
		if err := json.Unmarshal(v.raw, &out); err != nil {
			return nil
		}
		return out
	default:
		return nil
	}
}

// String renders the value as display text.
func (v Value) String() string {
	switch v.kind {
	case ValueString:
		return v.str
	case ValueBool:
		return strconv.FormatBool(v.flag)
	case ValueRaw:
		return string(v.raw)
	default:
		return ""
	}
}

// Equal reports whether both values hold the same variant and payload.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case ValueString:
		return v.str == other.str
	case ValueBool:
		return v.flag == other.flag
	case ValueRaw:
		return bytes.Equal(v.raw, other.raw)
	default:
		return true
	}
}

// Clone returns a copy that shares no memory with v.
func (v Value) Clone() Value {
	if v.raw != nil {
		v.raw = append(json.RawMessage(nil), v.raw...)
	}
	return v
}

// MarshalJSON encodes unset as null.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case ValueString:
		return json.Marshal(v.str)
	case ValueBool:
		return json.Marshal(v.flag)
	case ValueRaw:
		return append([]byte(nil), v.raw...), nil
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON decodes null, strings and booleans into their variants; any
// other JSON value is kept raw.
func (v *Value) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch {
	case len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")):
		*v = Value{}
	case trimmed[0] == '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return fmt.Errorf("model: decode string value: %w", err)
		}
		*v = StringValue(s)
	case bytes.Equal(trimmed, []byte("true")), bytes.Equal(trimmed, []byte("false")):
		*v = BoolValue(trimmed[0] == 't')
	default:
		if !json.Valid(trimmed) {
			return fmt.Errorf("model: invalid value %q", string(trimmed))
		}
		var compact bytes.Buffer
		if err := json.Compact(&compact, trimmed); err != nil {
			return fmt.Errorf("model: compact value: %w", err)
		}
		*v = Value{kind: ValueRaw, raw: compact.Bytes()}
	}
	return nil
}

// ParseValue coerces text input into the value kind the field holds.
func (f Field) ParseValue(raw string) (Value, error) {
	switch f.Type.ValueKind() {
	case ValueBool:
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			return BoolValue(true), nil
		}
		b, err := strconv.ParseBool(trimmed)
		if err != nil {
			return Value{}, fmt.Errorf("%w: field %q expects a boolean: %v", ErrValueKind, f.ID, err)
		}
		return BoolValue(b), nil
	case ValueString:
		return StringValue(raw), nil
	default:
		return StringValue(raw), nil
	}
}
