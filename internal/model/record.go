package model

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// Kind discriminates the payload of a Value.
type Kind int

const (
	KindString Kind = iota
	KindNumber
	KindList
	KindRecord
)

// Value is one semi-structured product field: a string, a number, a list of
// strings, or a nested record. The zero Value is an empty string value.
type Value struct {
	Kind   Kind
	Str    string
	Num    float64
	List   []string
	Record Fields
}

// Fields maps field names to values. Confidences are tracked in a parallel
// map keyed by the same field names.
type Fields map[string]Value

// String creates a string value.
func String(s string) Value { return Value{Kind: KindString, Str: s} }

// Number creates a numeric value.
func Number(n float64) Value { return Value{Kind: KindNumber, Num: n} }

// List creates a string-list value.
func List(items ...string) Value { return Value{Kind: KindList, List: items} }

// Record creates a nested record value.
func Record(f Fields) Value { return Value{Kind: KindRecord, Record: f} }

// IsEmpty reports whether the value carries no usable data: a blank string,
// an empty list, or an empty record. Numbers are never empty — a numeric
// field only exists once something set it.
func (v Value) IsEmpty() bool {
	switch v.Kind {
	case KindString:
		return strings.TrimSpace(v.Str) == ""
	case KindNumber:
		return false
	case KindList:
		return len(v.List) == 0
	case KindRecord:
		return len(v.Record) == 0
	}
	return true
}

// Text renders the value as a plain string for query substitution and logs.
func (v Value) Text() string {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case KindList:
		return strings.Join(v.List, ", ")
	case KindRecord:
		keys := make([]string, 0, len(v.Record))
		for k := range v.Record {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, k+": "+v.Record[k].Text())
		}
		return strings.Join(parts, "; ")
	}
	return ""
}

// Equal reports deep equality between two values.
func (v Value) Equal(other Value) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case KindString:
		return v.Str == other.Str
	case KindNumber:
		return v.Num == other.Num
	case KindList:
		if len(v.List) != len(other.List) {
			return false
		}
		for i := range v.List {
			if v.List[i] != other.List[i] {
				return false
			}
		}
		return true
	case KindRecord:
		if len(v.Record) != len(other.Record) {
			return false
		}
		for k, val := range v.Record {
			ov, ok := other.Record[k]
			if !ok || !val.Equal(ov) {
				return false
			}
		}
		return true
	}
	return false
}

// Clone returns a deep copy of the value.
func (v Value) Clone() Value {
	switch v.Kind {
	case KindList:
		cp := make([]string, len(v.List))
		copy(cp, v.List)
		return Value{Kind: KindList, List: cp}
	case KindRecord:
		return Value{Kind: KindRecord, Record: v.Record.Clone()}
	default:
		return v
	}
}

// MarshalJSON emits the natural JSON shape for the tagged union.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindString:
		return json.Marshal(v.Str)
	case KindNumber:
		return json.Marshal(v.Num)
	case KindList:
		if v.List == nil {
			return json.Marshal([]string{})
		}
		return json.Marshal(v.List)
	case KindRecord:
		return json.Marshal(v.Record)
	}
	return json.Marshal(nil)
}

// UnmarshalJSON accepts a string, number, string array, or object.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return eris.Wrap(err, "model: decode value")
	}
	cv, ok := CoerceValue(raw)
	if !ok {
		return eris.Errorf("model: unsupported value shape %T", raw)
	}
	*v = cv
	return nil
}

// Clone returns a deep copy of the field map.
func (f Fields) Clone() Fields {
	if f == nil {
		return Fields{}
	}
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v.Clone()
	}
	return out
}

// GetString returns the string content of a field, or "" when the field is
// absent or not a string.
func (f Fields) GetString(key string) string {
	v, ok := f[key]
	if !ok || v.Kind != KindString {
		return ""
	}
	return strings.TrimSpace(v.Str)
}

// Has reports whether the named field is present and non-empty.
func (f Fields) Has(key string) bool {
	v, ok := f[key]
	return ok && !v.IsEmpty()
}

// CoerceValue converts loosely typed extractor output (decoded JSON) into a
// typed Value. Returns false for shapes the record model cannot represent,
// such as booleans or mixed-type arrays.
func CoerceValue(raw any) (Value, bool) {
	switch t := raw.(type) {
	case string:
		return String(t), true
	case float64:
		return Number(t), true
	case int:
		return Number(float64(t)), true
	case json.Number:
		n, err := t.Float64()
		if err != nil {
			return Value{}, false
		}
		return Number(n), true
	case []any:
		items := make([]string, 0, len(t))
		for _, it := range t {
			s, ok := it.(string)
			if !ok {
				return Value{}, false
			}
			items = append(items, s)
		}
		return List(items...), true
	case []string:
		return List(t...), true
	case map[string]any:
		rec := make(Fields, len(t))
		for k, it := range t {
			cv, ok := CoerceValue(it)
			if !ok {
				continue
			}
			rec[k] = cv
		}
		return Record(rec), true
	}
	return Value{}, false
}

// Coerce splits raw extractor output into typed fields (names present in
// known) and an extra bag holding everything else. Null values and
// unrepresentable shapes are dropped from the typed map but preserved in
// extra so nothing is silently lost.
func Coerce(raw map[string]any, known map[string]bool) (Fields, map[string]any) {
	fields := make(Fields, len(raw))
	extra := make(map[string]any)
	for name, rv := range raw {
		if rv == nil {
			continue
		}
		if !known[name] {
			extra[name] = rv
			continue
		}
		cv, ok := CoerceValue(rv)
		if !ok {
			extra[name] = rv
			continue
		}
		fields[name] = cv
	}
	return fields, extra
}
