package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// ValueKind tags the scalar type of a result cell.
type ValueKind int

const (
	KindNull ValueKind = iota
	KindText
	KindNumber
	KindTimestamp
)

// Value is a tagged scalar projected by a generated query. Exactly one of
// Text/Number/Time is meaningful, selected by Kind.
type Value struct {
	Kind   ValueKind
	Text   string
	Number float64
	Time   time.Time
}

// NullValue returns the null scalar.
func NullValue() Value {
	return Value{Kind: KindNull}
}

// TextValue wraps a string.
func TextValue(s string) Value {
	return Value{Kind: KindText, Text: s}
}

// NumberValue wraps a numeric.
func NumberValue(f float64) Value {
	return Value{Kind: KindNumber, Number: f}
}

// TimestampValue wraps a point in time.
func TimestampValue(t time.Time) Value {
	return Value{Kind: KindTimestamp, Time: t}
}

// String renders the value the way it should appear in user-facing output.
// Timestamps use RFC 3339, numbers drop a trailing ".0" for integral values.
func (v Value) String() string {
	switch v.Kind {
	case KindNull:
		return ""
	case KindNumber:
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	case KindTimestamp:
		return v.Time.Format(time.RFC3339)
	default:
		return v.Text
	}
}

// MarshalJSON emits the underlying scalar, not the tagged wrapper.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindNull:
		return []byte("null"), nil
	case KindNumber:
		return json.Marshal(v.Number)
	case KindTimestamp:
		return json.Marshal(v.Time)
	default:
		return json.Marshal(v.Text)
	}
}

// Field is one projected column of a row.
type Field struct {
	Name  string
	Value Value
}

// Row is an ordered list of fields. Order follows the generated query's
// projection, which is why this is not a map.
type Row []Field

// MarshalJSON emits a JSON object whose keys appear in projection order.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Name)
		if err != nil {
			return nil, fmt.Errorf("marshal field name %q: %w", f.Name, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(f.Value)
		if err != nil {
			return nil, fmt.Errorf("marshal field %q: %w", f.Name, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ResultSet is the ordered rows returned by one query execution.
type ResultSet []Row
