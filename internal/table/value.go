package table

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind classifies a cell value.
type Kind uint8

const (
	Missing Kind = iota
	Text
	Number
)

func (k Kind) String() string {
	switch k {
	case Text:
		return "text"
	case Number:
		return "number"
	default:
		return "missing"
	}
}

// Value is a single cell. The zero Value is missing and renders as an empty string.
type Value struct {
	kind Kind
	text string  // raw text for Text, source literal for Number
	num  float64 // Number only
	null bool    // Missing only: came from a JSON null
	raw  bool    // Text only: text is a JSON literal (bool, object, array)
}

// Null returns a missing value that serializes as JSON null.
func Null() Value { return Value{kind: Missing, null: true} }

// Empty returns a missing value that serializes as "".
func Empty() Value { return Value{kind: Missing} }

// String returns a Text value, or Empty when s is "".
func String(s string) Value {
	if s == "" {
		return Empty()
	}
	return Value{kind: Text, text: s}
}

// Num returns a Number value.
func Num(f float64) Value {
	return Value{kind: Number, num: f, text: strconv.FormatFloat(f, 'g', -1, 64)}
}

// NumberLiteral parses a JSON number literal, keeping its source text.
func NumberLiteral(lit string) (Value, error) {
	f, err := strconv.ParseFloat(lit, 64)
	if err != nil && !isRangeErr(err) {
		return Value{}, fmt.Errorf("invalid number %q: %w", lit, err)
	}
	return Value{kind: Number, num: f, text: lit}, nil
}

func isRangeErr(err error) bool {
	ne, ok := err.(*strconv.NumError)
	return ok && ne.Err == strconv.ErrRange
}

// Opaque wraps a JSON literal that has no tabular meaning (booleans, nested
// objects and arrays). It behaves as Text holding the compact literal.
func Opaque(raw []byte) Value {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return String(string(raw))
	}
	return Value{kind: Text, text: buf.String(), raw: true}
}

func (v Value) Kind() Kind { return v.kind }

// IsMissing reports whether the cell is null or the empty string.
func (v Value) IsMissing() bool { return v.kind == Missing }

// IsNull reports whether a missing value came from JSON null.
func (v Value) IsNull() bool { return v.kind == Missing && v.null }

// Text returns the display form: "" for missing, the raw string for text and
// the source literal for numbers.
func (v Value) Text() string {
	if v.kind == Missing {
		return ""
	}
	return v.text
}

// Float converts the value to a finite float64. Text converts when the
// trimmed string parses as a finite number.
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case Number:
		if math.IsNaN(v.num) || math.IsInf(v.num, 0) {
			return 0, false
		}
		return v.num, true
	case Text:
		if v.raw {
			return 0, false
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v.text), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// Numeric reports whether Float would succeed.
func (v Value) Numeric() bool {
	_, ok := v.Float()
	return ok
}

// Key identifies the value for distinct counting. Numbers compare by value,
// text by its exact string; a number and a numeric string stay distinct.
func (v Value) Key() (string, bool) {
	switch v.kind {
	case Text:
		return "s:" + v.text, true
	case Number:
		return "n:" + strconv.FormatFloat(v.num, 'g', -1, 64), true
	}
	return "", false
}

// Equal compares kind and source representation.
func (v Value) Equal(o Value) bool {
	return v.kind == o.kind && v.text == o.text && v.null == o.null && v.raw == o.raw
}

func (v Value) String() string { return v.Text() }

// MarshalJSON reproduces the source form of the cell.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case Number:
		if math.IsNaN(v.num) || math.IsInf(v.num, 0) {
			return json.Marshal(v.text)
		}
		return []byte(v.text), nil
	case Text:
		if v.raw {
			return []byte(v.text), nil
		}
		return json.Marshal(v.text)
	}
	if v.null {
		return []byte("null"), nil
	}
	return []byte(`""`), nil
}

// UnmarshalJSON decodes a single JSON value into a cell.
func (v *Value) UnmarshalJSON(b []byte) error {
	dv, err := ValueFromJSON(b)
	if err != nil {
		return err
	}
	*v = dv
	return nil
}

// ValueFromJSON converts one JSON value into a cell.
func ValueFromJSON(raw []byte) (Value, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return Value{}, fmt.Errorf("empty json value")
	}
	switch raw[0] {
	case 'n':
		return Null(), nil
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return Value{}, err
		}
		return String(s), nil
	case 't', 'f', '{', '[':
		return Opaque(raw), nil
	default:
		return NumberLiteral(string(raw))
	}
}
