package table

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Row is an ordered mapping from column name to value. Rows are immutable
// once built; With returns a modified copy.
type Row struct {
	keys []string
	vals map[string]Value
}

// MakeRow builds a row from parallel key/value slices. A repeated key keeps
// its first position and takes the last value. Missing values pad vals.
func MakeRow(keys []string, vals []Value) Row {
	r := Row{keys: make([]string, 0, len(keys)), vals: make(map[string]Value, len(keys))}
	for i, k := range keys {
		var v Value
		if i < len(vals) {
			v = vals[i]
		}
		r.set(k, v)
	}
	return r
}

func (r *Row) set(k string, v Value) {
	if r.vals == nil {
		r.vals = make(map[string]Value)
	}
	if _, ok := r.vals[k]; !ok {
		r.keys = append(r.keys, k)
	}
	r.vals[k] = v
}

// Len returns the number of keys in the row.
func (r Row) Len() int { return len(r.keys) }

// Keys returns the column names in insertion order.
func (r Row) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Get returns the value for k; absent keys read as missing.
func (r Row) Get(k string) Value { return r.vals[k] }

// Lookup returns the value for k and whether the key is present.
func (r Row) Lookup(k string) (Value, bool) {
	v, ok := r.vals[k]
	return v, ok
}

// With returns a copy of r with k set to v.
func (r Row) With(k string, v Value) Row {
	out := Row{keys: make([]string, len(r.keys), len(r.keys)+1), vals: make(map[string]Value, len(r.vals)+1)}
	copy(out.keys, r.keys)
	for kk, vv := range r.vals {
		out.vals[kk] = vv
	}
	out.set(k, v)
	return out
}

// AllMissing reports whether every value is missing. A row with no keys
// counts as all missing.
func (r Row) AllMissing() bool {
	for _, k := range r.keys {
		if !r.vals[k].IsMissing() {
			return false
		}
	}
	return true
}

// HasMissing reports whether any key holds a missing value.
func (r Row) HasMissing() bool {
	for _, k := range r.keys {
		if r.vals[k].IsMissing() {
			return true
		}
	}
	return false
}

// Equal compares keys, order and values.
func (r Row) Equal(o Row) bool {
	if len(r.keys) != len(o.keys) {
		return false
	}
	for i, k := range r.keys {
		if o.keys[i] != k || !r.vals[k].Equal(o.vals[k]) {
			return false
		}
	}
	return true
}

// MarshalJSON writes the row as an object with keys in insertion order.
func (r Row) MarshalJSON() ([]byte, error) {
	var b bytes.Buffer
	b.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			b.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		b.Write(kb)
		b.WriteByte(':')
		vb, err := r.vals[k].MarshalJSON()
		if err != nil {
			return nil, err
		}
		b.Write(vb)
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object, keeping the source key order.
func (r *Row) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("expected object, got %s", describeToken(tok))
	}
	out := Row{vals: make(map[string]Value)}
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := kt.(string)
		if !ok {
			return fmt.Errorf("expected object key, got %v", kt)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("value for %q: %w", key, err)
		}
		v, err := ValueFromJSON(raw)
		if err != nil {
			return fmt.Errorf("value for %q: %w", key, err)
		}
		out.set(key, v)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*r = out
	return nil
}

func describeToken(tok json.Token) string {
	switch t := tok.(type) {
	case json.Delim:
		if t == '[' {
			return "array"
		}
		return string(t)
	case string:
		return "string"
	case json.Number, float64:
		return "number"
	case bool:
		return "boolean"
	case nil:
		return "null"
	}
	return fmt.Sprintf("%T", tok)
}
