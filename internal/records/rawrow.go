// Package records defines RawRow, the flat column→value mapping produced
// directly from one decoded CSV data line.
package records

import "iter"

// Value is a single cell. A Value is either present (possibly the empty
// string) or absent, which marks a header position the data line did not
// reach.
type Value struct {
	S       string
	Present bool
}

// Absent is the marker stored for missing trailing fields.
var Absent = Value{}

// Str returns a present Value holding s.
func Str(s string) Value { return Value{S: s, Present: true} }

// RawRow is an insertion-ordered mapping from column name to Value. Setting
// a key that already exists overwrites its value and keeps its original
// position, so duplicate headers silently overwrite. The zero value is an
// empty row ready for use.
type RawRow struct {
	keys []string
	vals []Value
	idx  map[string]int
}

// NewRawRow returns an empty row with room for n columns.
func NewRawRow(n int) RawRow {
	return RawRow{
		keys: make([]string, 0, n),
		vals: make([]Value, 0, n),
		idx:  make(map[string]int, n),
	}
}

// Set stores v under key.
func (r *RawRow) Set(key string, v Value) {
	if r.idx == nil {
		r.idx = make(map[string]int)
	}
	if i, ok := r.idx[key]; ok {
		r.vals[i] = v
		return
	}
	r.idx[key] = len(r.keys)
	r.keys = append(r.keys, key)
	r.vals = append(r.vals, v)
}

// Get returns the value stored under key. ok is false when the key was never
// set; a key set to Absent returns (Absent, true).
func (r RawRow) Get(key string) (Value, bool) {
	i, ok := r.idx[key]
	if !ok {
		return Absent, false
	}
	return r.vals[i], true
}

// Len returns the number of distinct keys.
func (r RawRow) Len() int { return len(r.keys) }

// Keys returns the keys in insertion order. The slice is a copy.
func (r RawRow) Keys() []string { return append([]string(nil), r.keys...) }

// All iterates entries in insertion order.
func (r RawRow) All() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		for i, k := range r.keys {
			if !yield(k, r.vals[i]) {
				return
			}
		}
	}
}

// Map flattens the row into a plain map of present values. Absent values are
// left out.
func (r RawRow) Map() map[string]string {
	m := make(map[string]string, len(r.keys))
	for i, k := range r.keys {
		if r.vals[i].Present {
			m[k] = r.vals[i].S
		}
	}
	return m
}
