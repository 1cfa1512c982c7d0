/*******************************************************************************
 * Copyright (c) 2025 Genome Research Ltd.
 *
 * Permission is hereby granted, free of charge, to any person obtaining
 * a copy of this software and associated documentation files (the
 * "Software"), to deal in the Software without restriction, including
 * without limitation the rights to use, copy, modify, merge, publish,
 * distribute, sublicense, and/or sell copies of the Software, and to
 * permit persons to whom the Software is furnished to do so, subject to
 * the following conditions:
 *
 * The above copyright notice and this permission notice shall be included
 * in all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND,
 * EXPRESS OR IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF
 * MERCHANTABILITY, FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.
 * IN NO EVENT SHALL THE AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY
 * CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER IN AN ACTION OF CONTRACT,
 * TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN CONNECTION WITH THE
 * SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
 ******************************************************************************/

package resource

import (
	"fmt"
	"math"

	"golang.org/x/exp/slices"
)

// Kind is the shape of a dynamic attribute value.
type Kind int

const (
	// Scalar attributes hold a string, number, bool or nil and default to nil.
	Scalar Kind = iota
	// List attributes hold a []any and default to an empty list.
	List
	// Map attributes hold a map[string]any and default to an empty map.
	Map
)

func (k Kind) String() string {
	switch k {
	case List:
		return "list"
	case Map:
		return "map"
	default:
		return "scalar"
	}
}

// Default returns a fresh default value for the kind.
func (k Kind) Default() any {
	switch k {
	case List:
		return []any{}
	case Map:
		return map[string]any{}
	default:
		return nil
	}
}

// KindOf returns the Kind a value implies.
func KindOf(v any) Kind {
	switch v.(type) {
	case []any, []string:
		return List
	case map[string]any, Dict:
		return Map
	default:
		return Scalar
	}
}

// Field describes one dynamic attribute.
type Field struct {
	Name string
	Kind Kind
}

// Schema is the ordered set of dynamic attribute fields shared by every
// record of a codebase. It is fixed once the codebase is built.
type Schema struct {
	fields []Field
	index  map[string]int
}

// NewSchema returns a Schema with the given fields, in order. Later duplicates
// of a name are ignored.
func NewSchema(fields ...Field) *Schema {
	s := &Schema{index: make(map[string]int, len(fields))}

	for _, f := range fields {
		s.Add(f)
	}

	return s
}

// Add appends the field if no field of the same name exists yet, returning
// true if it was added.
func (s *Schema) Add(f Field) bool {
	if _, ok := s.index[f.Name]; ok {
		return false
	}

	s.index[f.Name] = len(s.fields)
	s.fields = append(s.fields, f)

	return true
}

// Fields returns a copy of the fields in order.
func (s *Schema) Fields() []Field {
	if s == nil {
		return nil
	}

	return slices.Clone(s.fields)
}

// Names returns the field names in order.
func (s *Schema) Names() []string {
	if s == nil {
		return nil
	}

	names := make([]string, len(s.fields))
	for n, f := range s.fields {
		names[n] = f.Name
	}

	return names
}

// Has returns true if the schema has a field of the given name.
func (s *Schema) Has(name string) bool {
	if s == nil {
		return false
	}

	_, ok := s.index[name]

	return ok
}

// Kind returns the kind of the named field.
func (s *Schema) Kind(name string) (Kind, bool) {
	if s == nil {
		return Scalar, false
	}

	n, ok := s.index[name]
	if !ok {
		return Scalar, false
	}

	return s.fields[n].Kind, true
}

// Len returns the number of fields.
func (s *Schema) Len() int {
	if s == nil {
		return 0
	}

	return len(s.fields)
}

// InferSchema builds a Schema from the union of the keys of the given records.
// Records are visited in order and the keys of each record in sorted order.
// The first non-nil value seen for a key decides its kind; keys only ever
// holding nil are Scalar. Keys in reserved are skipped.
func InferSchema(records []map[string]any, reserved map[string]bool) *Schema {
	s := NewSchema()
	decided := make(map[string]bool)

	for _, record := range records {
		for _, key := range sortedKeys(record) {
			if reserved[key] {
				continue
			}

			v := record[key]

			s.Add(Field{Name: key})

			if decided[key] || v == nil {
				continue
			}

			s.fields[s.index[key]].Kind = KindOf(v)
			decided[key] = true
		}
	}

	return s
}

// Attributes is a bag of dynamic attribute values described by a Schema.
type Attributes struct {
	schema *Schema
	values map[string]any
}

// NewAttributes returns Attributes holding the default value of every field
// in the schema.
func NewAttributes(s *Schema) *Attributes {
	a := &Attributes{schema: s, values: make(map[string]any, s.Len())}

	if s != nil {
		for _, f := range s.fields {
			a.values[f.Name] = f.Kind.Default()
		}
	}

	return a
}

// Schema returns the schema describing these attributes.
func (a *Attributes) Schema() *Schema {
	return a.schema
}

// Get returns the value of the named attribute, or ErrUnknownAttribute.
func (a *Attributes) Get(name string) (any, error) {
	if a == nil || !a.schema.Has(name) {
		return nil, ErrUnknownAttribute
	}

	return a.values[name], nil
}

// Set sets the named attribute to a deep copy of v converted by Normalise, so
// values read back are the same whether a record was kept in memory or not. A
// nil v on a List or Map field resets it to its default. Values Normalise
// can't convert give ErrUnsupportedValue.
func (a *Attributes) Set(name string, v any) error {
	if a == nil {
		return ErrUnknownAttribute
	}

	kind, ok := a.schema.Kind(name)
	if !ok {
		return ErrUnknownAttribute
	}

	if v == nil {
		a.values[name] = kind.Default()

		return nil
	}

	nv, err := Normalise(v)
	if err != nil {
		return fmt.Errorf("%w: %s", err, name)
	}

	a.values[name] = nv

	return nil
}

// Update sets every key of data that the schema knows, ignoring the rest.
func (a *Attributes) Update(data map[string]any) {
	for k, v := range data {
		if a.schema.Has(k) {
			a.Set(k, v) //nolint:errcheck
		}
	}
}

// Each calls cb for every attribute in schema order.
func (a *Attributes) Each(cb func(name string, value any)) {
	if a == nil || a.schema == nil {
		return
	}

	for _, f := range a.schema.fields {
		cb(f.Name, a.values[f.Name])
	}
}

// Clone returns a deep copy sharing the same schema.
func (a *Attributes) Clone() *Attributes {
	if a == nil {
		return nil
	}

	c := &Attributes{schema: a.schema, values: make(map[string]any, len(a.values))}

	for k, v := range a.values {
		c.values[k] = CopyValue(v)
	}

	return c
}

// Normalise returns a deep copy of v using only the types records decode to:
// nil, string, bool, int64, float64, []any and map[string]any. Other integer
// and float types, []string and Dict are converted; anything else gives
// ErrUnsupportedValue.
func Normalise(v any) (any, error) { //nolint:gocyclo,cyclop
	switch v := v.(type) {
	case nil, string, bool, int64, float64:
		return v, nil
	case int:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case uint:
		return uintToInt64(uint64(v))
	case uint8:
		return int64(v), nil
	case uint16:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint64:
		return uintToInt64(v)
	case float32:
		return float64(v), nil
	case []string:
		return stringsToAny(v), nil
	case []any:
		return normaliseList(v)
	case map[string]any:
		return normaliseMap(v)
	case Dict:
		return normaliseDict(v)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedValue, v)
	}
}

func uintToInt64(u uint64) (any, error) {
	if u > math.MaxInt64 {
		return nil, fmt.Errorf("%w: %d overflows int64", ErrUnsupportedValue, u)
	}

	return int64(u), nil
}

func normaliseList(l []any) (any, error) {
	c := make([]any, len(l))

	for n, e := range l {
		ne, err := Normalise(e)
		if err != nil {
			return nil, err
		}

		c[n] = ne
	}

	return c, nil
}

func normaliseMap(m map[string]any) (any, error) {
	c := make(map[string]any, len(m))

	for k, e := range m {
		ne, err := Normalise(e)
		if err != nil {
			return nil, err
		}

		c[k] = ne
	}

	return c, nil
}

func normaliseDict(d Dict) (any, error) {
	c := make(map[string]any, d.Len())

	for n := 0; n+1 < len(d); n += 2 {
		k, ok := d[n].(string)
		if !ok {
			return nil, fmt.Errorf("%w: %T map key", ErrUnsupportedValue, d[n])
		}

		ne, err := Normalise(d[n+1])
		if err != nil {
			return nil, err
		}

		c[k] = ne
	}

	return c, nil
}

// CopyValue returns a deep copy of a JSON data model value.
func CopyValue(v any) any {
	switch v := v.(type) {
	case []any:
		c := make([]any, len(v))
		for n, e := range v {
			c[n] = CopyValue(e)
		}

		return c
	case []string:
		return slices.Clone(v)
	case map[string]any:
		c := make(map[string]any, len(v))
		for k, e := range v {
			c[k] = CopyValue(e)
		}

		return c
	case Dict:
		c := make(Dict, len(v))
		for n, e := range v {
			c[n] = CopyValue(e)
		}

		return c
	default:
		return v
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	slices.Sort(keys)

	return keys
}
