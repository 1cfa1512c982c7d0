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

// Dict is an insertion ordered mapping of string keys to values, stored as
// alternating keys and values. It encodes as a JSON object with its keys in
// insertion order.
type Dict []any

// MapBySlice tells the codec to encode a Dict as a map.
func (Dict) MapBySlice() {}

// Set returns the Dict with key set to v, replacing any existing value in
// place and otherwise appending.
func (d Dict) Set(key string, v any) Dict {
	for n := 0; n+1 < len(d); n += 2 {
		if d[n] == key {
			d[n+1] = v

			return d
		}
	}

	return append(d, key, v)
}

// Get returns the value for the given key.
func (d Dict) Get(key string) (any, bool) {
	for n := 0; n+1 < len(d); n += 2 {
		if d[n] == key {
			return d[n+1], true
		}
	}

	return nil, false
}

// Keys returns the keys in order.
func (d Dict) Keys() []string {
	keys := make([]string, 0, len(d)/2)

	for n := 0; n+1 < len(d); n += 2 {
		if k, ok := d[n].(string); ok {
			keys = append(keys, k)
		}
	}

	return keys
}

// Len returns the number of keys.
func (d Dict) Len() int {
	return len(d) / 2
}

// Map returns the Dict as a plain map, converting nested Dicts too.
func (d Dict) Map() map[string]any {
	m := make(map[string]any, d.Len())

	for n := 0; n+1 < len(d); n += 2 {
		k, _ := d[n].(string) //nolint:errcheck

		if nested, ok := d[n+1].(Dict); ok {
			m[k] = nested.Map()
		} else {
			m[k] = d[n+1]
		}
	}

	return m
}
