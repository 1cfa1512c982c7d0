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
	"reflect"

	"github.com/ugorji/go/codec"
)

// NewJSONHandle returns the JSON handle used for every JSON read and write of
// records and payloads: integers decode as int64, objects as map[string]any,
// and plain maps encode with sorted keys.
func NewJSONHandle() *codec.JsonHandle {
	h := new(codec.JsonHandle)
	h.SignedInteger = true
	h.MapType = reflect.TypeOf(map[string]any(nil))
	h.Canonical = true

	return h
}

// NewBincHandle returns a binary handle that decodes like NewJSONHandle.
func NewBincHandle() *codec.BincHandle {
	h := new(codec.BincHandle)
	h.SignedInteger = true
	h.MapType = reflect.TypeOf(map[string]any(nil))
	h.Canonical = true

	return h
}

// Codec encodes records to bytes and back, including all of their dynamic
// attributes.
type Codec struct {
	schema *Schema
	ch     codec.Handle
}

// NewCodec returns a JSON Codec for records with the given schema.
func NewCodec(schema *Schema) *Codec {
	return &Codec{schema: schema, ch: NewJSONHandle()}
}

// NewCodecWithHandle returns a Codec using the given handle, such as a
// codec.BincHandle for compact storage.
func NewCodecWithHandle(schema *Schema, ch codec.Handle) *Codec {
	return &Codec{schema: schema, ch: ch}
}

// Schema returns the schema records are decoded with.
func (c *Codec) Schema() *Schema {
	return c.schema
}

// Encode returns the serialised form of the given record.
func (c *Codec) Encode(r *Resource) ([]byte, error) {
	return EncodeValue(c.ch, r.Serialize())
}

// Decode returns a new record from the output of Encode.
func (c *Codec) Decode(encoded []byte) (*Resource, error) {
	data, err := DecodeMap(c.ch, encoded)
	if err != nil {
		return nil, err
	}

	return Deserialize(data, c.schema), nil
}

// EncodeValue encodes any value with the given handle.
func EncodeValue(ch codec.Handle, v any) ([]byte, error) {
	var encoded []byte

	enc := codec.NewEncoderBytes(&encoded, ch)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}

	return encoded, nil
}

// DecodeMap decodes an encoded object with the given handle.
func DecodeMap(ch codec.Handle, encoded []byte) (map[string]any, error) {
	var data map[string]any

	dec := codec.NewDecoderBytes(encoded, ch)
	if err := dec.Decode(&data); err != nil {
		return nil, err
	}

	if data == nil {
		return nil, ErrNotAnObject
	}

	return data, nil
}
