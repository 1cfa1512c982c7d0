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
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestCodec(t *testing.T) {
	schema := NewSchema(
		Field{"licenses", List},
		Field{"info", Map},
		Field{"sha1", Scalar},
		Field{"is_binary", Scalar},
		Field{"ratio", Scalar},
	)

	record := New("b.tar.gz", "/src/a/b.tar.gz", "a/b.tar.gz", true, schema)
	record.CacheLocation = "/tmp/cache/ab/1234ab"
	record.IsFiltered = true
	record.Size = 1 << 40
	record.SizeCount = 7
	record.FilesCount = 2
	record.DirsCount = 1
	record.ScanErrors = []string{"boom"}
	record.ScanTime = 1.5
	record.ScanTimings = map[string]float64{"licenses": 0.25}
	record.ExtraData = map[string]any{"nested": map[string]any{"list": []any{int64(1), "two", nil}}}

	for _, test := range []struct {
		name  string
		codec *Codec
	}{
		{"json", NewCodec(schema)},
		{"binc", NewCodecWithHandle(schema, NewBincHandle())},
	} {
		Convey("A record round trips through the "+test.name+" codec", t, func() {
			So(record.Attrs.Set("licenses", []any{"mit", map[string]any{"key": "apache-2.0", "score": 99.5}}), ShouldBeNil)
			So(record.Attrs.Set("info", map[string]any{"lines": int64(-3), "flags": []any{true, false}}), ShouldBeNil)
			So(record.Attrs.Set("sha1", "da39a3ee"), ShouldBeNil)
			So(record.Attrs.Set("is_binary", false), ShouldBeNil)
			So(record.Attrs.Set("ratio", 0.125), ShouldBeNil)

			encoded, err := test.codec.Encode(record)
			So(err, ShouldBeNil)

			decoded, err := test.codec.Decode(encoded)
			So(err, ShouldBeNil)
			So(decoded, ShouldResemble, record)
			So(decoded.Serialize(), ShouldResemble, record.Serialize())

			Convey("and a root with no location keeps its empty fields", func() {
				root := New("root", "", "root", false, schema)
				root.IsRoot = true

				encoded, err := test.codec.Encode(root)
				So(err, ShouldBeNil)

				decoded, err := test.codec.Decode(encoded)
				So(err, ShouldBeNil)
				So(decoded, ShouldResemble, root)
			})
		})

		Convey("Go values set on a record read back the same before and after the "+test.name+" codec", t, func() {
			r := New("c", "/src/a/c", "a/c", true, schema)

			So(r.Attrs.Set("sha1", 3), ShouldBeNil)
			So(r.Attrs.Set("ratio", float32(0.5)), ShouldBeNil)
			So(r.Attrs.Set("licenses", []string{"x"}), ShouldBeNil)
			So(r.Attrs.Set("info", Dict{}.Set("n", uint8(2)).Set("tags", []string{"y"})), ShouldBeNil)

			check := func(got *Resource) {
				v, err := got.Attrs.Get("sha1")
				So(err, ShouldBeNil)
				So(v, ShouldResemble, int64(3))

				v, _ = got.Attrs.Get("ratio")
				So(v, ShouldResemble, float64(0.5))

				v, _ = got.Attrs.Get("licenses")
				So(v, ShouldResemble, []any{"x"})

				v, _ = got.Attrs.Get("info")
				So(v, ShouldResemble, map[string]any{"n": int64(2), "tags": []any{"y"}})
			}

			check(r)

			encoded, err := test.codec.Encode(r)
			So(err, ShouldBeNil)

			decoded, err := test.codec.Decode(encoded)
			So(err, ShouldBeNil)
			check(decoded)
			So(decoded.Attrs, ShouldResemble, r.Attrs)
		})
	}

	Convey("Values that can't be serialised are rejected", t, func() {
		a := NewAttributes(schema)

		So(errors.Is(a.Set("sha1", struct{}{}), ErrUnsupportedValue), ShouldBeTrue)
		So(errors.Is(a.Set("licenses", []any{"ok", make(chan int)}), ErrUnsupportedValue), ShouldBeTrue)
		So(errors.Is(a.Set("info", Dict{1, "not a string key"}), ErrUnsupportedValue), ShouldBeTrue)
		So(errors.Is(a.Set("sha1", uint64(1<<63)), ErrUnsupportedValue), ShouldBeTrue)

		v, err := a.Get("licenses")
		So(err, ShouldBeNil)
		So(v, ShouldResemble, []any{})
	})

	Convey("Decoding something other than an object fails", t, func() {
		c := NewCodec(schema)

		_, err := c.Decode([]byte(`null`))
		So(err, ShouldEqual, ErrNotAnObject)

		_, err = c.Decode([]byte(`{"path":`))
		So(err, ShouldNotBeNil)
	})
}

func TestHeader(t *testing.T) {
	Convey("Headers convert to and from mappings", t, func() {
		h := NewHeader("tool")
		h.StartTimestamp = "2025-01-02T030405.000000"
		h.Errors = append(h.Errors, "e1")
		h.AddExtraData("files_count", int64(3))

		d := h.ToDict()
		So(d.Keys()[0], ShouldEqual, "tool_name")

		back := HeaderFromMap(d.Map())
		So(back, ShouldResemble, h)
		So(back.ExtraDataKeys(), ShouldResemble, []string{"files_count"})

		c := h.Clone()
		c.Errors[0] = "changed"
		So(h.Errors[0], ShouldEqual, "e1")
	})
}
