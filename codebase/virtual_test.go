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

package codebase

import (
	"errors"
	"fmt"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	internaltest "github.com/wtsi-hgi/codebase/internal/test"
	"github.com/wtsi-hgi/codebase/resource"
)

func TestNewVirtual(t *testing.T) {
	for _, maxInMemory := range []int{0, -1, 1} {
		Convey(fmt.Sprintf("Given scan data imported with max in memory %d", maxInMemory), t, func() {
			payload := Payload(internaltest.Payload(
				internaltest.Record("proj/src/main.c", true, map[string]any{
					"size":     int64(10),
					"licenses": []any{map[string]any{"key": "mit"}},
				}),
				internaltest.Record("proj/src", false, map[string]any{"sha1": nil}),
				internaltest.Record("proj", false, map[string]any{"summary": map[string]any{"files": int64(2)}}),
				internaltest.Record("proj/README", true, map[string]any{"size": int64(5), "sha1": "da39"}),
			))
			payload["license_clarity"] = map[string]any{"score": int64(80)}

			c, err := NewVirtual(testOptions(t, maxInMemory), payload)
			So(err, ShouldBeNil)
			So(c.IsVirtual(), ShouldBeTrue)
			So(c.WithInfo(), ShouldBeTrue)
			So(c.HasSingleResource(), ShouldBeFalse)

			Convey("the tree is rebuilt with records that arrived late filled in", func() {
				So(walkPaths(c.All()), ShouldResemble, []string{"proj", "proj/README", "proj/src", "proj/src/main.c"})
				So(c.Store().Len(), ShouldEqual, 4)

				root := c.Root()
				So(root.Location, ShouldEqual, "")
				So(root.IsFile, ShouldBeFalse)

				v, err := root.Attrs.Get("summary")
				So(err, ShouldBeNil)
				So(v, ShouldResemble, map[string]any{"files": int64(2)})

				main := mustGet(c, "proj/src/main.c")
				So(main.IsFile, ShouldBeTrue)
				So(main.Size, ShouldEqual, 10)

				v, err = main.Attrs.Get("licenses")
				So(err, ShouldBeNil)
				So(v, ShouldResemble, []any{map[string]any{"key": "mit"}})

				v, err = main.Attrs.Get("summary")
				So(err, ShouldBeNil)
				So(v, ShouldResemble, map[string]any{})
			})

			Convey("the schema is inferred from every record", func() {
				So(c.Schema().Names(), ShouldResemble, []string{"licenses", "sha1", "summary"})

				kind, _ := c.Schema().Kind("sha1")
				So(kind, ShouldEqual, resource.Scalar)

				kind, _ = c.Schema().Kind("licenses")
				So(kind, ShouldEqual, resource.List)
			})

			Convey("codebase attributes come from the other top-level keys", func() {
				v, err := c.Attributes().Get("license_clarity")
				So(err, ShouldBeNil)
				So(v, ShouldResemble, map[string]any{"score": int64(80)})

				_, err = c.Attributes().Get("files")
				So(err, ShouldEqual, resource.ErrUnknownAttribute)
			})

			Convey("counts work on imported data", func() {
				counts, err := c.ComputeCounts(true, false)
				So(err, ShouldBeNil)
				So(counts, ShouldResemble, Counts{Files: 2, Dirs: 1, Size: 15})
			})
		})
	}

	Convey("Several payloads are merged under a virtual root", t, func() {
		p1 := Payload(internaltest.Payload(
			internaltest.Record("proj1", false, nil),
			internaltest.Record("proj1/a.c", true, nil),
		))
		p1["headers"] = []any{map[string]any{"tool_name": "second", "start_timestamp": "2025-02-01"}}

		p2 := Payload(internaltest.Payload(internaltest.Record("proj2/b.c", true, nil)))
		p2["headers"] = []any{map[string]any{"tool_name": "first", "start_timestamp": "2025-01-01"}}

		c, err := NewVirtual(testOptions(t, 0), p1, p2)
		So(err, ShouldBeNil)
		So(walkPaths(c.All()), ShouldResemble, []string{
			"virtual_root",
			"virtual_root/proj1",
			"virtual_root/proj1/a.c",
			"virtual_root/proj2",
			"virtual_root/proj2/b.c",
		})

		So(len(c.Headers()), ShouldEqual, 2)
		So(c.Headers()[0].ToolName, ShouldEqual, "first")
		So(c.Headers()[1].ToolName, ShouldEqual, "second")
		So(c.WithInfo(), ShouldBeFalse)

		Convey("and a payload without files is rejected", func() {
			_, err := NewVirtual(testOptions(t, 0), p1, Payload(internaltest.Payload()))

			var esie *EmptyScanInputError
			So(errors.As(err, &esie), ShouldBeTrue)
			So(esie.Input, ShouldEqual, "payload 1")
		})
	})

	Convey("A single payload without a common first segment gets a virtual root", t, func() {
		c, err := NewVirtual(testOptions(t, 0), Payload(internaltest.Payload(
			internaltest.Record("a/x", true, nil),
			internaltest.Record("b/y", true, nil),
		)))
		So(err, ShouldBeNil)
		So(walkPaths(c.All()), ShouldResemble, []string{
			"virtual_root", "virtual_root/a", "virtual_root/a/x", "virtual_root/b", "virtual_root/b/y",
		})
	})

	Convey("Deeply nested records have their ancestors created", t, func() {
		deep := "root"
		for n := range 500 {
			deep += fmt.Sprintf("/d%d", n)
		}

		c, err := NewVirtual(testOptions(t, -1), Payload(internaltest.Payload(
			internaltest.Record(deep+"/file", true, nil),
		)))
		So(err, ShouldBeNil)
		So(c.Store().Len(), ShouldEqual, 502)
		So(c.HasSingleResource(), ShouldBeTrue)

		r := mustGet(c, deep+"/file")

		d, err := c.Distance(r)
		So(err, ShouldBeNil)
		So(d, ShouldEqual, 501)
	})

	Convey("Duplicate records update the first", t, func() {
		c, err := NewVirtual(testOptions(t, 0), Payload(internaltest.Payload(
			internaltest.Record("p/f", true, map[string]any{"size": int64(1)}),
			internaltest.Record("p/f", true, map[string]any{"size": int64(2)}),
		)))
		So(err, ShouldBeNil)
		So(c.Store().Len(), ShouldEqual, 2)
		So(mustGet(c, "p").ChildrenNames, ShouldResemble, []string{"f"})
		So(mustGet(c, "p/f").Size, ShouldEqual, 2)
	})

	Convey("A single file record is a single file root", t, func() {
		c, err := NewVirtual(testOptions(t, 0), Payload(internaltest.Payload(
			internaltest.Record("a.txt", true, map[string]any{"size": int64(3)}),
		)))
		So(err, ShouldBeNil)
		So(c.HasSingleResource(), ShouldBeTrue)
		So(c.Root().IsFile, ShouldBeTrue)
		So(c.Root().Size, ShouldEqual, 3)
		So(c.Store().Len(), ShouldEqual, 1)
	})

	Convey("Plugin attributes are added after inferred ones", t, func() {
		opts := testOptions(t, 0)
		opts.ResourceAttributes = []resource.Field{{Name: "packages", Kind: resource.List}, {Name: "sha1", Kind: resource.Map}}
		opts.CodebaseAttributes = []resource.Field{{Name: "summary", Kind: resource.Map}}

		c, err := NewVirtual(opts, Payload(internaltest.Payload(
			internaltest.Record("p/f", true, map[string]any{"sha1": "x"}),
		)))
		So(err, ShouldBeNil)
		So(c.Schema().Names(), ShouldResemble, []string{"sha1", "packages"})

		kind, _ := c.Schema().Kind("sha1")
		So(kind, ShouldEqual, resource.Scalar)

		v, err := c.Attributes().Get("summary")
		So(err, ShouldBeNil)
		So(v, ShouldResemble, map[string]any{})
	})

	Convey("Empty input is rejected", t, func() {
		var esie *EmptyScanInputError

		_, err := NewVirtual(testOptions(t, 0))
		So(errors.As(err, &esie), ShouldBeTrue)

		_, err = NewVirtual(testOptions(t, 0), Payload{"files": []any{}})
		So(errors.As(err, &esie), ShouldBeTrue)
	})
}
