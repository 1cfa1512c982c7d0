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

package scanio

import (
	"bytes"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/wtsi-hgi/codebase/codebase"
	internaltest "github.com/wtsi-hgi/codebase/internal/test"
	"github.com/wtsi-hgi/codebase/resource"
)

var scenarioPaths = []string{ //nolint:gochecknoglobals
	"codebase",
	"codebase/abc",
	"codebase/et131x.h",
	"codebase/dir",
	"codebase/dir/that",
	"codebase/dir/this",
	"codebase/other dir",
	"codebase/other dir/file",
}

func testOptions(t *testing.T) codebase.Options {
	t.Helper()

	opts := codebase.DefaultOptions()
	opts.TempDir = t.TempDir()
	opts.CodebaseAttributes = []resource.Field{{Name: "license_clarity", Kind: resource.Map}}

	return opts
}

func scannedCodebase(t *testing.T) *codebase.Codebase {
	t.Helper()

	c, err := codebase.New(internaltest.CreateScenarioTree(t.TempDir()), testOptions(t))
	So(err, ShouldBeNil)

	h := c.GetOrCreateCurrentHeader()
	h.ToolName = "codebase"
	h.StartTimestamp = "2025-01-02T030405.000000"

	return c
}

func reimport(t *testing.T, payload codebase.Payload) *codebase.Codebase {
	t.Helper()

	c, err := codebase.NewVirtual(testOptions(t), payload)
	So(err, ShouldBeNil)

	return c
}

func walkPaths(c *codebase.Codebase) []string {
	var ps []string

	for r, err := range c.All() {
		So(err, ShouldBeNil)

		ps = append(ps, r.Path)
	}

	return ps
}

func TestJSON(t *testing.T) {
	Convey("Given a scanned codebase", t, func() {
		c := scannedCodebase(t)
		So(walkPaths(c), ShouldResemble, scenarioPaths)

		var buf bytes.Buffer

		Convey("its JSON output can be loaded back into an equal virtual codebase", func() {
			So(WriteJSON(&buf, c, WriteOptions{DictOptions: resource.DictOptions{WithInfo: true}}), ShouldBeNil)

			payload, err := Load(buf.String())
			So(err, ShouldBeNil)
			So(len(payload.Files()), ShouldEqual, len(scenarioPaths))
			So(len(payload.Headers()), ShouldEqual, 1)

			v := reimport(t, payload)
			So(walkPaths(v), ShouldResemble, scenarioPaths)
			So(v.WithInfo(), ShouldBeTrue)

			abc, err := v.Get("codebase/abc")
			So(err, ShouldBeNil)
			So(abc.IsFile, ShouldBeTrue)
			So(abc.Size, ShouldEqual, 3)

			So(len(v.Headers()), ShouldEqual, 1)
			So(v.Headers()[0].ToolName, ShouldEqual, "codebase")
		})

		Convey("skinny output keeps only paths and types", func() {
			So(WriteJSON(&buf, c, WriteOptions{DictOptions: resource.DictOptions{Skinny: true}}), ShouldBeNil)

			payload, err := Decode(&buf)
			So(err, ShouldBeNil)

			for _, f := range payload.Files() {
				So(len(f), ShouldEqual, 2)
			}

			So(reimport(t, payload).WithInfo(), ShouldBeFalse)
		})

		Convey("the root can be left out", func() {
			So(WriteJSON(&buf, c, WriteOptions{SkipRoot: true}), ShouldBeNil)

			payload, err := Decode(&buf)
			So(err, ShouldBeNil)
			So(len(payload.Files()), ShouldEqual, len(scenarioPaths)-1)

			So(walkPaths(reimport(t, payload)), ShouldResemble, scenarioPaths)
		})

		Convey("writes to broken writers fail", func() {
			So(WriteJSON(internaltest.BadWriter{}, c, WriteOptions{}), ShouldNotBeNil)
		})
	})

	Convey("Input that is not scan data is rejected", t, func() {
		_, err := Decode(bytes.NewReader([]byte("null")))
		So(err, ShouldEqual, ErrNotScanData)

		_, err = Load("{not json")
		So(err, ShouldNotBeNil)

		_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
		So(err, ShouldNotBeNil)
	})
}

func TestJSONFiles(t *testing.T) {
	Convey("Given a scanned codebase", t, func() {
		c := scannedCodebase(t)
		dir := t.TempDir()

		for _, name := range []string{"scan.json", "scan.json.gz"} {
			Convey("it can be written to and loaded from "+name, func() {
				path := filepath.Join(dir, name)

				So(WriteJSONFile(path, c, WriteOptions{Indent: 2}), ShouldBeNil)

				payloads, err := LoadAll(path, path)
				So(err, ShouldBeNil)
				So(len(payloads), ShouldEqual, 2)

				So(walkPaths(reimport(t, payloads[0])), ShouldResemble, scenarioPaths)
			})
		}

		Convey("writing to an unwritable location fails", func() {
			So(WriteJSONFile(filepath.Join(dir, "missing", "scan.json"), c, WriteOptions{}), ShouldNotBeNil)
		})
	})
}

func TestBolt(t *testing.T) {
	Convey("Given a scanned codebase with codebase attributes", t, func() {
		c := scannedCodebase(t)
		So(c.Attributes().Set("license_clarity", map[string]any{"score": int64(80)}), ShouldBeNil)

		path := filepath.Join(t.TempDir(), "scan.db")
		So(WriteBolt(path, c), ShouldBeNil)

		Convey("the database can be summarised", func() {
			info, err := Info(path)
			So(err, ShouldBeNil)
			So(info.NumFiles, ShouldEqual, len(scenarioPaths))
			So(info.NumHeaders, ShouldEqual, 1)
		})

		Convey("the database can be loaded back", func() {
			payload, err := Load(path)
			So(err, ShouldBeNil)
			So(payload["license_clarity"], ShouldResemble, map[string]any{"score": int64(80)})

			v := reimport(t, payload)
			So(walkPaths(v), ShouldResemble, scenarioPaths)

			clarity, err := v.Attributes().Get("license_clarity")
			So(err, ShouldBeNil)
			So(clarity, ShouldResemble, map[string]any{"score": int64(80)})

			that, err := v.Get("codebase/dir/that")
			So(err, ShouldBeNil)
			So(that.Size, ShouldEqual, len("dir/that"))
		})

		Convey("missing databases fail to load", func() {
			_, err := ReadBolt(filepath.Join(t.TempDir(), "missing.db"))
			So(err, ShouldNotBeNil)
		})
	})
}
