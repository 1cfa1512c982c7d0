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

package ignore

import (
	"net"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestIgnore(t *testing.T) {
	Convey("VCS metadata is ignored by base name", t, func() {
		So(IsVCS("/src/project/.git"), ShouldBeTrue)
		So(IsVCS("/src/project/CVS"), ShouldBeTrue)
		So(IsVCS("/src/project/.#lockfile"), ShouldBeTrue)
		So(IsVCS("/src/project/sccs"), ShouldBeFalse)
		So(IsVCS("/src/project/rcs"), ShouldBeFalse)
		So(IsVCS("/src/.git/project"), ShouldBeFalse)
	})

	Convey("Given some files on disk", t, func() {
		dir := t.TempDir()
		file := filepath.Join(dir, "file")
		So(os.WriteFile(file, []byte("data"), 0600), ShouldBeNil)

		Convey("regular files and directories are not special", func() {
			So(IsSpecial(file), ShouldBeFalse)
			So(IsSpecial(dir), ShouldBeFalse)
			So(Default(file), ShouldBeFalse)
		})

		Convey("broken symlinks are special", func() {
			link := filepath.Join(dir, "link")
			So(os.Symlink(filepath.Join(dir, "missing"), link), ShouldBeNil)
			So(IsSpecial(link), ShouldBeTrue)
		})

		Convey("working symlinks are not special", func() {
			link := filepath.Join(dir, "link")
			So(os.Symlink(file, link), ShouldBeNil)
			So(IsSpecial(link), ShouldBeFalse)
		})

		Convey("sockets are special", func() {
			sock := filepath.Join(dir, "s")

			l, err := net.Listen("unix", sock)
			if err != nil {
				SkipSo(err, ShouldBeNil)

				return
			}

			defer l.Close()

			So(IsSpecial(sock), ShouldBeTrue)
			So(Default(sock), ShouldBeTrue)
		})
	})

	Convey("Predicates can be combined", t, func() {
		p := Any(Patterns("*.tmp"), IsVCS, nil)

		So(p("/a/b.tmp"), ShouldBeTrue)
		So(p("/a/.svn"), ShouldBeTrue)
		So(p("/a/b.txt"), ShouldBeFalse)
		So(Nothing("/a/.git"), ShouldBeFalse)
	})
}
