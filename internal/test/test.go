package internaltest

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	. "github.com/smartystreets/goconvey/convey"
)

// CreateTree creates the given entries under dir. Entries ending in "/" are
// directories; the rest are files whose content is their own entry string.
// Must be called from inside a Convey.
func CreateTree(dir string, entries ...string) string {
	for _, e := range entries {
		p := filepath.Join(dir, filepath.FromSlash(e))

		if strings.HasSuffix(e, "/") {
			So(os.MkdirAll(p, 0700), ShouldBeNil)

			continue
		}

		So(os.MkdirAll(filepath.Dir(p), 0700), ShouldBeNil)
		So(os.WriteFile(p, []byte(e), 0600), ShouldBeNil)
	}

	return dir
}

// CreateScenarioTree creates a "codebase" directory under dir with files abc
// and et131x.h, a dir with files that and this, and an "other dir" with a
// file, returning its location.
func CreateScenarioTree(dir string) string {
	return CreateTree(filepath.Join(dir, "codebase"),
		"abc",
		"et131x.h",
		"dir/that",
		"dir/this",
		"other dir/file",
	)
}

// CreateDeepTree creates a "deep" directory under dir with two files and two
// directories at each of three levels, returning its location.
func CreateDeepTree(dir string) string {
	return CreateTree(filepath.Join(dir, "deep"),
		"f1",
		"f2",
		"d1/f1",
		"d1/f2",
		"d1/d1/f1",
		"d1/d1/d1/f1",
		"d2/f1",
		"d2/d1/f1",
		"d2/d2/",
	)
}

// Record returns a scan file record with the given path, type and extra keys.
func Record(path string, isFile bool, extra map[string]any) map[string]any {
	typ := "directory"
	if isFile {
		typ = "file"
	}

	r := map[string]any{"path": path, "type": typ}

	for k, v := range extra {
		r[k] = v
	}

	return r
}

// Payload returns scan data holding the given file records.
func Payload(records ...map[string]any) map[string]any {
	files := make([]any, len(records))
	for n, r := range records {
		files[n] = r
	}

	return map[string]any{"files": files}
}

// BadWriter is an io.WriteCloser that always fails.
type BadWriter struct{}

func (BadWriter) Write([]byte) (int, error) {
	return 0, fs.ErrClosed
}

func (BadWriter) Close() error {
	return fs.ErrClosed
}
