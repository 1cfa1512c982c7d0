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

// Package ignore decides which filesystem entries are left out of a codebase.
package ignore

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

// Predicate returns true if the entry at the given absolute location must not
// become part of a codebase.
type Predicate func(location string) bool

// VCSPatterns are the glob patterns of version control metadata names. They are
// matched against the base name of a location.
var VCSPatterns = []string{ //nolint:gochecknoglobals
	".bzr",
	".bzrignore",
	".git",
	".gitignore",
	".gitattributes",
	".gitmodules",
	".gitreview",
	".hg",
	".hgignore",
	".hgtags",
	".hgsigs",
	".hgsub",
	".hgsubstate",
	".svn",
	".svnignore",
	"CVS",
	".cvs",
	".cvsignore",
	".cvsrc",
	".repo",
	"_darcs",
	"_MTN",
	".osc",
	".#*",
}

const specialModes = fs.ModeSocket | fs.ModeDevice | fs.ModeCharDevice | fs.ModeNamedPipe | fs.ModeIrregular

// Nothing never ignores anything.
func Nothing(string) bool { return false }

// Default ignores VCS metadata and special files.
func Default(location string) bool {
	return IsVCS(location) || IsSpecial(location)
}

// Patterns returns a Predicate that ignores locations whose base name matches
// one of the given doublestar patterns. Invalid patterns never match.
func Patterns(patterns ...string) Predicate {
	return func(location string) bool {
		return matchesAny(filepath.Base(location), patterns)
	}
}

// Any returns a Predicate that ignores a location if any of the given
// predicates do.
func Any(predicates ...Predicate) Predicate {
	return func(location string) bool {
		for _, p := range predicates {
			if p != nil && p(location) {
				return true
			}
		}

		return false
	}
}

// IsVCS returns true if the base name of location is version control metadata.
func IsVCS(location string) bool {
	return matchesAny(filepath.Base(location), VCSPatterns)
}

func matchesAny(name string, patterns []string) bool {
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, name); err == nil && ok {
			return true
		}
	}

	return false
}

// IsSpecial returns true if the location is a socket, device, named pipe or
// other irregular file, or a symlink that does not resolve.
func IsSpecial(location string) bool {
	fi, err := os.Lstat(location)
	if err != nil {
		return false
	}

	if fi.Mode()&fs.ModeSymlink != 0 {
		if fi, err = os.Stat(location); err != nil {
			return true
		}
	}

	return fi.Mode()&specialModes != 0
}
