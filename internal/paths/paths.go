// Package paths holds the pure path helpers used to derive resource keys. All
// functions work on POSIX paths and never touch the filesystem.
package paths

import (
	"path"
	"path/filepath"
	"strings"
)

// Clean returns a normalised POSIX path: backslashes become slashes, "." and
// ".." segments are resolved, and leading and trailing slashes are removed. The
// empty path and "." both clean to "".
//
// Clean(Clean(p)) == Clean(p) for all p.
func Clean(p string) string {
	p = strings.Trim(strings.ReplaceAll(p, `\`, "/"), "/")

	p = path.Clean(p)
	if p == "." {
		return ""
	}

	// path.Clean keeps leading ".." segments of relative paths; they have no
	// meaning for a key below a root.
	for p == ".." || strings.HasPrefix(p, "../") {
		p = strings.TrimPrefix(strings.TrimPrefix(p, ".."), "/")
	}

	return p
}

// Join joins a cleaned parent path and a child segment name.
func Join(parent, name string) string {
	if parent == "" {
		return Clean(name)
	}

	return Clean(parent + "/" + name)
}

// Parent returns the parent path of the given cleaned path, or "" for a single
// segment path.
func Parent(p string) string {
	p = Clean(p)

	pos := strings.LastIndexByte(p, '/')
	if pos < 0 {
		return ""
	}

	return p[:pos]
}

// Base returns the last segment of the given path.
func Base(p string) string {
	p = Clean(p)

	return p[strings.LastIndexByte(p, '/')+1:]
}

// Split returns the segments of the given path. An empty path has no segments.
func Split(p string) []string {
	p = Clean(p)
	if p == "" {
		return []string{}
	}

	parts := make([]string, 0, strings.Count(p, "/")+1)

	for len(p) > 0 {
		pos := strings.IndexByte(p, '/')
		if pos < 0 {
			parts = append(parts, p)

			break
		}

		parts = append(parts, p[:pos])
		p = p[pos+1:]
	}

	return parts
}

// FirstSegment returns the first segment of the given path.
func FirstSegment(p string) string {
	p = Clean(p)

	if pos := strings.IndexByte(p, '/'); pos >= 0 {
		return p[:pos]
	}

	return p
}

// StripFirstSegment returns the path without its first segment. Paths with a
// single segment are returned unchanged.
func StripFirstSegment(p string) string {
	segments := Split(p)
	if len(segments) <= 1 {
		return p
	}

	return strings.Join(segments[1:], "/")
}

// Ancestors returns the cleaned ancestor paths of p, nearest first, not
// including p itself or the empty path.
func Ancestors(p string) []string {
	var ancestors []string

	for p = Parent(p); p != ""; p = Parent(p) {
		ancestors = append(ancestors, p)
	}

	return ancestors
}

// FromLocation converts a native filesystem location to a POSIX path. When
// fullRoot is true the cleaned absolute location is returned (without its
// leading slash, like every other key), otherwise the path is
// made relative to rootLocation, keeping the root's own name as first segment
// unless stripRoot is set.
func FromLocation(rootLocation, location string, fullRoot, stripRoot bool) string {
	posixLoc := filepath.ToSlash(location)
	if fullRoot {
		return Clean(posixLoc)
	}

	rootLoc := rootLocation
	if !stripRoot {
		rootLoc = filepath.Dir(rootLocation)
	}

	rootLoc = strings.TrimRight(filepath.ToSlash(rootLoc), "/")
	if posixLoc == rootLoc {
		return ""
	}

	return Clean(strings.TrimPrefix(posixLoc, rootLoc+"/"))
}
