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
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/wtsi-hgi/codebase/internal/paths"
	"github.com/wtsi-hgi/codebase/resource"
	"golang.org/x/exp/slices"
)

const populateErrorPrefix = "ERROR: cannot populate codebase: "

// New builds a codebase from the file or directory at location, reading
// directories breadth-first. Entries rejected by opts.Ignored are skipped and
// errors reading directories are recorded in Errors() without stopping.
func New(location string, opts Options) (*Codebase, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	opts = opts.withDefaults()

	location, err := normaliseLocation(location)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(location)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrLocationNotFound, location)
		}

		return nil, err
	}

	c, err := newCodebase(opts, resource.NewSchema(opts.ResourceAttributes...),
		resource.NewSchema(opts.CodebaseAttributes...))
	if err != nil {
		return nil, err
	}

	c.location = location
	c.isFile = !info.IsDir()

	if err = c.populate(info); err != nil {
		return nil, err
	}

	return c, nil
}

// normaliseLocation expands ~, makes the location absolute and clean, and
// removes trailing separators.
func normaliseLocation(location string) (string, error) {
	if location == "~" || strings.HasPrefix(location, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}

		location = filepath.Join(home, location[1:])
	}

	location, err := filepath.Abs(location)
	if err != nil {
		return "", err
	}

	if trimmed := strings.TrimRight(location, `/\`); trimmed != "" {
		location = trimmed
	}

	return location, nil
}

// queued is a directory waiting to be read.
type queued struct {
	record *resource.Resource
	rel    string
	depth  int
}

func (c *Codebase) populate(info fs.FileInfo) error {
	var entries []fs.DirEntry

	if !c.isFile {
		var err error

		entries, err = os.ReadDir(c.location)
		if err != nil {
			return err
		}
	}

	c.hasSingleResource = c.isFile || len(entries) == 0

	root, err := c.createRoot(filepath.Base(c.location), c.location, c.rootPathFor(), c.isFile)
	if err != nil {
		return err
	}

	if c.isFile {
		root.Size = info.Size()

		if err = c.store.Put(root); err != nil {
			return err
		}
	}

	if c.hasSingleResource {
		return nil
	}

	limits := newPathLimits(c.opts.Paths)
	queue := []queued{{record: root}}

	for len(queue) > 0 {
		dir := queue[0]
		queue = queue[1:]

		if c.opts.MaxDepth > 0 && dir.depth >= c.opts.MaxDepth {
			continue
		}

		if !limits.descend(dir.rel) {
			continue
		}

		created, err := c.populateDir(dir, limits)
		if err != nil {
			return err
		}

		queue = append(queue, created...)
	}

	slog.Debug("populated codebase", "location", c.location, "resources", c.resourcesCount)

	return nil
}

// rootPathFor returns the path of the root of a real codebase.
func (c *Codebase) rootPathFor() string {
	if c.opts.StripRoot {
		if c.hasSingleResource {
			return filepath.Base(c.location)
		}

		return ""
	}

	return paths.FromLocation(c.location, c.location, c.opts.FullRoot, false)
}

// entry is a directory entry that will become a resource.
type entry struct {
	name   string
	isDir  bool
	isLink bool
	size   int64
}

// populateDir creates the resources for the entries of one directory,
// directories first, returning the new directories to read.
func (c *Codebase) populateDir(dir queued, limits pathLimits) ([]queued, error) {
	location := dir.record.Location

	des, err := os.ReadDir(location)
	if err != nil {
		c.errors = append(c.errors, fmt.Sprintf("%s%s", populateErrorPrefix, err))

		slog.Debug("failed to read directory", "location", location, "err", err)

		if len(des) == 0 {
			return nil, nil
		}
	}

	var dirs, files []entry

	for _, de := range des {
		e, ok := c.classify(location, de)
		if !ok || !limits.include(paths.Join(dir.rel, e.name)) {
			continue
		}

		if e.isDir {
			dirs = append(dirs, e)
		} else {
			files = append(files, e)
		}
	}

	byName := func(a, b entry) int { return compareNames(a.name, b.name) }
	slices.SortFunc(dirs, byName)
	slices.SortFunc(files, byName)

	var created []queued

	for _, e := range append(dirs, files...) {
		var data map[string]any
		if !e.isDir {
			data = map[string]any{"size": e.size}
		}

		child, err := c.createChild(dir.record, e.name, !e.isDir, data)
		if err != nil {
			return nil, err
		}

		if e.isDir && !e.isLink {
			created = append(created, queued{record: child, rel: paths.Join(dir.rel, e.name), depth: dir.depth + 1})
		}
	}

	return created, nil
}

// classify turns a directory entry into an entry, returning false if it must
// be skipped. Symlinks to directories become directories that are never read.
func (c *Codebase) classify(dirLocation string, de fs.DirEntry) (entry, bool) {
	location := filepath.Join(dirLocation, de.Name())
	if c.opts.Ignored(location) {
		return entry{}, false
	}

	e := entry{name: de.Name(), isDir: de.IsDir()}

	if de.Type()&fs.ModeSymlink != 0 {
		e.isLink = true

		if fi, err := os.Stat(location); err == nil {
			e.isDir = fi.IsDir()
			if !e.isDir {
				e.size = fi.Size()
			}
		}

		return e, true
	}

	if !e.isDir {
		if fi, err := de.Info(); err == nil {
			e.size = fi.Size()
		}
	}

	return e, true
}

// pathLimits restricts population to some root-relative paths and their
// ancestors.
type pathLimits struct {
	included  map[string]bool
	ancestors map[string]bool
}

func newPathLimits(ps []string) pathLimits {
	if len(ps) == 0 {
		return pathLimits{}
	}

	l := pathLimits{included: make(map[string]bool), ancestors: map[string]bool{"": true}}

	for _, p := range ps {
		p = paths.Clean(p)
		if p == "" {
			continue
		}

		l.included[p] = true

		for _, a := range paths.Ancestors(p) {
			l.included[a] = true
			l.ancestors[a] = true
		}
	}

	return l
}

func (l pathLimits) include(rel string) bool {
	return l.included == nil || l.included[rel]
}

func (l pathLimits) descend(rel string) bool {
	return l.ancestors == nil || l.ancestors[rel]
}
