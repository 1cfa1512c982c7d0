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

// Package codebase models a tree of files and directories, from a real
// filesystem or from imported scan results, whose resources live in memory or
// in a disk cache depending on a memory budget.
package codebase

import (
	"fmt"
	"log/slog"

	"github.com/wtsi-hgi/codebase/internal/paths"
	"github.com/wtsi-hgi/codebase/resource"
	"github.com/wtsi-hgi/codebase/store"
)

const (
	filesCountCounter = "final:files_count"
	headerFilesCount  = "files_count"
)

// Codebase is a tree of resources keyed by path. A Codebase is not safe for
// concurrent use: use one per goroutine.
type Codebase struct {
	opts     Options
	location string
	isFile   bool
	virtual  bool
	withInfo bool

	store             *store.Store
	schema            *resource.Schema
	rootPath          string
	resourcesCount    int
	hasSingleResource bool

	headers       []*resource.Header
	currentHeader *resource.Header
	attributes    *resource.Attributes
	errors        []string

	// Counters hold codebase-level counts, such as the final number of files.
	Counters map[string]int64

	// Timings hold the duration of scan stages in seconds.
	Timings map[string]float64
}

func newCodebase(opts Options, schema, cbSchema *resource.Schema) (*Codebase, error) {
	s, err := store.New(opts.TempDir, opts.policy(), resource.NewCodec(schema))
	if err != nil {
		return nil, err
	}

	return &Codebase{
		opts:       opts,
		store:      s,
		schema:     schema,
		attributes: resource.NewAttributes(cbSchema),
		Counters:   make(map[string]int64),
		Timings:    make(map[string]float64),
	}, nil
}

// createRoot creates and saves the root resource.
func (c *Codebase) createRoot(name, location, p string, isFile bool) (*resource.Resource, error) {
	if c.store.Root() != nil {
		return nil, ErrRootExists
	}

	root := resource.New(name, location, p, isFile, c.schema)
	root.IsRoot = true

	if err := c.store.Place(root); err != nil {
		return nil, err
	}

	if err := c.store.Put(root); err != nil {
		return nil, err
	}

	c.rootPath = root.Path
	c.resourcesCount++

	return root, nil
}

// Location returns the absolute location of the root of a real codebase, or ""
// for a virtual one.
func (c *Codebase) Location() string {
	return c.location
}

// IsVirtual returns true if the codebase was built from imported scan data.
func (c *Codebase) IsVirtual() bool {
	return c.virtual
}

// HasSingleResource returns true if the codebase is only its root: a single
// file, an empty directory or imported data with only one record.
func (c *Codebase) HasSingleResource() bool {
	return c.hasSingleResource
}

// WithInfo returns true if the resources have file information such as sizes.
// That is always the case for scanned codebases, and for virtual ones when the
// imported records carried it.
func (c *Codebase) WithInfo() bool {
	return !c.virtual || c.withInfo
}

// Schema returns the dynamic attribute schema of the resources.
func (c *Codebase) Schema() *resource.Schema {
	return c.schema
}

// Attributes returns the codebase-level attributes. Changes to them are kept.
func (c *Codebase) Attributes() *resource.Attributes {
	return c.attributes
}

// Errors returns the errors met while reading the filesystem.
func (c *Codebase) Errors() []string {
	return c.errors
}

// ResourcesCount returns the number of resources ever created, including the
// root. It never decreases.
func (c *Codebase) ResourcesCount() int {
	return c.resourcesCount
}

// Store returns the underlying resource store.
func (c *Codebase) Store() *store.Store {
	return c.store
}

// Root returns a copy of the root resource.
func (c *Codebase) Root() *resource.Resource {
	return c.store.Root()
}

// Get returns a copy of the resource at the given path, or nil if there is
// none.
func (c *Codebase) Get(p string) (*resource.Resource, error) {
	return c.store.Get(p)
}

// Save stores the given resource, making changes made to it visible to later
// Gets.
func (c *Codebase) Save(r *resource.Resource) error {
	if r == nil {
		return nil
	}

	return c.store.Put(r)
}

// Exists returns true if the resource's path is in the codebase.
func (c *Codebase) Exists(r *resource.Resource) bool {
	return r != nil && c.store.Exists(r.Path)
}

// Headers returns the headers, oldest first.
func (c *Codebase) Headers() []*resource.Header {
	return c.headers
}

// HeaderDicts returns the mapping form of every header.
func (c *Codebase) HeaderDicts() []any {
	dicts := make([]any, len(c.headers))
	for n, h := range c.headers {
		dicts[n] = h.ToDict()
	}

	return dicts
}

// GetOrCreateCurrentHeader returns the header of the current run, adding a
// new one to the headers if there isn't one yet.
func (c *Codebase) GetOrCreateCurrentHeader() *resource.Header {
	if c.currentHeader == nil {
		c.currentHeader = resource.NewHeader("")
		c.headers = append(c.headers, c.currentHeader)
	}

	return c.currentHeader
}

// FilesCount returns the final count of files, as stored in the Counters.
func (c *Codebase) FilesCount() int64 {
	return c.Counters[filesCountCounter]
}

// SetFilesCount stores the final count of files in the Counters.
func (c *Codebase) SetFilesCount(n int64) {
	c.Counters[filesCountCounter] = n
}

// AddFilesCountToCurrentHeader records the final count of files in the
// current header's extra data, returning the count.
func (c *Codebase) AddFilesCountToCurrentHeader() int64 {
	n := c.FilesCount()
	c.GetOrCreateCurrentHeader().AddExtraData(headerFilesCount, n)

	return n
}

// Clear removes every resource and the disk cache of the codebase. The
// resources count is kept.
func (c *Codebase) Clear() error {
	if err := c.store.Clear(); err != nil {
		return fmt.Errorf("clearing codebase cache: %w", err)
	}

	slog.Debug("cleared codebase", "root", c.rootPath, "resources", c.resourcesCount)

	return nil
}

func (c *Codebase) isRootPath(p string) bool {
	return paths.Clean(p) == c.rootPath
}
