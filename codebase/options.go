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
	"github.com/wtsi-hgi/codebase/internal/config"
	"github.com/wtsi-hgi/codebase/internal/ignore"
	"github.com/wtsi-hgi/codebase/resource"
	"github.com/wtsi-hgi/codebase/store"
)

// DefaultMaxInMemory is the default number of non-root resources kept in
// memory before further resources go to the disk cache.
const DefaultMaxInMemory = 10000

// Options configure how a codebase is built.
type Options struct {
	// StripRoot removes the root name from every path. The root path becomes
	// "" unless the codebase is a single resource.
	StripRoot bool

	// FullRoot makes every path the absolute location of the resource.
	FullRoot bool

	// MaxInMemory is the number of non-root resources to keep in memory; 0
	// keeps all of them in memory and -1 puts all of them on disk.
	MaxInMemory int

	// MaxDepth limits how deep below the root directories are read; 0 means
	// no limit. Ignored by virtual codebases.
	MaxDepth int

	// Paths, if set, limits a real codebase to these root-relative paths and
	// their ancestors.
	Paths []string

	// TempDir is where the cache directory is made. Defaults to
	// config.TempDir().
	TempDir string

	// Ignored decides which filesystem entries are skipped. Defaults to
	// ignore.Default.
	Ignored ignore.Predicate

	// ResourceAttributes and CodebaseAttributes are extra dynamic attributes,
	// appended after any inferred from imported data.
	ResourceAttributes []resource.Field
	CodebaseAttributes []resource.Field
}

// DefaultOptions returns Options with the default memory budget (overridable
// with $CODEBASE_MAX_IN_MEMORY), the configured temp dir and the default
// ignore predicate.
func DefaultOptions() Options {
	maxInMemory, err := config.MaxInMemory(DefaultMaxInMemory)
	if err != nil {
		maxInMemory = DefaultMaxInMemory
	}

	return Options{
		MaxInMemory: maxInMemory,
		TempDir:     config.TempDir(),
		Ignored:     ignore.Default,
	}
}

func (o Options) validate() error {
	if o.StripRoot && o.FullRoot {
		return ErrStripAndFullRoot
	}

	if o.MaxDepth < 0 {
		return &DepthArgumentError{Depth: o.MaxDepth}
	}

	if o.MaxInMemory < store.AllOnDisk {
		return &MaxInMemoryArgumentError{MaxInMemory: o.MaxInMemory}
	}

	return nil
}

func (o Options) withDefaults() Options {
	if o.TempDir == "" {
		o.TempDir = config.TempDir()
	}

	if o.Ignored == nil {
		o.Ignored = ignore.Default
	}

	return o
}

func (o Options) policy() store.Policy {
	return store.Policy{MaxInMemory: o.MaxInMemory}
}
