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

import "fmt"

// Error is the custom error type for the codebase package.
type Error string

const (
	// ErrStripAndFullRoot is returned when both StripRoot and FullRoot are set.
	ErrStripAndFullRoot = Error("strip root and full root are mutually exclusive")
	// ErrLocationNotFound is returned when the root location does not exist.
	ErrLocationNotFound = Error("location not found")
	// ErrRootExists is returned when creating a second root.
	ErrRootExists = Error("root resource already exists and cannot be recreated")
	// ErrPathExists is returned when creating a resource at a path already in
	// use.
	ErrPathExists = Error("a resource already exists at this path")
)

func (e Error) Error() string { return string(e) }

// RootRemovalError is returned when trying to remove the root resource.
type RootRemovalError struct {
	Path string
}

func (e *RootRemovalError) Error() string {
	return fmt.Sprintf("cannot remove the root resource from codebase: %q", e.Path)
}

// OrphanCreationError is returned when creating a resource whose parent is
// missing or not saved in the codebase.
type OrphanCreationError struct {
	Name       string
	ParentPath string
}

func (e *OrphanCreationError) Error() string {
	return fmt.Sprintf("cannot create resource %q without an existing parent (parent path %q)", e.Name, e.ParentPath)
}

// EmptyScanInputError is returned when scan data to import has no file
// records.
type EmptyScanInputError struct {
	Input string
}

func (e *EmptyScanInputError) Error() string {
	return fmt.Sprintf("input has no file-level scan results to import: %s", e.Input)
}

// DepthArgumentError is returned for a negative maximum depth.
type DepthArgumentError struct {
	Depth int
}

func (e *DepthArgumentError) Error() string {
	return fmt.Sprintf("max depth must be a positive integer or 0, not %d", e.Depth)
}

// MaxInMemoryArgumentError is returned for a memory budget below -1.
type MaxInMemoryArgumentError struct {
	MaxInMemory int
}

func (e *MaxInMemoryArgumentError) Error() string {
	return fmt.Sprintf("max in memory must be -1, 0 or a positive integer, not %d", e.MaxInMemory)
}
