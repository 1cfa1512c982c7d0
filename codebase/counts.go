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

import "github.com/wtsi-hgi/codebase/resource"

// Counts are the totals returned by ComputeCounts.
type Counts struct {
	Files int64
	Dirs  int64
	Size  int64
}

// UpdateCounts recomputes and saves the files, dirs and size counts of every
// resource from its children, bottom-up. With skipFiltered a filtered child
// does not count itself, but the counts of its own descendants still flow up.
func (c *Codebase) UpdateCounts(skipFiltered bool) error {
	for r, err := range c.Walk(BottomUp, false, nil) {
		if err != nil {
			return err
		}

		if err = c.computeChildrenCounts(r, skipFiltered); err != nil {
			return err
		}
	}

	return nil
}

func (c *Codebase) computeChildrenCounts(r *resource.Resource, skipFiltered bool) error {
	children, err := c.Children(r)
	if err != nil {
		return err
	}

	var counts Counts

	for _, child := range children {
		counts.Files += child.FilesCount
		counts.Dirs += child.DirsCount
		counts.Size += child.SizeCount

		if skipFiltered && child.IsFiltered {
			continue
		}

		counts.add(child)
	}

	r.FilesCount = counts.Files
	r.DirsCount = counts.Dirs
	r.SizeCount = counts.Size

	return c.store.Put(r)
}

func (c *Counts) add(r *resource.Resource) {
	if r.IsFile {
		c.Files++
	} else {
		c.Dirs++
	}

	c.Size += r.Size
}

// ComputeCounts updates the counts of every resource and returns the totals
// for the codebase: those of the root plus the root itself, unless skipRoot is
// set and the root is a directory, or skipFiltered is set and the root is
// filtered.
func (c *Codebase) ComputeCounts(skipRoot, skipFiltered bool) (Counts, error) {
	if err := c.UpdateCounts(skipFiltered); err != nil {
		return Counts{}, err
	}

	root := c.store.Root()
	counts := Counts{Files: root.FilesCount, Dirs: root.DirsCount, Size: root.SizeCount}

	if (skipRoot && !root.IsFile) || (skipFiltered && root.IsFiltered) {
		return counts, nil
	}

	counts.add(root)

	return counts, nil
}

// LowestCommonParent returns the first resource, going down from the root,
// that does not have exactly one child directory. It is the root for
// single-resource codebases.
func (c *Codebase) LowestCommonParent() (*resource.Resource, error) {
	current := c.store.Root()
	if c.hasSingleResource {
		return current, nil
	}

	for !current.IsFile {
		children, err := c.Children(current)
		if err != nil {
			return nil, err
		}

		if len(children) != 1 || children[0].IsFile {
			break
		}

		current = children[0]
	}

	return current, nil
}
