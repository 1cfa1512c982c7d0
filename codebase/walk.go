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
	"iter"
	"strings"

	"github.com/wtsi-hgi/codebase/internal/paths"
	"github.com/wtsi-hgi/codebase/resource"
	"golang.org/x/exp/slices"
)

// Order is the order in which a walk yields resources.
type Order int

const (
	// TopDown yields a resource before its descendants.
	TopDown Order = iota
	// BottomUp yields a resource after its descendants.
	BottomUp
)

const extractSuffix = "-extract"

// IgnoredFunc returns true if a resource, and everything below it, must be
// left out of a walk.
type IgnoredFunc func(r *resource.Resource, c *Codebase) bool

// compareChildren orders resources without children before those with
// children, then by case-insensitive name with the name itself as tie-break.
func compareChildren(a, b *resource.Resource) int {
	if ah, bh := a.HasChildren(), b.HasChildren(); ah != bh {
		if ah {
			return 1
		}

		return -1
	}

	return compareNames(a.Name, b.Name)
}

func compareNames(a, b string) int {
	if c := strings.Compare(strings.ToLower(a), strings.ToLower(b)); c != 0 {
		return c
	}

	return strings.Compare(a, b)
}

// Children returns copies of the children of r, in walk order. Names whose
// resource has been removed are skipped.
func (c *Codebase) Children(r *resource.Resource) ([]*resource.Resource, error) {
	children := make([]*resource.Resource, 0, len(r.ChildrenNames))

	for _, name := range r.ChildrenNames {
		child, err := c.store.Get(r.ChildPath(name))
		if err != nil {
			return nil, err
		}

		if child != nil {
			children = append(children, child)
		}
	}

	slices.SortStableFunc(children, compareChildren)

	return children, nil
}

// Child returns the child of r with the given name, or nil.
func (c *Codebase) Child(r *resource.Resource, name string) (*resource.Resource, error) {
	return c.store.Get(r.ChildPath(name))
}

// Parent returns the parent of r, or nil for the root.
func (c *Codebase) Parent(r *resource.Resource) (*resource.Resource, error) {
	if r.IsRoot || c.isRootPath(r.Path) {
		return nil, nil //nolint:nilnil
	}

	return c.store.Get(r.ParentPath())
}

// Ancestors returns the resources from the root down to and including r.
func (c *Codebase) Ancestors(r *resource.Resource) ([]*resource.Resource, error) {
	ancestors := []*resource.Resource{r}

	current := r
	for !current.IsRoot && !c.isRootPath(current.Path) {
		parent, err := c.store.Get(current.ParentPath())
		if err != nil {
			return nil, err
		}

		if parent == nil {
			break
		}

		ancestors = append(ancestors, parent)
		current = parent
	}

	slices.Reverse(ancestors)

	return ancestors, nil
}

// Distance returns the number of segments between r and the root. The root is
// at distance 0.
func (c *Codebase) Distance(r *resource.Resource) (int, error) {
	if r.IsRoot {
		return 0, nil
	}

	ancestors, err := c.Ancestors(r)
	if err != nil {
		return 0, err
	}

	return len(ancestors) - 1, nil
}

// Descendants returns every resource below r, top-down.
func (c *Codebase) Descendants(r *resource.Resource) ([]*resource.Resource, error) {
	return collect(c.WalkResource(r, TopDown, nil))
}

// Siblings returns the other children of the parent of r.
func (c *Codebase) Siblings(r *resource.Resource) ([]*resource.Resource, error) {
	parent, err := c.Parent(r)
	if err != nil || parent == nil {
		return nil, err
	}

	children, err := c.Children(parent)
	if err != nil {
		return nil, err
	}

	return slices.DeleteFunc(children, func(s *resource.Resource) bool { return s.Path == r.Path }), nil
}

// HasSiblings returns true if the parent of r has other children.
func (c *Codebase) HasSiblings(r *resource.Resource) (bool, error) {
	siblings, err := c.Siblings(r)

	return len(siblings) > 0, err
}

// ExtractedTo returns the "<name>-extract" sibling directory an archive was
// extracted to, or nil.
func (c *Codebase) ExtractedTo(r *resource.Resource) (*resource.Resource, error) {
	if r.IsRoot {
		return nil, nil //nolint:nilnil
	}

	return c.store.Get(r.Path + extractSuffix)
}

// ExtractedFrom returns the archive that the "<name>-extract" directory r, or
// the nearest such ancestor of r, was extracted from, or nil.
func (c *Codebase) ExtractedFrom(r *resource.Resource) (*resource.Resource, error) {
	pos := strings.LastIndex(r.Path, extractSuffix)
	if pos < 0 {
		return nil, nil //nolint:nilnil
	}

	archivePath := r.Path[:pos]
	if paths.Clean(archivePath) != archivePath || archivePath == "" {
		return nil, nil //nolint:nilnil
	}

	return c.store.Get(archivePath)
}

// Walk returns an iterator over every resource of the codebase in the given
// order, each group of children sorted as by Children. With skipRoot the root
// is left out, unless it has no children. ignored, if not nil, prunes
// resources and their descendants; an ignored root means nothing is yielded.
//
// An error reading a resource is yielded once and ends the walk. Stopping early
// leaves the codebase unchanged.
func (c *Codebase) Walk(order Order, skipRoot bool, ignored IgnoredFunc) iter.Seq2[*resource.Resource, error] {
	return func(yield func(*resource.Resource, error) bool) {
		root := c.store.Root()
		if root == nil || (ignored != nil && ignored(root, c)) {
			return
		}

		if skipRoot && !root.HasChildren() {
			skipRoot = false
		}

		if order == TopDown && !skipRoot && !yield(root, nil) {
			return
		}

		if !c.walkChildren(root, order, ignored, yield) {
			return
		}

		if order == BottomUp && !skipRoot {
			yield(root, nil)
		}
	}
}

// WalkFiltered is Walk without ignored resources, leaving out resources marked
// as filtered while still visiting their descendants.
func (c *Codebase) WalkFiltered(order Order, skipRoot bool) iter.Seq2[*resource.Resource, error] {
	return func(yield func(*resource.Resource, error) bool) {
		for r, err := range c.Walk(order, skipRoot, nil) {
			if err == nil && r.IsFiltered {
				continue
			}

			if !yield(r, err) {
				return
			}
		}
	}
}

// All returns a top-down iterator over every resource.
func (c *Codebase) All() iter.Seq2[*resource.Resource, error] {
	return c.Walk(TopDown, false, nil)
}

// WalkResource returns an iterator over the descendants of r, not including r
// itself.
func (c *Codebase) WalkResource(r *resource.Resource, order Order, ignored IgnoredFunc) iter.Seq2[*resource.Resource, error] {
	return func(yield func(*resource.Resource, error) bool) {
		c.walkChildren(r, order, ignored, yield)
	}
}

// walkChildren yields the descendants of r, returning false once the walk must
// stop.
func (c *Codebase) walkChildren(r *resource.Resource, order Order, ignored IgnoredFunc,
	yield func(*resource.Resource, error) bool) bool {
	children, err := c.Children(r)
	if err != nil {
		yield(nil, err)

		return false
	}

	for _, child := range children {
		if ignored != nil && ignored(child, c) {
			continue
		}

		if order == TopDown && !yield(child, nil) {
			return false
		}

		if !c.walkChildren(child, order, ignored, yield) {
			return false
		}

		if order == BottomUp && !yield(child, nil) {
			return false
		}
	}

	return true
}

func collect(seq iter.Seq2[*resource.Resource, error]) ([]*resource.Resource, error) {
	var out []*resource.Resource

	for r, err := range seq {
		if err != nil {
			return nil, err
		}

		out = append(out, r)
	}

	return out, nil
}
