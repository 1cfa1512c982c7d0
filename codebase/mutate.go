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
	"fmt"
	"path/filepath"

	"github.com/wtsi-hgi/codebase/resource"
	"golang.org/x/exp/slices"
)

// CreateChild creates, saves and returns a new resource named name under
// parent. The parent must already be saved in the codebase; the stored parent
// gains the new name and is saved too, and parent's ChildrenNames are updated
// to match. Files may have children.
func (c *Codebase) CreateChild(parent *resource.Resource, name string, isFile bool) (*resource.Resource, error) {
	return c.createChild(parent, name, isFile, nil)
}

func (c *Codebase) createChild(parent *resource.Resource, name string, isFile bool,
	data map[string]any) (*resource.Resource, error) {
	if parent == nil {
		return nil, &OrphanCreationError{Name: name}
	}

	stored, err := c.store.Get(parent.Path)
	if err != nil {
		return nil, err
	}

	if stored == nil {
		return nil, &OrphanCreationError{Name: name, ParentPath: parent.Path}
	}

	p := stored.ChildPath(name)
	if c.store.Exists(p) {
		return nil, fmt.Errorf("%w: %s", ErrPathExists, p)
	}

	var location string
	if stored.Location != "" {
		location = filepath.Join(stored.Location, name)
	}

	child := resource.New(name, location, p, isFile, c.schema)

	if data != nil {
		child.Update(data)
		child.IsFile = isFile
		child.Name = name
	}

	if err = c.store.Place(child); err != nil {
		return nil, err
	}

	c.resourcesCount++

	stored.AddChildName(name)

	if err = c.store.Put(stored); err != nil {
		return nil, err
	}

	parent.ChildrenNames = slices.Clone(stored.ChildrenNames)

	if err = c.store.Put(child); err != nil {
		return nil, err
	}

	return child, nil
}

// Remove removes the saved resource at r's path and all of its descendants,
// descendants first, and detaches it from its parent. It returns the removed
// paths in the order they were removed, which is none if nothing is saved at
// r's path. The root can't be removed.
func (c *Codebase) Remove(r *resource.Resource) ([]string, error) {
	if r.IsRoot || c.isRootPath(r.Path) {
		return nil, &RootRemovalError{Path: r.Path}
	}

	current, err := c.store.Get(r.Path)
	if err != nil || current == nil {
		return nil, err
	}

	var removed []string

	for descendant, errw := range c.WalkResource(current, BottomUp, nil) {
		if errw != nil {
			return removed, errw
		}

		c.store.Remove(descendant.Path)
		removed = append(removed, descendant.Path)
	}

	parent, err := c.Parent(current)
	if err != nil {
		return removed, err
	}

	if parent != nil {
		parent.RemoveChildName(current.Name)

		if err = c.store.Put(parent); err != nil {
			return removed, err
		}
	}

	c.store.Remove(current.Path)

	return append(removed, current.Path), nil
}
