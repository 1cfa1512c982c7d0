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
	"log/slog"
	"sort"

	"github.com/wtsi-hgi/codebase/internal/paths"
	"github.com/wtsi-hgi/codebase/resource"
)

const (
	// VirtualRoot is the name of the root made up to hold imported records
	// that don't share a first path segment.
	VirtualRoot = "virtual_root"

	headersKey = "headers"
	filesKey   = "files"
)

// Payload is parsed scan data: a "files" list of record mappings, an optional
// "headers" list and any other codebase-level attributes.
type Payload map[string]any

// Files returns the file records of the payload.
func (p Payload) Files() []map[string]any {
	list, _ := p[filesKey].([]any) //nolint:errcheck

	files := make([]map[string]any, 0, len(list))

	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			files = append(files, m)
		}
	}

	return files
}

// Headers returns the header mappings of the payload.
func (p Payload) Headers() []map[string]any {
	list, _ := p[headersKey].([]any) //nolint:errcheck

	headers := make([]map[string]any, 0, len(list))

	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			headers = append(headers, m)
		}
	}

	return headers
}

// keysNotImported are record keys that are never copied onto a resource: they
// are either derived or decided by the tree being rebuilt.
var keysNotImported = map[string]bool{ //nolint:gochecknoglobals
	"type":           true,
	"base_name":      true,
	"extension":      true,
	"path":           true,
	"name":           true,
	"location":       true,
	"cache_location": true,
	"is_root":        true,
	"children_names": true,
}

// NewVirtual builds a codebase from one or more scan payloads, recreating any
// directories missing from their file lists. Several payloads are merged
// under a VirtualRoot directory, as is a single payload whose records don't
// share a first path segment.
func NewVirtual(opts Options, payloads ...Payload) (*Codebase, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	opts = opts.withDefaults()

	merged, err := mergePayloads(payloads)
	if err != nil {
		return nil, err
	}

	records := merged.Files()
	if len(records) == 0 {
		return nil, &EmptyScanInputError{Input: "payload"}
	}

	c, err := newCodebase(opts, resourceSchema(records, opts.ResourceAttributes), codebaseSchema(merged, opts))
	if err != nil {
		return nil, err
	}

	c.virtual = true
	c.hasSingleResource = len(records) == 1
	c.withInfo = hasInfo(records)

	for _, h := range merged.Headers() {
		c.headers = append(c.headers, resource.HeaderFromMap(h))
	}

	c.attributes.Each(func(name string, _ any) {
		if v := merged[name]; v != nil {
			c.attributes.Set(name, v) //nolint:errcheck
		}
	})

	if err = c.populateVirtual(records, len(payloads) > 1); err != nil {
		return nil, err
	}

	return c, nil
}

// mergePayloads returns the single payload, or a payload with the files and
// headers of all of them, headers sorted by start time.
func mergePayloads(payloads []Payload) (Payload, error) {
	switch len(payloads) {
	case 0:
		return nil, &EmptyScanInputError{Input: "no payloads"}
	case 1:
		return payloads[0], nil
	}

	var files, headers []any

	for n, p := range payloads {
		pfiles, _ := p[filesKey].([]any) //nolint:errcheck
		if len(pfiles) == 0 {
			return nil, &EmptyScanInputError{Input: fmt.Sprintf("payload %d", n)}
		}

		files = append(files, pfiles...)

		for _, h := range p.Headers() {
			headers = append(headers, h)
		}
	}

	sort.SliceStable(headers, func(i, j int) bool {
		return startTimestamp(headers[i]) < startTimestamp(headers[j])
	})

	return Payload{filesKey: files, headersKey: headers}, nil
}

func startTimestamp(h any) string {
	if m, ok := h.(map[string]any); ok {
		if ts, ok := m["start_timestamp"].(string); ok {
			return ts
		}
	}

	return ""
}

func resourceSchema(records []map[string]any, extra []resource.Field) *resource.Schema {
	schema := resource.InferSchema(records, resource.StandardKeys)

	for _, f := range extra {
		schema.Add(f)
	}

	return schema
}

func codebaseSchema(p Payload, opts Options) *resource.Schema {
	schema := resource.InferSchema([]map[string]any{p}, map[string]bool{headersKey: true, filesKey: true})

	for _, f := range opts.CodebaseAttributes {
		schema.Add(f)
	}

	return schema
}

func hasInfo(records []map[string]any) bool {
	for _, r := range records {
		for _, k := range resource.InfoKeys {
			if _, ok := r[k]; ok {
				return true
			}
		}
	}

	return false
}

// virtualRootPath returns the root path for the records, and whether their
// paths must be nested under it.
func virtualRootPath(records []map[string]any, merging bool) (string, bool) {
	if merging {
		return VirtualRoot, true
	}

	first := paths.FirstSegment(recordPath(records[0]))

	for _, r := range records[1:] {
		if paths.FirstSegment(recordPath(r)) != first {
			return VirtualRoot, true
		}
	}

	return first, false
}

func recordPath(r map[string]any) string {
	p, _ := r["path"].(string) //nolint:errcheck

	return paths.Clean(p)
}

func importable(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))

	for k, v := range data {
		if !keysNotImported[k] {
			out[k] = v
		}
	}

	return out
}

func isFileRecord(data map[string]any) bool {
	t, ok := data["type"].(string)

	return !ok || t != resource.TypeDirectory
}

// populateVirtual creates the root then every record in order, updating
// records that already exist and creating missing ancestors as directories.
func (c *Codebase) populateVirtual(records []map[string]any, merging bool) error {
	rootPath, nest := virtualRootPath(records, merging)

	if _, err := c.createRoot(rootPath, "", rootPath, false); err != nil {
		return err
	}

	for _, data := range records {
		p := recordPath(data)
		if nest {
			p = paths.Join(rootPath, p)
		}

		if p == "" {
			p = rootPath
		}

		if err := c.importRecord(p, data); err != nil {
			return err
		}
	}

	slog.Debug("populated virtual codebase", "root", rootPath, "resources", c.resourcesCount)

	return nil
}

func (c *Codebase) importRecord(p string, data map[string]any) error {
	existing, err := c.store.Get(p)
	if err != nil {
		return err
	}

	if existing != nil {
		existing.Update(importable(data))

		if _, ok := data["type"]; ok {
			existing.IsFile = isFileRecord(data)
		}

		return c.store.Put(existing)
	}

	parent, err := c.getOrCreateParent(p)
	if err != nil {
		return err
	}

	_, err = c.createChild(parent, paths.Base(p), isFileRecord(data), importable(data))

	return err
}

// getOrCreateParent returns the parent of p, first creating any missing
// ancestors as directories, nearest the root first.
func (c *Codebase) getOrCreateParent(p string) (*resource.Resource, error) {
	var missing []string

	parentPath := paths.Parent(p)
	for parentPath != "" && !c.store.Exists(parentPath) {
		missing = append(missing, parentPath)
		parentPath = paths.Parent(parentPath)
	}

	if parentPath == "" && !c.store.Exists(parentPath) {
		parentPath = c.rootPath
	}

	parent, err := c.store.Get(parentPath)
	if err != nil {
		return nil, err
	}

	for n := len(missing) - 1; n >= 0; n-- {
		if parent, err = c.createChild(parent, paths.Base(missing[n]), false, nil); err != nil {
			return nil, err
		}
	}

	return parent, nil
}
