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

// Package resource holds the per-node records of a codebase tree, the dynamic
// attribute schema attached to them, and their serialised form.
package resource

import (
	"path"
	"strings"

	"github.com/wtsi-hgi/codebase/internal/paths"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Error is the custom error type for the resource package.
type Error string

const (
	// ErrUnknownAttribute is returned when getting or setting a dynamic
	// attribute that is not part of the schema.
	ErrUnknownAttribute = Error("unknown attribute")
	// ErrNotAnObject is returned when decoding data that is not an object.
	ErrNotAnObject = Error("encoded data is not an object")
	// ErrUnsupportedValue is returned when setting a dynamic attribute to a
	// value that can't be serialised.
	ErrUnsupportedValue = Error("unsupported attribute value")
)

func (e Error) Error() string { return string(e) }

const (
	// TypeFile is the type of file records.
	TypeFile = "file"
	// TypeDirectory is the type of directory records.
	TypeDirectory = "directory"
)

// StandardKeys are the keys of the fixed record fields and derived
// properties. They are never inferred as dynamic attributes.
var StandardKeys = map[string]bool{ //nolint:gochecknoglobals
	"name":           true,
	"location":       true,
	"path":           true,
	"cache_location": true,
	"is_file":        true,
	"is_filtered":    true,
	"is_root":        true,
	"children_names": true,
	"size":           true,
	"size_count":     true,
	"files_count":    true,
	"dirs_count":     true,
	"scan_errors":    true,
	"scan_time":      true,
	"scan_timings":   true,
	"extra_data":     true,
	"type":           true,
	"base_name":      true,
	"extension":      true,
}

// InfoKeys are the keys whose presence in imported records means the records
// carry file information.
var InfoKeys = []string{ //nolint:gochecknoglobals
	"name", "base_name", "extension", "size", "files_count", "dirs_count", "size_count",
}

// Resource is a single file or directory of a codebase. It holds no pointers
// to other resources: the parent is found from Path and the children from
// ChildrenNames.
type Resource struct {
	Name          string
	Location      string
	Path          string
	CacheLocation string

	IsFile     bool
	IsRoot     bool
	IsFiltered bool

	ChildrenNames []string

	Size       int64
	SizeCount  int64
	FilesCount int64
	DirsCount  int64

	ScanErrors  []string
	ScanTime    float64
	ScanTimings map[string]float64
	ExtraData   map[string]any

	Attrs *Attributes
}

// New returns a Resource with empty collections and default dynamic
// attributes for the given schema.
func New(name, location, p string, isFile bool, schema *Schema) *Resource {
	return &Resource{
		Name:          name,
		Location:      location,
		Path:          paths.Clean(p),
		IsFile:        isFile,
		ChildrenNames: []string{},
		ScanErrors:    []string{},
		ScanTimings:   map[string]float64{},
		ExtraData:     map[string]any{},
		Attrs:         NewAttributes(schema),
	}
}

// Type returns "file" or "directory".
func (r *Resource) Type() string {
	if r.IsFile {
		return TypeFile
	}

	return TypeDirectory
}

// IsDir returns true for directories.
func (r *Resource) IsDir() bool {
	return !r.IsFile
}

// HasChildren returns true if the resource has at least one child.
func (r *Resource) HasChildren() bool {
	return len(r.ChildrenNames) > 0
}

// ChildPath returns the path a child of the given name would have.
func (r *Resource) ChildPath(name string) string {
	return paths.Join(r.Path, name)
}

// ParentPath returns the path of the parent. It is meaningless for the root.
func (r *Resource) ParentPath() string {
	return paths.Parent(r.Path)
}

// BaseName returns the name without its extension.
func (r *Resource) BaseName() string {
	base, _ := splitExt(r.Name, r.IsFile)

	return base
}

// Extension returns the extension of a file name including its leading dot,
// or "" for directories and dot-files.
func (r *Resource) Extension() string {
	_, ext := splitExt(r.Name, r.IsFile)

	return ext
}

func splitExt(name string, isFile bool) (string, string) {
	name = strings.Trim(name, `/\`)

	if !isFile || (strings.HasPrefix(name, ".") && !strings.Contains(name[1:], ".")) {
		return name, ""
	}

	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)

	if strings.HasSuffix(base, ".tar") {
		base = strings.TrimSuffix(base, ".tar")
		ext = ".tar" + ext
	}

	return base, ext
}

// AddChildName appends a child name, keeping the names unique.
func (r *Resource) AddChildName(name string) {
	if !slices.Contains(r.ChildrenNames, name) {
		r.ChildrenNames = append(r.ChildrenNames, name)
	}
}

// RemoveChildName removes a child name if present.
func (r *Resource) RemoveChildName(name string) {
	r.ChildrenNames = slices.DeleteFunc(r.ChildrenNames, func(n string) bool { return n == name })
}

// Clone returns a deep copy of the resource.
func (r *Resource) Clone() *Resource {
	if r == nil {
		return nil
	}

	c := *r
	c.ChildrenNames = slices.Clone(r.ChildrenNames)
	c.ScanErrors = slices.Clone(r.ScanErrors)
	c.ScanTimings = maps.Clone(r.ScanTimings)
	c.Attrs = r.Attrs.Clone()

	if r.ExtraData != nil {
		extra, _ := CopyValue(r.ExtraData).(map[string]any) //nolint:errcheck
		c.ExtraData = extra
	}

	return &c
}

// Update sets the fields named by the keys of data. Standard keys set the
// matching fields ("type" sets IsFile; "path", "base_name" and "extension" are
// ignored since they are derived), dynamic attributes known to the schema are
// set, and anything else is ignored.
func (r *Resource) Update(data map[string]any) {
	for k, v := range data {
		r.set(k, v)
	}

	if r.Attrs != nil {
		r.Attrs.Update(data)
	}
}

func (r *Resource) set(key string, v any) { //nolint:gocyclo,cyclop,funlen
	switch key {
	case "name":
		if s := toString(v); s != "" {
			r.Name = s
		}
	case "location":
		r.Location = toString(v)
	case "cache_location":
		r.CacheLocation = toString(v)
	case "type":
		r.IsFile = toString(v) != TypeDirectory
	case "is_file":
		r.IsFile = toBool(v)
	case "is_root":
		r.IsRoot = toBool(v)
	case "is_filtered":
		r.IsFiltered = toBool(v)
	case "children_names":
		r.ChildrenNames = toStrings(v)
	case "size":
		r.Size = toInt64(v)
	case "size_count":
		r.SizeCount = toInt64(v)
	case "files_count":
		r.FilesCount = toInt64(v)
	case "dirs_count":
		r.DirsCount = toInt64(v)
	case "scan_errors":
		r.ScanErrors = toStrings(v)
	case "scan_time":
		r.ScanTime = toFloat64(v)
	case "scan_timings":
		r.ScanTimings = toFloatMap(v)
	case "extra_data":
		r.ExtraData = toMap(v)
	}
}

// DictOptions select the optional parts of ToDict output.
type DictOptions struct {
	WithInfo   bool
	WithTiming bool
	Skinny     bool
}

// ToDict returns the output mapping of the resource: path and type, then
// optionally its file information, its dynamic attributes in schema order,
// optionally its timings and counts, and finally its scan errors. Skinny output
// only has path and type.
func (r *Resource) ToDict(opts DictOptions) Dict {
	d := Dict{"path", r.Path, "type", r.Type()}
	if opts.Skinny {
		return d
	}

	if opts.WithInfo {
		d = append(d, "name", r.Name, "base_name", r.BaseName(), "extension", r.Extension(), "size", r.Size)
	}

	r.Attrs.Each(func(name string, value any) {
		d = append(d, name, CopyValue(value))
	})

	if opts.WithTiming {
		d = append(d, "scan_time", r.ScanTime, "scan_timings", floatMapToAny(r.ScanTimings))
	}

	if opts.WithInfo {
		d = append(d, "files_count", r.FilesCount, "dirs_count", r.DirsCount, "size_count", r.SizeCount)
	}

	return append(d, "scan_errors", stringsToAny(r.ScanErrors))
}

// Serialize returns every field of the resource, including its dynamic
// attributes, in a form that Deserialize turns back into an equal Resource.
func (r *Resource) Serialize() Dict {
	d := Dict{
		"name", r.Name,
		"path", r.Path,
		"is_file", r.IsFile,
		"is_root", r.IsRoot,
		"is_filtered", r.IsFiltered,
		"children_names", stringsToAny(r.ChildrenNames),
		"size", r.Size,
		"size_count", r.SizeCount,
		"files_count", r.FilesCount,
		"dirs_count", r.DirsCount,
		"scan_errors", stringsToAny(r.ScanErrors),
		"scan_time", r.ScanTime,
		"scan_timings", floatMapToAny(r.ScanTimings),
		"extra_data", CopyValue(nonNilMap(r.ExtraData)),
	}

	if r.Location != "" {
		d = append(d, "location", r.Location)
	}

	if r.CacheLocation != "" {
		d = append(d, "cache_location", r.CacheLocation)
	}

	r.Attrs.Each(func(name string, value any) {
		d = append(d, name, CopyValue(value))
	})

	return d
}

// Deserialize builds a Resource from the output of Serialize, using the given
// schema for its dynamic attributes.
func Deserialize(data map[string]any, schema *Schema) *Resource {
	r := New("", "", toString(data["path"]), false, schema)
	r.Update(data)

	return r
}

func nonNilMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}

	return m
}
