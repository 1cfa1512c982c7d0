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

// Package scanio reads scan data to build virtual codebases from, and writes
// codebases back out in the same formats.
package scanio

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/klauspost/pgzip"
	"github.com/ugorji/go/codec"
	"github.com/wtsi-hgi/codebase/codebase"
	"github.com/wtsi-hgi/codebase/resource"
)

// Error is the custom error type for the scanio package.
type Error string

const (
	// ErrNotScanData is returned when input is not a JSON object.
	ErrNotScanData = Error("input is not scan data")
	// ErrNoFiles is returned by ReadBolt for a database without a files
	// bucket.
	ErrNoFiles = Error("database has no files bucket")
)

func (e Error) Error() string { return string(e) }

const (
	gzSuffix   = ".gz"
	boltSuffix = ".db"

	filePerms = 0600
)

// Load returns the scan data in input, which is either raw JSON text, or the
// path to a .json file, a gzip compressed .json.gz file or a bolt .db file.
func Load(input string) (codebase.Payload, error) {
	if trimmed := strings.TrimSpace(input); strings.HasPrefix(trimmed, "{") {
		return Decode(strings.NewReader(trimmed))
	}

	location, err := filepath.Abs(input)
	if err != nil {
		return nil, err
	}

	if strings.HasSuffix(location, boltSuffix) {
		return ReadBolt(location)
	}

	return loadJSONFile(location)
}

// LoadAll loads each input as Load does.
func LoadAll(inputs ...string) ([]codebase.Payload, error) {
	payloads := make([]codebase.Payload, 0, len(inputs))

	for _, input := range inputs {
		p, err := Load(input)
		if err != nil {
			return nil, err
		}

		payloads = append(payloads, p)
	}

	return payloads, nil
}

func loadJSONFile(path string) (payload codebase.Payload, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	defer func() {
		if errc := f.Close(); err == nil {
			err = errc
		}
	}()

	var r io.Reader = f

	if strings.HasSuffix(path, gzSuffix) {
		gr, errr := pgzip.NewReader(f)
		if errr != nil {
			return nil, errr
		}

		defer gr.Close()

		r = gr
	}

	return Decode(r)
}

// Decode reads JSON scan data from r.
func Decode(r io.Reader) (codebase.Payload, error) {
	var data map[string]any

	dec := codec.NewDecoder(r, resource.NewJSONHandle())
	if err := dec.Decode(&data); err != nil {
		return nil, err
	}

	if data == nil {
		return nil, ErrNotScanData
	}

	return codebase.Payload(data), nil
}

// WriteOptions control what is written for each resource.
type WriteOptions struct {
	resource.DictOptions

	// SkipRoot leaves out the root resource, unless it is the only one.
	SkipRoot bool

	// Indent pretty prints JSON output with this many spaces.
	Indent int8
}

// ToPayload returns the scan data of the codebase: its headers, its
// codebase-level attributes and its resources, top-down, leaving out filtered
// ones.
func ToPayload(c *codebase.Codebase, opts WriteOptions) (resource.Dict, error) {
	d := resource.Dict{"headers", c.HeaderDicts()}

	c.Attributes().Each(func(name string, value any) {
		d = append(d, name, resource.CopyValue(value))
	})

	files, err := fileDicts(c, opts)
	if err != nil {
		return nil, err
	}

	return append(d, "files", files), nil
}

func fileDicts(c *codebase.Codebase, opts WriteOptions) ([]any, error) {
	var files []any

	for r, err := range c.WalkFiltered(codebase.TopDown, opts.SkipRoot) {
		if err != nil {
			return nil, err
		}

		files = append(files, r.ToDict(opts.DictOptions))
	}

	return files, nil
}

// WriteJSON writes the scan data of the codebase to w as JSON that Load can
// read back.
func WriteJSON(w io.Writer, c *codebase.Codebase, opts WriteOptions) error {
	payload, err := ToPayload(c, opts)
	if err != nil {
		return err
	}

	h := resource.NewJSONHandle()
	h.Indent = opts.Indent

	return codec.NewEncoder(w, h).Encode(payload)
}

// WriteJSONFile writes the scan data of the codebase to the given path,
// gzip compressed if the path ends in .gz.
func WriteJSONFile(path string, c *codebase.Codebase, opts WriteOptions) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, filePerms)
	if err != nil {
		return err
	}

	var buf bytes.Buffer

	if err = WriteJSON(&buf, c, opts); err != nil {
		return multierror.Append(err, f.Close()).ErrorOrNil()
	}

	var errm *multierror.Error

	if strings.HasSuffix(path, gzSuffix) {
		gw := pgzip.NewWriter(f)
		_, err = io.Copy(gw, &buf)
		errm = multierror.Append(errm, err, gw.Close())
	} else {
		_, err = io.Copy(f, &buf)
		errm = multierror.Append(errm, err)
	}

	errm = multierror.Append(errm, f.Close())

	return errm.ErrorOrNil()
}
