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

package scanio

import (
	"encoding/binary"
	"log/slog"

	"github.com/hashicorp/go-multierror"
	"github.com/ugorji/go/codec"
	"github.com/wtsi-hgi/codebase/codebase"
	"github.com/wtsi-hgi/codebase/resource"
	bolt "go.etcd.io/bbolt"
)

const (
	// FilesBucket holds one record per resource, keyed on walk order.
	FilesBucket = "files"

	// MetaBucket holds the headers and codebase attributes.
	MetaBucket = "meta"

	headersKey    = "headers"
	attributesKey = "attributes"

	seqKeyLength = 8
)

// WriteBolt writes the scan data of the codebase to a new bolt database at
// path. Records are stored in top-down walk order, binc encoded with their
// info and timing fields.
func WriteBolt(path string, c *codebase.Codebase) (err error) {
	db, err := bolt.Open(path, filePerms, &bolt.Options{
		NoFreelistSync: true,
		NoGrowSync:     true,
		FreelistType:   bolt.FreelistMapType,
	})
	if err != nil {
		return err
	}

	defer func() {
		var errm *multierror.Error

		errm = multierror.Append(errm, err, db.Close())
		err = errm.ErrorOrNil()
	}()

	ch := resource.NewBincHandle()

	return db.Update(func(tx *bolt.Tx) error {
		if err := writeMeta(tx, c, ch); err != nil {
			return err
		}

		return writeFiles(tx, c, ch)
	})
}

func writeMeta(tx *bolt.Tx, c *codebase.Codebase, ch codec.Handle) error {
	b, err := tx.CreateBucketIfNotExists([]byte(MetaBucket))
	if err != nil {
		return err
	}

	var attrs resource.Dict

	c.Attributes().Each(func(name string, value any) {
		attrs = append(attrs, name, value)
	})

	for key, value := range map[string]any{
		headersKey:    c.HeaderDicts(),
		attributesKey: attrs,
	} {
		encoded, err := resource.EncodeValue(ch, value)
		if err != nil {
			return err
		}

		if err = b.Put([]byte(key), encoded); err != nil {
			return err
		}
	}

	return nil
}

func writeFiles(tx *bolt.Tx, c *codebase.Codebase, ch codec.Handle) error {
	b, err := tx.CreateBucketIfNotExists([]byte(FilesBucket))
	if err != nil {
		return err
	}

	opts := resource.DictOptions{WithInfo: c.WithInfo(), WithTiming: true}

	var seq uint64

	for r, errw := range c.WalkFiltered(codebase.TopDown, false) {
		if errw != nil {
			return errw
		}

		encoded, errw := resource.EncodeValue(ch, r.ToDict(opts))
		if errw != nil {
			return errw
		}

		key := make([]byte, seqKeyLength)
		binary.BigEndian.PutUint64(key, seq)
		seq++

		if errw = b.Put(key, encoded); errw != nil {
			return errw
		}
	}

	slog.Debug("wrote bolt records", "count", seq)

	return nil
}

// ReadBolt reads a database written by WriteBolt back into scan data.
func ReadBolt(path string) (codebase.Payload, error) {
	db, err := bolt.Open(path, filePerms, &bolt.Options{ReadOnly: true})
	if err != nil {
		return nil, err
	}

	defer db.Close()

	slog.Debug("opened bolt file", "path", path)

	ch := resource.NewBincHandle()
	payload := make(codebase.Payload)

	err = db.View(func(tx *bolt.Tx) error {
		if err := readMeta(tx, ch, payload); err != nil {
			return err
		}

		files, err := readFiles(tx, ch)
		payload["files"] = files

		return err
	})
	if err != nil {
		return nil, err
	}

	return payload, nil
}

func readMeta(tx *bolt.Tx, ch codec.Handle, payload codebase.Payload) error {
	b := tx.Bucket([]byte(MetaBucket))
	if b == nil {
		return nil
	}

	if v := b.Get([]byte(headersKey)); v != nil {
		var headers []any
		if err := codec.NewDecoderBytes(v, ch).Decode(&headers); err != nil {
			return err
		}

		payload[headersKey] = headers
	}

	if v := b.Get([]byte(attributesKey)); v != nil {
		attrs, err := resource.DecodeMap(ch, v)
		if err != nil {
			return err
		}

		for name, value := range attrs {
			payload[name] = value
		}
	}

	return nil
}

func readFiles(tx *bolt.Tx, ch codec.Handle) ([]any, error) {
	b := tx.Bucket([]byte(FilesBucket))
	if b == nil {
		return nil, ErrNoFiles
	}

	files := make([]any, 0, b.Stats().KeyN)

	err := b.ForEach(func(_, v []byte) error {
		record, err := resource.DecodeMap(ch, v)
		if err != nil {
			return err
		}

		files = append(files, record)

		return nil
	})

	return files, err
}

// BoltInfo describes the contents of a database written by WriteBolt.
type BoltInfo struct {
	NumFiles   int
	NumHeaders int
}

// Info returns a summary of the database at path.
func Info(path string) (*BoltInfo, error) {
	payload, err := ReadBolt(path)
	if err != nil {
		return nil, err
	}

	return &BoltInfo{
		NumFiles:   len(payload.Files()),
		NumHeaders: len(payload.Headers()),
	}, nil
}
