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

// Package store maps canonical resource paths to records that live either in
// memory or in per-record cache files on disk.
package store

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/wtsi-hgi/codebase/internal/paths"
	"github.com/wtsi-hgi/codebase/resource"
	"golang.org/x/exp/slices"
)

const (
	// AllInMemory is the MaxInMemory value that keeps every record in memory.
	AllInMemory = 0
	// AllOnDisk is the MaxInMemory value that puts every non-root record on
	// disk.
	AllOnDisk = -1

	// DefaultReadCacheSize is the number of raw cache files kept in memory to
	// speed up repeated reads of the same on-disk record.
	DefaultReadCacheSize = 1024

	cacheDirPrefix = "codebase-"
	cacheFilePerms = 0600
	cacheDirPerms  = 0700
	shardLength    = 2
)

// Policy decides where new records are placed.
type Policy struct {
	MaxInMemory int
}

// UseDisk returns true if a record created after the given number of non-root
// records must be placed on disk.
func (p Policy) UseDisk(created int) bool {
	switch {
	case p.MaxInMemory == AllInMemory:
		return false
	case p.MaxInMemory < 0:
		return true
	default:
		return created >= p.MaxInMemory
	}
}

// slot is either a memory-resident record or a marker that the record lives
// in the cache file at cacheLocation.
type slot struct {
	record        *resource.Resource
	cacheLocation string
}

func (s slot) onDisk() bool {
	return s.record == nil
}

// Store holds the records of one codebase. It is not safe for concurrent use,
// not even for concurrent reads.
type Store struct {
	policy   Policy
	codec    *resource.Codec
	slots    map[string]slot
	rootPath string
	created  int
	cacheDir string
	dirMade  bool
	reads    *lru.Cache[string, []byte]
}

// New returns a Store using the given policy and codec. Cache files will be
// created in a new uniquely named directory under tempDir, but only once the
// first record is placed on disk.
func New(tempDir string, policy Policy, c *resource.Codec) (*Store, error) {
	reads, err := lru.New[string, []byte](DefaultReadCacheSize)
	if err != nil {
		return nil, err
	}

	name := cacheDirPrefix + strconv.FormatInt(time.Now().UnixNano(), 10) + "-" + uuid.NewString()

	return &Store{
		policy:   policy,
		codec:    c,
		slots:    make(map[string]slot),
		cacheDir: filepath.Join(tempDir, name),
		reads:    reads,
	}, nil
}

// Policy returns the placement policy.
func (s *Store) Policy() Policy {
	return s.policy
}

// Codec returns the codec used for cache files.
func (s *Store) Codec() *resource.Codec {
	return s.codec
}

// CacheDir returns the directory cache files go in. It may not exist yet.
func (s *Store) CacheDir() string {
	return s.cacheDir
}

// CacheLocation returns the cache file location for the given path: the hex
// xxhash of the cleaned path, in a shard directory named after its last two
// characters. With create, the shard directory is made if needed.
func (s *Store) CacheLocation(p string, create bool) (string, error) {
	key := fmt.Sprintf("%016x", xxhash.Sum64String(paths.Clean(p)))
	dir := filepath.Join(s.cacheDir, key[len(key)-shardLength:])

	if create {
		if err := os.MkdirAll(dir, cacheDirPerms); err != nil {
			return "", err
		}

		if !s.dirMade {
			s.dirMade = true

			slog.Debug("created cache directory", "path", s.cacheDir)
		}
	}

	return filepath.Join(dir, key), nil
}

// Place decides, once, where a newly created record will live, setting its
// CacheLocation if it must go on disk. The root always stays in memory and
// does not count against the budget.
func (s *Store) Place(r *resource.Resource) error {
	if r.IsRoot {
		r.CacheLocation = ""

		return nil
	}

	useDisk := s.policy.UseDisk(s.created)
	s.created++

	if !useDisk {
		r.CacheLocation = ""

		return nil
	}

	loc, err := s.CacheLocation(r.Path, true)
	if err != nil {
		return err
	}

	r.CacheLocation = loc

	return nil
}

// Put saves the record. Records with a CacheLocation are written to that file;
// others are kept in memory as a copy, so later changes to r are not seen until
// the next Put.
func (s *Store) Put(r *resource.Resource) error {
	p := paths.Clean(r.Path)

	s.reads.Remove(p)

	if r.IsRoot {
		s.rootPath = p
		r.CacheLocation = ""
	}

	if r.CacheLocation == "" {
		s.slots[p] = slot{record: r.Clone()}

		return nil
	}

	encoded, err := s.codec.Encode(r)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", p, err)
	}

	if err = os.WriteFile(r.CacheLocation, encoded, cacheFilePerms); err != nil {
		return err
	}

	s.slots[p] = slot{cacheLocation: r.CacheLocation}

	return nil
}

// Get returns an independent copy of the record at the given path, or nil if
// there is none. A record on disk that can't be read back results in a
// *CacheCorruptionError.
func (s *Store) Get(p string) (*resource.Resource, error) {
	p = paths.Clean(p)

	sl, ok := s.slots[p]
	if !ok {
		return nil, nil //nolint:nilnil
	}

	if !sl.onDisk() {
		return sl.record.Clone(), nil
	}

	return s.load(p, sl.cacheLocation)
}

func (s *Store) load(p, cacheLocation string) (*resource.Resource, error) {
	encoded, ok := s.reads.Get(p)
	if !ok {
		var err error

		encoded, err = os.ReadFile(cacheLocation)
		if err != nil {
			return nil, &CacheCorruptionError{Path: p, CacheLocation: cacheLocation, Err: err}
		}
	}

	r, err := s.codec.Decode(encoded)
	if err != nil {
		s.reads.Remove(p)

		return nil, &CacheCorruptionError{Path: p, CacheLocation: cacheLocation, Content: encoded, Err: err}
	}

	s.reads.Add(p, encoded)

	return r, nil
}

// Remove forgets the record at the given path. Its cache file, if any, stays
// until Clear.
func (s *Store) Remove(p string) {
	p = paths.Clean(p)

	delete(s.slots, p)
	s.reads.Remove(p)
}

// Root returns a copy of the root record, or nil if none has been put.
func (s *Store) Root() *resource.Resource {
	sl, ok := s.slots[s.rootPath]
	if !ok || sl.record == nil || !sl.record.IsRoot {
		return nil
	}

	return sl.record.Clone()
}

// ExistsInMemory returns true if the path has a memory-resident record.
func (s *Store) ExistsInMemory(p string) bool {
	sl, ok := s.slots[paths.Clean(p)]

	return ok && !sl.onDisk()
}

// ExistsOnDisk returns true if the path has a disk-resident record.
func (s *Store) ExistsOnDisk(p string) bool {
	sl, ok := s.slots[paths.Clean(p)]

	return ok && sl.onDisk()
}

// Exists returns true if the path has a record.
func (s *Store) Exists(p string) bool {
	_, ok := s.slots[paths.Clean(p)]

	return ok
}

// Len returns the number of records.
func (s *Store) Len() int {
	return len(s.slots)
}

// Paths returns the sorted paths of all records.
func (s *Store) Paths() []string {
	ps := make([]string, 0, len(s.slots))
	for p := range s.slots {
		ps = append(ps, p)
	}

	slices.Sort(ps)

	return ps
}

// Clear forgets all records and deletes the cache directory.
func (s *Store) Clear() error {
	s.slots = make(map[string]slot)
	s.rootPath = ""
	s.created = 0
	s.reads.Purge()

	err := os.RemoveAll(s.cacheDir)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	s.dirMade = false

	slog.Debug("cleared cache directory", "path", s.cacheDir)

	return nil
}
