// Copyright 2026 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cache persists advisories per (ecosystem, package) so that scans
// can run from local data when the upstream feed is slow or unreachable.
//
// The on-disk store is a bbolt database tagged with a schema version. A
// database written with another schema version is discarded on open. When
// the database can't be opened or written, the cache keeps working from
// memory for the rest of the process.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	bolt "go.etcd.io/bbolt"

	"github.com/google/osv-depscan/advisory"
	"github.com/google/osv-depscan/log"
)

const (
	// SchemaVersion tags the layout of stored entries. Bump it whenever
	// Entry or advisory.Advisory change incompatibly.
	SchemaVersion = 1

	// DefaultTTL is how long an entry is trusted without a refresh.
	DefaultTTL = 24 * time.Hour

	// FileName is the name of the database inside the cache directory.
	FileName = "advisories.db"

	defaultMemoryEntries = 10000
)

var (
	metaBucket     = []byte("meta")
	entriesBucket  = []byte("advisories")
	schemaVersionK = []byte("schema_version")
)

var (
	// ErrSchemaMismatch is reported when an existing database was written
	// with a different schema version and had to be discarded.
	ErrSchemaMismatch = errors.New("advisory cache schema mismatch")
	// ErrIO is reported when the database can't be read or written. The cache
	// continues in memory.
	ErrIO = errors.New("advisory cache I/O failure")
)

// Entry is the cached advisory set of one package.
type Entry struct {
	Key        advisory.Key        `json:"key"`
	Advisories []advisory.Advisory `json:"advisories"`
	FetchedAt  time.Time           `json:"fetched_at"`
	// TTL is the freshness window the entry is judged against. It is set by
	// the cache on lookup and not persisted.
	TTL time.Duration `json:"-"`
}

// Stale reports whether the entry is past its freshness window at now.
func (e *Entry) Stale(now time.Time) bool {
	return e.TTL <= 0 || !now.Before(e.FetchedAt.Add(e.TTL))
}

// Options configure a Cache.
type Options struct {
	// Dir holds the database. An empty Dir keeps the cache in memory only.
	Dir string
	// TTL overrides DefaultTTL when positive.
	TTL time.Duration
	// MemoryEntries bounds the in-memory layer.
	MemoryEntries int
}

// Cache is safe for concurrent use. Reads run in parallel, writes to the same
// key are serialized, and writes to different keys are independent.
type Cache struct {
	opts Options

	once sync.Once
	db   *bolt.DB
	mem  *lru.Cache[advisory.Key, Entry]

	locksMu sync.Mutex
	locks   map[advisory.Key]*sync.Mutex

	warnMu   sync.Mutex
	warnings []error
	degraded bool
}

// New returns a cache rooted at opts.Dir. Nothing is opened until first use.
func New(opts Options) *Cache {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.MemoryEntries <= 0 {
		opts.MemoryEntries = defaultMemoryEntries
	}
	return &Cache{opts: opts, locks: map[advisory.Key]*sync.Mutex{}}
}

func (c *Cache) init() {
	c.once.Do(func() {
		mem, err := lru.New[advisory.Key, Entry](c.opts.MemoryEntries)
		if err != nil {
			// Only fails for a non-positive size, which New rules out.
			panic(err)
		}
		c.mem = mem

		if c.opts.Dir == "" {
			c.setDegraded()
			return
		}

		db, err := openDB(filepath.Join(c.opts.Dir, FileName))
		if err != nil {
			c.ioFailure("open", err)
			return
		}

		mismatch, err := checkSchema(db)
		if err != nil {
			_ = db.Close()
			c.ioFailure("schema check", err)
			return
		}
		if mismatch != nil {
			log.Warnf("%v, rebuilding the cache", mismatch)
			c.warn(mismatch)
		}

		c.db = db
	})
}

func openDB(path string) (*bolt.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, err
	}
	return bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
}

// checkSchema makes sure the database carries the current schema version,
// wiping it otherwise. The returned mismatch error is informational.
func checkSchema(db *bolt.DB) (mismatch error, err error) {
	err = db.Update(func(tx *bolt.Tx) error {
		want := strconv.Itoa(SchemaVersion)

		if meta := tx.Bucket(metaBucket); meta != nil {
			got := string(meta.Get(schemaVersionK))
			if got == want {
				_, err := tx.CreateBucketIfNotExists(entriesBucket)
				return err
			}
			mismatch = fmt.Errorf("%w: found version %q, want %q", ErrSchemaMismatch, got, want)
		} else if tx.Bucket(entriesBucket) != nil {
			mismatch = fmt.Errorf("%w: found unversioned data", ErrSchemaMismatch)
		}

		var names [][]byte
		if err := tx.ForEach(func(name []byte, _ *bolt.Bucket) error {
			names = append(names, append([]byte(nil), name...))
			return nil
		}); err != nil {
			return err
		}
		for _, name := range names {
			if err := tx.DeleteBucket(name); err != nil {
				return err
			}
		}

		meta, err := tx.CreateBucket(metaBucket)
		if err != nil {
			return err
		}
		if err := meta.Put(schemaVersionK, []byte(want)); err != nil {
			return err
		}
		_, err = tx.CreateBucket(entriesBucket)
		return err
	})

	return mismatch, err
}

func (c *Cache) setDegraded() {
	c.warnMu.Lock()
	defer c.warnMu.Unlock()
	c.degraded = true
}

func (c *Cache) warn(err error) {
	c.warnMu.Lock()
	defer c.warnMu.Unlock()
	c.warnings = append(c.warnings, err)
}

// ioFailure records err and switches the cache to memory only.
func (c *Cache) ioFailure(op string, err error) {
	wrapped := fmt.Errorf("%w: %s: %w", ErrIO, op, err)
	log.Warnf("%v, continuing with an in-memory cache", wrapped)

	c.warnMu.Lock()
	defer c.warnMu.Unlock()
	c.warnings = append(c.warnings, wrapped)
	c.degraded = true
}

// Warnings returns the recovered failures the cache ran into, such as a
// discarded database or I/O errors.
func (c *Cache) Warnings() []error {
	c.warnMu.Lock()
	defer c.warnMu.Unlock()
	return append([]error(nil), c.warnings...)
}

// Degraded reports whether the cache is running from memory only.
func (c *Cache) Degraded() bool {
	c.warnMu.Lock()
	defer c.warnMu.Unlock()
	return c.degraded
}

// store returns the database unless the cache is degraded.
func (c *Cache) store() *bolt.DB {
	if c.Degraded() {
		return nil
	}
	return c.db
}

func (c *Cache) keyLock(key advisory.Key) *sync.Mutex {
	c.locksMu.Lock()
	defer c.locksMu.Unlock()

	l, ok := c.locks[key]
	if !ok {
		l = &sync.Mutex{}
		c.locks[key] = l
	}

	return l
}

func dbKey(key advisory.Key) []byte {
	return []byte(key.String())
}

// Lookup returns the entry for key. The entry is returned whether it is fresh
// or stale; use Entry.Stale to tell.
func (c *Cache) Lookup(key advisory.Key) (Entry, bool) {
	c.init()

	entry, ok := c.read(key)
	if !ok {
		return Entry{}, false
	}
	entry.TTL = c.opts.TTL

	return entry, true
}

func (c *Cache) read(key advisory.Key) (Entry, bool) {
	if entry, ok := c.mem.Get(key); ok {
		return entry, true
	}

	db := c.store()
	if db == nil {
		return Entry{}, false
	}

	var data []byte
	err := db.View(func(tx *bolt.Tx) error {
		if b := tx.Bucket(entriesBucket); b != nil {
			if v := b.Get(dbKey(key)); v != nil {
				data = append([]byte(nil), v...)
			}
		}
		return nil
	})
	if err != nil {
		c.ioFailure("read", err)
		return Entry{}, false
	}
	if data == nil {
		return Entry{}, false
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		log.Warnf("cache: dropping undecodable entry for %s: %v", key, err)
		return Entry{}, false
	}
	c.mem.Add(key, entry)

	return entry, true
}

// Store replaces the entry for key with advisories fetched at fetchedAt. An
// existing entry fetched later than fetchedAt is kept. It returns whether the
// entry was written.
func (c *Cache) Store(key advisory.Key, advisories []advisory.Advisory, fetchedAt time.Time) bool {
	c.init()

	l := c.keyLock(key)
	l.Lock()
	defer l.Unlock()

	if existing, ok := c.read(key); ok && existing.FetchedAt.After(fetchedAt) {
		return false
	}

	entry := Entry{
		Key:        key,
		Advisories: append([]advisory.Advisory(nil), advisories...),
		FetchedAt:  fetchedAt,
	}

	if db := c.store(); db != nil {
		if data, err := json.Marshal(entry); err != nil {
			// Only this entry is unpersistable; the database itself is fine.
			log.Warnf("cache: not persisting entry for %s: %v", key, err)
		} else if err := db.Update(func(tx *bolt.Tx) error {
			b, err := tx.CreateBucketIfNotExists(entriesBucket)
			if err != nil {
				return err
			}
			return b.Put(dbKey(key), data)
		}); err != nil {
			c.ioFailure("write", err)
		}
	}

	c.mem.Add(key, entry)

	return true
}

// Invalidate drops the entry for key.
func (c *Cache) Invalidate(key advisory.Key) {
	c.init()

	l := c.keyLock(key)
	l.Lock()
	defer l.Unlock()

	c.mem.Remove(key)

	if db := c.store(); db != nil {
		err := db.Update(func(tx *bolt.Tx) error {
			if b := tx.Bucket(entriesBucket); b != nil {
				return b.Delete(dbKey(key))
			}
			return nil
		})
		if err != nil {
			c.ioFailure("invalidate", err)
		}
	}
}

// InvalidateAll drops every entry.
func (c *Cache) InvalidateAll() {
	c.init()

	c.mem.Purge()

	if db := c.store(); db != nil {
		err := db.Update(func(tx *bolt.Tx) error {
			if tx.Bucket(entriesBucket) != nil {
				if err := tx.DeleteBucket(entriesBucket); err != nil {
					return err
				}
			}
			_, err := tx.CreateBucket(entriesBucket)
			return err
		})
		if err != nil {
			c.ioFailure("invalidate all", err)
		}
	}
}

// Close flushes and closes the database. The cache must not be used after.
func (c *Cache) Close() error {
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	return err
}
