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

package cache_test

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	bolt "go.etcd.io/bbolt"

	"github.com/google/osv-depscan/advisory"
	"github.com/google/osv-depscan/cache"
	"github.com/google/osv-depscan/ecosystem"
)

var (
	leftPad = advisory.NewKey(ecosystem.Npm, "left-pad")
	openssl = advisory.NewKey(ecosystem.Cargo, "openssl")

	leftPadAdvisories = []advisory.Advisory{{
		ID:        "GHSA-1",
		Ecosystem: ecosystem.Npm,
		Package:   "left-pad",
		Ranges:    []string{"<1.3.1"},
		Severity:  advisory.SeverityHigh,
		Source:    "osv.dev",
		Published: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}}
)

func newCache(t *testing.T, dir string) *cache.Cache {
	t.Helper()

	c := cache.New(cache.Options{Dir: dir, TTL: time.Hour})
	t.Cleanup(func() {
		if err := c.Close(); err != nil {
			t.Errorf("Close() returned an error: %v", err)
		}
	})

	return c
}

func TestStoreLookup_RoundTrip(t *testing.T) {
	c := newCache(t, t.TempDir())
	now := time.Now()

	if _, ok := c.Lookup(leftPad); ok {
		t.Fatalf("Lookup() on an empty cache found an entry")
	}

	if !c.Store(leftPad, leftPadAdvisories, now) {
		t.Fatalf("Store() = false, want true")
	}

	got, ok := c.Lookup(leftPad)
	if !ok {
		t.Fatalf("Lookup() found no entry after Store()")
	}
	if diff := cmp.Diff(leftPadAdvisories, got.Advisories); diff != "" {
		t.Errorf("Lookup() returned diff (-want +got):\n%s", diff)
	}
	if got.Stale(now.Add(time.Minute)) {
		t.Errorf("Lookup() entry is stale within the TTL")
	}
	if c.Degraded() {
		t.Errorf("Degraded() = true, want false; warnings: %v", c.Warnings())
	}
}

func TestLookup_Persists(t *testing.T) {
	dir := t.TempDir()
	fetchedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	first := cache.New(cache.Options{Dir: dir})
	first.Store(leftPad, leftPadAdvisories, fetchedAt)
	if err := first.Close(); err != nil {
		t.Fatalf("Close() returned an error: %v", err)
	}

	second := newCache(t, dir)
	got, ok := second.Lookup(leftPad)
	if !ok {
		t.Fatalf("Lookup() found no entry in a reopened cache")
	}
	if !got.FetchedAt.Equal(fetchedAt) {
		t.Errorf("Lookup().FetchedAt = %v, want %v", got.FetchedAt, fetchedAt)
	}
	if diff := cmp.Diff(leftPadAdvisories, got.Advisories); diff != "" {
		t.Errorf("Lookup() returned diff (-want +got):\n%s", diff)
	}
}

func TestEntry_Stale(t *testing.T) {
	c := newCache(t, t.TempDir())
	now := time.Now()

	c.Store(leftPad, leftPadAdvisories, now.Add(-2*time.Hour))

	got, ok := c.Lookup(leftPad)
	if !ok {
		t.Fatalf("Lookup() found no entry")
	}
	if !got.Stale(now) {
		t.Errorf("Stale() = false for an entry older than its TTL")
	}
	if len(got.Advisories) != 1 {
		t.Errorf("stale entry has %d advisories, want 1", len(got.Advisories))
	}
}

func TestStore_KeepsNewerEntry(t *testing.T) {
	c := newCache(t, t.TempDir())
	newer := time.Now()
	older := newer.Add(-time.Minute)

	c.Store(leftPad, leftPadAdvisories, newer)
	if c.Store(leftPad, nil, older) {
		t.Errorf("Store() with an older fetch time = true, want false")
	}

	got, _ := c.Lookup(leftPad)
	if !got.FetchedAt.Equal(newer) || len(got.Advisories) != 1 {
		t.Errorf("Lookup() = %+v, want the newer entry", got)
	}
}

func TestStore_ConcurrentSameKey(t *testing.T) {
	c := newCache(t, t.TempDir())
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Store(openssl, []advisory.Advisory{{ID: "RUSTSEC-1"}}, base.Add(time.Duration(i)*time.Second))
		}()
	}
	wg.Wait()

	got, ok := c.Lookup(openssl)
	if !ok {
		t.Fatalf("Lookup() found no entry")
	}
	if want := base.Add(19 * time.Second); !got.FetchedAt.Equal(want) {
		t.Errorf("Lookup().FetchedAt = %v, want %v", got.FetchedAt, want)
	}
}

func TestInvalidate(t *testing.T) {
	dir := t.TempDir()
	c := newCache(t, dir)
	now := time.Now()

	c.Store(leftPad, leftPadAdvisories, now)
	c.Store(openssl, nil, now)

	c.Invalidate(leftPad)
	if _, ok := c.Lookup(leftPad); ok {
		t.Errorf("Lookup() found an invalidated entry")
	}
	if _, ok := c.Lookup(openssl); !ok {
		t.Errorf("Invalidate() dropped an unrelated entry")
	}

	c.InvalidateAll()
	if _, ok := c.Lookup(openssl); ok {
		t.Errorf("Lookup() found an entry after InvalidateAll()")
	}
}

func TestSchemaMismatch(t *testing.T) {
	dir := t.TempDir()

	db, err := bolt.Open(filepath.Join(dir, cache.FileName), 0600, nil)
	if err != nil {
		t.Fatalf("bolt.Open(): %v", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		meta, err := tx.CreateBucket([]byte("meta"))
		if err != nil {
			return err
		}
		if err := meta.Put([]byte("schema_version"), []byte("0")); err != nil {
			return err
		}
		entries, err := tx.CreateBucket([]byte("advisories"))
		if err != nil {
			return err
		}
		return entries.Put([]byte(leftPad.String()), []byte(`{"legacy": true}`))
	})
	if err != nil {
		t.Fatalf("seeding database: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatal(err)
	}

	c := newCache(t, dir)
	if _, ok := c.Lookup(leftPad); ok {
		t.Errorf("Lookup() found an entry written with an old schema")
	}

	warnings := c.Warnings()
	if len(warnings) != 1 || !errors.Is(warnings[0], cache.ErrSchemaMismatch) {
		t.Errorf("Warnings() = %v, want one %v", warnings, cache.ErrSchemaMismatch)
	}
	if c.Degraded() {
		t.Errorf("Degraded() = true after a schema rebuild, want false")
	}

	c.Store(leftPad, leftPadAdvisories, time.Now())
	if _, ok := c.Lookup(leftPad); !ok {
		t.Errorf("Lookup() found no entry after rebuilding")
	}
}

func TestIOFailureDegradesToMemory(t *testing.T) {
	// A regular file where the cache directory should be.
	dir := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(dir, []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}

	c := newCache(t, dir)
	c.Store(leftPad, leftPadAdvisories, time.Now())

	got, ok := c.Lookup(leftPad)
	if !ok || len(got.Advisories) != 1 {
		t.Errorf("Lookup() = %+v, %v, want the stored entry from memory", got, ok)
	}
	if !c.Degraded() {
		t.Errorf("Degraded() = false, want true")
	}

	warnings := c.Warnings()
	if len(warnings) == 0 || !errors.Is(warnings[0], cache.ErrIO) {
		t.Errorf("Warnings() = %v, want %v", warnings, cache.ErrIO)
	}
}

func TestStore_UnencodableEntryKeepsDatabase(t *testing.T) {
	c := newCache(t, t.TempDir())
	now := time.Now()

	// The zero Ecosystem has no text encoding.
	bad := []advisory.Advisory{{ID: "GHSA-bad", Package: "openssl", Ranges: []string{"<1.0.2"}}}
	if !c.Store(openssl, bad, now) {
		t.Fatalf("Store() = false, want true")
	}

	got, ok := c.Lookup(openssl)
	if !ok {
		t.Fatalf("Lookup() found no entry after Store()")
	}
	if diff := cmp.Diff(bad, got.Advisories); diff != "" {
		t.Errorf("Lookup() returned diff (-want +got):\n%s", diff)
	}
	if c.Degraded() {
		t.Errorf("Degraded() = true, want false")
	}
	if warnings := c.Warnings(); len(warnings) != 0 {
		t.Errorf("Warnings() = %v, want none", warnings)
	}

	c.Store(leftPad, leftPadAdvisories, now)
	if c.Degraded() {
		t.Errorf("Degraded() after a valid Store() = true, want false")
	}
}

func TestMemoryOnly(t *testing.T) {
	c := newCache(t, "")
	c.Store(openssl, nil, time.Now())

	if _, ok := c.Lookup(openssl); !ok {
		t.Errorf("Lookup() found no entry in a memory-only cache")
	}
	if len(c.Warnings()) != 0 {
		t.Errorf("Warnings() = %v, want none", c.Warnings())
	}
}
