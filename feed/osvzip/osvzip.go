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

// Package osvzip serves advisories from the per-ecosystem zip exports of the
// OSV database, keeping the downloaded archives on disk for offline use.
package osvzip

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/osv-depscan/advisory"
	"github.com/google/osv-depscan/ecosystem"
	"github.com/google/osv-depscan/feed"
	"github.com/google/osv-depscan/feed/osv"
)

const (
	// Name is the source name reported on advisories and warnings.
	Name = "osv.dev-zip"
	// DefaultBaseURL hosts the OSV zip exports.
	DefaultBaseURL = "https://osv-vulnerabilities.storage.googleapis.com"

	defaultLoadTimeout = 5 * time.Minute
)

// ErrOfflineDatabaseNotFound is returned in offline mode when no archive has
// been downloaded yet.
var ErrOfflineDatabaseNotFound = errors.New("no offline version of the OSV database is available")

var (
	_ feed.Source = &Source{}
	_ feed.Loader = &Source{}
)

// Source answers queries from a locally loaded copy of each ecosystem's
// archive. Each archive is loaded at most once per Source.
type Source struct {
	// BaseURL is the host of the archives, without a trailing slash.
	BaseURL string
	// Dir is where downloaded archives are kept.
	Dir string
	// Offline disables all network access; only archives already in Dir are used.
	Offline    bool
	UserAgent  string
	HTTPClient *http.Client
	// LoadTimeout bounds the download and indexing of one archive. It is
	// independent of the timeout of the query that triggered the load.
	LoadTimeout time.Duration

	mu  sync.Mutex
	dbs map[ecosystem.Ecosystem]*lazyDB
}

type lazyDB struct {
	done chan struct{}
	db   *zipDB
	err  error
}

// New returns a Source storing archives under dir.
func New(dir string, offline bool) *Source {
	return &Source{
		BaseURL:     DefaultBaseURL,
		Dir:         dir,
		Offline:     offline,
		HTTPClient:  http.DefaultClient,
		LoadTimeout: defaultLoadTimeout,
	}
}

// Name of the source.
func (s *Source) Name() string {
	return Name
}

// Load waits until the archive of eco is loaded, starting the load if needed.
// The load itself is bounded by LoadTimeout.
func (s *Source) Load(ctx context.Context, eco ecosystem.Ecosystem) error {
	_, err := s.database(ctx, eco)
	return err
}

// Query returns the advisories of the package found in its ecosystem's archive.
func (s *Source) Query(ctx context.Context, eco ecosystem.Ecosystem, name string) ([]advisory.Advisory, error) {
	db, err := s.database(ctx, eco)
	if err != nil {
		return nil, err
	}

	return osv.ToAdvisories(db.byPackage[eco.NormalizeName(name)], eco, name, Name), nil
}

// database returns the loaded archive of eco, starting the load on first use.
// The load outlives ctx so that a short query timeout doesn't discard a
// partially downloaded archive.
func (s *Source) database(ctx context.Context, eco ecosystem.Ecosystem) (*zipDB, error) {
	s.mu.Lock()
	if s.dbs == nil {
		s.dbs = map[ecosystem.Ecosystem]*lazyDB{}
	}
	l, ok := s.dbs[eco]
	if !ok {
		l = &lazyDB{done: make(chan struct{})}
		s.dbs[eco] = l
		go s.load(context.WithoutCancel(ctx), eco, l)
	}
	s.mu.Unlock()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-l.done:
		return l.db, l.err
	}
}

func (s *Source) load(ctx context.Context, eco ecosystem.Ecosystem, l *lazyDB) {
	defer close(l.done)

	timeout := s.LoadTimeout
	if timeout <= 0 {
		timeout = defaultLoadTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	db := &zipDB{
		eco:        eco,
		archiveURL: s.BaseURL + "/" + eco.String() + "/all.zip",
		storedAt:   filepath.Join(s.Dir, eco.String(), "all.zip"),
		offline:    s.Offline,
		userAgent:  s.UserAgent,
		httpClient: s.HTTPClient,
	}
	if db.httpClient == nil {
		db.httpClient = http.DefaultClient
	}

	if err := db.load(ctx); err != nil {
		l.err = err
		return
	}
	l.db = db
}
