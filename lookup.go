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

package depscan

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/google/osv-depscan/advisory"
	"github.com/google/osv-depscan/cache"
	"github.com/google/osv-depscan/feed"
	"github.com/google/osv-depscan/log"
	"github.com/google/osv-depscan/stats"
)

// resolution is the advisory set used to match the dependencies of one key.
type resolution struct {
	advisories []advisory.Advisory
	// stale is set when the advisories come from an expired cache entry, or
	// when nothing could be fetched at all.
	stale bool
}

// resolver finds the advisories of each package at most once per scan.
type resolver struct {
	cache   *cache.Cache
	client  *feed.Client
	offline bool
	refresh bool
	stats   stats.Collector
	now     func() time.Time

	group singleflight.Group

	mu       sync.Mutex
	resolved map[advisory.Key]resolution
	warnings []error
}

func newResolver(c *cache.Cache, client *feed.Client, cfg ScanConfig) *resolver {
	return &resolver{
		cache:    c,
		client:   client,
		offline:  cfg.Offline || client == nil,
		refresh:  cfg.Refresh,
		stats:    cfg.Stats,
		now:      time.Now,
		resolved: map[advisory.Key]resolution{},
	}
}

// resolve returns the advisories of key. Concurrent and repeated calls for
// the same key share one cache lookup and at most one fetch.
func (r *resolver) resolve(ctx context.Context, key advisory.Key) resolution {
	r.mu.Lock()
	if res, ok := r.resolved[key]; ok {
		r.mu.Unlock()
		return res
	}
	r.mu.Unlock()

	v, _, _ := r.group.Do(key.String(), func() (any, error) {
		r.mu.Lock()
		res, ok := r.resolved[key]
		r.mu.Unlock()
		if ok {
			return res, nil
		}

		res = r.lookup(ctx, key)

		r.mu.Lock()
		r.resolved[key] = res
		r.mu.Unlock()

		return res, nil
	})

	return v.(resolution)
}

func (r *resolver) lookup(ctx context.Context, key advisory.Key) resolution {
	entry, cached := r.cache.Lookup(key)
	if cached && !r.refresh && !entry.Stale(r.now()) {
		r.stats.AfterAdvisoryLookup(key.String(), stats.LookupResultFresh)
		return resolution{advisories: entry.Advisories}
	}

	if !r.offline {
		res, err := r.client.Fetch(ctx, key.Ecosystem, key.Package)
		r.addWarnings(res.Failures())

		if err == nil {
			r.cache.Store(key, res.Advisories, r.now())
			r.stats.AfterAdvisoryLookup(key.String(), stats.LookupResultFetched)
			return resolution{advisories: res.Advisories}
		}
		if !errors.Is(err, feed.ErrAllSourcesFailed) {
			log.Warnf("fetching advisories for %s: %v", key, err)
		}
	}

	if !cached {
		r.stats.AfterAdvisoryLookup(key.String(), stats.LookupResultMiss)
		return resolution{stale: true}
	}

	r.stats.AfterAdvisoryLookup(key.String(), stats.LookupResultStale)
	return resolution{advisories: entry.Advisories, stale: true}
}

func (r *resolver) addWarnings(failures []*feed.SourceError) {
	if len(failures) == 0 {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range failures {
		r.warnings = append(r.warnings, f)
	}
}

func (r *resolver) feedWarnings() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.warnings...)
}
