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

// Package depscan discovers the lockfiles under a directory, looks up the
// advisories of every resolved dependency and reports the ones affecting it.
package depscan

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/google/osv-depscan/advisory"
	"github.com/google/osv-depscan/cache"
	"github.com/google/osv-depscan/feed"
	"github.com/google/osv-depscan/lockfile"
	"github.com/google/osv-depscan/log"
	"github.com/google/osv-depscan/stats"
)

// ErrRootUnreadable is returned by Scan when the root path can't be read.
// It is the only error that fails a scan.
var ErrRootUnreadable = errors.New("scan root unreadable")

// Scanner is the main entry point of the scanner.
type Scanner struct{}

// New creates a new scanner instance.
func New() *Scanner { return &Scanner{} }

// ScanResult stores the results of a scan. Findings are sorted by severity
// (descending), dependency name, advisory ID, version and lockfile.
type ScanResult struct {
	StartTime time.Time
	EndTime   time.Time
	// Lockfiles are the slash separated paths of the discovered lockfiles,
	// relative to the scan root.
	Lockfiles []string
	Findings  []*Finding
	// ParseErrors holds one error per lockfile that could not be read fully.
	ParseErrors []error
	// FeedWarnings are the upstream source failures seen during the scan.
	FeedWarnings []error
	// MatchWarnings are the advisory ranges that could not be evaluated.
	MatchWarnings []*MatchWarning
	// CacheWarnings are recovered advisory cache failures.
	CacheWarnings []error
}

// Scan discovers and parses the lockfiles under root, resolves the
// advisories of every dependency and matches them. Failures past the
// discovery of root are recovered and reported in the result.
func (Scanner) Scan(ctx context.Context, root string, config *ScanConfig) (*ScanResult, error) {
	if config == nil {
		config = DefaultScanConfig()
	}
	cfg := config.withDefaults()

	sr := &ScanResult{StartTime: time.Now()}

	refs, err := discover(root, cfg.Parsers, cfg.DirsToSkip)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRootUnreadable, err)
	}
	for _, ref := range refs {
		sr.Lockfiles = append(sr.Lockfiles, ref.rel)
	}

	deps, parseErrs := parseLockfiles(ctx, refs, cfg)
	sr.ParseErrors = parseErrs
	log.Infof("%d dependencies found in %d lockfiles", len(deps), len(refs))

	c := cfg.Cache
	if c == nil {
		c = cache.New(cache.Options{Dir: cfg.CacheDir, TTL: cfg.CacheTTL})
	}

	var client *feed.Client
	if !cfg.Offline && len(cfg.Sources) > 0 {
		client = feed.NewClient(cfg.feedConfig(), cfg.Sources...)
		log.Infof("Querying advisory sources: %s", strings.Join(client.SourceNames(), ", "))
	}

	lookupCtx := ctx
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		lookupCtx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	r := newResolver(c, client, cfg)
	matched, warnings := resolveAndMatch(lookupCtx, r, deps, cfg.MaxConcurrentRequests)

	sr.Findings = filterFindings(matched, cfg)
	sortFindings(sr.Findings)
	sr.MatchWarnings = warnings
	sr.FeedWarnings = sortedErrors(r.feedWarnings())

	if cfg.Cache == nil {
		if err := c.Close(); err != nil {
			sr.CacheWarnings = append(sr.CacheWarnings, err)
		}
	}
	sr.CacheWarnings = append(c.Warnings(), sr.CacheWarnings...)

	sr.EndTime = time.Now()
	cfg.Stats.AfterScan(sr.EndTime.Sub(sr.StartTime), &stats.ScanStats{
		Lockfiles:    len(refs),
		Dependencies: len(deps),
		Findings:     len(sr.Findings),
	})

	return sr, nil
}

// parseLockfiles reads and parses refs in parallel. Dependencies are returned
// in the order of refs, so the result doesn't depend on scheduling.
func parseLockfiles(ctx context.Context, refs []lockfileRef, cfg ScanConfig) ([]lockfile.Dependency, []error) {
	type parsed struct {
		deps []lockfile.Dependency
		err  error
	}
	results := make([]parsed, len(refs))

	var g errgroup.Group
	g.SetLimit(cfg.ParseWorkers)
	for i, ref := range refs {
		g.Go(func() error {
			if ctx.Err() != nil {
				results[i].err = fmt.Errorf("%s: %w", ref.rel, ctx.Err())
				return nil
			}
			deps, err := parseLockfile(ref, cfg.Stats)
			results[i] = parsed{deps: deps, err: err}
			return nil
		})
	}
	_ = g.Wait()

	var (
		deps []lockfile.Dependency
		errs []error
	)
	for _, r := range results {
		deps = append(deps, r.deps...)
		if r.err != nil {
			errs = append(errs, r.err)
		}
	}
	return deps, errs
}

func parseLockfile(ref lockfileRef, collector stats.Collector) ([]lockfile.Dependency, error) {
	start := time.Now()
	ps := &stats.ParseStats{Path: ref.rel, Result: stats.ParseResultOK}
	defer func() {
		ps.Runtime = time.Since(start)
		collector.AfterLockfileParsed(ref.parser.Name(), ps)
	}()

	data, err := os.ReadFile(ref.path)
	if err != nil {
		ps.Result = stats.ParseResultUnreadable
		log.Warnf("reading %s: %v", ref.rel, err)
		return nil, fmt.Errorf("reading %s: %w", ref.rel, err)
	}

	deps, err := ref.parser.Parse(ref.rel, data)
	ps.Dependencies = len(deps)

	var partial *lockfile.PartialFailureError
	switch {
	case err == nil:
	case errors.As(err, &partial):
		ps.Result = stats.ParseResultPartial
		ps.Skipped = partial.Skipped
		log.Warnf("%v", err)
	default:
		ps.Result = stats.ParseResultMalformed
		log.Warnf("parsing %s with %s: %v", ref.rel, ref.parser.Name(), err)
		deps = nil
	}

	return deps, err
}

// resolveAndMatch looks up the advisories of every distinct package of deps
// once, with at most workers lookups in flight, and matches them against
// every dependency sharing the package.
func resolveAndMatch(ctx context.Context, r *resolver, deps []lockfile.Dependency, workers int) ([]*Finding, []*MatchWarning) {
	groups := map[advisory.Key][]lockfile.Dependency{}
	var keys []advisory.Key
	for _, d := range deps {
		k := advisory.NewKey(d.Ecosystem, d.Name)
		if _, ok := groups[k]; !ok {
			keys = append(keys, k)
		}
		groups[k] = append(groups[k], d)
	}

	var (
		mu       sync.Mutex
		findings []*Finding
		warnings = newWarningSet()
	)

	var g errgroup.Group
	g.SetLimit(workers)
	for _, k := range keys {
		g.Go(func() error {
			res := r.resolve(ctx, k)
			f, w := matchGroup(groups[k], res)

			mu.Lock()
			defer mu.Unlock()
			findings = append(findings, f...)
			warnings.add(w...)
			return nil
		})
	}
	_ = g.Wait()

	return findings, warnings.sorted()
}

func sortedErrors(errs []error) []error {
	slices.SortStableFunc(errs, func(a, b error) int {
		return cmp.Compare(a.Error(), b.Error())
	})
	return slices.CompactFunc(errs, func(a, b error) bool {
		return a.Error() == b.Error()
	})
}
