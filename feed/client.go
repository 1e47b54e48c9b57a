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

package feed

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/google/osv-depscan/advisory"
	"github.com/google/osv-depscan/ecosystem"
	"github.com/google/osv-depscan/log"
	"github.com/google/osv-depscan/stats"
)

const (
	defaultRequestTimeout        = 10 * time.Second
	defaultMaxConcurrentRequests = 5
	defaultRetryBackoff          = 500 * time.Millisecond
)

// Config controls how a Client talks to its sources.
type Config struct {
	// RequestTimeout bounds every individual source query.
	RequestTimeout time.Duration
	// MaxConcurrentRequests is the ceiling on in-flight queries across all
	// sources and packages.
	MaxConcurrentRequests int
	// RetryBackoff is the base delay before the single retry a source gets.
	RetryBackoff time.Duration
	// RateLimit caps queries per second across all sources. Zero disables it.
	RateLimit rate.Limit
	Stats     stats.Collector
}

// DefaultConfig returns the configuration used when none is given.
func DefaultConfig() Config {
	return Config{
		RequestTimeout:        defaultRequestTimeout,
		MaxConcurrentRequests: defaultMaxConcurrentRequests,
		RetryBackoff:          defaultRetryBackoff,
		Stats:                 stats.NoopCollector{},
	}
}

// Client fans a package query out to its sources and merges the answers.
// A Client is meant to live for one scan: every source gets at most one
// retry over the lifetime of the Client.
type Client struct {
	sources []Source
	cfg     Config
	sem     *semaphore.Weighted
	limiter *rate.Limiter

	mu      sync.Mutex
	retried map[string]bool
}

// NewClient returns a Client querying sources in the given priority order.
func NewClient(cfg Config, sources ...Source) *Client {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	if cfg.MaxConcurrentRequests <= 0 {
		cfg.MaxConcurrentRequests = defaultMaxConcurrentRequests
	}
	if cfg.RetryBackoff < 0 {
		cfg.RetryBackoff = 0
	}
	if cfg.Stats == nil {
		cfg.Stats = stats.NoopCollector{}
	}

	c := &Client{
		sources: sources,
		cfg:     cfg,
		sem:     semaphore.NewWeighted(int64(cfg.MaxConcurrentRequests)),
		retried: map[string]bool{},
	}
	if cfg.RateLimit > 0 {
		c.limiter = rate.NewLimiter(cfg.RateLimit, 1)
	}

	return c
}

// SourceNames returns the names of the configured sources in priority order.
func (c *Client) SourceNames() []string {
	names := make([]string, 0, len(c.sources))
	for _, s := range c.sources {
		names = append(names, s.Name())
	}
	return names
}

// Fetch queries every source for the package concurrently. Failing sources
// are reported in the returned Result and do not fail the call as long as
// one source answered; otherwise the error wraps ErrAllSourcesFailed and
// every *SourceError.
func (c *Client) Fetch(ctx context.Context, eco ecosystem.Ecosystem, name string) (Result, error) {
	if len(c.sources) == 0 {
		return Result{}, ErrNoSources
	}

	results := make([]SourceResult, len(c.sources))

	var g errgroup.Group
	for i, src := range c.sources {
		g.Go(func() error {
			results[i] = c.query(ctx, src, eco, name)
			return nil
		})
	}
	_ = g.Wait()

	res := Result{Sources: results}
	if !res.Answered() {
		errs := []error{ErrAllSourcesFailed}
		for _, f := range res.Failures() {
			errs = append(errs, f)
		}
		return res, multierr.Combine(errs...)
	}

	lists := make([][]advisory.Advisory, 0, len(results))
	for _, r := range results {
		if r.Err == nil {
			lists = append(lists, r.Advisories)
		}
	}
	res.Advisories = advisory.Merge(lists...)

	return res, nil
}

func (c *Client) query(ctx context.Context, src Source, eco ecosystem.Ecosystem, name string) SourceResult {
	key := advisory.NewKey(eco, name).String()

	for attempt := 1; ; attempt++ {
		start := time.Now()
		advisories, err := c.attempt(ctx, src, eco, name)
		c.cfg.Stats.AfterSourceQueried(src.Name(), &stats.SourceQueryStats{
			Key:        key,
			Runtime:    time.Since(start),
			Attempt:    attempt,
			Advisories: len(advisories),
			Error:      err,
		})

		if err == nil {
			return SourceResult{Source: src.Name(), Advisories: advisories}
		}

		if ctx.Err() != nil || !c.takeRetry(src.Name()) {
			return SourceResult{Source: src.Name(), Err: classify(ctx, src.Name(), err)}
		}

		log.Debugf("retrying %s for %s after error: %v", src.Name(), key, err)

		if err := c.backoff(ctx); err != nil {
			return SourceResult{Source: src.Name(), Err: classify(ctx, src.Name(), err)}
		}
	}
}

func (c *Client) attempt(ctx context.Context, src Source, eco ecosystem.Ecosystem, name string) ([]advisory.Advisory, error) {
	if l, ok := src.(Loader); ok {
		if err := l.Load(ctx, eco); err != nil {
			return nil, err
		}
	}

	if err := c.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer c.sem.Release(1)

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()

	advisories, err := src.Query(reqCtx, eco, name)
	if err != nil && errors.Is(reqCtx.Err(), context.DeadlineExceeded) && !errors.Is(err, context.DeadlineExceeded) {
		err = multierr.Append(err, context.DeadlineExceeded)
	}

	return advisories, err
}

// takeRetry reports whether the source still has its retry available and
// consumes it.
func (c *Client) takeRetry(source string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.retried[source] {
		return false
	}
	c.retried[source] = true

	return true
}

// backoff sleeps for the retry delay plus up to 50% jitter.
func (c *Client) backoff(ctx context.Context) error {
	delay := c.cfg.RetryBackoff
	if half := int64(delay / 2); half > 0 {
		delay += time.Duration(rand.Int63n(half))
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
