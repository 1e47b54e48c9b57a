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

// Package fakesource provides a feed.Source implementation to be used in tests.
package fakesource

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/osv-depscan/advisory"
	"github.com/google/osv-depscan/ecosystem"
)

// ErrInjected is returned by a Source configured to fail.
var ErrInjected = errors.New("injected source failure")

// Config for creating a fake source.
type Config struct {
	Name string
	// Advisories are served by package key. Keys should be built with
	// advisory.NewKey.
	Advisories map[advisory.Key][]advisory.Advisory
	// Err, when set, is returned by every query.
	Err error
	// FailFirst makes the first n queries fail with ErrInjected.
	FailFirst int
	// Block makes queries wait for their context to be done.
	Block bool
	// Delay is waited before answering.
	Delay time.Duration
}

// Source is a fake advisory source that records how it was called.
type Source struct {
	cfg Config

	mu          sync.Mutex
	calls       map[advisory.Key]int
	total       int
	inFlight    int
	maxInFlight int
}

// New creates a new fake source.
func New(cfg Config) *Source {
	if cfg.Name == "" {
		cfg.Name = "fake"
	}
	return &Source{cfg: cfg, calls: map[advisory.Key]int{}}
}

// Name returns the configured name.
func (s *Source) Name() string { return s.cfg.Name }

// Query returns the configured advisories for the package.
func (s *Source) Query(ctx context.Context, eco ecosystem.Ecosystem, name string) ([]advisory.Advisory, error) {
	key := advisory.NewKey(eco, name)

	s.mu.Lock()
	s.calls[key]++
	s.total++
	n := s.total
	s.inFlight++
	s.maxInFlight = max(s.maxInFlight, s.inFlight)
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.inFlight--
		s.mu.Unlock()
	}()

	if s.cfg.Block {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	if s.cfg.Delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.cfg.Delay):
		}
	}

	if s.cfg.Err != nil {
		return nil, s.cfg.Err
	}
	if n <= s.cfg.FailFirst {
		return nil, ErrInjected
	}

	return append([]advisory.Advisory(nil), s.cfg.Advisories[key]...), nil
}

// Calls returns how many times the package was queried.
func (s *Source) Calls(eco ecosystem.Ecosystem, name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[advisory.NewKey(eco, name)]
}

// TotalCalls returns how many queries the source received.
func (s *Source) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

// MaxInFlight returns the highest number of concurrent queries observed.
func (s *Source) MaxInFlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maxInFlight
}
