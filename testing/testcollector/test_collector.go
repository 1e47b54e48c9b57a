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

// Package testcollector provides an implementation of stats.Collector that
// stores recorded metrics for verification in tests.
package testcollector

import (
	"sync"
	"time"

	"github.com/google/osv-depscan/stats"
)

// Collector implements the stats.Collector interface and simply stores metrics
// by path or key.
type Collector struct {
	mu            sync.Mutex
	parseStats    map[string]*stats.ParseStats
	sourceQueries map[string][]*stats.SourceQueryStats
	lookups       map[string][]stats.LookupResult
	scanStats     *stats.ScanStats
}

var _ stats.Collector = &Collector{}

// New returns a new test Collector with maps initialized.
func New() *Collector {
	return &Collector{
		parseStats:    make(map[string]*stats.ParseStats),
		sourceQueries: make(map[string][]*stats.SourceQueryStats),
		lookups:       make(map[string][]stats.LookupResult),
	}
}

// AfterLockfileParsed stores the metrics for a parsed lockfile.
func (c *Collector) AfterLockfileParsed(_ string, parsestats *stats.ParseStats) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.parseStats[parsestats.Path] = parsestats
}

// AfterSourceQueried stores the metrics for an upstream query.
func (c *Collector) AfterSourceQueried(source string, querystats *stats.SourceQueryStats) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sourceQueries[source] = append(c.sourceQueries[source], querystats)
}

// AfterAdvisoryLookup stores the outcome of an advisory lookup.
func (c *Collector) AfterAdvisoryLookup(key string, result stats.LookupResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lookups[key] = append(c.lookups[key], result)
}

// AfterScan stores the scan summary.
func (c *Collector) AfterScan(_ time.Duration, scanstats *stats.ScanStats) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scanStats = scanstats
}

// ParseResult returns the result metric for a given path, if found.
// Otherwise, returns an empty string.
func (c *Collector) ParseResult(path string) stats.ParseResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	if parsestats, ok := c.parseStats[path]; ok {
		return parsestats.Result
	}
	return ""
}

// SourceQueries returns the number of queries recorded for a source.
func (c *Collector) SourceQueries(source string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sourceQueries[source])
}

// Lookups returns every lookup outcome recorded for a key, in call order.
func (c *Collector) Lookups(key string) []stats.LookupResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]stats.LookupResult(nil), c.lookups[key]...)
}

// ScanStats returns the stats recorded by AfterScan, or nil if the scan did not finish.
func (c *Collector) ScanStats() *stats.ScanStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.scanStats
}
