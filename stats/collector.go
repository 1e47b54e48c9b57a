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

// Package stats contains interfaces and utilities relating to the collection of
// statistics from a dependency scan.
package stats

import "time"

// Collector is a component which is notified when certain events occur. It can be implemented with
// different metric backends to enable monitoring of scans. Implementations must be safe for
// concurrent use since parsing and lookups run on worker pools.
type Collector interface {
	// AfterLockfileParsed is called once per discovered lockfile, after its parser returned.
	AfterLockfileParsed(parserName string, parsestats *ParseStats)

	// AfterSourceQueried is called after every upstream query, including retries.
	AfterSourceQueried(source string, querystats *SourceQueryStats)

	// AfterAdvisoryLookup is called once per (ecosystem, package) key and reports
	// where the advisories used for matching came from.
	AfterAdvisoryLookup(key string, result LookupResult)

	AfterScan(runtime time.Duration, scanstats *ScanStats)
}

// NoopCollector implements Collector by doing nothing.
type NoopCollector struct{}

// AfterLockfileParsed implements Collector by doing nothing.
func (c NoopCollector) AfterLockfileParsed(parserName string, parsestats *ParseStats) {}

// AfterSourceQueried implements Collector by doing nothing.
func (c NoopCollector) AfterSourceQueried(source string, querystats *SourceQueryStats) {}

// AfterAdvisoryLookup implements Collector by doing nothing.
func (c NoopCollector) AfterAdvisoryLookup(key string, result LookupResult) {}

// AfterScan implements Collector by doing nothing.
func (c NoopCollector) AfterScan(runtime time.Duration, scanstats *ScanStats) {}
