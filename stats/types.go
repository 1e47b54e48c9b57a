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

package stats

import "time"

// ParseStats is a struct containing stats about a single lockfile parse.
type ParseStats struct {
	Path    string
	Runtime time.Duration

	Dependencies int
	Skipped      int
	Result       ParseResult
}

// ParseResult is a string representation of the outcome of parsing a lockfile.
type ParseResult string

const (
	// ParseResultOK indicates that every entry of the lockfile was parsed.
	ParseResultOK ParseResult = "PARSE_RESULT_OK"

	// ParseResultPartial indicates that some entries were skipped.
	ParseResultPartial ParseResult = "PARSE_RESULT_PARTIAL"

	// ParseResultMalformed indicates that the lockfile root could not be parsed.
	ParseResultMalformed ParseResult = "PARSE_RESULT_MALFORMED"

	// ParseResultUnreadable indicates that the lockfile could not be read.
	ParseResultUnreadable ParseResult = "PARSE_RESULT_UNREADABLE"
)

// SourceQueryStats is a struct containing stats about one upstream query attempt.
type SourceQueryStats struct {
	Key     string
	Runtime time.Duration
	Attempt int

	Advisories int
	Error      error
}

// LookupResult is a string representation of where the advisories for a key came from.
type LookupResult string

const (
	// LookupResultFresh indicates a cache hit within the TTL.
	LookupResultFresh LookupResult = "LOOKUP_RESULT_FRESH"

	// LookupResultFetched indicates that the feed was queried and the cache updated.
	LookupResultFetched LookupResult = "LOOKUP_RESULT_FETCHED"

	// LookupResultStale indicates that an expired entry was used because the feed
	// could not be reached.
	LookupResultStale LookupResult = "LOOKUP_RESULT_STALE"

	// LookupResultMiss indicates that neither the cache nor the feed had data.
	LookupResultMiss LookupResult = "LOOKUP_RESULT_MISS"
)

// ScanStats is a struct containing stats about a completed scan.
type ScanStats struct {
	Lockfiles    int
	Dependencies int
	Findings     int
}
