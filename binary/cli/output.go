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

package cli

import (
	"time"

	depscan "github.com/google/osv-depscan"
	"github.com/google/osv-depscan/advisory"
	"github.com/google/osv-depscan/ecosystem"
)

type jsonResult struct {
	StartTime     time.Time     `json:"start_time"`
	EndTime       time.Time     `json:"end_time"`
	Lockfiles     []string      `json:"lockfiles"`
	Findings      []jsonFinding `json:"findings"`
	ParseErrors   []string      `json:"parse_errors,omitempty"`
	FeedWarnings  []string      `json:"feed_warnings,omitempty"`
	MatchWarnings []string      `json:"match_warnings,omitempty"`
	CacheWarnings []string      `json:"cache_warnings,omitempty"`
}

type jsonFinding struct {
	Package        string              `json:"package"`
	Version        string              `json:"version"`
	Ecosystem      ecosystem.Ecosystem `json:"ecosystem"`
	PURL           string              `json:"purl"`
	SourceFile     string              `json:"source_file"`
	Direct         bool                `json:"direct"`
	Dev            bool                `json:"dev,omitempty"`
	Advisory       advisory.Advisory   `json:"advisory"`
	StaleCacheUsed bool                `json:"stale_cache_used,omitempty"`
}

func toJSON(result *depscan.ScanResult) jsonResult {
	out := jsonResult{
		StartTime:     result.StartTime,
		EndTime:       result.EndTime,
		Lockfiles:     result.Lockfiles,
		Findings:      []jsonFinding{},
		ParseErrors:   errorStrings(result.ParseErrors),
		FeedWarnings:  errorStrings(result.FeedWarnings),
		CacheWarnings: errorStrings(result.CacheWarnings),
	}
	for _, w := range result.MatchWarnings {
		out.MatchWarnings = append(out.MatchWarnings, w.Error())
	}
	for _, f := range result.Findings {
		d := f.Dependency
		out.Findings = append(out.Findings, jsonFinding{
			Package:        d.Name,
			Version:        d.Version,
			Ecosystem:      d.Ecosystem,
			PURL:           f.PURL(),
			SourceFile:     d.SourceFile,
			Direct:         d.Direct,
			Dev:            d.Dev,
			Advisory:       f.Advisory,
			StaleCacheUsed: f.StaleCacheUsed,
		})
	}
	return out
}

func errorStrings(errs []error) []string {
	var s []string
	for _, err := range errs {
		s = append(s, err.Error())
	}
	return s
}
