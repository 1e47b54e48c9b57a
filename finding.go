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
	"cmp"
	"errors"
	"slices"
	"strings"

	"github.com/gobwas/glob"
	"github.com/package-url/packageurl-go"

	"github.com/google/osv-depscan/advisory"
	"github.com/google/osv-depscan/constraint"
	"github.com/google/osv-depscan/ecosystem"
	"github.com/google/osv-depscan/lockfile"
	"github.com/google/osv-depscan/log"
	"github.com/google/osv-depscan/semantic"
)

// Finding pairs a dependency with an advisory affecting its version.
type Finding struct {
	Dependency lockfile.Dependency
	Advisory   advisory.Advisory
	Matched    bool
	// StaleCacheUsed is set when the advisory came from an expired cache
	// entry because no source could be reached, or when no lookup succeeded.
	StaleCacheUsed bool
}

// PURL returns the package URL of the affected dependency.
func (f *Finding) PURL() string {
	d := f.Dependency
	var namespace, name string
	switch d.Ecosystem {
	case ecosystem.Npm:
		if strings.HasPrefix(d.Name, "@") {
			namespace, name, _ = strings.Cut(d.Name, "/")
		} else {
			name = d.Name
		}
	case ecosystem.Go:
		if i := strings.LastIndex(d.Name, "/"); i >= 0 {
			namespace, name = d.Name[:i], d.Name[i+1:]
		} else {
			name = d.Name
		}
	case ecosystem.PyPI:
		name = d.Ecosystem.NormalizeName(d.Name)
	default:
		name = d.Name
	}
	return packageurl.NewPackageURL(d.Ecosystem.PURLType(), namespace, name, d.Version, nil, "").ToString()
}

// MatchWarning reports an advisory range that could not be evaluated. The
// range is treated as not matching.
type MatchWarning struct {
	AdvisoryID string
	Err        *constraint.MatchError
}

func (w *MatchWarning) Error() string {
	return w.AdvisoryID + ": " + w.Err.Error()
}

func (w *MatchWarning) Unwrap() error {
	return w.Err
}

type warningKey struct {
	id  string
	rng string
}

// warningSet keeps one warning per advisory range.
type warningSet map[warningKey]*MatchWarning

func newWarningSet() warningSet {
	return warningSet{}
}

func (s warningSet) add(ws ...*MatchWarning) {
	for _, w := range ws {
		k := warningKey{id: w.AdvisoryID, rng: w.Err.Range}
		if _, ok := s[k]; !ok {
			s[k] = w
		}
	}
}

func (s warningSet) sorted() []*MatchWarning {
	var ws []*MatchWarning
	for _, w := range s {
		ws = append(ws, w)
	}
	slices.SortFunc(ws, func(a, b *MatchWarning) int {
		return cmp.Or(
			cmp.Compare(a.AdvisoryID, b.AdvisoryID),
			cmp.Compare(a.Err.Range, b.Err.Range),
		)
	})
	return ws
}

// matchGroup matches the advisories of res against deps, which all share one
// package. Each range is parsed once for the whole group.
func matchGroup(deps []lockfile.Dependency, res resolution) ([]*Finding, []*MatchWarning) {
	var (
		findings []*Finding
		warnings []*MatchWarning
	)

	for _, adv := range res.advisories {
		var constraints []*constraint.Constraint
		for _, r := range adv.Ranges {
			c, err := constraint.Parse(adv.Ecosystem, r)
			if err != nil {
				var me *constraint.MatchError
				if !errors.As(err, &me) {
					me = &constraint.MatchError{Ecosystem: adv.Ecosystem, Range: r, Err: err}
				}
				warnings = append(warnings, &MatchWarning{AdvisoryID: adv.ID, Err: me})
				continue
			}
			log.Debugf("%s: range %q evaluated as %s", adv.ID, r, c.Canonical())
			constraints = append(constraints, c)
		}

		for _, d := range deps {
			if !affects(constraints, d) {
				continue
			}
			findings = append(findings, &Finding{
				Dependency:     d,
				Advisory:       adv,
				Matched:        true,
				StaleCacheUsed: res.stale,
			})
		}
	}

	return findings, warnings
}

func affects(constraints []*constraint.Constraint, d lockfile.Dependency) bool {
	v := d.Parsed
	if v == nil {
		parsed, err := semantic.Parse(d.Version, d.Ecosystem)
		if err != nil {
			return false
		}
		v = parsed
	}
	for _, c := range constraints {
		if c.MatchesVersion(v) {
			return true
		}
	}
	return false
}

// ignoreMatcher matches dependency names and lockfile paths against the
// ignore patterns.
type ignoreMatcher struct {
	globs    []glob.Glob
	literals []string
}

func newIgnoreMatcher(patterns []string) *ignoreMatcher {
	m := &ignoreMatcher{}
	for _, p := range patterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			log.Warnf("invalid ignore pattern %q, matching it literally: %v", p, err)
			m.literals = append(m.literals, p)
			continue
		}
		m.globs = append(m.globs, g)
	}
	return m
}

func (m *ignoreMatcher) match(s string) bool {
	if slices.Contains(m.literals, s) {
		return true
	}
	for _, g := range m.globs {
		if g.Match(s) {
			return true
		}
	}
	return false
}

// filterFindings drops the findings excluded by the dev, severity and ignore
// options. It only runs after every finding has been matched.
func filterFindings(findings []*Finding, cfg ScanConfig) []*Finding {
	ignore := newIgnoreMatcher(cfg.IgnorePatterns)

	var kept []*Finding
	for _, f := range findings {
		switch {
		case f.Dependency.Dev && cfg.ExcludeDev:
		case f.Advisory.Severity < cfg.SeverityFloor:
		case ignore.match(f.Dependency.Name), ignore.match(f.Dependency.SourceFile):
		default:
			kept = append(kept, f)
		}
	}
	return kept
}

func sortFindings(findings []*Finding) {
	slices.SortFunc(findings, func(a, b *Finding) int {
		return cmp.Or(
			cmp.Compare(b.Advisory.Severity, a.Advisory.Severity),
			cmp.Compare(a.Dependency.Name, b.Dependency.Name),
			cmp.Compare(a.Advisory.ID, b.Advisory.ID),
			cmp.Compare(a.Dependency.Version, b.Dependency.Version),
			cmp.Compare(a.Dependency.SourceFile, b.Dependency.SourceFile),
			cmp.Compare(a.Dependency.Ecosystem, b.Dependency.Ecosystem),
		)
	})
}
