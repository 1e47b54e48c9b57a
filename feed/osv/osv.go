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

// Package osv normalizes OSV vulnerability records into advisories.
package osv

import (
	"slices"

	osvpb "github.com/ossf/osv-schema/bindings/go/osvschema"
	"google.golang.org/protobuf/encoding/protojson"

	"github.com/google/osv-depscan/advisory"
	"github.com/google/osv-depscan/constraint"
	"github.com/google/osv-depscan/ecosystem"
	"github.com/google/osv-depscan/semantic"
)

var unmarshalOptions = protojson.UnmarshalOptions{DiscardUnknown: true}

// Decode parses a single OSV record in its JSON form.
func Decode(data []byte) (*osvpb.Vulnerability, error) {
	vuln := &osvpb.Vulnerability{}
	if err := unmarshalOptions.Unmarshal(data, vuln); err != nil {
		return nil, err
	}
	return vuln, nil
}

// affectedEntries returns the affected entries of the record that are about
// the given package.
func affectedEntries(v *osvpb.Vulnerability, eco ecosystem.Ecosystem, name string) []*osvpb.Affected {
	want := eco.NormalizeName(name)

	var entries []*osvpb.Affected
	for _, a := range v.GetAffected() {
		got, err := ecosystem.Parse(a.GetPackage().GetEcosystem())
		if err != nil || got != eco {
			continue
		}
		if eco.NormalizeName(a.GetPackage().GetName()) != want {
			continue
		}
		entries = append(entries, a)
	}

	return entries
}

// Affects reports whether the record has an affected entry for the package.
func Affects(v *osvpb.Vulnerability, eco ecosystem.Ecosystem, name string) bool {
	return len(affectedEntries(v, eco, name)) > 0
}

// ToAdvisory converts the parts of the record about the given package into an
// advisory. It returns false for withdrawn records and records that do not
// mention the package.
func ToAdvisory(v *osvpb.Vulnerability, eco ecosystem.Ecosystem, name, source string) (advisory.Advisory, bool) {
	if v.GetWithdrawn() != nil {
		return advisory.Advisory{}, false
	}

	entries := affectedEntries(v, eco, name)
	if len(entries) == 0 {
		return advisory.Advisory{}, false
	}

	adv := advisory.Advisory{
		ID:        v.GetId(),
		Ecosystem: eco,
		Package:   eco.NormalizeName(name),
		Severity:  severityOf(v, entries),
		Summary:   v.GetSummary(),
		Aliases:   slices.Clone(v.GetAliases()),
		Source:    source,
	}
	if ts := v.GetPublished(); ts != nil {
		adv.Published = ts.AsTime()
	}
	if ts := v.GetModified(); ts != nil {
		adv.Modified = ts.AsTime()
	}

	for _, a := range entries {
		ranges, fixed := rangesOf(eco, a)
		adv.Ranges = append(adv.Ranges, ranges...)
		adv.Fixed = append(adv.Fixed, fixed...)
	}

	adv.Ranges = dedup(adv.Ranges)
	adv.Fixed = dedup(adv.Fixed)

	return adv, true
}

// ToAdvisories converts every record that applies to the package.
func ToAdvisories(vulns []*osvpb.Vulnerability, eco ecosystem.Ecosystem, name, source string) []advisory.Advisory {
	var advisories []advisory.Advisory
	for _, v := range vulns {
		if adv, ok := ToAdvisory(v, eco, name, source); ok {
			advisories = append(advisories, adv)
		}
	}
	return advisories
}

// rangesOf renders the ECOSYSTEM and SEMVER ranges of an affected entry as
// range expressions. The explicit versions list is only used when the entry
// has no usable range, since it duplicates the ranges and is often long.
func rangesOf(eco ecosystem.Ecosystem, a *osvpb.Affected) (ranges, fixed []string) {
	for _, r := range a.GetRanges() {
		if r.GetType() != osvpb.Range_ECOSYSTEM && r.GetType() != osvpb.Range_SEMVER {
			continue
		}

		events := sortedEvents(eco, r.GetEvents())

		introduced, open := "", false
		closeAt := func(upper string, inclusive bool) {
			if open {
				ranges = append(ranges, constraint.Interval(eco, introduced, upper, inclusive))
				open = false
			}
		}

		for _, e := range events {
			switch {
			case e.GetIntroduced() != "":
				if !open {
					introduced, open = e.GetIntroduced(), true
				}
			case e.GetFixed() != "":
				fixed = append(fixed, e.GetFixed())
				closeAt(e.GetFixed(), false)
			case e.GetLastAffected() != "":
				closeAt(e.GetLastAffected(), true)
			case e.GetLimit() != "":
				closeAt(e.GetLimit(), false)
			}
		}

		if open {
			ranges = append(ranges, constraint.Interval(eco, introduced, "", false))
		}
	}

	if len(ranges) == 0 {
		for _, v := range a.GetVersions() {
			ranges = append(ranges, constraint.Exact(eco, v))
		}
	}

	return ranges, fixed
}

func eventVersion(e *osvpb.Event) string {
	switch {
	case e.GetIntroduced() != "":
		return e.GetIntroduced()
	case e.GetFixed() != "":
		return e.GetFixed()
	case e.GetLastAffected() != "":
		return e.GetLastAffected()
	default:
		return e.GetLimit()
	}
}

// sortedEvents orders events by version, with "0" first. Events are left in
// their declared order when any version can't be parsed.
func sortedEvents(eco ecosystem.Ecosystem, events []*osvpb.Event) []*osvpb.Event {
	parsed := make(map[*osvpb.Event]semantic.Version, len(events))
	for _, e := range events {
		str := eventVersion(e)
		if str == "0" {
			continue
		}
		v, err := semantic.Parse(str, eco)
		if err != nil {
			return events
		}
		parsed[e] = v
	}

	sorted := slices.Clone(events)
	slices.SortStableFunc(sorted, func(a, b *osvpb.Event) int {
		va, aok := parsed[a]
		vb, bok := parsed[b]
		switch {
		case !aok && !bok:
			return 0
		case !aok:
			return -1
		case !bok:
			return 1
		}
		c, err := semantic.Compare(va, vb)
		if err != nil {
			return 0
		}
		return c
	})

	return sorted
}

func dedup(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := values[:0]
	for _, v := range values {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
