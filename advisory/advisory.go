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

// Package advisory defines the normalized vulnerability record shared by the
// feed client, the cache and the matcher.
package advisory

import (
	"cmp"
	"slices"
	"time"

	"github.com/google/osv-depscan/ecosystem"
)

// Advisory is a vulnerability record affecting one package in one
// ecosystem. Advisories are read-only once built.
type Advisory struct {
	ID        string              `json:"id"`
	Ecosystem ecosystem.Ecosystem `json:"ecosystem"`
	Package   string              `json:"package"`
	// Ranges are range expressions in the grammar of Ecosystem. A version is
	// affected if any of them matches.
	Ranges    []string  `json:"ranges"`
	Severity  Severity  `json:"severity"`
	Summary   string    `json:"summary,omitempty"`
	Aliases   []string  `json:"aliases,omitempty"`
	Fixed     []string  `json:"fixed,omitempty"`
	Source    string    `json:"source"`
	Published time.Time `json:"published"`
	Modified  time.Time `json:"modified"`
}

// Key identifies the package an advisory applies to.
type Key struct {
	Ecosystem ecosystem.Ecosystem
	Package   string
}

// NewKey returns the key for a package, normalizing its name.
func NewKey(eco ecosystem.Ecosystem, name string) Key {
	return Key{Ecosystem: eco, Package: eco.NormalizeName(name)}
}

func (k Key) String() string {
	return k.Ecosystem.String() + "/" + k.Package
}

// Key returns the package the advisory applies to.
func (a Advisory) Key() Key {
	return NewKey(a.Ecosystem, a.Package)
}

// Merge de-duplicates advisories by ID. On a collision the record with the
// higher severity is kept, and the earlier one when they are equal. The
// result is sorted by ID.
func Merge(lists ...[]Advisory) []Advisory {
	byID := map[string]Advisory{}

	for _, list := range lists {
		for _, a := range list {
			existing, ok := byID[a.ID]
			if !ok || a.Severity > existing.Severity {
				byID[a.ID] = a
			}
		}
	}

	merged := make([]Advisory, 0, len(byID))
	for _, a := range byID {
		merged = append(merged, a)
	}

	Sort(merged)

	return merged
}

// Sort orders advisories by ID.
func Sort(advisories []Advisory) {
	slices.SortFunc(advisories, func(a, b Advisory) int {
		return cmp.Compare(a.ID, b.ID)
	})
}
