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

package semantic

import (
	"math/big"
)

// Compare compares two versions parsed for the same ecosystem, returning -1,
// 0 or +1 depending on whether a is less than, equal to or greater than b.
func Compare(a, b Version) (int, error) {
	switch av := a.(type) {
	case SemverVersion:
		if bv, ok := b.(SemverVersion); ok {
			return av.Compare(bv), nil
		}
	case PyPIVersion:
		if bv, ok := b.(PyPIVersion); ok {
			return av.Compare(bv), nil
		}
	}

	return a.CompareStr(b.String())
}

// Version provides an interface for sortable version strings.
type Version interface {
	// CompareStr returns an integer representing the sort order of the given string
	// when parsed as the concrete Version relative to the subject Version.
	//
	// The result will be 0 if v == w, -1 if v < w, or +1 if v > w.
	//
	// An error is returned if the given string is not a valid Version, with "valid"
	// being dependent on the underlying ecosystem of the concrete Version.
	CompareStr(str string) (int, error)
	// IsPrerelease reports whether the version is a pre-release under the
	// ecosystem's rules.
	IsPrerelease() bool
	// String returns the version as it was originally written.
	String() string
}

type components []*big.Int

func (components *components) Fetch(n int) *big.Int {
	if len(*components) <= n {
		return big.NewInt(0)
	}

	return (*components)[n]
}

func (components *components) Cmp(b components) int {
	numberOfComponents := max(len(*components), len(b))

	for i := range numberOfComponents {
		diff := components.Fetch(i).Cmp(b.Fetch(i))

		if diff != 0 {
			return diff
		}
	}

	return 0
}
