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
	"fmt"
	"math/big"
	"strings"
)

// Removes build metadata from the given string if present, per semver v2
//
// See https://semver.org/spec/v2.0.0.html#spec-item-10
func removeBuildMetadata(str string) string {
	parts := strings.Split(str, "+")

	return parts[0]
}

func compareBuildComponents(a, b string) int {
	// https://semver.org/spec/v2.0.0.html#spec-item-10
	a = removeBuildMetadata(a)
	b = removeBuildMetadata(b)

	// the spec doesn't explicitly say "don't include the hyphen in the compare"
	// but it's what node-semver does so for now let's go with that...
	a = strings.TrimPrefix(a, "-")
	b = strings.TrimPrefix(b, "-")

	// versions with a prerelease are considered less than those without
	// https://semver.org/spec/v2.0.0.html#spec-item-9
	if a == "" && b != "" {
		return +1
	}
	if a != "" && b == "" {
		return -1
	}

	return compareSemverBuildComponents(
		strings.Split(a, "."),
		strings.Split(b, "."),
	)
}

func compareSemverBuildComponents(a, b []string) int {
	minComponentLength := min(len(a), len(b))

	var compare int

	for i := range minComponentLength {
		ai, aErr := convertToBigInt(a[i])
		bi, bErr := convertToBigInt(b[i])

		switch {
		// 1. Identifiers consisting of only digits are compared numerically.
		case aErr == nil && bErr == nil:
			compare = ai.Cmp(bi)
		// 2. Identifiers with letters or hyphens are compared lexically in ASCII sort order.
		case aErr != nil && bErr != nil:
			compare = strings.Compare(a[i], b[i])
		// 3. Numeric identifiers always have lower precedence than non-numeric identifiers.
		case aErr == nil:
			compare = -1
		default:
			compare = +1
		}

		if compare != 0 {
			if compare > 0 {
				return 1
			}

			return -1
		}
	}

	// 4. A larger set of pre-release fields has a higher precedence than a smaller set,
	//    if all the preceding identifiers are equal.
	if len(a) > len(b) {
		return +1
	}
	if len(a) < len(b) {
		return -1
	}

	return 0
}

// SemverVersion is a version following the Semantic Versioning 2.0.0 rules,
// tolerating a leading "v" and missing minor or patch components.
type SemverVersion struct {
	components components
	// build holds everything after the numeric core, including the leading
	// hyphen of a pre-release.
	build    string
	original string
}

// semverCoreSize is the number of numeric components compared as the core.
const semverCoreSize = 3

// splitSemver splits str into its numeric core and the rest of the version.
// Numeric components past the patch number are appended to the rest, so
// "1.2.3.4-rc" has the core 1.2.3 and the rest "-rc.4".
func splitSemver(str string) (components, string) {
	str = strings.TrimPrefix(str, "v")

	end := strings.IndexFunc(str, func(r rune) bool {
		return r != '.' && !isASCIIDigit(r)
	})
	if end == -1 {
		end = len(str)
	}
	core, rest := str[:end], str[end:]

	var comps components
	for part := range strings.SplitSeq(core, ".") {
		if part == "" {
			continue
		}
		n, _ := new(big.Int).SetString(part, 10)
		comps = append(comps, n)
	}

	if len(comps) > semverCoreSize {
		for _, extra := range comps[semverCoreSize:] {
			rest += "." + extra.String()
		}
		comps = comps[:semverCoreSize]
	}

	return comps, rest
}

// ParseSemver parses str as a semantic version. An error is returned if str
// has no numeric components at all.
func ParseSemver(str string) (SemverVersion, error) {
	comps, build := splitSemver(str)

	if len(comps) == 0 {
		return SemverVersion{}, fmt.Errorf("%w: %q is not a semantic version", ErrInvalidVersion, str)
	}

	return SemverVersion{components: comps, build: build, original: str}, nil
}

// Compare returns -1, 0 or +1 depending on whether v is less than, equal to
// or greater than w.
func (v SemverVersion) Compare(w SemverVersion) int {
	if diff := v.components.Cmp(w.components); diff != 0 {
		return diff
	}

	return compareBuildComponents(v.build, w.build)
}

// CompareStr implements Version.
func (v SemverVersion) CompareStr(str string) (int, error) {
	w, err := ParseSemver(str)

	if err != nil {
		return 0, err
	}

	return v.Compare(w), nil
}

// Prerelease returns the pre-release identifiers without the leading hyphen
// and without any build metadata.
func (v SemverVersion) Prerelease() string {
	pre := strings.TrimPrefix(removeBuildMetadata(v.build), "-")

	// components past the patch number are folded into the build string by the
	// parser and aren't a pre-release marker
	if strings.HasPrefix(pre, ".") {
		return ""
	}

	return pre
}

// IsPrerelease implements Version.
func (v SemverVersion) IsPrerelease() bool {
	return v.Prerelease() != ""
}

// SameCore reports whether v and w share the same major.minor.patch tuple.
func (v SemverVersion) SameCore(w SemverVersion) bool {
	return v.components.Cmp(w.components) == 0
}

func (v SemverVersion) String() string {
	return v.original
}
