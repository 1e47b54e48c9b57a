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

package constraint

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/google/osv-depscan/semantic"
)

var partialFinder = regexp.MustCompile(`^(\d+|[xX*])(?:\.(\d+|[xX*]))?(?:\.(\d+|[xX*]))?(?:-([0-9A-Za-z.-]+))?(?:\+([0-9A-Za-z.-]+))?$`)

// partial is a possibly incomplete semantic version as written in a range,
// such as "1", "1.2.x" or "1.2.3-beta.1".
type partial struct {
	major, minor, patch uint64
	// n is the number of leading numeric components given; anything after
	// the first wildcard is ignored.
	n   int
	pre string
	// wildcard is set when a component was written as "x", "X" or "*".
	wildcard bool
}

func parsePartial(str string) (partial, error) {
	match := partialFinder.FindStringSubmatch(str)

	if match == nil {
		return partial{}, fmt.Errorf("invalid version %q", str)
	}

	var p partial
	nums := []*uint64{&p.major, &p.minor, &p.patch}

	for i, s := range match[1:4] {
		if s == "" {
			break
		}
		if s == "x" || s == "X" || s == "*" {
			p.wildcard = true
			break
		}

		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return partial{}, fmt.Errorf("invalid version %q: %w", str, err)
		}

		*nums[i] = n
		p.n++
	}

	if match[4] != "" {
		if p.n != 3 {
			return partial{}, fmt.Errorf("invalid version %q: pre-release on a partial version", str)
		}

		p.pre = match[4]
	}

	return p, nil
}

// bound is an endpoint produced by desugaring shorthand comparators.
type bound struct {
	op      operator
	version string
}

func (p partial) full() string {
	s := fmt.Sprintf("%d.%d.%d", p.major, p.minor, p.patch)
	if p.pre != "" {
		s += "-" + p.pre
	}

	return s
}

func (p partial) nextMajor() string {
	return fmt.Sprintf("%d.0.0", p.major+1)
}

func (p partial) nextMinor() string {
	return fmt.Sprintf("%d.%d.0", p.major, p.minor+1)
}

func (p partial) nextPatch() string {
	return fmt.Sprintf("%d.%d.%d", p.major, p.minor, p.patch+1)
}

var (
	anyVersion = []bound{{opGe, "0.0.0"}}
	noVersion  = []bound{{opLt, "0.0.0"}}
)

// xRange expands "1", "1.2" and "1.2.x" into the versions they cover.
func xRange(p partial) []bound {
	switch p.n {
	case 0:
		return anyVersion
	case 1:
		return []bound{{opGe, p.full()}, {opLt, p.nextMajor()}}
	case 2:
		return []bound{{opGe, p.full()}, {opLt, p.nextMinor()}}
	}

	return []bound{{opEq, p.full()}}
}

// tilde allows patch-level changes, or minor-level ones when only a major
// version is given.
func tilde(p partial) []bound {
	switch p.n {
	case 0:
		return anyVersion
	case 1:
		return []bound{{opGe, p.full()}, {opLt, p.nextMajor()}}
	}

	return []bound{{opGe, p.full()}, {opLt, p.nextMinor()}}
}

// caret allows changes that don't modify the left-most non-zero component.
func caret(p partial) []bound {
	switch {
	case p.n == 0:
		return anyVersion
	case p.n == 1 || p.major > 0:
		return []bound{{opGe, p.full()}, {opLt, p.nextMajor()}}
	case p.n == 2 || p.minor > 0:
		return []bound{{opGe, p.full()}, {opLt, p.nextMinor()}}
	}

	return []bound{{opGe, p.full()}, {opLt, p.nextPatch()}}
}

// primitive expands a plain comparison against a possibly partial version.
func primitive(op operator, p partial) []bound {
	if p.n == 3 {
		return []bound{{op, p.full()}}
	}

	switch op {
	case opGt:
		switch p.n {
		case 0:
			return noVersion
		case 1:
			return []bound{{opGe, p.nextMajor()}}
		}

		return []bound{{opGe, p.nextMinor()}}
	case opGe:
		if p.n == 0 {
			return anyVersion
		}

		return []bound{{opGe, p.full()}}
	case opLt:
		if p.n == 0 {
			return noVersion
		}

		return []bound{{opLt, p.full()}}
	case opLe:
		switch p.n {
		case 0:
			return anyVersion
		case 1:
			return []bound{{opLt, p.nextMajor()}}
		}

		return []bound{{opLt, p.nextMinor()}}
	case opEq:
		return xRange(p)
	case opNe, opArbitrary:
	}

	return nil
}

func boundsToComparators(bounds []bound) (comparatorSet, error) {
	set := make(comparatorSet, 0, len(bounds))

	for _, b := range bounds {
		v, err := semantic.ParseSemver(b.version)

		if err != nil {
			return nil, err
		}

		set = append(set, comparator{op: b.op, operand: v})
	}

	return set, nil
}
