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

// Package constraint evaluates advisory range expressions against concrete
// package versions using each ecosystem's native range grammar.
package constraint

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/osv-depscan/ecosystem"
	"github.com/google/osv-depscan/semantic"
)

// ErrUnparsableRange is returned when a range expression isn't valid under
// the grammar of its ecosystem.
var ErrUnparsableRange = errors.New("unparsable range")

// MatchError describes a range or version that could not be evaluated. A
// MatchError always accompanies a "not affected" result.
type MatchError struct {
	Ecosystem ecosystem.Ecosystem
	Range     string
	Version   string
	Err       error
}

func (e *MatchError) Error() string {
	if e.Version != "" {
		return fmt.Sprintf("%s: matching %q against %q: %v", e.Ecosystem, e.Version, e.Range, e.Err)
	}

	return fmt.Sprintf("%s: range %q: %v", e.Ecosystem, e.Range, e.Err)
}

func (e *MatchError) Unwrap() error {
	return e.Err
}

type operator int

const (
	opEq operator = iota
	opNe
	opLt
	opLe
	opGt
	opGe
	// opArbitrary is the PyPI "===" string equality operator.
	opArbitrary
)

func (op operator) String() string {
	switch op {
	case opEq:
		return "=="
	case opNe:
		return "!="
	case opLt:
		return "<"
	case opLe:
		return "<="
	case opGt:
		return ">"
	case opGe:
		return ">="
	case opArbitrary:
		return "==="
	}

	return "?"
}

func (op operator) holds(cmp int) bool {
	switch op {
	case opEq:
		return cmp == 0
	case opNe:
		return cmp != 0
	case opLt:
		return cmp < 0
	case opLe:
		return cmp <= 0
	case opGt:
		return cmp > 0
	case opGe:
		return cmp >= 0
	case opArbitrary:
	}

	return false
}

// comparator is a single primitive test such as ">=1.2.3".
type comparator struct {
	op      operator
	operand semantic.Version

	// wildcard is set for PyPI "==1.2.*" style prefix matches.
	wildcard bool
	// raw holds the operand text for "===".
	raw string
}

func (c comparator) String() string {
	if c.operand == nil {
		return c.op.String() + c.raw
	}

	s := c.op.String() + c.operand.String()
	if c.wildcard {
		s += ".*"
	}

	return s
}

// comparatorSet is a conjunction of comparators.
type comparatorSet []comparator

// Constraint is a parsed range expression: a disjunction of comparator sets.
type Constraint struct {
	eco  ecosystem.Ecosystem
	raw  string
	sets []comparatorSet
}

// Parse parses expr using the range grammar of eco.
func Parse(eco ecosystem.Ecosystem, expr string) (*Constraint, error) {
	var (
		sets []comparatorSet
		err  error
	)

	switch eco {
	case ecosystem.Npm:
		sets, err = parseNpm(expr)
	case ecosystem.Cargo:
		sets, err = parseCargo(expr)
	case ecosystem.PyPI:
		sets, err = parsePyPI(expr)
	case ecosystem.Go:
		sets, err = parseGo(expr)
	default:
		err = fmt.Errorf("%w %s", semantic.ErrUnsupportedEcosystem, eco)
	}

	if err != nil {
		if !errors.Is(err, semantic.ErrUnsupportedEcosystem) {
			err = fmt.Errorf("%w: %w", ErrUnparsableRange, err)
		}

		return nil, &MatchError{Ecosystem: eco, Range: expr, Err: err}
	}

	return &Constraint{eco: eco, raw: expr, sets: sets}, nil
}

// MustParse is like Parse but panics if the expression can't be parsed.
func MustParse(eco ecosystem.Ecosystem, expr string) *Constraint {
	c, err := Parse(eco, expr)

	if err != nil {
		panic(err)
	}

	return c
}

// String returns the expression as it was written.
func (c *Constraint) String() string {
	return c.raw
}

// Canonical renders the desugared comparator sets, mostly for debugging.
func (c *Constraint) Canonical() string {
	sets := make([]string, 0, len(c.sets))

	for _, set := range c.sets {
		cmps := make([]string, 0, len(set))
		for _, cmp := range set {
			cmps = append(cmps, cmp.String())
		}
		sets = append(sets, strings.Join(cmps, " "))
	}

	return strings.Join(sets, " || ")
}

// Matches parses version under the constraint's ecosystem and reports
// whether it satisfies the constraint.
func (c *Constraint) Matches(version string) (bool, error) {
	v, err := parseCandidate(c.eco, version)

	if err != nil {
		return false, &MatchError{Ecosystem: c.eco, Range: c.raw, Version: version, Err: err}
	}

	return c.MatchesVersion(v), nil
}

// MatchesVersion reports whether v satisfies the constraint. v must have
// been parsed for the constraint's ecosystem.
func (c *Constraint) MatchesVersion(v semantic.Version) bool {
	for _, set := range c.sets {
		if c.setAllows(set, v) {
			return true
		}
	}

	return false
}

func (c *Constraint) setAllows(set comparatorSet, v semantic.Version) bool {
	for _, cmp := range set {
		if !c.allows(cmp, v) {
			return false
		}
	}

	if v.IsPrerelease() && !c.prereleaseAllowed(set, v) {
		return false
	}

	return true
}

func (c *Constraint) allows(cmp comparator, v semantic.Version) bool {
	if c.eco == ecosystem.PyPI {
		return allowsPyPI(cmp, v)
	}

	diff, err := semantic.Compare(v, cmp.operand)

	if err != nil {
		return false
	}

	return cmp.op.holds(diff)
}

// prereleaseAllowed reports whether a pre-release candidate may be
// considered by the set at all.
func (c *Constraint) prereleaseAllowed(set comparatorSet, v semantic.Version) bool {
	switch c.eco {
	case ecosystem.Npm, ecosystem.Cargo:
		sv, ok := v.(semantic.SemverVersion)
		if !ok {
			return false
		}
		for _, cmp := range set {
			operand, ok := cmp.operand.(semantic.SemverVersion)
			if ok && operand.IsPrerelease() && operand.SameCore(sv) {
				return true
			}
		}

		return false
	case ecosystem.PyPI:
		for _, cmp := range set {
			if cmp.operand != nil && cmp.operand.IsPrerelease() {
				return true
			}
		}

		return false
	case ecosystem.Go:
		// Go advisories routinely name pseudo-versions, which are pre-releases.
		return true
	case ecosystem.Unknown:
	}

	return false
}

func parseCandidate(eco ecosystem.Ecosystem, version string) (semantic.Version, error) {
	if eco == ecosystem.Go {
		return parseGoVersion(version)
	}

	v, err := semantic.Parse(version, eco)

	if err != nil {
		return nil, err
	}

	if pv, ok := v.(semantic.PyPIVersion); ok && pv.IsLegacy() {
		return nil, fmt.Errorf("%w: %q is not a PEP 440 version", semantic.ErrInvalidVersion, version)
	}

	return v, nil
}

// Matches reports whether version falls within the range expression expr,
// evaluated with the native grammar of eco. It fails closed: whenever the
// range or the version can't be parsed the result is false together with a
// *MatchError describing why.
func Matches(eco ecosystem.Ecosystem, version, expr string) (bool, error) {
	c, err := Parse(eco, expr)

	if err != nil {
		return false, err
	}

	return c.Matches(version)
}
