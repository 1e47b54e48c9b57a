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
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/osv-depscan/semantic"
)

var pypiSpecifierFinder = regexp.MustCompile(`^(~=|===|==|!=|<=|>=|<|>)\s*(\S+)$`)

// parsePyPI parses PEP 440 version specifiers separated by commas.
// Alternatives may be joined with "||".
func parsePyPI(expr string) ([]comparatorSet, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, errors.New("empty range")
	}

	var sets []comparatorSet

	for _, alt := range strings.Split(expr, "||") {
		var set comparatorSet

		for _, spec := range strings.Split(alt, ",") {
			cmps, err := pypiSpecifier(strings.TrimSpace(spec))

			if err != nil {
				return nil, err
			}

			set = append(set, cmps...)
		}

		sets = append(sets, set)
	}

	return sets, nil
}

func pypiSpecifier(spec string) ([]comparator, error) {
	match := pypiSpecifierFinder.FindStringSubmatch(spec)

	if match == nil {
		return nil, fmt.Errorf("invalid specifier %q", spec)
	}

	op, version := match[1], match[2]

	if op == "===" {
		return []comparator{{op: opArbitrary, raw: version}}, nil
	}

	if prefix, ok := strings.CutSuffix(version, ".*"); ok {
		if op != "==" && op != "!=" {
			return nil, fmt.Errorf("wildcard not allowed with %q in %q", op, spec)
		}

		v, err := parsePyPIOperand(prefix)
		if err != nil {
			return nil, err
		}
		if v.IsPrerelease() || v.IsPostRelease() || v.HasLocal() {
			return nil, fmt.Errorf("wildcard on a non-release version in %q", spec)
		}

		cmp := comparator{op: opEq, operand: v, wildcard: true}
		if op == "!=" {
			cmp.op = opNe
		}

		return []comparator{cmp}, nil
	}

	v, err := parsePyPIOperand(version)
	if err != nil {
		return nil, err
	}

	if v.HasLocal() && op != "==" && op != "!=" {
		return nil, fmt.Errorf("local version not allowed with %q in %q", op, spec)
	}

	switch op {
	case "~=":
		return pypiCompatible(v, spec)
	case "==":
		return []comparator{{op: opEq, operand: v}}, nil
	case "!=":
		return []comparator{{op: opNe, operand: v}}, nil
	case "<":
		return []comparator{{op: opLt, operand: v}}, nil
	case "<=":
		return []comparator{{op: opLe, operand: v}}, nil
	case ">":
		return []comparator{{op: opGt, operand: v}}, nil
	case ">=":
		return []comparator{{op: opGe, operand: v}}, nil
	}

	return nil, fmt.Errorf("unknown operator in %q", spec)
}

func parsePyPIOperand(str string) (semantic.PyPIVersion, error) {
	v, err := semantic.ParsePyPI(str)

	if err != nil {
		return semantic.PyPIVersion{}, err
	}
	if v.IsLegacy() {
		return semantic.PyPIVersion{}, fmt.Errorf("invalid version %q", str)
	}

	return v, nil
}

// pypiCompatible expands "~=V.N" into ">=V.N, ==V.*".
func pypiCompatible(v semantic.PyPIVersion, spec string) ([]comparator, error) {
	release := v.Release()

	if len(release) < 2 {
		return nil, fmt.Errorf("compatible release needs at least two components in %q", spec)
	}

	parts := make([]string, 0, len(release)-1)
	for _, r := range release[:len(release)-1] {
		parts = append(parts, r.String())
	}

	prefix := strings.Join(parts, ".")
	if epoch := v.Epoch(); epoch.Sign() != 0 {
		prefix = epoch.String() + "!" + prefix
	}

	p, err := parsePyPIOperand(prefix)
	if err != nil {
		return nil, err
	}

	return []comparator{
		{op: opGe, operand: v},
		{op: opEq, operand: p, wildcard: true},
	}, nil
}

func allowsPyPI(cmp comparator, candidate semantic.Version) bool {
	v, ok := candidate.(semantic.PyPIVersion)
	if !ok {
		return false
	}

	if cmp.op == opArbitrary {
		return strings.EqualFold(strings.TrimSpace(v.String()), cmp.raw)
	}

	operand, ok := cmp.operand.(semantic.PyPIVersion)
	if !ok {
		return false
	}

	if cmp.wildcard {
		matched := pypiPrefixMatch(v, operand)
		if cmp.op == opNe {
			return !matched
		}

		return matched
	}

	// local labels on the candidate are ignored unless the specifier has one
	if !operand.HasLocal() {
		v = v.WithoutLocal()
	}

	diff := v.Compare(operand)

	switch cmp.op {
	case opLt:
		if diff < 0 && v.IsPrerelease() && !operand.IsPrerelease() && v.SameRelease(operand) {
			return false
		}
	case opGt:
		if diff > 0 && v.IsPostRelease() && !operand.IsPostRelease() && v.SameRelease(operand) {
			return false
		}
	case opEq, opNe, opLe, opGe, opArbitrary:
	}

	return cmp.op.holds(diff)
}

// pypiPrefixMatch reports whether v's release starts with the release of
// prefix, with shorter releases padded with zeros.
func pypiPrefixMatch(v, prefix semantic.PyPIVersion) bool {
	if v.Epoch().Cmp(prefix.Epoch()) != 0 {
		return false
	}

	release := v.Release()
	for i, want := range prefix.Release() {
		if i >= len(release) {
			if want.Sign() != 0 {
				return false
			}

			continue
		}

		if release[i].Cmp(want) != 0 {
			return false
		}
	}

	return true
}
