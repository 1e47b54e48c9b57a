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
	"strings"
)

// parseCargo parses a Cargo version requirement: comma separated
// comparators where a bare version is a caret requirement. Alternatives may
// be joined with "||", which Cargo itself doesn't support but advisory
// databases use to list disjoint ranges.
func parseCargo(expr string) ([]comparatorSet, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, errors.New("empty range")
	}

	var sets []comparatorSet

	for _, alt := range strings.Split(expr, "||") {
		var bounds []bound

		for _, req := range strings.Split(alt, ",") {
			b, err := cargoComparator(strings.Join(strings.Fields(req), ""))

			if err != nil {
				return nil, err
			}

			bounds = append(bounds, b...)
		}

		set, err := boundsToComparators(bounds)

		if err != nil {
			return nil, err
		}

		sets = append(sets, set)
	}

	return sets, nil
}

func cargoComparator(token string) ([]bound, error) {
	if token == "" {
		return nil, errors.New("empty comparator")
	}

	var op string

	for _, candidate := range []string{"<=", ">=", "<", ">", "=", "^", "~"} {
		if strings.HasPrefix(token, candidate) {
			op = candidate
			break
		}
	}

	p, err := parsePartial(strings.TrimPrefix(token, op))
	if err != nil {
		return nil, err
	}

	if p.wildcard {
		if op != "" {
			return nil, fmt.Errorf("unexpected wildcard in %q", token)
		}

		return xRange(p), nil
	}

	switch op {
	case "", "^":
		return caret(p), nil
	case "~":
		return tilde(p), nil
	case "=":
		return xRange(p), nil
	case "<":
		return primitive(opLt, p), nil
	case "<=":
		return primitive(opLe, p), nil
	case ">":
		return primitive(opGt, p), nil
	case ">=":
		return primitive(opGe, p), nil
	}

	return nil, fmt.Errorf("unknown operator in %q", token)
}
