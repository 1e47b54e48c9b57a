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
)

var npmOperatorSpacing = regexp.MustCompile(`(<=|>=|<|>|=|\^|~>?)\s+`)

// parseNpm parses a node-semver range: comparator sets separated by "||",
// each a whitespace separated conjunction that may use hyphen ranges, caret
// and tilde shorthands, and x-ranges.
func parseNpm(expr string) ([]comparatorSet, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, errors.New("empty range")
	}

	var sets []comparatorSet

	for _, alt := range strings.Split(expr, "||") {
		set, err := parseNpmSet(alt)

		if err != nil {
			return nil, err
		}

		sets = append(sets, set)
	}

	return sets, nil
}

func parseNpmSet(str string) (comparatorSet, error) {
	tokens := strings.Fields(npmOperatorSpacing.ReplaceAllString(strings.TrimSpace(str), "$1"))

	// an empty alternative matches everything, like "*"
	if len(tokens) == 0 {
		return boundsToComparators(anyVersion)
	}

	var bounds []bound

	for i := 0; i < len(tokens); i++ {
		if i+2 < len(tokens) && tokens[i+1] == "-" {
			b, err := npmHyphen(tokens[i], tokens[i+2])
			if err != nil {
				return nil, err
			}

			bounds = append(bounds, b...)
			i += 2

			continue
		}

		b, err := npmComparator(tokens[i])
		if err != nil {
			return nil, err
		}

		bounds = append(bounds, b...)
	}

	return boundsToComparators(bounds)
}

func trimNpmVersion(str string) string {
	str = strings.TrimPrefix(str, "=")
	str = strings.TrimPrefix(str, "v")

	return strings.TrimPrefix(str, "V")
}

func npmComparator(token string) ([]bound, error) {
	var op string

	for _, candidate := range []string{"<=", ">=", "~>", "<", ">", "=", "^", "~"} {
		if strings.HasPrefix(token, candidate) {
			op = candidate
			break
		}
	}

	p, err := parsePartial(trimNpmVersion(strings.TrimPrefix(token, op)))
	if err != nil {
		return nil, err
	}

	switch op {
	case "", "=":
		return xRange(p), nil
	case "^":
		return caret(p), nil
	case "~", "~>":
		return tilde(p), nil
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

// npmHyphen expands "A - B" into an inclusive range, where a partial upper
// version covers everything it names.
func npmHyphen(lower, upper string) ([]bound, error) {
	lo, err := parsePartial(trimNpmVersion(lower))
	if err != nil {
		return nil, err
	}

	hi, err := parsePartial(trimNpmVersion(upper))
	if err != nil {
		return nil, err
	}

	var bounds []bound

	if lo.n > 0 {
		bounds = append(bounds, bound{opGe, lo.full()})
	}

	switch hi.n {
	case 0:
	case 1:
		bounds = append(bounds, bound{opLt, hi.nextMajor()})
	case 2:
		bounds = append(bounds, bound{opLt, hi.nextMinor()})
	default:
		bounds = append(bounds, bound{opLe, hi.full()})
	}

	if len(bounds) == 0 {
		return anyVersion, nil
	}

	return bounds, nil
}
