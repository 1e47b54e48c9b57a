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

	"github.com/google/osv-depscan/ecosystem"
	"github.com/google/osv-depscan/semantic"
)

var goOperatorSpacing = regexp.MustCompile(`(<=|>=|==|!=|<|>|=)\s+`)

// parseGo parses comparator lists over Go module versions. Comparators are
// separated by whitespace or commas and alternatives by "||"; a bare
// version means exactly that version.
func parseGo(expr string) ([]comparatorSet, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, errors.New("empty range")
	}

	var sets []comparatorSet

	for _, alt := range strings.Split(expr, "||") {
		alt = goOperatorSpacing.ReplaceAllString(strings.ReplaceAll(alt, ",", " "), "$1")
		tokens := strings.Fields(alt)

		if len(tokens) == 0 {
			return nil, errors.New("empty alternative")
		}

		var set comparatorSet

		for _, token := range tokens {
			cmp, err := goComparator(token)

			if err != nil {
				return nil, err
			}

			set = append(set, cmp)
		}

		sets = append(sets, set)
	}

	return sets, nil
}

func goComparator(token string) (comparator, error) {
	if token == "*" {
		return comparator{op: opGe, operand: semantic.MustParse("0.0.0", ecosystem.Go)}, nil
	}

	ops := []struct {
		prefix string
		op     operator
	}{
		{"<=", opLe},
		{">=", opGe},
		{"==", opEq},
		{"!=", opNe},
		{"<", opLt},
		{">", opGt},
		{"=", opEq},
	}

	op := opEq
	for _, candidate := range ops {
		if rest, ok := strings.CutPrefix(token, candidate.prefix); ok {
			op = candidate.op
			token = rest

			break
		}
	}

	v, err := parseGoVersion(token)
	if err != nil {
		return comparator{}, fmt.Errorf("invalid version %q", token)
	}

	return comparator{op: op, operand: v}, nil
}

func parseGoVersion(str string) (semantic.Version, error) {
	return semantic.ParseGo(str)
}
