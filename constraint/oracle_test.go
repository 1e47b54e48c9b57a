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

package constraint_test

import (
	"testing"

	"deps.dev/util/semver"

	"github.com/google/osv-depscan/constraint"
	"github.com/google/osv-depscan/ecosystem"
)

// The deps.dev resolvers implement the same grammars for released
// versions, so they make a useful cross-check.
func checkAgainstDepsDev(t *testing.T, sys semver.System, eco ecosystem.Ecosystem, exprs, versions []string) {
	t.Helper()

	for _, expr := range exprs {
		oracle, err := sys.ParseConstraint(expr)
		if err != nil {
			t.Fatalf("deps.dev ParseConstraint(%q): %v", expr, err)
		}

		c, err := constraint.Parse(eco, expr)
		if err != nil {
			t.Fatalf("Parse(%s, %q): %v", eco, expr, err)
		}

		for _, version := range versions {
			v, err := sys.Parse(version)
			if err != nil {
				t.Fatalf("deps.dev Parse(%q): %v", version, err)
			}

			got, err := c.Matches(version)
			if err != nil {
				t.Fatalf("%q.Matches(%q): %v", expr, version, err)
			}

			if want := oracle.MatchVersion(v); got != want {
				t.Errorf("%q.Matches(%q) = %v, deps.dev says %v", expr, version, got, want)
			}
		}
	}
}

func TestMatches_NpmAgainstDepsDev(t *testing.T) {
	checkAgainstDepsDev(t, semver.NPM, ecosystem.Npm,
		[]string{
			"^1.2.3",
			"~1.2.3",
			"1.x",
			">=1.2.3 <2.0.0",
			"1.2.3 - 2.3.4",
			"<1.3.1",
			">1.2",
			"<=1.2",
			"^0.2.3",
			"^0.0.3",
			"1.x || >=2.5.0",
		},
		[]string{
			"0.0.3", "0.0.4", "0.2.3", "0.2.9", "0.3.0", "1.0.0", "1.2.2", "1.2.3", "1.2.9",
			"1.3.0", "1.3.1", "1.9.0", "2.0.0", "2.3.4", "2.3.5", "2.5.0", "3.0.0",
		},
	)
}

func TestMatches_PyPIAgainstDepsDev(t *testing.T) {
	checkAgainstDepsDev(t, semver.PyPI, ecosystem.PyPI,
		[]string{
			">=1.0,<2.0",
			"~=1.4.5",
			"==1.4.*",
			"!=1.5",
			">1.4",
			"<=1.4.5",
		},
		[]string{"0.9", "1.0", "1.4", "1.4.5", "1.4.9", "1.5", "1.5.1", "2.0", "2.1"},
	)
}
