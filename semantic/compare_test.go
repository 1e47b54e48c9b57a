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

package semantic_test

import (
	"bufio"
	"os"
	"strings"
	"testing"

	"github.com/google/osv-depscan/ecosystem"
	"github.com/google/osv-depscan/semantic"
)

func expectedResult(t *testing.T, comparator string) int {
	t.Helper()

	switch comparator {
	case "<":
		return -1
	case "=":
		return 0
	case ">":
		return +1
	default:
		t.Fatalf("unknown comparator %s", comparator)

		return -999
	}
}

func compareWord(t *testing.T, result int) string {
	t.Helper()

	switch result {
	case 1:
		return "greater than"
	case 0:
		return "equal to"
	case -1:
		return "less than"
	default:
		t.Fatalf("Unexpected compare result: %d\n", result)

		return ""
	}
}

func runAgainstEcosystemFixture(t *testing.T, eco ecosystem.Ecosystem, filename string) {
	t.Helper()

	file, err := os.Open("testdata/" + filename)
	if err != nil {
		t.Fatalf("Failed to read fixture file: %v", err)
	}

	defer file.Close()

	scanner := bufio.NewScanner(file)

	total := 0
	failed := 0

	for scanner.Scan() {
		line := scanner.Text()

		if line == "" || strings.HasPrefix(line, "# ") {
			continue
		}

		total++
		pieces := strings.Split(line, " ")

		if len(pieces) != 3 {
			t.Fatalf(`incorrect number of pieces in fixture "%s" (got %d)`, line, len(pieces))
		}

		if !expectEcosystemCompareResult(t, eco, pieces[0], pieces[1], pieces[2]) {
			failed++
		}
	}

	if failed > 0 {
		t.Errorf("%d of %d failed", failed, total)
	}

	if err = scanner.Err(); err != nil {
		t.Fatal(err)
	}
}

func parseAsVersion(t *testing.T, str string, eco ecosystem.Ecosystem) semantic.Version {
	t.Helper()

	v, err := semantic.Parse(str, eco)

	if err != nil {
		t.Fatalf("failed to parse version '%s' as ecosystem '%s': %v", str, eco, err)
	}

	return v
}

func expectCompareResult(t *testing.T, eco ecosystem.Ecosystem, a string, b string, expectedResult int) bool {
	t.Helper()

	v := parseAsVersion(t, a, eco)

	actualResult, err := v.CompareStr(b)

	if err != nil {
		t.Fatalf("failed to compare versions: %v", err)
	}

	if actualResult != expectedResult {
		t.Errorf(
			"Expected %s to be %s %s, but it was %s",
			a,
			compareWord(t, expectedResult),
			b,
			compareWord(t, actualResult),
		)

		return false
	}

	return true
}

func expectEcosystemCompareResult(t *testing.T, eco ecosystem.Ecosystem, a string, c string, b string) bool {
	t.Helper()

	forward := expectCompareResult(t, eco, a, b, +expectedResult(t, c))
	backward := expectCompareResult(t, eco, b, a, -expectedResult(t, c))

	return forward && backward
}

func TestVersion_Compare_Ecosystems(t *testing.T) {
	tests := []struct {
		eco  ecosystem.Ecosystem
		file string
	}{
		{eco: ecosystem.Npm, file: "semver-versions.txt"},
		{eco: ecosystem.Cargo, file: "semver-versions.txt"},
		{eco: ecosystem.Go, file: "semver-versions.txt"},
		{eco: ecosystem.PyPI, file: "pypi-versions.txt"},
	}
	for _, tt := range tests {
		t.Run(tt.eco.String(), func(t *testing.T) {
			runAgainstEcosystemFixture(t, tt.eco, tt.file)
		})
	}
}
