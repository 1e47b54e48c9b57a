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

// Package parsetest provides a table driven harness for lockfile parsers.
package parsetest

import (
	"errors"
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/google/osv-depscan/lockfile"
)

// TestTableEntry describes one parser test case.
type TestTableEntry struct {
	Name string
	// Path of the fixture, relative to the test's working directory.
	Path     string
	WantDeps []lockfile.Dependency
	// WantErr is matched with errors.Is.
	WantErr error
	// WantSkipped is the expected number of skipped entries, if any.
	WantSkipped int
}

// DependencyCmpOpts compares dependencies while ignoring the parsed version,
// which is checked separately against the raw version string.
var DependencyCmpOpts = []cmp.Option{
	cmpopts.IgnoreFields(lockfile.Dependency{}, "Parsed"),
	cmpopts.EquateEmpty(),
}

// ParserTester runs p over the fixture described by tt and checks the
// result, including that parsing the same bytes twice gives the same
// dependencies.
func ParserTester(t *testing.T, p lockfile.Parser, tt TestTableEntry) []lockfile.Dependency {
	t.Helper()

	data, err := os.ReadFile(tt.Path)
	if err != nil {
		t.Fatalf("Can't read test fixture '%s' because '%s'", tt.Path, err)
	}

	got, err := p.Parse(tt.Path, data)

	if tt.WantErr != nil && !errors.Is(err, tt.WantErr) {
		t.Errorf("%s.Parse(%s) error = %v, want %v", p.Name(), tt.Path, err, tt.WantErr)
	}

	var partial *lockfile.PartialFailureError
	switch {
	case tt.WantSkipped > 0:
		if !errors.As(err, &partial) {
			t.Fatalf("%s.Parse(%s) error = %v, want a partial failure", p.Name(), tt.Path, err)
		}
		if partial.Skipped != tt.WantSkipped {
			t.Errorf("%s.Parse(%s) skipped %d entries, want %d", p.Name(), tt.Path, partial.Skipped, tt.WantSkipped)
		}
	case tt.WantErr == nil && err != nil:
		t.Errorf("%s.Parse(%s) returned an unexpected error: %v", p.Name(), tt.Path, err)
	}

	if diff := cmp.Diff(tt.WantDeps, got, DependencyCmpOpts...); diff != "" {
		t.Errorf("%s.Parse(%s) returned diff (-want +got):\n%s", p.Name(), tt.Path, diff)
	}

	for _, d := range got {
		if d.Parsed == nil || d.Parsed.String() != d.Version {
			t.Errorf("%s.Parse(%s): %s has parsed version %v, want %q", p.Name(), tt.Path, d.Name, d.Parsed, d.Version)
		}
	}

	again, _ := p.Parse(tt.Path, data)
	if diff := cmp.Diff(got, again, DependencyCmpOpts...); diff != "" {
		t.Errorf("%s.Parse(%s) is not idempotent (-first +second):\n%s", p.Name(), tt.Path, diff)
	}

	return got
}
