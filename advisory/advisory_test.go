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

package advisory_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/google/osv-depscan/advisory"
	"github.com/google/osv-depscan/ecosystem"
)

func TestMerge(t *testing.T) {
	primary := []advisory.Advisory{
		{ID: "GHSA-2", Severity: advisory.SeverityMedium, Source: "primary"},
		{ID: "GHSA-1", Severity: advisory.SeverityHigh, Source: "primary"},
		{ID: "GHSA-3", Severity: advisory.SeverityLow, Source: "primary"},
	}
	secondary := []advisory.Advisory{
		{ID: "GHSA-2", Severity: advisory.SeverityCritical, Source: "secondary"},
		{ID: "GHSA-1", Severity: advisory.SeverityHigh, Source: "secondary"},
		{ID: "GHSA-4", Severity: advisory.SeverityUnknown, Source: "secondary"},
	}

	want := []advisory.Advisory{
		{ID: "GHSA-1", Severity: advisory.SeverityHigh, Source: "primary"},
		{ID: "GHSA-2", Severity: advisory.SeverityCritical, Source: "secondary"},
		{ID: "GHSA-3", Severity: advisory.SeverityLow, Source: "primary"},
		{ID: "GHSA-4", Severity: advisory.SeverityUnknown, Source: "secondary"},
	}

	got := advisory.Merge(primary, secondary)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Merge() returned diff (-want +got):\n%s", diff)
	}
}

func TestMerge_Empty(t *testing.T) {
	if got := advisory.Merge(); len(got) != 0 {
		t.Errorf("Merge() = %v, want empty", got)
	}
}

func TestNewKey(t *testing.T) {
	tests := []struct {
		eco  ecosystem.Ecosystem
		name string
		want string
	}{
		{eco: ecosystem.PyPI, name: "Flask_SQLAlchemy", want: "PyPI/flask-sqlalchemy"},
		{eco: ecosystem.Npm, name: "@babel/core", want: "npm/@babel/core"},
		{eco: ecosystem.Cargo, name: "openssl", want: "crates.io/openssl"},
	}

	for _, tt := range tests {
		if got := advisory.NewKey(tt.eco, tt.name).String(); got != tt.want {
			t.Errorf("NewKey(%s, %q) = %q, want %q", tt.eco, tt.name, got, tt.want)
		}
	}
}

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		in      string
		want    advisory.Severity
		wantErr error
	}{
		{in: "critical", want: advisory.SeverityCritical},
		{in: "HIGH", want: advisory.SeverityHigh},
		{in: "Moderate", want: advisory.SeverityMedium},
		{in: "medium", want: advisory.SeverityMedium},
		{in: " low ", want: advisory.SeverityLow},
		{in: "", want: advisory.SeverityUnknown},
		{in: "severe", want: advisory.SeverityUnknown, wantErr: advisory.ErrUnknownSeverity},
	}

	for _, tt := range tests {
		got, err := advisory.ParseSeverity(tt.in)
		if !errors.Is(err, tt.wantErr) {
			t.Errorf("ParseSeverity(%q) error = %v, want %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseSeverity(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestFromScore(t *testing.T) {
	tests := []struct {
		score float64
		want  advisory.Severity
	}{
		{score: 10, want: advisory.SeverityCritical},
		{score: 9.0, want: advisory.SeverityCritical},
		{score: 8.9, want: advisory.SeverityHigh},
		{score: 7.0, want: advisory.SeverityHigh},
		{score: 5.3, want: advisory.SeverityMedium},
		{score: 0.1, want: advisory.SeverityLow},
		{score: 0, want: advisory.SeverityUnknown},
		{score: -1, want: advisory.SeverityUnknown},
	}

	for _, tt := range tests {
		if got := advisory.FromScore(tt.score); got != tt.want {
			t.Errorf("FromScore(%v) = %v, want %v", tt.score, got, tt.want)
		}
	}
}

func TestAdvisory_JSON(t *testing.T) {
	in := advisory.Advisory{
		ID:        "GHSA-xxxx",
		Ecosystem: ecosystem.Npm,
		Package:   "left-pad",
		Ranges:    []string{"<1.3.1"},
		Severity:  advisory.SeverityHigh,
		Source:    "osv.dev",
		Published: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}

	b, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("json.Marshal() returned an error: %v", err)
	}

	var got advisory.Advisory
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("json.Unmarshal(%s) returned an error: %v", b, err)
	}

	if diff := cmp.Diff(in, got); diff != "" {
		t.Errorf("json round trip returned diff (-want +got):\n%s", diff)
	}
}
