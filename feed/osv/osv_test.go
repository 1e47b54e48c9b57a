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

package osv_test

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	osvpb "github.com/ossf/osv-schema/bindings/go/osvschema"

	"github.com/google/osv-depscan/advisory"
	"github.com/google/osv-depscan/ecosystem"
	"github.com/google/osv-depscan/feed/osv"
)

func mustDecode(t *testing.T, data string) *osvpb.Vulnerability {
	t.Helper()

	v, err := osv.Decode([]byte(data))
	if err != nil {
		t.Fatalf("Decode(%s) returned an error: %v", data, err)
	}

	return v
}

func TestToAdvisory(t *testing.T) {
	tests := []struct {
		name   string
		record string
		eco    ecosystem.Ecosystem
		pkg    string
		want   advisory.Advisory
		wantOK bool
	}{
		{
			name: "github advisory with database severity",
			record: `{
				"id": "GHSA-left-pad",
				"summary": "left-pad pads wrongly",
				"aliases": ["CVE-2024-0001"],
				"published": "2024-01-02T03:04:05Z",
				"modified": "2024-02-01T00:00:00Z",
				"database_specific": {"severity": "HIGH"},
				"affected": [{
					"package": {"ecosystem": "npm", "name": "left-pad"},
					"ranges": [{"type": "SEMVER", "events": [{"introduced": "0"}, {"fixed": "1.3.1"}]}]
				}]
			}`,
			eco: ecosystem.Npm,
			pkg: "left-pad",
			want: advisory.Advisory{
				ID:        "GHSA-left-pad",
				Ecosystem: ecosystem.Npm,
				Package:   "left-pad",
				Ranges:    []string{"<1.3.1"},
				Severity:  advisory.SeverityHigh,
				Summary:   "left-pad pads wrongly",
				Aliases:   []string{"CVE-2024-0001"},
				Fixed:     []string{"1.3.1"},
				Source:    "test",
				Published: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
				Modified:  time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
			},
			wantOK: true,
		},
		{
			name: "pypi name normalization and cvss severity",
			record: `{
				"id": "PYSEC-1",
				"severity": [{"type": "CVSS_V3", "score": "CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:H/I:H/A:H"}],
				"affected": [{
					"package": {"ecosystem": "PyPI", "name": "Flask_Cors"},
					"ranges": [{"type": "ECOSYSTEM", "events": [{"introduced": "1.0"}, {"last_affected": "1.5"}]}]
				}]
			}`,
			eco: ecosystem.PyPI,
			pkg: "flask-cors",
			want: advisory.Advisory{
				ID:        "PYSEC-1",
				Ecosystem: ecosystem.PyPI,
				Package:   "flask-cors",
				Ranges:    []string{">=1.0, <=1.5"},
				Severity:  advisory.SeverityCritical,
				Source:    "test",
			},
			wantOK: true,
		},
		{
			name: "explicit versions without ranges",
			record: `{
				"id": "RUSTSEC-1",
				"affected": [{
					"package": {"ecosystem": "crates.io", "name": "openssl"},
					"versions": ["0.1.0", "0.1.1"]
				}]
			}`,
			eco: ecosystem.Cargo,
			pkg: "openssl",
			want: advisory.Advisory{
				ID:        "RUSTSEC-1",
				Ecosystem: ecosystem.Cargo,
				Package:   "openssl",
				Ranges:    []string{"=0.1.0", "=0.1.1"},
				Source:    "test",
			},
			wantOK: true,
		},
		{
			name: "unsorted events",
			record: `{
				"id": "GO-1",
				"affected": [{
					"package": {"ecosystem": "Go", "name": "golang.org/x/net"},
					"ranges": [{"type": "SEMVER", "events": [
						{"introduced": "2.0.0"}, {"fixed": "2.1.0"},
						{"introduced": "0"}, {"fixed": "1.5.0"}
					]}]
				}]
			}`,
			eco: ecosystem.Go,
			pkg: "golang.org/x/net",
			want: advisory.Advisory{
				ID:        "GO-1",
				Ecosystem: ecosystem.Go,
				Package:   "golang.org/x/net",
				Ranges:    []string{"<1.5.0", ">=2.0.0 <2.1.0"},
				Fixed:     []string{"1.5.0", "2.1.0"},
				Source:    "test",
			},
			wantOK: true,
		},
		{
			name: "open ended range",
			record: `{
				"id": "GHSA-open",
				"database_specific": {"severity": "moderate"},
				"affected": [{
					"package": {"ecosystem": "npm", "name": "minimist"},
					"ranges": [{"type": "SEMVER", "events": [{"introduced": "1.0.0"}]}]
				}]
			}`,
			eco: ecosystem.Npm,
			pkg: "minimist",
			want: advisory.Advisory{
				ID:        "GHSA-open",
				Ecosystem: ecosystem.Npm,
				Package:   "minimist",
				Ranges:    []string{">=1.0.0"},
				Severity:  advisory.SeverityMedium,
				Source:    "test",
			},
			wantOK: true,
		},
		{
			name: "withdrawn",
			record: `{
				"id": "GHSA-gone",
				"withdrawn": "2024-01-01T00:00:00Z",
				"affected": [{"package": {"ecosystem": "npm", "name": "left-pad"}, "versions": ["1.0.0"]}]
			}`,
			eco: ecosystem.Npm,
			pkg: "left-pad",
		},
		{
			name: "different package",
			record: `{
				"id": "GHSA-other",
				"affected": [{"package": {"ecosystem": "npm", "name": "right-pad"}, "versions": ["1.0.0"]}]
			}`,
			eco: ecosystem.Npm,
			pkg: "left-pad",
		},
		{
			name: "different ecosystem",
			record: `{
				"id": "GHSA-eco",
				"affected": [{"package": {"ecosystem": "PyPI", "name": "left-pad"}, "versions": ["1.0.0"]}]
			}`,
			eco: ecosystem.Npm,
			pkg: "left-pad",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := osv.ToAdvisory(mustDecode(t, tt.record), tt.eco, tt.pkg, "test")
			if ok != tt.wantOK {
				t.Fatalf("ToAdvisory() ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ToAdvisory() returned diff (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCalculateScore(t *testing.T) {
	tests := []struct {
		name     string
		severity *osvpb.Severity
		want     float64
		wantErr  bool
	}{
		{
			name: "empty",
			want: -1,
		},
		{
			name:     "cvss v3.1",
			severity: &osvpb.Severity{Type: osvpb.Severity_CVSS_V3, Score: "CVSS:3.1/AV:N/AC:L/PR:N/UI:R/S:U/C:N/I:L/A:N"},
			want:     4.3,
		},
		{
			name:     "cvss v3.0",
			severity: &osvpb.Severity{Type: osvpb.Severity_CVSS_V3, Score: "CVSS:3.0/AV:N/AC:L/PR:N/UI:N/S:U/C:H/I:H/A:H"},
			want:     9.8,
		},
		{
			name:     "cvss v2",
			severity: &osvpb.Severity{Type: osvpb.Severity_CVSS_V2, Score: "AV:L/AC:L/Au:S/C:P/I:P/A:C"},
			want:     5.7,
		},
		{
			name:     "unknown v3 prefix",
			severity: &osvpb.Severity{Type: osvpb.Severity_CVSS_V3, Score: "CVSS:3.2/AV:N"},
			want:     -1,
			wantErr:  true,
		},
		{
			name:     "malformed vector",
			severity: &osvpb.Severity{Type: osvpb.Severity_CVSS_V3, Score: "CVSS:3.1/garbage"},
			want:     -1,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := osv.CalculateScore(tt.severity)
			if (err != nil) != tt.wantErr {
				t.Fatalf("CalculateScore() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("CalculateScore() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAffects(t *testing.T) {
	v := mustDecode(t, `{
		"id": "GHSA-1",
		"affected": [{"package": {"ecosystem": "npm", "name": "left-pad"}, "versions": ["1.0.0"]}]
	}`)

	if !osv.Affects(v, ecosystem.Npm, "left-pad") {
		t.Errorf("Affects(left-pad) = false, want true")
	}
	if osv.Affects(v, ecosystem.Npm, "lodash") {
		t.Errorf("Affects(lodash) = true, want false")
	}
}
