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

package cli_test

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"golang.org/x/time/rate"

	depscan "github.com/google/osv-depscan"
	"github.com/google/osv-depscan/advisory"
	"github.com/google/osv-depscan/binary/cli"
	"github.com/google/osv-depscan/ecosystem"
	"github.com/google/osv-depscan/lockfile"
)

func TestValidateFlags(t *testing.T) {
	for _, tc := range []struct {
		desc    string
		flags   *cli.Flags
		wantErr error
	}{
		{
			desc: "Valid config",
			flags: &cli.Flags{
				Root:           "/src",
				ResultFile:     "result.json",
				Parsers:        []string{"rust", "javascript/packagelockjson"},
				Sources:        []string{"osv.dev", "osv.dev-zip"},
				IgnorePatterns: []string{"left-*", "vendor/**"},
				SeverityFloor:  "moderate",
			},
			wantErr: nil,
		},
		{
			desc:    "Root missing",
			flags:   &cli.Flags{},
			wantErr: cmpopts.AnyError,
		},
		{
			desc:    "Unknown parser",
			flags:   &cli.Flags{Root: "/", Parsers: []string{"cobol"}},
			wantErr: cmpopts.AnyError,
		},
		{
			desc:    "Unknown ecosystem",
			flags:   &cli.Flags{Root: "/", Ecosystems: []string{"maven"}},
			wantErr: ecosystem.ErrUnknownEcosystem,
		},
		{
			desc:    "Unknown source",
			flags:   &cli.Flags{Root: "/", Sources: []string{"nvd"}},
			wantErr: cmpopts.AnyError,
		},
		{
			desc:    "Unknown severity",
			flags:   &cli.Flags{Root: "/", SeverityFloor: "catastrophic"},
			wantErr: cmpopts.AnyError,
		},
		{
			desc:    "Invalid ignore glob",
			flags:   &cli.Flags{Root: "/", IgnorePatterns: []string{"[abc"}},
			wantErr: cmpopts.AnyError,
		},
		{
			desc:    "Offline and refresh",
			flags:   &cli.Flags{Root: "/", Offline: true, Refresh: true},
			wantErr: cmpopts.AnyError,
		},
		{
			desc:    "Negative rate limit",
			flags:   &cli.Flags{Root: "/", RateLimit: -1},
			wantErr: cmpopts.AnyError,
		},
		{
			desc:    "Wrong result extension",
			flags:   &cli.Flags{Root: "/", ResultFile: "result.textproto"},
			wantErr: cmpopts.AnyError,
		},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			err := cli.ValidateFlags(tc.flags)
			if !cmp.Equal(tc.wantErr, err, cmpopts.EquateErrors()) {
				t.Errorf("cli.ValidateFlags(%v) error got diff (-want +got):\n%s", tc.flags, cmp.Diff(tc.wantErr, err, cmpopts.EquateErrors()))
			}
		})
	}
}

func TestGetScanConfig(t *testing.T) {
	cacheDir := t.TempDir()
	flags := &cli.Flags{
		Root:                  "/src",
		Parsers:               []string{"rust"},
		Sources:               []string{"osv.dev-zip", "osv.dev"},
		IgnorePatterns:        []string{"left-*"},
		SeverityFloor:         "high",
		ExcludeDev:            true,
		MaxConcurrentRequests: 2,
		RateLimit:             3,
		Timeout:               time.Minute,
		CacheDir:              cacheDir,
		CacheTTL:              time.Hour,
		Offline:               true,
	}

	cfg, err := flags.GetScanConfig()
	if err != nil {
		t.Fatalf("%v.GetScanConfig(): %v", flags, err)
	}

	var parsers []string
	for _, p := range cfg.Parsers {
		parsers = append(parsers, p.Name())
	}
	if diff := cmp.Diff([]string{"rust/cargolock"}, parsers); diff != "" {
		t.Errorf("GetScanConfig() parsers returned diff (-want +got):\n%s", diff)
	}

	var sources []string
	for _, s := range cfg.Sources {
		sources = append(sources, s.Name())
	}
	if diff := cmp.Diff([]string{"osv.dev-zip", "osv.dev"}, sources); diff != "" {
		t.Errorf("GetScanConfig() sources returned diff (-want +got):\n%s", diff)
	}

	if cfg.SeverityFloor != advisory.SeverityHigh {
		t.Errorf("GetScanConfig() SeverityFloor = %v, want %v", cfg.SeverityFloor, advisory.SeverityHigh)
	}
	if cfg.CacheDir != cacheDir || cfg.CacheTTL != time.Hour {
		t.Errorf("GetScanConfig() cache = (%q, %v), want (%q, %v)", cfg.CacheDir, cfg.CacheTTL, cacheDir, time.Hour)
	}
	if cfg.MaxConcurrentRequests != 2 || cfg.RateLimit != rate.Limit(3) || cfg.Timeout != time.Minute {
		t.Errorf("GetScanConfig() limits = (%d, %v, %v), want (2, 3, 1m0s)", cfg.MaxConcurrentRequests, cfg.RateLimit, cfg.Timeout)
	}
	if !cfg.ExcludeDev || !cfg.Offline || cfg.Refresh {
		t.Errorf("GetScanConfig() modes = (exclude dev %v, offline %v, refresh %v), want (true, true, false)", cfg.ExcludeDev, cfg.Offline, cfg.Refresh)
	}
}

func TestGetScanConfig_Ecosystems(t *testing.T) {
	for _, tc := range []struct {
		desc  string
		flags *cli.Flags
		want  []string
	}{
		{
			desc:  "ecosystem narrows all parsers",
			flags: &cli.Flags{Root: "/src", Parsers: []string{"all"}, Ecosystems: []string{"pypi"}},
			want:  []string{"python/poetrylock", "python/requirements"},
		},
		{
			desc:  "ecosystem outside the chosen parsers",
			flags: &cli.Flags{Root: "/src", Parsers: []string{"rust"}, Ecosystems: []string{"npm"}},
		},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			cfg, err := tc.flags.GetScanConfig()
			if err != nil {
				t.Fatalf("GetScanConfig(): %v", err)
			}
			var got []string
			for _, p := range cfg.Parsers {
				got = append(got, p.Name())
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("GetScanConfig() parsers returned diff (-want +got):\n%s", diff)
			}
		})
	}
}

func TestGetScanConfig_Defaults(t *testing.T) {
	cfg, err := (&cli.Flags{Root: "/src"}).GetScanConfig()
	if err != nil {
		t.Fatalf("GetScanConfig(): %v", err)
	}
	want := depscan.DefaultScanConfig()
	if len(cfg.Parsers) != len(want.Parsers) {
		t.Errorf("GetScanConfig() returned %d parsers, want %d", len(cfg.Parsers), len(want.Parsers))
	}
	if len(cfg.Sources) != 0 {
		t.Errorf("GetScanConfig() returned %d sources, want 0", len(cfg.Sources))
	}
	if cfg.CacheDir != want.CacheDir {
		t.Errorf("GetScanConfig() CacheDir = %q, want %q", cfg.CacheDir, want.CacheDir)
	}
}

func TestWriteScanResults(t *testing.T) {
	result := &depscan.ScanResult{
		Lockfiles: []string{"package-lock.json"},
		Findings: []*depscan.Finding{{
			Dependency: lockfile.Dependency{
				Name:       "left-pad",
				Version:    "1.3.0",
				Ecosystem:  ecosystem.Npm,
				Direct:     true,
				SourceFile: "package-lock.json",
			},
			Advisory: advisory.Advisory{
				ID:        "GHSA-left-pad",
				Ecosystem: ecosystem.Npm,
				Package:   "left-pad",
				Ranges:    []string{"<1.3.1"},
				Severity:  advisory.SeverityHigh,
			},
			Matched: true,
		}},
	}

	type jsonFinding struct {
		Package  string `json:"package"`
		PURL     string `json:"purl"`
		Advisory struct {
			ID       string `json:"id"`
			Severity string `json:"severity"`
		} `json:"advisory"`
	}
	type jsonResult struct {
		Lockfiles []string      `json:"lockfiles"`
		Findings  []jsonFinding `json:"findings"`
	}

	want := jsonResult{
		Lockfiles: []string{"package-lock.json"},
		Findings:  []jsonFinding{{Package: "left-pad", PURL: "pkg:npm/left-pad@1.3.0"}},
	}
	want.Findings[0].Advisory.ID = "GHSA-left-pad"
	want.Findings[0].Advisory.Severity = "HIGH"

	var stdout bytes.Buffer
	if err := (&cli.Flags{}).WriteScanResults(result, &stdout); err != nil {
		t.Fatalf("WriteScanResults(): %v", err)
	}
	var got jsonResult
	if err := json.Unmarshal(stdout.Bytes(), &got); err != nil {
		t.Fatalf("json.Unmarshal(%s): %v", stdout.String(), err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("WriteScanResults() returned diff (-want +got):\n%s", diff)
	}

	resultFile := filepath.Join(t.TempDir(), "result.json")
	if err := (&cli.Flags{ResultFile: resultFile}).WriteScanResults(result, nil); err != nil {
		t.Fatalf("WriteScanResults(%s): %v", resultFile, err)
	}
}
