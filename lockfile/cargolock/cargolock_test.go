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

package cargolock_test

import (
	"testing"

	"github.com/google/osv-depscan/ecosystem"
	"github.com/google/osv-depscan/lockfile"
	"github.com/google/osv-depscan/lockfile/cargolock"
	"github.com/google/osv-depscan/testing/parsetest"
)

func TestParser_FileRequired(t *testing.T) {
	tests := []struct {
		inputPath string
		want      bool
	}{
		{inputPath: "", want: false},
		{inputPath: "Cargo.lock", want: true},
		{inputPath: "path/to/my/Cargo.lock", want: true},
		{inputPath: "path/to/my/Cargo.lock/file", want: false},
		{inputPath: "path/to/my/Cargo.lock.file", want: false},
		{inputPath: "path.to.my.Cargo.lock", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.inputPath, func(t *testing.T) {
			if got := (cargolock.Parser{}).FileRequired(tt.inputPath); got != tt.want {
				t.Errorf("FileRequired(%s) got = %v, want %v", tt.inputPath, got, tt.want)
			}
		})
	}
}

func crate(name, version, path string, direct bool) lockfile.Dependency {
	return lockfile.Dependency{
		Name:       name,
		Version:    version,
		Ecosystem:  ecosystem.Cargo,
		Direct:     direct,
		SourceFile: path,
	}
}

func TestParser_Parse(t *testing.T) {
	tests := []parsetest.TestTableEntry{
		{
			Name:    "invalid toml",
			Path:    "testdata/not-toml.txt",
			WantErr: lockfile.ErrMalformedRoot,
		},
		{
			Name:     "no packages",
			Path:     "testdata/empty.lock",
			WantDeps: []lockfile.Dependency{},
		},
		{
			Name: "workspace",
			Path: "testdata/workspace.lock",
			WantDeps: []lockfile.Dependency{
				crate("libc", "0.2.147", "testdata/workspace.lock", false),
				crate("openssl", "0.10.54", "testdata/workspace.lock", true),
				crate("openssl-sys", "0.9.90", "testdata/workspace.lock", false),
				crate("serde", "1.0.188", "testdata/workspace.lock", true),
			},
		},
		{
			Name: "unreadable entries are skipped",
			Path: "testdata/partial.lock",
			WantDeps: []lockfile.Dependency{
				crate("addr2line", "0.15.2", "testdata/partial.lock", false),
				crate("syn", "1.0.73", "testdata/partial.lock", false),
			},
			WantSkipped: 2,
		},
		{
			Name: "duplicates",
			Path: "testdata/duplicates.lock",
			WantDeps: []lockfile.Dependency{
				crate("syn", "1.0.73", "testdata/duplicates.lock", false),
				crate("syn", "2.0.28", "testdata/duplicates.lock", false),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.Name, func(t *testing.T) {
			parsetest.ParserTester(t, cargolock.New(), tt)
		})
	}
}
