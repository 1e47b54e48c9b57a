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

package ecosystem_test

import (
	"errors"
	"testing"

	"github.com/google/osv-depscan/ecosystem"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    ecosystem.Ecosystem
		wantErr error
	}{
		{in: "crates.io", want: ecosystem.Cargo},
		{in: "npm", want: ecosystem.Npm},
		{in: "PyPI", want: ecosystem.PyPI},
		{in: "Go", want: ecosystem.Go},
		{in: " golang ", want: ecosystem.Go},
		{in: "Maven", want: ecosystem.Unknown, wantErr: ecosystem.ErrUnknownEcosystem},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ecosystem.Parse(tt.in)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Parse(%q) error = %v, want %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestRoundTripText(t *testing.T) {
	for _, e := range ecosystem.All {
		b, err := e.MarshalText()
		if err != nil {
			t.Fatalf("%v.MarshalText(): %v", e, err)
		}
		var got ecosystem.Ecosystem
		if err := got.UnmarshalText(b); err != nil {
			t.Fatalf("UnmarshalText(%q): %v", b, err)
		}
		if got != e {
			t.Errorf("UnmarshalText(%q) = %v, want %v", b, got, e)
		}
	}
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		eco  ecosystem.Ecosystem
		in   string
		want string
	}{
		{eco: ecosystem.PyPI, in: "Django", want: "django"},
		{eco: ecosystem.PyPI, in: "zope.interface", want: "zope-interface"},
		{eco: ecosystem.PyPI, in: "Foo__Bar-.baz", want: "foo-bar-baz"},
		{eco: ecosystem.Npm, in: "@Scope/Pkg", want: "@Scope/Pkg"},
		{eco: ecosystem.Go, in: "github.com/BurntSushi/toml", want: "github.com/BurntSushi/toml"},
	}

	for _, tt := range tests {
		if got := tt.eco.NormalizeName(tt.in); got != tt.want {
			t.Errorf("%v.NormalizeName(%q) = %q, want %q", tt.eco, tt.in, got, tt.want)
		}
	}
}
