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

// Package ecosystem defines the closed set of package ecosystems the scanner
// understands.
package ecosystem

import (
	"errors"
	"fmt"
	"strings"

	"github.com/package-url/packageurl-go"
)

// Ecosystem identifies a package manager ecosystem.
type Ecosystem int

// Supported ecosystems.
const (
	Unknown Ecosystem = iota
	Cargo
	Npm
	PyPI
	Go
)

// ErrUnknownEcosystem is returned when a name doesn't map to a supported ecosystem.
var ErrUnknownEcosystem = errors.New("unknown ecosystem")

// All lists the supported ecosystems in a stable order.
var All = []Ecosystem{Cargo, Npm, PyPI, Go}

// String returns the OSV ecosystem name.
func (e Ecosystem) String() string {
	switch e {
	case Cargo:
		return "crates.io"
	case Npm:
		return "npm"
	case PyPI:
		return "PyPI"
	case Go:
		return "Go"
	default:
		return "unknown"
	}
}

// PURLType returns the package URL type of packages in the ecosystem.
func (e Ecosystem) PURLType() string {
	switch e {
	case Cargo:
		return packageurl.TypeCargo
	case Npm:
		return packageurl.TypeNPM
	case PyPI:
		return packageurl.TypePyPi
	case Go:
		return packageurl.TypeGolang
	default:
		return ""
	}
}

// MarshalText encodes the ecosystem as its OSV name.
func (e Ecosystem) MarshalText() ([]byte, error) {
	if e == Unknown {
		return nil, ErrUnknownEcosystem
	}
	return []byte(e.String()), nil
}

// UnmarshalText decodes an OSV ecosystem name.
func (e *Ecosystem) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}

// Parse maps an OSV ecosystem name (or a common alias) to an Ecosystem.
// Suffixes such as "Debian:11" style release qualifiers are not supported.
func Parse(name string) (Ecosystem, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "crates.io", "cargo", "rust":
		return Cargo, nil
	case "npm", "node":
		return Npm, nil
	case "pypi", "python", "pip":
		return PyPI, nil
	case "go", "golang":
		return Go, nil
	}
	return Unknown, fmt.Errorf("%w: %q", ErrUnknownEcosystem, name)
}

// NormalizeName returns the canonical form of a package name in the
// ecosystem, so that names coming from lockfiles and from advisories can be
// compared directly.
func (e Ecosystem) NormalizeName(name string) string {
	name = strings.TrimSpace(name)
	if e != PyPI {
		return name
	}
	// https://peps.python.org/pep-0503/#normalized-names
	var b strings.Builder
	lastSep := false
	for _, r := range strings.ToLower(name) {
		if r == '-' || r == '_' || r == '.' {
			if !lastSep {
				b.WriteRune('-')
			}
			lastSep = true
			continue
		}
		lastSep = false
		b.WriteRune(r)
	}
	return b.String()
}
