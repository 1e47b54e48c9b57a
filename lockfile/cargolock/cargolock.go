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

// Package cargolock parses Cargo.lock files for rust projects.
package cargolock

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/google/osv-depscan/ecosystem"
	"github.com/google/osv-depscan/lockfile"
)

const (
	// Name is the unique name of this parser.
	Name = "rust/cargolock"
)

type cargoLockPackage struct {
	Name         string   `toml:"name"`
	Version      string   `toml:"version"`
	Source       string   `toml:"source"`
	Dependencies []string `toml:"dependencies"`
}

type cargoLockFile struct {
	Version  int              `toml:"version"`
	Packages []toml.Primitive `toml:"package"`
}

// Parser parses Cargo.lock files.
type Parser struct{}

// New returns a new Cargo.lock parser.
func New() lockfile.Parser { return Parser{} }

// Name of the parser.
func (Parser) Name() string { return Name }

// Ecosystem of the parsed dependencies.
func (Parser) Ecosystem() ecosystem.Ecosystem { return ecosystem.Cargo }

// FileRequired returns true if the specified file matches Cargo lockfile patterns.
func (Parser) FileRequired(path string) bool {
	return filepath.Base(path) == "Cargo.lock"
}

// Parse reads the crates.io packages of a Cargo.lock file. Packages without
// a source are workspace members and are left out; the crates they depend
// on are direct dependencies.
func (p Parser) Parse(path string, data []byte) ([]lockfile.Dependency, error) {
	var parsed cargoLockFile

	md, err := toml.Decode(string(data), &parsed)
	if err != nil {
		return nil, lockfile.MalformedRoot(path, err)
	}

	var (
		set      = lockfile.NewSet(ecosystem.Cargo, path)
		packages = make([]cargoLockPackage, 0, len(parsed.Packages))
		direct   = map[string]bool{}
	)

	for i, prim := range parsed.Packages {
		var pkg cargoLockPackage

		if err := md.PrimitiveDecode(prim, &pkg); err != nil {
			set.Skip(fmt.Errorf("package #%d: %w", i, err))
			continue
		}

		if pkg.Source == "" {
			for _, dep := range pkg.Dependencies {
				direct[dependencyName(dep)] = true
			}

			continue
		}

		packages = append(packages, pkg)
	}

	for _, pkg := range packages {
		set.Add(pkg.Name, pkg.Version, direct[pkg.Name], false)
	}

	return set.Result()
}

// dependencyName returns the crate name of a dependency entry, which is
// written as "name", "name version" or "name version (source)".
func dependencyName(entry string) string {
	name, _, _ := strings.Cut(entry, " ")

	return name
}

var _ lockfile.Parser = Parser{}
