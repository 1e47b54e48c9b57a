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

// Package poetrylock parses poetry.lock files.
package poetrylock

import (
	"fmt"
	"path/filepath"
	"slices"

	"github.com/BurntSushi/toml"

	"github.com/google/osv-depscan/ecosystem"
	"github.com/google/osv-depscan/lockfile"
	"github.com/google/osv-depscan/log"
)

const (
	// Name is the unique name of this parser.
	Name = "python/poetrylock"
)

type poetryLockPackageSource struct {
	Type string `toml:"type"`
}

type poetryLockPackage struct {
	Name     string                  `toml:"name"`
	Version  string                  `toml:"version"`
	Category string                  `toml:"category"`
	Groups   []string                `toml:"groups"`
	Source   poetryLockPackageSource `toml:"source"`
}

// isDev reports whether the package is only needed for development. Older
// lockfiles record a category, newer ones the dependency groups.
func (p poetryLockPackage) isDev() bool {
	if p.Category != "" {
		return p.Category == "dev"
	}

	return len(p.Groups) > 0 && !slices.Contains(p.Groups, "main")
}

type poetryLockFile struct {
	Version  int              `toml:"version"`
	Packages []toml.Primitive `toml:"package"`
}

// Parser parses poetry.lock files.
type Parser struct{}

// New returns a new poetry.lock parser.
func New() lockfile.Parser { return Parser{} }

// Name of the parser.
func (Parser) Name() string { return Name }

// Ecosystem of the parsed dependencies.
func (Parser) Ecosystem() ecosystem.Ecosystem { return ecosystem.PyPI }

// FileRequired returns true if the specified file matches poetry lockfile patterns.
func (Parser) FileRequired(path string) bool {
	return filepath.Base(path) == "poetry.lock"
}

// Parse reads the packages of a poetry.lock file. The lockfile doesn't say
// which packages the project declares, so none are marked direct.
func (Parser) Parse(path string, data []byte) ([]lockfile.Dependency, error) {
	var parsed poetryLockFile

	md, err := toml.Decode(string(data), &parsed)
	if err != nil {
		return nil, lockfile.MalformedRoot(path, err)
	}

	set := lockfile.NewSet(ecosystem.PyPI, path)

	for i, prim := range parsed.Packages {
		var pkg poetryLockPackage

		if err := md.PrimitiveDecode(prim, &pkg); err != nil {
			set.Skip(fmt.Errorf("package #%d: %w", i, err))
			continue
		}

		// local checkouts don't correspond to a published release
		if pkg.Source.Type == "directory" || pkg.Source.Type == "file" {
			log.Debugf("%s: skipping %s from a local %s", path, pkg.Name, pkg.Source.Type)
			continue
		}

		set.Add(pkg.Name, pkg.Version, false, pkg.isDev())
	}

	return set.Result()
}

var _ lockfile.Parser = Parser{}
