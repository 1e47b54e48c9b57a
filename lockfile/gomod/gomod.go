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

// Package gomod parses go.mod and go.sum files.
package gomod

import (
	"path/filepath"
	"strings"

	"golang.org/x/mod/modfile"

	"github.com/google/osv-depscan/ecosystem"
	"github.com/google/osv-depscan/lockfile"
	"github.com/google/osv-depscan/log"
)

const (
	// Name is the unique name of the go.mod parser.
	Name = "go/gomod"
	// StdlibName is the name under which the Go standard library is reported.
	StdlibName = "stdlib"
)

// Parser parses go.mod files, including the stdlib version taken from the
// toolchain or go directive.
type Parser struct{}

// New returns a new go.mod parser.
func New() lockfile.Parser { return Parser{} }

// Name of the parser.
func (Parser) Name() string { return Name }

// Ecosystem of the parsed dependencies.
func (Parser) Ecosystem() ecosystem.Ecosystem { return ecosystem.Go }

// FileRequired returns true if the specified file matches go.mod files.
func (Parser) FileRequired(path string) bool {
	return filepath.Base(path) == "go.mod"
}

type pkgKey struct {
	name    string
	version string
}

// Parse reads the requirements of a go.mod file with replace directives
// applied. Requirements marked "// indirect" are transitive.
func (Parser) Parse(path string, data []byte) ([]lockfile.Dependency, error) {
	parsed, err := modfile.Parse(path, data, nil)
	if err != nil {
		return nil, lockfile.MalformedRoot(path, err)
	}

	// Store the packages in a map since they might be overwritten by
	// replace directives.
	direct := map[pkgKey]bool{}

	for _, require := range parsed.Require {
		direct[pkgKey{name: require.Mod.Path, version: strings.TrimPrefix(require.Mod.Version, "v")}] = !require.Indirect
	}

	for _, replace := range parsed.Replace {
		var replacements []pkgKey

		if replace.Old.Version == "" {
			// If the version to replace is omitted, all versions of the module are replaced.
			for k := range direct {
				if k.name == replace.Old.Path {
					replacements = append(replacements, k)
				}
			}
		} else {
			// A `replace` directive has no effect if the name or version to replace is not present.
			k := pkgKey{name: replace.Old.Path, version: strings.TrimPrefix(replace.Old.Version, "v")}
			if _, ok := direct[k]; ok {
				replacements = []pkgKey{k}
			}
		}

		for _, k := range replacements {
			isDirect := direct[k]
			delete(direct, k)

			// replacements with a local directory have no published version
			if replace.New.Version == "" {
				log.Debugf("%s: %s is replaced by local directory %s", path, k.name, replace.New.Path)
				continue
			}

			newKey := pkgKey{name: replace.New.Path, version: strings.TrimPrefix(replace.New.Version, "v")}
			direct[newKey] = direct[newKey] || isDirect
		}
	}

	set := lockfile.NewSet(ecosystem.Go, path)

	for k, isDirect := range direct {
		set.Add(k.name, k.version, isDirect, false)
	}

	if v := stdlibVersion(parsed); v != "" {
		set.Add(StdlibName, v, true, false)
	}

	return set.Result()
}

// stdlibVersion returns the Go version the module is built with, preferring
// the toolchain directive over the go directive.
func stdlibVersion(f *modfile.File) string {
	if f.Toolchain != nil && f.Toolchain.Name != "" {
		return strings.TrimPrefix(f.Toolchain.Name, "go")
	}

	if f.Go != nil {
		return f.Go.Version
	}

	return ""
}

var _ lockfile.Parser = Parser{}
