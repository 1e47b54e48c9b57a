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

// Package packagelockjson parses npm package-lock.json and
// npm-shrinkwrap.json files.
package packagelockjson

import (
	"encoding/json"
	"fmt"
	"maps"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/google/osv-depscan/ecosystem"
	"github.com/google/osv-depscan/lockfile"
	"github.com/google/osv-depscan/log"
)

const (
	// Name is the unique name of this parser.
	Name = "javascript/packagelockjson"
)

// lockFile is the npm package-lock.json lockfile. Entries are decoded one
// at a time so a single bad entry doesn't spoil the whole file.
type lockFile struct {
	Version int `json:"lockfileVersion"`
	// npm v1- lockfiles use "dependencies"
	Dependencies map[string]json.RawMessage `json:"dependencies,omitempty"`
	// npm v2+ lockfiles use "packages"
	Packages map[string]json.RawMessage `json:"packages,omitempty"`
}

// dependency is an installed dependency in lockfileVersion 1.
type dependency struct {
	// For an aliased package, Version is like "npm:[name]@[version]"
	Version  string `json:"version"`
	Resolved string `json:"resolved"`
	Dev      bool   `json:"dev,omitempty"`

	Requires     map[string]string          `json:"requires,omitempty"`
	Dependencies map[string]json.RawMessage `json:"dependencies,omitempty"`
}

// pkg is an installed dependency in lockfileVersion 2+.
type pkg struct {
	// For an aliased package, Name is the real package name
	Name        string `json:"name,omitempty"`
	Version     string `json:"version"`
	Resolved    string `json:"resolved"`
	Link        bool   `json:"link,omitempty"`
	Dev         bool   `json:"dev,omitempty"`
	DevOptional bool   `json:"devOptional,omitempty"`

	Dependencies         map[string]string `json:"dependencies,omitempty"`
	DevDependencies      map[string]string `json:"devDependencies,omitempty"`
	OptionalDependencies map[string]string `json:"optionalDependencies,omitempty"`
	PeerDependencies     map[string]string `json:"peerDependencies,omitempty"`
}

func (p pkg) declares(name string) bool {
	for _, deps := range []map[string]string{p.Dependencies, p.DevDependencies, p.OptionalDependencies, p.PeerDependencies} {
		if _, ok := deps[name]; ok {
			return true
		}
	}

	return false
}

// Parser parses npm lockfiles.
type Parser struct{}

// New returns a new npm lockfile parser.
func New() lockfile.Parser { return Parser{} }

// Name of the parser.
func (Parser) Name() string { return Name }

// Ecosystem of the parsed dependencies.
func (Parser) Ecosystem() ecosystem.Ecosystem { return ecosystem.Npm }

// FileRequired returns true if the specified file matches npm lockfile patterns.
func (Parser) FileRequired(p string) bool {
	if !slices.Contains([]string{"package-lock.json", "npm-shrinkwrap.json"}, filepath.Base(p)) {
		return false
	}

	// Lockfiles inside node_modules belong to installed packages rather than
	// to the project being scanned.
	dir := filepath.ToSlash(filepath.Dir(p))

	return !slices.Contains(strings.Split(dir, "/"), "node_modules")
}

// Parse reads the packages of an npm lockfile.
func (Parser) Parse(p string, data []byte) ([]lockfile.Dependency, error) {
	var parsed lockFile

	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, lockfile.MalformedRoot(p, err)
	}

	set := lockfile.NewSet(ecosystem.Npm, p)

	if parsed.Packages != nil {
		parsePackages(set, parsed.Packages)
	} else {
		parseDependencies(set, parsed.Dependencies)
	}

	return set.Result()
}

// unresolvable reports whether a version refers to something other than a
// registry release, such as a local directory or a git commit.
func unresolvable(version string) bool {
	return version == "" || strings.Contains(version, ":") || strings.Contains(version, "/")
}

func extractNpmPackageName(name string) string {
	maybeScope := path.Base(path.Dir(name))
	pkgName := path.Base(name)

	if strings.HasPrefix(maybeScope, "@") {
		pkgName = maybeScope + "/" + pkgName
	}

	return pkgName
}

func parsePackages(set *lockfile.Set, packages map[string]json.RawMessage) {
	var root pkg

	if raw, ok := packages[""]; ok {
		if err := json.Unmarshal(raw, &root); err != nil {
			set.Skip(fmt.Errorf("root package: %w", err))
		}
	}

	for _, namePath := range slices.Sorted(maps.Keys(packages)) {
		raw := packages[namePath]
		// workspace members and the root project aren't installed packages
		if namePath == "" || !strings.Contains(namePath, "node_modules/") {
			continue
		}

		var detail pkg
		if err := json.Unmarshal(raw, &detail); err != nil {
			set.Skip(fmt.Errorf("%s: %w", namePath, err))
			continue
		}

		if detail.Link || unresolvable(detail.Version) || strings.HasPrefix(detail.Resolved, "file:") {
			log.Debugf("skipping %s: not installed from a registry", namePath)
			continue
		}

		name := detail.Name
		if name == "" {
			name = extractNpmPackageName(namePath)
		}

		// only packages hoisted directly below the root can be direct
		installedAs := strings.TrimPrefix(namePath, "node_modules/")
		direct := !strings.Contains(installedAs, "node_modules/") && root.declares(installedAs)

		set.Add(name, detail.Version, direct, detail.Dev || detail.DevOptional)
	}
}

type v1Entry struct {
	name    string
	version string
	dev     bool
	top     bool
}

func parseDependencies(set *lockfile.Set, dependencies map[string]json.RawMessage) {
	var (
		entries  []v1Entry
		required = map[string]bool{}
	)

	var walk func(deps map[string]json.RawMessage, top bool)
	walk = func(deps map[string]json.RawMessage, top bool) {
		for _, name := range slices.Sorted(maps.Keys(deps)) {
			var detail dependency
			if err := json.Unmarshal(deps[name], &detail); err != nil {
				set.Skip(fmt.Errorf("%s: %w", name, err))
				continue
			}

			for req := range detail.Requires {
				required[req] = true
			}

			if detail.Dependencies != nil {
				walk(detail.Dependencies, false)
			}

			version := detail.Version

			// aliased packages look like "npm:string-width@4.2.3"
			if rest, ok := strings.CutPrefix(version, "npm:"); ok {
				if i := strings.LastIndex(rest, "@"); i > 0 {
					name, version = rest[:i], rest[i+1:]
				}
			}

			if unresolvable(version) {
				log.Debugf("skipping %s: not installed from a registry", name)
				continue
			}

			entries = append(entries, v1Entry{name: name, version: version, dev: detail.Dev, top: top})
		}
	}
	walk(dependencies, true)

	// lockfileVersion 1 doesn't record what the root project declares, so
	// treat top level entries nothing else requires as direct
	for _, e := range entries {
		set.Add(e.name, e.version, e.top && !required[e.name], e.dev)
	}
}

var _ lockfile.Parser = Parser{}
