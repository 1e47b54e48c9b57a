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

// Package list provides the table of supported lockfile parsers.
package list

import (
	"cmp"
	"fmt"
	"maps"
	"path/filepath"
	"slices"

	"github.com/google/osv-depscan/ecosystem"
	"github.com/google/osv-depscan/lockfile"
	"github.com/google/osv-depscan/lockfile/cargolock"
	"github.com/google/osv-depscan/lockfile/gomod"
	"github.com/google/osv-depscan/lockfile/packagelockjson"
	"github.com/google/osv-depscan/lockfile/poetrylock"
	"github.com/google/osv-depscan/lockfile/requirements"
)

// InitFn is the parser initializer function.
type InitFn func() lockfile.Parser

// InitMap is a map of parser names to their initers.
type InitMap map[string][]InitFn

var (
	// Rust lockfile parsers.
	Rust = InitMap{cargolock.Name: {cargolock.New}}
	// Javascript lockfile parsers.
	Javascript = InitMap{packagelockjson.Name: {packagelockjson.New}}
	// Python lockfile parsers.
	Python = InitMap{
		requirements.Name: {requirements.New},
		poetrylock.Name:   {poetrylock.New},
	}
	// Go lockfile parsers.
	Go = InitMap{
		gomod.Name:    {gomod.New},
		gomod.SumName: {gomod.NewSum},
	}

	// All lockfile parsers.
	All = concat(Rust, Javascript, Python, Go)

	parserNames = concat(All, InitMap{
		"rust":       vals(Rust),
		"javascript": vals(Javascript),
		"python":     vals(Python),
		"go":         vals(Go),
		"all":        vals(All),
	})
)

// shadows maps a lockfile name to the sibling lockfiles it supersedes when
// both are present in the same directory.
var shadows = map[string][]string{
	"npm-shrinkwrap.json": {"package-lock.json"},
	"go.mod":              {"go.sum"},
}

func concat(initMaps ...InitMap) InitMap {
	result := InitMap{}
	for _, m := range initMaps {
		maps.Copy(result, m)
	}
	return result
}

func vals(initMap InitMap) []InitFn {
	return slices.Concat(slices.Collect(maps.Values(initMap))...)
}

// Parsers returns every parser, ordered by name.
func Parsers() []lockfile.Parser {
	return instantiate(All)
}

// ForEcosystems returns the parsers producing dependencies of the given
// ecosystems, ordered by name.
func ForEcosystems(ecos []ecosystem.Ecosystem) []lockfile.Parser {
	var result []lockfile.Parser
	for _, p := range Parsers() {
		if slices.Contains(ecos, p.Ecosystem()) {
			result = append(result, p)
		}
	}
	return result
}

func instantiate(initMap InitMap) []lockfile.Parser {
	result := make([]lockfile.Parser, 0, len(initMap))
	for _, initers := range initMap {
		for _, initer := range initers {
			result = append(result, initer())
		}
	}
	slices.SortFunc(result, func(a, b lockfile.Parser) int {
		return cmp.Compare(a.Name(), b.Name())
	})
	return result
}

// ParsersFromNames returns a deduplicated list of parsers from a list of
// parser or ecosystem group names.
func ParsersFromNames(names []string) ([]lockfile.Parser, error) {
	resultMap := make(map[string]lockfile.Parser)
	for _, n := range names {
		initers, ok := parserNames[n]
		if !ok {
			return nil, fmt.Errorf("unknown lockfile parser %q", n)
		}
		for _, initer := range initers {
			p := initer()
			if _, ok := resultMap[p.Name()]; !ok {
				resultMap[p.Name()] = p
			}
		}
	}
	result := slices.Collect(maps.Values(resultMap))
	slices.SortFunc(result, func(a, b lockfile.Parser) int {
		return cmp.Compare(a.Name(), b.Name())
	})
	return result, nil
}

// ForPath returns the first of parsers that reads the file at path.
func ForPath(parsers []lockfile.Parser, path string) (lockfile.Parser, bool) {
	for _, p := range parsers {
		if p.FileRequired(path) {
			return p, true
		}
	}
	return nil, false
}

// Prune drops paths superseded by a sibling lockfile in the same directory,
// such as a package-lock.json next to an npm-shrinkwrap.json. The order of
// the remaining paths is preserved.
func Prune(paths []string) []string {
	shadowed := map[string]bool{}
	for _, p := range paths {
		dir, base := filepath.Split(filepath.Clean(p))
		for _, s := range shadows[base] {
			shadowed[filepath.Join(dir, s)] = true
		}
	}

	var result []string
	for _, p := range paths {
		if !shadowed[filepath.Clean(p)] {
			result = append(result, p)
		}
	}
	return result
}
