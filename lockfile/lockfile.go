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

// Package lockfile defines the normalized dependency record produced by the
// lockfile parsers and the errors they report.
package lockfile

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"go.uber.org/multierr"

	"github.com/google/osv-depscan/ecosystem"
	"github.com/google/osv-depscan/semantic"
)

// ErrMalformedRoot is returned when the root structure of a lockfile can't be
// read at all. No dependencies are returned alongside it.
var ErrMalformedRoot = errors.New("malformed lockfile")

// PartialFailureError reports entries of a lockfile that were skipped
// because they couldn't be read. It is returned together with the
// dependencies that could be read.
type PartialFailureError struct {
	Path    string
	Skipped int
	// Err combines the reasons the entries were skipped.
	Err error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("%s: skipped %d unreadable entries: %v", e.Path, e.Skipped, e.Err)
}

func (e *PartialFailureError) Unwrap() error {
	return e.Err
}

// Dependency is a resolved package version declared by a lockfile.
type Dependency struct {
	Name    string
	Version string
	// Parsed is Version under the ordering rules of Ecosystem.
	Parsed     semantic.Version
	Ecosystem  ecosystem.Ecosystem
	Direct     bool
	Dev        bool
	SourceFile string
}

// Parser reads one kind of lockfile.
type Parser interface {
	// Name of the parser, for logs and stats.
	Name() string
	// Ecosystem of the dependencies the parser produces.
	Ecosystem() ecosystem.Ecosystem
	// FileRequired reports whether the file at path is read by this parser.
	FileRequired(path string) bool
	// Parse reads the contents of the lockfile at path. It has no side
	// effects. Unreadable entries are skipped and reported through a
	// *PartialFailureError returned together with the remaining dependencies;
	// an unreadable root returns an error wrapping ErrMalformedRoot.
	Parse(path string, data []byte) ([]Dependency, error)
}

// MalformedRoot wraps err as a malformed root error for the file at path.
func MalformedRoot(path string, err error) error {
	return fmt.Errorf("%w %s: %w", ErrMalformedRoot, path, err)
}

type setKey struct {
	name    string
	version string
}

// Set accumulates the dependencies of one lockfile, merging entries with the
// same name and version that are reached through different paths. A merged
// entry is direct if any occurrence was and dev only if every occurrence was.
type Set struct {
	eco     ecosystem.Ecosystem
	path    string
	deps    map[setKey]*Dependency
	skipped int
	errs    error
}

// NewSet returns an empty Set for the lockfile at path.
func NewSet(eco ecosystem.Ecosystem, path string) *Set {
	return &Set{
		eco:  eco,
		path: path,
		deps: map[setKey]*Dependency{},
	}
}

// Add records a dependency. Entries whose version can't be parsed are
// skipped and counted towards the partial failure.
func (s *Set) Add(name, version string, direct, dev bool) {
	if name == "" {
		s.Skip(fmt.Errorf("entry with version %q has no name", version))
		return
	}

	parsed, err := semantic.Parse(version, s.eco)
	if err == nil {
		if pv, ok := parsed.(semantic.PyPIVersion); ok && pv.IsLegacy() {
			err = fmt.Errorf("%w: %q", semantic.ErrInvalidVersion, version)
		}
	}
	if err != nil {
		s.Skip(fmt.Errorf("%s: %w", name, err))
		return
	}

	name = s.eco.NormalizeName(name)
	key := setKey{name: name, version: version}

	if existing, ok := s.deps[key]; ok {
		existing.Direct = existing.Direct || direct
		existing.Dev = existing.Dev && dev

		return
	}

	s.deps[key] = &Dependency{
		Name:       name,
		Version:    version,
		Parsed:     parsed,
		Ecosystem:  s.eco,
		Direct:     direct,
		Dev:        dev,
		SourceFile: s.path,
	}
}

// Skip records an entry that couldn't be read.
func (s *Set) Skip(err error) {
	s.skipped++
	s.errs = multierr.Append(s.errs, err)
}

// Result returns the dependencies sorted by name and version, and a
// *PartialFailureError if any entries were skipped.
func (s *Set) Result() ([]Dependency, error) {
	deps := make([]Dependency, 0, len(s.deps))
	for _, d := range s.deps {
		deps = append(deps, *d)
	}

	slices.SortFunc(deps, func(a, b Dependency) int {
		if c := cmp.Compare(a.Name, b.Name); c != 0 {
			return c
		}

		return cmp.Compare(a.Version, b.Version)
	})

	if s.skipped > 0 {
		return deps, &PartialFailureError{Path: s.path, Skipped: s.skipped, Err: s.errs}
	}

	return deps, nil
}
