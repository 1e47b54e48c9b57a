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

package depscan

import (
	"cmp"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/google/osv-depscan/lockfile"
	"github.com/google/osv-depscan/lockfile/list"
	"github.com/google/osv-depscan/log"
)

// lockfileRef is a discovered lockfile and the parser that reads it.
type lockfileRef struct {
	// path on disk
	path string
	// rel is the slash separated path relative to the scan root, reported as
	// Dependency.SourceFile.
	rel    string
	parser lockfile.Parser
}

// discover walks root and returns the recognized lockfiles, sorted by
// relative path. Unreadable subdirectories are logged and skipped; only an
// unreadable root fails.
func discover(root string, parsers []lockfile.Parser, dirsToSkip []string) ([]lockfileRef, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		p, ok := list.ForPath(parsers, root)
		if !ok {
			return nil, nil
		}
		return []lockfileRef{{path: root, rel: filepath.ToSlash(filepath.Base(root)), parser: p}}, nil
	}

	var paths []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			log.Warnf("skipping %s: %v", path, err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if path != root && slices.Contains(dirsToSkip, d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}
		if _, ok := list.ForPath(parsers, path); ok {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var refs []lockfileRef
	for _, path := range list.Prune(paths) {
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil, err
		}
		p, _ := list.ForPath(parsers, path)
		refs = append(refs, lockfileRef{path: path, rel: filepath.ToSlash(rel), parser: p})
	}

	slices.SortFunc(refs, func(a, b lockfileRef) int {
		return cmp.Compare(a.rel, b.rel)
	})

	return refs, nil
}
