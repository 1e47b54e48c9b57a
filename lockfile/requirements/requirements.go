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

// Package requirements parses pip requirements files.
package requirements

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/osv-depscan/ecosystem"
	"github.com/google/osv-depscan/lockfile"
	"github.com/google/osv-depscan/log"
)

const (
	// Name is the unique name of this parser.
	Name = "python/requirements"
)

var (
	// Regex matching comments in requirements files.
	// https://github.com/pypa/pip/blob/72a32e/src/pip/_internal/req/req_file.py#L492
	reComment    = regexp.MustCompile(`(^|\s+)#.*$`)
	reWhitespace = regexp.MustCompile(`[ \t\r]`)
	reValidPkg   = regexp.MustCompile(`^[A-Za-z0-9]([A-Za-z0-9._-]*[A-Za-z0-9])?$`)
	reEnvVar     = regexp.MustCompile(`\$\{[A-Z0-9_]+\}`)
	reExtras     = regexp.MustCompile(`\[[^\[\]]*\]`)
	// Per-requirement options run to the end of the line.
	reTextAfterFirstOptionInclusive = regexp.MustCompile(`(?:--hash|--global-option|--config-settings|-C).*`)
)

// Parser parses requirements files. Only requirements pinned to an exact
// version with "==" or "===" resolve to a dependency; anything else is left
// for a resolver and ignored.
type Parser struct{}

// New returns a new requirements file parser.
func New() lockfile.Parser { return Parser{} }

// Name of the parser.
func (Parser) Name() string { return Name }

// Ecosystem of the parsed dependencies.
func (Parser) Ecosystem() ecosystem.Ecosystem { return ecosystem.PyPI }

// FileRequired returns true for .txt files with "requirements" in their name.
func (Parser) FileRequired(path string) bool {
	return filepath.Ext(path) == ".txt" && strings.Contains(filepath.Base(path), "requirements")
}

// Parse reads the pinned requirements of a requirements file. Every entry is
// treated as direct, since the file lists what the project asked for.
func (Parser) Parse(path string, data []byte) ([]lockfile.Dependency, error) {
	if !utf8.Valid(data) {
		return nil, lockfile.MalformedRoot(path, errors.New("not valid UTF-8"))
	}

	set := lockfile.NewSet(ecosystem.PyPI, path)
	s := bufio.NewScanner(bytes.NewReader(data))

	for s.Scan() {
		l := readLine(s, &strings.Builder{})
		l = reTextAfterFirstOptionInclusive.ReplaceAllString(l, "")
		l = reWhitespace.ReplaceAllString(l, "")
		// environment markers
		l, _, _ = strings.Cut(l, ";")
		l = reExtras.ReplaceAllString(l, "")

		if l == "" {
			continue
		}

		// Global options such as -r, -c and --index-url aren't followed.
		// https://pip.pypa.io/en/stable/reference/requirements-file-format/#global-options
		if strings.HasPrefix(l, "-") {
			log.Debugf("%s: ignoring option %q", path, l)
			continue
		}

		// direct references like "pkg @ https://..." or bare URLs
		if strings.Contains(l, "@") || strings.Contains(l, "://") {
			log.Debugf("%s: ignoring direct reference %q", path, l)
			continue
		}

		name, version, pinned := pin(l)
		if !pinned {
			log.Debugf("%s: ignoring unpinned requirement %q", path, l)
			continue
		}

		if !reValidPkg.MatchString(name) {
			set.Skip(fmt.Errorf("invalid package name %q", name))
			continue
		}

		set.Add(name, version, true, false)
	}

	if err := s.Err(); err != nil {
		return nil, lockfile.MalformedRoot(path, err)
	}

	return set.Result()
}

// pin splits an exactly pinned requirement such as "name==1.2.3" into its
// name and version.
func pin(l string) (name, version string, ok bool) {
	for _, sep := range []string{"===", "=="} {
		if name, version, found := strings.Cut(l, sep); found {
			// "==1.*" and compound specifiers don't pin a single version
			if strings.ContainsAny(name+version, "*,<>!=~") {
				return "", "", false
			}

			return name, version, true
		}
	}

	return "", "", false
}

// readLine reads a line from the scanner, removes comments and joins it with
// the next line if it ends with a backslash.
func readLine(scanner *bufio.Scanner, builder *strings.Builder) string {
	l := reComment.ReplaceAllString(scanner.Text(), "")

	if reEnvVar.MatchString(l) {
		// Ignore env variables
		// https://github.com/pypa/pip/blob/72a32e/src/pip/_internal/req/req_file.py#L503
		return ""
	}

	if strings.HasSuffix(l, `\`) {
		builder.WriteString(l[:len(l)-1])
		if !scanner.Scan() {
			return builder.String()
		}

		return readLine(scanner, builder)
	}

	builder.WriteString(l)

	return builder.String()
}

var _ lockfile.Parser = Parser{}
