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

package gomod

import (
	"bufio"
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/google/osv-depscan/ecosystem"
	"github.com/google/osv-depscan/lockfile"
)

const (
	// SumName is the unique name of the go.sum parser.
	SumName = "go/gosum"
)

// SumParser parses go.sum files, for modules without a go.mod next to them.
//
// go.sum lists every version whose contents were checked, so only the
// highest version of each module is reported, as minimal version selection
// would pick it. This may still produce false positives when the file is
// out of date.
type SumParser struct{}

// NewSum returns a new go.sum parser.
func NewSum() lockfile.Parser { return SumParser{} }

// Name of the parser.
func (SumParser) Name() string { return SumName }

// Ecosystem of the parsed dependencies.
func (SumParser) Ecosystem() ecosystem.Ecosystem { return ecosystem.Go }

// FileRequired returns true if the specified file matches go.sum files.
func (SumParser) FileRequired(path string) bool {
	return filepath.Base(path) == "go.sum"
}

// Parse reads the selected module versions of a go.sum file.
func (SumParser) Parse(path string, data []byte) ([]lockfile.Dependency, error) {
	var (
		set      = lockfile.NewSet(ecosystem.Go, path)
		selected = map[string]string{}
		order    []string
	)

	scanner := bufio.NewScanner(bytes.NewReader(data))

	for lineNumber := 1; scanner.Scan(); lineNumber++ {
		line := strings.TrimSpace(scanner.Text())

		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		if len(parts) != 3 {
			set.Skip(fmt.Errorf("line %d: expected 3 fields, got %d", lineNumber, len(parts)))
			continue
		}

		// lines for "/go.mod" only verify the module's go.mod file
		if strings.HasSuffix(parts[1], "/go.mod") {
			continue
		}

		if !semver.IsValid(parts[1]) {
			set.Skip(fmt.Errorf("line %d: invalid version %q", lineNumber, parts[1]))
			continue
		}

		name := parts[0]
		current, ok := selected[name]
		if !ok {
			order = append(order, name)
		}
		if !ok || semver.Compare(parts[1], current) > 0 {
			selected[name] = parts[1]
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, lockfile.MalformedRoot(path, err)
	}

	for _, name := range order {
		set.Add(name, strings.TrimPrefix(selected[name], "v"), false, false)
	}

	return set.Result()
}

var _ lockfile.Parser = SumParser{}
