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

package semantic

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/mod/semver"
)

// toolchainVersionFinder matches Go toolchain versions such as "1.21rc1" or
// "go1.22.3", which aren't semantic versions as written.
var toolchainVersionFinder = regexp.MustCompile(`^(?:go)?(\d+)\.(\d+)(?:\.(\d+))?((?:rc|beta)\d+)?$`)

// CanonicalGo returns str as a "v"-prefixed semantic version accepted by the
// Go module system, converting toolchain versions where needed.
func CanonicalGo(str string) (string, bool) {
	if v := "v" + strings.TrimPrefix(str, "v"); semver.IsValid(v) {
		return v, true
	}

	match := toolchainVersionFinder.FindStringSubmatch(str)
	if match == nil {
		return "", false
	}

	patch := match[3]
	if patch == "" {
		patch = "0"
	}

	v := fmt.Sprintf("v%s.%s.%s", match[1], match[2], patch)
	if match[4] != "" {
		v += "-" + match[4]
	}

	return v, semver.IsValid(v)
}

// ParseGo parses a Go module or toolchain version.
func ParseGo(str string) (SemverVersion, error) {
	canonical, ok := CanonicalGo(str)

	if !ok {
		return SemverVersion{}, fmt.Errorf("%w: %q is not a Go module version", ErrInvalidVersion, str)
	}

	comps, build := splitSemver(canonical)

	return SemverVersion{components: comps, build: build, original: str}, nil
}
