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

// Package semantic provides version parsing and comparison for the supported
// ecosystems, matching the native versioning rules of each ecosystem.
package semantic

import (
	"errors"
	"fmt"

	"github.com/google/osv-depscan/ecosystem"
)

var (
	// ErrUnsupportedEcosystem is returned for ecosystems without a version order.
	ErrUnsupportedEcosystem = errors.New("unsupported ecosystem")
	// ErrInvalidVersion is returned for strings that aren't versions at all.
	ErrInvalidVersion = errors.New("invalid version")
)

// MustParse is like Parse but panics if the version can't be parsed.
func MustParse(str string, eco ecosystem.Ecosystem) Version {
	v, err := Parse(str, eco)

	if err != nil {
		panic(err)
	}

	return v
}

// Parse attempts to parse the given string as a version for the specified ecosystem,
// returning an ErrUnsupportedEcosystem error if the ecosystem is not supported.
func Parse(str string, eco ecosystem.Ecosystem) (Version, error) {
	switch eco {
	case ecosystem.Cargo, ecosystem.Npm:
		return ParseSemver(str)
	case ecosystem.Go:
		return ParseGo(str)
	case ecosystem.PyPI:
		return ParsePyPI(str)
	case ecosystem.Unknown:
	}

	return nil, fmt.Errorf("%w %s", ErrUnsupportedEcosystem, eco)
}
