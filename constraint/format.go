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

package constraint

import (
	"strings"

	"github.com/google/osv-depscan/ecosystem"
)

// Interval renders the interval starting at introduced and ending at upper
// as a range expression in the grammar of eco. An introduced version of ""
// or "0" leaves the interval unbounded below, and an empty upper leaves it
// unbounded above. The upper end is included when inclusive is set.
func Interval(eco ecosystem.Ecosystem, introduced, upper string, inclusive bool) string {
	var parts []string

	if introduced != "" && introduced != "0" {
		parts = append(parts, ">="+introduced)
	}

	if upper != "" {
		if inclusive {
			parts = append(parts, "<="+upper)
		} else {
			parts = append(parts, "<"+upper)
		}
	}

	if len(parts) == 0 {
		if eco == ecosystem.PyPI {
			return ">=0"
		}

		return "*"
	}

	switch eco {
	case ecosystem.Cargo, ecosystem.PyPI:
		return strings.Join(parts, ", ")
	case ecosystem.Npm, ecosystem.Go, ecosystem.Unknown:
	}

	return strings.Join(parts, " ")
}

// Exact renders a range expression matching only version.
func Exact(eco ecosystem.Ecosystem, version string) string {
	if eco == ecosystem.PyPI {
		return "==" + version
	}

	return "=" + version
}
