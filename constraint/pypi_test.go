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

package constraint_test

import (
	"testing"

	"github.com/google/osv-depscan/ecosystem"
)

func TestMatches_PyPI(t *testing.T) {
	runMatchTests(t, ecosystem.PyPI, []matchTest{
		{expr: ">=1.0, <2.0", version: "1.0", want: true},
		{expr: ">=1.0, <2.0", version: "1.5", want: true},
		{expr: ">=1.0, <2.0", version: "2.0", want: false},
		{expr: "~=1.4.5", version: "1.4.9", want: true},
		{expr: "~=1.4.5", version: "1.4.4", want: false},
		{expr: "~=1.4.5", version: "1.5.0", want: false},
		{expr: "~=2.2", version: "2.9", want: true},
		{expr: "~=2.2", version: "3.0", want: false},
		{expr: "==1.2.*", version: "1.2", want: true},
		{expr: "==1.2.*", version: "1.2.9", want: true},
		{expr: "==1.2.*", version: "1.3", want: false},
		{expr: "!=1.2.*, >=1.0", version: "1.2.3", want: false},
		{expr: "!=1.2.*, >=1.0", version: "1.3", want: true},
		{expr: "==1.0", version: "1.0.0", want: true},
		{expr: "==1.0", version: "1.0+ubuntu1", want: true},
		{expr: "==1.0+ubuntu1", version: "1.0", want: false},
		{expr: "<=1.0", version: "1.0+ubuntu1", want: true},
		{expr: ">1.7", version: "1.7+ubuntu1", want: false},
		{expr: ">1.7", version: "1.7.post1", want: false},
		{expr: ">1.7", version: "1.7.1", want: true},
		{expr: ">1.7.post2", version: "1.7.post3", want: true},
		{expr: "===1.0", version: "1.0", want: true},
		{expr: "===1.0", version: "1.0.0", want: false},
		{expr: "<1.10", version: "1.9", want: true},
	})
}

// A comma means every specifier must hold, while "||" accepts either side.
func TestMatches_PyPICombination(t *testing.T) {
	runMatchTests(t, ecosystem.PyPI, []matchTest{
		{expr: ">=1.0, !=1.5", version: "1.5", want: false},
		{expr: ">=1.0, !=1.5", version: "1.6", want: true},
		{expr: ">=1.0, !=1.5 || ==0.9", version: "0.9", want: true},
		{expr: ">=1.0, !=1.5 || ==0.9", version: "0.8", want: false},
		{expr: ">=1.0, !=1.5 || ==1.5", version: "1.5", want: true},
	})
}

func TestMatches_PyPIPrerelease(t *testing.T) {
	runMatchTests(t, ecosystem.PyPI, []matchTest{
		{expr: "<2.0", version: "2.0rc1", want: false},
		{expr: "<2.0", version: "1.9rc1", want: false},
		{expr: "<2.0", version: "1.9.dev1", want: false},
		{expr: ">=2.0rc1, <2.1", version: "2.0rc2", want: true},
		{expr: ">=2.0rc1, <2.0", version: "2.0rc2", want: false},
		{expr: ">=1.0a1, <2.0", version: "1.5a1", want: true},
		{expr: ">=1.0a1, <2.0", version: "2.0a1", want: false},
		{expr: ">=1.9.dev0", version: "1.9.dev1", want: true},
		{expr: "==1.2.*", version: "1.2.0rc1", want: false},
	})
}

func TestMatches_PyPIUnparsable(t *testing.T) {
	runUnparsableTests(t, ecosystem.PyPI, []string{
		"",
		"1.0",
		"~=1",
		">=1.*",
		">=not-a-version",
		">=1.0, ",
		"<1.0+local",
	})
}
