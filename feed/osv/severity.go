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

package osv

import (
	"fmt"
	"strings"

	osvpb "github.com/ossf/osv-schema/bindings/go/osvschema"
	gocvss20 "github.com/pandatix/go-cvss/20"
	gocvss30 "github.com/pandatix/go-cvss/30"
	gocvss31 "github.com/pandatix/go-cvss/31"
	gocvss40 "github.com/pandatix/go-cvss/40"

	"github.com/google/osv-depscan/advisory"
)

// CalculateScore returns the numeric score for the given severity field.
// i.e. returns the CVSS Score (0.0 - 10.0)
//
// returns (-1.0, nil) if the severity is empty.
// returns (-1.0, error) if severity type or score is invalid.
func CalculateScore(severity *osvpb.Severity) (float64, error) {
	if severity.GetScore() == "" {
		return -1.0, nil
	}

	score := severity.GetScore()

	switch severity.GetType() {
	case osvpb.Severity_CVSS_V2:
		vec, err := gocvss20.ParseVector(score)
		if err != nil {
			return -1.0, err
		}
		return vec.BaseScore(), nil
	case osvpb.Severity_CVSS_V3:
		switch {
		case strings.HasPrefix(score, "CVSS:3.0/"):
			vec, err := gocvss30.ParseVector(score)
			if err != nil {
				return -1.0, err
			}
			return vec.BaseScore(), nil
		case strings.HasPrefix(score, "CVSS:3.1/"):
			vec, err := gocvss31.ParseVector(score)
			if err != nil {
				return -1.0, err
			}
			return vec.BaseScore(), nil
		default:
			return -1.0, fmt.Errorf("unsupported CVSS_V3 version: %s", score)
		}
	case osvpb.Severity_CVSS_V4:
		vec, err := gocvss40.ParseVector(score)
		if err != nil {
			return -1.0, err
		}
		return vec.Score(), nil
	default:
		return -1.0, fmt.Errorf("unsupported severity type: %s", severity.GetType())
	}
}

// databaseSeverity reads the free-form "severity" rating that GitHub and a
// few other databases put in database_specific.
func databaseSeverity(v *osvpb.Vulnerability, affected []*osvpb.Affected) advisory.Severity {
	rating := v.GetDatabaseSpecific().GetFields()["severity"].GetStringValue()
	for _, a := range affected {
		if rating != "" {
			break
		}
		rating = a.GetDatabaseSpecific().GetFields()["severity"].GetStringValue()
	}

	sev, err := advisory.ParseSeverity(rating)
	if err != nil {
		return advisory.SeverityUnknown
	}

	return sev
}

// severityOf derives the rating of a record: the database rating when there
// is one, else the highest CVSS score across the record and the given
// affected entries.
func severityOf(v *osvpb.Vulnerability, affected []*osvpb.Affected) advisory.Severity {
	if sev := databaseSeverity(v, affected); sev != advisory.SeverityUnknown {
		return sev
	}

	severities := append([]*osvpb.Severity(nil), v.GetSeverity()...)
	for _, a := range affected {
		severities = append(severities, a.GetSeverity()...)
	}

	best := -1.0
	for _, s := range severities {
		score, err := CalculateScore(s)
		if err != nil {
			continue
		}
		best = max(best, score)
	}

	return advisory.FromScore(best)
}
