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

// Package feed queries upstream advisory sources and merges their answers
// into normalized advisories.
package feed

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/osv-depscan/advisory"
	"github.com/google/osv-depscan/ecosystem"
)

// Source is one upstream advisory database. Implementations normalize their
// records into advisories before returning them.
type Source interface {
	// Name identifies the source in warnings and stats.
	Name() string
	// Query returns every advisory affecting the named package.
	Query(ctx context.Context, eco ecosystem.Ecosystem, name string) ([]advisory.Advisory, error)
}

// Loader is implemented by sources that answer from a local database which
// has to be loaded first. The Client calls Load before every query, outside
// of the per-request timeout, so a slow first load doesn't time out every
// query waiting on it. Load is expected to apply its own time limit.
type Loader interface {
	Load(ctx context.Context, eco ecosystem.Ecosystem) error
}

var (
	// ErrNoSources is returned by Fetch when the client has no sources configured.
	ErrNoSources = errors.New("no advisory sources configured")
	// ErrAllSourcesFailed is returned by Fetch when no source answered.
	ErrAllSourcesFailed = errors.New("all advisory sources failed")
)

// ErrorKind classifies a source failure.
type ErrorKind int

const (
	// KindUnavailable covers connection, protocol and decoding failures.
	KindUnavailable ErrorKind = iota
	// KindTimeout means the per-request timeout or the scan deadline expired.
	KindTimeout
)

func (k ErrorKind) String() string {
	if k == KindTimeout {
		return "timeout"
	}
	return "unavailable"
}

// SourceError reports a failed query against one source.
type SourceError struct {
	Source string
	Kind   ErrorKind
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("advisory source %s %s: %v", e.Source, e.Kind, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

func classify(ctx context.Context, source string, err error) *SourceError {
	kind := KindUnavailable
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		kind = KindTimeout
	}
	return &SourceError{Source: source, Kind: kind, Err: err}
}

// SourceResult is the outcome of querying a single source. Exactly one of
// Advisories and Err is meaningful.
type SourceResult struct {
	Source     string
	Advisories []advisory.Advisory
	Err        *SourceError
}

// Result is the outcome of a Fetch call across every configured source.
type Result struct {
	// Advisories are the merged advisories of every source that answered.
	Advisories []advisory.Advisory
	// Sources holds one entry per configured source, in priority order.
	Sources []SourceResult
}

// Failures returns the errors of the sources that did not answer.
func (r Result) Failures() []*SourceError {
	var errs []*SourceError
	for _, s := range r.Sources {
		if s.Err != nil {
			errs = append(errs, s.Err)
		}
	}
	return errs
}

// Answered reports whether at least one source answered.
func (r Result) Answered() bool {
	for _, s := range r.Sources {
		if s.Err == nil {
			return true
		}
	}
	return false
}
