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

// Package cli defines the structures to store the CLI flags used by the scanner binary.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/gobwas/glob"
	"golang.org/x/time/rate"

	depscan "github.com/google/osv-depscan"
	"github.com/google/osv-depscan/advisory"
	"github.com/google/osv-depscan/ecosystem"
	"github.com/google/osv-depscan/feed"
	"github.com/google/osv-depscan/feed/osvapi"
	"github.com/google/osv-depscan/feed/osvzip"
	"github.com/google/osv-depscan/lockfile"
	"github.com/google/osv-depscan/lockfile/list"
	"github.com/google/osv-depscan/log"
)

// StringListFlag is a type to be passed to flag.Var that supports list flags passed as repeated
// flags, e.g. ./depscan --ignore a --ignore b,c the library will call Set("a") then Set("b,c").
type StringListFlag struct {
	set          bool
	value        []string
	defaultValue []string
}

// NewStringListFlag creates a new StringListFlag with the given default value.
func NewStringListFlag(defaultValue []string) StringListFlag {
	return StringListFlag{defaultValue: defaultValue}
}

// Set gets called whenever a new instance of a flag is read during CLI arg parsing.
func (s *StringListFlag) Set(x string) error {
	for _, v := range strings.Split(x, ",") {
		if v = strings.TrimSpace(v); v != "" {
			s.value = append(s.value, v)
		}
	}
	s.set = true
	return nil
}

// Get returns the underlying []string value stored by this flag struct.
func (s *StringListFlag) Get() any {
	return s.GetSlice()
}

// GetSlice returns the underlying []string value stored by this flag struct.
func (s *StringListFlag) GetSlice() []string {
	if s.set {
		return s.value
	}
	return s.defaultValue
}

func (s *StringListFlag) String() string {
	if len(s.value) == 0 {
		return ""
	}
	return fmt.Sprint(s.value)
}

// Source names accepted by --sources.
const (
	SourceAPI = osvapi.Name
	SourceZip = osvzip.Name
)

var supportedSources = []string{SourceAPI, SourceZip}

// Flags contains a field for all the cli flags that can be set.
type Flags struct {
	Root                  string
	ResultFile            string
	Parsers               []string
	Ecosystems            []string
	Sources               []string
	IgnorePatterns        []string
	DirsToSkip            []string
	SeverityFloor         string
	ExcludeDev            bool
	MaxConcurrentRequests int
	RequestTimeout        time.Duration
	RateLimit             float64
	Timeout               time.Duration
	CacheDir              string
	CacheTTL              time.Duration
	ZipDir                string
	Offline               bool
	Refresh               bool
	Verbose               bool
}

// ValidateFlags validates the passed command line flags.
func ValidateFlags(flags *Flags) error {
	if flags.Root == "" {
		return errors.New("--root needs to be set")
	}
	if flags.Offline && flags.Refresh {
		return errors.New("--offline and --refresh cannot be used together")
	}
	if _, err := advisory.ParseSeverity(flags.SeverityFloor); err != nil {
		return fmt.Errorf("--severity: %w", err)
	}
	if _, err := list.ParsersFromNames(flags.Parsers); err != nil {
		return fmt.Errorf("--parsers: %w", err)
	}
	if _, err := parseEcosystems(flags.Ecosystems); err != nil {
		return fmt.Errorf("--ecosystems: %w", err)
	}
	for _, s := range flags.Sources {
		if !slices.Contains(supportedSources, s) {
			return fmt.Errorf("--sources: unknown source %q, supported sources are %v", s, supportedSources)
		}
	}
	for _, p := range flags.IgnorePatterns {
		if _, err := glob.Compile(p, '/'); err != nil {
			return fmt.Errorf("--ignore %q: %w", p, err)
		}
	}
	if flags.MaxConcurrentRequests < 0 {
		return errors.New("--max-concurrent-requests can't be negative")
	}
	if flags.RateLimit < 0 {
		return errors.New("--rate-limit can't be negative")
	}
	if flags.ResultFile != "" && filepath.Ext(flags.ResultFile) != ".json" {
		return fmt.Errorf("--result %s: only .json result files are supported", flags.ResultFile)
	}
	return nil
}

// GetScanConfig constructs a scan config from the provided CLI flags.
func (f *Flags) GetScanConfig() (*depscan.ScanConfig, error) {
	cfg := depscan.DefaultScanConfig()

	if len(f.Parsers) > 0 {
		parsers, err := list.ParsersFromNames(f.Parsers)
		if err != nil {
			return nil, err
		}
		cfg.Parsers = parsers
	}
	if len(f.Ecosystems) > 0 {
		ecos, err := parseEcosystems(f.Ecosystems)
		if err != nil {
			return nil, err
		}
		cfg.Parsers = restrictParsers(cfg.Parsers, list.ForEcosystems(ecos))
	}

	severity, err := advisory.ParseSeverity(f.SeverityFloor)
	if err != nil {
		return nil, err
	}
	cfg.SeverityFloor = severity

	if f.CacheDir != "" {
		cfg.CacheDir = f.CacheDir
	}
	if f.CacheTTL > 0 {
		cfg.CacheTTL = f.CacheTTL
	}
	if f.MaxConcurrentRequests > 0 {
		cfg.MaxConcurrentRequests = f.MaxConcurrentRequests
	}
	if f.RequestTimeout > 0 {
		cfg.RequestTimeout = f.RequestTimeout
	}
	if f.RateLimit > 0 {
		cfg.RateLimit = rate.Limit(f.RateLimit)
	}
	if len(f.DirsToSkip) > 0 {
		cfg.DirsToSkip = f.DirsToSkip
	}

	cfg.Sources = f.sources(cfg.CacheDir)
	cfg.IgnorePatterns = f.IgnorePatterns
	cfg.ExcludeDev = f.ExcludeDev
	cfg.Timeout = f.Timeout
	cfg.Offline = f.Offline
	cfg.Refresh = f.Refresh

	return cfg, nil
}

func parseEcosystems(names []string) ([]ecosystem.Ecosystem, error) {
	ecos := make([]ecosystem.Ecosystem, 0, len(names))
	for _, n := range names {
		eco, err := ecosystem.Parse(n)
		if err != nil {
			return nil, err
		}
		ecos = append(ecos, eco)
	}
	return ecos, nil
}

// restrictParsers keeps the parsers that are also in allowed.
func restrictParsers(parsers, allowed []lockfile.Parser) []lockfile.Parser {
	var result []lockfile.Parser
	for _, p := range parsers {
		if slices.ContainsFunc(allowed, func(a lockfile.Parser) bool { return a.Name() == p.Name() }) {
			result = append(result, p)
		}
	}
	return result
}

func (f *Flags) sources(cacheDir string) []feed.Source {
	var sources []feed.Source
	for _, name := range f.Sources {
		switch name {
		case SourceAPI:
			sources = append(sources, osvapi.New())
		case SourceZip:
			dir := f.ZipDir
			if dir == "" {
				dir = filepath.Join(cacheDir, "osv-zips")
			}
			sources = append(sources, osvzip.New(dir, f.Offline))
		}
	}
	return sources
}

// WriteScanResults writes the scan results to the file specified by the CLI
// flags, or to w if no file was given.
func (f *Flags) WriteScanResults(result *depscan.ScanResult, w io.Writer) error {
	out := toJSON(result)

	if f.ResultFile == "" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	log.Infof("Writing scan results to %s", f.ResultFile)
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(f.ResultFile, append(data, '\n'), 0644)
}
