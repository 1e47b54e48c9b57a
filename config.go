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
	"os"
	"path/filepath"
	"runtime"
	"time"

	"golang.org/x/time/rate"

	"github.com/google/osv-depscan/advisory"
	"github.com/google/osv-depscan/cache"
	"github.com/google/osv-depscan/feed"
	"github.com/google/osv-depscan/feed/osvapi"
	"github.com/google/osv-depscan/lockfile"
	"github.com/google/osv-depscan/lockfile/list"
	"github.com/google/osv-depscan/stats"
)

const (
	// EnvKeyCacheDirectory overrides the default location of the advisory cache.
	EnvKeyCacheDirectory = "OSV_DEPSCAN_CACHE_DIRECTORY"

	defaultMaxConcurrentRequests = 5
	cacheDirName                 = "osv-depscan"
)

// DefaultDirsToSkip are directory names never descended into during discovery.
var DefaultDirsToSkip = []string{"node_modules", ".git", "vendor"}

// ScanConfig stores the settings of a scan run. It is a plain options struct;
// loading it from flags or files is up to the caller.
type ScanConfig struct {
	// Parsers used to discover and read lockfiles. Defaults to every parser.
	Parsers []lockfile.Parser
	// Sources are the upstream advisory sources in priority order.
	Sources []feed.Source
	// Optional: an already opened cache. When nil, a cache is opened in
	// CacheDir for the duration of the scan and closed afterwards.
	Cache *cache.Cache
	// CacheDir holds the durable advisory cache. Empty keeps the cache in memory.
	CacheDir string
	// CacheTTL overrides cache.DefaultTTL when positive.
	CacheTTL time.Duration

	// SeverityFloor drops findings below this severity.
	SeverityFloor advisory.Severity
	// IgnorePatterns are globs matched against dependency names and lockfile
	// paths; a finding matching any of them is dropped.
	IgnorePatterns []string
	// ExcludeDev drops findings on development-only dependencies.
	ExcludeDev bool

	// MaxConcurrentRequests bounds the per-package lookup workers and the
	// in-flight upstream requests.
	MaxConcurrentRequests int
	// ParseWorkers bounds the lockfiles parsed in parallel.
	ParseWorkers int
	// RequestTimeout bounds each upstream request.
	RequestTimeout time.Duration
	// Optional: caps upstream requests per second.
	RateLimit rate.Limit
	// Timeout is the scan-wide deadline for network access. Zero means none.
	Timeout time.Duration
	// Offline skips every fetch and answers from the cache alone.
	Offline bool
	// Refresh treats every cache entry as stale.
	Refresh bool

	// DirsToSkip are directory names skipped during discovery.
	DirsToSkip []string
	// Optional: stats allows to enter a metric hook. If left nil, no metrics will be recorded.
	Stats stats.Collector
}

// DefaultScanConfig returns the default configuration: every parser, the
// OSV.dev API as the only source and a durable cache in DefaultCacheDir.
func DefaultScanConfig() *ScanConfig {
	feedDefaults := feed.DefaultConfig()

	return &ScanConfig{
		Parsers:               list.Parsers(),
		Sources:               []feed.Source{osvapi.New()},
		CacheDir:              DefaultCacheDir(),
		CacheTTL:              cache.DefaultTTL,
		MaxConcurrentRequests: defaultMaxConcurrentRequests,
		ParseWorkers:          runtime.NumCPU(),
		RequestTimeout:        feedDefaults.RequestTimeout,
		DirsToSkip:            DefaultDirsToSkip,
		Stats:                 stats.NoopCollector{},
	}
}

// DefaultCacheDir returns the directory of the advisory cache: the
// EnvKeyCacheDirectory variable when set, else a directory in the user cache
// dir, else one in the temp dir.
func DefaultCacheDir() string {
	if p, ok := os.LookupEnv(EnvKeyCacheDirectory); ok && p != "" {
		return p
	}

	base, err := os.UserCacheDir()
	if err != nil {
		base = os.TempDir()
	}

	return filepath.Join(base, cacheDirName)
}

// withDefaults fills the zero fields of a copy of cfg.
func (cfg ScanConfig) withDefaults() ScanConfig {
	if cfg.Parsers == nil {
		cfg.Parsers = list.Parsers()
	}
	if cfg.MaxConcurrentRequests <= 0 {
		cfg.MaxConcurrentRequests = defaultMaxConcurrentRequests
	}
	if cfg.ParseWorkers <= 0 {
		cfg.ParseWorkers = runtime.NumCPU()
	}
	if cfg.DirsToSkip == nil {
		cfg.DirsToSkip = DefaultDirsToSkip
	}
	if cfg.Stats == nil {
		cfg.Stats = stats.NoopCollector{}
	}
	return cfg
}

func (cfg ScanConfig) feedConfig() feed.Config {
	fc := feed.DefaultConfig()
	if cfg.RequestTimeout > 0 {
		fc.RequestTimeout = cfg.RequestTimeout
	}
	fc.MaxConcurrentRequests = cfg.MaxConcurrentRequests
	fc.RateLimit = cfg.RateLimit
	fc.Stats = cfg.Stats
	return fc
}
