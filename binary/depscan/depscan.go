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

// The depscan command scans the lockfiles under a directory for dependencies
// with known vulnerabilities.
package main

import (
	"flag"
	"os"

	"github.com/google/osv-depscan/binary/cli"
	"github.com/google/osv-depscan/binary/scanrunner"
	"github.com/google/osv-depscan/log"
)

func main() {
	os.Exit(run(os.Args))
}

func run(args []string) int {
	var subcommand string
	if len(args) >= 2 {
		subcommand = args[1]
	}
	rest := args[1:]
	if subcommand == "scan" {
		rest = args[2:]
	}

	flags, err := parseFlags(rest)
	if err != nil {
		log.Errorf("Error parsing CLI args: %v", err)
		return 1
	}
	return scanrunner.RunScan(flags)
}

func parseFlags(args []string) (*cli.Flags, error) {
	fs := flag.NewFlagSet("depscan", flag.ExitOnError)
	root := fs.String("root", ".", "The directory to search for lockfiles, or a single lockfile")
	resultFile := fs.String("result", "", "The path of the JSON scan result file. Results are written to stdout if unset")
	parsers := cli.NewStringListFlag([]string{"all"})
	fs.Var(&parsers, "parsers", "Comma-separated list of lockfile parsers or ecosystem groups (rust, javascript, python, go, all)")
	var ecosystems cli.StringListFlag
	fs.Var(&ecosystems, "ecosystems", "Comma-separated list of ecosystems to scan (crates.io, npm, PyPI, Go). All ecosystems are scanned if unset")
	sources := cli.NewStringListFlag([]string{cli.SourceAPI})
	fs.Var(&sources, "sources", "Comma-separated list of advisory sources in priority order (osv.dev, osv.dev-zip)")
	var ignore cli.StringListFlag
	fs.Var(&ignore, "ignore", "Comma-separated list of globs; findings whose package name or lockfile path matches are dropped")
	var dirsToSkip cli.StringListFlag
	fs.Var(&dirsToSkip, "skip-dirs", "Comma-separated list of directory names not to descend into")
	severity := fs.String("severity", "", "Drop findings below this severity (low, medium, high, critical)")
	excludeDev := fs.Bool("exclude-dev", false, "Drop findings on development-only dependencies")
	maxRequests := fs.Int("max-concurrent-requests", 0, "Maximum number of concurrent package lookups and upstream requests")
	requestTimeout := fs.Duration("request-timeout", 0, "Timeout of a single upstream request")
	rateLimit := fs.Float64("rate-limit", 0, "Maximum upstream requests per second, 0 for no limit")
	timeout := fs.Duration("timeout", 0, "Deadline for all network access of the scan, 0 for none")
	cacheDir := fs.String("cache-dir", "", "Directory of the advisory cache. Defaults to $OSV_DEPSCAN_CACHE_DIRECTORY or the user cache dir")
	cacheTTL := fs.Duration("cache-ttl", 0, "How long cached advisories are considered fresh")
	zipDir := fs.String("zip-dir", "", "Directory storing the OSV zip exports used by the osv.dev-zip source")
	offline := fs.Bool("offline", false, "Offline mode: answer from the advisory cache only")
	refresh := fs.Bool("refresh", false, "Refetch the advisories of every package regardless of cache freshness")
	verbose := fs.Bool("verbose", false, "Enable this to print debug logs")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 && *root == "." {
		*root = fs.Arg(0)
	}

	flags := &cli.Flags{
		Root:                  *root,
		ResultFile:            *resultFile,
		Parsers:               parsers.GetSlice(),
		Ecosystems:            ecosystems.GetSlice(),
		Sources:               sources.GetSlice(),
		IgnorePatterns:        ignore.GetSlice(),
		DirsToSkip:            dirsToSkip.GetSlice(),
		SeverityFloor:         *severity,
		ExcludeDev:            *excludeDev,
		MaxConcurrentRequests: *maxRequests,
		RequestTimeout:        *requestTimeout,
		RateLimit:             *rateLimit,
		Timeout:               *timeout,
		CacheDir:              *cacheDir,
		CacheTTL:              *cacheTTL,
		ZipDir:                *zipDir,
		Offline:               *offline,
		Refresh:               *refresh,
		Verbose:               *verbose,
	}
	if err := cli.ValidateFlags(flags); err != nil {
		return nil, err
	}
	return flags, nil
}
