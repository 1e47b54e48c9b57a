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

// Package scanrunner provides the main function for running a scan with the depscan binary.
package scanrunner

import (
	"context"
	"io"
	"os"

	depscan "github.com/google/osv-depscan"
	"github.com/google/osv-depscan/binary/cli"
	"github.com/google/osv-depscan/log"
)

// RunScan executes the scan with the given CLI flags
// and returns the exit code passed to os.Exit() in the main binary.
func RunScan(flags *cli.Flags) int {
	return run(context.Background(), flags, os.Stdout)
}

func run(ctx context.Context, flags *cli.Flags, stdout io.Writer) int {
	if flags.Verbose {
		log.SetLogger(log.NewDefaultLogger(os.Stderr, true))
	}

	cfg, err := flags.GetScanConfig()
	if err != nil {
		log.Errorf("%v.GetScanConfig(): %v", flags, err)
		return 1
	}

	log.Infof("Scanning %s with %d lockfile parsers and %d advisory sources", flags.Root, len(cfg.Parsers), len(cfg.Sources))

	result, err := depscan.New().Scan(ctx, flags.Root, cfg)
	if err != nil {
		log.Errorf("Scan failed: %v", err)
		return 1
	}

	for _, err := range result.ParseErrors {
		log.Warnf("Lockfile not fully parsed: %v", err)
	}
	for _, err := range result.FeedWarnings {
		log.Warnf("Advisory source failed: %v", err)
	}
	for _, err := range result.CacheWarnings {
		log.Warnf("Advisory cache: %v", err)
	}
	log.Infof("Found %d findings in %d lockfiles", len(result.Findings), len(result.Lockfiles))

	if err := flags.WriteScanResults(result, stdout); err != nil {
		log.Errorf("Error writing scan results: %v", err)
		return 1
	}

	return 0
}
