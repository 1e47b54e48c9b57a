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

package osvzip

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	osvpb "github.com/ossf/osv-schema/bindings/go/osvschema"

	"github.com/google/osv-depscan/ecosystem"
	"github.com/google/osv-depscan/feed/osv"
	"github.com/google/osv-depscan/log"
)

type zipDB struct {
	eco ecosystem.Ecosystem
	// the url that the zip archive was downloaded from
	archiveURL string
	// the path to the zip archive on disk
	storedAt   string
	offline    bool
	userAgent  string
	httpClient *http.Client

	// records indexed by the normalized names of the packages they affect
	byPackage map[string][]*osvpb.Vulnerability
}

func (db *zipDB) newRequest(ctx context.Context, method string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, db.archiveURL, nil)
	if err != nil {
		return nil, err
	}
	if db.userAgent != "" {
		req.Header.Set("User-Agent", db.userAgent)
	}
	return req, nil
}

func (db *zipDB) fetchRemoteArchiveCRC32CHash(ctx context.Context) (uint32, error) {
	req, err := db.newRequest(ctx, http.MethodHead)
	if err != nil {
		return 0, err
	}

	resp, err := db.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("db host returned %s", resp.Status)
	}

	for _, value := range resp.Header.Values("X-Goog-Hash") {
		if after, ok := strings.CutPrefix(value, "crc32c="); ok {
			out, err := base64.StdEncoding.DecodeString(after)
			if err != nil {
				return 0, fmt.Errorf("could not decode crc32c= checksum: %w", err)
			}
			if len(out) != 4 {
				return 0, fmt.Errorf("crc32c= checksum has %d bytes, want 4", len(out))
			}

			return binary.BigEndian.Uint32(out), nil
		}
	}

	return 0, errors.New("could not find crc32c= checksum")
}

func localArchiveCRC32CHash(data []byte) uint32 {
	return crc32.Checksum(data, crc32.MakeTable(crc32.Castagnoli))
}

// fetchZip returns the archive, reusing the copy on disk when its checksum
// matches the remote one.
func (db *zipDB) fetchZip(ctx context.Context) ([]byte, error) {
	cached, err := os.ReadFile(db.storedAt)

	if db.offline {
		if err != nil {
			return nil, ErrOfflineDatabaseNotFound
		}
		return cached, nil
	}

	if err == nil {
		remoteHash, err := db.fetchRemoteArchiveCRC32CHash(ctx)
		if err != nil {
			return nil, err
		}

		if localArchiveCRC32CHash(cached) == remoteHash {
			return cached, nil
		}
	}

	req, err := db.newRequest(ctx, http.MethodGet)
	if err != nil {
		return nil, fmt.Errorf("could not retrieve OSV database archive: %w", err)
	}

	resp, err := db.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not retrieve OSV database archive: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("db host returned %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("could not read OSV database archive from response: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(db.storedAt), 0750); err != nil {
		log.Warnf("osvzip: could not create %s: %v", filepath.Dir(db.storedAt), err)
		return body, nil
	}
	//nolint:gosec // being world readable is fine
	if err := os.WriteFile(db.storedAt, body, 0644); err != nil {
		log.Warnf("osvzip: could not store archive at %s: %v", db.storedAt, err)
	}

	return body, nil
}

// loadZipFile indexes one record of the archive. Unreadable records are skipped.
func (db *zipDB) loadZipFile(zipFile *zip.File) {
	file, err := zipFile.Open()
	if err != nil {
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return
	}

	vuln, err := osv.Decode(content)
	if err != nil {
		log.Debugf("osvzip: skipping %s: %v", zipFile.Name, err)
		return
	}
	if vuln.GetWithdrawn() != nil {
		return
	}

	seen := map[string]bool{}
	for _, affected := range vuln.GetAffected() {
		eco, err := ecosystem.Parse(affected.GetPackage().GetEcosystem())
		if err != nil || eco != db.eco {
			continue
		}
		name := db.eco.NormalizeName(affected.GetPackage().GetName())
		if seen[name] {
			continue
		}
		seen[name] = true
		db.byPackage[name] = append(db.byPackage[name], vuln)
	}
}

// load fetches the archive of the ecosystem and indexes every record in it.
func (db *zipDB) load(ctx context.Context) error {
	db.byPackage = map[string][]*osvpb.Vulnerability{}

	body, err := db.fetchZip(ctx)
	if err != nil {
		return err
	}

	zipReader, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return fmt.Errorf("could not read OSV database archive: %w", err)
	}

	for _, zipFile := range zipReader.File {
		if !strings.HasSuffix(zipFile.Name, ".json") {
			continue
		}

		db.loadZipFile(zipFile)
	}

	return nil
}
