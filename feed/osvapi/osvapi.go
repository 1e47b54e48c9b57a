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

// Package osvapi queries the OSV.dev query API for the advisories affecting a
// package.
package osvapi

import (
	"context"
	"fmt"

	osvpb "github.com/ossf/osv-schema/bindings/go/osvschema"
	"osv.dev/bindings/go/api"
	"osv.dev/bindings/go/osvdev"
	"osv.dev/bindings/go/osvdevexperimental"

	"github.com/google/osv-depscan/advisory"
	"github.com/google/osv-depscan/ecosystem"
	"github.com/google/osv-depscan/feed"
	"github.com/google/osv-depscan/feed/osv"
)

const (
	// Name is the source name reported on advisories and warnings.
	Name = "osv.dev"
	// UserAgent is sent with every request to OSV.dev.
	UserAgent = "osv-depscan"
)

var _ feed.Source = &Client{}

// Client queries the OSV.dev API.
type Client struct {
	client *osvdev.OSVClient
}

// New returns a Client for the public OSV.dev API.
func New() *Client {
	return NewWithClient(osvdev.DefaultClient())
}

// NewWithClient returns a Client that sends its queries through c.
// Retries are left to the feed client, so c makes a single attempt per request.
func NewWithClient(c *osvdev.OSVClient) *Client {
	c.Config.UserAgent = UserAgent
	c.Config.MaxRetryAttempts = 1
	return &Client{client: c}
}

// Name of the source.
func (c *Client) Name() string {
	return Name
}

// Query returns the advisories affecting the package, following result pages.
func (c *Client) Query(ctx context.Context, eco ecosystem.Ecosystem, name string) ([]advisory.Advisory, error) {
	query := &api.Query{
		Package: &osvpb.Package{
			Name:      name,
			Ecosystem: eco.String(),
		},
	}

	resp, err := osvdevexperimental.QueryPaging(ctx, c.client, query)
	if err != nil {
		return nil, fmt.Errorf("osvapi: query for %s/%s failed: %w", eco, name, err)
	}

	return osv.ToAdvisories(resp.GetVulns(), eco, name, Name), nil
}
