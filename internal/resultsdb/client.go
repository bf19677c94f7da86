// Copyright (c) 2026 John Earle
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package resultsdb implements the HTTP client for the results-tracking API.
// The bridge core consumes exactly two capabilities: submitting one result
// and looking up an existing group by description.
package resultsdb

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/bcem/resultsbridge/internal/models"
)

// Config is the immutable transport configuration, built once at startup
// from process configuration and passed in explicitly.
type Config struct {
	APIURL string

	// Basic auth. Mutually exclusive with the OIDC fields; validated by
	// the config package before the client is built.
	User     string
	Password string

	// OIDC client-credentials auth.
	TokenURL     string
	ClientID     string
	ClientSecret string

	// TrustedCA is an optional path to a PEM bundle for the API's TLS chain.
	TrustedCA string

	Timeout time.Duration
}

// Client talks to the results API.
type Client struct {
	httpClient *http.Client
	apiURL     string
	user       string
	password   string
}

// NewClient builds a results API client. The request timeout is fixed on
// the underlying http.Client; exceeding it surfaces as a submission failure.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	if cfg.TrustedCA != "" {
		pem, err := os.ReadFile(cfg.TrustedCA)
		if err != nil {
			return nil, fmt.Errorf("read trusted CA %s: %w", cfg.TrustedCA, err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("no certificates found in %s", cfg.TrustedCA)
		}
		transport.TLSClientConfig = &tls.Config{RootCAs: pool}
	}

	httpClient := &http.Client{
		Timeout:   cfg.Timeout,
		Transport: transport,
	}

	if cfg.TokenURL != "" {
		creds := &clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
		}
		// Route the token exchange through the same transport so the
		// trust store and timeout apply to it as well.
		ctx = context.WithValue(ctx, oauth2.HTTPClient, httpClient)
		httpClient = creds.Client(ctx)
		httpClient.Timeout = cfg.Timeout
	}

	return &Client{
		httpClient: httpClient,
		apiURL:     cfg.APIURL,
		user:       cfg.User,
		password:   cfg.Password,
	}, nil
}

// SubmitResult POSTs one result record to the API. A non-2xx response is
// returned as an error carrying the API's message; the caller treats it as
// a hard failure for the current bus message.
func (c *Client) SubmitResult(ctx context.Context, sub models.Submission) error {
	if sub.Groups == nil {
		sub.Groups = []models.Group{}
	}

	body, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/results", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.user != "" {
		req.SetBasicAuth(c.user, c.password)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("submit result: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("submit result failed (HTTP %d): %s", resp.StatusCode, errorMessage(resp.Body))
	}

	return nil
}

// FindGroup queries for groups whose description equals the given value and
// returns the first match, or nil if there is none.
func (c *Client) FindGroup(ctx context.Context, description string) (*models.Group, error) {
	u := fmt.Sprintf("%s/groups?description=%s", c.apiURL, url.QueryEscape(description))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if c.user != "" {
		req.SetBasicAuth(c.user, c.password)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("find group: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("find group failed (HTTP %d): %s", resp.StatusCode, errorMessage(resp.Body))
	}

	var payload struct {
		Data []models.Group `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode group response: %w", err)
	}

	if len(payload.Data) == 0 {
		return nil, nil
	}
	return &payload.Data[0], nil
}

// errorMessage extracts the API's message field from an error response,
// falling back to the raw body when it is not JSON.
func errorMessage(r io.Reader) string {
	body, err := io.ReadAll(r)
	if err != nil {
		return ""
	}

	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	return string(body)
}
