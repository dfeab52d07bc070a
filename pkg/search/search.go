// Package search provides the web search boundary used to discover
// candidate enrichment sources, backed by a reader-style search API.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"

	"github.com/medalline/enrich/internal/httpx"
)

// Result is a single search hit, in provider order.
type Result struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Provider performs web searches and returns ordered results.
type Provider interface {
	Search(ctx context.Context, query string, numResults int) ([]Result, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL sets a custom search base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *httpClient) { c.baseURL = u }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.http = hc }
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a search provider client.
func NewClient(apiKey string, opts ...Option) Provider {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: "https://s.jina.ai",
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type searchResponse struct {
	Code int `json:"code"`
	Data []struct {
		Title       string `json:"title"`
		URL         string `json:"url"`
		Description string `json:"description"`
	} `json:"data"`
}

func (c *httpClient) Search(ctx context.Context, query string, numResults int) ([]Result, error) {
	reqURL := fmt.Sprintf("%s/%s", c.baseURL, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "search: create request")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	req.Header.Set("Accept", "application/json")

	body, statusCode, err := httpx.Do(ctx, c.http, req, httpx.TransientStatus)
	if err != nil {
		return nil, eris.Wrap(err, "search: request failed")
	}

	// The provider returns 422 when a query has no results.
	if statusCode == http.StatusUnprocessableEntity {
		return nil, nil
	}
	if statusCode != http.StatusOK {
		return nil, eris.Errorf("search: unexpected status %d: %s", statusCode, string(body))
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, eris.Wrap(err, "search: unmarshal response")
	}

	results := make([]Result, 0, len(parsed.Data))
	for _, d := range parsed.Data {
		if d.URL == "" {
			continue
		}
		results = append(results, Result{URL: d.URL, Title: d.Title, Description: d.Description})
		if numResults > 0 && len(results) >= numResults {
			break
		}
	}
	return results, nil
}
