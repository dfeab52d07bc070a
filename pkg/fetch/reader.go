package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"github.com/medalline/enrich/internal/httpx"
)

// ReaderClient fetches pages through a reader API that converts them to
// markdown, which keeps extractor input small and uniform.
type ReaderClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// ReaderOption configures the reader client.
type ReaderOption func(*ReaderClient)

// WithReaderBaseURL sets a custom base URL (for testing).
func WithReaderBaseURL(u string) ReaderOption {
	return func(c *ReaderClient) { c.baseURL = u }
}

// WithReaderHTTPClient sets a custom HTTP client.
func WithReaderHTTPClient(hc *http.Client) ReaderOption {
	return func(c *ReaderClient) { c.http = hc }
}

// NewReaderClient creates a reader client.
func NewReaderClient(apiKey string, opts ...ReaderOption) *ReaderClient {
	c := &ReaderClient{
		apiKey:  apiKey,
		baseURL: "https://r.jina.ai",
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

type readResponse struct {
	Code int `json:"code"`
	Data struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"data"`
}

// gatedStatus reports whether a status code indicates auth-gated content.
// Gated pages are returned as unsuccessful results rather than errors so
// the caller can classify them and refund the search slot.
func gatedStatus(code int) bool {
	return code == http.StatusUnauthorized ||
		code == http.StatusPaymentRequired ||
		code == http.StatusForbidden
}

// Fetch retrieves one URL through the reader.
func (c *ReaderClient) Fetch(ctx context.Context, targetURL string) (*Result, error) {
	reqURL := fmt.Sprintf("%s/%s", c.baseURL, targetURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "fetch: create reader request")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Return-Format", "markdown")

	body, statusCode, err := httpx.Do(ctx, c.http, req, httpx.TransientStatus)
	if err != nil {
		return nil, eris.Wrap(err, "fetch: reader request failed")
	}

	if gatedStatus(statusCode) {
		return &Result{Success: false, Content: string(body), StatusCode: statusCode}, nil
	}
	if statusCode != http.StatusOK {
		return nil, eris.Errorf("fetch: reader status %d for %s", statusCode, targetURL)
	}

	var parsed readResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, eris.Wrap(err, "fetch: unmarshal reader response")
	}

	// The envelope code carries the upstream page status when the reader
	// itself succeeded.
	if gatedStatus(parsed.Code) {
		return &Result{Success: false, Content: parsed.Data.Content, StatusCode: parsed.Code}, nil
	}
	if parsed.Code != 0 && parsed.Code != http.StatusOK {
		return &Result{Success: false, Content: parsed.Data.Content, StatusCode: parsed.Code}, nil
	}

	return &Result{Success: true, Content: parsed.Data.Content, StatusCode: http.StatusOK}, nil
}
