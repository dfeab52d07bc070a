// Package httpx holds request behavior shared by the outbound API clients:
// retry with exponential backoff on transient failures.
package httpx

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

const maxAttempts = 3

// TransientStatus reports whether a status code is worth retrying: rate
// limiting and upstream hiccups, not client errors.
func TransientStatus(code int) bool {
	return code == http.StatusTooManyRequests ||
		code == http.StatusInternalServerError ||
		code == http.StatusBadGateway ||
		code == http.StatusServiceUnavailable
}

// Do executes the request up to three times with exponential backoff on
// transport errors and statuses matching retryable, returning the last
// response body and status code. The request must be re-sendable (no body or
// a GetBody-capable one).
func Do(ctx context.Context, client *http.Client, req *http.Request, retryable func(int) bool) ([]byte, int, error) {
	backoff := 1 * time.Second

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		retryReq := req.Clone(ctx)

		resp, err := client.Do(retryReq)
		if err != nil {
			lastErr = err
			if attempt < maxAttempts {
				select {
				case <-ctx.Done():
					return nil, 0, ctx.Err()
				case <-time.After(backoff):
				}
				backoff *= 2
				continue
			}
			return nil, 0, lastErr
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			return nil, resp.StatusCode, eris.Wrap(readErr, "httpx: read response body")
		}

		if retryable(resp.StatusCode) && attempt < maxAttempts {
			lastErr = eris.Errorf("httpx: status %d: %s", resp.StatusCode, string(body))
			select {
			case <-ctx.Done():
				return nil, 0, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
			continue
		}

		return body, resp.StatusCode, nil
	}

	return nil, 0, lastErr
}
