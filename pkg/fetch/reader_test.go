package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReaderFetch_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "markdown", r.Header.Get("X-Return-Format"))
		fmt.Fprint(w, `{"code":200,"data":{"title":"Glen Example 12","url":"https://producer.example/12","content":"# Glen Example 12 Year\n43% ABV"}}`)
	}))
	defer srv.Close()

	c := NewReaderClient("test-key", WithReaderBaseURL(srv.URL))

	res, err := c.Fetch(context.Background(), "https://producer.example/12")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Contains(t, res.Content, "43% ABV")
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func TestReaderFetch_GatedStatusIsResultNotError(t *testing.T) {
	for _, code := range []int{http.StatusUnauthorized, http.StatusPaymentRequired, http.StatusForbidden} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(code)
			fmt.Fprint(w, "members only")
		}))

		c := NewReaderClient("", WithReaderBaseURL(srv.URL))
		res, err := c.Fetch(context.Background(), "https://club.example/review")
		srv.Close()

		require.NoError(t, err, "status %d", code)
		assert.False(t, res.Success)
		assert.Equal(t, code, res.StatusCode)
	}
}

func TestReaderFetch_GatedEnvelopeCode(t *testing.T) {
	// The reader itself answers 200 but reports the upstream page was gated.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"code":403,"data":{"content":"Access denied"}}`)
	}))
	defer srv.Close()

	c := NewReaderClient("", WithReaderBaseURL(srv.URL))

	res, err := c.Fetch(context.Background(), "https://club.example/review")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)
	assert.Equal(t, "Access denied", res.Content)
}

func TestReaderFetch_NotFoundIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewReaderClient("", WithReaderBaseURL(srv.URL))

	_, err := c.Fetch(context.Background(), "https://gone.example/page")
	assert.Error(t, err)
}

func TestReaderFetch_RetriesTransientStatus(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"code":200,"data":{"content":"ok"}}`)
	}))
	defer srv.Close()

	c := NewReaderClient("", WithReaderBaseURL(srv.URL))

	res, err := c.Fetch(context.Background(), "https://busy.example/page")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 2, attempts)
}
