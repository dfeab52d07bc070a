package search

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearch_ParsesResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		fmt.Fprint(w, `{"code":200,"data":[
			{"title":"Review","url":"https://a.example/review","description":"tasting notes"},
			{"title":"","url":"","description":"dropped, no url"},
			{"title":"Shop","url":"https://b.example/shop","description":"price"}
		]}`)
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))

	results, err := c.Search(context.Background(), "glen example 12 review", 5)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "https://a.example/review", results[0].URL)
	assert.Equal(t, "Review", results[0].Title)
	assert.Equal(t, "tasting notes", results[0].Description)
}

func TestSearch_TruncatesToNumResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"code":200,"data":[
			{"url":"https://a.example/1"},
			{"url":"https://a.example/2"},
			{"url":"https://a.example/3"}
		]}`)
	}))
	defer srv.Close()

	c := NewClient("", WithBaseURL(srv.URL))

	results, err := c.Search(context.Background(), "anything", 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestSearch_NoResultsStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	c := NewClient("", WithBaseURL(srv.URL))

	results, err := c.Search(context.Background(), "gibberish query", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearch_RetriesTransientStatus(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `{"code":200,"data":[{"url":"https://a.example/1"}]}`)
	}))
	defer srv.Close()

	c := NewClient("", WithBaseURL(srv.URL))

	results, err := c.Search(context.Background(), "retry me", 5)
	require.NoError(t, err)
	assert.Len(t, results, 1)
	assert.Equal(t, 2, attempts)
}

func TestSearch_UnexpectedStatusFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient("", WithBaseURL(srv.URL))

	_, err := c.Search(context.Background(), "anything", 5)
	assert.Error(t, err)
}
