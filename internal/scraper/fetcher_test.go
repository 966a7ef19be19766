package scraper

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFetchSendsBrowserHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Contains(t, r.Header.Get("User-Agent"), "Mozilla/5.0")
		require.NotEmpty(t, r.Header.Get("Accept"))
		require.NotEmpty(t, r.Header.Get("Accept-Language"))
		w.Write([]byte("<html>ok</html>"))
	}))
	defer server.Close()

	body, err := NewFetcher().Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	require.Equal(t, "<html>ok</html>", body)
}

func TestFetchRetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("recovered"))
	}))
	defer server.Close()

	body, err := NewFetcher().Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	require.Equal(t, "recovered", body)
	require.Equal(t, int32(2), calls.Load())
}

func TestFetchExhaustsRetryBudget(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := NewFetcher().Fetch(context.Background(), server.URL)
	require.Error(t, err)
	require.Equal(t, int32(maxFetchRetries), calls.Load())

	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	require.Equal(t, maxFetchRetries, fetchErr.Attempts)
	require.Equal(t, server.URL, fetchErr.URL)
}

func TestFetchStopsOnCancelledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewFetcher().Fetch(ctx, server.URL)
	require.Error(t, err)
}
