package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDiscoverTeamSources(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/fans", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`
<html><body>
  <a data-parent="Teams" href="/dodgers">Dodgers</a>
  <a data-parent="Teams" href="/yankees">Yankees</a>
  <a data-parent="Teams" href="/dodgers">Dodgers again</a>
  <a href="/tickets">Not a team</a>
</body></html>`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	sources := NewFetcher().discoverTeamSources(context.Background(), server.URL)

	require.Len(t, sources, 2)
	require.Equal(t, "dodgers", sources[0].Team)
	require.Equal(t, server.URL+"/dodgers/ballpark/music", sources[0].URL)
	require.Equal(t, "yankees", sources[1].Team)
}

func TestDiscoverTeamSourcesFallsBackToStaticList(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/fans", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>no team links here</body></html>`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	sources := NewFetcher().discoverTeamSources(context.Background(), server.URL)

	require.Equal(t, StaticTeamSources(), sources)
	require.Len(t, sources, 29)
}

func TestStaticTeamSourcesShape(t *testing.T) {
	sources := StaticTeamSources()
	require.Len(t, sources, 29)
	for _, source := range sources {
		require.NotEmpty(t, source.Team)
		require.Contains(t, source.URL, source.Team+"/ballpark/music")
	}
}
