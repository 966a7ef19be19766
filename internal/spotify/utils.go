package spotify

import (
	"net/http"
	"sync"
	"time"
)

var (
	httpClient     *http.Client
	httpClientOnce sync.Once
)

const (
	spotifyAPIURL     = "https://api.spotify.com/v1"
	spotifyAccountURL = "https://accounts.spotify.com/api/token"
)

// searchInterval spaces catalog search calls to stay under the API's
// rate limit. Applied per call, success or failure.
const searchInterval = 200 * time.Millisecond

func init() {
	httpClientOnce.Do(func() {
		transport := &http.Transport{
			MaxIdleConns:        100,
			IdleConnTimeout:     90 * time.Second,
			MaxIdleConnsPerHost: 10,
		}
		httpClient = &http.Client{
			Transport: transport,
			Timeout:   30 * time.Second,
		}
	})
}
