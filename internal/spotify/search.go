package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Client searches the Spotify catalog with app-only (client credentials)
// auth. Every search call is paced by a rate limiter so a full league scrape
// stays under the API's limits.
type Client struct {
	clientId     string
	clientSecret string
	apiURL       string
	tokenURL     string
	httpClient   *http.Client
	limiter      *rate.Limiter

	mu        sync.RWMutex
	token     string
	expiresAt time.Time
}

// TrackMatch is the best single catalog hit for a (song, artist) query.
type TrackMatch struct {
	URI      string
	Explicit bool
}

func NewClient(clientId, clientSecret string) *Client {
	return &Client{
		clientId:     clientId,
		clientSecret: clientSecret,
		apiURL:       spotifyAPIURL,
		tokenURL:     spotifyAccountURL,
		httpClient:   httpClient,
		limiter:      rate.NewLimiter(rate.Every(searchInterval), 1),
	}
}

// MatchTrack resolves a (song, artist) pair to the first search result.
// Incomplete queries are skipped and a missing match is not an error: both
// return (nil, nil) and the caller stores the song without catalog fields.
func (c *Client) MatchTrack(ctx context.Context, songName, artistName string) (*TrackMatch, error) {
	if songName == "" || artistName == "" {
		return nil, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	token, err := c.getToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get access token: %w", err)
	}

	query := url.Values{}
	query.Set("q", fmt.Sprintf("track:%s artist:%s", songName, artistName))
	query.Set("type", "track")
	query.Set("limit", "1")

	searchURL := fmt.Sprintf("%s/search?%s", c.apiURL, query.Encode())
	req, err := http.NewRequestWithContext(ctx, "GET", searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating search request: %w", err)
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error making search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusTooManyRequests {
			logger.Warn("Rate limited by search API",
				zap.String("retry_after", resp.Header.Get("Retry-After")))
		}
		return nil, fmt.Errorf("search returned status code %d", resp.StatusCode)
	}

	var result SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("error decoding search response: %w", err)
	}

	if len(result.Tracks.Items) == 0 {
		logger.Debug("No catalog match",
			zap.String("song", songName),
			zap.String("artist", artistName))
		return nil, nil
	}

	track := result.Tracks.Items[0]
	return &TrackMatch{URI: track.URI, Explicit: track.Explicit}, nil
}
