package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// expirationBuffer defines how close to expiration we trigger a refresh.
const expirationBuffer = 60 * time.Second

// fetchToken performs the client-credentials exchange.
func (c *Client) fetchToken(ctx context.Context) (string, time.Time, error) {
	data := url.Values{}
	data.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, "POST", c.tokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to create token request: %w", err)
	}
	req.SetBasicAuth(c.clientId, c.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to execute token request: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to read token response (status %d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", time.Time{}, fmt.Errorf("received non-OK status code %d (%s) from token endpoint: %s",
			resp.StatusCode, http.StatusText(resp.StatusCode), string(bodyBytes))
	}

	var result tokenResponse
	if err := json.Unmarshal(bodyBytes, &result); err != nil {
		return "", time.Time{}, fmt.Errorf("failed to unmarshal token JSON response: %w. Body: %s", err, string(bodyBytes))
	}
	if result.AccessToken == "" {
		return "", time.Time{}, fmt.Errorf("parsed access token is empty in token response: %s", string(bodyBytes))
	}
	if result.ExpiresIn <= 0 {
		return "", time.Time{}, fmt.Errorf("invalid expiration %d in token response", result.ExpiresIn)
	}

	expirationTime := time.Now().Add(time.Duration(result.ExpiresIn) * time.Second)

	logger.Debug("Fetched new client-credentials token",
		zap.Time("expires_at", expirationTime))
	return result.AccessToken, expirationTime, nil
}

// getToken returns a cached token, refreshing when it is missing or
// expiring within the buffer window.
func (c *Client) getToken(ctx context.Context) (string, error) {
	now := time.Now()

	c.mu.RLock()
	if c.token != "" && now.Before(c.expiresAt.Add(-expirationBuffer)) {
		token := c.token
		c.mu.RUnlock()
		return token, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	// Another caller may have refreshed while we waited for the lock.
	now = time.Now()
	if c.token != "" && now.Before(c.expiresAt.Add(-expirationBuffer)) {
		return c.token, nil
	}

	token, expiresAt, err := c.fetchToken(ctx)
	if err != nil {
		return "", err
	}

	c.token = token
	c.expiresAt = expiresAt
	return c.token, nil
}
