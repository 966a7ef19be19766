package spotify

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// GetUser resolves the profile behind a user bearer token. Used by the
// read-side API to find the playlist owner's user ID.
func GetUser(token string) (*User, error) {
	url := fmt.Sprintf("%s/me", spotifyAPIURL)

	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to get user: %s", resp.Status)
	}

	user := &User{}
	if err := json.NewDecoder(resp.Body).Decode(user); err != nil {
		return nil, err
	}
	if user.Id == "" {
		return nil, fmt.Errorf("no user found")
	}

	return user, nil
}
