package spotify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const addTracksMax = 100

// CreatePlaylist creates a playlist for the given user and fills it with the
// given track URIs. The token must be a user token with playlist scope; the
// scraper's app-only credentials cannot create playlists.
func CreatePlaylist(token, userId, name, description string, public bool, trackURIs []string) (*Playlist, error) {
	url := fmt.Sprintf("%s/users/%s/playlists", spotifyAPIURL, userId)

	postData := map[string]any{
		"name":        name,
		"description": description,
		"public":      public,
	}
	jsonData, err := json.Marshal(postData)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest("POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("failed to create playlist: %s", resp.Status)
	}

	playlist := &Playlist{}
	if err := json.Unmarshal(bodyBytes, playlist); err != nil {
		return nil, err
	}
	if playlist.Id == "" {
		return nil, fmt.Errorf("failed to parse playlist ID from response: %s", string(bodyBytes))
	}

	if err := AddTracksToPlaylist(token, playlist.Id, trackURIs); err != nil {
		return playlist, err
	}

	return playlist, nil
}

// AddTracksToPlaylist appends track URIs in chunks of 100 per API limits.
func AddTracksToPlaylist(token, playlistId string, trackURIs []string) error {
	for i := 0; i < len(trackURIs); i += addTracksMax {
		var uris []string
		for j := i; j < i+addTracksMax && j < len(trackURIs); j++ {
			uris = append(uris, trackURIs[j])
		}

		url := fmt.Sprintf("%s/playlists/%s/tracks", spotifyAPIURL, playlistId)

		jsonData, err := json.Marshal(map[string]any{
			"uris": uris,
		})
		if err != nil {
			return err
		}

		req, err := http.NewRequest("POST", url, bytes.NewBuffer(jsonData))
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
		req.Header.Set("Content-Type", "application/json")

		resp, err := httpClient.Do(req)
		if err != nil {
			return err
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusCreated {
			return fmt.Errorf("failed to add tracks to playlist: %s", resp.Status)
		}
	}

	return nil
}
