package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// WalkupSong is one (team, player, song) association. SpotifyURI and
// Explicit are nil when the catalog search found no match.
type WalkupSong struct {
	Team            string    `json:"team"`
	Player          string    `json:"player"`
	SongName        string    `json:"song_name"`
	SongArtist      string    `json:"song_artist"`
	SpotifyURI      *string   `json:"spotify_uri"`
	Explicit        *bool     `json:"explicit"`
	FirstSeenDate   time.Time `json:"first_seen_date"`
	LastUpdatedDate time.Time `json:"last_updated_date"`
	IsCurrent       bool      `json:"is_current"`
}

// PlayerKey identifies a player within a team.
type PlayerKey struct {
	Team   string
	Player string
}

// NewWalkupSong validates the fields every stored record must carry.
func NewWalkupSong(team, player, songName, songArtist string) (*WalkupSong, error) {
	team = strings.TrimSpace(team)
	player = strings.TrimSpace(player)
	songName = strings.TrimSpace(songName)
	if team == "" {
		return nil, errors.New("walkup song requires a team")
	}
	if player == "" {
		return nil, errors.New("walkup song requires a player")
	}
	if songName == "" {
		return nil, errors.New("walkup song requires a song name")
	}
	return &WalkupSong{
		Team:       team,
		Player:     player,
		SongName:   songName,
		SongArtist: strings.TrimSpace(songArtist),
	}, nil
}

// CreateSchema creates the walk-up songs table and its indexes.
func CreateSchema(ctx context.Context) error {
	db, err := getDB()
	if err != nil {
		return fmt.Errorf("database connection error: %w", err)
	}

	statements := []string{
		CreateWalkupSongsTableQuery,
		CreatePlayerCurrentIndexQuery,
		CreateFirstSeenIndexQuery,
		CreateLastUpdatedIndexQuery,
	}
	for _, stmt := range statements {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("error creating schema: %w", err)
		}
	}

	logger.Info("Database schema ready")
	return nil
}

// GetCurrentSongs returns every row with is_current = TRUE, grouped by
// (team, player). This is the reconciler's view of previously stored state.
func GetCurrentSongs(ctx context.Context) (map[PlayerKey][]*WalkupSong, error) {
	db, err := getDB()
	if err != nil {
		return nil, fmt.Errorf("database connection error: %w", err)
	}

	rows, err := db.Query(ctx, SelectCurrentSongsQuery)
	if err != nil {
		return nil, fmt.Errorf("error querying current songs: %w", err)
	}
	defer rows.Close()

	existing := make(map[PlayerKey][]*WalkupSong)
	for rows.Next() {
		song, err := scanWalkupSong(rows)
		if err != nil {
			logger.Error("Failed to scan walkup song row", zap.Error(err))
			continue
		}
		key := PlayerKey{Team: song.Team, Player: song.Player}
		existing[key] = append(existing[key], song)
	}

	return existing, rows.Err()
}

// GetCurrentSongsFiltered returns current rows, optionally restricted to one
// team and to a date window on last_updated_date/first_seen_date.
func GetCurrentSongsFiltered(ctx context.Context, team string, since, until *time.Time) ([]*WalkupSong, error) {
	db, err := getDB()
	if err != nil {
		return nil, fmt.Errorf("database connection error: %w", err)
	}

	rows, err := db.Query(ctx, SelectCurrentSongsFilteredQuery, team, since, until)
	if err != nil {
		return nil, fmt.Errorf("error querying filtered songs: %w", err)
	}
	defer rows.Close()

	var songs []*WalkupSong
	for rows.Next() {
		song, err := scanWalkupSong(rows)
		if err != nil {
			logger.Error("Failed to scan walkup song row", zap.Error(err))
			continue
		}
		songs = append(songs, song)
	}

	return songs, rows.Err()
}

// GetTeams returns every team with at least one current song.
func GetTeams(ctx context.Context) ([]string, error) {
	db, err := getDB()
	if err != nil {
		return nil, fmt.Errorf("database connection error: %w", err)
	}

	rows, err := db.Query(ctx, SelectTeamsQuery)
	if err != nil {
		return nil, fmt.Errorf("error querying teams: %w", err)
	}
	defer rows.Close()

	var teams []string
	for rows.Next() {
		var team string
		if err := rows.Scan(&team); err != nil {
			logger.Error("Failed to scan team", zap.Error(err))
			continue
		}
		teams = append(teams, team)
	}

	return teams, rows.Err()
}

func scanWalkupSong(rows pgx.Rows) (*WalkupSong, error) {
	song := &WalkupSong{IsCurrent: true}
	err := rows.Scan(
		&song.Team,
		&song.Player,
		&song.SongName,
		&song.SongArtist,
		&song.SpotifyURI,
		&song.Explicit,
		&song.FirstSeenDate,
		&song.LastUpdatedDate,
	)
	if err != nil {
		return nil, err
	}
	return song, nil
}

// SaveWalkupSongs applies one reconciliation outcome. Players in changedSongs
// have their previously current rows deactivated first, then newSongs and
// changedSongs are inserted (reactivating any deactivated duplicates via the
// upsert), then unchangedSongs get their last_updated_date advanced. Each
// chunk is its own transaction with retry; an exhausted chunk fails the run.
func SaveWalkupSongs(ctx context.Context, newSongs, changedSongs, unchangedSongs []*WalkupSong) (int, error) {
	if len(newSongs)+len(changedSongs)+len(unchangedSongs) == 0 {
		return 0, nil
	}

	// Deactivate each changed player's current rows exactly once, before any
	// insert, so a replacement never coexists with the row it supersedes.
	if len(changedSongs) > 0 {
		seen := make(map[PlayerKey]bool)
		batch := &pgx.Batch{}
		for _, song := range changedSongs {
			key := PlayerKey{Team: song.Team, Player: song.Player}
			if seen[key] {
				continue
			}
			seen[key] = true
			batch.Queue(DeactivateCurrentSongsQuery, song.Team, song.Player)
		}
		if err := execBatchChunk(ctx, batch, "deactivate"); err != nil {
			return 0, err
		}
	}

	inserted := 0
	allNew := make([]*WalkupSong, 0, len(newSongs)+len(changedSongs))
	allNew = append(allNew, newSongs...)
	allNew = append(allNew, changedSongs...)

	batch := &pgx.Batch{}
	for _, song := range allNew {
		batch.Queue(InsertWalkupSongQuery,
			song.Team,
			song.Player,
			song.SongName,
			song.SongArtist,
			song.SpotifyURI,
			song.Explicit,
			song.FirstSeenDate,
			song.LastUpdatedDate,
			song.IsCurrent,
		)
		if batch.Len() >= BatchSize {
			if err := execBatchChunk(ctx, batch, "insert"); err != nil {
				return inserted, err
			}
			inserted += batch.Len()
			batch = &pgx.Batch{}
		}
	}
	if batch.Len() > 0 {
		if err := execBatchChunk(ctx, batch, "insert"); err != nil {
			return inserted, err
		}
		inserted += batch.Len()
	}

	batch = &pgx.Batch{}
	for _, song := range unchangedSongs {
		batch.Queue(TouchUnchangedSongQuery,
			song.Team,
			song.Player,
			song.SongName,
			song.LastUpdatedDate,
		)
		if batch.Len() >= BatchSize {
			if err := execBatchChunk(ctx, batch, "touch"); err != nil {
				return inserted, err
			}
			batch = &pgx.Batch{}
		}
	}
	if batch.Len() > 0 {
		if err := execBatchChunk(ctx, batch, "touch"); err != nil {
			return inserted, err
		}
	}

	logger.Info("Stored reconciled songs",
		zap.Int("new", len(newSongs)),
		zap.Int("changed", len(changedSongs)),
		zap.Int("unchanged", len(unchangedSongs)))

	return inserted, nil
}
