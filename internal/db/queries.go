package db

// SQL queries for walk-up song storage
const (
	CreateWalkupSongsTableQuery = `
		CREATE TABLE IF NOT EXISTS mlb_walk_up_songs (
			id SERIAL PRIMARY KEY,
			team VARCHAR(50) NOT NULL,
			player VARCHAR(255) NOT NULL,
			song_name VARCHAR(500) NOT NULL,
			song_artist VARCHAR(500),
			spotify_uri VARCHAR(255),
			explicit BOOLEAN,
			first_seen_date DATE NOT NULL,
			last_updated_date DATE NOT NULL,
			is_current BOOLEAN DEFAULT TRUE,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(team, player, song_name)
		)
	`

	CreatePlayerCurrentIndexQuery = `
		CREATE INDEX IF NOT EXISTS idx_player_current
		ON mlb_walk_up_songs (team, player, is_current)
	`
	CreateFirstSeenIndexQuery = `
		CREATE INDEX IF NOT EXISTS idx_first_seen
		ON mlb_walk_up_songs (first_seen_date)
	`
	CreateLastUpdatedIndexQuery = `
		CREATE INDEX IF NOT EXISTS idx_last_updated
		ON mlb_walk_up_songs (last_updated_date)
	`

	// Re-adding a song that was previously deactivated reactivates the
	// existing row instead of violating the unique constraint. The original
	// first_seen_date is preserved so the history stays honest.
	InsertWalkupSongQuery = `
		INSERT INTO mlb_walk_up_songs (
			team,
			player,
			song_name,
			song_artist,
			spotify_uri,
			explicit,
			first_seen_date,
			last_updated_date,
			is_current
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (team, player, song_name) DO UPDATE
		SET
			song_artist = EXCLUDED.song_artist,
			spotify_uri = EXCLUDED.spotify_uri,
			explicit = EXCLUDED.explicit,
			last_updated_date = EXCLUDED.last_updated_date,
			is_current = TRUE,
			updated_at = CURRENT_TIMESTAMP
	`

	DeactivateCurrentSongsQuery = `
		UPDATE mlb_walk_up_songs
		SET is_current = FALSE, updated_at = CURRENT_TIMESTAMP
		WHERE team = $1 AND player = $2 AND is_current = TRUE
	`

	// The deactivation sweep flips every current row for a changed player,
	// including songs the player is keeping. Restoring is_current here puts
	// the kept rows back.
	TouchUnchangedSongQuery = `
		UPDATE mlb_walk_up_songs
		SET last_updated_date = $4, is_current = TRUE, updated_at = CURRENT_TIMESTAMP
		WHERE team = $1 AND player = $2 AND song_name = $3
	`

	SelectCurrentSongsQuery = `
		SELECT team, player, song_name, song_artist, spotify_uri, explicit,
		       first_seen_date, last_updated_date
		FROM mlb_walk_up_songs
		WHERE is_current = TRUE
	`

	SelectCurrentSongsFilteredQuery = `
		SELECT team, player, song_name, song_artist, spotify_uri, explicit,
		       first_seen_date, last_updated_date
		FROM mlb_walk_up_songs
		WHERE is_current = TRUE
		  AND ($1 = '' OR team = $1)
		  AND ($2::date IS NULL OR last_updated_date >= $2)
		  AND ($3::date IS NULL OR first_seen_date <= $3)
		ORDER BY team, player, song_name
	`

	SelectTeamsQuery = `
		SELECT DISTINCT team
		FROM mlb_walk_up_songs
		WHERE is_current = TRUE
		ORDER BY team
	`
)
