package scraper

import (
	"time"

	"github.com/walkupsongs/WalkupTracker/internal/db"
)

// Outcome partitions one scrape batch into disjoint sets: every scraped
// entry lands in exactly one of New, Changed or Unchanged.
type Outcome struct {
	New       []*db.WalkupSong
	Changed   []*db.WalkupSong
	Unchanged []*db.WalkupSong
}

// Total is the number of scraped entries across all three sets.
func (o *Outcome) Total() int {
	return len(o.New) + len(o.Changed) + len(o.Unchanged)
}

// Reconcile compares the scraped snapshot against the currently stored
// state. Matching is per song name, not per player: a player rotating
// several walk-up songs can have some classified unchanged and others
// changed within the same run.
//
//   - Player not stored at all: New. first_seen = last_updated = scrapeDate.
//   - Song name among the player's current songs: Unchanged. Only
//     last_updated advances; first_seen is kept by the writer.
//   - Player known but song name is not current: Changed. The entry becomes
//     the new current song and the writer deactivates the old ones.
func Reconcile(scraped []*db.WalkupSong, existing map[db.PlayerKey][]*db.WalkupSong, scrapeDate time.Time) *Outcome {
	outcome := &Outcome{}

	for _, song := range scraped {
		key := db.PlayerKey{Team: song.Team, Player: song.Player}

		current, known := existing[key]
		if !known {
			song.FirstSeenDate = scrapeDate
			song.LastUpdatedDate = scrapeDate
			song.IsCurrent = true
			outcome.New = append(outcome.New, song)
			continue
		}

		songExists := false
		for _, existingSong := range current {
			if existingSong.SongName == song.SongName {
				songExists = true
				song.FirstSeenDate = existingSong.FirstSeenDate
				break
			}
		}

		if songExists {
			song.LastUpdatedDate = scrapeDate
			song.IsCurrent = true
			outcome.Unchanged = append(outcome.Unchanged, song)
		} else {
			song.FirstSeenDate = scrapeDate
			song.LastUpdatedDate = scrapeDate
			song.IsCurrent = true
			outcome.Changed = append(outcome.Changed, song)
		}
	}

	return outcome
}
