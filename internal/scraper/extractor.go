package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// Song is one scraped (song, artist) pair before catalog enrichment.
type Song struct {
	Name   string
	Artist string
}

// ExtractionResult maps a player's display name to the songs scraped from
// one team page. It lives only for the duration of one extraction.
type ExtractionResult map[string][]Song

// extractionStrategy parses one known page layout. A strategy that finds
// nothing returns an empty result, never an error, so the extractor can fall
// through to the next layout.
type extractionStrategy interface {
	name() string
	extract(doc *goquery.Document) ExtractionResult
}

// strategies are ordered by observed prevalence of each layout across the
// league. The first strategy yielding at least one player with at least one
// song wins. New layouts are supported by appending a strategy, not by
// branching inside an existing one.
var strategies = []extractionStrategy{
	forgeListStrategy{},
	walkupWidgetStrategy{},
	plainTableStrategy{},
}

// Extract runs the strategies in order against one team's page. An empty
// result means no layout matched; the caller logs and skips the team.
// Zero yield is not success: a strategy that parses without finding players
// still falls through to the next one.
func Extract(doc *goquery.Document, team string) ExtractionResult {
	for _, s := range strategies {
		result := s.extract(doc)
		if len(result) > 0 {
			logger.Debug("Extraction strategy matched",
				zap.String("team", team),
				zap.String("strategy", s.name()),
				zap.Int("players", len(result)))
			return result
		}
		logger.Debug("Extraction strategy yielded nothing, falling through",
			zap.String("team", team),
			zap.String("strategy", s.name()))
	}
	return ExtractionResult{}
}

// splitOnBy splits inline text of the form "<song> by <artist>" on the first
// occurrence of the delimiter.
func splitOnBy(text string) (string, string, bool) {
	song, artist, found := strings.Cut(text, " by ")
	if !found {
		return "", "", false
	}
	return strings.TrimSpace(song), strings.TrimSpace(artist), true
}

// addSong appends a deduplicated song to a player's entry.
func (r ExtractionResult) addSong(player string, song Song) {
	for _, existing := range r[player] {
		if existing == song {
			return
		}
	}
	r[player] = append(r[player], song)
}
