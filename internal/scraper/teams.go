package scraper

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

const mlbSiteURL = "https://www.mlb.com"

// mlbTeams is the fallback roster of team identifiers when link discovery
// from the league index yields nothing.
var mlbTeams = []string{
	"orioles", "redsox", "yankees", "rays", "bluejays",
	"whitesox", "guardians", "tigers", "royals", "twins",
	"athletics", "astros", "angels", "mariners", "rangers",
	"braves", "marlins", "mets", "phillies", "nationals",
	"reds", "brewers", "pirates", "cardinals",
	"dbacks", "rockies", "dodgers", "padres", "giants",
}

// TeamSource is a team identifier plus the URL of its walk-up music page.
type TeamSource struct {
	Team string
	URL  string
}

// musicPageURL builds the ballpark music page URL for a team slug.
func musicPageURL(site, team string) string {
	return fmt.Sprintf("%s/%s/ballpark/music", site, team)
}

// StaticTeamSources enumerates the fixed league roster.
func StaticTeamSources() []TeamSource {
	sources := make([]TeamSource, 0, len(mlbTeams))
	for _, team := range mlbTeams {
		sources = append(sources, TeamSource{Team: team, URL: musicPageURL(mlbSiteURL, team)})
	}
	return sources
}

// discoverTeamSources crawls the league fans index for team links and derives
// each team's music page URL. Returns the static roster when discovery fails
// or finds nothing, so one layout change on the index page never stops a run.
func (f *Fetcher) discoverTeamSources(ctx context.Context, site string) []TeamSource {
	html, err := f.Fetch(ctx, site+"/fans")
	if err != nil {
		logger.Warn("Team link discovery failed, using static team list", zap.Error(err))
		return StaticTeamSources()
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		logger.Warn("Could not parse fans index, using static team list", zap.Error(err))
		return StaticTeamSources()
	}

	var sources []TeamSource
	seen := make(map[string]bool)
	doc.Find(`a[data-parent="Teams"]`).Each(func(i int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok || href == "" {
			return
		}
		team := strings.Trim(href, "/")
		if idx := strings.LastIndex(team, "/"); idx >= 0 {
			team = team[idx+1:]
		}
		if team == "" || seen[team] {
			return
		}
		seen[team] = true
		sources = append(sources, TeamSource{Team: team, URL: musicPageURL(site, team)})
	})

	if len(sources) == 0 {
		logger.Warn("No team links found on fans index, using static team list")
		return StaticTeamSources()
	}

	logger.Info("Discovered team links", zap.Int("count", len(sources)))
	return sources
}
