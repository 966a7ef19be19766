package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/walkupsongs/WalkupTracker/internal/db"
	"github.com/walkupsongs/WalkupTracker/internal/spotify"
)

// Config holds all configuration for one scrape run.
type Config struct {
	// DryRun performs extraction and matching but skips every database
	// access; the would-be records are printed instead.
	DryRun bool

	// Verbose emits per-song diagnostics in addition to summary logging.
	Verbose bool

	// MetricsPort, when set, serves Prometheus metrics for the duration
	// of the run.
	MetricsPort string
}

// RunSummary reports what one run did.
type RunSummary struct {
	TeamsProcessed int
	TeamsSkipped   int
	SongsScraped   int
	Stored         int
	Outcome        *Outcome
}

// Pipeline wires fetcher, extractor, matcher, reconciler and writer into one
// sequential batch run. Teams are processed one at a time; there are no
// background workers.
type Pipeline struct {
	config  *Config
	fetcher *Fetcher
	matcher *spotify.Client
	metrics *Metrics

	// site is the league site root; tests point it at a local server.
	site string
}

// New creates a pipeline. The matcher may be nil, in which case songs are
// stored without catalog fields.
func New(config *Config, matcher *spotify.Client) *Pipeline {
	return &Pipeline{
		config:  config,
		fetcher: NewFetcher(),
		matcher: matcher,
		metrics: NewMetrics(),
		site:    mlbSiteURL,
	}
}

// Run scrapes every team, reconciles against stored state and commits the
// outcome. A failed team is skipped; a run where every team failed is an
// error, as is any storage failure after retries.
func (p *Pipeline) Run(ctx context.Context, scrapeDate time.Time) (*RunSummary, error) {
	if p.config.MetricsPort != "" {
		go p.startMetricsServer()
	}

	sources := p.fetcher.discoverTeamSources(ctx, p.site)
	summary := &RunSummary{}

	var scraped []*db.WalkupSong
	for _, source := range sources {
		start := time.Now()
		songs, err := p.scrapeTeam(ctx, source)
		p.metrics.TeamDuration.Observe(time.Since(start).Seconds())

		if err != nil {
			// One team's failure never aborts the run.
			logger.Warn("Skipping team",
				zap.String("team", source.Team),
				zap.Error(err))
			p.metrics.TeamsSkipped.Inc()
			summary.TeamsSkipped++
			continue
		}
		if len(songs) == 0 {
			logger.Info("No songs found for team", zap.String("team", source.Team))
			p.metrics.TeamsSkipped.Inc()
			summary.TeamsSkipped++
			continue
		}

		logger.Info("Scraped team",
			zap.String("team", source.Team),
			zap.Int("songs", len(songs)))
		p.metrics.TeamsScraped.Inc()
		summary.TeamsProcessed++
		scraped = append(scraped, songs...)
	}

	summary.SongsScraped = len(scraped)
	logger.Info("Scraping completed",
		zap.Int("teams", summary.TeamsProcessed),
		zap.Int("skipped", summary.TeamsSkipped),
		zap.Int("songs", summary.SongsScraped))

	if summary.TeamsProcessed == 0 {
		return summary, errors.New("every team failed or yielded no songs")
	}

	if p.config.DryRun {
		p.printDryRun(scraped)
		return summary, nil
	}

	existing, err := db.GetCurrentSongs(ctx)
	if err != nil {
		return summary, fmt.Errorf("error reading existing songs: %w", err)
	}
	logger.Info("Loaded existing state", zap.Int("players", len(existing)))

	outcome := Reconcile(scraped, existing, scrapeDate)
	summary.Outcome = outcome

	stored, err := db.SaveWalkupSongs(ctx, outcome.New, outcome.Changed, outcome.Unchanged)
	if err != nil {
		return summary, err
	}
	summary.Stored = stored
	p.metrics.RowsStored.Add(float64(stored))

	p.logChanges(outcome)
	return summary, nil
}

// scrapeTeam fetches, extracts and catalog-matches one team's page.
func (p *Pipeline) scrapeTeam(ctx context.Context, source TeamSource) ([]*db.WalkupSong, error) {
	html, err := p.fetcher.Fetch(ctx, source.URL)
	if err != nil {
		p.metrics.FetchErrors.Inc()
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("error parsing page for %s: %w", source.Team, err)
	}

	extracted := Extract(doc, source.Team)

	var songs []*db.WalkupSong
	for player, playerSongs := range extracted {
		for _, song := range playerSongs {
			record, err := db.NewWalkupSong(source.Team, player, song.Name, song.Artist)
			if err != nil {
				logger.Debug("Dropping invalid extraction",
					zap.String("team", source.Team),
					zap.String("player", player),
					zap.Error(err))
				continue
			}
			p.metrics.SongsExtracted.Inc()

			p.matchSong(ctx, record)
			if p.config.Verbose {
				fields := []zap.Field{
					zap.String("team", record.Team),
					zap.String("player", record.Player),
					zap.String("song", record.SongName),
					zap.String("artist", record.SongArtist),
				}
				if record.SpotifyURI != nil {
					fields = append(fields, zap.String("spotify_uri", *record.SpotifyURI))
				}
				logger.Info("Extracted song", fields...)
			}

			songs = append(songs, record)
		}
	}

	return songs, nil
}

// matchSong enriches one record with catalog fields. A miss or an API error
// is soft: the record keeps nil URI and explicit flag.
func (p *Pipeline) matchSong(ctx context.Context, record *db.WalkupSong) {
	if p.matcher == nil {
		return
	}

	match, err := p.matcher.MatchTrack(ctx, record.SongName, record.SongArtist)
	if err != nil {
		logger.Debug("Catalog search error",
			zap.String("song", record.SongName),
			zap.Error(err))
		p.metrics.CatalogMisses.Inc()
		return
	}
	if match == nil {
		p.metrics.CatalogMisses.Inc()
		return
	}

	record.SpotifyURI = &match.URI
	record.Explicit = &match.Explicit
	p.metrics.CatalogHits.Inc()
}

// printDryRun writes the would-be records to the log instead of storage.
func (p *Pipeline) printDryRun(scraped []*db.WalkupSong) {
	logger.Info("Dry run: skipping all storage writes",
		zap.Int("records", len(scraped)))
	for _, record := range scraped {
		uri := ""
		if record.SpotifyURI != nil {
			uri = *record.SpotifyURI
		}
		logger.Info("Would store",
			zap.String("team", record.Team),
			zap.String("player", record.Player),
			zap.String("song", record.SongName),
			zap.String("artist", record.SongArtist),
			zap.String("spotify_uri", uri))
	}
}

// logChanges mirrors the post-commit summary: counts plus the first few
// detected song changes.
func (p *Pipeline) logChanges(outcome *Outcome) {
	logger.Info("Stored reconciliation outcome",
		zap.Int("new", len(outcome.New)),
		zap.Int("changed", len(outcome.Changed)),
		zap.Int("unchanged", len(outcome.Unchanged)))

	if len(outcome.Changed) == 0 {
		return
	}
	logger.Info("Song changes detected", zap.Int("count", len(outcome.Changed)))
	for i, song := range outcome.Changed {
		if i >= 10 {
			logger.Info("More changes omitted", zap.Int("count", len(outcome.Changed)-10))
			break
		}
		logger.Info("Song change",
			zap.String("team", song.Team),
			zap.String("player", song.Player),
			zap.String("song", song.SongName))
	}
}

// startMetricsServer exposes Prometheus metrics while the run is alive.
func (p *Pipeline) startMetricsServer() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:    ":" + p.config.MetricsPort,
		Handler: mux,
	}

	logger.Info("Starting metrics server", zap.String("port", p.config.MetricsPort))

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Metrics server failed", zap.Error(err))
	}
}
