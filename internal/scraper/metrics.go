package scraper

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for a scrape run
type Metrics struct {
	TeamsScraped   prometheus.Counter
	TeamsSkipped   prometheus.Counter
	FetchErrors    prometheus.Counter
	SongsExtracted prometheus.Counter
	CatalogHits    prometheus.Counter
	CatalogMisses  prometheus.Counter
	RowsStored     prometheus.Counter
	TeamDuration   prometheus.Histogram
}

// NewMetrics creates a new metrics instance
func NewMetrics() *Metrics {
	return &Metrics{
		TeamsScraped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "walkup_scraper_teams_scraped_total",
			Help: "The total number of team pages scraped successfully",
		}),
		TeamsSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "walkup_scraper_teams_skipped_total",
			Help: "The total number of teams skipped after fetch or extraction failure",
		}),
		FetchErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "walkup_scraper_fetch_errors_total",
			Help: "The total number of page fetches that exhausted their retries",
		}),
		SongsExtracted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "walkup_scraper_songs_extracted_total",
			Help: "The total number of (player, song) pairs extracted",
		}),
		CatalogHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "walkup_scraper_catalog_hits_total",
			Help: "The total number of songs matched on the catalog",
		}),
		CatalogMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "walkup_scraper_catalog_misses_total",
			Help: "The total number of songs with no catalog match",
		}),
		RowsStored: promauto.NewCounter(prometheus.CounterOpts{
			Name: "walkup_scraper_rows_stored_total",
			Help: "The total number of rows inserted or reactivated",
		}),
		TeamDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "walkup_scraper_team_duration_seconds",
			Help:    "The duration of one team's fetch, extraction and matching in seconds",
			Buckets: prometheus.DefBuckets,
		}),
	}
}
