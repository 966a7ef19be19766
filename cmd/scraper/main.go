package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/walkupsongs/WalkupTracker/internal/db"
	"github.com/walkupsongs/WalkupTracker/internal/scraper"
	"github.com/walkupsongs/WalkupTracker/internal/spotify"
)

func main() {
	var (
		dryRun      = flag.Bool("dry-run", false, "Perform extraction and matching, print the would-be records, skip all storage writes")
		verbose     = flag.Bool("verbose", false, "Emit per-song diagnostic logging in addition to summary logging")
		createOnly  = flag.Bool("schema", false, "Create the database schema and exit")
		logLevel    = flag.String("log-level", getEnv("LOG_LEVEL", "info"), "Log level (debug, info, warn, error)")
		metricsPort = flag.String("metrics-port", os.Getenv("METRICS_PORT"), "Metrics server port (empty disables the metrics server)")
	)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <spotify_client_id> <spotify_client_secret>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	// Load environment variables
	if os.Getenv("DEBUG") == "true" {
		err := godotenv.Load("../../.env")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: .env file not found. Using system environment variables.\n")
		}
	}

	logger, err := setupLogger(*logLevel, *verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error setting up logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	db.InitializeLogger(logger)
	spotify.InitializeLogger(logger)
	scraper.InitializeLogger(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	}()

	if *createOnly {
		if err := db.CreateSchema(ctx); err != nil {
			logger.Fatal("Failed to create schema", zap.Error(err))
		}
		db.Close()
		return
	}

	args := flag.Args()
	if len(args) < 2 {
		flag.Usage()
		os.Exit(1)
	}
	clientId, clientSecret, err := parseCredentials(args)
	if err != nil {
		logger.Fatal("Invalid catalog credentials", zap.Error(err))
	}
	matcher := spotify.NewClient(clientId, clientSecret)

	// Scrape dates are local to the league's timezone.
	est, err := time.LoadLocation("America/New_York")
	if err != nil {
		est = time.UTC
	}
	now := time.Now().In(est)
	scrapeDate := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	logger.Info("Starting MLB walkup songs scraper",
		zap.Time("scrape_date", scrapeDate),
		zap.Bool("dry_run", *dryRun),
		zap.Bool("verbose", *verbose))

	// Fail fast on storage configuration before any scraping work begins.
	if !*dryRun {
		if err := db.CreateSchema(ctx); err != nil {
			logger.Fatal("Failed to prepare database", zap.Error(err))
		}
		defer db.Close()
	}

	pipeline := scraper.New(&scraper.Config{
		DryRun:      *dryRun,
		Verbose:     *verbose,
		MetricsPort: *metricsPort,
	}, matcher)

	summary, err := pipeline.Run(ctx, scrapeDate)
	if err != nil {
		logger.Error("Scrape run failed", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("Scraper completed successfully",
		zap.Int("teams", summary.TeamsProcessed),
		zap.Int("teams_skipped", summary.TeamsSkipped),
		zap.Int("songs", summary.SongsScraped),
		zap.Int("stored", summary.Stored))
}

// parseCredentials validates the positional catalog credentials. Blank
// values are a configuration error, not a degraded mode.
func parseCredentials(args []string) (string, string, error) {
	clientId := strings.TrimSpace(args[0])
	clientSecret := strings.TrimSpace(args[1])
	if clientId == "" {
		return "", "", errors.New("spotify client id must not be empty")
	}
	if clientSecret == "" {
		return "", "", errors.New("spotify client secret must not be empty")
	}
	return clientId, clientSecret, nil
}

func setupLogger(level string, verbose bool) (*zap.Logger, error) {
	var config zap.Config

	if level == "debug" || verbose {
		config = zap.NewDevelopmentConfig()
	} else {
		config = zap.NewProductionConfig()
	}

	switch level {
	case "debug":
		config.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		config.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		config.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		config.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		config.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	return config.Build()
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
