package db

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

var (
	dbPool    *pgxpool.Pool
	dbOnce    sync.Once
	initError error
)

const BatchSize = 100

const (
	maxWriteRetries = 3
	retryBackoff    = 2 * time.Second
)

// StorageError wraps an unrecoverable database failure after retries.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func initDB() error {
	dbHost := os.Getenv("DB_HOST")
	dbName := os.Getenv("DB_NAME")
	dbPort := os.Getenv("DB_PORT")
	dbUser := os.Getenv("DB_USER")
	dbPassword := os.Getenv("DB_PASSWORD")

	if dbHost == "" || dbName == "" || dbUser == "" || dbPassword == "" {
		return errors.New("missing required database connection parameters (DB_HOST, DB_NAME, DB_USER, DB_PASSWORD)")
	}
	if dbPort == "" {
		dbPort = "5432"
	}

	connString := fmt.Sprintf("postgres://%s:%s@%s:%s/%s",
		dbUser, dbPassword, dbHost, dbPort, dbName)

	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return fmt.Errorf("unable to parse connection string: %w", err)
	}

	// Tell the pool to use the simple protocol by default for Exec/Query calls
	config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	// Small pool: one batch process is the only consumer. Connections are
	// recycled periodically to survive long-idle network paths.
	config.MinConns = 3
	config.MaxConns = 8
	config.MaxConnLifetime = 30 * time.Minute
	config.HealthCheckPeriod = time.Minute
	config.ConnConfig.ConnectTimeout = 30 * time.Second

	connectCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, config)
	if err != nil {
		return fmt.Errorf("unable to create connection pool: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer pingCancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return fmt.Errorf("unable to ping database pool: %w", err)
	}

	dbPool = pool
	return nil
}

func getDB() (*pgxpool.Pool, error) {
	dbOnce.Do(func() {
		initError = initDB()
	})

	if initError != nil {
		return nil, initError
	}

	return dbPool, nil
}

// Close releases the pool. Safe to call when the pool was never opened.
func Close() {
	if dbPool != nil {
		dbPool.Close()
	}
}

// isTransient reports whether a write failure is worth retrying: network
// errors, timeouts, and Postgres connection/operational error classes.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	if pgconn.SafeToRetry(err) || pgconn.Timeout(err) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// Class 08: connection exceptions, class 57: operator intervention
		// (admin shutdown, crash recovery), 40001/40P01: serialization.
		switch {
		case len(pgErr.Code) >= 2 && (pgErr.Code[:2] == "08" || pgErr.Code[:2] == "57"):
			return true
		case pgErr.Code == "40001" || pgErr.Code == "40P01":
			return true
		}
	}
	return false
}

func processBatchResults(br pgx.BatchResults, count int) error {
	for i := range count {
		_, err := br.Exec()
		if err != nil {
			_ = br.Close()
			return fmt.Errorf("error executing batch item %d: %w", i, err)
		}
	}
	return br.Close()
}

// runBatchChunk executes one batch inside its own transaction.
func runBatchChunk(ctx context.Context, batch *pgx.Batch) error {
	db, err := getDB()
	if err != nil {
		return fmt.Errorf("database connection error: %w", err)
	}

	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	br := tx.SendBatch(ctx, batch)
	if err := processBatchResults(br, batch.Len()); err != nil {
		return fmt.Errorf("batch execution error (batch size %d): %w", batch.Len(), err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("transaction commit error: %w", err)
	}
	return nil
}

// execBatchChunk is swapped out in tests to capture queued batches without
// a live database.
var execBatchChunk = runBatchChunkWithRetry

// runBatchChunkWithRetry retries a chunk on transient failures with linear
// backoff before giving up and failing the run.
func runBatchChunkWithRetry(ctx context.Context, batch *pgx.Batch, op string) error {
	var err error
	for attempt := 1; attempt <= maxWriteRetries; attempt++ {
		err = runBatchChunk(ctx, batch)
		if err == nil {
			return nil
		}
		if !isTransient(err) {
			break
		}
		if attempt < maxWriteRetries {
			delay := time.Duration(attempt) * retryBackoff
			logger.Warn("Transient database error, retrying chunk",
				zap.String("op", op), zap.Int("attempt", attempt), zap.Error(err))
			select {
			case <-ctx.Done():
				return &StorageError{Op: op, Err: ctx.Err()}
			case <-time.After(delay):
			}
		}
	}
	return &StorageError{Op: op, Err: err}
}
