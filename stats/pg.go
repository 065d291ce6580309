package stats

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const statsSchema = `
CREATE TABLE IF NOT EXISTS router_stats (
	worker_id          TEXT        NOT NULL,
	flushed_at         TIMESTAMPTZ NOT NULL,
	requests           BIGINT      NOT NULL,
	transit_requests   BIGINT      NOT NULL,
	fast_car_attempts  BIGINT      NOT NULL,
	fast_car_hits      BIGINT      NOT NULL,
	fast_walk_attempts BIGINT      NOT NULL,
	fast_walk_hits     BIGINT      NOT NULL,
	fallbacks          BIGINT      NOT NULL,
	failures           BIGINT      NOT NULL,
	embodiments        BIGINT      NOT NULL,
	PRIMARY KEY (worker_id, flushed_at)
);`

// PGSink persists snapshots to Postgres so iteration statistics survive
// worker restarts.
type PGSink struct {
	DB *sql.DB
}

// NewPGSink opens the database, verifies the connection and ensures the
// stats table exists.
func NewPGSink(databaseURL string) (*PGSink, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("stats sink: open postgres database: %w", err)
	}
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("stats sink: verify postgres connection: %w", err)
	}
	if _, err := db.Exec(statsSchema); err != nil {
		return nil, fmt.Errorf("stats sink: ensure router_stats table: %w", err)
	}
	return &PGSink{DB: db}, nil
}

// Flush upserts one snapshot row.
func (p *PGSink) Flush(ctx context.Context, workerID string, s Snapshot) error {
	if p.DB == nil {
		return errors.New("stats sink: db is nil")
	}
	q := `
	INSERT INTO router_stats (
		worker_id, flushed_at, requests, transit_requests,
		fast_car_attempts, fast_car_hits, fast_walk_attempts, fast_walk_hits,
		fallbacks, failures, embodiments)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	ON CONFLICT (worker_id, flushed_at) DO UPDATE
	SET requests = EXCLUDED.requests,
		transit_requests = EXCLUDED.transit_requests,
		fast_car_attempts = EXCLUDED.fast_car_attempts,
		fast_car_hits = EXCLUDED.fast_car_hits,
		fast_walk_attempts = EXCLUDED.fast_walk_attempts,
		fast_walk_hits = EXCLUDED.fast_walk_hits,
		fallbacks = EXCLUDED.fallbacks,
		failures = EXCLUDED.failures,
		embodiments = EXCLUDED.embodiments;
	`
	_, err := p.DB.ExecContext(ctx, q,
		workerID, s.At, s.Requests, s.TransitRequests,
		s.FastCarAttempts, s.FastCarHits, s.FastWalkAttempts, s.FastWalkHits,
		s.Fallbacks, s.Failures, s.Embodiments)
	if err != nil {
		return fmt.Errorf("stats sink: insert router_stats: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (p *PGSink) Close() error {
	if p.DB == nil {
		return nil
	}
	return p.DB.Close()
}
