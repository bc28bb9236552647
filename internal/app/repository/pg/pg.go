package pg

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// PostgresDB backs all DAOs with a Postgres connection. Selected over sqlite
// when DATABASE_URL is configured.
type PostgresDB struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	id BIGSERIAL PRIMARY KEY,
	email TEXT NOT NULL UNIQUE,
	api_key TEXT UNIQUE,
	plan_tier TEXT NOT NULL DEFAULT 'free',
	monthly_minutes_limit INTEGER NOT NULL DEFAULT 100,
	monthly_minutes_used DOUBLE PRECISION NOT NULL DEFAULT 0,
	last_usage_reset TIMESTAMPTZ NOT NULL,
	subscription_status TEXT,
	cancel_at_period_end BOOLEAN NOT NULL DEFAULT FALSE,
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS jobs (
	id BIGSERIAL PRIMARY KEY,
	job_id TEXT NOT NULL UNIQUE,
	account_id BIGINT NOT NULL REFERENCES accounts(id),
	original_filename TEXT NOT NULL,
	segment_duration INTEGER NOT NULL,
	segments_count INTEGER NOT NULL,
	total_duration DOUBLE PRECISION NOT NULL,
	aspect_ratio TEXT,
	crop_position TEXT,
	status TEXT NOT NULL,
	error_message TEXT,
	created_at TIMESTAMPTZ NOT NULL,
	completed_at TIMESTAMPTZ,
	expires_at TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_jobs_account_created ON jobs(account_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_jobs_status_expires ON jobs(status, expires_at);

CREATE TABLE IF NOT EXISTS usage_records (
	id BIGSERIAL PRIMARY KEY,
	account_id BIGINT NOT NULL REFERENCES accounts(id),
	job_id TEXT NOT NULL,
	duration_seconds DOUBLE PRECISION NOT NULL,
	size_mb DOUBLE PRECISION NOT NULL,
	segments_count INTEGER NOT NULL,
	processing_seconds DOUBLE PRECISION NOT NULL,
	source TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_usage_account_created ON usage_records(account_id, created_at DESC);
`

// NewPostgresDB opens a connection from a DSN (postgres://... or key=value
// form) and ensures the schema exists.
func NewPostgresDB(dsn string) (*PostgresDB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return &PostgresDB{db: db}, nil
}

// NewPostgresDBFromConn wraps an existing connection without touching the
// schema (unit tests with sqlmock).
func NewPostgresDBFromConn(db *sql.DB) *PostgresDB {
	return &PostgresDB{db: db}
}

func (pdb *PostgresDB) Close() error {
	return pdb.db.Close()
}
