package sqlite

import (
	"database/sql"
	"fmt"
	"log"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteDB backs all DAOs with a single sqlite file. Default store for
// single-node deployments; Postgres takes over when DATABASE_URL is set.
type SQLiteDB struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	email TEXT NOT NULL UNIQUE,
	api_key TEXT UNIQUE,
	plan_tier TEXT NOT NULL DEFAULT 'free',
	monthly_minutes_limit INTEGER NOT NULL DEFAULT 100,
	monthly_minutes_used REAL NOT NULL DEFAULT 0,
	last_usage_reset TIMESTAMP NOT NULL,
	subscription_status TEXT,
	cancel_at_period_end INTEGER NOT NULL DEFAULT 0,
	is_active INTEGER NOT NULL DEFAULT 1,
	created_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS jobs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	job_id TEXT NOT NULL UNIQUE,
	account_id INTEGER NOT NULL REFERENCES accounts(id),
	original_filename TEXT NOT NULL,
	segment_duration INTEGER NOT NULL,
	segments_count INTEGER NOT NULL,
	total_duration REAL NOT NULL,
	aspect_ratio TEXT,
	crop_position TEXT,
	status TEXT NOT NULL,
	error_message TEXT,
	created_at TIMESTAMP NOT NULL,
	completed_at TIMESTAMP,
	expires_at TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_jobs_account_created ON jobs(account_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_jobs_status_expires ON jobs(status, expires_at);

CREATE TABLE IF NOT EXISTS usage_records (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	account_id INTEGER NOT NULL REFERENCES accounts(id),
	job_id TEXT NOT NULL,
	duration_seconds REAL NOT NULL,
	size_mb REAL NOT NULL,
	segments_count INTEGER NOT NULL,
	processing_seconds REAL NOT NULL,
	source TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_usage_account_created ON usage_records(account_id, created_at DESC);
`

func NewSQLiteDB(dbFilePath string) *SQLiteDB {
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?cache=shared&mode=rwc", dbFilePath))
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	if _, err := db.Exec(schema); err != nil {
		log.Fatalf("Failed to create tables: %v", err)
	}
	return &SQLiteDB{db: db}
}

// NewSQLiteDBFromConn wraps an existing connection (tests).
func NewSQLiteDBFromConn(db *sql.DB) (*SQLiteDB, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return &SQLiteDB{db: db}, nil
}

func (sdb *SQLiteDB) Close() error {
	return sdb.db.Close()
}
