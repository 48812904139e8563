package db

import (
	"database/sql"
	"fmt"
	"os"
	"time"

	"iaai-scout/models"

	_ "github.com/lib/pq"
)

// DB wraps the Postgres connection holding run history.
type DB struct {
	conn *sql.DB
}

// Run is one persisted run history row.
type Run struct {
	ID            int
	StartedAt     time.Time
	FinishedAt    sql.NullTime
	Status        string // "done" or "failed"
	Queries       int
	Added         int
	Updated       int
	TotalEligible int
	LastError     sql.NullString
}

// NewDB connects using DATABASE_URL, or individual DB_* variables when
// it is unset.
func NewDB() (*DB, error) {
	connStr := os.Getenv("DATABASE_URL")
	if connStr == "" {
		host := getEnvOrDefault("DB_HOST", "localhost")
		port := getEnvOrDefault("DB_PORT", "5432")
		user := getEnvOrDefault("DB_USER", "iaai_scout")
		password := getEnvOrDefault("DB_PASSWORD", "")
		dbname := getEnvOrDefault("DB_NAME", "iaai_scout")
		sslmode := getEnvOrDefault("DB_SSLMODE", "disable")

		connStr = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			host, port, user, password, dbname, sslmode)
	}

	conn, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// initSchema creates the run history table if it doesn't exist.
func (db *DB) initSchema() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id SERIAL PRIMARY KEY,
			started_at TIMESTAMP NOT NULL,
			finished_at TIMESTAMP,
			status VARCHAR(20) NOT NULL DEFAULT 'done',
			queries INTEGER NOT NULL DEFAULT 0,
			added INTEGER NOT NULL DEFAULT 0,
			updated INTEGER NOT NULL DEFAULT 0,
			total_eligible INTEGER NOT NULL DEFAULT 0,
			last_error TEXT,
			CONSTRAINT valid_run_status CHECK (status IN ('done', 'failed'))
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create runs table: %w", err)
	}

	return nil
}

// SaveRun records the outcome of one run. runErr may be nil.
func (db *DB) SaveRun(startedAt time.Time, queries int, summary models.RunSummary, runErr error) error {
	status := "done"
	var lastError sql.NullString
	if runErr != nil {
		status = "failed"
		lastError = sql.NullString{String: runErr.Error(), Valid: true}
	}

	_, err := db.conn.Exec(`
		INSERT INTO runs (started_at, finished_at, status, queries, added, updated, total_eligible, last_error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, startedAt, time.Now(), status, queries, summary.Added, summary.Updated, summary.TotalEligible, lastError)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	return nil
}

// RecentRuns returns the latest runs, newest first.
func (db *DB) RecentRuns(limit int) ([]Run, error) {
	rows, err := db.conn.Query(`
		SELECT id, started_at, finished_at, status, queries, added, updated, total_eligible, last_error
		FROM runs
		ORDER BY started_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &r.Status,
			&r.Queries, &r.Added, &r.Updated, &r.TotalEligible, &r.LastError); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, r)
	}

	return runs, rows.Err()
}
