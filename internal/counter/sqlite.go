package counter

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"subwatch/migrations"
)

const timeLayout = "2006-01-02T15:04:05Z"

// SQLite implements Store backed by a local SQLite database. Atomicity of
// the increment comes from executing it as a single upsert statement.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at dsn and runs pending migrations.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Increment bumps the counter for key in a single upsert and returns the
// post-increment value. Lock contention is reported as ErrUnavailable.
func (s *SQLite) Increment(ctx context.Context, key string) (int64, error) {
	now := time.Now().UTC().Format(timeLayout)
	var count int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO hit_counts (submission_id, count, first_seen_at, updated_at)
		 VALUES (?, 1, ?, ?)
		 ON CONFLICT(submission_id) DO UPDATE
		 SET count = count + 1, updated_at = excluded.updated_at
		 RETURNING count`,
		key, now, now,
	).Scan(&count)
	if err != nil {
		if isBusy(err) {
			return 0, fmt.Errorf("increment %q: %w", key, ErrUnavailable)
		}
		return 0, fmt.Errorf("increment %q: %w", key, err)
	}
	return count, nil
}

func isBusy(err error) bool {
	var serr *sqlite.Error
	if errors.As(err, &serr) {
		code := serr.Code() & 0xff
		return code == sqlite3.SQLITE_BUSY || code == sqlite3.SQLITE_LOCKED
	}
	return false
}
