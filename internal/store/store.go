// Package store keeps a SQLite catalogue of analysis runs and the pixels
// each run flagged.
package store

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/pixlab/bumpcheck/internal/timeutil"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrRunNotFound is returned when a run ID is unknown.
var ErrRunNotFound = errors.New("run not found")

type Store struct {
	db    *sql.DB
	path  string
	clock timeutil.Clock
}

var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA foreign_keys=ON",
}

// OpenRaw opens the database without touching its schema. The migrate
// subcommand uses it so a dirty database can still be inspected.
func OpenRaw(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalogue %s: %w", path, err)
	}
	// PRAGMAs are per connection.
	db.SetMaxOpenConns(1)
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", p, err)
		}
	}
	return &Store{db: db, path: path, clock: timeutil.RealClock{}}, nil
}

// Open opens the catalogue at path and applies pending migrations.
func Open(path string) (*Store, error) {
	s, err := OpenRaw(path)
	if err != nil {
		return nil, err
	}
	if err := s.MigrateUp(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Path() string { return s.path }

// SetClock replaces the clock used for run timestamps and retry back-off.
func (s *Store) SetClock(c timeutil.Clock) { s.clock = c }

func (s *Store) Close() error {
	return s.db.Close()
}

// isSQLiteBusy reports whether err is a transient lock error.
func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "SQLITE_BUSY")
}

// retryOnBusy runs fn up to five times, doubling a 10ms delay between
// attempts while SQLite reports the database as locked.
func retryOnBusy(clock timeutil.Clock, fn func() error) error {
	const maxAttempts = 5
	delay := 10 * time.Millisecond
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = fn()
		if !isSQLiteBusy(err) {
			return err
		}
		if attempt < maxAttempts {
			clock.Sleep(delay)
			delay *= 2
		}
	}
	return fmt.Errorf("gave up after %d attempts: %w", maxAttempts, err)
}
