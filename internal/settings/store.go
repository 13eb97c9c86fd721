package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	_ "modernc.org/sqlite"

	"strobe/internal/config"
)

// Known setting keys. Config supplies the defaults; operator adjustments made
// at runtime persist here and win on the next read.
const (
	KeyDisplaySeconds        = "slideshow.display_seconds"
	KeyMinimumDisplaySeconds = "capture.minimum_display_seconds"
	KeyCountdownSeconds      = "capture.countdown_seconds"
	KeyMaxAgeDays            = "retention.max_age_days"
	KeyMaxPairCount          = "retention.max_pair_count"
	KeyAutomaticCleanup      = "retention.automatic_cleanup"
	KeyLastCleanupAt         = "retention.last_cleanup_at"
)

// Store persists small scalar settings and the capture session audit trail
// in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the settings database and applies the schema.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.LogDir, "strobe.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.applySchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) applySchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS settings (
            key TEXT PRIMARY KEY,
            value TEXT NOT NULL,
            updated_at TEXT NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS capture_sessions (
            id TEXT PRIMARY KEY,
            theme TEXT,
            outcome TEXT NOT NULL DEFAULT 'started',
            error_category TEXT,
            started_at TEXT NOT NULL,
            finished_at TEXT
        )`,
		`CREATE INDEX IF NOT EXISTS idx_capture_sessions_started
            ON capture_sessions(started_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

func (s *Store) setValue(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
         ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key,
		value,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

func (s *Store) value(ctx context.Context, key string) (string, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key)
	var value string
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("get %q: %w", key, err)
	}
	return value, true, nil
}

// SetInt persists an integer setting.
func (s *Store) SetInt(ctx context.Context, key string, value int) error {
	return s.setValue(ctx, key, strconv.Itoa(value))
}

// Int reads an integer setting, returning fallback when unset or unparseable.
func (s *Store) Int(ctx context.Context, key string, fallback int) (int, error) {
	raw, found, err := s.value(ctx, key)
	if err != nil {
		return fallback, err
	}
	if !found {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return fallback, nil
	}
	return parsed, nil
}

// SetBool persists a boolean setting.
func (s *Store) SetBool(ctx context.Context, key string, value bool) error {
	return s.setValue(ctx, key, strconv.FormatBool(value))
}

// Bool reads a boolean setting, returning fallback when unset or unparseable.
func (s *Store) Bool(ctx context.Context, key string, fallback bool) (bool, error) {
	raw, found, err := s.value(ctx, key)
	if err != nil {
		return fallback, err
	}
	if !found {
		return fallback, nil
	}
	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback, nil
	}
	return parsed, nil
}

// SetTime persists a timestamp setting in RFC3339 form.
func (s *Store) SetTime(ctx context.Context, key string, value time.Time) error {
	return s.setValue(ctx, key, value.UTC().Format(time.RFC3339Nano))
}

// Time reads a timestamp setting. found is false when the key is unset or
// fails to parse.
func (s *Store) Time(ctx context.Context, key string) (time.Time, bool, error) {
	raw, found, err := s.value(ctx, key)
	if err != nil || !found {
		return time.Time{}, false, err
	}
	parsed, parseErr := time.Parse(time.RFC3339Nano, raw)
	if parseErr != nil {
		return time.Time{}, false, nil
	}
	return parsed, true, nil
}
