package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Session is one row of the capture session audit trail.
type Session struct {
	ID            string
	Theme         string
	Outcome       string
	ErrorCategory string
	StartedAt     time.Time
	FinishedAt    *time.Time
}

// Session outcomes.
const (
	OutcomeStarted   = "started"
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
)

// RecordSessionStart inserts an audit row for a newly started capture session.
func (s *Store) RecordSessionStart(ctx context.Context, id, theme string, startedAt time.Time) error {
	if id == "" {
		return errors.New("session id is required")
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO capture_sessions (id, theme, outcome, started_at) VALUES (?, ?, ?, ?)`,
		id,
		nullableString(theme),
		OutcomeStarted,
		startedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record session start: %w", err)
	}
	return nil
}

// RecordSessionFinish closes an audit row with its outcome. errorCategory is
// only meaningful for failed sessions.
func (s *Store) RecordSessionFinish(ctx context.Context, id, outcome, errorCategory string, finishedAt time.Time) error {
	if id == "" {
		return errors.New("session id is required")
	}
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE capture_sessions SET outcome = ?, error_category = ?, finished_at = ? WHERE id = ?`,
		outcome,
		nullableString(errorCategory),
		finishedAt.UTC().Format(time.RFC3339Nano),
		id,
	)
	if err != nil {
		return fmt.Errorf("record session finish: %w", err)
	}
	return nil
}

// RecentSessions returns the newest audit rows, most recent first.
func (s *Store) RecentSessions(ctx context.Context, limit int) ([]Session, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, theme, outcome, error_category, started_at, finished_at
         FROM capture_sessions ORDER BY started_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var (
			session     Session
			theme       sql.NullString
			category    sql.NullString
			startedRaw  string
			finishedRaw sql.NullString
		)
		if err := rows.Scan(&session.ID, &theme, &session.Outcome, &category, &startedRaw, &finishedRaw); err != nil {
			return nil, err
		}
		session.Theme = theme.String
		session.ErrorCategory = category.String
		if parsed, err := time.Parse(time.RFC3339Nano, startedRaw); err == nil {
			session.StartedAt = parsed
		}
		if finishedRaw.Valid {
			if parsed, err := time.Parse(time.RFC3339Nano, finishedRaw.String); err == nil {
				session.FinishedAt = &parsed
			}
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
