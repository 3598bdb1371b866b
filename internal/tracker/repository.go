package tracker

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"
)

var ErrNoActiveTracking = errors.New("no active time tracking for session")

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, sessionID int) (*TimeTracking, error) {
	query := `
		INSERT INTO session_time_tracker (session_id, start_time, is_active)
		VALUES ($1, NOW(), TRUE)
		RETURNING id, session_id, start_time, pause_time, resume_time,
		          total_active_seconds, total_paused_seconds, is_active, created_at, updated_at
	`

	var tt TimeTracking
	err := r.db.GetContext(ctx, &tt, query, sessionID)
	if err != nil {
		return nil, err
	}

	return &tt, nil
}

func (r *repository) GetActive(ctx context.Context, sessionID int) (*TimeTracking, error) {
	query := `
		SELECT id, session_id, start_time, pause_time, resume_time,
		       total_active_seconds, total_paused_seconds, is_active, created_at, updated_at
		FROM session_time_tracker
		WHERE session_id = $1 AND is_active = TRUE
		ORDER BY created_at DESC
		LIMIT 1
	`

	var tt TimeTracking
	err := r.db.GetContext(ctx, &tt, query, sessionID)
	if err != nil {
		return nil, err
	}

	return &tt, nil
}

// GetLatest returns the newest tracking row for the session whether or not
// it is still active, for completion retries after the active row was
// already finished.
func (r *repository) GetLatest(ctx context.Context, sessionID int) (*TimeTracking, error) {
	query := `
		SELECT id, session_id, start_time, pause_time, resume_time,
		       total_active_seconds, total_paused_seconds, is_active, created_at, updated_at
		FROM session_time_tracker
		WHERE session_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	var tt TimeTracking
	err := r.db.GetContext(ctx, &tt, query, sessionID)
	if err != nil {
		return nil, err
	}

	return &tt, nil
}

func (r *repository) RecordPause(ctx context.Context, sessionID int, activeSeconds int64) error {
	query := `
		UPDATE session_time_tracker
		SET pause_time = NOW(), total_active_seconds = $2, updated_at = NOW()
		WHERE session_id = $1 AND is_active = TRUE
	`

	result, err := r.db.ExecContext(ctx, query, sessionID, activeSeconds)
	if err != nil {
		return err
	}

	return requireRow(result)
}

func (r *repository) RecordResume(ctx context.Context, sessionID int, pausedSeconds int64) error {
	query := `
		UPDATE session_time_tracker
		SET resume_time = NOW(), total_paused_seconds = $2, updated_at = NOW()
		WHERE session_id = $1 AND is_active = TRUE
	`

	result, err := r.db.ExecContext(ctx, query, sessionID, pausedSeconds)
	if err != nil {
		return err
	}

	return requireRow(result)
}

// Finish freezes the final totals and flips the row inactive. The row is
// retained as the audit record of the session's measured time.
func (r *repository) Finish(ctx context.Context, sessionID int, activeSeconds, pausedSeconds int64) error {
	query := `
		UPDATE session_time_tracker
		SET total_active_seconds = $2, total_paused_seconds = $3, is_active = FALSE, updated_at = NOW()
		WHERE session_id = $1 AND is_active = TRUE
	`

	result, err := r.db.ExecContext(ctx, query, sessionID, activeSeconds, pausedSeconds)
	if err != nil {
		return err
	}

	return requireRow(result)
}

func requireRow(result interface{ RowsAffected() (int64, error) }) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNoActiveTracking
	}
	return nil
}
