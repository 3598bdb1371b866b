package session

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"
)

var ErrInvalidTransition = errors.New("session is not in a state allowing this transition")

const sessionColumns = `
	id, teacher_id, student_id, subject, meeting_id, status, tokens_charged,
	scheduled_start, scheduled_end, actual_start, actual_end, duration_minutes,
	tokens_deducted_at, tokens_credited_at, created_at, updated_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, s *ClassSession) (*ClassSession, error) {
	query := `
		INSERT INTO class_sessions
			(teacher_id, student_id, subject, meeting_id, status, tokens_charged, scheduled_start, scheduled_end)
		VALUES ($1, $2, $3, $4, 'scheduled', $5, $6, $7)
		RETURNING ` + sessionColumns

	var created ClassSession
	err := r.db.GetContext(ctx, &created, query,
		s.TeacherID, s.StudentID, s.Subject, s.MeetingID, s.TokensCharged, s.ScheduledStart, s.ScheduledEnd)
	if err != nil {
		return nil, err
	}

	return &created, nil
}

func (r *repository) GetByID(ctx context.Context, id int) (*ClassSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM class_sessions WHERE id = $1`

	var s ClassSession
	err := r.db.GetContext(ctx, &s, query, id)
	if err != nil {
		return nil, err
	}

	return &s, nil
}

func (r *repository) MarkStarted(ctx context.Context, id int) error {
	query := `
		UPDATE class_sessions
		SET status = 'in_progress', actual_start = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = 'scheduled'
	`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	return requireRow(result)
}

// ClaimDeduction stamps tokens_deducted_at iff it is still null. The returned
// bool reports whether this call won the claim; a false return means another
// invocation already charged the student.
func (r *repository) ClaimDeduction(ctx context.Context, id int) (bool, error) {
	query := `
		UPDATE class_sessions
		SET tokens_deducted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND tokens_deducted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rows > 0, nil
}

// ReleaseDeduction clears the stamp after a failed charge so the session can
// be retried.
func (r *repository) ReleaseDeduction(ctx context.Context, id int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE class_sessions SET tokens_deducted_at = NULL, updated_at = NOW() WHERE id = $1`, id)
	return err
}

// ClaimCredit stamps tokens_credited_at iff it is still null, guarding the
// teacher payout against double completion.
func (r *repository) ClaimCredit(ctx context.Context, id int) (bool, error) {
	query := `
		UPDATE class_sessions
		SET tokens_credited_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND tokens_credited_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rows > 0, nil
}

func (r *repository) ReleaseCredit(ctx context.Context, id int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE class_sessions SET tokens_credited_at = NULL, updated_at = NOW() WHERE id = $1`, id)
	return err
}

// MarkCompleted finalizes the session. The stored duration is recomputed from
// the authoritative timestamps, not from the client-measured tracker.
func (r *repository) MarkCompleted(ctx context.Context, id int) error {
	query := `
		UPDATE class_sessions
		SET status = 'completed',
		    actual_end = NOW(),
		    duration_minutes = FLOOR(EXTRACT(EPOCH FROM (NOW() - actual_start)) / 60),
		    updated_at = NOW()
		WHERE id = $1 AND status = 'in_progress'
	`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	return requireRow(result)
}

// MarkCancelled flips a scheduled or in-progress session to cancelled. The
// rows-affected guard makes the transition single-shot, which in turn bounds
// the compensating refund to exactly one.
func (r *repository) MarkCancelled(ctx context.Context, id int) error {
	query := `
		UPDATE class_sessions
		SET status = 'cancelled', actual_end = NOW(), updated_at = NOW()
		WHERE id = $1 AND status IN ('scheduled', 'in_progress')
	`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	return requireRow(result)
}

func (r *repository) ListByStudent(ctx context.Context, studentID int) ([]SessionWithNames, error) {
	return r.listFor(ctx, "student_id", studentID)
}

func (r *repository) ListByTeacher(ctx context.Context, teacherID int) ([]SessionWithNames, error) {
	return r.listFor(ctx, "teacher_id", teacherID)
}

func (r *repository) listFor(ctx context.Context, column string, userID int) ([]SessionWithNames, error) {
	query := `
		SELECT
			s.id, s.teacher_id, s.student_id, s.subject, s.meeting_id, s.status, s.tokens_charged,
			s.scheduled_start, s.scheduled_end, s.actual_start, s.actual_end, s.duration_minutes,
			s.tokens_deducted_at, s.tokens_credited_at, s.created_at, s.updated_at,
			t.name AS teacher_name,
			st.name AS student_name
		FROM class_sessions s
		JOIN users t ON s.teacher_id = t.id
		JOIN users st ON s.student_id = st.id
		WHERE s.` + column + ` = $1
		ORDER BY s.scheduled_start DESC
	`

	var sessions []SessionWithNames
	err := r.db.SelectContext(ctx, &sessions, query, userID)
	if err != nil {
		return nil, err
	}

	return sessions, nil
}

func requireRow(result interface{ RowsAffected() (int64, error) }) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrInvalidTransition
	}
	return nil
}
