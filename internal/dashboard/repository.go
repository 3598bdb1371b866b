package dashboard

import (
	"context"

	"github.com/jmoiron/sqlx"
)

type StudentStats struct {
	TotalSessions     int   `db:"total_sessions" json:"total_sessions"`
	CompletedSessions int   `db:"completed_sessions" json:"completed_sessions"`
	UpcomingSessions  int   `db:"upcoming_sessions" json:"upcoming_sessions"`
	TokensSpent       int64 `db:"tokens_spent" json:"tokens_spent"`
	TokenBalance      int64 `db:"token_balance" json:"token_balance"`
}

type TeacherStats struct {
	TotalSessions      int   `db:"total_sessions" json:"total_sessions"`
	CompletedSessions  int   `db:"completed_sessions" json:"completed_sessions"`
	UpcomingSessions   int   `db:"upcoming_sessions" json:"upcoming_sessions"`
	TokensEarned       int64 `db:"tokens_earned" json:"tokens_earned"`
	TokenBalance       int64 `db:"token_balance" json:"token_balance"`
	PendingWithdrawals int   `db:"pending_withdrawals" json:"pending_withdrawals"`
}

type Repository interface {
	GetStudentStats(ctx context.Context, studentID int) (*StudentStats, error)
	GetTeacherStats(ctx context.Context, teacherID int) (*TeacherStats, error)
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetStudentStats(ctx context.Context, studentID int) (*StudentStats, error) {
	query := `
SELECT
  COUNT(s.*)                                                    AS total_sessions,
  COUNT(s.*) FILTER (WHERE s.status = 'completed')              AS completed_sessions,
  COUNT(s.*) FILTER (WHERE s.status = 'scheduled'
                       AND s.scheduled_start > NOW())           AS upcoming_sessions,
  COALESCE((SELECT SUM(-t.amount)
            FROM token_transactions t
            JOIN wallets w ON t.wallet_id = w.id
            WHERE w.user_id = $1 AND t.type = 'deduction'), 0)  AS tokens_spent,
  COALESCE((SELECT w.balance FROM wallets w WHERE w.user_id = $1), 0) AS token_balance
FROM class_sessions s
WHERE s.student_id = $1;
`
	var stats StudentStats
	if err := r.db.GetContext(ctx, &stats, query, studentID); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (r *repository) GetTeacherStats(ctx context.Context, teacherID int) (*TeacherStats, error) {
	query := `
SELECT
  COUNT(s.*)                                                    AS total_sessions,
  COUNT(s.*) FILTER (WHERE s.status = 'completed')              AS completed_sessions,
  COUNT(s.*) FILTER (WHERE s.status = 'scheduled'
                       AND s.scheduled_start > NOW())           AS upcoming_sessions,
  COALESCE((SELECT SUM(t.amount)
            FROM token_transactions t
            JOIN wallets w ON t.wallet_id = w.id
            WHERE w.user_id = $1 AND t.type = 'earning'), 0)    AS tokens_earned,
  COALESCE((SELECT w.balance FROM wallets w WHERE w.user_id = $1), 0) AS token_balance,
  COALESCE((SELECT COUNT(*) FROM withdrawal_requests wr
            WHERE wr.teacher_id = $1 AND wr.status = 'pending'), 0) AS pending_withdrawals
FROM class_sessions s
WHERE s.teacher_id = $1;
`
	var stats TeacherStats
	if err := r.db.GetContext(ctx, &stats, query, teacherID); err != nil {
		return nil, err
	}
	return &stats, nil
}
