package dashboard

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupDashboardMock(t *testing.T) (Repository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	return NewRepository(sqlxDB), mock
}

func TestGetStudentStats(t *testing.T) {
	repo, mock := setupDashboardMock(t)

	rows := sqlmock.NewRows([]string{
		"total_sessions", "completed_sessions", "upcoming_sessions", "tokens_spent", "token_balance",
	}).AddRow(12, 8, 2, 80, 45)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE s.student_id = $1")).
		WithArgs(1).
		WillReturnRows(rows)

	stats, err := repo.GetStudentStats(context.Background(), 1)

	require.NoError(t, err)
	assert.Equal(t, 12, stats.TotalSessions)
	assert.Equal(t, 8, stats.CompletedSessions)
	assert.Equal(t, 2, stats.UpcomingSessions)
	assert.Equal(t, int64(80), stats.TokensSpent)
	assert.Equal(t, int64(45), stats.TokenBalance)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetStudentStats_NoSessions(t *testing.T) {
	repo, mock := setupDashboardMock(t)

	rows := sqlmock.NewRows([]string{
		"total_sessions", "completed_sessions", "upcoming_sessions", "tokens_spent", "token_balance",
	}).AddRow(0, 0, 0, 0, 0)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE s.student_id = $1")).
		WithArgs(9).
		WillReturnRows(rows)

	stats, err := repo.GetStudentStats(context.Background(), 9)

	require.NoError(t, err)
	assert.Zero(t, stats.TotalSessions)
	assert.Zero(t, stats.TokensSpent)
}

func TestGetTeacherStats(t *testing.T) {
	repo, mock := setupDashboardMock(t)

	rows := sqlmock.NewRows([]string{
		"total_sessions", "completed_sessions", "upcoming_sessions",
		"tokens_earned", "token_balance", "pending_withdrawals",
	}).AddRow(30, 25, 3, 250, 120, 1)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE s.teacher_id = $1")).
		WithArgs(2).
		WillReturnRows(rows)

	stats, err := repo.GetTeacherStats(context.Background(), 2)

	require.NoError(t, err)
	assert.Equal(t, 30, stats.TotalSessions)
	assert.Equal(t, 25, stats.CompletedSessions)
	assert.Equal(t, int64(250), stats.TokensEarned)
	assert.Equal(t, int64(120), stats.TokenBalance)
	assert.Equal(t, 1, stats.PendingWithdrawals)
	assert.NoError(t, mock.ExpectationsWereMet())
}
