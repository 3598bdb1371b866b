package email

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"

	"tutorhub/internal/logger"
)

func TestMain(m *testing.M) {
	logger.Init()

	code := m.Run()
	os.Exit(code)
}

func newTestService(rdb *redis.Client) *Service {
	return NewWithClient(rdb, "noreply@tutorhub.com", "Tutorhub Team")
}

func TestSend(t *testing.T) {
	db, mock := redismock.NewClientMock()
	ctx := context.Background()

	mock.Regexp().ExpectLPush("emails", `.*`).SetVal(1)

	svc := newTestService(db)

	err := svc.Send(ctx, "user@example.com", "User", "Hello", "Test body")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSendSessionScheduled(t *testing.T) {
	db, mock := redismock.NewClientMock()
	ctx := context.Background()

	mock.Regexp().ExpectLPush("emails", `.*Class Booked - Algebra.*`).SetVal(1)

	svc := newTestService(db)

	when := time.Now().Add(24 * time.Hour)
	err := svc.SendSessionScheduled(ctx, "student@example.com", "Student", "Algebra", when)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSendSessionCompleted(t *testing.T) {
	db, mock := redismock.NewClientMock()
	ctx := context.Background()

	mock.Regexp().ExpectLPush("emails", `.*Tokens earned: 15.*`).SetVal(1)

	svc := newTestService(db)

	err := svc.SendSessionCompleted(ctx, "teacher@example.com", "Teacher", "Physics", 15)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSendSessionCancelled(t *testing.T) {
	db, mock := redismock.NewClientMock()
	ctx := context.Background()

	mock.Regexp().ExpectLPush("emails", `.*Class Cancelled - Chemistry.*`).SetVal(1)

	svc := newTestService(db)

	err := svc.SendSessionCancelled(ctx, "student@example.com", "Student", "Chemistry")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSendWithdrawalResult(t *testing.T) {
	db, mock := redismock.NewClientMock()
	ctx := context.Background()

	mock.Regexp().ExpectLPush("emails", `.*10\.50.*completed.*`).SetVal(1)

	svc := newTestService(db)

	err := svc.SendWithdrawalResult(ctx, "teacher@example.com", "Teacher", 10.50, "completed")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueueLength(t *testing.T) {
	db, mock := redismock.NewClientMock()
	ctx := context.Background()

	mock.ExpectLLen("emails").SetVal(5)

	svc := newTestService(db)

	length := svc.QueueLength(ctx)
	assert.Equal(t, int64(5), length)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueueLengthZero(t *testing.T) {
	db, mock := redismock.NewClientMock()
	ctx := context.Background()

	mock.ExpectLLen("emails").SetVal(0)

	svc := newTestService(db)

	length := svc.QueueLength(ctx)
	assert.Equal(t, int64(0), length)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSendError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	ctx := context.Background()

	mock.Regexp().ExpectLPush("emails", `.*`).SetErr(assert.AnError)

	svc := newTestService(db)

	err := svc.Send(ctx, "user@example.com", "User", "Hello", "Test body")
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
