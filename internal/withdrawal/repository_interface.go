package withdrawal

import "context"

type Repository interface {
	Create(ctx context.Context, teacherID int, tokens int64, amountUSD, rate float64) (*WithdrawalRequest, error)
	GetByID(ctx context.Context, id int) (*WithdrawalRequest, error)
	ListByTeacher(ctx context.Context, teacherID int) ([]WithdrawalRequest, error)
	ListByStatus(ctx context.Context, status string) ([]WithdrawalRequest, error)
	MarkProcessing(ctx context.Context, id int) error
	MarkCompleted(ctx context.Context, id int, providerRef string) error
	MarkFailed(ctx context.Context, id int, reason string) error
	MarkCancelled(ctx context.Context, id int) error
}
