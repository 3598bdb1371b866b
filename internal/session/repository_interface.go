package session

import "context"

type Repository interface {
	Create(ctx context.Context, s *ClassSession) (*ClassSession, error)
	GetByID(ctx context.Context, id int) (*ClassSession, error)
	MarkStarted(ctx context.Context, id int) error
	ClaimDeduction(ctx context.Context, id int) (bool, error)
	ReleaseDeduction(ctx context.Context, id int) error
	ClaimCredit(ctx context.Context, id int) (bool, error)
	ReleaseCredit(ctx context.Context, id int) error
	MarkCompleted(ctx context.Context, id int) error
	MarkCancelled(ctx context.Context, id int) error
	ListByStudent(ctx context.Context, studentID int) ([]SessionWithNames, error)
	ListByTeacher(ctx context.Context, teacherID int) ([]SessionWithNames, error)
}
