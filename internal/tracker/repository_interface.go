package tracker

import "context"

type Repository interface {
	Create(ctx context.Context, sessionID int) (*TimeTracking, error)
	GetActive(ctx context.Context, sessionID int) (*TimeTracking, error)
	GetLatest(ctx context.Context, sessionID int) (*TimeTracking, error)
	RecordPause(ctx context.Context, sessionID int, activeSeconds int64) error
	RecordResume(ctx context.Context, sessionID int, pausedSeconds int64) error
	Finish(ctx context.Context, sessionID int, activeSeconds, pausedSeconds int64) error
}
