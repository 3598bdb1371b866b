package tracker

import "time"

// TimeTracking is the persistent record behind an in-memory Tracker. One
// active row exists per in-progress session; it is never deleted, only
// superseded by an is_active flip when the session ends.
type TimeTracking struct {
	ID                 int        `db:"id" json:"id"`
	SessionID          int        `db:"session_id" json:"session_id"`
	StartTime          time.Time  `db:"start_time" json:"start_time"`
	PauseTime          *time.Time `db:"pause_time" json:"pause_time,omitempty"`
	ResumeTime         *time.Time `db:"resume_time" json:"resume_time,omitempty"`
	TotalActiveSeconds int64      `db:"total_active_seconds" json:"total_active_seconds"`
	TotalPausedSeconds int64      `db:"total_paused_seconds" json:"total_paused_seconds"`
	IsActive           bool       `db:"is_active" json:"is_active"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updated_at"`
}
