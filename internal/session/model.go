package session

import "time"

const (
	StatusScheduled  = "scheduled"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

// ClassSession is one tutoring appointment between a teacher and a student,
// the unit of billing. TokensDeductedAt and TokensCreditedAt are nullable
// idempotency guards: a session is charged to the student and credited to the
// teacher at most once, and both stamps are claimed with
// UPDATE ... WHERE ... IS NULL so concurrent invocations cannot double-bill.
type ClassSession struct {
	ID               int        `db:"id" json:"id"`
	TeacherID        int        `db:"teacher_id" json:"teacher_id"`
	StudentID        int        `db:"student_id" json:"student_id"`
	Subject          string     `db:"subject" json:"subject"`
	MeetingID        *string    `db:"meeting_id" json:"meeting_id,omitempty"`
	Status           string     `db:"status" json:"status"`
	TokensCharged    int64      `db:"tokens_charged" json:"tokens_charged"`
	ScheduledStart   time.Time  `db:"scheduled_start" json:"scheduled_start"`
	ScheduledEnd     time.Time  `db:"scheduled_end" json:"scheduled_end"`
	ActualStart      *time.Time `db:"actual_start" json:"actual_start,omitempty"`
	ActualEnd        *time.Time `db:"actual_end" json:"actual_end,omitempty"`
	DurationMinutes  *int       `db:"duration_minutes" json:"duration_minutes,omitempty"`
	TokensDeductedAt *time.Time `db:"tokens_deducted_at" json:"tokens_deducted_at,omitempty"`
	TokensCreditedAt *time.Time `db:"tokens_credited_at" json:"tokens_credited_at,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}

type SessionWithNames struct {
	ClassSession
	TeacherName string `db:"teacher_name" json:"teacher_name"`
	StudentName string `db:"student_name" json:"student_name"`
}

type ScheduleRequest struct {
	TeacherID      int       `json:"teacher_id" binding:"required"`
	Subject        string    `json:"subject" binding:"required,min=2,max=100"`
	MeetingID      *string   `json:"meeting_id,omitempty"`
	ScheduledStart time.Time `json:"scheduled_start" binding:"required"`
	ScheduledEnd   time.Time `json:"scheduled_end" binding:"required"`
}

type ElapsedResponse struct {
	SessionID     int   `json:"session_id"`
	ActiveSeconds int64 `json:"active_seconds"`
	PausedSeconds int64 `json:"paused_seconds"`
	Running       bool  `json:"running"`
	Completable   bool  `json:"completable"`
}
