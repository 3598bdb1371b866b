package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tutorhub/internal/logger"
	"tutorhub/internal/metrics"
	"tutorhub/internal/pricing"
	"tutorhub/internal/tracker"
	"tutorhub/internal/user"
	"tutorhub/internal/wallet"
)

var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrNotSessionTeacher = errors.New("only the session's teacher can do this")
	ErrNotParticipant    = errors.New("only a session participant can do this")
	ErrSessionTooShort   = errors.New("session has not reached the one hour completion threshold")
	ErrTeacherNotFound   = errors.New("teacher not found")
	ErrScheduleInPast    = errors.New("cannot schedule a session in the past")
	ErrBadScheduleWindow = errors.New("scheduled end must be after scheduled start")
)

// Notifier is the slice of the email service the session lifecycle needs.
type Notifier interface {
	SendSessionScheduled(ctx context.Context, to, name, subject string, when time.Time) error
	SendSessionCompleted(ctx context.Context, to, name, subject string, tokens int64) error
	SendSessionCancelled(ctx context.Context, to, name, subject string) error
}

type Service interface {
	Schedule(ctx context.Context, studentID int, req ScheduleRequest) (*ClassSession, error)
	Start(ctx context.Context, teacherID, sessionID int) (*ClassSession, error)
	Pause(ctx context.Context, teacherID, sessionID int) (*ElapsedResponse, error)
	Resume(ctx context.Context, teacherID, sessionID int) (*ElapsedResponse, error)
	Complete(ctx context.Context, teacherID, sessionID int) (*ClassSession, error)
	Cancel(ctx context.Context, userID, sessionID int) error
	Elapsed(ctx context.Context, userID, sessionID int) (*ElapsedResponse, error)
	ListForStudent(ctx context.Context, studentID int) ([]SessionWithNames, error)
	ListForTeacher(ctx context.Context, teacherID int) ([]SessionWithNames, error)
}

type service struct {
	repo        Repository
	trackerRepo tracker.Repository
	registry    *tracker.Registry
	walletRepo  wallet.Repository
	userRepo    user.Repository
	notifier    Notifier
}

func NewService(
	repo Repository,
	trackerRepo tracker.Repository,
	registry *tracker.Registry,
	walletRepo wallet.Repository,
	userRepo user.Repository,
	notifier Notifier,
) Service {
	return &service{
		repo:        repo,
		trackerRepo: trackerRepo,
		registry:    registry,
		walletRepo:  walletRepo,
		userRepo:    userRepo,
		notifier:    notifier,
	}
}

func (s *service) Schedule(ctx context.Context, studentID int, req ScheduleRequest) (*ClassSession, error) {
	if !req.ScheduledEnd.After(req.ScheduledStart) {
		return nil, ErrBadScheduleWindow
	}
	if req.ScheduledStart.Before(time.Now()) {
		return nil, ErrScheduleInPast
	}

	teacher, err := s.userRepo.FindByID(ctx, req.TeacherID)
	if err != nil || teacher.Role != user.RoleTeacher {
		return nil, ErrTeacherNotFound
	}

	created, err := s.repo.Create(ctx, &ClassSession{
		TeacherID:      req.TeacherID,
		StudentID:      studentID,
		Subject:        req.Subject,
		MeetingID:      req.MeetingID,
		TokensCharged:  pricing.TokensPerHour,
		ScheduledStart: req.ScheduledStart,
		ScheduledEnd:   req.ScheduledEnd,
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordSessionEvent("scheduled")

	if student, err := s.userRepo.FindByID(ctx, studentID); err == nil {
		if err := s.notifier.SendSessionScheduled(ctx, student.Email, student.Name, created.Subject, created.ScheduledStart); err != nil {
			logger.Errorf("Failed to queue schedule notification for session %d: %v", created.ID, err)
		}
	}

	return created, nil
}

// Start transitions a scheduled session to in_progress, begins time tracking
// and charges the student. The charge happens only when the session has an
// external meeting identifier and has not been charged before; re-invoking
// Start against an in-progress session retries a failed charge without
// repeating the transition.
func (s *service) Start(ctx context.Context, teacherID, sessionID int) (*ClassSession, error) {
	sess, err := s.repo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, ErrSessionNotFound
	}
	if sess.TeacherID != teacherID {
		return nil, ErrNotSessionTeacher
	}

	switch sess.Status {
	case StatusScheduled:
		if err := s.repo.MarkStarted(ctx, sessionID); err != nil {
			return nil, err
		}
		if _, err := s.trackerRepo.Create(ctx, sessionID); err != nil {
			return nil, fmt.Errorf("failed to create time tracking: %w", err)
		}
		if _, err := s.registry.Start(sessionID); err != nil && !errors.Is(err, tracker.ErrAlreadyTracked) {
			return nil, err
		}
		metrics.RecordSessionEvent("started")
	case StatusInProgress:
		// charge retry path, no transition
	default:
		return nil, ErrInvalidTransition
	}

	if err := s.chargeStudent(ctx, sess); err != nil {
		return nil, err
	}

	return s.repo.GetByID(ctx, sessionID)
}

func (s *service) chargeStudent(ctx context.Context, sess *ClassSession) error {
	if sess.MeetingID == nil || sess.TokensDeductedAt != nil {
		return nil
	}

	claimed, err := s.repo.ClaimDeduction(ctx, sess.ID)
	if err != nil {
		return err
	}
	if !claimed {
		// another invocation charged this session already
		logger.Infof("Session %d already charged, skipping deduction", sess.ID)
		return nil
	}

	desc := fmt.Sprintf("Class session #%d: %s", sess.ID, sess.Subject)
	if err := s.walletRepo.AddTransaction(ctx, sess.StudentID, -sess.TokensCharged, wallet.TxDeduction, &sess.ID, desc); err != nil {
		if relErr := s.repo.ReleaseDeduction(ctx, sess.ID); relErr != nil {
			logger.Errorf("Failed to release deduction stamp for session %d: %v", sess.ID, relErr)
		}
		return err
	}

	metrics.RecordTokensMoved(wallet.TxDeduction, sess.TokensCharged)
	return nil
}

func (s *service) Pause(ctx context.Context, teacherID, sessionID int) (*ElapsedResponse, error) {
	sess, err := s.repo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, ErrSessionNotFound
	}
	if sess.TeacherID != teacherID {
		return nil, ErrNotSessionTeacher
	}
	if sess.Status != StatusInProgress {
		return nil, ErrInvalidTransition
	}

	active, err := s.registry.Pause(sessionID)
	if err != nil {
		return nil, err
	}

	if err := s.trackerRepo.RecordPause(ctx, sessionID, active); err != nil {
		return nil, err
	}

	metrics.RecordSessionEvent("paused")
	return s.elapsedFor(sessionID, active, false), nil
}

func (s *service) Resume(ctx context.Context, teacherID, sessionID int) (*ElapsedResponse, error) {
	sess, err := s.repo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, ErrSessionNotFound
	}
	if sess.TeacherID != teacherID {
		return nil, ErrNotSessionTeacher
	}
	if sess.Status != StatusInProgress {
		return nil, ErrInvalidTransition
	}

	paused, err := s.registry.Resume(sessionID)
	if err != nil {
		return nil, err
	}

	if err := s.trackerRepo.RecordResume(ctx, sessionID, paused); err != nil {
		return nil, err
	}

	metrics.RecordSessionEvent("resumed")

	tr, _ := s.registry.Get(sessionID)
	return s.elapsedFor(sessionID, tr.ActiveSeconds(), true), nil
}

// Complete finishes a session that has accumulated at least one hour of
// active time and credits the teacher once. Completing an already completed
// session is a silent success: the credit stamp short-circuits the payout.
func (s *service) Complete(ctx context.Context, teacherID, sessionID int) (*ClassSession, error) {
	sess, err := s.repo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, ErrSessionNotFound
	}
	if sess.TeacherID != teacherID {
		return nil, ErrNotSessionTeacher
	}

	if sess.Status == StatusCompleted {
		logger.Infof("Session %d already completed, treating complete as success", sessionID)
		return sess, nil
	}
	if sess.Status != StatusInProgress {
		return nil, ErrInvalidTransition
	}

	// threshold check must not disturb a still-ticking tracker
	if tr, ok := s.registry.Get(sessionID); ok && tr.ActiveSeconds() < pricing.MinCreditableSeconds {
		return nil, ErrSessionTooShort
	}

	active, paused, err := s.finalSeconds(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if active < pricing.MinCreditableSeconds {
		return nil, ErrSessionTooShort
	}

	if err := s.trackerRepo.Finish(ctx, sessionID, active, paused); err != nil && !errors.Is(err, tracker.ErrNoActiveTracking) {
		return nil, err
	}

	if err := s.repo.MarkCompleted(ctx, sessionID); err != nil {
		return nil, err
	}

	if err := s.creditTeacher(ctx, sess, active); err != nil {
		return nil, err
	}

	metrics.RecordSessionEvent("completed")

	if teacher, err := s.userRepo.FindByID(ctx, sess.TeacherID); err == nil {
		credit := pricing.CreditForActiveSeconds(active)
		if err := s.notifier.SendSessionCompleted(ctx, teacher.Email, teacher.Name, sess.Subject, credit); err != nil {
			logger.Errorf("Failed to queue completion notification for session %d: %v", sessionID, err)
		}
	}

	return s.repo.GetByID(ctx, sessionID)
}

func (s *service) creditTeacher(ctx context.Context, sess *ClassSession, activeSeconds int64) error {
	claimed, err := s.repo.ClaimCredit(ctx, sess.ID)
	if err != nil {
		return err
	}
	if !claimed {
		logger.Infof("Session %d already credited, skipping payout", sess.ID)
		return nil
	}

	credit := pricing.CreditForActiveSeconds(activeSeconds)
	if credit == 0 {
		return nil
	}

	desc := fmt.Sprintf("Earnings for class session #%d: %s", sess.ID, sess.Subject)
	if err := s.walletRepo.AddTransaction(ctx, sess.TeacherID, credit, wallet.TxEarning, &sess.ID, desc); err != nil {
		if relErr := s.repo.ReleaseCredit(ctx, sess.ID); relErr != nil {
			logger.Errorf("Failed to release credit stamp for session %d: %v", sess.ID, relErr)
		}
		return err
	}

	metrics.RecordTokensMoved(wallet.TxEarning, credit)
	return nil
}

// Cancel aborts a scheduled or in-progress session. If the student was
// already charged, exactly one compensating refund is issued; the single-shot
// cancelled transition is what bounds it to one.
func (s *service) Cancel(ctx context.Context, userID, sessionID int) error {
	sess, err := s.repo.GetByID(ctx, sessionID)
	if err != nil {
		return ErrSessionNotFound
	}
	if sess.TeacherID != userID && sess.StudentID != userID {
		return ErrNotParticipant
	}

	if err := s.repo.MarkCancelled(ctx, sessionID); err != nil {
		return err
	}

	if active, paused, err := s.registry.Remove(sessionID); err == nil {
		if err := s.trackerRepo.Finish(ctx, sessionID, active, paused); err != nil && !errors.Is(err, tracker.ErrNoActiveTracking) {
			logger.Errorf("Failed to finish time tracking for cancelled session %d: %v", sessionID, err)
		}
	}

	if sess.TokensDeductedAt != nil {
		desc := fmt.Sprintf("Refund for cancelled session #%d: %s", sess.ID, sess.Subject)
		if err := s.walletRepo.AddTransaction(ctx, sess.StudentID, sess.TokensCharged, wallet.TxRefund, &sess.ID, desc); err != nil {
			return err
		}
		metrics.RecordTokensMoved(wallet.TxRefund, sess.TokensCharged)
	}

	metrics.RecordSessionEvent("cancelled")

	if student, err := s.userRepo.FindByID(ctx, sess.StudentID); err == nil {
		if err := s.notifier.SendSessionCancelled(ctx, student.Email, student.Name, sess.Subject); err != nil {
			logger.Errorf("Failed to queue cancellation notification for session %d: %v", sessionID, err)
		}
	}

	return nil
}

func (s *service) Elapsed(ctx context.Context, userID, sessionID int) (*ElapsedResponse, error) {
	sess, err := s.repo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, ErrSessionNotFound
	}
	if sess.TeacherID != userID && sess.StudentID != userID {
		return nil, ErrNotParticipant
	}

	if tr, ok := s.registry.Get(sessionID); ok {
		resp := s.elapsedFor(sessionID, tr.ActiveSeconds(), tr.Running())
		resp.PausedSeconds = tr.PausedSeconds()
		return resp, nil
	}

	tt, err := s.trackerRepo.GetActive(ctx, sessionID)
	if err != nil {
		return nil, tracker.ErrNotTracked
	}

	resp := s.elapsedFor(sessionID, tt.TotalActiveSeconds, false)
	resp.PausedSeconds = tt.TotalPausedSeconds
	return resp, nil
}

func (s *service) ListForStudent(ctx context.Context, studentID int) ([]SessionWithNames, error) {
	return s.repo.ListByStudent(ctx, studentID)
}

func (s *service) ListForTeacher(ctx context.Context, teacherID int) ([]SessionWithNames, error) {
	return s.repo.ListByTeacher(ctx, teacherID)
}

func (s *service) finalSeconds(ctx context.Context, sessionID int) (active, paused int64, err error) {
	if active, paused, err = s.registry.Remove(sessionID); err == nil {
		return active, paused, nil
	}
	if !errors.Is(err, tracker.ErrNotTracked) {
		return 0, 0, err
	}

	// process restarted mid-session, or a completion retry after the row was
	// finished: fall back to the persisted totals
	tt, err := s.trackerRepo.GetLatest(ctx, sessionID)
	if err != nil {
		return 0, 0, err
	}
	return tt.TotalActiveSeconds, tt.TotalPausedSeconds, nil
}

func (s *service) elapsedFor(sessionID int, activeSeconds int64, running bool) *ElapsedResponse {
	return &ElapsedResponse{
		SessionID:     sessionID,
		ActiveSeconds: activeSeconds,
		Running:       running,
		Completable:   activeSeconds >= pricing.MinCreditableSeconds,
	}
}
