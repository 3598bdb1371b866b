package withdrawal

import (
	"context"
	"errors"
	"fmt"

	"tutorhub/internal/logger"
	"tutorhub/internal/metrics"
	"tutorhub/internal/pricing"
	"tutorhub/internal/user"
	"tutorhub/internal/wallet"
)

var (
	ErrRequestNotFound = errors.New("withdrawal request not found")
	ErrNotRequestOwner = errors.New("only the request's teacher can do this")
	ErrTokensTooLow    = errors.New("withdrawal amount must be positive")
)

// PayoutClient is the slice of the payment gateway used to move real money.
type PayoutClient interface {
	Payout(ctx context.Context, userID int, amountUSD float64, reference string) (providerRef string, err error)
}

type Notifier interface {
	SendWithdrawalResult(ctx context.Context, to, name string, amountUSD float64, status string) error
}

type Service interface {
	Create(ctx context.Context, teacherID int, req CreateRequest) (*WithdrawalRequest, error)
	Cancel(ctx context.Context, teacherID, requestID int) error
	Process(ctx context.Context, requestID int) (*WithdrawalRequest, error)
	ListMine(ctx context.Context, teacherID int) ([]WithdrawalRequest, error)
	ListPending(ctx context.Context) ([]WithdrawalRequest, error)
}

type service struct {
	repo       Repository
	walletRepo wallet.Repository
	userRepo   user.Repository
	payouts    PayoutClient
	notifier   Notifier
}

func NewService(
	repo Repository,
	walletRepo wallet.Repository,
	userRepo user.Repository,
	payouts PayoutClient,
	notifier Notifier,
) Service {
	return &service{
		repo:       repo,
		walletRepo: walletRepo,
		userRepo:   userRepo,
		payouts:    payouts,
		notifier:   notifier,
	}
}

// Create opens a pending withdrawal. The teacher conversion rate in force
// right now is captured on the row; the tokens are moved into the wallet's
// locked balance until the request is processed or cancelled.
func (s *service) Create(ctx context.Context, teacherID int, req CreateRequest) (*WithdrawalRequest, error) {
	if req.Tokens <= 0 {
		return nil, ErrTokensTooLow
	}

	rate, err := pricing.RateForRole(user.RoleTeacher)
	if err != nil {
		return nil, err
	}
	amountUSD, err := pricing.TokensToUSD(user.RoleTeacher, req.Tokens)
	if err != nil {
		return nil, err
	}

	if err := s.walletRepo.LockTokens(ctx, teacherID, req.Tokens); err != nil {
		return nil, err
	}

	wr, err := s.repo.Create(ctx, teacherID, req.Tokens, amountUSD, rate.PerTokenUSD)
	if err != nil {
		if unlockErr := s.walletRepo.UnlockTokens(ctx, teacherID, req.Tokens); unlockErr != nil {
			logger.Errorf("Failed to unlock %d tokens for teacher %d after create failure: %v", req.Tokens, teacherID, unlockErr)
		}
		return nil, err
	}

	metrics.RecordWithdrawal(StatusPending)
	return wr, nil
}

func (s *service) Cancel(ctx context.Context, teacherID, requestID int) error {
	wr, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		return ErrRequestNotFound
	}
	if wr.TeacherID != teacherID {
		return ErrNotRequestOwner
	}

	if err := s.repo.MarkCancelled(ctx, requestID); err != nil {
		return err
	}

	if err := s.walletRepo.UnlockTokens(ctx, teacherID, wr.Tokens); err != nil {
		return err
	}

	metrics.RecordWithdrawal(StatusCancelled)
	return nil
}

// Process pushes a pending request through the payment provider. The payout
// amount is the captured amount_usd from the row, never recomputed from
// current pricing.
func (s *service) Process(ctx context.Context, requestID int) (*WithdrawalRequest, error) {
	wr, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		return nil, ErrRequestNotFound
	}

	if err := s.repo.MarkProcessing(ctx, requestID); err != nil {
		return nil, err
	}

	reference := fmt.Sprintf("withdrawal-%d", wr.ID)
	providerRef, payErr := s.payouts.Payout(ctx, wr.TeacherID, wr.AmountUSD, reference)
	if payErr != nil {
		logger.Errorf("Payout for withdrawal %d failed: %v", wr.ID, payErr)
		if err := s.repo.MarkFailed(ctx, requestID, payErr.Error()); err != nil {
			return nil, err
		}
		if err := s.walletRepo.UnlockTokens(ctx, wr.TeacherID, wr.Tokens); err != nil {
			return nil, err
		}
		metrics.RecordWithdrawal(StatusFailed)
		s.notify(ctx, wr, StatusFailed)
		return s.repo.GetByID(ctx, requestID)
	}

	desc := fmt.Sprintf("Withdrawal #%d paid out as %s", wr.ID, providerRef)
	if err := s.walletRepo.SettleLocked(ctx, wr.TeacherID, wr.Tokens, desc); err != nil {
		return nil, err
	}

	if err := s.repo.MarkCompleted(ctx, requestID, providerRef); err != nil {
		return nil, err
	}

	metrics.RecordWithdrawal(StatusCompleted)
	metrics.RecordTokensMoved(wallet.TxWithdrawal, wr.Tokens)
	s.notify(ctx, wr, StatusCompleted)

	return s.repo.GetByID(ctx, requestID)
}

func (s *service) ListMine(ctx context.Context, teacherID int) ([]WithdrawalRequest, error) {
	return s.repo.ListByTeacher(ctx, teacherID)
}

func (s *service) ListPending(ctx context.Context) ([]WithdrawalRequest, error) {
	return s.repo.ListByStatus(ctx, StatusPending)
}

func (s *service) notify(ctx context.Context, wr *WithdrawalRequest, status string) {
	teacher, err := s.userRepo.FindByID(ctx, wr.TeacherID)
	if err != nil {
		return
	}
	if err := s.notifier.SendWithdrawalResult(ctx, teacher.Email, teacher.Name, wr.AmountUSD, status); err != nil {
		logger.Errorf("Failed to queue withdrawal notification for request %d: %v", wr.ID, err)
	}
}
