package payment

import (
	"context"
	"errors"
	"fmt"
	"math"

	"tutorhub/internal/logger"
	"tutorhub/internal/metrics"
	"tutorhub/internal/pricing"
	"tutorhub/internal/user"
	"tutorhub/internal/wallet"
)

var (
	ErrPaymentNotSettled = errors.New("payment has not succeeded yet")
	ErrInvalidAmount     = errors.New("purchase amount must be positive")
)

type Service interface {
	CreateCustomer(ctx context.Context, userID int) (string, error)
	CreateIntent(ctx context.Context, userID int, amountUSD float64) (*PaymentIntent, error)
	ConfirmPurchase(ctx context.Context, userID int, intentID string) (tokens int64, err error)
}

type service struct {
	client     Client
	walletRepo wallet.Repository
	userRepo   user.Repository
}

func NewService(client Client, walletRepo wallet.Repository, userRepo user.Repository) Service {
	return &service{
		client:     client,
		walletRepo: walletRepo,
		userRepo:   userRepo,
	}
}

func (s *service) CreateCustomer(ctx context.Context, userID int) (string, error) {
	u, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return "", err
	}
	return s.client.CreateCustomer(ctx, u.Email, u.Name)
}

func (s *service) CreateIntent(ctx context.Context, userID int, amountUSD float64) (*PaymentIntent, error) {
	if amountUSD <= 0 {
		return nil, ErrInvalidAmount
	}

	u, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	customerID, err := s.client.CreateCustomer(ctx, u.Email, u.Name)
	if err != nil {
		return nil, err
	}

	amountCents := int64(math.Round(amountUSD * 100))
	return s.client.CreateIntent(ctx, customerID, amountCents, "usd")
}

// ConfirmPurchase verifies a confirmed intent with the provider and credits
// the purchased tokens at the buyer's purchase rate. The intent id is the
// ledger reference, so a replayed confirmation finds the original row and
// returns the same token count without a second credit.
func (s *service) ConfirmPurchase(ctx context.Context, userID int, intentID string) (int64, error) {
	intent, err := s.client.GetIntent(ctx, intentID)
	if err != nil {
		return 0, err
	}
	if intent.Status != IntentStatusSucceeded {
		return 0, ErrPaymentNotSettled
	}

	u, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return 0, err
	}

	role := u.Role
	if role == user.RoleParent {
		// parents buy tokens for their students at the student rate
		role = user.RoleStudent
	}

	amountUSD := float64(intent.AmountCents) / 100
	tokens, err := pricing.TokensForUSD(role, amountUSD)
	if err != nil {
		return 0, err
	}

	desc := fmt.Sprintf("Token purchase, payment intent %s", intent.ID)
	if err := s.walletRepo.AddPurchase(ctx, userID, tokens, intent.ID, desc); err != nil {
		if errors.Is(err, wallet.ErrDuplicateReference) {
			logger.Infof("Payment intent %s already credited, skipping", intent.ID)
			return tokens, nil
		}
		return 0, err
	}

	metrics.RecordTokenPurchase()
	metrics.RecordTokensMoved(wallet.TxPurchase, tokens)
	return tokens, nil
}
