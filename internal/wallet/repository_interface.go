package wallet

import "context"

type Repository interface {
	GetOrCreateWallet(ctx context.Context, userID int) (*Wallet, error)
	AddTransaction(ctx context.Context, userID int, amount int64, txType string, sessionID *int, description string) error
	AddPurchase(ctx context.Context, userID int, tokens int64, reference, description string) error
	LockTokens(ctx context.Context, userID int, tokens int64) error
	UnlockTokens(ctx context.Context, userID int, tokens int64) error
	SettleLocked(ctx context.Context, userID int, tokens int64, description string) error
	GetTransactions(ctx context.Context, userID int, limit, offset int) ([]Transaction, error)
	CountRefundsForSession(ctx context.Context, sessionID int) (int, error)
}
