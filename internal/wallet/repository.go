package wallet

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

var (
	ErrInsufficientTokens = errors.New("insufficient token balance")
	ErrInvalidAmount      = errors.New("amount must be positive")
	ErrDuplicateReference = errors.New("reference already recorded")
)

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

// GetOrCreateWallet returns the user's wallet, lazily creating a zero-balance
// row on first access.
func (r *repository) GetOrCreateWallet(ctx context.Context, userID int) (*Wallet, error) {
	w := &Wallet{}
	err := r.db.GetContext(ctx, w, `SELECT * FROM wallets WHERE user_id = $1`, userID)
	if err == nil {
		return w, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	err = r.db.QueryRowxContext(ctx,
		`INSERT INTO wallets (user_id)
		 VALUES ($1)
		 RETURNING id, user_id, balance, locked_balance, created_at, updated_at`,
		userID,
	).StructScan(w)

	if err != nil {
		return nil, err
	}

	return w, nil
}

// AddTransaction atomically applies a balance delta and appends the matching
// ledger row. Negative resulting balances are rejected, so a deduction against
// an underfunded wallet fails as a unit.
func (r *repository) AddTransaction(ctx context.Context, userID int, amount int64, txType string, sessionID *int, description string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	w, err := lockWallet(ctx, tx, userID)
	if err != nil {
		return err
	}

	newBalance := w.Balance + amount
	if newBalance < 0 {
		return ErrInsufficientTokens
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE wallets
		 SET balance = $1, updated_at = NOW()
		 WHERE id = $2`,
		newBalance, w.ID,
	)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO token_transactions (wallet_id, session_id, amount, type, balance_after, description)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		w.ID, sessionID, amount, txType, newBalance, description,
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// AddPurchase credits purchased tokens at most once per provider reference.
// The reference check runs under the wallet row lock, so a replayed
// confirmation serializes behind the original and sees its ledger row; the
// unique index on reference backs the check across wallets.
func (r *repository) AddPurchase(ctx context.Context, userID int, tokens int64, reference, description string) error {
	if tokens <= 0 {
		return ErrInvalidAmount
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	w, err := lockWallet(ctx, tx, userID)
	if err != nil {
		return err
	}

	var seen bool
	err = tx.QueryRowxContext(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM token_transactions
			WHERE type = $1 AND reference = $2
		)`,
		TxPurchase, reference,
	).Scan(&seen)
	if err != nil {
		return err
	}
	if seen {
		return ErrDuplicateReference
	}

	newBalance := w.Balance + tokens
	_, err = tx.ExecContext(ctx,
		`UPDATE wallets
		 SET balance = $1, updated_at = NOW()
		 WHERE id = $2`,
		newBalance, w.ID,
	)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO token_transactions (wallet_id, session_id, amount, type, balance_after, description, reference)
		 VALUES ($1, NULL, $2, $3, $4, $5, $6)`,
		w.ID, tokens, TxPurchase, newBalance, description, reference,
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// LockTokens moves part of the available balance into locked_balance, holding
// it for a pending withdrawal. No ledger row is written until the hold is
// settled or released.
func (r *repository) LockTokens(ctx context.Context, userID int, tokens int64) error {
	if tokens <= 0 {
		return ErrInvalidAmount
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	w, err := lockWallet(ctx, tx, userID)
	if err != nil {
		return err
	}

	if w.Balance < tokens {
		return ErrInsufficientTokens
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE wallets
		 SET balance = balance - $1, locked_balance = locked_balance + $1, updated_at = NOW()
		 WHERE id = $2`,
		tokens, w.ID,
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// UnlockTokens releases a hold back into the available balance.
func (r *repository) UnlockTokens(ctx context.Context, userID int, tokens int64) error {
	if tokens <= 0 {
		return ErrInvalidAmount
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	w, err := lockWallet(ctx, tx, userID)
	if err != nil {
		return err
	}

	if w.LockedBalance < tokens {
		return ErrInsufficientTokens
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE wallets
		 SET balance = balance + $1, locked_balance = locked_balance - $1, updated_at = NOW()
		 WHERE id = $2`,
		tokens, w.ID,
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// SettleLocked burns a hold that has been paid out externally, writing the
// terminal withdrawal ledger row.
func (r *repository) SettleLocked(ctx context.Context, userID int, tokens int64, description string) error {
	if tokens <= 0 {
		return ErrInvalidAmount
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	w, err := lockWallet(ctx, tx, userID)
	if err != nil {
		return err
	}

	if w.LockedBalance < tokens {
		return ErrInsufficientTokens
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE wallets
		 SET locked_balance = locked_balance - $1, updated_at = NOW()
		 WHERE id = $2`,
		tokens, w.ID,
	)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO token_transactions (wallet_id, session_id, amount, type, balance_after, description)
		 VALUES ($1, NULL, $2, $3, $4, $5)`,
		w.ID, -tokens, TxWithdrawal, w.Balance, description,
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (r *repository) GetTransactions(ctx context.Context, userID int, limit, offset int) ([]Transaction, error) {
	if limit <= 0 {
		limit = 50
	}

	var walletID int
	err := r.db.GetContext(ctx, &walletID, `SELECT id FROM wallets WHERE user_id = $1`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []Transaction{}, nil
		}
		return nil, err
	}

	var txs []Transaction
	err = r.db.SelectContext(ctx, &txs, `
		SELECT id, wallet_id, session_id, amount, type, balance_after, description, reference, created_at
		FROM token_transactions
		WHERE wallet_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, walletID, limit, offset)
	if err != nil {
		return nil, err
	}

	return txs, nil
}

// CountRefundsForSession supports the cancel path invariant: a cancelled
// session must carry exactly one compensating refund.
func (r *repository) CountRefundsForSession(ctx context.Context, sessionID int) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM token_transactions
		WHERE session_id = $1 AND type = $2
	`, sessionID, TxRefund)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func lockWallet(ctx context.Context, tx *sqlx.Tx, userID int) (*Wallet, error) {
	var w Wallet
	err := tx.QueryRowxContext(ctx,
		`SELECT id, user_id, balance, locked_balance, created_at, updated_at
		 FROM wallets
		 WHERE user_id = $1
		 FOR UPDATE`,
		userID,
	).StructScan(&w)
	if err == nil {
		return &w, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	err = tx.QueryRowxContext(ctx,
		`INSERT INTO wallets (user_id)
		 VALUES ($1)
		 RETURNING id, user_id, balance, locked_balance, created_at, updated_at`,
		userID,
	).StructScan(&w)
	if err != nil {
		return nil, err
	}

	return &w, nil
}
