package wallet

import "time"

// Transaction types. The ledger is append-only; a row is never updated after
// creation and the running balance is denormalized into balance_after when
// the row is written.
const (
	TxPurchase   = "purchase"
	TxDeduction  = "deduction"
	TxRefund     = "refund"
	TxBonus      = "bonus"
	TxEarning    = "earning"
	TxWithdrawal = "withdrawal"
	TxFee        = "fee"
)

// Wallet holds a user's token balance. LockedBalance is the portion reserved
// for pending withdrawal requests.
type Wallet struct {
	ID            int       `db:"id" json:"id"`
	UserID        int       `db:"user_id" json:"user_id"`
	Balance       int64     `db:"balance" json:"balance"`
	LockedBalance int64     `db:"locked_balance" json:"locked_balance"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

type Transaction struct {
	ID           int       `db:"id" json:"id"`
	WalletID     int       `db:"wallet_id" json:"wallet_id"`
	SessionID    *int      `db:"session_id" json:"session_id,omitempty"`
	Amount       int64     `db:"amount" json:"amount"`
	Type         string    `db:"type" json:"type"`
	BalanceAfter int64     `db:"balance_after" json:"balance_after"`
	Description  string    `db:"description" json:"description"`
	Reference    *string   `db:"reference" json:"reference,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
