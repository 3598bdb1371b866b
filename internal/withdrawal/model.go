package withdrawal

import "time"

const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
	StatusCancelled  = "cancelled"
)

// WithdrawalRequest converts a teacher's token balance into currency through
// the payment provider. ConversionRate is captured at creation and never
// recomputed: later pricing changes must not affect an existing request.
type WithdrawalRequest struct {
	ID             int        `db:"id" json:"id"`
	TeacherID      int        `db:"teacher_id" json:"teacher_id"`
	Tokens         int64      `db:"tokens" json:"tokens"`
	AmountUSD      float64    `db:"amount_usd" json:"amount_usd"`
	ConversionRate float64    `db:"conversion_rate" json:"conversion_rate"`
	Status         string     `db:"status" json:"status"`
	ProviderRef    *string    `db:"provider_ref" json:"provider_ref,omitempty"`
	FailureReason  *string    `db:"failure_reason" json:"failure_reason,omitempty"`
	RequestedAt    time.Time  `db:"requested_at" json:"requested_at"`
	ProcessedAt    *time.Time `db:"processed_at" json:"processed_at,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

type CreateRequest struct {
	Tokens int64 `json:"tokens" binding:"required,gt=0"`
}
