package withdrawal

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"
)

var ErrInvalidStatus = errors.New("withdrawal request is not in a state allowing this transition")

const withdrawalColumns = `
	id, teacher_id, tokens, amount_usd, conversion_rate, status, provider_ref,
	failure_reason, requested_at, processed_at, created_at, updated_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, teacherID int, tokens int64, amountUSD, rate float64) (*WithdrawalRequest, error) {
	query := `
		INSERT INTO withdrawal_requests (teacher_id, tokens, amount_usd, conversion_rate, status, requested_at)
		VALUES ($1, $2, $3, $4, 'pending', NOW())
		RETURNING ` + withdrawalColumns

	var wr WithdrawalRequest
	err := r.db.GetContext(ctx, &wr, query, teacherID, tokens, amountUSD, rate)
	if err != nil {
		return nil, err
	}

	return &wr, nil
}

func (r *repository) GetByID(ctx context.Context, id int) (*WithdrawalRequest, error) {
	query := `SELECT ` + withdrawalColumns + ` FROM withdrawal_requests WHERE id = $1`

	var wr WithdrawalRequest
	err := r.db.GetContext(ctx, &wr, query, id)
	if err != nil {
		return nil, err
	}

	return &wr, nil
}

func (r *repository) ListByTeacher(ctx context.Context, teacherID int) ([]WithdrawalRequest, error) {
	query := `SELECT ` + withdrawalColumns + `
		FROM withdrawal_requests
		WHERE teacher_id = $1
		ORDER BY requested_at DESC`

	var requests []WithdrawalRequest
	err := r.db.SelectContext(ctx, &requests, query, teacherID)
	if err != nil {
		return nil, err
	}

	return requests, nil
}

func (r *repository) ListByStatus(ctx context.Context, status string) ([]WithdrawalRequest, error) {
	query := `SELECT ` + withdrawalColumns + `
		FROM withdrawal_requests
		WHERE status = $1
		ORDER BY requested_at ASC`

	var requests []WithdrawalRequest
	err := r.db.SelectContext(ctx, &requests, query, status)
	if err != nil {
		return nil, err
	}

	return requests, nil
}

func (r *repository) MarkProcessing(ctx context.Context, id int) error {
	return r.transition(ctx,
		`UPDATE withdrawal_requests
		 SET status = 'processing', updated_at = NOW()
		 WHERE id = $1 AND status = 'pending'`, id)
}

func (r *repository) MarkCompleted(ctx context.Context, id int, providerRef string) error {
	query := `
		UPDATE withdrawal_requests
		SET status = 'completed', provider_ref = $2, processed_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = 'processing'
	`

	result, err := r.db.ExecContext(ctx, query, id, providerRef)
	if err != nil {
		return err
	}

	return requireRow(result)
}

func (r *repository) MarkFailed(ctx context.Context, id int, reason string) error {
	query := `
		UPDATE withdrawal_requests
		SET status = 'failed', failure_reason = $2, processed_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = 'processing'
	`

	result, err := r.db.ExecContext(ctx, query, id, reason)
	if err != nil {
		return err
	}

	return requireRow(result)
}

func (r *repository) MarkCancelled(ctx context.Context, id int) error {
	return r.transition(ctx,
		`UPDATE withdrawal_requests
		 SET status = 'cancelled', processed_at = NOW(), updated_at = NOW()
		 WHERE id = $1 AND status = 'pending'`, id)
}

func (r *repository) transition(ctx context.Context, query string, id int) error {
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	return requireRow(result)
}

func requireRow(result interface{ RowsAffected() (int64, error) }) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrInvalidStatus
	}
	return nil
}
