package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/stock247/lending-engine/internal/domain"
)

type repaymentRepository struct {
	db *sqlx.DB
}

func NewRepaymentRepository(db *sqlx.DB) RepaymentRepository {
	return &repaymentRepository{db: db}
}

func (r *repaymentRepository) Create(ctx context.Context, rep *domain.Repayment) error {
	query := `
		INSERT INTO repayments (id, user_id, loan_id, amount, phone, checkout_request_id, merchant_request_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(ctx, query,
		rep.ID,
		rep.UserID,
		rep.LoanID,
		rep.Amount,
		rep.Phone,
		rep.CheckoutRequestID,
		rep.MerchantRequestID,
		rep.Status,
		rep.CreatedAt,
	)

	return err
}

func (r *repaymentRepository) GetByCheckoutRequestID(ctx context.Context, checkoutRequestID string) (*domain.Repayment, error) {
	query := `
		SELECT id, user_id, loan_id, amount, phone, checkout_request_id, merchant_request_id, status, mpesa_receipt, paid_at, created_at
		FROM repayments
		WHERE checkout_request_id = $1
	`

	var rep domain.Repayment
	err := r.db.GetContext(ctx, &rep, query, checkoutRequestID)
	if err != nil {
		return nil, err
	}

	return &rep, nil
}

// MarkPaid is the idempotency guard for callback delivery: the WHERE
// clause only matches a pending row, so the first delivery wins and a
// duplicate reports zero rows affected.
func (r *repaymentRepository) MarkPaid(ctx context.Context, id uuid.UUID, receipt string, paidAt time.Time) (bool, error) {
	query := `
		UPDATE repayments
		SET status = $2, mpesa_receipt = $3, paid_at = $4
		WHERE id = $1 AND status = $5
	`

	result, err := r.db.ExecContext(ctx, query, id, domain.PaymentStatusPaid, receipt, paidAt, domain.PaymentStatusPending)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected == 1, nil
}

func (r *repaymentRepository) MarkFailed(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
		UPDATE repayments
		SET status = $2
		WHERE id = $1 AND status = $3
	`

	result, err := r.db.ExecContext(ctx, query, id, domain.PaymentStatusFailed, domain.PaymentStatusPending)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected == 1, nil
}

func (r *repaymentRepository) TotalPaid(ctx context.Context, loanID uuid.UUID) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM repayments
		WHERE loan_id = $1 AND status = $2
	`

	var total decimal.Decimal
	err := r.db.GetContext(ctx, &total, query, loanID, domain.PaymentStatusPaid)
	if err != nil {
		return decimal.Zero, err
	}

	return total, nil
}
