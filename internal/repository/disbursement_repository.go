package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/stock247/lending-engine/internal/domain"
)

type disbursementRepository struct {
	db *sqlx.DB
}

func NewDisbursementRepository(db *sqlx.DB) DisbursementRepository {
	return &disbursementRepository{db: db}
}

func (r *disbursementRepository) Create(ctx context.Context, d *domain.Disbursement) error {
	query := `
		INSERT INTO disbursements (id, application_id, amount, repayment_amount, repayment_due_date, repayment_status, status, transaction_ref, disbursed_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.ExecContext(ctx, query,
		d.ID,
		d.ApplicationID,
		d.Amount,
		d.RepaymentAmount,
		d.RepaymentDueDate,
		d.RepaymentStatus,
		d.Status,
		d.TransactionRef,
		d.DisbursedAt,
		d.CreatedAt,
	)

	return err
}

func (r *disbursementRepository) GetByApplicationID(ctx context.Context, applicationID uuid.UUID) (*domain.Disbursement, error) {
	query := `
		SELECT id, application_id, amount, repayment_amount, repayment_due_date, repayment_status, status, transaction_ref, disbursed_at, created_at
		FROM disbursements
		WHERE application_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	var d domain.Disbursement
	err := r.db.GetContext(ctx, &d, query, applicationID)
	if err != nil {
		return nil, err
	}

	return &d, nil
}

// CompleteRepayment is one-way: a completed schedule never reverts, so
// the update only matches rows not already completed.
func (r *disbursementRepository) CompleteRepayment(ctx context.Context, applicationID uuid.UUID) error {
	query := `
		UPDATE disbursements
		SET repayment_status = $2
		WHERE application_id = $1 AND repayment_status <> $2
	`

	_, err := r.db.ExecContext(ctx, query, applicationID, domain.RepaymentStatusCompleted)
	return err
}

func (r *disbursementRepository) MarkOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	query := `
		UPDATE disbursements
		SET repayment_status = $1
		WHERE repayment_status = $2 AND repayment_due_date < $3
	`

	result, err := r.db.ExecContext(ctx, query, domain.RepaymentStatusOverdue, domain.RepaymentStatusPending, asOf)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}
