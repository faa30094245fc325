package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/stock247/lending-engine/internal/domain"
)

type loanRepository struct {
	db *sqlx.DB
}

func NewLoanRepository(db *sqlx.DB) LoanRepository {
	return &loanRepository{db: db}
}

func (r *loanRepository) Create(ctx context.Context, app *domain.LoanApplication) error {
	query := `
		INSERT INTO loan_applications (id, user_id, business_name, owner_phone, loan_amount, status, distributor_paybill, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(ctx, query,
		app.ID,
		app.UserID,
		app.BusinessName,
		app.OwnerPhone,
		app.LoanAmount,
		app.Status,
		app.DistributorPaybill,
		app.CreatedAt,
		app.UpdatedAt,
	)

	return err
}

func (r *loanRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.LoanApplication, error) {
	query := `
		SELECT id, user_id, business_name, owner_phone, loan_amount, status, distributor_paybill, created_at, updated_at
		FROM loan_applications
		WHERE id = $1
	`

	var app domain.LoanApplication
	err := r.db.GetContext(ctx, &app, query, id)
	if err != nil {
		return nil, err
	}

	return &app, nil
}

func (r *loanRepository) List(ctx context.Context, limit int) ([]*domain.LoanApplication, error) {
	query := `
		SELECT id, user_id, business_name, owner_phone, loan_amount, status, distributor_paybill, created_at, updated_at
		FROM loan_applications
		ORDER BY created_at DESC
		LIMIT $1
	`

	var apps []*domain.LoanApplication
	err := r.db.SelectContext(ctx, &apps, query, limit)
	if err != nil {
		return nil, err
	}

	return apps, nil
}

func (r *loanRepository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to string) (bool, error) {
	query := `
		UPDATE loan_applications
		SET status = $3, updated_at = $4
		WHERE id = $1 AND status = $2
	`

	result, err := r.db.ExecContext(ctx, query, id, from, to, time.Now())
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected == 1, nil
}
