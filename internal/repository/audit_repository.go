package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/stock247/lending-engine/internal/domain"
)

type auditRepository struct {
	db *sqlx.DB
}

func NewAuditRepository(db *sqlx.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Append(ctx context.Context, e *domain.AuditEntry) error {
	query := `
		INSERT INTO audit_log (id, action, loan_id, actor, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(ctx, query,
		e.ID,
		e.Action,
		e.LoanID,
		e.Actor,
		e.Details,
		e.CreatedAt,
	)

	return err
}
