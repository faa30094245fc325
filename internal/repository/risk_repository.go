package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/stock247/lending-engine/internal/domain"
)

type riskRepository struct {
	db *sqlx.DB
}

func NewRiskRepository(db *sqlx.DB) RiskRepository {
	return &riskRepository{db: db}
}

// Upsert keeps exactly one assessment row per application.
func (r *riskRepository) Upsert(ctx context.Context, a *domain.RiskAssessment) error {
	query := `
		INSERT INTO risk_assessments (id, application_id, risk_score, risk_level, kyc_status, aml_status, fraud_flags, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (application_id) DO UPDATE
		SET risk_score = EXCLUDED.risk_score,
		    risk_level = EXCLUDED.risk_level,
		    kyc_status = EXCLUDED.kyc_status,
		    aml_status = EXCLUDED.aml_status,
		    fraud_flags = EXCLUDED.fraud_flags,
		    notes = EXCLUDED.notes,
		    updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		a.ID,
		a.ApplicationID,
		a.RiskScore,
		a.RiskLevel,
		a.KYCStatus,
		a.AMLStatus,
		a.FraudFlags,
		a.Notes,
		a.CreatedAt,
		time.Now(),
	)

	return err
}

func (r *riskRepository) GetByApplicationID(ctx context.Context, applicationID uuid.UUID) (*domain.RiskAssessment, error) {
	query := `
		SELECT id, application_id, risk_score, risk_level, kyc_status, aml_status, fraud_flags, notes, created_at, updated_at
		FROM risk_assessments
		WHERE application_id = $1
	`

	var a domain.RiskAssessment
	err := r.db.GetContext(ctx, &a, query, applicationID)
	if err != nil {
		return nil, err
	}

	return &a, nil
}
