package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/stock247/lending-engine/internal/domain"
	"github.com/stock247/lending-engine/internal/repository"
	"github.com/stock247/lending-engine/internal/risk"
	customError "github.com/stock247/lending-engine/pkg/errors"
)

// RiskService calls the external scoring gateway and maintains the
// single assessment row per application.
type RiskService struct {
	LoanRepo  repository.LoanRepository
	RiskRepo  repository.RiskRepository
	AuditRepo repository.AuditRepository
	Assessor  risk.Assessor
}

func NewRiskService(
	loanRepo repository.LoanRepository,
	riskRepo repository.RiskRepository,
	auditRepo repository.AuditRepository,
	assessor risk.Assessor,
) *RiskService {
	return &RiskService{
		LoanRepo:  loanRepo,
		RiskRepo:  riskRepo,
		AuditRepo: auditRepo,
		Assessor:  assessor,
	}
}

// Assess scores an application and upserts the verdict. A gateway
// transport failure surfaces to the caller; a malformed verdict does not
// (the client already substitutes the neutral fallback).
func (s *RiskService) Assess(ctx context.Context, applicationID uuid.UUID, documentURLs []string, businessData map[string]string) (*domain.RiskAssessment, error) {
	app, err := s.LoanRepo.GetByID(ctx, applicationID)
	if err != nil {
		return nil, customError.WrapLoanNotFound(applicationID.String())
	}

	verdict, err := s.Assessor.Assess(ctx, domain.AssessRiskRequest{
		ApplicationID: applicationID.String(),
		DocumentURLs:  documentURLs,
		BusinessData:  businessData,
	})
	if err != nil {
		return nil, customError.WrapGatewayUnavailable(err)
	}

	notes := verdict.Recommendation
	if len(verdict.Reasons) > 0 {
		notes = fmt.Sprintf("%s: %s", verdict.Recommendation, strings.Join(verdict.Reasons, "; "))
	}

	assessment := &domain.RiskAssessment{
		ID:            uuid.New(),
		ApplicationID: applicationID,
		RiskScore:     verdict.RiskScore,
		RiskLevel:     verdict.RiskLevel,
		KYCStatus:     verdict.KYCStatus,
		AMLStatus:     verdict.AMLStatus,
		FraudFlags:    verdict.FraudFlags,
		Notes:         notes,
		CreatedAt:     time.Now(),
	}

	if err := s.RiskRepo.Upsert(ctx, assessment); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	entry := &domain.AuditEntry{
		ID:     uuid.New(),
		Action: domain.AuditRiskAssessed,
		LoanID: applicationID,
		Actor:  app.UserID,
		Details: fmt.Sprintf(`{"risk_score":%d,"risk_level":%q,"confidence":%.2f}`,
			verdict.RiskScore, verdict.RiskLevel, verdict.ConfidenceScore),
		CreatedAt: time.Now(),
	}
	if err := s.AuditRepo.Append(ctx, entry); err != nil {
		log.Printf("audit append for risk assessment on loan %s failed: %v", applicationID, err)
	}

	return assessment, nil
}
