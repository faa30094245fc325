package service_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/stock247/lending-engine/internal/domain"
	"github.com/stock247/lending-engine/internal/service"
	customError "github.com/stock247/lending-engine/pkg/errors"
	"github.com/stock247/lending-engine/tests/mocks"
)

func TestAssessRisk(t *testing.T) {
	id := uuid.New()

	loans := new(mocks.MockLoanRepository)
	riskRepo := new(mocks.MockRiskRepository)
	audit := new(mocks.MockAuditRepository)
	assessor := new(mocks.MockAssessor)
	svc := service.NewRiskService(loans, riskRepo, audit, assessor)

	loans.On("GetByID", mock.Anything, id).Return(&domain.LoanApplication{ID: id, UserID: "u1"}, nil)
	assessor.On("Assess", mock.Anything, mock.MatchedBy(func(req domain.AssessRiskRequest) bool {
		return req.ApplicationID == id.String()
	})).Return(domain.RiskVerdict{
		RiskScore:      22,
		RiskLevel:      domain.RiskLevelLow,
		KYCStatus:      "verified",
		AMLStatus:      "clear",
		Recommendation: "approve",
		Reasons:        []string{"stable turnover", "documents verified"},
	}, nil)
	riskRepo.On("Upsert", mock.Anything, mock.MatchedBy(func(a *domain.RiskAssessment) bool {
		return a.ApplicationID == id && a.RiskScore == 22 && a.RiskLevel == domain.RiskLevelLow
	})).Return(nil)
	audit.On("Append", mock.Anything, mock.Anything).Return(nil)

	assessment, err := svc.Assess(context.Background(), id, []string{"https://docs/1"}, map[string]string{"business_name": "Test"})

	assert.NoError(t, err)
	assert.Equal(t, 22, assessment.RiskScore)
	assert.Contains(t, assessment.Notes, "approve")
	riskRepo.AssertExpectations(t)
}

func TestAssessRisk_UnknownApplication(t *testing.T) {
	id := uuid.New()

	loans := new(mocks.MockLoanRepository)
	riskRepo := new(mocks.MockRiskRepository)
	audit := new(mocks.MockAuditRepository)
	assessor := new(mocks.MockAssessor)
	svc := service.NewRiskService(loans, riskRepo, audit, assessor)

	loans.On("GetByID", mock.Anything, id).Return(nil, sql.ErrNoRows)

	assessment, err := svc.Assess(context.Background(), id, nil, nil)

	assert.Nil(t, assessment)
	assert.True(t, customError.IsCode(err, customError.ErrCodeLoanNotFound))
	assessor.AssertNotCalled(t, "Assess", mock.Anything, mock.Anything)
}

func TestAssessRisk_GatewayTransportFailure(t *testing.T) {
	id := uuid.New()

	loans := new(mocks.MockLoanRepository)
	riskRepo := new(mocks.MockRiskRepository)
	audit := new(mocks.MockAuditRepository)
	assessor := new(mocks.MockAssessor)
	svc := service.NewRiskService(loans, riskRepo, audit, assessor)

	loans.On("GetByID", mock.Anything, id).Return(&domain.LoanApplication{ID: id}, nil)
	assessor.On("Assess", mock.Anything, mock.Anything).Return(domain.RiskVerdict{}, errors.New("dial timeout"))

	assessment, err := svc.Assess(context.Background(), id, nil, nil)

	assert.Nil(t, assessment)
	assert.True(t, customError.IsCode(err, customError.ErrCodeGatewayUnavailable))
	riskRepo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}
