package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/stock247/lending-engine/internal/domain"
	"github.com/stock247/lending-engine/internal/gateway"
	"github.com/stock247/lending-engine/internal/notify"
)

type MockLoanRepository struct {
	mock.Mock
}

func (m *MockLoanRepository) Create(ctx context.Context, app *domain.LoanApplication) error {
	args := m.Called(ctx, app)
	return args.Error(0)
}

func (m *MockLoanRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.LoanApplication, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LoanApplication), args.Error(1)
}

func (m *MockLoanRepository) List(ctx context.Context, limit int) ([]*domain.LoanApplication, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.LoanApplication), args.Error(1)
}

func (m *MockLoanRepository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to string) (bool, error) {
	args := m.Called(ctx, id, from, to)
	return args.Bool(0), args.Error(1)
}

type MockDisbursementRepository struct {
	mock.Mock
}

func (m *MockDisbursementRepository) Create(ctx context.Context, d *domain.Disbursement) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *MockDisbursementRepository) GetByApplicationID(ctx context.Context, applicationID uuid.UUID) (*domain.Disbursement, error) {
	args := m.Called(ctx, applicationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Disbursement), args.Error(1)
}

func (m *MockDisbursementRepository) CompleteRepayment(ctx context.Context, applicationID uuid.UUID) error {
	args := m.Called(ctx, applicationID)
	return args.Error(0)
}

func (m *MockDisbursementRepository) MarkOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	args := m.Called(ctx, asOf)
	return args.Get(0).(int64), args.Error(1)
}

type MockRepaymentRepository struct {
	mock.Mock
}

func (m *MockRepaymentRepository) Create(ctx context.Context, r *domain.Repayment) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockRepaymentRepository) GetByCheckoutRequestID(ctx context.Context, checkoutRequestID string) (*domain.Repayment, error) {
	args := m.Called(ctx, checkoutRequestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Repayment), args.Error(1)
}

func (m *MockRepaymentRepository) MarkPaid(ctx context.Context, id uuid.UUID, receipt string, paidAt time.Time) (bool, error) {
	args := m.Called(ctx, id, receipt, paidAt)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepaymentRepository) MarkFailed(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepaymentRepository) TotalPaid(ctx context.Context, loanID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, loanID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

type MockRiskRepository struct {
	mock.Mock
}

func (m *MockRiskRepository) Upsert(ctx context.Context, a *domain.RiskAssessment) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *MockRiskRepository) GetByApplicationID(ctx context.Context, applicationID uuid.UUID) (*domain.RiskAssessment, error) {
	args := m.Called(ctx, applicationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RiskAssessment), args.Error(1)
}

type MockAuditRepository struct {
	mock.Mock
}

func (m *MockAuditRepository) Append(ctx context.Context, e *domain.AuditEntry) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

type MockPushGateway struct {
	mock.Mock
}

func (m *MockPushGateway) StkPush(ctx context.Context, phone string, amount decimal.Decimal, accountRef string) (*gateway.PushResult, error) {
	args := m.Called(ctx, phone, amount, accountRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.PushResult), args.Error(1)
}

type MockSMSSender struct {
	mock.Mock
}

func (m *MockSMSSender) Send(ctx context.Context, msg notify.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

type MockAssessor struct {
	mock.Mock
}

func (m *MockAssessor) Assess(ctx context.Context, req domain.AssessRiskRequest) (domain.RiskVerdict, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(domain.RiskVerdict), args.Error(1)
}
