package service_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/stock247/lending-engine/internal/domain"
	"github.com/stock247/lending-engine/internal/service"
	customError "github.com/stock247/lending-engine/pkg/errors"
	"github.com/stock247/lending-engine/tests/mocks"
)

type loanMocks struct {
	loans         *mocks.MockLoanRepository
	disbursements *mocks.MockDisbursementRepository
	repayments    *mocks.MockRepaymentRepository
	audit         *mocks.MockAuditRepository
}

func newLoanService() (*service.LoanService, *loanMocks) {
	m := &loanMocks{
		loans:         new(mocks.MockLoanRepository),
		disbursements: new(mocks.MockDisbursementRepository),
		repayments:    new(mocks.MockRepaymentRepository),
		audit:         new(mocks.MockAuditRepository),
	}
	svc := service.NewLoanService(m.loans, m.disbursements, m.repayments, m.audit, testConfig())
	return svc, m
}

func TestCreateApplication(t *testing.T) {
	svc, m := newLoanService()

	m.loans.On("Create", mock.Anything, mock.MatchedBy(func(app *domain.LoanApplication) bool {
		return app.Status == domain.LoanStatusPending && app.OwnerPhone == "254712345678"
	})).Return(nil)

	app, err := svc.CreateApplication(context.Background(), &domain.CreateApplicationRequest{
		UserID:       "u1",
		BusinessName: "Mama Njeri Wines & Spirits",
		OwnerPhone:   "0712345678",
		LoanAmount:   decimal.NewFromInt(50000),
	})

	assert.NoError(t, err)
	assert.Equal(t, domain.LoanStatusPending, app.Status)
	m.loans.AssertExpectations(t)
}

func TestCreateApplication_NonPositiveAmount(t *testing.T) {
	svc, m := newLoanService()

	app, err := svc.CreateApplication(context.Background(), &domain.CreateApplicationRequest{
		UserID:       "u1",
		BusinessName: "Test",
		OwnerPhone:   "0712345678",
		LoanAmount:   decimal.Zero,
	})

	assert.Nil(t, app)
	assert.True(t, customError.IsCode(err, customError.ErrCodeInvalidRequest))
	m.loans.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestApprove(t *testing.T) {
	id := uuid.New()
	svc, m := newLoanService()

	m.loans.On("GetByID", mock.Anything, id).Return(&domain.LoanApplication{
		ID:     id,
		Status: domain.LoanStatusPending,
	}, nil)
	m.loans.On("TransitionStatus", mock.Anything, id, domain.LoanStatusPending, domain.LoanStatusApproved).Return(true, nil)
	m.audit.On("Append", mock.Anything, mock.MatchedBy(func(e *domain.AuditEntry) bool {
		return e.Action == domain.AuditLoanApproved && e.Actor == "admin"
	})).Return(nil)

	app, err := svc.Approve(context.Background(), id, "admin")

	assert.NoError(t, err)
	assert.Equal(t, domain.LoanStatusApproved, app.Status)
}

func TestApprove_InvalidTransition(t *testing.T) {
	id := uuid.New()
	svc, m := newLoanService()

	m.loans.On("GetByID", mock.Anything, id).Return(&domain.LoanApplication{
		ID:     id,
		Status: domain.LoanStatusDisbursed,
	}, nil)

	app, err := svc.Approve(context.Background(), id, "admin")

	assert.Nil(t, app)
	assert.True(t, customError.IsCode(err, customError.ErrCodeInvalidTransition))
	m.loans.AssertNotCalled(t, "TransitionStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDisburse(t *testing.T) {
	id := uuid.New()
	svc, m := newLoanService()

	m.loans.On("GetByID", mock.Anything, id).Return(&domain.LoanApplication{
		ID:         id,
		LoanAmount: decimal.NewFromInt(50000),
		Status:     domain.LoanStatusApproved,
	}, nil)
	m.loans.On("TransitionStatus", mock.Anything, id, domain.LoanStatusApproved, domain.LoanStatusDisbursed).Return(true, nil)
	m.disbursements.On("Create", mock.Anything, mock.MatchedBy(func(d *domain.Disbursement) bool {
		// 50000 principal at 10% flat interest is 55000 due, 7 days out.
		return d.RepaymentAmount.Equal(decimal.NewFromInt(55000)) &&
			d.RepaymentStatus == domain.RepaymentStatusPending &&
			d.RepaymentDueDate.Equal(d.DisbursedAt.AddDate(0, 0, 7))
	})).Return(nil)
	m.audit.On("Append", mock.Anything, mock.Anything).Return(nil)

	d, err := svc.Disburse(context.Background(), id, "admin", "TX123")

	assert.NoError(t, err)
	assert.Equal(t, domain.DisbursementStatusCompleted, d.Status)
	assert.Equal(t, "TX123", d.TransactionRef.String)
	m.disbursements.AssertExpectations(t)
}

func TestDisburse_PendingApplicationRejected(t *testing.T) {
	id := uuid.New()
	svc, m := newLoanService()

	m.loans.On("GetByID", mock.Anything, id).Return(&domain.LoanApplication{
		ID:     id,
		Status: domain.LoanStatusPending,
	}, nil)

	d, err := svc.Disburse(context.Background(), id, "admin", "")

	assert.Nil(t, d)
	assert.True(t, customError.IsCode(err, customError.ErrCodeInvalidTransition))
	m.disbursements.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestOutstanding(t *testing.T) {
	id := uuid.New()
	svc, m := newLoanService()

	m.loans.On("GetByID", mock.Anything, id).Return(&domain.LoanApplication{
		ID:         id,
		LoanAmount: decimal.NewFromInt(50000),
		Status:     domain.LoanStatusDisbursed,
	}, nil)
	m.repayments.On("TotalPaid", mock.Anything, id).Return(decimal.NewFromInt(30000), nil)
	m.disbursements.On("GetByApplicationID", mock.Anything, id).Return(&domain.Disbursement{
		ApplicationID:   id,
		RepaymentAmount: decimal.NewFromInt(55000),
	}, nil)

	out, err := svc.Outstanding(context.Background(), id)

	assert.NoError(t, err)
	assert.True(t, out.Outstanding.Equal(decimal.NewFromInt(25000)))
}

func TestOutstanding_NoDisbursementUsesFlatInterestFallback(t *testing.T) {
	id := uuid.New()
	svc, m := newLoanService()

	m.loans.On("GetByID", mock.Anything, id).Return(&domain.LoanApplication{
		ID:         id,
		LoanAmount: decimal.NewFromInt(10000),
		Status:     domain.LoanStatusApproved,
	}, nil)
	m.repayments.On("TotalPaid", mock.Anything, id).Return(decimal.Zero, nil)
	m.disbursements.On("GetByApplicationID", mock.Anything, id).Return(nil, sql.ErrNoRows)

	out, err := svc.Outstanding(context.Background(), id)

	assert.NoError(t, err)
	assert.True(t, out.TotalDue.Equal(decimal.NewFromInt(11000)))
}

func TestGetApplication_NotFound(t *testing.T) {
	id := uuid.New()
	svc, m := newLoanService()

	m.loans.On("GetByID", mock.Anything, id).Return(nil, sql.ErrNoRows)

	app, err := svc.GetApplication(context.Background(), id)

	assert.Nil(t, app)
	assert.True(t, customError.IsCode(err, customError.ErrCodeLoanNotFound))
}
