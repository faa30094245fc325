package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stock247/lending-engine/internal/config"
	"github.com/stock247/lending-engine/internal/domain"
	"github.com/stock247/lending-engine/internal/repository"
	customError "github.com/stock247/lending-engine/pkg/errors"
	"github.com/stock247/lending-engine/pkg/phone"
)

// LoanService owns the loan application lifecycle up to disbursement.
type LoanService struct {
	LoanRepo         repository.LoanRepository
	DisbursementRepo repository.DisbursementRepository
	RepaymentRepo    repository.RepaymentRepository
	AuditRepo        repository.AuditRepository
	config           *config.Config
}

func NewLoanService(
	loanRepo repository.LoanRepository,
	disbursementRepo repository.DisbursementRepository,
	repaymentRepo repository.RepaymentRepository,
	auditRepo repository.AuditRepository,
	cfg *config.Config,
) *LoanService {
	return &LoanService{
		LoanRepo:         loanRepo,
		DisbursementRepo: disbursementRepo,
		RepaymentRepo:    repaymentRepo,
		AuditRepo:        auditRepo,
		config:           cfg,
	}
}

// CreateApplication registers a new funding request in pending status.
func (s *LoanService) CreateApplication(ctx context.Context, req *domain.CreateApplicationRequest) (*domain.LoanApplication, error) {
	if req.LoanAmount.LessThanOrEqual(decimal.Zero) {
		return nil, customError.WrapInvalidRequest("loan_amount must be positive")
	}

	ownerPhone, err := phone.Normalize(req.OwnerPhone, s.config.Business.CountryCode)
	if err != nil {
		return nil, customError.WrapInvalidRequest(err.Error())
	}

	now := time.Now()
	app := &domain.LoanApplication{
		ID:                 uuid.New(),
		UserID:             req.UserID,
		BusinessName:       req.BusinessName,
		OwnerPhone:         ownerPhone,
		LoanAmount:         req.LoanAmount,
		Status:             domain.LoanStatusPending,
		DistributorPaybill: req.DistributorPaybill,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.LoanRepo.Create(ctx, app); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	return app, nil
}

// GetApplication retrieves one application by id.
func (s *LoanService) GetApplication(ctx context.Context, id uuid.UUID) (*domain.LoanApplication, error) {
	app, err := s.LoanRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapLoanNotFound(id.String())
		}
		return nil, customError.WrapDatabaseError(err)
	}
	return app, nil
}

// ListApplications returns recent applications for the back office.
func (s *LoanService) ListApplications(ctx context.Context, limit int) ([]*domain.LoanApplication, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	apps, err := s.LoanRepo.List(ctx, limit)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return apps, nil
}

// Approve moves a pending application to approved.
func (s *LoanService) Approve(ctx context.Context, id uuid.UUID, actor string) (*domain.LoanApplication, error) {
	return s.review(ctx, id, actor, domain.LoanStatusApproved, domain.AuditLoanApproved)
}

// Reject moves a pending application to rejected.
func (s *LoanService) Reject(ctx context.Context, id uuid.UUID, actor string) (*domain.LoanApplication, error) {
	return s.review(ctx, id, actor, domain.LoanStatusRejected, domain.AuditLoanRejected)
}

func (s *LoanService) review(ctx context.Context, id uuid.UUID, actor, to, auditAction string) (*domain.LoanApplication, error) {
	app, err := s.GetApplication(ctx, id)
	if err != nil {
		return nil, err
	}

	if !domain.CanTransition(app.Status, to) {
		return nil, customError.WrapInvalidTransition(app.Status, to)
	}

	moved, err := s.LoanRepo.TransitionStatus(ctx, id, app.Status, to)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	if !moved {
		// Lost the race to a concurrent reviewer.
		return nil, customError.WrapInvalidTransition(app.Status, to)
	}

	app.Status = to
	s.auditEntry(ctx, auditAction, id, actor, fmt.Sprintf(`{"amount":%q}`, app.LoanAmount.String()))

	return app, nil
}

// Disburse queues an approved application for payout: the application
// moves to disbursed and a Disbursement fixing the total due (principal
// plus flat interest) and the repayment deadline is created.
func (s *LoanService) Disburse(ctx context.Context, id uuid.UUID, actor, transactionRef string) (*domain.Disbursement, error) {
	app, err := s.GetApplication(ctx, id)
	if err != nil {
		return nil, err
	}

	if !domain.CanTransition(app.Status, domain.LoanStatusDisbursed) {
		return nil, customError.WrapInvalidTransition(app.Status, domain.LoanStatusDisbursed)
	}

	moved, err := s.LoanRepo.TransitionStatus(ctx, id, app.Status, domain.LoanStatusDisbursed)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	if !moved {
		return nil, customError.WrapInvalidTransition(app.Status, domain.LoanStatusDisbursed)
	}

	now := time.Now()
	multiplier := decimal.NewFromInt(1).Add(s.config.GetFlatInterestRate())

	disbursement := &domain.Disbursement{
		ID:               uuid.New(),
		ApplicationID:    app.ID,
		Amount:           app.LoanAmount,
		RepaymentAmount:  app.LoanAmount.Mul(multiplier).Round(2),
		RepaymentDueDate: now.AddDate(0, 0, s.config.Business.RepaymentTermDays),
		RepaymentStatus:  domain.RepaymentStatusPending,
		Status:           domain.DisbursementStatusPending,
		DisbursedAt:      now,
		CreatedAt:        now,
	}
	if transactionRef != "" {
		disbursement.TransactionRef = sql.NullString{String: transactionRef, Valid: true}
		disbursement.Status = domain.DisbursementStatusCompleted
	}

	if err := s.DisbursementRepo.Create(ctx, disbursement); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	s.auditEntry(ctx, domain.AuditLoanDisbursed, id, actor, fmt.Sprintf(
		`{"amount":%q,"repayment_amount":%q,"due_date":%q}`,
		disbursement.Amount.String(), disbursement.RepaymentAmount.String(),
		disbursement.RepaymentDueDate.Format(time.RFC3339),
	))

	return disbursement, nil
}

// Outstanding reports the loan's total due, total paid and balance.
func (s *LoanService) Outstanding(ctx context.Context, id uuid.UUID) (*domain.OutstandingResponse, error) {
	app, err := s.GetApplication(ctx, id)
	if err != nil {
		return nil, err
	}

	totalPaid, err := s.RepaymentRepo.TotalPaid(ctx, id)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	var totalDue decimal.Decimal
	disbursement, err := s.DisbursementRepo.GetByApplicationID(ctx, id)
	switch {
	case err == nil:
		totalDue = disbursement.RepaymentAmount
	case errors.Is(err, sql.ErrNoRows):
		multiplier := decimal.NewFromInt(1).Add(s.config.GetFlatInterestRate())
		totalDue = app.LoanAmount.Mul(multiplier).Round(2)
	default:
		return nil, customError.WrapDatabaseError(err)
	}

	return &domain.OutstandingResponse{
		LoanID:      id.String(),
		TotalDue:    totalDue,
		TotalPaid:   totalPaid,
		Outstanding: decimal.Max(totalDue.Sub(totalPaid), decimal.Zero),
	}, nil
}

func (s *LoanService) auditEntry(ctx context.Context, action string, loanID uuid.UUID, actor, details string) {
	entry := &domain.AuditEntry{
		ID:        uuid.New(),
		Action:    action,
		LoanID:    loanID,
		Actor:     actor,
		Details:   details,
		CreatedAt: time.Now(),
	}
	if err := s.AuditRepo.Append(ctx, entry); err != nil {
		log.Printf("audit append for %s on loan %s failed: %v", action, loanID, err)
	}
}
