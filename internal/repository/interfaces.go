package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stock247/lending-engine/internal/domain"
)

// LoanRepository defines the interface for loan application data operations
type LoanRepository interface {
	// Create creates a new loan application
	Create(ctx context.Context, app *domain.LoanApplication) error

	// GetByID retrieves a loan application by id
	GetByID(ctx context.Context, id uuid.UUID) (*domain.LoanApplication, error)

	// List retrieves loan applications, newest first
	List(ctx context.Context, limit int) ([]*domain.LoanApplication, error)

	// TransitionStatus atomically moves an application from one status to
	// another. It reports false when the row was not in the expected
	// status, which makes repeated transitions safe no-ops.
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to string) (bool, error)
}

// DisbursementRepository defines the interface for disbursement data operations
type DisbursementRepository interface {
	// Create creates a new disbursement
	Create(ctx context.Context, d *domain.Disbursement) error

	// GetByApplicationID retrieves the disbursement governing an application
	GetByApplicationID(ctx context.Context, applicationID uuid.UUID) (*domain.Disbursement, error)

	// CompleteRepayment marks the application's disbursement fully repaid
	CompleteRepayment(ctx context.Context, applicationID uuid.UUID) error

	// MarkOverdue flips pending repayment schedules past their due date
	// to overdue and returns how many rows changed
	MarkOverdue(ctx context.Context, asOf time.Time) (int64, error)
}

// RepaymentRepository defines the interface for repayment data operations
type RepaymentRepository interface {
	// Create creates a new repayment attempt in pending status
	Create(ctx context.Context, r *domain.Repayment) error

	// GetByCheckoutRequestID retrieves a repayment by its correlation id
	GetByCheckoutRequestID(ctx context.Context, checkoutRequestID string) (*domain.Repayment, error)

	// MarkPaid finalizes a pending repayment as paid. The update is
	// conditional on the row still being pending and reports whether it
	// changed exactly one row, so a duplicate callback is a no-op.
	MarkPaid(ctx context.Context, id uuid.UUID, receipt string, paidAt time.Time) (bool, error)

	// MarkFailed finalizes a pending repayment as failed, with the same
	// conditional-update contract as MarkPaid
	MarkFailed(ctx context.Context, id uuid.UUID) (bool, error)

	// TotalPaid sums the amount of all paid repayments for a loan
	TotalPaid(ctx context.Context, loanID uuid.UUID) (decimal.Decimal, error)
}

// RiskRepository defines the interface for risk assessment data operations
type RiskRepository interface {
	// Upsert inserts or replaces the single assessment row per application
	Upsert(ctx context.Context, a *domain.RiskAssessment) error

	// GetByApplicationID retrieves the assessment for an application
	GetByApplicationID(ctx context.Context, applicationID uuid.UUID) (*domain.RiskAssessment, error)
}

// AuditRepository defines the interface for the append-only audit log
type AuditRepository interface {
	// Append writes one audit entry
	Append(ctx context.Context, e *domain.AuditEntry) error
}
