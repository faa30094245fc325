package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	LoanStatusPending   = "pending"
	LoanStatusApproved  = "approved"
	LoanStatusRejected  = "rejected"
	LoanStatusDisbursed = "disbursed"
	LoanStatusCompleted = "completed"
)

// LoanApplication represents one working-capital funding request. It is
// the aggregate root: disbursements and repayments reference it but are
// created and updated by different actors.
type LoanApplication struct {
	ID                 uuid.UUID       `json:"id" db:"id"`
	UserID             string          `json:"user_id" db:"user_id"`
	BusinessName       string          `json:"business_name" db:"business_name"`
	OwnerPhone         string          `json:"owner_phone" db:"owner_phone"`
	LoanAmount         decimal.Decimal `json:"loan_amount" db:"loan_amount"`
	Status             string          `json:"status" db:"status"`
	DistributorPaybill string          `json:"distributor_paybill" db:"distributor_paybill"`
	CreatedAt          time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at" db:"updated_at"`
}

// loanTransitions enumerates the only permitted status moves.
var loanTransitions = map[string][]string{
	LoanStatusPending:   {LoanStatusApproved, LoanStatusRejected},
	LoanStatusApproved:  {LoanStatusDisbursed},
	LoanStatusDisbursed: {LoanStatusCompleted},
}

// CanTransition reports whether a loan application may move from one
// status to another. Completed and rejected are terminal.
func CanTransition(from, to string) bool {
	for _, next := range loanTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// DTOs for requests and responses

type CreateApplicationRequest struct {
	UserID             string          `json:"user_id" validate:"required"`
	BusinessName       string          `json:"business_name" validate:"required"`
	OwnerPhone         string          `json:"owner_phone" validate:"required"`
	LoanAmount         decimal.Decimal `json:"loan_amount" validate:"required"`
	DistributorPaybill string          `json:"distributor_paybill"`
}

type OutstandingResponse struct {
	LoanID      string          `json:"loan_id"`
	TotalDue    decimal.Decimal `json:"total_due"`
	TotalPaid   decimal.Decimal `json:"total_paid"`
	Outstanding decimal.Decimal `json:"outstanding"`
}
