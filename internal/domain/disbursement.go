package domain

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	DisbursementStatusPending   = "pending"
	DisbursementStatusCompleted = "completed"
	DisbursementStatusFailed    = "failed"

	RepaymentStatusPending   = "pending"
	RepaymentStatusCompleted = "completed"
	RepaymentStatusOverdue   = "overdue"
)

// Disbursement represents funds paid out to a distributor for one
// approved application. RepaymentAmount is fixed at creation time and is
// the authoritative total due for settlement; it is never recomputed.
type Disbursement struct {
	ID               uuid.UUID       `json:"id" db:"id"`
	ApplicationID    uuid.UUID       `json:"application_id" db:"application_id"`
	Amount           decimal.Decimal `json:"amount" db:"amount"`
	RepaymentAmount  decimal.Decimal `json:"repayment_amount" db:"repayment_amount"`
	RepaymentDueDate time.Time       `json:"repayment_due_date" db:"repayment_due_date"`
	RepaymentStatus  string          `json:"repayment_status" db:"repayment_status"`
	Status           string          `json:"status" db:"status"`
	TransactionRef   sql.NullString  `json:"transaction_ref" db:"transaction_ref"`
	DisbursedAt      time.Time       `json:"disbursed_at" db:"disbursed_at"`
	CreatedAt        time.Time       `json:"created_at" db:"created_at"`
}
