package domain

import (
	"time"

	"github.com/google/uuid"
)

// Audit actions recorded by the settlement and loan services.
const (
	AuditRepaymentInitiated = "repayment_initiated"
	AuditRepaymentSettled   = "repayment_settled"
	AuditRepaymentFailed    = "repayment_failed"
	AuditLoanApproved       = "loan_approved"
	AuditLoanRejected       = "loan_rejected"
	AuditLoanDisbursed      = "loan_disbursed"
	AuditRiskAssessed       = "risk_assessed"
)

// AuditEntry is an append-only record of a state-changing action. It is
// written regardless of partial failure elsewhere, matching the
// compensating-log style of the settlement flow.
type AuditEntry struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Action    string    `json:"action" db:"action"`
	LoanID    uuid.UUID `json:"loan_id" db:"loan_id"`
	Actor     string    `json:"actor" db:"actor"`
	Details   string    `json:"details" db:"details"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
