package domain

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
	PaymentStatusFailed  = "failed"
)

// Repayment represents one customer-initiated STK push attempt toward a
// loan's total due. CheckoutRequestID is the sole correlation key
// between initiation and the asynchronous gateway callback; it is unique
// per attempt. Once status leaves pending the row is immutable except
// for the fields set atomically at that transition.
type Repayment struct {
	ID                uuid.UUID       `json:"id" db:"id"`
	UserID            string          `json:"user_id" db:"user_id"`
	LoanID            uuid.UUID       `json:"loan_id" db:"loan_id"`
	Amount            decimal.Decimal `json:"amount" db:"amount"`
	Phone             string          `json:"phone" db:"phone"`
	CheckoutRequestID string          `json:"checkout_request_id" db:"checkout_request_id"`
	MerchantRequestID string          `json:"merchant_request_id" db:"merchant_request_id"`
	Status            string          `json:"status" db:"status"`
	MpesaReceipt      sql.NullString  `json:"mpesa_receipt" db:"mpesa_receipt"`
	PaidAt            sql.NullTime    `json:"paid_at" db:"paid_at"`
	CreatedAt         time.Time       `json:"created_at" db:"created_at"`
}

// DTOs for requests and responses

type InitiateRepaymentRequest struct {
	UserID string          `json:"user_id" validate:"required"`
	LoanID string          `json:"loan_id" validate:"required"`
	Amount decimal.Decimal `json:"amount" validate:"required"`
	Phone  string          `json:"phone" validate:"required"`
}

type InitiateRepaymentResponse struct {
	Success           bool   `json:"success"`
	Message           string `json:"message"`
	RepaymentID       string `json:"repayment_id,omitempty"`
	CheckoutRequestID string `json:"checkout_request_id,omitempty"`
}

// STK callback wire types, matching the gateway's payload shape.

type STKCallbackEnvelope struct {
	Body struct {
		StkCallback STKCallback `json:"stkCallback"`
	} `json:"Body"`
}

type STKCallback struct {
	MerchantRequestID string            `json:"MerchantRequestID"`
	CheckoutRequestID string            `json:"CheckoutRequestID"`
	ResultCode        int               `json:"ResultCode"`
	ResultDesc        string            `json:"ResultDesc"`
	CallbackMetadata  *CallbackMetadata `json:"CallbackMetadata,omitempty"`
}

type CallbackMetadata struct {
	Item []CallbackItem `json:"Item"`
}

// CallbackItem values arrive loosely typed: receipt numbers are strings,
// amounts are numbers, phone numbers may be either.
type CallbackItem struct {
	Name  string      `json:"Name"`
	Value interface{} `json:"Value,omitempty"`
}

// PaymentDetails is the typed projection of CallbackMetadata. Missing or
// malformed items default to zero values rather than failing the parse.
type PaymentDetails struct {
	Receipt string
	Amount  decimal.Decimal
	Phone   string
}

// Details maps the positional name/value metadata items into a typed
// structure so malformed gateway payloads cannot crash the reconciler.
func (c *STKCallback) Details() PaymentDetails {
	var d PaymentDetails
	if c.CallbackMetadata == nil {
		return d
	}
	for _, item := range c.CallbackMetadata.Item {
		switch item.Name {
		case "MpesaReceiptNumber":
			if s, ok := item.Value.(string); ok {
				d.Receipt = s
			}
		case "Amount":
			switch v := item.Value.(type) {
			case float64:
				d.Amount = decimal.NewFromFloat(v)
			case string:
				if parsed, err := decimal.NewFromString(v); err == nil {
					d.Amount = parsed
				}
			}
		case "PhoneNumber":
			switch v := item.Value.(type) {
			case string:
				d.Phone = v
			case float64:
				d.Phone = decimal.NewFromFloat(v).String()
			}
		}
	}
	return d
}

// SettlementResult summarizes what a processed callback did, for audit
// and notification purposes.
type SettlementResult struct {
	RepaymentID   uuid.UUID
	LoanID        uuid.UUID
	Receipt       string
	Amount        decimal.Decimal
	Phone         string
	TotalPaid     decimal.Decimal
	TotalDue      decimal.Decimal
	LoanCompleted bool
	Duplicate     bool
}
