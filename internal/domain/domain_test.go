package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/stock247/lending-engine/internal/domain"
)

func TestCanTransition(t *testing.T) {
	allowed := [][2]string{
		{domain.LoanStatusPending, domain.LoanStatusApproved},
		{domain.LoanStatusPending, domain.LoanStatusRejected},
		{domain.LoanStatusApproved, domain.LoanStatusDisbursed},
		{domain.LoanStatusDisbursed, domain.LoanStatusCompleted},
	}
	for _, tr := range allowed {
		assert.True(t, domain.CanTransition(tr[0], tr[1]), "%s -> %s should be allowed", tr[0], tr[1])
	}

	denied := [][2]string{
		{domain.LoanStatusPending, domain.LoanStatusDisbursed},
		{domain.LoanStatusPending, domain.LoanStatusCompleted},
		{domain.LoanStatusApproved, domain.LoanStatusRejected},
		{domain.LoanStatusRejected, domain.LoanStatusApproved},
		{domain.LoanStatusCompleted, domain.LoanStatusDisbursed},
		{domain.LoanStatusDisbursed, domain.LoanStatusApproved},
	}
	for _, tr := range denied {
		assert.False(t, domain.CanTransition(tr[0], tr[1]), "%s -> %s should be denied", tr[0], tr[1])
	}
}

func TestCallbackDetails(t *testing.T) {
	payload := `{
		"Body": {
			"stkCallback": {
				"MerchantRequestID": "mr_1",
				"CheckoutRequestID": "ws_CO_abc",
				"ResultCode": 0,
				"ResultDesc": "The service request is processed successfully.",
				"CallbackMetadata": {
					"Item": [
						{"Name": "Amount", "Value": 25000},
						{"Name": "MpesaReceiptNumber", "Value": "SGK1XY2ZW"},
						{"Name": "TransactionDate", "Value": 20260829101530},
						{"Name": "PhoneNumber", "Value": 254712345678}
					]
				}
			}
		}
	}`

	var envelope domain.STKCallbackEnvelope
	assert.NoError(t, json.Unmarshal([]byte(payload), &envelope))

	cb := envelope.Body.StkCallback
	assert.Equal(t, "ws_CO_abc", cb.CheckoutRequestID)
	assert.Equal(t, 0, cb.ResultCode)

	details := cb.Details()
	assert.Equal(t, "SGK1XY2ZW", details.Receipt)
	assert.True(t, details.Amount.Equal(decimal.NewFromInt(25000)))
	assert.Equal(t, "254712345678", details.Phone)
}

func TestCallbackDetails_Defensive(t *testing.T) {
	tests := []struct {
		name string
		cb   domain.STKCallback
	}{
		{
			name: "no metadata at all",
			cb:   domain.STKCallback{ResultCode: 0},
		},
		{
			name: "empty item list",
			cb:   domain.STKCallback{CallbackMetadata: &domain.CallbackMetadata{}},
		},
		{
			name: "items with missing values",
			cb: domain.STKCallback{CallbackMetadata: &domain.CallbackMetadata{Item: []domain.CallbackItem{
				{Name: "Amount"},
				{Name: "MpesaReceiptNumber"},
				{Name: "PhoneNumber"},
			}}},
		},
		{
			name: "items with wrong types",
			cb: domain.STKCallback{CallbackMetadata: &domain.CallbackMetadata{Item: []domain.CallbackItem{
				{Name: "Amount", Value: true},
				{Name: "MpesaReceiptNumber", Value: 42.0},
			}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Must never panic; missing fields default to zero values.
			details := tt.cb.Details()
			assert.Equal(t, "", details.Receipt)
			assert.True(t, details.Amount.IsZero())
		})
	}
}
