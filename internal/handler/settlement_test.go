package handler_test

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/google/uuid"
	"github.com/stock247/lending-engine/internal/config"
	"github.com/stock247/lending-engine/internal/domain"
	"github.com/stock247/lending-engine/internal/handler"
	"github.com/stock247/lending-engine/internal/service"
	"github.com/stock247/lending-engine/tests/mocks"
)

func newRouter(m *handlerMocks) *mux.Router {
	cfg := &config.Config{
		Business: config.BusinessConfig{
			CountryCode:       "254",
			FlatInterestRate:  "0.10",
			RepaymentTermDays: 7,
			DemoCompleteDelay: "0s",
		},
	}
	svc := service.NewSettlementService(m.repayments, m.loans, m.disbursements, m.audit, nil, m.sms, nil, cfg)
	h := handler.NewSettlementHandler(svc)

	router := mux.NewRouter()
	router.HandleFunc("/api/v1/repayments", h.InitiateRepayment).Methods("POST")
	router.HandleFunc("/api/v1/payments/callback", h.PaymentCallback).Methods("POST")
	return router
}

type handlerMocks struct {
	repayments    *mocks.MockRepaymentRepository
	loans         *mocks.MockLoanRepository
	disbursements *mocks.MockDisbursementRepository
	audit         *mocks.MockAuditRepository
	sms           *mocks.MockSMSSender
}

func newHandlerMocks() *handlerMocks {
	return &handlerMocks{
		repayments:    new(mocks.MockRepaymentRepository),
		loans:         new(mocks.MockLoanRepository),
		disbursements: new(mocks.MockDisbursementRepository),
		audit:         new(mocks.MockAuditRepository),
		sms:           new(mocks.MockSMSSender),
	}
}

func TestInitiateRepaymentEndpoint(t *testing.T) {
	m := newHandlerMocks()
	m.repayments.On("Create", mock.Anything, mock.Anything).Return(nil)
	m.audit.On("Append", mock.Anything, mock.Anything).Return(nil)

	body, _ := json.Marshal(map[string]interface{}{
		"user_id": "u1",
		"loan_id": uuid.NewString(),
		"amount":  5000,
		"phone":   "0712345678",
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/repayments", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	newRouter(m).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp domain.InitiateRepaymentResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.RepaymentID)
	assert.NotEmpty(t, resp.CheckoutRequestID)
}

func TestInitiateRepaymentEndpoint_MissingFields(t *testing.T) {
	m := newHandlerMocks()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/repayments", bytes.NewReader([]byte(`{"amount":5000}`)))
	rec := httptest.NewRecorder()
	newRouter(m).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	m.repayments.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func callbackBody(checkoutRequestID string, resultCode int) []byte {
	payload := map[string]interface{}{
		"Body": map[string]interface{}{
			"stkCallback": map[string]interface{}{
				"MerchantRequestID": "mr_1",
				"CheckoutRequestID": checkoutRequestID,
				"ResultCode":        resultCode,
				"ResultDesc":        "desc",
				"CallbackMetadata": map[string]interface{}{
					"Item": []map[string]interface{}{
						{"Name": "Amount", "Value": 1000},
						{"Name": "MpesaReceiptNumber", "Value": "R1"},
					},
				},
			},
		},
	}
	b, _ := json.Marshal(payload)
	return b
}

func TestPaymentCallbackEndpoint(t *testing.T) {
	m := newHandlerMocks()

	loanID := uuid.New()
	repayment := &domain.Repayment{
		ID:                uuid.New(),
		LoanID:            loanID,
		Amount:            decimal.NewFromInt(1000),
		Phone:             "254712345678",
		CheckoutRequestID: "ws_CO_1",
		Status:            domain.PaymentStatusPending,
	}

	m.repayments.On("GetByCheckoutRequestID", mock.Anything, "ws_CO_1").Return(repayment, nil)
	m.repayments.On("MarkPaid", mock.Anything, repayment.ID, "R1", mock.Anything).Return(true, nil)
	m.repayments.On("TotalPaid", mock.Anything, loanID).Return(decimal.NewFromInt(1000), nil)
	m.disbursements.On("GetByApplicationID", mock.Anything, loanID).Return(&domain.Disbursement{
		ApplicationID:   loanID,
		RepaymentAmount: decimal.NewFromInt(55000),
	}, nil)
	m.audit.On("Append", mock.Anything, mock.Anything).Return(nil)
	m.sms.On("Send", mock.Anything, mock.Anything).Return(nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/callback", bytes.NewReader(callbackBody("ws_CO_1", 0)))
	rec := httptest.NewRecorder()
	newRouter(m).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())
}

func TestPaymentCallbackEndpoint_UnknownCorrelationID(t *testing.T) {
	m := newHandlerMocks()

	m.repayments.On("GetByCheckoutRequestID", mock.Anything, "ws_CO_unknown").Return(nil, sql.ErrNoRows)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/callback", bytes.NewReader(callbackBody("ws_CO_unknown", 0)))
	rec := httptest.NewRecorder()
	newRouter(m).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
