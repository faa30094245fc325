package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/stock247/lending-engine/internal/domain"
	"github.com/stock247/lending-engine/internal/service"
	customError "github.com/stock247/lending-engine/pkg/errors"
	"github.com/stock247/lending-engine/pkg/response"
)

type SettlementHandler struct {
	service   *service.SettlementService
	validator *validator.Validate
}

func NewSettlementHandler(svc *service.SettlementService) *SettlementHandler {
	return &SettlementHandler{
		service:   svc,
		validator: validator.New(),
	}
}

// InitiateRepayment handles POST /api/v1/repayments.
func (h *SettlementHandler) InitiateRepayment(w http.ResponseWriter, r *http.Request) {
	var req domain.InitiateRepaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body", err)
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		response.BadRequest(w, "missing required fields", err)
		return
	}

	result, err := h.service.InitiateRepayment(r.Context(), &req)
	if err != nil {
		var be *customError.BusinessError
		if errors.As(err, &be) && be.Code == customError.ErrCodeInvalidRequest {
			response.BadRequest(w, be.Message, be.Err)
			return
		}
		response.InternalServerError(w, "failed to initiate repayment", err)
		return
	}

	// Fixed wire contract for the dashboard client.
	response.Raw(w, http.StatusOK, result)
}

type callbackAck struct {
	Success bool `json:"success"`
}

// PaymentCallback handles POST /api/v1/payments/callback, invoked by the
// payment gateway. Once the callback is attributable to a known
// repayment the handler always acknowledges success; the gateway only
// needs delivery confirmation.
func (h *SettlementHandler) PaymentCallback(w http.ResponseWriter, r *http.Request) {
	var envelope domain.STKCallbackEnvelope
	if err := json.NewDecoder(r.Body).Decode(&envelope); err != nil {
		response.BadRequest(w, "invalid callback payload", err)
		return
	}

	_, err := h.service.HandleCallback(r.Context(), envelope.Body.StkCallback)
	if err != nil {
		if customError.IsCode(err, customError.ErrCodeRepaymentNotFound) {
			response.NotFound(w, "unknown checkout request id")
			return
		}
		response.InternalServerError(w, "callback processing failed", err)
		return
	}

	response.Raw(w, http.StatusOK, callbackAck{Success: true})
}
