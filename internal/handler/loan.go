package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/stock247/lending-engine/internal/domain"
	"github.com/stock247/lending-engine/internal/service"
	customError "github.com/stock247/lending-engine/pkg/errors"
	"github.com/stock247/lending-engine/pkg/response"
)

type LoanHandler struct {
	loans     *service.LoanService
	risk      *service.RiskService
	validator *validator.Validate
}

func NewLoanHandler(loans *service.LoanService, risk *service.RiskService) *LoanHandler {
	return &LoanHandler{
		loans:     loans,
		risk:      risk,
		validator: validator.New(),
	}
}

// CreateApplication handles POST /api/v1/loans.
func (h *LoanHandler) CreateApplication(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateApplicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body", err)
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		response.BadRequest(w, "missing required fields", err)
		return
	}

	app, err := h.loans.CreateApplication(r.Context(), &req)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	response.Created(w, app)
}

// ListApplications handles GET /api/v1/loans.
func (h *LoanHandler) ListApplications(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	apps, err := h.loans.ListApplications(r.Context(), limit)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	response.Success(w, apps)
}

// GetApplication handles GET /api/v1/loans/{loanId}.
func (h *LoanHandler) GetApplication(w http.ResponseWriter, r *http.Request) {
	id, ok := loanID(w, r)
	if !ok {
		return
	}

	app, err := h.loans.GetApplication(r.Context(), id)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	response.Success(w, app)
}

// Approve handles POST /api/v1/loans/{loanId}/approve.
func (h *LoanHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.reviewAction(w, r, h.loans.Approve)
}

// Reject handles POST /api/v1/loans/{loanId}/reject.
func (h *LoanHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.reviewAction(w, r, h.loans.Reject)
}

type reviewRequest struct {
	Actor string `json:"actor" validate:"required"`
}

func (h *LoanHandler) reviewAction(
	w http.ResponseWriter,
	r *http.Request,
	action func(ctx context.Context, id uuid.UUID, actor string) (*domain.LoanApplication, error),
) {
	id, ok := loanID(w, r)
	if !ok {
		return
	}

	var req reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body", err)
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		response.BadRequest(w, "missing required fields", err)
		return
	}

	app, err := action(r.Context(), id, req.Actor)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	response.Success(w, app)
}

// Disburse handles POST /api/v1/loans/{loanId}/disburse.
func (h *LoanHandler) Disburse(w http.ResponseWriter, r *http.Request) {
	id, ok := loanID(w, r)
	if !ok {
		return
	}

	var req struct {
		Actor          string `json:"actor" validate:"required"`
		TransactionRef string `json:"transaction_ref"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body", err)
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		response.BadRequest(w, "missing required fields", err)
		return
	}

	d, err := h.loans.Disburse(r.Context(), id, req.Actor, req.TransactionRef)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	response.Created(w, d)
}

// Outstanding handles GET /api/v1/loans/{loanId}/outstanding.
func (h *LoanHandler) Outstanding(w http.ResponseWriter, r *http.Request) {
	id, ok := loanID(w, r)
	if !ok {
		return
	}

	out, err := h.loans.Outstanding(r.Context(), id)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	response.Success(w, out)
}

// AssessRisk handles POST /api/v1/loans/{loanId}/risk.
func (h *LoanHandler) AssessRisk(w http.ResponseWriter, r *http.Request) {
	id, ok := loanID(w, r)
	if !ok {
		return
	}

	var req struct {
		DocumentURLs []string          `json:"documentUrls"`
		BusinessData map[string]string `json:"businessData"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body", err)
		return
	}

	assessment, err := h.risk.Assess(r.Context(), id, req.DocumentURLs, req.BusinessData)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	response.Success(w, assessment)
}

func loanID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := mux.Vars(r)["loanId"]
	id, err := uuid.Parse(raw)
	if err != nil {
		response.BadRequest(w, "invalid loan id", err)
		return uuid.Nil, false
	}
	return id, true
}

func writeBusinessError(w http.ResponseWriter, err error) {
	var be *customError.BusinessError
	if !errors.As(err, &be) {
		response.InternalServerError(w, "unexpected error", err)
		return
	}

	switch be.Code {
	case customError.ErrCodeInvalidRequest:
		response.BadRequest(w, be.Message, be.Err)
	case customError.ErrCodeLoanNotFound, customError.ErrCodeRepaymentNotFound:
		response.NotFound(w, be.Message)
	case customError.ErrCodeInvalidTransition:
		response.Conflict(w, be.Message, be.Err)
	default:
		response.InternalServerError(w, be.Message, be.Err)
	}
}
