package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/stock247/lending-engine/internal/config"
	"github.com/stock247/lending-engine/internal/domain"
	"github.com/stock247/lending-engine/internal/gateway"
	"github.com/stock247/lending-engine/internal/notify"
	"github.com/stock247/lending-engine/internal/repository"
	customError "github.com/stock247/lending-engine/pkg/errors"
	"github.com/stock247/lending-engine/pkg/phone"
)

// settleLockTTL bounds how long a callback may hold the per-repayment
// lock before a crashed handler stops blocking retries.
const settleLockTTL = 30 * time.Second

// PushGateway starts an STK push payment. Implemented by gateway.Client.
type PushGateway interface {
	StkPush(ctx context.Context, phone string, amount decimal.Decimal, accountRef string) (*gateway.PushResult, error)
}

// SettlementService owns the repayment lifecycle: initiation, callback
// reconciliation, and the loan-completion cascade.
type SettlementService struct {
	RepaymentRepo    repository.RepaymentRepository
	LoanRepo         repository.LoanRepository
	DisbursementRepo repository.DisbursementRepository
	AuditRepo        repository.AuditRepository
	Gateway          PushGateway
	SMS              notify.Sender
	redis            *redis.Client
	config           *config.Config
}

func NewSettlementService(
	repaymentRepo repository.RepaymentRepository,
	loanRepo repository.LoanRepository,
	disbursementRepo repository.DisbursementRepository,
	auditRepo repository.AuditRepository,
	pushGateway PushGateway,
	sms notify.Sender,
	redisClient *redis.Client,
	cfg *config.Config,
) *SettlementService {
	return &SettlementService{
		RepaymentRepo:    repaymentRepo,
		LoanRepo:         loanRepo,
		DisbursementRepo: disbursementRepo,
		AuditRepo:        auditRepo,
		Gateway:          pushGateway,
		SMS:              sms,
		redis:            redisClient,
		config:           cfg,
	}
}

// InitiateRepayment validates the request, normalizes the phone number,
// attempts a real STK push when credentials are configured, and persists
// a pending Repayment keyed by the (real or synthesized) checkout
// request id. Gateway failure degrades to the demo path rather than
// aborting, so a borrower's repayment attempt is never blocked by
// gateway flakiness.
func (s *SettlementService) InitiateRepayment(ctx context.Context, req *domain.InitiateRepaymentRequest) (*domain.InitiateRepaymentResponse, error) {
	if req.UserID == "" || req.LoanID == "" || req.Phone == "" {
		return nil, customError.WrapInvalidRequest("user_id, loan_id, amount and phone are required")
	}

	// Minor-currency-unit floor.
	if req.Amount.LessThan(decimal.NewFromInt(1)) {
		return nil, customError.WrapInvalidRequest("amount must be at least 1")
	}

	loanID, err := uuid.Parse(req.LoanID)
	if err != nil {
		return nil, customError.WrapInvalidRequest("loan_id is not a valid id")
	}

	normalized, err := phone.Normalize(req.Phone, s.config.Business.CountryCode)
	if err != nil {
		return nil, customError.WrapInvalidRequest(err.Error())
	}

	repayment := &domain.Repayment{
		ID:        uuid.New(),
		UserID:    req.UserID,
		LoanID:    loanID,
		Amount:    req.Amount,
		Phone:     normalized,
		Status:    domain.PaymentStatusPending,
		CreatedAt: time.Now(),
	}

	demoMode := true
	if s.config.GatewayConfigured() && s.Gateway != nil {
		result, pushErr := s.Gateway.StkPush(ctx, normalized, req.Amount, accountReference(loanID))
		if pushErr != nil {
			// Degraded path: the gateway was configured but unreachable.
			log.Printf("WARN stk push degraded to demo path for loan %s: %v", loanID, pushErr)
		} else {
			repayment.CheckoutRequestID = result.CheckoutRequestID
			repayment.MerchantRequestID = result.MerchantRequestID
			demoMode = false
		}
	}

	if demoMode {
		repayment.CheckoutRequestID = fmt.Sprintf("DEMO-%d-%s", time.Now().UnixNano(), uuid.NewString()[:8])
		repayment.MerchantRequestID = "DEMO-" + uuid.NewString()[:8]
	}

	if err := s.RepaymentRepo.Create(ctx, repayment); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	path := "stk_push"
	if demoMode {
		path = "demo"
	}
	s.audit(ctx, domain.AuditRepaymentInitiated, loanID, req.UserID, fmt.Sprintf(
		`{"path":%q,"amount":%q,"phone":%q,"checkout_request_id":%q}`,
		path, req.Amount.String(), normalized, repayment.CheckoutRequestID,
	))

	message := "Payment request sent. Enter your PIN on your phone to complete the payment."
	if demoMode {
		if s.config.GatewayConfigured() {
			// Degraded path: a real gateway exists, so the repayment
			// must stay pending until a genuine callback arrives.
			// Auto-completion here would credit money nobody paid.
			message = "Payment request could not be sent right now. Your repayment is recorded and pending."
		} else {
			message = "Demo mode: payment will complete automatically shortly."
			s.scheduleDemoCompletion(repayment.CheckoutRequestID)
		}
	}

	return &domain.InitiateRepaymentResponse{
		Success:           true,
		Message:           message,
		RepaymentID:       repayment.ID.String(),
		CheckoutRequestID: repayment.CheckoutRequestID,
	}, nil
}

// scheduleDemoCompletion arms the demo auto-completion timer. It is
// armed only when no real gateway credentials are configured, and goes
// through the same conditional update as a real callback, so a
// repayment already finalized by other means makes the timer a no-op.
func (s *SettlementService) scheduleDemoCompletion(checkoutRequestID string) {
	delay := s.config.GetDemoCompleteDelay()
	if delay <= 0 {
		return
	}

	time.AfterFunc(delay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if _, err := s.SimulateCallback(ctx, checkoutRequestID, 0); err != nil {
			log.Printf("demo auto-completion for %s failed: %v", checkoutRequestID, err)
		}
	})
}

// SimulateCallback feeds a synthesized gateway callback through the
// reconciler. It backs the demo auto-completion timer and gives tests a
// deterministic entrypoint instead of a real timer.
func (s *SettlementService) SimulateCallback(ctx context.Context, checkoutRequestID string, resultCode int) (*domain.SettlementResult, error) {
	cb := domain.STKCallback{
		CheckoutRequestID: checkoutRequestID,
		MerchantRequestID: "DEMO-" + checkoutRequestID,
		ResultCode:        resultCode,
		ResultDesc:        "Simulated callback",
	}
	if resultCode == 0 {
		cb.CallbackMetadata = &domain.CallbackMetadata{Item: []domain.CallbackItem{
			{Name: "MpesaReceiptNumber", Value: fmt.Sprintf("DEMO%d", time.Now().Unix())},
		}}
	}
	return s.HandleCallback(ctx, cb)
}

// HandleCallback finalizes exactly one Repayment from the gateway's
// asynchronous payment result. Finalization is serialized per repayment
// by a redis lock plus a conditional status update, so a duplicated
// callback credits the loan exactly once.
func (s *SettlementService) HandleCallback(ctx context.Context, cb domain.STKCallback) (*domain.SettlementResult, error) {
	repayment, err := s.RepaymentRepo.GetByCheckoutRequestID(ctx, cb.CheckoutRequestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Stale or forged callback: a genuine error, no mutation.
			return nil, customError.WrapRepaymentNotFound(cb.CheckoutRequestID)
		}
		return nil, customError.WrapDatabaseError(err)
	}

	if acquired := s.acquireLock(ctx, repayment.ID); !acquired {
		// A concurrent delivery for the same repayment is already
		// finalizing; this one is a safe no-op.
		return &domain.SettlementResult{RepaymentID: repayment.ID, LoanID: repayment.LoanID, Duplicate: true}, nil
	}
	defer s.releaseLock(ctx, repayment.ID)

	if cb.ResultCode != 0 {
		return s.settleFailure(ctx, repayment, cb)
	}
	return s.settleSuccess(ctx, repayment, cb)
}

func (s *SettlementService) settleSuccess(ctx context.Context, repayment *domain.Repayment, cb domain.STKCallback) (*domain.SettlementResult, error) {
	details := cb.Details()
	now := time.Now()

	// The gateway's metadata carries the amount actually transacted;
	// it governs unless the payload omitted it.
	amount := details.Amount
	if amount.IsZero() {
		amount = repayment.Amount
	}

	changed, err := s.RepaymentRepo.MarkPaid(ctx, repayment.ID, details.Receipt, now)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	if !changed {
		// Already finalized; duplicate delivery.
		return &domain.SettlementResult{RepaymentID: repayment.ID, LoanID: repayment.LoanID, Duplicate: true}, nil
	}

	totalPaid, err := s.RepaymentRepo.TotalPaid(ctx, repayment.LoanID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	totalDue, err := s.totalDue(ctx, repayment)
	if err != nil {
		return nil, err
	}

	result := &domain.SettlementResult{
		RepaymentID: repayment.ID,
		LoanID:      repayment.LoanID,
		Receipt:     details.Receipt,
		Amount:      amount,
		Phone:       repayment.Phone,
		TotalPaid:   totalPaid,
		TotalDue:    totalDue,
	}

	var cascadeErr error
	if totalPaid.GreaterThanOrEqual(totalDue) {
		// One-way transition: the conditional update keeps an already
		// completed loan untouched.
		completed, err := s.LoanRepo.TransitionStatus(ctx, repayment.LoanID, domain.LoanStatusDisbursed, domain.LoanStatusCompleted)
		if err != nil {
			cascadeErr = err
		} else if completed {
			result.LoanCompleted = true
		}
		if err := s.DisbursementRepo.CompleteRepayment(ctx, repayment.LoanID); err != nil && cascadeErr == nil {
			cascadeErr = err
		}
	}

	// The audit entry is written regardless of cascade outcome.
	s.audit(ctx, domain.AuditRepaymentSettled, repayment.LoanID, repayment.UserID, fmt.Sprintf(
		`{"receipt":%q,"amount":%q,"phone":%q,"total_paid":%q,"total_due":%q,"loan_completed":%t}`,
		details.Receipt, amount.String(), repayment.Phone,
		totalPaid.String(), totalDue.String(), result.LoanCompleted,
	))

	if cascadeErr != nil {
		return nil, customError.WrapDatabaseError(cascadeErr)
	}

	s.notifySettled(repayment, result)

	return result, nil
}

func (s *SettlementService) settleFailure(ctx context.Context, repayment *domain.Repayment, cb domain.STKCallback) (*domain.SettlementResult, error) {
	changed, err := s.RepaymentRepo.MarkFailed(ctx, repayment.ID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	if !changed {
		return &domain.SettlementResult{RepaymentID: repayment.ID, LoanID: repayment.LoanID, Duplicate: true}, nil
	}

	s.audit(ctx, domain.AuditRepaymentFailed, repayment.LoanID, repayment.UserID, fmt.Sprintf(
		`{"result_code":%d,"result_desc":%q,"amount":%q}`,
		cb.ResultCode, cb.ResultDesc, repayment.Amount.String(),
	))

	s.notifyFailed(repayment, cb.ResultDesc)

	return &domain.SettlementResult{
		RepaymentID: repayment.ID,
		LoanID:      repayment.LoanID,
		Amount:      repayment.Amount,
		Phone:       repayment.Phone,
	}, nil
}

// totalDue resolves the authoritative total from the governing
// disbursement. A repayment with no disbursement row is a
// data-consistency problem; the flat-interest fallback keeps settlement
// moving but is logged loudly.
func (s *SettlementService) totalDue(ctx context.Context, repayment *domain.Repayment) (decimal.Decimal, error) {
	disbursement, err := s.DisbursementRepo.GetByApplicationID(ctx, repayment.LoanID)
	if err == nil {
		return disbursement.RepaymentAmount, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, customError.WrapDatabaseError(err)
	}

	log.Printf("WARN loan %s has paid repayments but no disbursement row, falling back to flat-interest total", repayment.LoanID)

	multiplier := decimal.NewFromInt(1).Add(s.config.GetFlatInterestRate())
	loan, err := s.LoanRepo.GetByID(ctx, repayment.LoanID)
	if err != nil {
		// Last resort: derive the total from this repayment's own amount.
		return repayment.Amount.Mul(multiplier).Round(2), nil
	}
	return loan.LoanAmount.Mul(multiplier).Round(2), nil
}

// notifySettled runs strictly after persistence has settled; failures
// are swallowed so the callback acknowledgment never depends on the SMS
// gateway.
func (s *SettlementService) notifySettled(repayment *domain.Repayment, result *domain.SettlementResult) {
	if s.SMS == nil {
		return
	}

	var text string
	if result.LoanCompleted {
		text = fmt.Sprintf("Payment of KES %s received (receipt %s). Your Stock 24/7 loan is now fully repaid. Thank you!",
			result.Amount.StringFixed(2), result.Receipt)
	} else {
		balance := result.TotalDue.Sub(result.TotalPaid)
		text = fmt.Sprintf("Payment of KES %s received (receipt %s). Outstanding balance: KES %s.",
			result.Amount.StringFixed(2), result.Receipt, balance.StringFixed(2))
	}

	s.sendSMS(notify.Message{
		Phone:            repayment.Phone,
		Message:          text,
		ApplicationID:    repayment.LoanID.String(),
		NotificationType: notificationType(result.LoanCompleted),
	})
}

func (s *SettlementService) notifyFailed(repayment *domain.Repayment, reason string) {
	if s.SMS == nil {
		return
	}

	s.sendSMS(notify.Message{
		Phone:            repayment.Phone,
		Message:          fmt.Sprintf("Your payment of KES %s could not be completed: %s. Please try again.", repayment.Amount.StringFixed(2), reason),
		ApplicationID:    repayment.LoanID.String(),
		NotificationType: notify.TypeRepaymentFailed,
	})
}

func (s *SettlementService) sendSMS(msg notify.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.SMS.Send(ctx, msg); err != nil {
		log.Printf("sms notification to %s failed: %v", msg.Phone, err)
	}
}

// audit appends a compensating-log entry; a failed write is logged but
// never unwinds the settlement result.
func (s *SettlementService) audit(ctx context.Context, action string, loanID uuid.UUID, actor, details string) {
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

// acquireLock serializes callback finalization per repayment. Redis
// being down degrades to relying on the conditional update alone.
func (s *SettlementService) acquireLock(ctx context.Context, repaymentID uuid.UUID) bool {
	if s.redis == nil {
		return true
	}

	ok, err := s.redis.SetNX(ctx, settleLockKey(repaymentID), 1, settleLockTTL).Result()
	if err != nil {
		log.Printf("settlement lock for %s unavailable, relying on conditional update: %v", repaymentID, err)
		return true
	}
	return ok
}

func (s *SettlementService) releaseLock(ctx context.Context, repaymentID uuid.UUID) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Del(ctx, settleLockKey(repaymentID)).Err(); err != nil {
		log.Printf("settlement lock release for %s failed: %v", repaymentID, err)
	}
}

func settleLockKey(repaymentID uuid.UUID) string {
	return "settle:" + repaymentID.String()
}

func accountReference(loanID uuid.UUID) string {
	return "STOCK247-" + loanID.String()[:8]
}

func notificationType(completed bool) string {
	if completed {
		return notify.TypeLoanCompleted
	}
	return notify.TypeRepaymentReceived
}
