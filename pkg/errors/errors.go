package errors

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrInvalidRequest     = errors.New("invalid request")
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	ErrRepaymentNotFound  = errors.New("repayment not found")
	ErrLoanNotFound       = errors.New("loan application not found")
	ErrInvalidTransition  = errors.New("invalid loan status transition")
	ErrNotification       = errors.New("notification failed")
)

// BusinessError represents a business logic error
type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

// NewBusinessError creates a new business error
func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Error codes
const (
	ErrCodeInvalidRequest     = "INVALID_REQUEST"
	ErrCodeGatewayUnavailable = "GATEWAY_UNAVAILABLE"
	ErrCodeRepaymentNotFound  = "REPAYMENT_NOT_FOUND"
	ErrCodeLoanNotFound       = "LOAN_NOT_FOUND"
	ErrCodeInvalidTransition  = "INVALID_TRANSITION"
	ErrCodeDatabaseError      = "DATABASE_ERROR"
	ErrCodeNotificationError  = "NOTIFICATION_ERROR"
	ErrCodeRiskParseError     = "RISK_PARSE_ERROR"
)

// Wrap common errors with business context

func WrapInvalidRequest(reason string) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidRequest,
		reason,
		ErrInvalidRequest,
	)
}

func WrapGatewayUnavailable(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeGatewayUnavailable,
		"payment gateway request failed",
		err,
	)
}

func WrapRepaymentNotFound(checkoutRequestID string) *BusinessError {
	return NewBusinessError(
		ErrCodeRepaymentNotFound,
		fmt.Sprintf("no repayment matches checkout request %s", checkoutRequestID),
		ErrRepaymentNotFound,
	)
}

func WrapLoanNotFound(loanID string) *BusinessError {
	return NewBusinessError(
		ErrCodeLoanNotFound,
		fmt.Sprintf("loan application %s not found", loanID),
		ErrLoanNotFound,
	)
}

func WrapInvalidTransition(from, to string) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidTransition,
		fmt.Sprintf("cannot transition loan from %s to %s", from, to),
		ErrInvalidTransition,
	)
}

func WrapDatabaseError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeDatabaseError,
		"database operation failed",
		err,
	)
}

func WrapNotificationError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeNotificationError,
		"notification send failed",
		err,
	)
}

// IsCode reports whether err is a BusinessError carrying the given code.
func IsCode(err error, code string) bool {
	var be *BusinessError
	if errors.As(err, &be) {
		return be.Code == code
	}
	return false
}
