package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is a structured error carrying a stable code, a human message,
// an HTTP status for the admin surface, and a retryability hint.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Retryable  bool   `json:"retryable"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to callers)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// IsCode reports whether err is (or wraps) an AppError with the given code.
func IsCode(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// IsRetryable reports whether the caller may retry the failed operation.
// Safety rejections and ledger invariant violations are never retryable.
func IsRetryable(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Retryable
	}
	return false
}

// ---- Ledger (VAULT) ----

func ErrInvalidAmount() *AppError {
	return New(CodeInvalidAmount, "Amount must be greater than zero", http.StatusBadRequest)
}

func ErrInsufficientShares() *AppError {
	return New(CodeInsufficientShares, "Share balance is insufficient", http.StatusUnprocessableEntity)
}

func ErrNoActiveStrategy() *AppError {
	return New(CodeNoActiveStrategy, "No strategy adapter is active", http.StatusConflict)
}

func ErrInvalidStrategy(id string) *AppError {
	return New(CodeInvalidStrategy, fmt.Sprintf("Strategy %q is not registered", id), http.StatusBadRequest)
}

func ErrWithdrawalFailed(err error) *AppError {
	return Wrap(CodeWithdrawalFailed, "Adapter returned less than the computed withdrawal amount", http.StatusBadGateway, err)
}

// ---- Strategy adapter boundary (STRAT) ----

// ErrProtocolError wraps an opaque failure from a wrapped yield protocol.
// transient marks failures that a caller may retry with backoff.
func ErrProtocolError(err error, transient bool) *AppError {
	e := Wrap(CodeProtocolError, "Underlying protocol call failed", http.StatusBadGateway, err)
	e.Retryable = transient
	return e
}

func ErrInsufficientLiquidity() *AppError {
	e := New(CodeInsufficientLiquidity, "Protocol cannot honor the full redemption", http.StatusConflict)
	e.Retryable = true
	return e
}

func ErrRebalanceFailed(err error) *AppError {
	return Wrap(CodeRebalanceFailed, "Rebalance aborted, no capital moved", http.StatusBadGateway, err)
}

func ErrStrategyHoldsFunds(id string) *AppError {
	return New(CodeInvalidStrategy, fmt.Sprintf("Strategy %q still holds assets and cannot be deregistered", id), http.StatusConflict)
}

// ---- Safety envelope (SAFE) ----

func ErrBlacklisted(actor string) *AppError {
	return New(CodeBlacklisted, fmt.Sprintf("Actor %s is blacklisted", actor), http.StatusForbidden)
}

func ErrLimitsExceeded(reason string) *AppError {
	return New(CodeLimitsExceeded, reason, http.StatusUnprocessableEntity)
}

func ErrRoleNotAuthorized(actor string) *AppError {
	return New(CodeRoleNotAuthorized, fmt.Sprintf("Actor %s lacks the required role", actor), http.StatusForbidden)
}

func ErrAlreadyExecuted() *AppError {
	return New(CodeAlreadyExecuted, "Proposal has already been executed", http.StatusConflict)
}

func ErrPaused() *AppError {
	return New(CodePaused, "Capital-moving operations are paused", http.StatusServiceUnavailable)
}

func ErrProposalNotFound(id string) *AppError {
	return New(CodeProposalNotFound, fmt.Sprintf("Proposal %s not found", id), http.StatusNotFound)
}

func ErrProposalExpired() *AppError {
	return New(CodeProposalExpired, "Proposal deadline has passed", http.StatusGone)
}

func ErrReportNotFound(id string) *AppError {
	return New(CodeReportNotFound, fmt.Sprintf("Report %s not found", id), http.StatusNotFound)
}

// ---- Authentication (AUTH) ----

func ErrInvalidCredentials() *AppError {
	return New(CodeInvalidCredentials, "Invalid credentials", http.StatusUnauthorized)
}

func ErrInvalidToken() *AppError {
	return New(CodeInvalidToken, "Invalid or expired token", http.StatusUnauthorized)
}

// ---- System & Infrastructure (SYS) ----

func ErrDatabaseError(err error) *AppError {
	return Wrap(CodeDatabase, "Internal database error", http.StatusInternalServerError, err)
}

// InternalError wraps an internal error as a SYS_002 error.
func InternalError(err error) *AppError {
	return Wrap(CodeInternal, "Internal server error", http.StatusInternalServerError, err)
}

// Validation returns a VAULT_001-style validation error with a custom message.
func Validation(message string) *AppError {
	return New(CodeInvalidAmount, message, http.StatusBadRequest)
}
