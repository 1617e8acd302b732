package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string                 `json:"error_code"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	HTTPStatus int                    `json:"-"`
	Err        error                  `json:"-"` // Wrapped internal error (not exposed to client)
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

// Is matches another *AppError by code, so callers can use errors.Is with a
// freshly constructed sentinel such as ErrOTPNotFound().
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
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

// WithDetail returns a copy of e carrying an extra client-visible detail.
func (e *AppError) WithDetail(key string, value interface{}) *AppError {
	cp := *e
	cp.Details = make(map[string]interface{}, len(e.Details)+1)
	for k, v := range e.Details {
		cp.Details[k] = v
	}
	cp.Details[key] = value
	return &cp
}

// ---- One-time codes (OTP) ----

func ErrInvalidIdentifierFormat() *AppError {
	return New("OTP_001", "Phone number must be in international format (+ and 2-15 digits)", http.StatusBadRequest)
}

func ErrDeliveryUnavailable() *AppError {
	return New("OTP_002", "Verification code could not be delivered", http.StatusServiceUnavailable)
}

// ErrOTPNotFound means no code was ever sent (or it was already consumed); the client should offer resend.
func ErrOTPNotFound() *AppError {
	return New("OTP_003", "No pending verification for this phone number", http.StatusNotFound)
}

func ErrOTPExpired() *AppError {
	return New("OTP_004", "Verification code expired", http.StatusGone)
}

func ErrOTPAttemptsExhausted() *AppError {
	return New("OTP_005", "Too many incorrect attempts", http.StatusTooManyRequests)
}

// ErrOTPInvalidCode means a code was sent but the submitted one does not match; the client should offer re-entry.
func ErrOTPInvalidCode(attemptsRemaining int) *AppError {
	return New("OTP_006", "Incorrect verification code", http.StatusUnauthorized).
		WithDetail("attempts_remaining", attemptsRemaining)
}

// ---- Sessions (SESSION) ----

func ErrSessionNotFound() *AppError {
	return New("SESSION_001", "No active session", http.StatusUnauthorized)
}

// ---- Wallet & bookings (WAL) ----

func ErrInsufficientFunds() *AppError {
	return New("WAL_001", "Insufficient balance in wallet", http.StatusPaymentRequired)
}

func ErrBookingInFlight() *AppError {
	return New("WAL_002", "Booking is already being processed", http.StatusConflict)
}

func ErrBookingRejected(err error) *AppError {
	return Wrap("WAL_003", "Booking was not confirmed", http.StatusBadGateway, err)
}

func ErrInvalidAmount() *AppError {
	return New("WAL_004", "Invalid amount", http.StatusBadRequest)
}

func ErrNotFound(entity string) *AppError {
	return New("WAL_005", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

// ---- Authentication (AUTH) ----

func ErrInvalidToken() *AppError {
	return New("AUTH_003", "Invalid or expired token", http.StatusUnauthorized)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

func ErrDatabaseError(err error) *AppError {
	return Wrap("SYS_001", "Internal database error", http.StatusInternalServerError, err)
}

func ErrLockTimeout(err error) *AppError {
	return Wrap("SYS_002", "Lock acquisition timeout", http.StatusServiceUnavailable, err)
}

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

// Validation returns a request validation error.
func Validation(message string) *AppError {
	return New("REQ_001", message, http.StatusBadRequest)
}
