package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to an HTTP response shaped
// per the error taxonomy: {"error": {"code", "message", "details"}}.
type AppError struct {
	Code       string      `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	HTTPStatus int         `json:"-"`
	Err        error       `json:"-"` // Wrapped internal error, never exposed to the client
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
func New(code, message string, httpStatus int) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: httpStatus}
}

// WithDetails attaches a details object and returns the same AppError.
func (e *AppError) WithDetails(details interface{}) *AppError {
	e.Details = details
	return e
}

// Wrap wraps an internal error with an AppError.
func Wrap(code, message string, httpStatus int, err error) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: httpStatus, Err: err}
}

// ---- Validation ----

func ErrValidation(message string) *AppError {
	return New("validation_error", message, http.StatusBadRequest)
}

func ErrCurrencyMismatch() *AppError {
	return New("currency_mismatch", "request currency does not match account currency", http.StatusBadRequest)
}

// ---- Authentication ----

func ErrInvalidAPIKey() *AppError {
	return New("invalid_api_key", "invalid or expired API key", http.StatusUnauthorized)
}

// ErrInvalidCredentials covers admin dashboard login failures. The login
// surface is an ambient addition alongside the spec's API-key taxonomy,
// so it gets its own code rather than overloading invalid_api_key.
func ErrInvalidCredentials() *AppError {
	return New("invalid_credentials", "invalid email or password", http.StatusUnauthorized)
}

// ErrInvalidSession covers admin session JWT validation failures.
func ErrInvalidSession() *AppError {
	return New("invalid_session", "invalid or expired session", http.StatusUnauthorized)
}

// ---- Not found ----

func ErrNotFound(entity string) *AppError {
	return New("not_found", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

func ErrAccountNotFound() *AppError {
	return New("account_not_found", "account not found", http.StatusNotFound)
}

func ErrBusinessNotFound() *AppError {
	return New("business_not_found", "business not found", http.StatusNotFound)
}

func ErrTransactionNotFound() *AppError {
	return New("transaction_not_found", "transaction not found", http.StatusNotFound)
}

// ---- Conflict ----

func ErrIdempotencyConflict() *AppError {
	return New("idempotency_conflict", "a concurrent request with the same idempotency key is already being processed", http.StatusConflict)
}

// ---- Business rules ----

func ErrInsufficientFunds(available, requested string) *AppError {
	return New("insufficient_funds", "available balance is lower than the requested amount", http.StatusUnprocessableEntity).
		WithDetails(map[string]string{"available": available, "requested": requested})
}

// ---- Rate limiting ----

func ErrRateLimitExceeded() *AppError {
	return New("rate_limit_exceeded", "rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System ----

func ErrDatabase(err error) *AppError {
	return Wrap("database_error", "internal database error", http.StatusInternalServerError, err)
}

func ErrSerialization(err error) *AppError {
	return Wrap("serialization_error", "could not serialize transaction state", http.StatusInternalServerError, err)
}

// InternalError wraps an unexpected error as internal_error / 500.
func InternalError(err error) *AppError {
	return Wrap("internal_error", "internal server error", http.StatusInternalServerError, err)
}
