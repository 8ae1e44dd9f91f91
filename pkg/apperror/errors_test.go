package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name:     "without wrapped error",
			appErr:   New("validation_error", "amount must be positive", http.StatusBadRequest),
			expected: "[validation_error] amount must be positive",
		},
		{
			name:     "with wrapped error",
			appErr:   Wrap("database_error", "DB error", http.StatusInternalServerError, fmt.Errorf("connection refused")),
			expected: "[database_error] DB error: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.appErr.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	inner := fmt.Errorf("inner error")
	appErr := Wrap("database_error", "wrapped", http.StatusInternalServerError, inner)

	assert.True(t, errors.Is(appErr, inner))
}

func TestAppError_IsNilUnwrap(t *testing.T) {
	appErr := New("validation_error", "test", http.StatusBadRequest)
	assert.Nil(t, appErr.Unwrap())
}

func TestValidationErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		code       string
		httpStatus int
	}{
		{"Validation", ErrValidation("amount must be positive"), "validation_error", 400},
		{"CurrencyMismatch", ErrCurrencyMismatch(), "currency_mismatch", 400},
		{"InvalidAPIKey", ErrInvalidAPIKey(), "invalid_api_key", 401},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.httpStatus, tt.err.HTTPStatus)
		})
	}
}

func TestNotFoundErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		code       string
		httpStatus int
	}{
		{"Generic", ErrNotFound("business"), "not_found", 404},
		{"Account", ErrAccountNotFound(), "account_not_found", 404},
		{"Business", ErrBusinessNotFound(), "business_not_found", 404},
		{"Transaction", ErrTransactionNotFound(), "transaction_not_found", 404},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.httpStatus, tt.err.HTTPStatus)
		})
	}
}

func TestInsufficientFundsDetails(t *testing.T) {
	err := ErrInsufficientFunds("50.0000", "100.0000")
	assert.Equal(t, "insufficient_funds", err.Code)
	assert.Equal(t, http.StatusUnprocessableEntity, err.HTTPStatus)
	assert.Equal(t, map[string]string{"available": "50.0000", "requested": "100.0000"}, err.Details)
}

func TestIdempotencyConflict(t *testing.T) {
	err := ErrIdempotencyConflict()
	assert.Equal(t, "idempotency_conflict", err.Code)
	assert.Equal(t, http.StatusConflict, err.HTTPStatus)
}

func TestRateLimitError(t *testing.T) {
	err := ErrRateLimitExceeded()
	assert.Equal(t, "rate_limit_exceeded", err.Code)
	assert.Equal(t, 429, err.HTTPStatus)
}

func TestSystemErrors(t *testing.T) {
	inner := fmt.Errorf("pg: connection closed")

	dbErr := ErrDatabase(inner)
	assert.Equal(t, "database_error", dbErr.Code)
	assert.Equal(t, 500, dbErr.HTTPStatus)
	assert.True(t, errors.Is(dbErr, inner))

	serErr := ErrSerialization(inner)
	assert.Equal(t, "serialization_error", serErr.Code)
	assert.Equal(t, 500, serErr.HTTPStatus)

	intErr := InternalError(inner)
	assert.Equal(t, "internal_error", intErr.Code)
	assert.Equal(t, 500, intErr.HTTPStatus)
}
