package domain

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	err := NewError(ErrCodeNotFound, "Session not found", http.StatusNotFound)
	assert.Equal(t, "[NOT_FOUND] Session not found", err.Error())

	err.WithCause(errors.New("id: 123"))
	assert.Equal(t, "[NOT_FOUND] Session not found: id: 123", err.Error())
}

func TestAppError_UnwrapAndIs(t *testing.T) {
	inner := errors.New("connection reset")
	err := ErrDatabase(inner)

	assert.ErrorIs(t, err, inner)
	assert.ErrorIs(t, fmt.Errorf("saving case: %w", err), &AppError{Code: ErrCodeDatabase})
	assert.NotErrorIs(t, err, &AppError{Code: ErrCodeTimeout})

	appErr, ok := AsAppError(fmt.Errorf("wrapped: %w", err))
	require.True(t, ok)
	assert.Equal(t, ErrCodeDatabase, appErr.Code)

	_, ok = AsAppError(inner)
	assert.False(t, ok)
}

func TestAppError_Builders(t *testing.T) {
	err := NewError("TEST", "Test error", http.StatusBadRequest).
		WithDetails("Additional details").
		WithMetadata("key", "value").
		WithRetry(3 * time.Second)

	assert.Equal(t, "Additional details", err.Details)
	assert.Equal(t, "value", err.Metadata["key"])
	assert.True(t, err.Retryable)
	assert.Equal(t, 3*time.Second, err.RetryAfter)
	assert.False(t, err.Timestamp.IsZero())
}

func TestAppErrorConstructors(t *testing.T) {
	cause := errors.New("boom")

	tests := []struct {
		name      string
		err       *AppError
		code      string
		status    int
		retryable bool
	}{
		{"validation field", ErrValidationField("hours", "Hours must be positive"), ErrCodeValidation, http.StatusBadRequest, false},
		{"not found", ErrNotFound("session", "abc"), ErrCodeNotFound, http.StatusNotFound, false},
		{"unauthorized", ErrUnauthorized(""), ErrCodeUnauthorized, http.StatusUnauthorized, false},
		{"rate limited", ErrRateLimited(time.Minute), ErrCodeRateLimited, http.StatusTooManyRequests, true},
		{"payload too large", ErrPayloadTooLarge(1024), ErrCodePayloadTooLarge, http.StatusRequestEntityTooLarge, false},
		{"internal", ErrInternal(""), ErrCodeInternal, http.StatusInternalServerError, false},
		{"database", ErrDatabase(cause), ErrCodeDatabase, http.StatusInternalServerError, false},
		{"timeout", ErrTimeout("scrape"), ErrCodeTimeout, http.StatusGatewayTimeout, true},
		{"service unavailable", ErrServiceUnavailable("temporal"), ErrCodeServiceUnavail, http.StatusServiceUnavailable, true},
		{"no elements", ErrNoElements(), ErrCodeNoElements, http.StatusUnprocessableEntity, false},
		{"parse failure", ErrParseFailure(cause), ErrCodeParseFailure, http.StatusUnprocessableEntity, false},
		{"fetch failed", ErrFetchFailed("Could not reach the page.", cause), ErrCodeFetchFailed, http.StatusBadGateway, false},
		{"healing failed", ErrHealingFailed("no candidate", nil), ErrCodeHealingFailed, http.StatusUnprocessableEntity, false},
		{"extraction failed", ErrExtractionFailed("empty document", nil), ErrCodeExtractionFailed, http.StatusUnprocessableEntity, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.status, tt.err.HTTPStatus)
			assert.Equal(t, tt.status, GetHTTPStatus(tt.err))
			assert.Equal(t, tt.code, GetErrorCode(tt.err))
			assert.Equal(t, tt.retryable, tt.err.Retryable)
			assert.NotEmpty(t, tt.err.Message)
		})
	}
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "Authentication required", ErrUnauthorized("").Message)
	assert.Equal(t, "Internal server error", ErrInternal("").Message)
	assert.Equal(t, "session not found: abc", ErrNotFound("session", "abc").Message)
	assert.Equal(t, "Payload exceeds 1024 bytes", ErrPayloadTooLarge(1024).Message)
	assert.Equal(t, "hours", ErrValidationField("hours", "bad").Metadata["field"])
	assert.Equal(t, "No interactable elements could be found in the provided HTML.", ErrNoElements().Message)
	assert.Equal(t, "Locator healing failed: no candidate", ErrHealingFailed("no candidate", nil).Message)
	assert.Equal(t, "temporal", ErrServiceUnavailable("temporal").Metadata["service"])
	assert.Equal(t, 30*time.Second, ErrServiceUnavailable("temporal").RetryAfter)
}

func TestGetHTTPStatus_PlainError(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, GetHTTPStatus(errors.New("plain")))
	assert.Equal(t, ErrCodeInternal, GetErrorCode(errors.New("plain")))
}

func TestDomainErrors(t *testing.T) {
	tests := []struct {
		name  string
		err   *DomainError
		code  string
		check func(error) bool
	}{
		{"not found", NotFoundError("device", "d-1"), ErrCodeNotFound, IsNotFoundError},
		{"already exists", AlreadyExistsError("device", "serial", "SN-1"), ErrCodeConflict, IsAlreadyExistsError},
		{"validation", ValidationError("hours", "Hours must be positive"), ErrCodeValidation, IsValidationError},
		{"invalid state", InvalidStateError("session", "Completed", "Session is completed"), ErrCodeInvalidState, func(err error) bool {
			return errors.Is(err, ErrInvalidStateVal)
		}},
		{"conflict", ConflictError("device", "Device is already checked out"), ErrCodeConflict, func(err error) bool {
			return errors.Is(err, ErrConflictVal)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.code, GetErrorCode(fmt.Errorf("ctx: %w", tt.err)))
			assert.True(t, tt.check(fmt.Errorf("ctx: %w", tt.err)))
			assert.Contains(t, tt.err.Error(), "["+tt.code+"]")
		})
	}

	assert.False(t, IsNotFoundError(ValidationError("f", "m")))
	assert.False(t, IsAlreadyExistsError(ConflictError("device", "busy")))
	assert.False(t, IsValidationError(errors.New("plain")))
}

func TestDomainError_Details(t *testing.T) {
	nf := NotFoundError("session", "123")
	assert.Equal(t, "session not found: 123", nf.Message)
	assert.Equal(t, map[string]any{"resource": "session", "id": "123"}, nf.Details)

	ae := AlreadyExistsError("device", "serial", "SN-1")
	assert.Equal(t, "device with serial 'SN-1' already exists", ae.Message)

	st := InvalidStateError("session", SessionCompleted, "Session is completed")
	assert.Equal(t, SessionCompleted, st.Details["state"])
}
