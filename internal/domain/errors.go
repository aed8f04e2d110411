package domain

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Error codes for categorization
const (
	// Client errors (4xx)
	ErrCodeValidation      = "VALIDATION_ERROR"
	ErrCodeNotFound        = "NOT_FOUND"
	ErrCodeConflict        = "CONFLICT"
	ErrCodeUnauthorized    = "UNAUTHORIZED"
	ErrCodeRateLimited     = "RATE_LIMITED"
	ErrCodeBadRequest      = "BAD_REQUEST"
	ErrCodePayloadTooLarge = "PAYLOAD_TOO_LARGE"
	ErrCodeInvalidState    = "INVALID_STATE"

	// Server errors (5xx)
	ErrCodeInternal       = "INTERNAL_ERROR"
	ErrCodeDatabase       = "DATABASE_ERROR"
	ErrCodeTimeout        = "TIMEOUT_ERROR"
	ErrCodeServiceUnavail = "SERVICE_UNAVAILABLE"

	// Locator and extraction errors
	ErrCodeNoElements       = "NO_ELEMENTS"
	ErrCodeParseFailure     = "PARSE_FAILURE"
	ErrCodeFetchFailed      = "FETCH_FAILED"
	ErrCodeHealingFailed    = "HEALING_FAILED"
	ErrCodeExtractionFailed = "EXTRACTION_FAILED"
)

// AppError is the base error type for all application errors
type AppError struct {
	// Error code for programmatic handling
	Code string `json:"code"`

	// Human-readable message
	Message string `json:"message"`

	// Detailed description (optional, for developers)
	Details string `json:"details,omitempty"`

	// HTTP status code
	HTTPStatus int `json:"-"`

	// Original error (for error wrapping)
	Cause error `json:"-"`

	Metadata map[string]interface{} `json:"metadata,omitempty"`

	Timestamp time.Time `json:"timestamp"`

	Retryable  bool          `json:"retryable"`
	RetryAfter time.Duration `json:"retry_after,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is for error comparison
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithDetails adds details to the error
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// WithCause adds the underlying cause
func (e *AppError) WithCause(err error) *AppError {
	e.Cause = err
	return e
}

// WithMetadata adds metadata to the error
func (e *AppError) WithMetadata(key string, value interface{}) *AppError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// WithRetry marks the error as retryable
func (e *AppError) WithRetry(after time.Duration) *AppError {
	e.Retryable = true
	e.RetryAfter = after
	return e
}

// NewError creates a new AppError
func NewError(code, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Timestamp:  time.Now().UTC(),
	}
}

func ErrValidationField(field, message string) *AppError {
	return NewError(ErrCodeValidation, message, http.StatusBadRequest).
		WithMetadata("field", field)
}

func ErrNotFound(resource, id string) *AppError {
	return NewError(ErrCodeNotFound, fmt.Sprintf("%s not found: %s", resource, id), http.StatusNotFound).
		WithMetadata("resource", resource).
		WithMetadata("id", id)
}

func ErrUnauthorized(message string) *AppError {
	if message == "" {
		message = "Authentication required"
	}
	return NewError(ErrCodeUnauthorized, message, http.StatusUnauthorized)
}

func ErrRateLimited(retryAfter time.Duration) *AppError {
	return NewError(ErrCodeRateLimited, "Rate limit exceeded", http.StatusTooManyRequests).
		WithRetry(retryAfter)
}

func ErrPayloadTooLarge(limit int) *AppError {
	return NewError(ErrCodePayloadTooLarge, fmt.Sprintf("Payload exceeds %d bytes", limit), http.StatusRequestEntityTooLarge).
		WithMetadata("limit", limit)
}

func ErrInternal(message string) *AppError {
	if message == "" {
		message = "Internal server error"
	}
	return NewError(ErrCodeInternal, message, http.StatusInternalServerError)
}

func ErrDatabase(err error) *AppError {
	return NewError(ErrCodeDatabase, "Database error", http.StatusInternalServerError).
		WithCause(err)
}

func ErrTimeout(operation string) *AppError {
	return NewError(ErrCodeTimeout, fmt.Sprintf("Operation timed out: %s", operation), http.StatusGatewayTimeout).
		WithMetadata("operation", operation).
		WithRetry(10 * time.Second)
}

func ErrServiceUnavailable(service string) *AppError {
	return NewError(ErrCodeServiceUnavail, fmt.Sprintf("Service unavailable: %s", service), http.StatusServiceUnavailable).
		WithMetadata("service", service).
		WithRetry(30 * time.Second)
}

// Locator and extraction errors. Messages are shown to end users as-is.

func ErrNoElements() *AppError {
	return NewError(ErrCodeNoElements, "No interactable elements could be found in the provided HTML.", http.StatusUnprocessableEntity)
}

func ErrParseFailure(err error) *AppError {
	return NewError(ErrCodeParseFailure, "An unexpected error occurred while processing the HTML.", http.StatusUnprocessableEntity).
		WithCause(err)
}

func ErrFetchFailed(reason string, err error) *AppError {
	return NewError(ErrCodeFetchFailed, reason, http.StatusBadGateway).
		WithCause(err)
}

func ErrHealingFailed(reason string, err error) *AppError {
	return NewError(ErrCodeHealingFailed, fmt.Sprintf("Locator healing failed: %s", reason), http.StatusUnprocessableEntity).
		WithCause(err)
}

func ErrExtractionFailed(reason string, err error) *AppError {
	return NewError(ErrCodeExtractionFailed, fmt.Sprintf("Requirement extraction failed: %s", reason), http.StatusUnprocessableEntity).
		WithCause(err)
}

// AsAppError converts an error to AppError if possible
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetHTTPStatus returns the HTTP status code for an error
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// GetErrorCode returns the error code for an error
func GetErrorCode(err error) string {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return ErrCodeInternal
}

// DomainError is a structured error for domain operations
type DomainError struct {
	Code    string
	Message string
	Details map[string]any
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is for error comparison
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Sentinel domain errors (used with errors.Is)
var (
	ErrNotFoundVal      = &DomainError{Code: ErrCodeNotFound, Message: "not found"}
	ErrAlreadyExistsVal = &DomainError{Code: ErrCodeConflict, Message: "already exists"}
	ErrInvalidInputVal  = &DomainError{Code: ErrCodeValidation, Message: "invalid input"}
	ErrInvalidStateVal  = &DomainError{Code: ErrCodeInvalidState, Message: "invalid state"}
	ErrConflictVal      = &DomainError{Code: ErrCodeConflict, Message: "conflict"}
)

// NotFoundError creates a not found domain error
func NotFoundError(resource string, id any) *DomainError {
	return &DomainError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found: %v", resource, id),
		Details: map[string]any{"resource": resource, "id": id},
		Err:     ErrNotFoundVal,
	}
}

// AlreadyExistsError creates an already exists domain error
func AlreadyExistsError(resource, field, value string) *DomainError {
	return &DomainError{
		Code:    ErrCodeConflict,
		Message: fmt.Sprintf("%s with %s '%s' already exists", resource, field, value),
		Details: map[string]any{"resource": resource, "field": field, "value": value},
		Err:     ErrAlreadyExistsVal,
	}
}

// ValidationError creates a validation domain error
func ValidationError(field, message string) *DomainError {
	return &DomainError{
		Code:    ErrCodeValidation,
		Message: message,
		Details: map[string]any{"field": field},
		Err:     ErrInvalidInputVal,
	}
}

// InvalidStateError reports an operation that the current state forbids,
// such as recording a result on a completed session.
func InvalidStateError(resource string, state any, message string) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidState,
		Message: message,
		Details: map[string]any{"resource": resource, "state": state},
		Err:     ErrInvalidStateVal,
	}
}

// ConflictError reports a clash with the current state of another holder,
// such as checking out a device that is already checked out.
func ConflictError(resource, message string) *DomainError {
	return &DomainError{
		Code:    ErrCodeConflict,
		Message: message,
		Details: map[string]any{"resource": resource},
		Err:     ErrConflictVal,
	}
}

// IsNotFoundError reports whether err is a not found domain error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFoundVal)
}

// IsAlreadyExistsError reports whether err is an already exists domain error
func IsAlreadyExistsError(err error) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr) && domainErr.Err == ErrAlreadyExistsVal
}

// IsValidationError reports whether err is a validation domain error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInputVal)
}
