// Package errors provides standardized error handling for the intake station.
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Caught before any network call, always recoverable in place.
	ErrCodeLocalValidation ErrorCode = "LOCAL_VALIDATION"

	// Gateway taxonomy
	ErrCodeTransportFailure ErrorCode = "TRANSPORT_FAILURE"
	ErrCodeServerRejected   ErrorCode = "SERVER_REJECTED"
	ErrCodePartialFlow      ErrorCode = "PARTIAL_FLOW"
	ErrCodeNotFound         ErrorCode = "NOT_FOUND"
	ErrCodeDecodeFailed     ErrorCode = "DECODE_FAILED"

	ErrCodeSessionMissing ErrorCode = "SESSION_MISSING"
	ErrCodeSessionStore   ErrorCode = "SESSION_STORE_FAILED"

	ErrCodeCatalogInvalid ErrorCode = "CATALOG_INVALID"
	ErrCodePhotoTooLarge  ErrorCode = "PHOTO_TOO_LARGE"

	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeInputParsingFailed     ErrorCode = "INPUT_PARSING_FAILED"
	ErrCodeInternal               ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Status    int                    `json:"status,omitempty"` // HTTP status for SERVER_REJECTED
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// ==========================
// 2. Error Constructors
// ==========================

// NewLocalValidationError creates a non-retryable validation error for a single field.
func NewLocalValidationError(field, message string) *StandardError {
	return &StandardError{
		Code:      ErrCodeLocalValidation,
		Message:   message,
		Details:   fmt.Sprintf("field: %s", field),
		Retryable: false,
		Metadata:  map[string]interface{}{"field": field},
		Timestamp: time.Now().UTC(),
	}
}

// NewTransportError wraps a failure where no response reached the server.
func NewTransportError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeTransportFailure,
		Message:   "Server not responding",
		Details:   fmt.Sprintf("operation: %s, error: %s", operation, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewServerRejectedError is a non-2xx answer. serverMessage is the body's
// message field and may be empty.
func NewServerRejectedError(operation string, status int, serverMessage string) *StandardError {
	return &StandardError{
		Code:      ErrCodeServerRejected,
		Message:   serverMessage,
		Details:   fmt.Sprintf("operation: %s, status: %d", operation, status),
		Retryable: status >= 500 || status == 429 || status == 408,
		Status:    status,
		Metadata:  map[string]interface{}{"serverMessage": serverMessage},
		Timestamp: time.Now().UTC(),
	}
}

// NewPartialFlowError marks a lookup where the identifier exists but the detail fetch failed.
func NewPartialFlowError(code string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodePartialFlow,
		Message:   "Registration exists but its details could not be loaded",
		Details:   fmt.Sprintf("code: %s, error: %s", code, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewNotFoundError creates a non-retryable not-found error.
func NewNotFoundError(resource, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotFound,
		Message:   fmt.Sprintf("%s not found", resource),
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDecodeError creates a non-retryable response decoding error.
func NewDecodeError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDecodeFailed,
		Message:   "Unexpected response from server",
		Details:   fmt.Sprintf("operation: %s, error: %s", operation, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewSessionMissingError(stationID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSessionMissing,
		Message:   "Operator is not logged in",
		Details:   fmt.Sprintf("station: %s", stationID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewSessionStoreError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSessionStore,
		Message:   "Session store unavailable",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewCatalogInvalidError creates a non-retryable catalogue error.
func NewCatalogInvalidError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeCatalogInvalid,
		Message:   "Enumeration catalogue is invalid",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewPhotoTooLargeError(size, limit int) *StandardError {
	return &StandardError{
		Code:      ErrCodePhotoTooLarge,
		Message:   "Photo must be 5 MB or smaller",
		Details:   fmt.Sprintf("size: %d, limit: %d", size, limit),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationSendFailedError creates a retryable notification send error.
func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Notification delivery failed",
		Details:   fmt.Sprintf("channel: %s, error: %s", channel, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewInputParsingFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInputParsingFailed,
		Message:   "Failed to parse job variables",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// ==========================
// 3. Utility Functions
// ==========================

// AsStandard unwraps err into a StandardError, or wraps it as INTERNAL_ERROR.
func AsStandard(err error) *StandardError {
	if err == nil {
		return nil
	}
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr
	}
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code ErrorCode) bool {
	var stdErr *StandardError
	return errors.As(err, &stdErr) && stdErr.Code == code
}

// IsRetryable reports whether err is a StandardError marked retryable.
func IsRetryable(err error) bool {
	var stdErr *StandardError
	return errors.As(err, &stdErr) && stdErr.Retryable
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "VALIDATION") || strings.Contains(codeStr, "PHOTO") || strings.Contains(codeStr, "PARSING"):
		return "VALIDATION"
	case strings.Contains(codeStr, "TRANSPORT") || strings.Contains(codeStr, "SERVER") ||
		strings.Contains(codeStr, "PARTIAL") || strings.Contains(codeStr, "DECODE"):
		return "GATEWAY"
	case strings.Contains(codeStr, "SESSION"):
		return "SESSION"
	case strings.Contains(codeStr, "CATALOG"):
		return "CATALOG"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case code == ErrCodeNotFound:
		return "LOOKUP"
	default:
		return "OTHER"
	}
}
