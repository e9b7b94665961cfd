// Package errors provides the structured error model shared by the HTTP
// handlers, the analysis cache and the NLP client.
package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Request errors
const (
	ErrCodeInvalidRequest    ErrorCode = "INVALID_REQUEST"
	ErrCodeMessageTooLong    ErrorCode = "MESSAGE_TOO_LONG"
	ErrCodeUnsupportedLocale ErrorCode = "UNSUPPORTED_LOCALE"
)

// Service errors
const (
	ErrCodeAnalysisFailed   ErrorCode = "ANALYSIS_FAILED"
	ErrCodeCacheUnavailable ErrorCode = "CACHE_UNAVAILABLE"
	ErrCodeRegistryInvalid  ErrorCode = "REGISTRY_INVALID"
	ErrCodeInternal         ErrorCode = "INTERNAL_ERROR"
	ErrCodeNotFound         ErrorCode = "NOT_FOUND"
)

// Client errors, raised by callers of the service
const (
	ErrCodeNLPServiceUnavailable ErrorCode = "NLP_SERVICE_UNAVAILABLE"
	ErrCodeNLPServiceTimeout     ErrorCode = "NLP_SERVICE_TIMEOUT"
	ErrCodeCircuitOpen           ErrorCode = "CIRCUIT_OPEN"
)

// FieldError describes one invalid field of a request body.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Fields    []FieldError           `json:"fields,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error { return e.cause }

// WithMetadata returns e with key set in its metadata.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

func newError(code ErrorCode, message, details string, retryable bool, cause error) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// ==========================
// 2. Error Constructors
// ==========================

// NewInvalidRequestError reports a body that failed validation.
func NewInvalidRequestError(details string, fields ...FieldError) *StandardError {
	e := newError(ErrCodeInvalidRequest, "Request validation failed", details, false, nil)
	e.Fields = fields
	return e
}

func NewMessageTooLongError(length, max int) *StandardError {
	e := newError(ErrCodeMessageTooLong, "Message exceeds maximum length",
		fmt.Sprintf("length: %d, max: %d", length, max), false, nil)
	e.Fields = []FieldError{{Field: "message", Message: fmt.Sprintf("at most %d characters", max), Code: "max_length"}}
	return e
}

func NewUnsupportedLocaleError(locale string) *StandardError {
	e := newError(ErrCodeUnsupportedLocale, "Unsupported locale", fmt.Sprintf("locale: %s", locale), false, nil)
	e.Fields = []FieldError{{Field: "locale", Message: "must be one of en, sv, de, es, fa", Code: "enum"}}
	return e
}

func NewAnalysisFailedError(err error) *StandardError {
	return newError(ErrCodeAnalysisFailed, "Message analysis failed", err.Error(), false, err)
}

// NewCacheUnavailableError is logged and counted, never returned to callers.
func NewCacheUnavailableError(op string, err error) *StandardError {
	return newError(ErrCodeCacheUnavailable, "Analysis cache unavailable",
		fmt.Sprintf("op: %s, error: %s", op, err.Error()), true, err)
}

func NewRegistryInvalidError(path string, err error) *StandardError {
	return newError(ErrCodeRegistryInvalid, "Keyword registry is invalid",
		fmt.Sprintf("path: %s, error: %s", path, err.Error()), false, err)
}

func NewNotFoundError(path string) *StandardError {
	return newError(ErrCodeNotFound, "Route not found", fmt.Sprintf("path: %s", path), false, nil)
}

func NewNLPServiceUnavailableError(err error) *StandardError {
	return newError(ErrCodeNLPServiceUnavailable, "NLP service unavailable", err.Error(), true, err)
}

func NewNLPServiceTimeoutError(timeout time.Duration) *StandardError {
	return newError(ErrCodeNLPServiceTimeout, "NLP service timeout",
		fmt.Sprintf("call exceeded %s", timeout), true, context.DeadlineExceeded)
}

func NewCircuitOpenError(nextAttempt time.Time) *StandardError {
	e := newError(ErrCodeCircuitOpen, "Circuit breaker is open", "", false, nil)
	if !nextAttempt.IsZero() {
		e.Details = fmt.Sprintf("next attempt at %s", nextAttempt.UTC().Format(time.RFC3339))
	}
	return e
}

// NewInternalError wraps an unexpected error.
func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", err.Error(), false, err)
}

// ==========================
// 3. HTTP Mapping
// ==========================

// HTTPStatus returns the response status for a code. Validation problems
// use 422 like the rest of the API.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeInvalidRequest, ErrCodeMessageTooLong, ErrCodeUnsupportedLocale:
		return http.StatusUnprocessableEntity
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeNLPServiceUnavailable, ErrCodeCircuitOpen, ErrCodeCacheUnavailable:
		return http.StatusServiceUnavailable
	case ErrCodeNLPServiceTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// GetRetryCount returns how many times a caller should retry the code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeNLPServiceUnavailable, ErrCodeCacheUnavailable:
		return 3
	case ErrCodeNLPServiceTimeout:
		return 1
	default:
		return 0
	}
}

// ==========================
// 4. Utility Functions
// ==========================

// AsStandardError finds a StandardError in err's chain.
func AsStandardError(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// Normalize returns err as a StandardError, wrapping anything unknown as
// INTERNAL_ERROR.
func Normalize(err error) *StandardError {
	if stdErr, ok := AsStandardError(err); ok {
		return stdErr
	}
	return NewInternalError(err)
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code ErrorCode) bool {
	stdErr, ok := AsStandardError(err)
	return ok && stdErr.Code == code
}

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory groups codes for logs and the error counter.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "INVALID_REQUEST") || strings.Contains(codeStr, "TOO_LONG") ||
		strings.Contains(codeStr, "LOCALE"):
		return "VALIDATION"
	case strings.Contains(codeStr, "CACHE"):
		return "CACHE"
	case strings.HasPrefix(codeStr, "NLP_SERVICE") || strings.Contains(codeStr, "CIRCUIT"):
		return "UPSTREAM"
	case strings.Contains(codeStr, "REGISTRY"):
		return "CONFIGURATION"
	case strings.Contains(codeStr, "NOT_FOUND"):
		return "ROUTING"
	default:
		return "INTERNAL"
	}
}
