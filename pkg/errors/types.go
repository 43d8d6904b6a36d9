package errors

import (
	"fmt"
	"net/http"
)

// ErrorCode represents a structured error code
type ErrorCode string

const (
	// NotFound indicates a requested resource (blob, manifest entry, site) does not exist.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// TransientIO indicates a retryable I/O failure (network blip, temporary disk
	// pressure, connection reset) that a caller should retry with backoff.
	ErrCodeTransientIO ErrorCode = "TRANSIENT_IO"

	// UpstreamFailure indicates a non-retryable failure reported by an external
	// system this program depends on (feed host, transcription provider, blob store).
	ErrCodeUpstreamFailure ErrorCode = "UPSTREAM_FAILURE"

	// InputInvariantViolation indicates malformed or inconsistent input data that
	// violates a documented invariant (bad manifest, corrupt SRT, malformed feed item).
	ErrCodeInputInvariantViolation ErrorCode = "INPUT_INVARIANT_VIOLATION"

	// ResourceExhausted indicates a local resource limit was hit (disk space,
	// memory, rate limit, max retries).
	ErrCodeResourceExhausted ErrorCode = "RESOURCE_EXHAUSTED"

	// ConfigError indicates invalid or missing configuration.
	ErrCodeConfigError ErrorCode = "CONFIG_ERROR"

	// IndexUnavailable indicates the search index has not been restored yet,
	// or the blob holding it is missing or corrupt (§4.6).
	ErrCodeIndexUnavailable ErrorCode = "INDEX_UNAVAILABLE"

	// Internal is the catch-all for unexpected programmer errors.
	ErrCodeInternal ErrorCode = "INTERNAL"
)

// AppError represents a structured application error
type AppError struct {
	Code     ErrorCode              `json:"code"`
	Message  string                 `json:"message"`
	Details  map[string]interface{} `json:"details,omitempty"`
	Cause    error                  `json:"-"`
	HTTPCode int                    `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithDetail adds a detail to the error
func (e *AppError) WithDetail(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying cause
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// GetHTTPCode returns the appropriate HTTP status code
func (e *AppError) GetHTTPCode() int {
	if e.HTTPCode != 0 {
		return e.HTTPCode
	}
	return getDefaultHTTPCode(e.Code)
}

// IsRetryable reports whether the error kind is one a caller should retry
// with backoff (TransientIO) as opposed to giving up (everything else).
func (e *AppError) IsRetryable() bool {
	return e.Code == ErrCodeTransientIO
}

// New creates a new AppError
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:     code,
		Message:  message,
		HTTPCode: getDefaultHTTPCode(code),
	}
}

// Newf creates a new AppError with formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *AppError {
	return &AppError{
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		HTTPCode: getDefaultHTTPCode(code),
	}
}

// Wrap wraps an existing error with an AppError
func Wrap(cause error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:     code,
		Message:  message,
		Cause:    cause,
		HTTPCode: getDefaultHTTPCode(code),
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(cause error, code ErrorCode, format string, args ...interface{}) *AppError {
	return &AppError{
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Cause:    cause,
		HTTPCode: getDefaultHTTPCode(code),
	}
}

// getDefaultHTTPCode returns the default HTTP status code for an error code
func getDefaultHTTPCode(code ErrorCode) int {
	switch code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeInputInvariantViolation:
		return http.StatusBadRequest
	case ErrCodeResourceExhausted:
		return http.StatusInsufficientStorage
	case ErrCodeUpstreamFailure:
		return http.StatusBadGateway
	case ErrCodeTransientIO:
		return http.StatusServiceUnavailable
	case ErrCodeIndexUnavailable:
		return http.StatusServiceUnavailable
	case ErrCodeConfigError:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// Common error constructors

// NotFound creates a not found error
func NotFound(resource string, id interface{}) *AppError {
	return New(ErrCodeNotFound, fmt.Sprintf("%s not found", resource)).
		WithDetail("resource", resource).
		WithDetail("id", id)
}

// TransientIO creates a retryable I/O error
func TransientIO(operation string, cause error) *AppError {
	return Wrap(cause, ErrCodeTransientIO, fmt.Sprintf("transient I/O failure during %s", operation)).
		WithDetail("operation", operation)
}

// UpstreamFailure creates an error for a failing external dependency
func UpstreamFailure(service string, cause error) *AppError {
	return Wrap(cause, ErrCodeUpstreamFailure, fmt.Sprintf("upstream '%s' failed", service)).
		WithDetail("service", service)
}

// InvariantViolation creates an error for malformed input data
func InvariantViolation(subject string, reason string) *AppError {
	return New(ErrCodeInputInvariantViolation, fmt.Sprintf("invariant violated for '%s': %s", subject, reason)).
		WithDetail("subject", subject).
		WithDetail("reason", reason)
}

// ResourceExhausted creates a resource-exhaustion error
func ResourceExhausted(resource string, limit string) *AppError {
	return New(ErrCodeResourceExhausted, fmt.Sprintf("resource exhausted for '%s': %s", resource, limit)).
		WithDetail("resource", resource).
		WithDetail("limit", limit)
}

// IndexUnavailable creates an error for a missing or corrupt search index
func IndexUnavailable(reason string, cause error) *AppError {
	return Wrap(cause, ErrCodeIndexUnavailable, fmt.Sprintf("search index unavailable: %s", reason)).
		WithDetail("reason", reason)
}

// ConfigError creates a configuration error
func ConfigError(key string, reason string) *AppError {
	return New(ErrCodeConfigError, fmt.Sprintf("configuration error for '%s': %s", key, reason)).
		WithDetail("key", key).
		WithDetail("reason", reason)
}

// Is checks if an error is of a specific type
func Is(err error, code ErrorCode) bool {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code == code
	}
	return false
}

// GetCode extracts the error code from an error
func GetCode(err error) ErrorCode {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code
	}
	return ErrCodeInternal
}

// GetHTTPCode extracts the HTTP status code from an error
func GetHTTPCode(err error) int {
	if appErr, ok := err.(*AppError); ok {
		return appErr.GetHTTPCode()
	}
	return http.StatusInternalServerError
}
