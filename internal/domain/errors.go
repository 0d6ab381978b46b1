package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// Stable error codes carried in the {error, code} envelope.
const (
	CodeInvalidParameter        = "INVALID_PARAMETER"
	CodeRateLimitExceeded       = "RATE_LIMIT_EXCEEDED"
	CodeExternalAPIError        = "EXTERNAL_API_ERROR"
	CodeInvalidUpstreamResponse = "INVALID_UPSTREAM_RESPONSE"
	CodeInternalServerError     = "INTERNAL_SERVER_ERROR"
)

// APIError is the error type surfaced to callers of the proxy and to the loader.
// Status is the HTTP-equivalent status, Code a stable machine-readable identifier.
type APIError struct {
	Status  int
	Code    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s (%d %s): %v", e.Message, e.Status, e.Code, e.Err)
	}
	return fmt.Sprintf("%s (%d %s)", e.Message, e.Status, e.Code)
}

// Unwrap returns the underlying cause.
func (e *APIError) Unwrap() error {
	return e.Err
}

// ErrRateLimited is returned when the caller exceeded its request window.
var ErrRateLimited = &APIError{
	Status:  http.StatusTooManyRequests,
	Code:    CodeRateLimitExceeded,
	Message: "Too many requests",
}

// NewValidationError reports bad client input.
func NewValidationError(format string, args ...interface{}) *APIError {
	return &APIError{
		Status:  http.StatusBadRequest,
		Code:    CodeInvalidParameter,
		Message: fmt.Sprintf(format, args...),
	}
}

// NewUpstreamError reports a non-success response from the upstream catalog,
// keeping the upstream status.
func NewUpstreamError(status int, message string) *APIError {
	if message == "" {
		message = http.StatusText(status)
	}
	if message == "" {
		message = "API request failed"
	}
	return &APIError{
		Status:  status,
		Code:    CodeExternalAPIError,
		Message: message,
	}
}

// NewMalformedPayloadError reports an upstream body that does not match the expected schema.
func NewMalformedPayloadError(err error) *APIError {
	return &APIError{
		Status:  http.StatusBadGateway,
		Code:    CodeInvalidUpstreamResponse,
		Message: "Upstream returned an unexpected payload",
		Err:     err,
	}
}

// NewTransportError reports a network failure talking to the upstream.
func NewTransportError(err error) *APIError {
	return &APIError{
		Status:  http.StatusInternalServerError,
		Code:    CodeInternalServerError,
		Message: "Upstream request failed",
		Err:     err,
	}
}

// AsAPIError normalizes any error into an *APIError. Unknown errors become 500s.
func AsAPIError(err error) *APIError {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return &APIError{
		Status:  http.StatusInternalServerError,
		Code:    CodeInternalServerError,
		Message: err.Error(),
		Err:     err,
	}
}

// IsNotFound reports whether err is an upstream 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// ErrorEnvelope is the JSON body returned on failure.
type ErrorEnvelope struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Envelope renders the error for the wire. The wrapped cause is never exposed.
func (e *APIError) Envelope() ErrorEnvelope {
	return ErrorEnvelope{Error: e.Message, Code: e.Code}
}
