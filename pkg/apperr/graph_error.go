package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Error codes
const (
	// Validation errors
	CodeInvalidConfig = "INVALID_CONFIG"
	CodeInvalidQuery  = "INVALID_QUERY"
	CodeBadRequest    = "BAD_REQUEST"
	CodeUnauthorized  = "UNAUTHORIZED"

	// Connection errors
	CodeAuthenticationFailed = "AUTHENTICATION_FAILED"
	CodeServiceUnavailable   = "SERVICE_UNAVAILABLE"
	CodeConnectionFailure    = "CONNECTION_FAILURE"
	CodeNotConnected         = "NOT_CONNECTED"

	// Execution errors
	CodeQueryExecution = "QUERY_EXECUTION"
	CodeCancelled      = "CANCELLED"
	CodeInternalError  = "INTERNAL_ERROR"
)

// AppError represents a structured application error
type AppError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Status  int            `json:"-"`
	Details map[string]any `json:"details,omitempty"`
	Err     error          `json:"-"`
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

// Is matches on code so callers can compare against the sentinel values below.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

func (e *AppError) WithError(err error) *AppError {
	e.Err = err
	return e
}

// HTTPStatus returns the HTTP status code
func (e *AppError) HTTPStatus() int {
	return e.Status
}

// Constructor functions
func New(code, message string, status int) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Status:  status,
	}
}

func Wrap(err error, code, message string, status int) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

// Validation errors
func InvalidConfig(field, reason string) *AppError {
	return &AppError{
		Code:    CodeInvalidConfig,
		Message: fmt.Sprintf("invalid config '%s': %s", field, reason),
		Status:  http.StatusInternalServerError,
		Details: map[string]any{"field": field},
	}
}

func InvalidQuery(reason string) *AppError {
	return &AppError{
		Code:    CodeInvalidQuery,
		Message: reason,
		Status:  http.StatusBadRequest,
	}
}

func BadRequest(message string) *AppError {
	return &AppError{
		Code:    CodeBadRequest,
		Message: message,
		Status:  http.StatusBadRequest,
	}
}

func Unauthorized(message string) *AppError {
	if message == "" {
		message = "unauthorized"
	}
	return &AppError{
		Code:    CodeUnauthorized,
		Message: message,
		Status:  http.StatusUnauthorized,
	}
}

// Connection errors
func AuthenticationFailed(uri string, err error) *AppError {
	return &AppError{
		Code:    CodeAuthenticationFailed,
		Message: "neo4j authentication failed",
		Status:  http.StatusBadGateway,
		Details: map[string]any{"uri": uri},
		Err:     err,
	}
}

func ServiceUnavailable(uri string, err error) *AppError {
	return &AppError{
		Code:    CodeServiceUnavailable,
		Message: "neo4j service unavailable",
		Status:  http.StatusServiceUnavailable,
		Details: map[string]any{"uri": uri},
		Err:     err,
	}
}

func ConnectionFailure(uri string, err error) *AppError {
	return &AppError{
		Code:    CodeConnectionFailure,
		Message: "failed to connect to neo4j",
		Status:  http.StatusBadGateway,
		Details: map[string]any{"uri": uri},
		Err:     err,
	}
}

func NotConnected() *AppError {
	return &AppError{
		Code:    CodeNotConnected,
		Message: "not connected to neo4j, call Connect first",
		Status:  http.StatusServiceUnavailable,
	}
}

// Execution errors
func QueryExecution(operation string, err error) *AppError {
	return &AppError{
		Code:    CodeQueryExecution,
		Message: fmt.Sprintf("query execution failed: %s", operation),
		Status:  http.StatusBadGateway,
		Details: map[string]any{"operation": operation},
		Err:     err,
	}
}

func Cancelled(operation string, err error) *AppError {
	return &AppError{
		Code:    CodeCancelled,
		Message: fmt.Sprintf("operation cancelled: %s", operation),
		Status:  http.StatusGatewayTimeout,
		Err:     err,
	}
}

func InternalWithError(err error) *AppError {
	return &AppError{
		Code:    CodeInternalError,
		Message: "internal server error",
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// Sentinels for errors.Is comparisons
var (
	ErrInvalidConfig        = New(CodeInvalidConfig, "invalid config", http.StatusInternalServerError)
	ErrInvalidQuery         = New(CodeInvalidQuery, "invalid query", http.StatusBadRequest)
	ErrAuthenticationFailed = New(CodeAuthenticationFailed, "authentication failed", http.StatusBadGateway)
	ErrServiceUnavailable   = New(CodeServiceUnavailable, "service unavailable", http.StatusServiceUnavailable)
	ErrConnectionFailure    = New(CodeConnectionFailure, "connection failure", http.StatusBadGateway)
	ErrNotConnected         = New(CodeNotConnected, "not connected", http.StatusServiceUnavailable)
	ErrQueryExecution       = New(CodeQueryExecution, "query execution failed", http.StatusBadGateway)
	ErrCancelled            = New(CodeCancelled, "cancelled", http.StatusGatewayTimeout)
)

// Helper functions
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return Cancelled("request", err)
	}
	return InternalWithError(err)
}

func GetHTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}
	return http.StatusInternalServerError
}
