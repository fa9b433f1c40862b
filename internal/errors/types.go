// Package errors classifies backend failures so the execution engine can
// decide whether a fallback attempt is worth spending.
package errors

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// ErrorType represents the classification of a backend failure.
type ErrorType int

const (
	// ErrorTypeTransient - the same call may succeed on another model or retry
	ErrorTypeTransient ErrorType = iota
	// ErrorTypePermanent - the request itself is defective
	ErrorTypePermanent
)

// TransientError marks an error as likely recoverable on a different model.
type TransientError struct {
	Err        error
	StatusCode int    // HTTP status code if applicable
	Message    string // human-friendly message
}

func (e *TransientError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("transient error: %v", e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// PermanentError marks an error that no fallback can fix.
type PermanentError struct {
	Err        error
	StatusCode int
	Message    string
}

func (e *PermanentError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("permanent error: %v", e.Err)
}

func (e *PermanentError) Unwrap() error { return e.Err }

// NewTransientError wraps err with a transient marker.
func NewTransientError(err error, message string) *TransientError {
	return &TransientError{Err: err, Message: message}
}

// NewPermanentError wraps err with a permanent marker.
func NewPermanentError(err error, message string) *PermanentError {
	return &PermanentError{Err: err, Message: message}
}

// IsTransient checks if an error is likely recoverable elsewhere.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var transientErr *TransientError
	if errors.As(err, &transientErr) {
		return true
	}
	var permanentErr *PermanentError
	if errors.As(err, &permanentErr) {
		return false
	}

	if isNetworkError(err) {
		return true
	}
	if code := extractHTTPStatusCode(err); code > 0 {
		return isTransientHTTPStatus(code)
	}
	return false
}

// IsPermanent checks if an error marks a defective request.
func IsPermanent(err error) bool {
	if err == nil {
		return false
	}

	var permanentErr *PermanentError
	if errors.As(err, &permanentErr) {
		return true
	}
	var transientErr *TransientError
	if errors.As(err, &transientErr) {
		return false
	}

	if code := extractHTTPStatusCode(err); code > 0 {
		return isPermanentHTTPStatus(code)
	}

	lowerErr := strings.ToLower(err.Error())
	for _, pattern := range []string{
		"not found",
		"permission denied",
		"invalid",
		"unauthorized",
		"forbidden",
		"bad request",
	} {
		if strings.Contains(lowerErr, pattern) {
			return true
		}
	}
	return false
}

// Classify returns the error type, defaulting to permanent to avoid
// spending fallbacks on hopeless requests.
func Classify(err error) ErrorType {
	if IsTransient(err) {
		return ErrorTypeTransient
	}
	return ErrorTypePermanent
}

func isNetworkError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	errStr := strings.ToLower(err.Error())
	for _, pattern := range []string{
		"connection refused",
		"timeout",
		"deadline exceeded",
		"connection reset",
		"broken pipe",
	} {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}
	return false
}

func isTransientHTTPStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

func isPermanentHTTPStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusBadRequest,
		http.StatusUnauthorized,
		http.StatusForbidden,
		http.StatusNotFound,
		http.StatusConflict,
		http.StatusUnprocessableEntity:
		return true
	}
	return false
}

var httpStatusPatterns = map[string]int{
	"400": 400, "401": 401, "403": 403, "404": 404,
	"409": 409, "422": 422, "429": 429,
	"500": 500, "502": 502, "503": 503, "504": 504,
}

func extractHTTPStatusCode(err error) int {
	lowerErr := strings.ToLower(err.Error())
	for pattern, code := range httpStatusPatterns {
		if strings.Contains(lowerErr, "status "+pattern) || strings.Contains(lowerErr, "error "+pattern) {
			return code
		}
	}
	return 0
}
