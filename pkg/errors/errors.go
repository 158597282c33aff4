package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents different types of errors that can occur
type ErrorType string

const (
	ErrorTypeNetwork     ErrorType = "network"
	ErrorTypeRateLimit   ErrorType = "rate_limit"
	ErrorTypeParsing     ErrorType = "parsing"
	ErrorTypeNotFound    ErrorType = "not_found"
	ErrorTypeServerError ErrorType = "server_error"
	ErrorTypeUnknown     ErrorType = "unknown"
)

// Error represents a scraper error with type information
type Error struct {
	Type    ErrorType
	Message string
	Code    int
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
}

// Terminal "nothing to extract" conditions. Each pipeline stage surfaces
// exactly one of these when the page yields nothing at all; per-item
// irregularities inside a collection are dropped at the iteration site and
// never reach the caller.
var (
	ErrNoStateFound = &Error{Type: ErrorTypeNotFound, Message: "no embedded state blob found in page"}
	ErrNoContent    = &Error{Type: ErrorTypeNotFound, Message: "no content record found in state"}
	ErrNoMediaURLs  = &Error{Type: ErrorTypeNotFound, Message: "no media URLs found in content record"}
)

// IsNotFound reports whether err is one of the terminal not-found conditions.
func IsNotFound(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Type == ErrorTypeNotFound
	}
	return false
}

// IsRetryable checks if an error type should be retried
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeNetwork, ErrorTypeRateLimit, ErrorTypeServerError:
		return true
	case ErrorTypeNotFound, ErrorTypeParsing:
		return false
	default:
		return false
	}
}

// IsRetryableStatusCode checks if an HTTP status code indicates a retryable error
func IsRetryableStatusCode(statusCode int) bool {
	switch statusCode {
	case 0: // Network error
		return true
	case 429: // Too Many Requests
		return true
	case 500, 502, 503, 504: // Server errors
		return true
	case 401, 403, 404: // Client errors that won't change
		return false
	default:
		return statusCode >= 500 // Retry all 5xx errors
	}
}
