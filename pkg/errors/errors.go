package errors

import "fmt"

// ErrorType classifies failures talking to the TikTok API or the webhook endpoint
type ErrorType string

const (
	ErrorTypeNetwork     ErrorType = "network"
	ErrorTypeRateLimit   ErrorType = "rate_limit"
	ErrorTypeNotFound    ErrorType = "not_found"
	ErrorTypeParsing     ErrorType = "parsing"
	ErrorTypeServerError ErrorType = "server_error"
	ErrorTypeUnknown     ErrorType = "unknown"
)

// Error represents an API error with type information
type Error struct {
	Type    ErrorType
	Message string
	Code    int
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
}

// FromStatusCode builds a typed error from an HTTP status code
func FromStatusCode(statusCode int, message string) *Error {
	return &Error{
		Type:    ClassifyStatusCode(statusCode),
		Message: message,
		Code:    statusCode,
	}
}

// ClassifyStatusCode maps an HTTP status code to an error type
func ClassifyStatusCode(statusCode int) ErrorType {
	switch {
	case statusCode == 0:
		return ErrorTypeNetwork
	case statusCode == 429:
		return ErrorTypeRateLimit
	case statusCode == 404 || statusCode == 410:
		return ErrorTypeNotFound
	case statusCode >= 500:
		return ErrorTypeServerError
	default:
		return ErrorTypeUnknown
	}
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
		return statusCode >= 500
	}
}
