package elasticemail

import (
	"errors"
	"fmt"
)

// APIError is the base error for Elastic Email API failures.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("elastic email api error (%d): %s", e.StatusCode, e.Message)
}

// AuthenticationError means the API key was rejected.
type AuthenticationError struct {
	APIError
}

// ValidationError means the request was malformed.
type ValidationError struct {
	APIError
}

// RateLimitError means the account is being throttled.
type RateLimitError struct {
	APIError
	RetryAfter int // seconds, 0 when the API did not say
}

// NetworkError wraps transport-level failures.
type NetworkError struct {
	Endpoint string
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("failed to reach %s: %v", e.Endpoint, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// IsAuthenticationError reports whether err is a rejected-key failure.
func IsAuthenticationError(err error) bool {
	var ae *AuthenticationError
	return errors.As(err, &ae)
}

// IsValidationError reports whether err is a malformed-request failure.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// parseAPIError maps a response status and body onto the error taxonomy.
func parseAPIError(statusCode int, body apiErrorBody) error {
	message := body.Error
	if message == "" {
		message = body.Message
	}
	if message == "" {
		message = "unknown api error"
	}

	base := APIError{StatusCode: statusCode, Message: message}
	switch statusCode {
	case 401, 403:
		return &AuthenticationError{APIError: base}
	case 400:
		return &ValidationError{APIError: base}
	case 429:
		return &RateLimitError{APIError: base, RetryAfter: body.RetryAfter}
	default:
		return &base
	}
}

type apiErrorBody struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retry_after"`
}
