package errors

import (
	"fmt"
	"net/http"
)

// OAuth2Error represents a standardized OAuth 2.0 error
type OAuth2Error struct {
	Code        string `json:"error"`
	Description string `json:"error_description,omitempty"`
	State       string `json:"state,omitempty"`

	// Status is the HTTP status the error is served with. Not part of the
	// wire format.
	Status int `json:"-"`
}

func (e *OAuth2Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// StatusCode returns the HTTP status for the error, defaulting to 400.
func (e *OAuth2Error) StatusCode() int {
	if e.Status != 0 {
		return e.Status
	}
	return http.StatusBadRequest
}

// Standard OAuth2 error codes
const (
	InvalidRequest          = "invalid_request"
	UnauthorizedClient      = "unauthorized_client"
	AccessDenied            = "access_denied"
	UnsupportedResponseType = "unsupported_response_type"
	UnsupportedGrantType    = "unsupported_grant_type"
	InvalidClient           = "invalid_client"
	InvalidGrant            = "invalid_grant"
	InvalidToken            = "invalid_token"
	ServerError             = "server_error"

	// NotFound is not part of RFC 6749; the resource endpoints use it for
	// absent records.
	NotFound = "not_found"
)

// Common error constructors
func NewInvalidRequest(description string) *OAuth2Error {
	return &OAuth2Error{Code: InvalidRequest, Description: description}
}

func NewInvalidClient(description string) *OAuth2Error {
	return &OAuth2Error{Code: InvalidClient, Description: description, Status: http.StatusUnauthorized}
}

func NewInvalidGrant(description string) *OAuth2Error {
	return &OAuth2Error{Code: InvalidGrant, Description: description}
}

func NewInvalidToken(description string) *OAuth2Error {
	return &OAuth2Error{Code: InvalidToken, Description: description, Status: http.StatusUnauthorized}
}

func NewUnauthorizedClient(description string) *OAuth2Error {
	return &OAuth2Error{Code: UnauthorizedClient, Description: description}
}

func NewAccessDenied(description string) *OAuth2Error {
	return &OAuth2Error{Code: AccessDenied, Description: description, Status: http.StatusUnauthorized}
}

func NewUnsupportedResponseType() *OAuth2Error {
	return &OAuth2Error{
		Code:        UnsupportedResponseType,
		Description: "Only code response type is supported",
	}
}

func NewUnsupportedGrantType() *OAuth2Error {
	return &OAuth2Error{
		Code:        UnsupportedGrantType,
		Description: "Only authorization_code and refresh_token grant types are supported",
	}
}

func NewServerError(description string) *OAuth2Error {
	return &OAuth2Error{Code: ServerError, Description: description, Status: http.StatusInternalServerError}
}

// NewNotFound is used by the resource endpoints; the OAuth endpoints never
// emit it.
func NewNotFound(description string) *OAuth2Error {
	return &OAuth2Error{Code: NotFound, Description: description, Status: http.StatusNotFound}
}

func NewMethodNotAllowed() *OAuth2Error {
	return &OAuth2Error{Code: InvalidRequest, Description: "Method not allowed", Status: http.StatusMethodNotAllowed}
}
