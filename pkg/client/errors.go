package client

import (
	"errors"
	"fmt"
)

// ErrUnauthenticated is returned when an authorized call is attempted with
// no session credential held. No network call is made.
var ErrUnauthenticated = errors.New("not authenticated")

// APIError represents a non-2xx HTTP response from the API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// AuthRejectedError is a 401/403 response: the backend refused the bearer
// credential. The caller should destroy the session and force re-login.
type AuthRejectedError struct {
	StatusCode int
}

func (e *AuthRejectedError) Error() string {
	return fmt.Sprintf("HTTP %d: authorization rejected", e.StatusCode)
}

// TransportError is a network-level failure: the request never produced an
// HTTP response. Retrying is the caller's decision; the client never retries.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsAuthRejected returns true if err (or any wrapped error) is an
// AuthRejectedError.
func IsAuthRejected(err error) bool {
	var authErr *AuthRejectedError
	return errors.As(err, &authErr)
}

// IsStatus returns true if err (or any wrapped error) is an APIError with the
// given status code.
func IsStatus(err error, code int) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == code
	}
	return false
}
