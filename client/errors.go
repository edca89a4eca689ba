package client

import (
	"errors"
	"fmt"
)

// ErrUnauthorized is returned for any HTTP 401 from the application
// API and is always treated as "session expired".
var ErrUnauthorized = errors.New("session expired")

// APIError carries the server's error message for non-401 failures.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

// genericFailure is the fallback text when the server gave no usable
// message; every surface keeps the action available for retry.
const genericFailure = "Something went wrong. Please try again."

// sessionExpired is shown whenever a 401 forced the user out.
const sessionExpired = "Your session has expired. Please sign in again."

// SurfaceMessage extracts the text an error banner should show.
func SurfaceMessage(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrUnauthorized) {
		return sessionExpired
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	var idErr *IdentityError
	if errors.As(err, &idErr) {
		return idErr.Friendly()
	}
	return genericFailure
}
