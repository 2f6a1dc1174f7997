package api

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrInvalidResponse is returned when a 2xx body lacks the expected field.
	ErrInvalidResponse = errors.New("invalid response format")
	// ErrNoToken is returned before a session-bound call made without a token.
	ErrNoToken = errors.New("missing session token")
)

// APIError is a non-2xx upstream response.
type APIError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s (status %d)", e.Op, e.Message, e.StatusCode)
}

// IsUnauthorized reports whether err is a 401 from upstream or a missing token.
func IsUnauthorized(err error) bool {
	if errors.Is(err, ErrNoToken) {
		return true
	}
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

// Message returns the text to show a user for err.
func Message(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
