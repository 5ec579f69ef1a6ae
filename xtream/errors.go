package xtream

import (
	"errors"
	"fmt"
)

// Common errors returned by the Xtream client and session manager.
var (
	// ErrAuthentication indicates the provider rejected the credentials or
	// session after the retry budget was spent.
	ErrAuthentication = errors.New("authentication failed")

	// ErrConnection indicates a transport or HTTP failure that persisted
	// through the whole backoff schedule.
	ErrConnection = errors.New("connection failed")

	// ErrSession indicates the session could not be refreshed.
	ErrSession = errors.New("session refresh failed")

	// ErrInvalidConfig indicates invalid client configuration.
	ErrInvalidConfig = errors.New("invalid xtream configuration")
)

// StatusError represents a non-2xx HTTP response from the provider.
type StatusError struct {
	Code int
	Body string
}

// Error implements the error interface
func (e *StatusError) Error() string {
	return fmt.Sprintf("xtream API error: status %d: %s", e.Code, e.Body)
}

// IsUnauthorized reports whether the response was a 401.
func (e *StatusError) IsUnauthorized() bool {
	return e.Code == 401
}
