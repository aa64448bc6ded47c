package backend

import (
	"errors"
	"fmt"
)

// Sentinel errors for backend requests.
var (
	// ErrNetwork is returned for transport failures and 5xx responses.
	ErrNetwork = errors.New("network error")

	// ErrNotFound is returned when the backend no longer knows the dataset.
	ErrNotFound = errors.New("not found")

	// ErrBadResponse is returned when a 2xx response cannot be decoded.
	ErrBadResponse = errors.New("bad response")
)

// APIError is a non-2xx response. Message carries the backend's
// {"error": ...} text when one was sent.
type APIError struct {
	Endpoint string
	Status   int
	Message  string
	Err      error
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: status %d: %s", e.Endpoint, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: status %d", e.Endpoint, e.Status)
}

func (e *APIError) Unwrap() error { return e.Err }

// RetryableError marks a failure worth another attempt.
type RetryableError struct{ Err error }

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// IsRetryable reports whether err is wrapped in a RetryableError.
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}
