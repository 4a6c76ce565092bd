package gateway

import (
	"errors"
	"fmt"
)

var (
	ErrNotAuthenticated = errors.New("gateway: not authenticated")
)

// TransportError wraps a failure to complete the round-trip at all: DNS,
// connection refused, context deadline. The server was never heard from.
type TransportError struct {
	Err     error
	Timeout bool
}

func (e *TransportError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("transport: request timed out: %v", e.Err)
	}
	return fmt.Sprintf("transport: request failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// APIError is a non-2xx response. Detail carries the server's error-detail
// message when the body had one, a generic message otherwise.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %s (status %d)", e.Detail, e.Status)
}

// ValidationError is a client-side rejection raised before any network
// call. It never reaches the server.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
}

// errMessage extracts the display message the stores record on failure.
func errMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Detail
	}
	return err.Error()
}
