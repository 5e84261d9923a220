package relay

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure modes.
var (
	// ErrNotFound indicates a store section or value does not exist.
	ErrNotFound = errors.New("not found")

	// ErrMissingCredential indicates the API key property is unset.
	ErrMissingCredential = errors.New("missing credential")

	// ErrInvalidConfig indicates a configuration value is not accepted.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// APIError reports an error returned by the completion endpoint, or a
// response that does not have the expected shape.
type APIError struct {
	Code    int // HTTP status; 0 when the response could not be interpreted
	Message string
}

func (e *APIError) Error() string {
	if e.Code == 0 {
		return "api error: " + e.Message
	}
	return fmt.Sprintf("api error %d: %s", e.Code, e.Message)
}

// TransportError reports a network failure reaching the completion endpoint.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return "transport error: " + e.Err.Error()
}

func (e *TransportError) Unwrap() error { return e.Err }
