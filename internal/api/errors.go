package api

import (
	"errors"
	"fmt"
)

// ErrNoToken means an authenticated call was attempted with no stored token.
// The gateway fails with it before any network I/O happens.
var ErrNoToken = errors.New("no access token")

// HTTPError carries the server's message for a non-2xx response.
type HTTPError struct {
	Status  int
	Message string
	Details string
}

func (e *HTTPError) Error() string {
	if e.Details != "" {
		return e.Message + ". " + e.Details
	}
	return e.Message
}

// ShapeError means a 2xx response whose payload fails the expected contract.
type ShapeError struct {
	Endpoint string
	Reason   string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("invalid response from %s: %s", e.Endpoint, e.Reason)
}

// NetworkError means the request itself failed to complete.
type NetworkError struct {
	Endpoint string
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("request to %s failed: %v", e.Endpoint, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}
