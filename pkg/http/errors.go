package http

import (
	"fmt"
	"net/http"
)

// HTTPError is a non-2xx response from a provider
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// Retryable reports whether the status indicates throttling or a server fault.
func (e *HTTPError) Retryable() bool {
	return RetryableStatus(e.StatusCode)
}

// RetryableStatus reports whether a provider answering with status may
// succeed on a later attempt.
func RetryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}

// NetworkError wraps a failure below HTTP (dial, TLS, reset, timeout)
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}
