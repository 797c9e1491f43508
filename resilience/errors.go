package resilience

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrCircuitOpen is returned when the breaker rejects a call without
// attempting it. It signals a downstream outage rather than a per-call fault.
var ErrCircuitOpen = errors.New("resilience: circuit open")

// StatusError carries an HTTP status from an external service so the retry
// classification can apply (429 and 5xx retry, other 4xx do not).
type StatusError struct {
	Code int
	Msg  string
}

func (e StatusError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("status %d", e.Code)
	}
	return fmt.Sprintf("status %d: %s", e.Code, e.Msg)
}

type retryableError struct{ err error }

func (e retryableError) Error() string { return e.err.Error() }
func (e retryableError) Unwrap() error { return e.err }

// Retryable marks an error as transient regardless of its type.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return retryableError{err: err}
}

type permanentError struct{ err error }

func (e permanentError) Error() string { return e.err.Error() }
func (e permanentError) Unwrap() error { return e.err }

// Permanent marks an error as non-retryable regardless of its type.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return permanentError{err: err}
}

// RetryableStatus reports whether an HTTP status is worth retrying:
// rate limiting and server-side failures are, other client errors are not.
func RetryableStatus(code int) bool {
	return code == 429 || code >= 500
}

// IsRetryable classifies an error for the retry loop. Explicit markers win;
// otherwise HTTP 429/5xx, network errors and timeouts are transient and
// everything else is surfaced immediately.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var pe permanentError
	if errors.As(err, &pe) {
		return false
	}
	var re retryableError
	if errors.As(err, &re) {
		return true
	}

	var se StatusError
	if errors.As(err, &se) {
		return RetryableStatus(se.Code)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var ne net.Error
	if errors.As(err, &ne) {
		return true
	}

	return false
}
