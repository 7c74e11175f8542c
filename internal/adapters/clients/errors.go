// Package clients is the outbound HTTP layer for the posts service: a pooled,
// traced client with retries and a circuit breaker.
package clients

import (
	"errors"
	"fmt"
)

// Transport-level failures. The acl package maps them to domain errors.
var (
	// ErrCircuitOpen means the breaker refused the call without contacting
	// the remote.
	ErrCircuitOpen = errors.New("circuit breaker open")

	// ErrMaxRetriesExceeded wraps the last failure once every attempt is spent.
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")
)

// StatusError is a retryable HTTP status (5xx or 429) seen on an attempt.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("remote answered %d", e.Code)
}
