// Package httpx defines the error types the HTTP layer maps to status
// codes. Handlers return these; everything else becomes a generic 500 so
// internals never leak to clients.
package httpx

import (
	"fmt"
	"time"
)

// ValidationError is a client-side schema or size violation. Maps to 400,
// or 413 when TooLarge is set.
type ValidationError struct {
	Field    string
	Message  string
	TooLarge bool
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("httpx: invalid request: %s", e.Message)
	}
	return fmt.Sprintf("httpx: invalid request: %s: %s", e.Field, e.Message)
}

// NewValidationError builds a 400-mapped error for the given field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// NewPayloadTooLargeError builds a 413-mapped error.
func NewPayloadTooLargeError(message string) *ValidationError {
	return &ValidationError{Message: message, TooLarge: true}
}

// QuotaExceededError is a rate-limit denial. Maps to 429 with Retry-After.
type QuotaExceededError struct {
	Tier       string
	RetryAfter time.Duration
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("httpx: %s quota exceeded, retry after %s", e.Tier, e.RetryAfter)
}

// UpstreamError is a dependency failure the client cannot act on. Maps to a
// generic 500; the wrapped cause goes to logs only.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("httpx: upstream %s failed: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
