package fetcher

import (
	"errors"
	"fmt"
)

// Common errors returned by the fetcher.
var (
	// ErrInvalidConcurrency is returned by New when the concurrency limit
	// is zero or negative.
	ErrInvalidConcurrency = errors.New("concurrency must be positive")

	// ErrRetryExhausted marks a URL that failed on every attempt in the
	// retry budget.
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// ErrAuthFailed is returned when the initial credential fetch fails,
	// or wrapped into a FetchError when a refresh mid-batch fails.
	ErrAuthFailed = errors.New("authentication failed")
)

// ErrorClass categorizes a failed fetch attempt.
type ErrorClass string

const (
	// ErrorClassClient represents non-retryable 4xx responses.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx responses.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassNetwork represents timeouts and connection errors.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassPayload represents responses whose body could not be read.
	ErrorClassPayload ErrorClass = "payload"

	// ErrorClassAuth represents 401 responses and credential refresh failures.
	ErrorClassAuth ErrorClass = "auth"
)

// FetchError describes a failed fetch attempt with classification context.
type FetchError struct {
	URL        string
	StatusCode int
	Class      ErrorClass
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s error (status %d) for %s: %s: %v",
			e.Class, e.StatusCode, e.URL, e.Message, e.Err)
	}
	return fmt.Sprintf("fetch %s error (status %d) for %s: %s",
		e.Class, e.StatusCode, e.URL, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *FetchError) Unwrap() error {
	return e.Err
}
