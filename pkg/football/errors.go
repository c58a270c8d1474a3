package football

import (
	"errors"
	"fmt"
)

// ErrorClass represents a classification of upstream failures.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors other than 429.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassRateLimit represents 429 Too Many Requests.
	ErrorClassRateLimit ErrorClass = "rate_limit"

	// ErrorClassNetwork represents transport errors and timeouts.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassDecode represents a 2xx response whose body could not be decoded.
	ErrorClassDecode ErrorClass = "decode"
)

var (
	// ErrInvalidWindow is returned for a window with a non-positive limit
	// or a negative offset. No request is made.
	ErrInvalidWindow = errors.New("invalid fetch window")

	// ErrCooldownCancelled is returned when the context ends during a cooldown.
	ErrCooldownCancelled = errors.New("cooldown cancelled")
)

// APIError describes a failed window request.
type APIError struct {
	Window     Window
	StatusCode int
	Class      ErrorClass
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("football-data %s error (status %d, %s): %s: %v",
			e.Class, e.StatusCode, e.Window, e.Message, e.Err)
	}
	return fmt.Sprintf("football-data %s error (status %d, %s): %s",
		e.Class, e.StatusCode, e.Window, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *APIError) Unwrap() error {
	return e.Err
}

// IsRateLimited reports whether err is a rate-limit APIError.
func IsRateLimited(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Class == ErrorClassRateLimit
}

// shouldRetry determines if a failure earns the single cooldown-and-retry.
// Only rate limiting does; everything else degrades to an empty window.
func shouldRetry(class ErrorClass) bool {
	return class == ErrorClassRateLimit
}
