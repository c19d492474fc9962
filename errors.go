package synphora

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrEmptyInput is returned when merging an empty fragment sequence.
var ErrEmptyInput = errors.New("empty input")

// ErrorCategory classifies errors by how they should be handled.
type ErrorCategory string

const (
	// ErrorTransient marks temporary failures (rate limits, overloaded
	// servers, dropped connections). The operation may be retried.
	ErrorTransient ErrorCategory = "transient"

	// ErrorPermanent marks failures retrying cannot fix (bad API key,
	// unknown model).
	ErrorPermanent ErrorCategory = "permanent"

	// ErrorUserInput marks requests that were rejected as malformed.
	ErrorUserInput ErrorCategory = "user_input"
)

// CategorizedError is an error that knows how it should be handled.
type CategorizedError interface {
	error
	Category() ErrorCategory
	StatusCode() int           // HTTP status code if applicable, 0 otherwise
	RetryAfter() time.Duration // suggested retry delay from server, 0 if not available
}

// Error is a categorized error carrying provider metadata.
type Error struct {
	Msg        string
	Cat        ErrorCategory
	Code       int           // HTTP status code, 0 if not applicable
	RetryDelay time.Duration // from Retry-After header, 0 if not available
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Cause)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Cause }

// Category returns the error category.
func (e *Error) Category() ErrorCategory { return e.Cat }

// StatusCode returns the HTTP status code, or 0 if not applicable.
func (e *Error) StatusCode() int { return e.Code }

// RetryAfter returns the suggested retry delay, or 0 if not available.
func (e *Error) RetryAfter() time.Duration { return e.RetryDelay }

// NewTransientError creates a transient error that can be retried.
func NewTransientError(msg string, statusCode int, cause error) *Error {
	return &Error{Msg: msg, Cat: ErrorTransient, Code: statusCode, Cause: cause}
}

// NewPermanentError creates a permanent error that should not be retried.
func NewPermanentError(msg string, statusCode int, cause error) *Error {
	return &Error{Msg: msg, Cat: ErrorPermanent, Code: statusCode, Cause: cause}
}

// NewUserInputError creates an error indicating an invalid request.
func NewUserInputError(msg string, statusCode int, cause error) *Error {
	return &Error{Msg: msg, Cat: ErrorUserInput, Code: statusCode, Cause: cause}
}

// NewStatusError categorizes a provider failure by its HTTP status code.
// 408, 429 and 5xx are transient, 400 and 422 are user input and every
// other code is permanent.
func NewStatusError(provider string, statusCode int, cause error) *Error {
	msg := fmt.Sprintf("%s: request failed with status %d", provider, statusCode)
	switch {
	case statusCode == http.StatusRequestTimeout,
		statusCode == http.StatusTooManyRequests,
		statusCode >= 500 && statusCode < 600:
		return NewTransientError(msg, statusCode, cause)
	case statusCode == http.StatusBadRequest,
		statusCode == http.StatusUnprocessableEntity:
		return NewUserInputError(msg, statusCode, cause)
	default:
		return NewPermanentError(msg, statusCode, cause)
	}
}

// IsTransient returns true if the error is categorized as transient.
func IsTransient(err error) bool {
	return categoryOf(err) == ErrorTransient
}

// IsPermanent returns true if the error is categorized as permanent.
func IsPermanent(err error) bool {
	return categoryOf(err) == ErrorPermanent
}

// IsUserInput returns true if the error is categorized as user input error.
func IsUserInput(err error) bool {
	return categoryOf(err) == ErrorUserInput
}

// RetryAfterOf returns the retry delay from a categorized error, or 0.
func RetryAfterOf(err error) time.Duration {
	var ce CategorizedError
	if errors.As(err, &ce) {
		return ce.RetryAfter()
	}
	return 0
}

func categoryOf(err error) ErrorCategory {
	var ce CategorizedError
	if errors.As(err, &ce) {
		return ce.Category()
	}
	return ""
}
