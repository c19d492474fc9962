package retry

import (
	"context"
	"errors"
	"net"
	"net/url"
	"strings"
	"syscall"

	"github.com/nettee/synphora"
)

// statusCoder is implemented by errors that carry an HTTP status code.
type statusCoder interface {
	StatusCode() int
}

// stopError marks an error as not retryable regardless of its cause.
type stopError struct {
	err error
}

func (e *stopError) Error() string { return e.err.Error() }
func (e *stopError) Unwrap() error { return e.err }

// Stop wraps err so that Do returns it without retrying. The original
// error stays reachable through errors.Is and errors.As.
func Stop(err error) error {
	if err == nil {
		return nil
	}
	return &stopError{err: err}
}

// IsTransient determines if an error is transient and should be retried.
// Errors implementing synphora.CategorizedError are trusted; otherwise the
// decision falls back to heuristics:
//   - deadline expiry
//   - rate limits (HTTP 429) and server errors (HTTP 5xx)
//   - network timeouts, connection resets and temporary DNS failures
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var stop *stopError
	if errors.As(err, &stop) {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	var ce synphora.CategorizedError
	if errors.As(err, &ce) {
		return ce.Category() == synphora.ErrorTransient
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var sc statusCoder
	if errors.As(err, &sc) && isTransientStatusCode(sc.StatusCode()) {
		return true
	}

	return isTransientNetworkError(err)
}

// isTransientStatusCode checks if an HTTP status code indicates a transient error.
func isTransientStatusCode(code int) bool {
	return code == 408 || code == 429 || (code >= 500 && code < 600)
}

var transientPatterns = []string{
	"connection reset",
	"connection refused",
	"timeout",
	"temporary failure",
	"service unavailable",
	"too many requests",
	"rate limit",
	"server error",
	"bad gateway",
	"gateway timeout",
}

// isTransientNetworkError checks for network-level transient errors.
func isTransientNetworkError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Timeout() {
			return true
		}
		if urlErr.Err != nil && isTransientNetworkError(urlErr.Err) {
			return true
		}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.IsTemporary
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.ECONNRESET, syscall.ECONNREFUSED, syscall.ETIMEDOUT:
			return true
		}
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range transientPatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
