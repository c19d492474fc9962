package retry

import (
	"context"
	"time"

	"github.com/nettee/synphora"
)

// effectiveDelay returns the delay to use, honoring the server's
// Retry-After when it is larger.
func effectiveDelay(configured time.Duration, err error) time.Duration {
	if server := synphora.RetryAfterOf(err); server > configured {
		return server
	}
	return configured
}

// Do executes fn with retry logic. It respects context cancellation
// during backoff waits and returns the last error if all attempts fail.
func Do[T any](ctx context.Context, cfg Config, fn func() (T, error)) (T, error) {
	return DoNotify(ctx, cfg, nil, fn)
}

// DoNotify is like Do but reports each step to notify. A nil notify is
// equivalent to Do.
func DoNotify[T any](ctx context.Context, cfg Config, notify func(Event), fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error
	report := func(e Event) {
		if notify != nil {
			e.MaxAttempts = cfg.MaxAttempts
			e.Timestamp = time.Now()
			notify(e)
		}
	}

	attempts := max(cfg.MaxAttempts, 1)
	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		report(Event{Type: EventAttemptStart, Attempt: attempt + 1})

		result, err := fn()
		if err == nil {
			report(Event{Type: EventSuccess, Attempt: attempt + 1})
			return result, nil
		}

		lastErr = err
		retryable := IsTransient(err)
		report(Event{Type: EventAttemptFailed, Attempt: attempt + 1, Error: err, Retryable: retryable})
		if !retryable {
			return zero, err
		}

		if attempt < attempts-1 {
			delay := effectiveDelay(cfg.Delay(attempt), err)
			report(Event{Type: EventRetrying, Attempt: attempt + 1, Delay: delay})

			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return zero, ctx.Err()
			case <-timer.C:
			}
		}
	}

	report(Event{Type: EventExhausted, Attempt: attempts, Error: lastErr})
	return zero, lastErr
}
