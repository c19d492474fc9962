package retry

import "time"

// EventType names a step of DoNotify.
type EventType string

const (
	EventAttemptStart  EventType = "attempt_start"
	EventAttemptFailed EventType = "attempt_failed"
	EventRetrying      EventType = "retrying" // before the backoff sleep
	EventSuccess       EventType = "success"
	EventExhausted     EventType = "exhausted"
)

// Event is reported to the notify callback of DoNotify. The executor logs
// EventRetrying with the attempt number and delay.
type Event struct {
	Type        EventType
	Attempt     int // 1-based
	MaxAttempts int
	Error       error
	Delay       time.Duration
	Retryable   bool
	Timestamp   time.Time
}
