package agent

import (
	"errors"
	"fmt"

	"github.com/nettee/synphora/tool"
)

// ErrNoToolCall is recorded when Act is entered without a tool call. It
// indicates a bug in the executor, not a user-facing condition.
var ErrNoToolCall = errors.New("agent: act entered without a tool call")

// ModelCallError reports a model call that failed after retries.
type ModelCallError struct {
	Attempts int
	Err      error
}

func (e *ModelCallError) Error() string {
	return fmt.Sprintf("agent: model call failed: %v", e.Err)
}

func (e *ModelCallError) Unwrap() error { return e.Err }

// MaxIterationsExceededError reports a run stopped by the iteration limit.
type MaxIterationsExceededError struct {
	Max int
}

func (e *MaxIterationsExceededError) Error() string {
	return fmt.Sprintf("agent: max iterations (%d) exceeded", e.Max)
}

// FallbackText returns the message shown to the user when a run ends with
// err, or "" when err warrants no message.
func FallbackText(err error) string {
	var (
		modelErr *ModelCallError
		maxErr   *MaxIterationsExceededError
		notFound *tool.ErrToolNotFound
		execErr  *tool.ErrToolExecution
	)
	switch {
	case errors.As(err, &maxErr):
		return fmt.Sprintf("Sorry, I stopped after %d reasoning steps without finishing (max iterations exceeded).", maxErr.Max)
	case errors.As(err, &notFound):
		return fmt.Sprintf("Sorry, I can't do that: unknown tool %q.", notFound.Name)
	case errors.As(err, &execErr):
		return fmt.Sprintf("Sorry, the %s tool failed (tool execution error).", execErr.Name)
	case errors.As(err, &modelErr):
		return "Sorry, the language model is unavailable right now. Please try again later."
	}
	return ""
}
