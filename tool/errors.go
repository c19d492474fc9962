package tool

import "fmt"

// ErrToolNotFound is returned when a tool call references an unregistered tool.
type ErrToolNotFound struct {
	Name string
}

func (e *ErrToolNotFound) Error() string {
	return fmt.Sprintf("tool: unknown tool: %s", e.Name)
}

// ErrToolExecution wraps a failure inside a tool handler. Its message names
// the tool only; the cause is reachable through Unwrap for logging and is
// never meant for the end user.
type ErrToolExecution struct {
	Name string
	Err  error
}

func (e *ErrToolExecution) Error() string {
	return fmt.Sprintf("tool: %s: execution failed", e.Name)
}

// Unwrap returns the underlying error for use with errors.Is and errors.As.
func (e *ErrToolExecution) Unwrap() error {
	return e.Err
}

// ErrToolAlreadyRegistered is returned when registering a tool with a duplicate name.
type ErrToolAlreadyRegistered struct {
	Name string
}

func (e *ErrToolAlreadyRegistered) Error() string {
	return fmt.Sprintf("tool: already registered: %s", e.Name)
}
