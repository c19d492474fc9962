package synphora

import (
	"encoding/json"
	"fmt"
)

// Tool defines a function that can be called by the model.
type Tool struct {
	// Name is the unique identifier for the tool.
	Name string
	// Description explains what the tool does (helps the model decide when to use it).
	Description string
	// Parameters is a JSON Schema object defining the function parameters.
	Parameters json.RawMessage
}

// ToolCall represents a request from the model to invoke a tool.
type ToolCall struct {
	// ID is a unique identifier for this tool call (used to match results).
	ID string `json:"id"`
	// Name is the name of the tool to invoke.
	Name string `json:"name"`
	// Arguments is a JSON object containing the arguments to pass.
	Arguments string `json:"arguments"`
}

// Args decodes the call arguments into a string-keyed mapping.
// Empty arguments decode to an empty map.
func (c ToolCall) Args() (map[string]any, error) {
	args := map[string]any{}
	if c.Arguments == "" {
		return args, nil
	}
	if err := json.Unmarshal([]byte(c.Arguments), &args); err != nil {
		return nil, fmt.Errorf("decode arguments for %s: %w", c.Name, err)
	}
	return args, nil
}
