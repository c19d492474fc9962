package tool

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kaptinlin/jsonrepair"
)

// DecodeArgs unmarshals tool call arguments into v. Models occasionally
// produce slightly malformed JSON (trailing commas, single quotes, missing
// braces); on a syntax error the arguments are repaired and decoded again.
// Empty arguments decode as an empty object.
func DecodeArgs(arguments string, v any) error {
	if arguments == "" {
		arguments = "{}"
	}
	err := json.Unmarshal([]byte(arguments), v)
	if err == nil {
		return nil
	}
	var syntaxErr *json.SyntaxError
	if !errors.As(err, &syntaxErr) {
		return err
	}
	fixed, repairErr := jsonrepair.JSONRepair(arguments)
	if repairErr != nil {
		return fmt.Errorf("tool: decode arguments %q: %w", arguments, err)
	}
	return json.Unmarshal([]byte(fixed), v)
}
