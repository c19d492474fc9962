package tool

import (
	"encoding/json"

	"github.com/google/jsonschema-go/jsonschema"
)

// SchemaFor generates the JSON schema of the argument struct T.
// Field descriptions come from `jsonschema:"..."` struct tags; fields
// without `omitempty` are required.
func SchemaFor[T any]() (json.RawMessage, error) {
	schema, err := jsonschema.For[T](&jsonschema.ForOptions{})
	if err != nil {
		return nil, err
	}
	return json.Marshal(schema)
}

// MustSchemaFor is like SchemaFor but panics on error.
func MustSchemaFor[T any]() json.RawMessage {
	schema, err := SchemaFor[T]()
	if err != nil {
		panic(err)
	}
	return schema
}
