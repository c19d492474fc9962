package google

import (
	"encoding/json"

	"google.golang.org/genai"
)

// convertJSONSchema converts a JSON Schema document to a genai Schema.
// Keywords Gemini does not understand are dropped.
func convertJSONSchema(schemaJSON json.RawMessage) *genai.Schema {
	if len(schemaJSON) == 0 {
		return nil
	}
	var schema map[string]any
	if err := json.Unmarshal(schemaJSON, &schema); err != nil {
		return nil
	}
	return convertSchemaObject(schema)
}

var schemaTypes = map[string]genai.Type{
	"string":  genai.TypeString,
	"number":  genai.TypeNumber,
	"integer": genai.TypeInteger,
	"boolean": genai.TypeBoolean,
	"array":   genai.TypeArray,
	"object":  genai.TypeObject,
}

func convertSchemaObject(schema map[string]any) *genai.Schema {
	result := &genai.Schema{}

	if typeVal, ok := schema["type"].(string); ok {
		result.Type = schemaTypes[typeVal]
	}
	if desc, ok := schema["description"].(string); ok {
		result.Description = desc
	}
	if enumVal, ok := schema["enum"].([]any); ok {
		for _, e := range enumVal {
			if s, ok := e.(string); ok {
				result.Enum = append(result.Enum, s)
			}
		}
	}
	if props, ok := schema["properties"].(map[string]any); ok {
		result.Properties = make(map[string]*genai.Schema, len(props))
		for name, propSchema := range props {
			if propMap, ok := propSchema.(map[string]any); ok {
				result.Properties[name] = convertSchemaObject(propMap)
			}
		}
	}
	if required, ok := schema["required"].([]any); ok {
		for _, r := range required {
			if s, ok := r.(string); ok {
				result.Required = append(result.Required, s)
			}
		}
	}
	if items, ok := schema["items"].(map[string]any); ok {
		result.Items = convertSchemaObject(items)
	}

	return result
}
