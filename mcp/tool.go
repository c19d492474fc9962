package mcp

import (
	"encoding/json"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/nettee/synphora"
)

// emptySchema is advertised for tools declared without parameters; MCP
// clients reject a missing input schema.
var emptySchema = json.RawMessage(`{"type":"object","properties":{}}`)

// ToMCPTool converts a synphora Tool to an MCP Tool, using its parameter
// schema verbatim.
func ToMCPTool(t synphora.Tool) mcp.Tool {
	schema := t.Parameters
	if len(schema) == 0 {
		schema = emptySchema
	}
	return mcp.NewToolWithRawSchema(t.Name, t.Description, schema)
}

// ToMCPTools converts a slice of synphora Tools to MCP Tools.
func ToMCPTools(tools []synphora.Tool) []mcp.Tool {
	result := make([]mcp.Tool, len(tools))
	for i, t := range tools {
		result[i] = ToMCPTool(t)
	}
	return result
}

// FromMCPTool converts an MCP Tool to a synphora Tool.
// It extracts the JSON schema from either RawInputSchema or InputSchema.
func FromMCPTool(t mcp.Tool) synphora.Tool {
	var schema json.RawMessage
	if len(t.RawInputSchema) > 0 {
		schema = t.RawInputSchema
	} else if data, err := json.Marshal(t.InputSchema); err == nil {
		schema = data
	}
	return synphora.Tool{
		Name:        t.Name,
		Description: t.Description,
		Parameters:  schema,
	}
}

// ResultText joins the text content of an MCP tool result.
func ResultText(result *mcp.CallToolResult) string {
	if result == nil {
		return ""
	}
	var parts []string
	for _, c := range result.Content {
		switch content := c.(type) {
		case mcp.TextContent:
			parts = append(parts, content.Text)
		case *mcp.TextContent:
			parts = append(parts, content.Text)
		}
	}
	return strings.Join(parts, "\n")
}
