package anthropic

import (
	"encoding/json"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/nettee/synphora"
)

// convertMessages splits the history into Anthropic messages and system
// blocks. Consecutive tool results are sent together in one user message.
func convertMessages(messages []synphora.Message) ([]anthropic.MessageParam, []anthropic.TextBlockParam) {
	var result []anthropic.MessageParam
	var system []anthropic.TextBlockParam
	var results []anthropic.ContentBlockParamUnion

	flush := func() {
		if len(results) > 0 {
			result = append(result, anthropic.MessageParam{
				Role:    anthropic.MessageParamRoleUser,
				Content: results,
			})
			results = nil
		}
	}

	for _, msg := range messages {
		if msg.Role == synphora.RoleTool {
			results = append(results, anthropic.NewToolResultBlock(msg.ToolCallID, msg.Content, false))
			continue
		}
		flush()

		switch msg.Role {
		case synphora.RoleSystem:
			// Anthropic rejects empty text blocks.
			if msg.Content != "" {
				system = append(system, anthropic.TextBlockParam{Text: msg.Content})
			}
		case synphora.RoleAssistant:
			if len(msg.ToolCalls) > 0 {
				var blocks []anthropic.ContentBlockParamUnion
				if msg.Content != "" {
					blocks = append(blocks, anthropic.NewTextBlock(msg.Content))
				}
				for _, tc := range msg.ToolCalls {
					var input any = map[string]any{}
					if tc.Arguments != "" {
						_ = json.Unmarshal([]byte(tc.Arguments), &input)
					}
					blocks = append(blocks, anthropic.NewToolUseBlock(tc.ID, input, tc.Name))
				}
				result = append(result, anthropic.MessageParam{
					Role:    anthropic.MessageParamRoleAssistant,
					Content: blocks,
				})
			} else if msg.Content != "" {
				result = append(result, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
			}
		default:
			if msg.Content != "" {
				result = append(result, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
			}
		}
	}
	flush()

	return result, system
}

func convertTools(tools []synphora.Tool) []anthropic.ToolUnionParam {
	result := make([]anthropic.ToolUnionParam, len(tools))
	for i, t := range tools {
		var schema map[string]any
		if len(t.Parameters) > 0 {
			_ = json.Unmarshal(t.Parameters, &schema)
		}

		var required []string
		if reqVal, ok := schema["required"].([]any); ok {
			for _, r := range reqVal {
				if s, ok := r.(string); ok {
					required = append(required, s)
				}
			}
		}

		toolParam := anthropic.ToolParam{
			Name:        t.Name,
			Description: anthropic.String(t.Description),
			InputSchema: anthropic.ToolInputSchemaParam{
				Properties: schema["properties"],
				Required:   required,
			},
		}
		result[i] = anthropic.ToolUnionParam{OfTool: &toolParam}
	}
	return result
}

func extractToolCalls(content []anthropic.ContentBlockUnion) []synphora.ToolCall {
	var calls []synphora.ToolCall
	for _, block := range content {
		if block.Type == "tool_use" {
			calls = append(calls, synphora.ToolCall{
				ID:        block.ID,
				Name:      block.Name,
				Arguments: string(block.Input),
			})
		}
	}
	return calls
}
