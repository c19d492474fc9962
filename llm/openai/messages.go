package openai

import (
	"encoding/json"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/shared"

	"github.com/nettee/synphora"
)

func convertMessages(messages []synphora.Message) []openai.ChatCompletionMessageParamUnion {
	var result []openai.ChatCompletionMessageParamUnion
	for _, msg := range messages {
		switch msg.Role {
		case synphora.RoleSystem:
			if msg.Content != "" {
				result = append(result, openai.SystemMessage(msg.Content))
			}
		case synphora.RoleAssistant:
			if len(msg.ToolCalls) > 0 {
				toolCalls := make([]openai.ChatCompletionMessageToolCallParam, len(msg.ToolCalls))
				for i, tc := range msg.ToolCalls {
					toolCalls[i] = openai.ChatCompletionMessageToolCallParam{
						ID: tc.ID,
						Function: openai.ChatCompletionMessageToolCallFunctionParam{
							Name:      tc.Name,
							Arguments: tc.Arguments,
						},
					}
				}
				assistantMsg := openai.ChatCompletionAssistantMessageParam{ToolCalls: toolCalls}
				if msg.Content != "" {
					assistantMsg.Content = openai.ChatCompletionAssistantMessageParamContentUnion{
						OfString: openai.String(msg.Content),
					}
				}
				result = append(result, openai.ChatCompletionMessageParamUnion{OfAssistant: &assistantMsg})
			} else if msg.Content != "" {
				result = append(result, openai.AssistantMessage(msg.Content))
			}
		case synphora.RoleTool:
			result = append(result, openai.ToolMessage(msg.Content, msg.ToolCallID))
		default:
			if msg.Content != "" {
				result = append(result, openai.UserMessage(msg.Content))
			}
		}
	}
	return result
}

func convertTools(tools []synphora.Tool) []openai.ChatCompletionToolParam {
	result := make([]openai.ChatCompletionToolParam, len(tools))
	for i, t := range tools {
		var params shared.FunctionParameters
		if len(t.Parameters) > 0 {
			_ = json.Unmarshal(t.Parameters, &params)
		}
		result[i] = openai.ChatCompletionToolParam{
			Function: shared.FunctionDefinitionParam{
				Name:        t.Name,
				Description: openai.String(t.Description),
				Parameters:  params,
			},
		}
	}
	return result
}

func extractToolCalls(toolCalls []openai.ChatCompletionMessageToolCall) []synphora.ToolCall {
	if len(toolCalls) == 0 {
		return nil
	}
	result := make([]synphora.ToolCall, len(toolCalls))
	for i, tc := range toolCalls {
		result[i] = synphora.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		}
	}
	return result
}
