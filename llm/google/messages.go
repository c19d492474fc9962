package google

import (
	"encoding/json"
	"fmt"

	"google.golang.org/genai"

	"github.com/nettee/synphora"
)

// convertMessages maps the history to Gemini contents. System messages are
// collected into a separate instruction. Gemini answers a function call by
// name, so tool results look up the name of the call they answer.
func convertMessages(messages []synphora.Message) ([]*genai.Content, *genai.Content) {
	var contents []*genai.Content
	var system *genai.Content
	names := make(map[string]string)

	for _, msg := range messages {
		switch msg.Role {
		case synphora.RoleSystem:
			if msg.Content == "" {
				continue
			}
			if system == nil {
				system = &genai.Content{Role: "user"}
			}
			system.Parts = append(system.Parts, &genai.Part{Text: msg.Content})

		case synphora.RoleAssistant:
			var parts []*genai.Part
			if msg.Content != "" {
				parts = append(parts, &genai.Part{Text: msg.Content})
			}
			for _, tc := range msg.ToolCalls {
				names[tc.ID] = tc.Name
				args := map[string]any{}
				if tc.Arguments != "" {
					_ = json.Unmarshal([]byte(tc.Arguments), &args)
				}
				parts = append(parts, &genai.Part{
					FunctionCall: &genai.FunctionCall{ID: tc.ID, Name: tc.Name, Args: args},
				})
			}
			if len(parts) > 0 {
				contents = append(contents, &genai.Content{Role: "model", Parts: parts})
			}

		case synphora.RoleTool:
			var result map[string]any
			if err := json.Unmarshal([]byte(msg.Content), &result); err != nil {
				result = map[string]any{"result": msg.Content}
			}
			name := names[msg.ToolCallID]
			if name == "" {
				name = msg.ToolCallID
			}
			contents = append(contents, &genai.Content{
				Role: "user",
				Parts: []*genai.Part{{
					FunctionResponse: &genai.FunctionResponse{
						ID:       msg.ToolCallID,
						Name:     name,
						Response: result,
					},
				}},
			})

		default:
			if msg.Content != "" {
				contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleUser))
			}
		}
	}

	return contents, system
}

func convertTools(tools []synphora.Tool) []*genai.Tool {
	funcs := make([]*genai.FunctionDeclaration, len(tools))
	for i, t := range tools {
		funcs[i] = &genai.FunctionDeclaration{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  convertJSONSchema(t.Parameters),
		}
	}
	return []*genai.Tool{{FunctionDeclarations: funcs}}
}

func extractToolCalls(calls []*genai.FunctionCall) []synphora.ToolCall {
	var result []synphora.ToolCall
	for i, fc := range calls {
		args, _ := json.Marshal(fc.Args)
		id := fc.ID
		if id == "" {
			id = fmt.Sprintf("call_%d_%s", i, fc.Name)
		}
		result = append(result, synphora.ToolCall{
			ID:        id,
			Name:      fc.Name,
			Arguments: string(args),
		})
	}
	return result
}
