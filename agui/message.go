package agui

import (
	"github.com/ag-ui-protocol/ag-ui/sdks/community/go/pkg/core/events"

	"github.com/nettee/synphora"
)

// Role constants matching AG-UI protocol.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
	RoleTool      = "tool"
)

// ToMessages converts AG-UI messages to synphora messages.
func ToMessages(msgs []events.Message) []synphora.Message {
	result := make([]synphora.Message, 0, len(msgs))
	for _, msg := range msgs {
		result = append(result, ToMessage(msg))
	}
	return result
}

// ToMessage converts a single AG-UI message to a synphora message.
func ToMessage(msg events.Message) synphora.Message {
	m := synphora.Message{
		ID:   msg.ID,
		Role: toRole(msg.Role),
	}
	if msg.Content != nil {
		m.Content = *msg.Content
	}

	if len(msg.ToolCalls) > 0 {
		m.ToolCalls = make([]synphora.ToolCall, len(msg.ToolCalls))
		for i, tc := range msg.ToolCalls {
			m.ToolCalls[i] = synphora.ToolCall{
				ID:        tc.ID,
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			}
		}
	}

	if msg.ToolCallID != nil {
		m.ToolCallID = *msg.ToolCallID
	}
	return m
}

// FromMessages converts synphora messages to AG-UI messages, for
// MESSAGES_SNAPSHOT events.
func FromMessages(msgs []synphora.Message) []events.Message {
	result := make([]events.Message, 0, len(msgs))
	for _, msg := range msgs {
		result = append(result, FromMessage(msg))
	}
	return result
}

// FromMessage converts a single synphora message to an AG-UI message.
// A message without an ID gets a generated one.
func FromMessage(msg synphora.Message) events.Message {
	id := msg.ID
	if id == "" {
		id = events.GenerateMessageID()
	}
	m := events.Message{
		ID:   id,
		Role: fromRole(msg.Role),
	}
	if msg.Content != "" {
		content := msg.Content
		m.Content = &content
	}

	if len(msg.ToolCalls) > 0 {
		m.ToolCalls = make([]events.ToolCall, len(msg.ToolCalls))
		for i, tc := range msg.ToolCalls {
			m.ToolCalls[i] = events.ToolCall{
				ID:   tc.ID,
				Type: "function",
				Function: events.Function{
					Name:      tc.Name,
					Arguments: tc.Arguments,
				},
			}
		}
	}

	if msg.ToolCallID != "" {
		callID := msg.ToolCallID
		m.ToolCallID = &callID
	}
	return m
}

func toRole(role string) synphora.Role {
	switch role {
	case RoleAssistant:
		return synphora.RoleAssistant
	case RoleSystem:
		return synphora.RoleSystem
	case RoleTool:
		return synphora.RoleTool
	default:
		return synphora.RoleUser
	}
}

func fromRole(role synphora.Role) string {
	switch role {
	case synphora.RoleAssistant:
		return RoleAssistant
	case synphora.RoleSystem:
		return RoleSystem
	case synphora.RoleTool:
		return RoleTool
	default:
		return RoleUser
	}
}
