package synphora

import "github.com/google/uuid"

// Role represents the role of a message sender in a conversation.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// Message represents a single message in a conversation.
// Messages are immutable once appended to a history.
type Message struct {
	// ID is an optional unique identifier for the message.
	ID      string `json:"id,omitempty"`
	Role    Role   `json:"role"`
	Content string `json:"content,omitempty"`
	// ToolCalls contains tool invocation requests from an assistant message.
	// Only populated when Role is RoleAssistant and the model wants to use tools.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
	// ToolCallID links a RoleTool message to the invocation it answers.
	ToolCallID string `json:"tool_call_id,omitempty"`
}

// NewID returns a short random identifier, used for runs and messages.
func NewID() string {
	return uuid.New().String()[:8]
}

// GenerateMessageID creates a unique message identifier.
func GenerateMessageID() string {
	return "msg-" + uuid.New().String()
}

// SystemMessage returns a system message with the given content.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// UserMessage returns a user message with the given content.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// NewToolResultMessage creates the message answering the tool call callID.
func NewToolResultMessage(callID, content string) Message {
	return Message{
		Role:       RoleTool,
		Content:    content,
		ToolCallID: callID,
	}
}

// Fragment is one incremental piece of a streamed model response.
type Fragment struct {
	// ID identifies the response the fragment belongs to. Providers set it
	// on the first fragment they emit; later fragments may leave it empty.
	ID string
	// Text is the incremental text content.
	Text string
	// ToolCalls carries complete tool invocation requests.
	ToolCalls []ToolCall
	// Err contains any error that occurred during streaming. A fragment
	// carrying an error is the last one on its stream.
	Err error
}
