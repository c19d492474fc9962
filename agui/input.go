package agui

import (
	"encoding/json"
	"errors"

	"github.com/ag-ui-protocol/ag-ui/sdks/community/go/pkg/core/events"

	"github.com/nettee/synphora"
)

// RunAgentInput represents the AG-UI protocol request for running an agent.
// It follows the AG-UI RunAgentInput shape and is transport-agnostic.
type RunAgentInput struct {
	ThreadID       string           `json:"thread_id"`
	RunID          string           `json:"run_id"`
	Messages       []events.Message `json:"messages"`
	Tools          []any            `json:"tools,omitempty"`
	Context        []any            `json:"context,omitempty"`
	State          any              `json:"state,omitempty"`
	ForwardedProps any              `json:"forwarded_props,omitempty"`
}

// State is the frontend state synphora reads from a run request.
type State struct {
	// ArtifactID is the artifact selected in the editor, if any.
	ArtifactID string `json:"artifact_id,omitempty"`
}

// PreparedInput contains validated and converted input ready for a run.
type PreparedInput struct {
	ThreadID string
	RunID    string

	// Messages is the converted conversation, as sent by the frontend.
	Messages []synphora.Message

	// Text is the content of the latest user message.
	Text string

	// ArtifactID is the selected artifact from the frontend state.
	ArtifactID string
}

var (
	// ErrNoMessages is returned when the input contains no messages.
	ErrNoMessages = errors.New("agui: no messages provided")

	// ErrNoUserMessage is returned when no message has the user role.
	ErrNoUserMessage = errors.New("agui: no user message provided")
)

// Prepare validates the input and converts it to synphora types.
func (r *RunAgentInput) Prepare() (*PreparedInput, error) {
	messages := ToMessages(r.Messages)
	if len(messages) == 0 {
		return nil, ErrNoMessages
	}

	text, ok := lastUserText(messages)
	if !ok {
		return nil, ErrNoUserMessage
	}

	state, err := DecodeState[State](r.State)
	if err != nil {
		return nil, err
	}

	return &PreparedInput{
		ThreadID:   r.ThreadID,
		RunID:      r.RunID,
		Messages:   messages,
		Text:       text,
		ArtifactID: state.ArtifactID,
	}, nil
}

func lastUserText(messages []synphora.Message) (string, bool) {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == synphora.RoleUser {
			return messages[i].Content, true
		}
	}
	return "", false
}

// DecodeState decodes raw frontend state into a typed struct.
// Returns the zero value of T if raw is nil.
func DecodeState[T any](raw any) (T, error) {
	var result T
	if raw == nil {
		return result, nil
	}

	// Re-marshal and unmarshal to get proper typing
	data, err := json.Marshal(raw)
	if err != nil {
		return result, err
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return result, err
	}
	return result, nil
}
