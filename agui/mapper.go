package agui

import (
	"github.com/ag-ui-protocol/ag-ui/sdks/community/go/pkg/core/events"

	"github.com/nettee/synphora/event"
)

// Custom event names carrying artifact lifecycle events. AG-UI has no
// artifact vocabulary, so they travel as CUSTOM events whose value holds
// the synphora payload.
const (
	CustomArtifactContentStart    = "artifact_content_start"
	CustomArtifactContentChunk    = "artifact_content_chunk"
	CustomArtifactContentComplete = "artifact_content_complete"
	CustomArtifactListUpdated     = "artifact_list_updated"
)

// Mapper converts synphora events to AG-UI events.
//
// Synphora streams a text message as several TextMessage events sharing a
// message id. AG-UI wants TEXT_MESSAGE_START, CONTENT and END, so the
// mapper tracks the open message and closes it when anything else arrives.
//
// Create a new Mapper for each run using NewMapper. The Mapper is not
// safe for concurrent use.
type Mapper struct {
	threadID string
	runID    string
	open     string
}

// NewMapper creates a new Mapper for a single run.
// The threadID and runID are used in lifecycle events (RUN_STARTED, RUN_FINISHED).
func NewMapper(threadID, runID string) *Mapper {
	if threadID == "" {
		threadID = events.GenerateThreadID()
	}
	if runID == "" {
		runID = events.GenerateRunID()
	}
	return &Mapper{
		threadID: threadID,
		runID:    runID,
	}
}

// ThreadID returns the thread ID for this mapper.
func (m *Mapper) ThreadID() string {
	return m.threadID
}

// RunID returns the run ID for this mapper.
func (m *Mapper) RunID() string {
	return m.runID
}

// RunStarted returns a RUN_STARTED event.
func (m *Mapper) RunStarted() events.Event {
	return events.NewRunStartedEvent(m.threadID, m.runID)
}

// RunFinished returns a RUN_FINISHED event.
func (m *Mapper) RunFinished() events.Event {
	return events.NewRunFinishedEvent(m.threadID, m.runID)
}

// RunError returns a RUN_ERROR event.
func (m *Mapper) RunError(err error) events.Event {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return events.NewRunErrorEvent(msg)
}

// MapEvent converts one synphora event to zero or more AG-UI events.
func (m *Mapper) MapEvent(e event.Event) []events.Event {
	var out []events.Event
	if e.Type != event.TextMessage || e.MessageID != m.open {
		out = m.closeMessage(out)
	}

	switch e.Type {
	case event.RunStarted:
		out = append(out, m.RunStarted())
	case event.RunFinished:
		out = append(out, m.RunFinished())

	case event.TextMessage:
		if m.open == "" {
			m.open = e.MessageID
			out = append(out, events.NewTextMessageStartEvent(e.MessageID, events.WithRole(RoleAssistant)))
		}
		if e.Content != "" {
			out = append(out, events.NewTextMessageContentEvent(e.MessageID, e.Content))
		}

	case event.ArtifactContentStart:
		out = append(out, custom(CustomArtifactContentStart, map[string]any{
			"artifact_id":   e.ArtifactID,
			"title":         e.Title,
			"artifact_type": e.ArtifactType,
		}))
	case event.ArtifactContentChunk:
		out = append(out, custom(CustomArtifactContentChunk, map[string]any{
			"artifact_id": e.ArtifactID,
			"content":     e.Content,
		}))
	case event.ArtifactContentComplete:
		out = append(out, custom(CustomArtifactContentComplete, map[string]any{
			"artifact_id": e.ArtifactID,
		}))
	case event.ArtifactListUpdated:
		out = append(out, custom(CustomArtifactListUpdated, map[string]any{
			"artifact_id":   e.ArtifactID,
			"title":         e.Title,
			"artifact_type": e.ArtifactType,
			"role":          e.Role,
		}))
	}
	return out
}

// Flush closes a text message left open, for streams that end without
// RunFinished.
func (m *Mapper) Flush() []events.Event {
	return m.closeMessage(nil)
}

func (m *Mapper) closeMessage(out []events.Event) []events.Event {
	if m.open == "" {
		return out
	}
	out = append(out, events.NewTextMessageEndEvent(m.open))
	m.open = ""
	return out
}

func custom(name string, value map[string]any) events.Event {
	return events.NewCustomEvent(name, events.WithValue(value))
}
