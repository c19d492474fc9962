// Package event defines the events streamed to clients during a run and the
// per-run Sink that carries them from the executor to the transport.
//
// The wire format of every event is a JSON object {"type": KIND, "data": {...}}.
// Run lifecycle events carry no data.
package event

import "time"

// Type identifies the kind of event.
type Type string

// Run lifecycle events
const (
	// RunStarted precedes every other event of a run.
	RunStarted Type = "RUN_STARTED"

	// RunFinished follows every other event of a run. It is emitted on
	// every exit path, including failures.
	RunFinished Type = "RUN_FINISHED"
)

// Message events
const (
	// TextMessage carries one piece of assistant text. All pieces produced
	// by one reasoning step share a message ID.
	TextMessage Type = "TEXT_MESSAGE"
)

// Artifact lifecycle events. For one artifact ID they occur in the order
// Start, zero or more Chunk, Complete, then optionally ListUpdated.
const (
	ArtifactContentStart    Type = "ARTIFACT_CONTENT_START"
	ArtifactContentChunk    Type = "ARTIFACT_CONTENT_CHUNK"
	ArtifactContentComplete Type = "ARTIFACT_CONTENT_COMPLETE"

	// ArtifactListUpdated fires once an artifact has been persisted.
	ArtifactListUpdated Type = "ARTIFACT_LIST_UPDATED"
)

// Valid reports whether t is one of the known event kinds.
func (t Type) Valid() bool {
	switch t {
	case RunStarted, RunFinished, TextMessage,
		ArtifactContentStart, ArtifactContentChunk, ArtifactContentComplete,
		ArtifactListUpdated:
		return true
	}
	return false
}

// Event represents one streamed occurrence during a run. Which fields are
// meaningful depends on Type; the JSON encoding only includes those.
type Event struct {
	// Type identifies the kind of event.
	Type Type

	// MessageID groups TextMessage pieces into one message.
	MessageID string

	// Content is the text of a TextMessage or ArtifactContentChunk.
	Content string

	// ArtifactID identifies the artifact for artifact lifecycle events.
	ArtifactID string

	// Title and ArtifactType describe the artifact for Start and
	// ListUpdated events.
	Title        string
	ArtifactType string

	// Role is the artifact role for ListUpdated events.
	Role string

	// Timestamp is when the event was emitted. It is not part of the wire
	// encoding.
	Timestamp time.Time
}

// NewRunStarted returns a RunStarted event.
func NewRunStarted() Event {
	return Event{Type: RunStarted}
}

// NewRunFinished returns a RunFinished event.
func NewRunFinished() Event {
	return Event{Type: RunFinished}
}

// NewTextMessage returns a TextMessage piece of message messageID.
func NewTextMessage(messageID, content string) Event {
	return Event{Type: TextMessage, MessageID: messageID, Content: content}
}

// NewArtifactContentStart announces an artifact whose content is about to stream.
func NewArtifactContentStart(artifactID, title, artifactType string) Event {
	return Event{Type: ArtifactContentStart, ArtifactID: artifactID, Title: title, ArtifactType: artifactType}
}

// NewArtifactContentChunk carries one piece of artifact content.
func NewArtifactContentChunk(artifactID, content string) Event {
	return Event{Type: ArtifactContentChunk, ArtifactID: artifactID, Content: content}
}

// NewArtifactContentComplete marks the end of an artifact's content stream.
func NewArtifactContentComplete(artifactID string) Event {
	return Event{Type: ArtifactContentComplete, ArtifactID: artifactID}
}

// NewArtifactListUpdated reports a persisted artifact.
func NewArtifactListUpdated(artifactID, title, artifactType, role string) Event {
	return Event{Type: ArtifactListUpdated, ArtifactID: artifactID, Title: title, ArtifactType: artifactType, Role: role}
}

// IsArtifact reports whether the event belongs to an artifact lifecycle.
func (e Event) IsArtifact() bool {
	switch e.Type {
	case ArtifactContentStart, ArtifactContentChunk, ArtifactContentComplete, ArtifactListUpdated:
		return true
	}
	return false
}

// Emitter accepts events. Emit must not block on the consumer.
type Emitter interface {
	Emit(e Event)
}

// EmitterFunc adapts a function to the Emitter interface.
type EmitterFunc func(e Event)

// Emit calls f(e).
func (f EmitterFunc) Emit(e Event) { f(e) }

// Discard is an Emitter that drops every event.
var Discard Emitter = EmitterFunc(func(Event) {})
