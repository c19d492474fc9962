package event

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

type textMessageData struct {
	MessageID string `json:"message_id"`
	Content   string `json:"content"`
}

type artifactContentStartData struct {
	ArtifactID   string `json:"artifact_id"`
	Title        string `json:"title"`
	ArtifactType string `json:"artifact_type"`
}

type artifactContentChunkData struct {
	ArtifactID string `json:"artifact_id"`
	Content    string `json:"content"`
}

type artifactContentCompleteData struct {
	ArtifactID string `json:"artifact_id"`
}

type artifactListUpdatedData struct {
	ArtifactID   string `json:"artifact_id"`
	Title        string `json:"title"`
	ArtifactType string `json:"artifact_type"`
	Role         string `json:"role"`
}

type envelope struct {
	Type Type            `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// MarshalJSON encodes the event as {"type": KIND, "data": {...}}.
func (e Event) MarshalJSON() ([]byte, error) {
	var data any
	switch e.Type {
	case RunStarted, RunFinished:
	case TextMessage:
		data = textMessageData{MessageID: e.MessageID, Content: e.Content}
	case ArtifactContentStart:
		data = artifactContentStartData{ArtifactID: e.ArtifactID, Title: e.Title, ArtifactType: e.ArtifactType}
	case ArtifactContentChunk:
		data = artifactContentChunkData{ArtifactID: e.ArtifactID, Content: e.Content}
	case ArtifactContentComplete:
		data = artifactContentCompleteData{ArtifactID: e.ArtifactID}
	case ArtifactListUpdated:
		data = artifactListUpdatedData{ArtifactID: e.ArtifactID, Title: e.Title, ArtifactType: e.ArtifactType, Role: e.Role}
	default:
		return nil, fmt.Errorf("event: unknown type %q", e.Type)
	}

	env := envelope{Type: e.Type}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		env.Data = raw
	}
	return json.Marshal(env)
}

// UnmarshalJSON decodes the wire encoding produced by MarshalJSON.
func (e *Event) UnmarshalJSON(b []byte) error {
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return err
	}
	if !env.Type.Valid() {
		return fmt.Errorf("event: unknown type %q", env.Type)
	}

	*e = Event{Type: env.Type}
	decode := func(v any) error {
		if len(env.Data) == 0 {
			return fmt.Errorf("event: %s without data", env.Type)
		}
		return json.Unmarshal(env.Data, v)
	}

	switch env.Type {
	case TextMessage:
		var d textMessageData
		if err := decode(&d); err != nil {
			return err
		}
		e.MessageID, e.Content = d.MessageID, d.Content
	case ArtifactContentStart:
		var d artifactContentStartData
		if err := decode(&d); err != nil {
			return err
		}
		e.ArtifactID, e.Title, e.ArtifactType = d.ArtifactID, d.Title, d.ArtifactType
	case ArtifactContentChunk:
		var d artifactContentChunkData
		if err := decode(&d); err != nil {
			return err
		}
		e.ArtifactID, e.Content = d.ArtifactID, d.Content
	case ArtifactContentComplete:
		var d artifactContentCompleteData
		if err := decode(&d); err != nil {
			return err
		}
		e.ArtifactID = d.ArtifactID
	case ArtifactListUpdated:
		var d artifactListUpdatedData
		if err := decode(&d); err != nil {
			return err
		}
		e.ArtifactID, e.Title, e.ArtifactType, e.Role = d.ArtifactID, d.Title, d.ArtifactType, d.Role
	}
	return nil
}

// WriteSSE writes e as one Server-Sent-Events frame: "data: <json>\n\n".
func WriteSSE(w io.Writer, e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	buf.Grow(len(data) + 8)
	buf.WriteString("data: ")
	buf.Write(data)
	buf.WriteString("\n\n")
	_, err = w.Write(buf.Bytes())
	return err
}

// SSEReader decodes a stream written with WriteSSE.
type SSEReader struct {
	scanner *bufio.Scanner
}

// NewSSEReader returns a reader decoding frames from r.
func NewSSEReader(r io.Reader) *SSEReader {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	return &SSEReader{scanner: s}
}

// Next returns the next event, or io.EOF at the end of the stream.
// Lines other than "data:" lines are skipped.
func (r *SSEReader) Next() (Event, error) {
	for r.scanner.Scan() {
		line := r.scanner.Text()
		payload, ok := strings.CutPrefix(line, "data:")
		if !ok {
			continue
		}
		var e Event
		if err := json.Unmarshal([]byte(strings.TrimSpace(payload)), &e); err != nil {
			return Event{}, fmt.Errorf("event: decode sse frame: %w", err)
		}
		return e, nil
	}
	if err := r.scanner.Err(); err != nil {
		return Event{}, err
	}
	return Event{}, io.EOF
}
