package agui

import (
	"errors"
	"testing"

	"github.com/ag-ui-protocol/ag-ui/sdks/community/go/pkg/core/events"

	"github.com/nettee/synphora"
	"github.com/nettee/synphora/event"
)

func TestNewMapper(t *testing.T) {
	t.Run("with provided IDs", func(t *testing.T) {
		m := NewMapper("thread-123", "run-456")
		if m.ThreadID() != "thread-123" {
			t.Errorf("expected thread ID 'thread-123', got %q", m.ThreadID())
		}
		if m.RunID() != "run-456" {
			t.Errorf("expected run ID 'run-456', got %q", m.RunID())
		}
	})

	t.Run("generates IDs when empty", func(t *testing.T) {
		m := NewMapper("", "")
		if m.ThreadID() == "" {
			t.Error("expected generated thread ID, got empty")
		}
		if m.RunID() == "" {
			t.Error("expected generated run ID, got empty")
		}
	})
}

func TestMapper_LifecycleEvents(t *testing.T) {
	m := NewMapper("thread-1", "run-1")

	if ev := m.RunStarted(); ev.Type() != events.EventTypeRunStarted {
		t.Errorf("expected RUN_STARTED, got %s", ev.Type())
	}
	if ev := m.RunFinished(); ev.Type() != events.EventTypeRunFinished {
		t.Errorf("expected RUN_FINISHED, got %s", ev.Type())
	}
	if ev := m.RunError(errors.New("test error")); ev.Type() != events.EventTypeRunError {
		t.Errorf("expected RUN_ERROR, got %s", ev.Type())
	}
}

func typesOf(evs []events.Event) []events.EventType {
	out := make([]events.EventType, len(evs))
	for i, ev := range evs {
		out[i] = ev.Type()
	}
	return out
}

func mapAll(m *Mapper, in []event.Event) []events.Event {
	var out []events.Event
	for _, e := range in {
		out = append(out, m.MapEvent(e)...)
	}
	return out
}

func equalTypes(t *testing.T, got, want []events.EventType) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d events %v, want %d %v", len(got), got, len(want), want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestMapper_TextMessages(t *testing.T) {
	m := NewMapper("thread-1", "run-1")
	out := mapAll(m, []event.Event{
		event.NewRunStarted(),
		event.NewTextMessage("m1", "Hel"),
		event.NewTextMessage("m1", "lo"),
		event.NewTextMessage("m2", "Sorry"),
		event.NewRunFinished(),
	})

	equalTypes(t, typesOf(out), []events.EventType{
		events.EventTypeRunStarted,
		events.EventTypeTextMessageStart,
		events.EventTypeTextMessageContent,
		events.EventTypeTextMessageContent,
		events.EventTypeTextMessageEnd,
		events.EventTypeTextMessageStart,
		events.EventTypeTextMessageContent,
		events.EventTypeTextMessageEnd,
		events.EventTypeRunFinished,
	})

	content, ok := out[2].(*events.TextMessageContentEvent)
	if !ok {
		t.Fatalf("expected *TextMessageContentEvent, got %T", out[2])
	}
	if content.Delta != "Hel" {
		t.Errorf("Delta = %q, want %q", content.Delta, "Hel")
	}
}

func TestMapper_ArtifactEvents(t *testing.T) {
	m := NewMapper("thread-1", "run-1")
	out := mapAll(m, []event.Event{
		event.NewTextMessage("m1", "Working on it."),
		event.NewArtifactContentStart("a2", "Comment: Draft", "comment"),
		event.NewArtifactContentChunk("a2", "Good."),
		event.NewArtifactContentComplete("a2"),
		event.NewArtifactListUpdated("a2", "Comment: Draft", "comment", "assistant"),
	})

	equalTypes(t, typesOf(out), []events.EventType{
		events.EventTypeTextMessageStart,
		events.EventTypeTextMessageContent,
		events.EventTypeTextMessageEnd,
		events.EventTypeCustom,
		events.EventTypeCustom,
		events.EventTypeCustom,
		events.EventTypeCustom,
	})

	wantNames := []string{
		CustomArtifactContentStart,
		CustomArtifactContentChunk,
		CustomArtifactContentComplete,
		CustomArtifactListUpdated,
	}
	for i, name := range wantNames {
		ev, ok := out[3+i].(*events.CustomEvent)
		if !ok {
			t.Fatalf("expected *CustomEvent, got %T", out[3+i])
		}
		if ev.Name != name {
			t.Errorf("Name = %q, want %q", ev.Name, name)
		}
		value, ok := ev.Value.(map[string]any)
		if !ok {
			t.Fatalf("expected map value, got %T", ev.Value)
		}
		if value["artifact_id"] != "a2" {
			t.Errorf("artifact_id = %v, want a2", value["artifact_id"])
		}
	}
}

func TestMapper_Flush(t *testing.T) {
	m := NewMapper("thread-1", "run-1")
	m.MapEvent(event.NewTextMessage("m1", "partial"))

	out := m.Flush()
	equalTypes(t, typesOf(out), []events.EventType{events.EventTypeTextMessageEnd})

	if out := m.Flush(); len(out) != 0 {
		t.Errorf("second Flush returned %d events, want 0", len(out))
	}
}

func TestMapper_EmptyTextPiece(t *testing.T) {
	m := NewMapper("thread-1", "run-1")
	out := m.MapEvent(event.NewTextMessage("m1", ""))
	equalTypes(t, typesOf(out), []events.EventType{events.EventTypeTextMessageStart})
}

func TestToMessage(t *testing.T) {
	t.Run("user message", func(t *testing.T) {
		content := "Hello"
		m := ToMessage(events.Message{ID: "msg-1", Role: "user", Content: &content})
		if m.Role != synphora.RoleUser {
			t.Errorf("Role = %q, want user", m.Role)
		}
		if m.Content != "Hello" {
			t.Errorf("Content = %q, want Hello", m.Content)
		}
		if m.ID != "msg-1" {
			t.Errorf("ID = %q, want msg-1", m.ID)
		}
	})

	t.Run("assistant with tool calls", func(t *testing.T) {
		m := ToMessage(events.Message{
			ID:   "msg-2",
			Role: "assistant",
			ToolCalls: []events.ToolCall{{
				ID:       "call-1",
				Type:     "function",
				Function: events.Function{Name: "write_comment", Arguments: `{"original_artifact_id":"a1"}`},
			}},
		})
		if len(m.ToolCalls) != 1 {
			t.Fatalf("len(ToolCalls) = %d, want 1", len(m.ToolCalls))
		}
		if m.ToolCalls[0].Name != "write_comment" {
			t.Errorf("Name = %q, want write_comment", m.ToolCalls[0].Name)
		}
	})

	t.Run("tool result", func(t *testing.T) {
		content := `{"artifact_id":"a2"}`
		callID := "call-1"
		m := ToMessage(events.Message{ID: "msg-3", Role: "tool", Content: &content, ToolCallID: &callID})
		if m.Role != synphora.RoleTool {
			t.Errorf("Role = %q, want tool", m.Role)
		}
		if m.ToolCallID != "call-1" {
			t.Errorf("ToolCallID = %q, want call-1", m.ToolCallID)
		}
	})

	t.Run("unknown role defaults to user", func(t *testing.T) {
		m := ToMessage(events.Message{Role: "developer"})
		if m.Role != synphora.RoleUser {
			t.Errorf("Role = %q, want user", m.Role)
		}
	})
}

func TestFromMessage(t *testing.T) {
	t.Run("round trips tool calls", func(t *testing.T) {
		in := synphora.Message{
			Role:      synphora.RoleAssistant,
			ToolCalls: []synphora.ToolCall{{ID: "c1", Name: "generate_title", Arguments: "{}"}},
		}
		out := FromMessage(in)
		if out.ID == "" {
			t.Error("expected generated ID")
		}
		if out.Content != nil {
			t.Errorf("Content = %q, want nil", *out.Content)
		}
		back := ToMessage(out)
		if back.ToolCalls[0] != in.ToolCalls[0] {
			t.Errorf("ToolCall = %+v, want %+v", back.ToolCalls[0], in.ToolCalls[0])
		}
	})

	t.Run("tool result keeps call id", func(t *testing.T) {
		out := FromMessage(synphora.NewToolResultMessage("c1", "done"))
		if out.ToolCallID == nil || *out.ToolCallID != "c1" {
			t.Errorf("ToolCallID = %v, want c1", out.ToolCallID)
		}
		if out.Role != RoleTool {
			t.Errorf("Role = %q, want tool", out.Role)
		}
	})

	t.Run("FromMessages keeps order", func(t *testing.T) {
		out := FromMessages([]synphora.Message{
			synphora.SystemMessage("sys"),
			synphora.UserMessage("hi"),
		})
		if len(out) != 2 || out[0].Role != RoleSystem || out[1].Role != RoleUser {
			t.Errorf("unexpected messages: %+v", out)
		}
	})
}
