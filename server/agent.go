package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	aguievents "github.com/ag-ui-protocol/ag-ui/sdks/community/go/pkg/core/events"
	"github.com/gorilla/websocket"

	"github.com/nettee/synphora"
	"github.com/nettee/synphora/agent"
	"github.com/nettee/synphora/agui"
	"github.com/nettee/synphora/event"
)

// agentRequest is the body of POST /agent and the first WebSocket message.
type agentRequest struct {
	Text       string `json:"text"`
	ArtifactID string `json:"artifact_id,omitempty"`
}

// history builds the conversation for a request: the agent system prompt
// followed by the user prompt naming the selected artifact.
func (s *Server) history(text, artifactID string) ([]synphora.Message, error) {
	system, err := s.prompts.System()
	if err != nil {
		return nil, fmt.Errorf("render system prompt: %w", err)
	}
	user, err := s.prompts.User(artifactID, text)
	if err != nil {
		return nil, fmt.Errorf("render user prompt: %w", err)
	}
	return []synphora.Message{
		synphora.SystemMessage(system),
		synphora.UserMessage(user),
	}, nil
}

func setSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
}

// agent handles POST /agent, streaming synphora events as SSE.
func (s *Server) agent(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req agentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	runID := synphora.NewID()
	log := s.log.With("run_id", runID, "artifact_id", req.ArtifactID)

	history, err := s.history(req.Text, req.ArtifactID)
	if err != nil {
		log.Error("failed to build history", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		log.Error("streaming not supported")
		writeError(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}
	setSSEHeaders(w)
	w.WriteHeader(http.StatusOK)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	log.Info("request started", "text_len", len(req.Text))
	sink := s.runner.Stream(ctx, history, agent.WithRunID(runID), agent.WithLogger(s.log))

	sent, err := s.pump(ctx, sink, log, func(e event.Event) error {
		if err := event.WriteSSE(w, e); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	})
	logCompletion(log, start, sent, err)
}

// agentAGUI handles POST /agent/agui, streaming AG-UI events as SSE.
func (s *Server) agentAGUI(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var input agui.RunAgentInput
	if err := decodeJSON(w, r, &input); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	prepared, err := input.Prepare()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	mapper := agui.NewMapper(prepared.ThreadID, prepared.RunID)
	log := s.log.With("run_id", mapper.RunID(), "thread_id", mapper.ThreadID(), "artifact_id", prepared.ArtifactID)

	history, err := s.history(prepared.Text, prepared.ArtifactID)
	if err != nil {
		log.Error("failed to build history", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		log.Error("streaming not supported")
		writeError(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}
	setSSEHeaders(w)
	w.WriteHeader(http.StatusOK)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	log.Info("agui request started", "message_count", len(prepared.Messages))
	sink := s.runner.Stream(ctx, history, agent.WithRunID(mapper.RunID()), agent.WithLogger(s.log))

	write := func(evs []aguievents.Event) error {
		for _, ev := range evs {
			if err := writeAGUI(w, ev); err != nil {
				return err
			}
		}
		flusher.Flush()
		return nil
	}
	sent, err := s.pump(ctx, sink, log, func(e event.Event) error {
		return write(mapper.MapEvent(e))
	})
	if err == nil {
		err = write(mapper.Flush())
	}
	logCompletion(log, start, sent, err)
}

// writeAGUI writes an AG-UI event in SSE format: event: TYPE\ndata: {json}\n\n.
func writeAGUI(w http.ResponseWriter, ev aguievents.Event) error {
	data, err := ev.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to serialize event: %w", err)
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type(), data); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}
	return nil
}

// agentWS handles GET /agent/ws. The client sends one agentRequest as a
// JSON text message; the server answers with one JSON message per event
// and closes the connection after RunFinished.
func (s *Server) agentWS(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	var req agentRequest
	if err := conn.ReadJSON(&req); err != nil {
		s.log.Warn("invalid websocket request", "error", err)
		closeWS(conn, websocket.CloseUnsupportedData, "invalid request")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		closeWS(conn, websocket.ClosePolicyViolation, "text is required")
		return
	}

	runID := synphora.NewID()
	log := s.log.With("run_id", runID, "artifact_id", req.ArtifactID, "transport", "websocket")

	history, err := s.history(req.Text, req.ArtifactID)
	if err != nil {
		log.Error("failed to build history", "error", err)
		closeWS(conn, websocket.CloseInternalServerErr, "internal server error")
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// The read loop only notices the peer going away.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	log.Info("request started", "text_len", len(req.Text))
	sink := s.runner.Stream(ctx, history, agent.WithRunID(runID), agent.WithLogger(s.log))

	sent, err := s.pump(ctx, sink, log, func(e event.Event) error {
		return conn.WriteJSON(e)
	})
	if err == nil {
		closeWS(conn, websocket.CloseNormalClosure, "run finished")
	}
	logCompletion(log, start, sent, err)
}

func closeWS(conn *websocket.Conn, code int, text string) {
	msg := websocket.FormatCloseMessage(code, text)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
}

// pump drains sink into write until the run finishes, the client goes
// away or a write fails. It returns the number of events written.
func (s *Server) pump(ctx context.Context, sink *event.Sink, log *slog.Logger, write func(event.Event) error) (int, error) {
	sent := 0
	for e := range sink.Drain(ctx) {
		if err := write(e); err != nil {
			log.Error("failed to write event", "type", e.Type, "error", err)
			return sent, err
		}
		sent++
		if e.Type != event.TextMessage && e.Type != event.ArtifactContentChunk {
			log.Debug("sent event", "type", e.Type, "artifact_id", e.ArtifactID)
		}
	}
	return sent, ctx.Err()
}

func logCompletion(log *slog.Logger, start time.Time, sent int, err error) {
	duration := time.Since(start)
	if err != nil {
		log.Warn("request ended early",
			"duration_ms", duration.Milliseconds(),
			"events_sent", sent,
			"error", err,
		)
		return
	}
	log.Info("request completed",
		"duration_ms", duration.Milliseconds(),
		"events_sent", sent,
	)
}
