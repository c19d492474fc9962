package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nettee/synphora/event"
	"github.com/nettee/synphora/llm/llmtest"
)

func dialWS(t *testing.T, f *fixture, origin string) *websocket.Conn {
	t.Helper()
	ts := httptest.NewServer(f.server)
	t.Cleanup(ts.Close)

	header := http.Header{}
	if origin != "" {
		header.Set("Origin", origin)
	}
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/agent/ws", header)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestAgentWebSocket(t *testing.T) {
	f := newFixture(t, llmtest.Text("Hi", " there"))
	conn := dialWS(t, f, "http://localhost:3000")

	require.NoError(t, conn.WriteJSON(agentRequest{Text: "hello"}))

	var events []event.Event
	for {
		var e event.Event
		err := conn.ReadJSON(&e)
		if err != nil {
			assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "unexpected error: %v", err)
			break
		}
		events = append(events, e)
	}

	require.NoError(t, event.Validate(events))
	require.Len(t, events, 4)
	assert.Equal(t, "Hi", events[1].Content)
	assert.Equal(t, " there", events[2].Content)
}

func TestAgentWebSocketRejectsEmptyText(t *testing.T) {
	f := newFixture(t)
	conn := dialWS(t, f, "")

	require.NoError(t, conn.WriteJSON(agentRequest{}))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.ClosePolicyViolation), "unexpected error: %v", err)
	assert.Empty(t, f.model.Calls())
}

func TestAgentWebSocketChecksOrigin(t *testing.T) {
	f := newFixture(t)
	ts := httptest.NewServer(f.server)
	defer ts.Close()

	header := http.Header{"Origin": []string{"http://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/agent/ws", header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
