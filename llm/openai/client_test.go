package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/openai/openai-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nettee/synphora"
	"github.com/nettee/synphora/llm"
)

func TestConvertMessages(t *testing.T) {
	history := []synphora.Message{
		synphora.SystemMessage("be brief"),
		synphora.UserMessage("comment on abc"),
		{
			Role: synphora.RoleAssistant,
			ToolCalls: []synphora.ToolCall{
				{ID: "call_1", Name: "write_comment", Arguments: `{"original_artifact_id":"abc"}`},
			},
		},
		synphora.NewToolResultMessage("call_1", `{"artifact_id":"x"}`),
		{Role: synphora.RoleAssistant, Content: "done"},
		{Role: synphora.RoleUser},
	}

	got := convertMessages(history)
	require.Len(t, got, 5)
	assert.NotNil(t, got[0].OfSystem)
	assert.NotNil(t, got[1].OfUser)
	require.NotNil(t, got[2].OfAssistant)
	require.Len(t, got[2].OfAssistant.ToolCalls, 1)
	assert.Equal(t, "call_1", got[2].OfAssistant.ToolCalls[0].ID)
	assert.Equal(t, "write_comment", got[2].OfAssistant.ToolCalls[0].Function.Name)
	require.NotNil(t, got[3].OfTool)
	assert.Equal(t, "call_1", got[3].OfTool.ToolCallID)
	assert.NotNil(t, got[4].OfAssistant)
}

func TestConvertTools(t *testing.T) {
	tools := []synphora.Tool{{
		Name:        "write_comment",
		Description: "Review an article",
		Parameters:  json.RawMessage(`{"type":"object","properties":{"original_artifact_id":{"type":"string"}}}`),
	}}
	got := convertTools(tools)
	require.Len(t, got, 1)
	assert.Equal(t, "write_comment", got[0].Function.Name)
	assert.Equal(t, "object", got[0].Function.Parameters["type"])
}

func TestExtractToolCalls(t *testing.T) {
	assert.Nil(t, extractToolCalls(nil))

	got := extractToolCalls([]openai.ChatCompletionMessageToolCall{{
		ID:       "call_1",
		Function: openai.ChatCompletionMessageToolCallFunction{Name: "generate_title", Arguments: `{}`},
	}})
	assert.Equal(t, []synphora.ToolCall{{ID: "call_1", Name: "generate_title", Arguments: `{}`}}, got)
}

func TestWrapError(t *testing.T) {
	plain := errors.New("dial tcp: connection refused")
	assert.Equal(t, plain, wrapError(plain))
}

func sseServer(t *testing.T, chunks ...string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for _, c := range chunks {
			fmt.Fprintf(w, "data: %s\n\n", c)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
}

func TestStream(t *testing.T) {
	t.Run("text", func(t *testing.T) {
		srv := sseServer(t,
			`{"id":"c1","object":"chat.completion.chunk","created":1,"model":"m","choices":[{"index":0,"delta":{"role":"assistant","content":"Hel"}}]}`,
			`{"id":"c1","object":"chat.completion.chunk","created":1,"model":"m","choices":[{"index":0,"delta":{"content":"lo"},"finish_reason":"stop"}]}`,
		)
		defer srv.Close()

		c := New(Options{APIKey: "test", BaseURL: srv.URL, Model: "m"})
		resp, err := llm.Collect(context.Background(), c, []synphora.Message{synphora.UserMessage("hi")}, nil)
		require.NoError(t, err)
		assert.Equal(t, "Hello", resp.Text)
		assert.NotEmpty(t, resp.ID)
		assert.False(t, resp.HasToolCalls())
	})

	t.Run("tool call", func(t *testing.T) {
		srv := sseServer(t,
			`{"id":"c2","object":"chat.completion.chunk","created":1,"model":"m","choices":[{"index":0,"delta":{"role":"assistant","tool_calls":[{"index":0,"id":"call_1","type":"function","function":{"name":"generate_title","arguments":"{\"original_"}}]}}]}`,
			`{"id":"c2","object":"chat.completion.chunk","created":1,"model":"m","choices":[{"index":0,"delta":{"tool_calls":[{"index":0,"function":{"arguments":"artifact_id\":\"abc\"}"}}]},"finish_reason":"tool_calls"}]}`,
		)
		defer srv.Close()

		c := New(Options{APIKey: "test", BaseURL: srv.URL, Model: "m"})
		resp, err := llm.Collect(context.Background(), c, []synphora.Message{synphora.UserMessage("hi")}, nil)
		require.NoError(t, err)
		require.Len(t, resp.ToolCalls, 1)
		assert.Equal(t, "generate_title", resp.ToolCalls[0].Name)
		assert.JSONEq(t, `{"original_artifact_id":"abc"}`, resp.ToolCalls[0].Arguments)
	})

	t.Run("api error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"error":{"message":"bad key","type":"invalid_request_error"}}`)
		}))
		defer srv.Close()

		c := New(Options{APIKey: "test", BaseURL: srv.URL, Model: "m"})
		_, err := llm.Collect(context.Background(), c, []synphora.Message{synphora.UserMessage("hi")}, nil)
		require.Error(t, err)
		assert.True(t, synphora.IsPermanent(err))
	})
}

func TestDefaultModel(t *testing.T) {
	assert.Equal(t, DefaultModel, New(Options{APIKey: "k"}).Model())
}
