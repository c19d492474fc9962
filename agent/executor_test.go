package agent

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nettee/synphora"
	"github.com/nettee/synphora/artifact"
	"github.com/nettee/synphora/event"
	"github.com/nettee/synphora/internal/retry"
	"github.com/nettee/synphora/llm/llmtest"
	"github.com/nettee/synphora/prompt"
	"github.com/nettee/synphora/tool"
	"github.com/nettee/synphora/tool/article"
)

var fastRetry = retry.Config{
	MaxAttempts:  3,
	InitialDelay: time.Millisecond,
	MaxDelay:     5 * time.Millisecond,
	Multiplier:   2,
}

func userHistory(text string) []synphora.Message {
	return []synphora.Message{synphora.UserMessage(text)}
}

func runCollect(t *testing.T, x *Executor, history []synphora.Message, opts ...Option) (*RunState, []event.Event) {
	t.Helper()
	var c event.Collector
	rs := x.Run(context.Background(), history, &c, opts...)
	events := c.Events()
	require.NoError(t, event.Validate(events))
	return rs, events
}

func types(events []event.Event) []event.Type {
	out := make([]event.Type, len(events))
	for i, e := range events {
		out[i] = e.Type
	}
	return out
}

func TestRunPlainText(t *testing.T) {
	model := llmtest.New(llmtest.Text("Hello"))
	rs, events := runCollect(t, New(model, nil), userHistory("hi"))

	assert.Equal(t, []event.Type{event.RunStarted, event.TextMessage, event.RunFinished}, types(events))
	assert.Equal(t, "Hello", events[1].Content)
	assert.NoError(t, rs.Err)
	assert.True(t, rs.Finished)
	assert.Equal(t, []State{StateStart, StateReason, StateEnd}, rs.Path)
	require.Len(t, rs.History, 2)
	assert.Equal(t, synphora.RoleAssistant, rs.Last().Role)
	assert.Equal(t, "Hello", rs.Last().Content)
}

func TestRunSharesMessageIDWithinReason(t *testing.T) {
	model := llmtest.New(llmtest.Text("Hel", "", "lo", " there"))
	_, events := runCollect(t, New(model, nil), userHistory("hi"))

	var texts []event.Event
	for _, e := range events {
		if e.Type == event.TextMessage {
			texts = append(texts, e)
		}
	}
	require.Len(t, texts, 3, "empty fragments are not forwarded")
	for _, e := range texts {
		assert.Equal(t, texts[0].MessageID, e.MessageID)
	}
}

func TestRunWriteComment(t *testing.T) {
	store := artifact.NewMemoryStore()
	original, err := store.Create(context.Background(), artifact.Draft{Title: "A1", Content: "An article."})
	require.NoError(t, err)

	model := llmtest.New(
		llmtest.ToolCalls("", synphora.ToolCall{
			ID:        "call_1",
			Name:      "write_comment",
			Arguments: `{"original_artifact_id":"` + original.ID + `"}`,
		}),
		llmtest.Text("Well ", "structured."),
		llmtest.Script{},
	)
	registry := tool.NewRegistry()
	require.NoError(t, article.New(store, model, prompt.Default()).Register(registry))

	rs, events := runCollect(t, New(model, registry), userHistory("Please evaluate this article (artifact A1)"))
	require.NoError(t, rs.Err)

	assert.Equal(t, []event.Type{
		event.RunStarted,
		event.ArtifactContentStart,
		event.ArtifactContentChunk,
		event.ArtifactContentChunk,
		event.ArtifactContentComplete,
		event.ArtifactListUpdated,
		event.RunFinished,
	}, types(events))

	newID := events[1].ArtifactID
	assert.NotEqual(t, original.ID, newID)
	for _, e := range events[1:6] {
		assert.Equal(t, newID, e.ArtifactID)
	}
	stored, err := store.Get(context.Background(), newID)
	require.NoError(t, err)
	assert.Equal(t, "Well structured.", stored.Content)

	assert.Equal(t, []State{StateStart, StateReason, StateAct, StateReason, StateEnd}, rs.Path)
	toolMsg := rs.History[2]
	assert.Equal(t, synphora.RoleTool, toolMsg.Role)
	assert.Equal(t, "call_1", toolMsg.ToolCallID)
	assert.Contains(t, toolMsg.Content, newID)

	calls := model.Calls()
	require.Len(t, calls, 3)
	assert.Len(t, calls[0].Tools, 3, "tools are advertised on every Reason call")
	assert.Len(t, calls[2].History, 3)
}

func TestRunUnknownTool(t *testing.T) {
	var handlerCalls atomic.Int32
	registry := tool.NewRegistry()
	registry.MustRegister(synphora.Tool{Name: "write_comment"}, func(context.Context, synphora.ToolCall, event.Emitter) (string, error) {
		handlerCalls.Add(1)
		return "", nil
	})

	model := llmtest.New(llmtest.ToolCalls("", synphora.ToolCall{ID: "c1", Name: "generate_chart"}))
	rs, events := runCollect(t, New(model, registry), userHistory("draw a chart"))

	assert.Equal(t, []event.Type{event.RunStarted, event.TextMessage, event.RunFinished}, types(events))
	assert.Contains(t, events[1].Content, "unknown tool")
	assert.Contains(t, events[1].Content, "generate_chart")
	assert.Zero(t, handlerCalls.Load())

	var notFound *tool.ErrToolNotFound
	assert.ErrorAs(t, rs.Err, &notFound)
}

func TestRunToolExecutionError(t *testing.T) {
	registry := tool.NewRegistry()
	registry.MustRegister(synphora.Tool{Name: "generate_title"}, func(context.Context, synphora.ToolCall, event.Emitter) (string, error) {
		return "", errors.New("open /data/store/metadata.json: permission denied")
	})

	model := llmtest.New(llmtest.ToolCalls("On it.", synphora.ToolCall{ID: "c1", Name: "generate_title"}))
	rs, events := runCollect(t, New(model, registry), userHistory("titles please"))

	assert.Equal(t, []event.Type{event.RunStarted, event.TextMessage, event.TextMessage, event.RunFinished}, types(events))
	assert.Equal(t, "On it.", events[1].Content)
	assert.Equal(t, "Sorry, the generate_title tool failed (tool execution error).", events[2].Content)
	assert.NotEqual(t, events[1].MessageID, events[2].MessageID)
	assert.NotContains(t, events[2].Content, "permission denied")

	var execErr *tool.ErrToolExecution
	assert.ErrorAs(t, rs.Err, &execErr)
}

func TestRunOnlyFirstToolCall(t *testing.T) {
	var ran []string
	registry := tool.NewRegistry()
	for _, name := range []string{"a", "b"} {
		registry.MustRegister(synphora.Tool{Name: name}, func(_ context.Context, call synphora.ToolCall, _ event.Emitter) (string, error) {
			ran = append(ran, call.Name)
			return "ok", nil
		})
	}

	model := llmtest.New(
		llmtest.ToolCalls("", synphora.ToolCall{ID: "1", Name: "a"}, synphora.ToolCall{ID: "2", Name: "b"}),
		llmtest.Text("done"),
	)
	rs, _ := runCollect(t, New(model, registry), userHistory("both"))

	assert.Equal(t, []string{"a"}, ran)
	assert.Len(t, rs.History[1].ToolCalls, 1, "history only keeps the executed call")
}

func TestRunMaxIterations(t *testing.T) {
	registry := tool.NewRegistry()
	registry.MustRegister(synphora.Tool{Name: "loop"}, func(context.Context, synphora.ToolCall, event.Emitter) (string, error) {
		return "again", nil
	})

	var scripts []llmtest.Script
	for i := 0; i < 3; i++ {
		scripts = append(scripts, llmtest.ToolCalls("", synphora.ToolCall{ID: "c", Name: "loop"}))
	}
	model := llmtest.New(scripts...)

	rs, events := runCollect(t, New(model, registry, WithMaxIterations(2)), userHistory("go"))

	var maxErr *MaxIterationsExceededError
	require.ErrorAs(t, rs.Err, &maxErr)
	assert.Equal(t, 2, rs.Iterations)
	assert.Len(t, model.Calls(), 2)

	last := events[len(events)-2]
	assert.Equal(t, event.TextMessage, last.Type)
	assert.Equal(t, "Sorry, I stopped after 2 reasoning steps without finishing (max iterations exceeded).", last.Content)
}

func TestRunModelRetry(t *testing.T) {
	t.Run("transient error before text is retried", func(t *testing.T) {
		model := llmtest.New(
			llmtest.Script{OpenErr: synphora.NewTransientError("overloaded", 503, nil)},
			llmtest.Script{StreamErr: synphora.NewTransientError("overloaded", 503, nil)},
			llmtest.Text("Hello"),
		)
		rs, events := runCollect(t, New(model, nil, WithRetry(fastRetry)), userHistory("hi"))

		require.NoError(t, rs.Err)
		assert.Equal(t, []event.Type{event.RunStarted, event.TextMessage, event.RunFinished}, types(events))
		assert.Len(t, model.Calls(), 3)
	})

	t.Run("exhausted retries degrade to text", func(t *testing.T) {
		busy := synphora.NewTransientError("overloaded", 503, nil)
		model := llmtest.New(
			llmtest.Script{OpenErr: busy},
			llmtest.Script{OpenErr: busy},
			llmtest.Script{OpenErr: busy},
		)
		rs, events := runCollect(t, New(model, nil, WithRetry(fastRetry)), userHistory("hi"))

		var modelErr *ModelCallError
		require.ErrorAs(t, rs.Err, &modelErr)
		assert.Equal(t, 3, modelErr.Attempts)
		assert.Equal(t, []event.Type{event.RunStarted, event.TextMessage, event.RunFinished}, types(events))
		assert.Equal(t, "Sorry, the language model is unavailable right now. Please try again later.", events[1].Content)
	})

	t.Run("permanent error is not retried", func(t *testing.T) {
		model := llmtest.New(llmtest.Script{OpenErr: synphora.NewPermanentError("bad key", 401, nil)})
		rs, _ := runCollect(t, New(model, nil, WithRetry(fastRetry)), userHistory("hi"))

		var modelErr *ModelCallError
		require.ErrorAs(t, rs.Err, &modelErr)
		assert.Len(t, model.Calls(), 1)
	})

	t.Run("failure after text is not retried", func(t *testing.T) {
		model := llmtest.New(
			llmtest.Script{
				Fragments: []synphora.Fragment{{ID: "m", Text: "Half"}},
				StreamErr: synphora.NewTransientError("reset", 503, nil),
			},
			llmtest.Text("never used"),
		)
		rs, events := runCollect(t, New(model, nil, WithRetry(fastRetry)), userHistory("hi"))

		assert.Error(t, rs.Err)
		assert.Len(t, model.Calls(), 1)
		assert.Equal(t, []event.Type{event.RunStarted, event.TextMessage, event.TextMessage, event.RunFinished}, types(events))
		assert.Equal(t, "Half", events[1].Content)
		assert.True(t, strings.HasPrefix(events[2].Content, "Sorry, the language model"))
	})
}

func TestRunReasonTimeout(t *testing.T) {
	model := llmtest.New(
		llmtest.Script{Hang: true},
		llmtest.Text("recovered"),
	)
	x := New(model, nil, WithReasonTimeout(20*time.Millisecond), WithRetry(fastRetry))
	rs, events := runCollect(t, x, userHistory("hi"))

	require.NoError(t, rs.Err)
	assert.Len(t, model.Calls(), 2, "deadline expiry counts as transient")
	assert.Equal(t, "recovered", events[1].Content)
}

func TestRunActTimeout(t *testing.T) {
	registry := tool.NewRegistry()
	registry.MustRegister(synphora.Tool{Name: "slow"}, func(ctx context.Context, _ synphora.ToolCall, _ event.Emitter) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	model := llmtest.New(llmtest.ToolCalls("", synphora.ToolCall{ID: "c", Name: "slow"}))

	rs, events := runCollect(t, New(model, registry, WithActTimeout(20*time.Millisecond)), userHistory("hi"))

	assert.ErrorIs(t, rs.Err, context.DeadlineExceeded)
	assert.Equal(t, "Sorry, the slow tool failed (tool execution error).", events[1].Content)
}

func TestRunCancelled(t *testing.T) {
	t.Run("before start", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		model := llmtest.New(llmtest.Text("unused"))
		var c event.Collector
		rs := New(model, nil).Run(ctx, userHistory("hi"), &c)

		assert.Equal(t, []event.Type{event.RunStarted, event.RunFinished}, c.Types())
		assert.ErrorIs(t, rs.Err, context.Canceled)
		assert.Empty(t, model.Calls())
	})

	t.Run("during tool", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		registry := tool.NewRegistry()
		registry.MustRegister(synphora.Tool{Name: "t"}, func(context.Context, synphora.ToolCall, event.Emitter) (string, error) {
			cancel()
			return "done", nil
		})
		model := llmtest.New(
			llmtest.ToolCalls("", synphora.ToolCall{ID: "c", Name: "t"}),
			llmtest.Text("unused"),
		)

		var c event.Collector
		rs := New(model, registry).Run(ctx, userHistory("hi"), &c)

		assert.ErrorIs(t, rs.Err, context.Canceled)
		assert.Len(t, model.Calls(), 1, "no model call after cancellation")
		assert.Equal(t, []event.Type{event.RunStarted, event.RunFinished}, c.Types())
	})
}

func TestActWithoutToolCall(t *testing.T) {
	rs := newRunState("r", userHistory("hi"))
	var c event.Collector
	r := &run{
		x:     New(llmtest.New(), nil),
		opts:  ApplyOptions(),
		state: rs,
		emit:  &c,
		log:   ApplyOptions().Logger,
	}

	assert.Equal(t, StateEnd, r.act(context.Background()))
	assert.ErrorIs(t, rs.Err, ErrNoToolCall)
	assert.Empty(t, c.Events(), "no text for an internal invariant violation")
}

func TestStream(t *testing.T) {
	model := llmtest.New(llmtest.Script{
		Fragments: []synphora.Fragment{{Text: "a"}, {Text: "b"}},
		Delay:     time.Millisecond,
	})
	sink := New(model, nil).Stream(context.Background(), userHistory("hi"))

	var got []event.Event
	for e := range sink.Drain(context.Background()) {
		got = append(got, e)
	}
	require.NoError(t, event.Validate(got))
	assert.Equal(t, []event.Type{event.RunStarted, event.TextMessage, event.TextMessage, event.RunFinished}, types(got))
	assert.True(t, sink.Closed())
}

func TestRunDoesNotMutateCallerHistory(t *testing.T) {
	history := make([]synphora.Message, 1, 10)
	history[0] = synphora.UserMessage("hi")

	rs := New(llmtest.New(llmtest.Text("yo")), nil).Run(context.Background(), history, nil)
	assert.Len(t, rs.History, 2)
	assert.Equal(t, synphora.Message{}, history[:2][1])
}

func TestFallbackText(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&ModelCallError{Err: errors.New("x")}, "Sorry, the language model is unavailable right now. Please try again later."},
		{&tool.ErrToolNotFound{Name: "generate_chart"}, `Sorry, I can't do that: unknown tool "generate_chart".`},
		{&tool.ErrToolExecution{Name: "write_comment", Err: errors.New("x")}, "Sorry, the write_comment tool failed (tool execution error)."},
		{&MaxIterationsExceededError{Max: 10}, "Sorry, I stopped after 10 reasoning steps without finishing (max iterations exceeded)."},
		{ErrNoToolCall, ""},
		{context.Canceled, ""},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, FallbackText(tt.err))
		})
	}
}

func TestApplyOptions(t *testing.T) {
	o := ApplyOptions()
	assert.Equal(t, 10, o.MaxIterations)
	assert.Equal(t, 2*time.Minute, o.ReasonTimeout)
	assert.Equal(t, 5*time.Minute, o.ActTimeout)
	assert.Equal(t, retry.DefaultConfig(), o.Retry)
	assert.NotNil(t, o.Logger)

	o = ApplyOptions(WithMaxIterations(0), WithRunID("abc"), WithLogger(nil))
	assert.Equal(t, 10, o.MaxIterations)
	assert.Equal(t, "abc", o.RunID)
	assert.NotNil(t, o.Logger)
}
