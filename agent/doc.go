// Package agent runs the reasoning loop behind a writing-assistant request.
//
// An Executor drives a small state machine:
//
//	Start → Reason → (Act → Reason)* → End
//
// Reason streams a model call, forwarding text to the client as it
// arrives, and appends the merged response to the history. When the
// response asks for a tool, Act runs the first requested tool and appends
// its result; otherwise the run ends. Every run emits RunStarted first and
// RunFinished last, whatever happens in between.
//
// # Basic Usage
//
//	registry := tool.NewRegistry()
//	article.New(store, model, prompts).Register(registry)
//
//	x := agent.New(model, registry, agent.WithLogger(logger))
//	sink := x.Stream(ctx, history)
//	for e := range sink.Drain(ctx) {
//	    event.WriteSSE(w, e)
//	}
//
// # Failures
//
// Failures never surface as Go errors to the transport. Model errors, unknown
// tools, tool failures and the iteration limit each end the run with a short
// apology sent as a TextMessage; see FallbackText. The error itself is kept
// on RunState.Err and logged.
//
// # Configuration Options
//
//   - WithMaxIterations(n): limit Reason steps (default: 10)
//   - WithReasonTimeout(d): per model call timeout (default: 2m)
//   - WithActTimeout(d): per tool call timeout (default: 5m)
//   - WithRetry(cfg): retry policy for model calls (default: 3 attempts)
//   - WithLogger(l): structured logger
//   - WithRunID(id): identifier used in logs
package agent
