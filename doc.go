// Package synphora is a streaming writing assistant built around a small
// reasoning/tool-execution loop.
//
// A user request enters the [github.com/nettee/synphora/agent] executor,
// which alternates between a reasoning step (a streamed language model call
// that may request a tool) and an acting step (execution of the first
// requested tool). Every intermediate event (text tokens and the lifecycle
// of generated artifacts) is pushed into a per-run
// [github.com/nettee/synphora/event.Sink] and drained to the client as
// Server-Sent Events.
//
// This package holds the types shared by every layer:
//
//   - [Message], [ToolCall] and [Tool] describe a conversation and the tools
//     advertised to the model.
//   - [Fragment] is one streamed piece of a model response.
//   - [Merge] and [Merger] fold fragments into a [MergedResponse].
//   - [Error] categorizes failures as transient, permanent or user input.
//
// # Basic Usage
//
//	history := []synphora.Message{
//	    {Role: synphora.RoleSystem, Content: systemPrompt},
//	    {Role: synphora.RoleUser, Content: "Please evaluate my article"},
//	}
//
//	exec := agent.New(model, registry)
//	sink := exec.Stream(ctx, history)
//	for ev := range sink.Drain(ctx) {
//	    event.WriteSSE(w, ev)
//	}
package synphora

// Version is the synphora release reported by the health endpoint and the
// MCP server.
const Version = "0.1.0"
