package tool

import (
	"context"

	"github.com/nettee/synphora"
	"github.com/nettee/synphora/event"
)

// Handler executes a tool call. It may emit events (for example while
// streaming a generated artifact) before returning a short textual result
// that is fed back to the model.
type Handler func(ctx context.Context, call synphora.ToolCall, emit event.Emitter) (string, error)

// TypedHandler is a Handler whose arguments are decoded into T.
type TypedHandler[T any] func(ctx context.Context, args T, emit event.Emitter) (string, error)
