package agent

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/nettee/synphora"
	"github.com/nettee/synphora/event"
	"github.com/nettee/synphora/internal/retry"
	"github.com/nettee/synphora/llm"
	"github.com/nettee/synphora/tool"
)

// Executor runs the reasoning loop for requests. Its collaborators are
// shared; every call to Run or Stream gets its own RunState.
type Executor struct {
	model    llm.Client
	registry *tool.Registry
	opts     []Option
}

// New creates an executor calling model with the tools in registry.
// Options given here apply to every run.
func New(model llm.Client, registry *tool.Registry, opts ...Option) *Executor {
	if registry == nil {
		registry = tool.NewRegistry()
	}
	return &Executor{model: model, registry: registry, opts: opts}
}

// Stream runs the loop on a new goroutine and returns the sink it emits
// into. The sink is closed after RunFinished.
func (x *Executor) Stream(ctx context.Context, history []synphora.Message, opts ...Option) *event.Sink {
	sink := event.NewSink()
	go func() {
		defer sink.Close()
		x.Run(ctx, history, sink, opts...)
	}()
	return sink
}

// Run executes the loop synchronously, emitting events into emit, and
// returns the final state. It never fails: errors end the run and are
// recorded in RunState.Err.
func (x *Executor) Run(ctx context.Context, history []synphora.Message, emit event.Emitter, opts ...Option) *RunState {
	o := ApplyOptions(append(append([]Option(nil), x.opts...), opts...)...)
	if o.RunID == "" {
		o.RunID = synphora.NewID()
	}
	if emit == nil {
		emit = event.Discard
	}

	rs := newRunState(o.RunID, history)
	r := &run{
		x:     x,
		opts:  o,
		state: rs,
		log:   o.Logger.With("run_id", rs.ID),
	}
	r.emit = event.EmitterFunc(func(e event.Event) {
		r.events.Add(1)
		if e.IsArtifact() || e.Type == event.TextMessage {
			r.log.Debug("event", "type", e.Type, "artifact_id", e.ArtifactID, "message_id", e.MessageID)
		}
		emit.Emit(e)
	})

	start := time.Now()
	r.log.Info("run started", "messages", len(history))

	state := StateStart
	for state != StateEnd {
		rs.Path = append(rs.Path, state)
		switch state {
		case StateStart:
			state = r.start()
		case StateReason:
			state = r.reason(ctx)
		case StateAct:
			state = r.act(ctx)
		}
		if state != StateEnd && ctx.Err() != nil {
			r.log.Info("run cancelled", "node", state, "error", ctx.Err())
			if rs.Err == nil {
				rs.Err = ctx.Err()
			}
			state = StateEnd
		}
	}

	rs.Path = append(rs.Path, StateEnd)
	r.emit.Emit(event.NewRunFinished())
	rs.Finished = true

	r.log.Info("run finished",
		"duration", time.Since(start),
		"iterations", rs.Iterations,
		"events", r.events.Load(),
		"error", rs.Err,
	)
	return rs
}

// run carries the per-run collaborators through the nodes.
type run struct {
	x      *Executor
	opts   *Options
	state  *RunState
	emit   event.Emitter
	log    *slog.Logger
	events atomic.Int64
}

func (r *run) start() State {
	r.emit.Emit(event.NewRunStarted())
	return StateReason
}

func (r *run) reason(ctx context.Context) State {
	log := r.log.With("node", StateReason)

	if r.state.Iterations >= r.opts.MaxIterations {
		r.fail(log, &MaxIterationsExceededError{Max: r.opts.MaxIterations})
		return StateEnd
	}
	r.state.Iterations++

	resp, err := r.callModel(ctx, log)
	if err != nil {
		if ctx.Err() != nil {
			r.state.Err = ctx.Err()
			return StateEnd
		}
		r.fail(log, err)
		return StateEnd
	}

	msg := resp.Message()
	if len(msg.ToolCalls) > 1 {
		log.Warn("model requested several tools, running the first", "count", len(msg.ToolCalls))
		msg.ToolCalls = msg.ToolCalls[:1]
	}
	r.state.append(msg)

	if len(msg.ToolCalls) > 0 {
		return StateAct
	}
	return StateEnd
}

// callModel streams one model call, retrying transient failures that
// happen before any text was forwarded. All attempts share one message id.
func (r *run) callModel(ctx context.Context, log *slog.Logger) (synphora.MergedResponse, error) {
	tools := r.x.registry.Tools()
	messageID := synphora.GenerateMessageID()
	attempts := 0

	notify := func(e retry.Event) {
		if e.Type == retry.EventRetrying {
			log.Warn("model call failed, retrying", "attempt", e.Attempt, "delay", e.Delay)
		}
	}

	resp, err := retry.DoNotify(ctx, r.opts.Retry, notify, func() (synphora.MergedResponse, error) {
		attempts++
		attemptCtx, cancel := context.WithTimeout(ctx, r.opts.ReasonTimeout)
		defer cancel()

		ch, err := r.x.model.Stream(attemptCtx, r.state.History, tools)
		if err != nil {
			return synphora.MergedResponse{}, err
		}

		var m synphora.Merger
		forwarded := false
		for f := range ch {
			if f.Err != nil {
				err = f.Err
				break
			}
			m.Add(f)
			if f.Text != "" {
				r.emit.Emit(event.NewTextMessage(messageID, f.Text))
				forwarded = true
			}
		}
		if err == nil {
			err = attemptCtx.Err()
		}
		if err != nil {
			log.Error("model call failed", "attempt", attempts, "error", err)
			if forwarded {
				return synphora.MergedResponse{}, retry.Stop(err)
			}
			return synphora.MergedResponse{}, err
		}
		return m.Response(), nil
	})
	if err != nil {
		return synphora.MergedResponse{}, &ModelCallError{Attempts: attempts, Err: err}
	}
	return resp, nil
}

func (r *run) act(ctx context.Context) State {
	log := r.log.With("node", StateAct)

	last := r.state.Last()
	if last.Role != synphora.RoleAssistant || len(last.ToolCalls) == 0 {
		log.Error("act without tool call", "error", ErrNoToolCall)
		r.state.Err = ErrNoToolCall
		return StateEnd
	}
	call := last.ToolCalls[0]
	log = log.With("tool", call.Name, "call_id", call.ID)
	log.Info("tool call")

	actCtx, cancel := context.WithTimeout(ctx, r.opts.ActTimeout)
	result, err := r.x.registry.Dispatch(actCtx, call, r.emit)
	cancel()
	if err != nil {
		if ctx.Err() != nil {
			r.state.Err = ctx.Err()
			return StateEnd
		}
		var execErr *tool.ErrToolExecution
		if errors.As(err, &execErr) {
			log.Error("tool failed", "error", execErr.Err)
		}
		r.fail(log, err)
		return StateEnd
	}

	r.state.append(synphora.NewToolResultMessage(call.ID, result))
	return StateReason
}

// fail ends the run with err, telling the user in a fresh text message.
func (r *run) fail(log *slog.Logger, err error) {
	r.state.Err = err
	log.Error("run failed", "error", err)
	if text := FallbackText(err); text != "" {
		r.emit.Emit(event.NewTextMessage(synphora.GenerateMessageID(), text))
	}
}
