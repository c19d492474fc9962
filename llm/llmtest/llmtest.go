// Package llmtest provides a scripted llm.Client for tests.
package llmtest

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/nettee/synphora"
)

// ErrExhausted is returned by Stream once every script has been used.
var ErrExhausted = errors.New("llmtest: no scripted response left")

// Script describes the response to one Stream call.
type Script struct {
	// Fragments are sent in order.
	Fragments []synphora.Fragment

	// OpenErr, when set, is returned by Stream itself.
	OpenErr error

	// StreamErr, when set, is sent as a final error fragment.
	StreamErr error

	// Delay is slept before each fragment (honoring cancellation).
	Delay time.Duration

	// Hang blocks after the fragments until the context is done, then
	// reports the context error.
	Hang bool
}

// Text scripts a plain text response split into the given pieces.
func Text(pieces ...string) Script {
	s := Script{}
	for i, p := range pieces {
		f := synphora.Fragment{Text: p}
		if i == 0 {
			f.ID = synphora.GenerateMessageID()
		}
		s.Fragments = append(s.Fragments, f)
	}
	return s
}

// ToolCalls scripts a response carrying text followed by tool calls.
func ToolCalls(text string, calls ...synphora.ToolCall) Script {
	return Script{Fragments: []synphora.Fragment{
		{ID: synphora.GenerateMessageID(), Text: text},
		{ToolCalls: calls},
	}}
}

// Call records one Stream invocation.
type Call struct {
	History []synphora.Message
	Tools   []synphora.Tool
}

// Client replays scripts in order, one per Stream call.
type Client struct {
	mu      sync.Mutex
	scripts []Script
	calls   []Call
}

// New creates a client replaying scripts.
func New(scripts ...Script) *Client {
	return &Client{scripts: scripts}
}

// Push appends more scripts.
func (c *Client) Push(scripts ...Script) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scripts = append(c.scripts, scripts...)
}

// Calls returns the recorded invocations.
func (c *Client) Calls() []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Call(nil), c.calls...)
}

// Stream implements llm.Client.
func (c *Client) Stream(ctx context.Context, history []synphora.Message, tools []synphora.Tool) (<-chan synphora.Fragment, error) {
	c.mu.Lock()
	c.calls = append(c.calls, Call{
		History: append([]synphora.Message(nil), history...),
		Tools:   append([]synphora.Tool(nil), tools...),
	})
	if len(c.scripts) == 0 {
		c.mu.Unlock()
		return nil, ErrExhausted
	}
	script := c.scripts[0]
	c.scripts = c.scripts[1:]
	c.mu.Unlock()

	if script.OpenErr != nil {
		return nil, script.OpenErr
	}

	ch := make(chan synphora.Fragment)
	go func() {
		defer close(ch)
		send := func(f synphora.Fragment) bool {
			select {
			case ch <- f:
				return true
			case <-ctx.Done():
				return false
			}
		}

		for _, f := range script.Fragments {
			if script.Delay > 0 {
				select {
				case <-time.After(script.Delay):
				case <-ctx.Done():
					send(synphora.Fragment{Err: ctx.Err()})
					return
				}
			}
			if !send(f) {
				return
			}
		}
		if script.Hang {
			<-ctx.Done()
			send(synphora.Fragment{Err: ctx.Err()})
			return
		}
		if script.StreamErr != nil {
			send(synphora.Fragment{Err: script.StreamErr})
		}
	}()
	return ch, nil
}
