package event

import (
	"context"
	"io"
	"iter"
	"sync"
	"time"
)

// Sink is the ordered, unbounded channel between the producers of a run
// (executor nodes and the tool handlers they call) and the single consumer
// that writes events to the transport.
//
// Emit never blocks: events are queued until the consumer reads them.
// Events are delivered in exactly the order Emit was called. A Sink serves
// one run; create a fresh one per run.
type Sink struct {
	notify chan struct{}

	mu      sync.Mutex
	queue   []Event
	closed  bool
	emitted int
}

// NewSink creates an empty, open sink.
func NewSink() *Sink {
	return &Sink{notify: make(chan struct{}, 1)}
}

// Emit queues e for the consumer. Events emitted after Close are dropped.
func (s *Sink) Emit(e Event) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.queue = append(s.queue, e)
	s.emitted++
	s.mu.Unlock()
	s.wake()
}

// Close marks the end of the run. Queued events remain readable.
func (s *Sink) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()
	s.wake()
}

// Closed reports whether Close has been called.
func (s *Sink) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Len returns the number of queued events not yet read.
func (s *Sink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Emitted returns the number of events accepted so far.
func (s *Sink) Emitted() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.emitted
}

// Next blocks until an event is available and returns it. It returns
// io.EOF once the sink is closed and every queued event has been read,
// or ctx.Err() if ctx is done first.
//
// Next is meant for a single consumer.
func (s *Sink) Next(ctx context.Context) (Event, error) {
	for {
		s.mu.Lock()
		if len(s.queue) > 0 {
			e := s.queue[0]
			s.queue[0] = Event{}
			s.queue = s.queue[1:]
			s.mu.Unlock()
			return e, nil
		}
		closed := s.closed
		s.mu.Unlock()

		if closed {
			return Event{}, io.EOF
		}
		select {
		case <-ctx.Done():
			return Event{}, ctx.Err()
		case <-s.notify:
		}
	}
}

// Drain yields events in emission order until the sink is closed and empty
// or ctx is done.
func (s *Sink) Drain(ctx context.Context) iter.Seq[Event] {
	return func(yield func(Event) bool) {
		for {
			e, err := s.Next(ctx)
			if err != nil {
				return
			}
			if !yield(e) {
				return
			}
		}
	}
}

func (s *Sink) wake() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// Collector is an Emitter that records every event in memory.
type Collector struct {
	mu     sync.Mutex
	events []Event
}

// Emit records e.
func (c *Collector) Emit(e Event) {
	c.mu.Lock()
	c.events = append(c.events, e)
	c.mu.Unlock()
}

// Events returns a copy of the recorded events.
func (c *Collector) Events() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Event(nil), c.events...)
}

// Types returns the recorded event kinds in order.
func (c *Collector) Types() []Type {
	c.mu.Lock()
	defer c.mu.Unlock()
	types := make([]Type, len(c.events))
	for i, e := range c.events {
		types[i] = e.Type
	}
	return types
}

var (
	_ Emitter = (*Sink)(nil)
	_ Emitter = (*Collector)(nil)
)
