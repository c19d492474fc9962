package event

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSinkOrdering(t *testing.T) {
	s := NewSink()
	for i := range 1000 {
		s.Emit(NewTextMessage("m", fmt.Sprint(i)))
	}
	s.Close()

	i := 0
	for e := range s.Drain(context.Background()) {
		assert.Equal(t, fmt.Sprint(i), e.Content)
		i++
	}
	assert.Equal(t, 1000, i)
	assert.Equal(t, 1000, s.Emitted())
	assert.Equal(t, 0, s.Len())
}

func TestSinkEmitDoesNotBlockWithoutConsumer(t *testing.T) {
	s := NewSink()
	done := make(chan struct{})
	go func() {
		for range 10_000 {
			s.Emit(NewArtifactContentChunk("A", "x"))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Emit blocked without a consumer")
	}
	assert.Equal(t, 10_000, s.Len())
}

func TestSinkConcurrentProducerConsumer(t *testing.T) {
	s := NewSink()
	go func() {
		defer s.Close()
		for i := range 500 {
			s.Emit(NewTextMessage("m", fmt.Sprint(i)))
			if i%50 == 0 {
				time.Sleep(time.Millisecond)
			}
		}
	}()

	var got []string
	for e := range s.Drain(context.Background()) {
		got = append(got, e.Content)
	}
	require.Len(t, got, 500)
	for i, c := range got {
		assert.Equal(t, fmt.Sprint(i), c)
	}
}

func TestSinkNestedEmitters(t *testing.T) {
	s := NewSink()
	var wg sync.WaitGroup
	handler := func(emit Emitter) {
		emit.Emit(NewArtifactContentStart("A", "t", "comment"))
		emit.Emit(NewArtifactContentComplete("A"))
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.Emit(NewRunStarted())
		handler(s)
		s.Emit(NewRunFinished())
		s.Close()
	}()
	wg.Wait()

	var types []Type
	for e := range s.Drain(context.Background()) {
		types = append(types, e.Type)
	}
	assert.Equal(t, []Type{RunStarted, ArtifactContentStart, ArtifactContentComplete, RunFinished}, types)
}

func TestSinkClose(t *testing.T) {
	t.Run("drops events after close", func(t *testing.T) {
		s := NewSink()
		s.Emit(NewRunStarted())
		s.Close()
		s.Close()
		s.Emit(NewRunFinished())

		assert.True(t, s.Closed())
		e, err := s.Next(context.Background())
		require.NoError(t, err)
		assert.Equal(t, RunStarted, e.Type)
		_, err = s.Next(context.Background())
		assert.ErrorIs(t, err, io.EOF)
	})

	t.Run("wakes a blocked reader", func(t *testing.T) {
		s := NewSink()
		errCh := make(chan error, 1)
		go func() {
			_, err := s.Next(context.Background())
			errCh <- err
		}()
		time.Sleep(10 * time.Millisecond)
		s.Close()
		assert.ErrorIs(t, <-errCh, io.EOF)
	})
}

func TestSinkNextContext(t *testing.T) {
	s := NewSink()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := s.Next(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSinkSetsTimestamp(t *testing.T) {
	s := NewSink()
	s.Emit(NewRunStarted())
	e, err := s.Next(context.Background())
	require.NoError(t, err)
	assert.False(t, e.Timestamp.IsZero())
}

func TestCollector(t *testing.T) {
	var c Collector
	c.Emit(NewRunStarted())
	c.Emit(NewRunFinished())
	assert.Equal(t, []Type{RunStarted, RunFinished}, c.Types())
	assert.Len(t, c.Events(), 2)

	Discard.Emit(NewRunStarted())
}
