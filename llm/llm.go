// Package llm defines the language model client consumed by the executor
// and the article tools, plus helpers shared by the provider packages
// (llm/openai, llm/anthropic, llm/google).
package llm

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/nettee/synphora"
)

// Client performs a streamed model call.
//
// Stream returns a finite channel of fragments that the provider closes
// when the response is complete. A failure mid-stream arrives as a final
// fragment with Err set. Tool calls are delivered only once their
// arguments are complete. Implementations must stop sending when ctx is
// done and must be safe for concurrent use.
type Client interface {
	Stream(ctx context.Context, history []synphora.Message, tools []synphora.Tool) (<-chan synphora.Fragment, error)
}

// Collect runs a streamed call to completion and merges the fragments.
func Collect(ctx context.Context, c Client, history []synphora.Message, tools []synphora.Tool) (synphora.MergedResponse, error) {
	ch, err := c.Stream(ctx, history, tools)
	if err != nil {
		return synphora.MergedResponse{}, err
	}
	var m synphora.Merger
	for f := range ch {
		if f.Err != nil {
			return synphora.MergedResponse{}, f.Err
		}
		m.Add(f)
	}
	if m.Len() == 0 {
		return synphora.MergedResponse{}, synphora.ErrEmptyInput
	}
	return m.Response(), nil
}

// Send delivers f unless ctx is done first. It reports whether f was sent.
func Send(ctx context.Context, ch chan<- synphora.Fragment, f synphora.Fragment) bool {
	select {
	case ch <- f:
		return true
	case <-ctx.Done():
		return false
	}
}

// ParseRetryAfter extracts the Retry-After duration from an HTTP response.
// Returns 0 if the header is not present or cannot be parsed.
func ParseRetryAfter(resp *http.Response) time.Duration {
	if resp == nil {
		return 0
	}
	header := resp.Header.Get("Retry-After")
	if header == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(header); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if t, err := http.ParseTime(header); err == nil {
		if delay := time.Until(t); delay > 0 {
			return delay
		}
	}
	return 0
}

// StatusError categorizes a provider API failure, attaching the server's
// Retry-After hint when present.
func StatusError(provider string, statusCode int, resp *http.Response, cause error) error {
	err := synphora.NewStatusError(provider, statusCode, cause)
	err.RetryDelay = ParseRetryAfter(resp)
	return err
}
