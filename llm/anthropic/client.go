// Package anthropic implements llm.Client on the Anthropic Messages API.
package anthropic

import (
	"context"
	"errors"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/nettee/synphora"
	"github.com/nettee/synphora/llm"
)

const (
	// DefaultModel is used when Options.Model is empty.
	DefaultModel = "claude-sonnet-4-5"

	defaultMaxTokens = 4096
)

// Options configures the client.
type Options struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int64
}

// Client wraps the Anthropic SDK to implement llm.Client.
type Client struct {
	client    *anthropic.Client
	model     string
	maxTokens int64
}

// New creates a new Anthropic client.
func New(opts Options) *Client {
	reqOpts := []option.RequestOption{option.WithAPIKey(opts.APIKey)}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	client := anthropic.NewClient(reqOpts...)
	c := &Client{client: &client, model: opts.Model, maxTokens: opts.MaxTokens}
	if c.model == "" {
		c.model = DefaultModel
	}
	if c.maxTokens <= 0 {
		c.maxTokens = defaultMaxTokens
	}
	return c
}

// Model returns the model name requests are sent to.
func (c *Client) Model() string { return c.model }

// Stream sends the history and returns a channel of fragments.
func (c *Client) Stream(ctx context.Context, history []synphora.Message, tools []synphora.Tool) (<-chan synphora.Fragment, error) {
	msgs, system := convertMessages(history)
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		Messages:  msgs,
	}
	if len(system) > 0 {
		params.System = system
	}
	if len(tools) > 0 {
		params.Tools = convertTools(tools)
	}

	stream := c.client.Messages.NewStreaming(ctx, params)
	ch := make(chan synphora.Fragment)

	go func() {
		defer close(ch)
		defer stream.Close()
		var acc anthropic.Message
		id := synphora.GenerateMessageID()
		first := true

		for stream.Next() {
			event := stream.Current()
			if err := acc.Accumulate(event); err != nil {
				llm.Send(ctx, ch, synphora.Fragment{Err: err})
				return
			}

			if event.Type != "content_block_delta" {
				continue
			}
			delta := event.AsContentBlockDelta()
			textDelta := delta.Delta.AsTextDelta()
			if textDelta.Type != "text_delta" || textDelta.Text == "" {
				continue
			}
			f := synphora.Fragment{Text: textDelta.Text}
			if first {
				f.ID = id
				first = false
			}
			if !llm.Send(ctx, ch, f) {
				return
			}
		}

		if err := stream.Err(); err != nil {
			llm.Send(ctx, ch, synphora.Fragment{Err: wrapError(err)})
			return
		}

		final := synphora.Fragment{ToolCalls: extractToolCalls(acc.Content)}
		if first {
			final.ID = id
		}
		if first || len(final.ToolCalls) > 0 {
			llm.Send(ctx, ch, final)
		}
	}()

	return ch, nil
}

// wrapError categorizes an Anthropic SDK error for retry handling.
func wrapError(err error) error {
	var apiErr *anthropic.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	return llm.StatusError("anthropic", apiErr.StatusCode, apiErr.Response, err)
}

var _ llm.Client = (*Client)(nil)
