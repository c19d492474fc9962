// Package openai implements llm.Client on the OpenAI chat completions API.
// Any OpenAI-compatible endpoint can be targeted through Options.BaseURL.
package openai

import (
	"context"
	"errors"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/nettee/synphora"
	"github.com/nettee/synphora/llm"
)

// DefaultModel is used when Options.Model is empty.
const DefaultModel = "gpt-4o-mini"

// Options configures the client.
type Options struct {
	APIKey  string
	BaseURL string
	Model   string
}

// Client wraps the OpenAI SDK to implement llm.Client.
type Client struct {
	client *openai.Client
	model  string
}

// New creates a new OpenAI client.
func New(opts Options) *Client {
	reqOpts := []option.RequestOption{option.WithAPIKey(opts.APIKey)}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	client := openai.NewClient(reqOpts...)
	model := opts.Model
	if model == "" {
		model = DefaultModel
	}
	return &Client{client: &client, model: model}
}

// Model returns the model name requests are sent to.
func (c *Client) Model() string { return c.model }

// Stream sends the history and returns a channel of fragments.
func (c *Client) Stream(ctx context.Context, history []synphora.Message, tools []synphora.Tool) (<-chan synphora.Fragment, error) {
	params := openai.ChatCompletionNewParams{
		Model:    c.model,
		Messages: convertMessages(history),
	}
	if len(tools) > 0 {
		params.Tools = convertTools(tools)
	}

	stream := c.client.Chat.Completions.NewStreaming(ctx, params)
	ch := make(chan synphora.Fragment)

	go func() {
		defer close(ch)
		defer stream.Close()
		var acc openai.ChatCompletionAccumulator
		id := synphora.GenerateMessageID()
		first := true

		for stream.Next() {
			chunk := stream.Current()
			acc.AddChunk(chunk)

			if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" {
				f := synphora.Fragment{Text: chunk.Choices[0].Delta.Content}
				if first {
					f.ID = id
					first = false
				}
				if !llm.Send(ctx, ch, f) {
					return
				}
			}
		}

		if err := stream.Err(); err != nil {
			llm.Send(ctx, ch, synphora.Fragment{Err: wrapError(err)})
			return
		}

		final := synphora.Fragment{}
		if first {
			final.ID = id
		}
		if len(acc.Choices) > 0 {
			final.ToolCalls = extractToolCalls(acc.Choices[0].Message.ToolCalls)
		}
		if first || len(final.ToolCalls) > 0 {
			llm.Send(ctx, ch, final)
		}
	}()

	return ch, nil
}

// wrapError categorizes an OpenAI SDK error for retry handling.
func wrapError(err error) error {
	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	return llm.StatusError("openai", apiErr.StatusCode, apiErr.Response, err)
}

var _ llm.Client = (*Client)(nil)
