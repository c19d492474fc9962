// Package google implements llm.Client on the Gemini API.
package google

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"github.com/nettee/synphora"
	"github.com/nettee/synphora/llm"
)

// DefaultModel is used when Options.Model is empty.
const DefaultModel = "gemini-2.5-flash"

// Options configures the client.
type Options struct {
	APIKey  string
	BaseURL string
	Model   string
}

// Client wraps the Google GenAI SDK to implement llm.Client.
type Client struct {
	client *genai.Client
	model  string
}

// New creates a new Gemini client.
func New(ctx context.Context, opts Options) (*Client, error) {
	cfg := &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if opts.BaseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	model := opts.Model
	if model == "" {
		model = DefaultModel
	}
	return &Client{client: client, model: model}, nil
}

// Model returns the model name requests are sent to.
func (c *Client) Model() string { return c.model }

// Stream sends the history and returns a channel of fragments.
func (c *Client) Stream(ctx context.Context, history []synphora.Message, tools []synphora.Tool) (<-chan synphora.Fragment, error) {
	contents, system := convertMessages(history)
	config := &genai.GenerateContentConfig{}
	if system != nil {
		config.SystemInstruction = system
	}
	if len(tools) > 0 {
		config.Tools = convertTools(tools)
	}

	ch := make(chan synphora.Fragment)

	go func() {
		defer close(ch)
		var calls []*genai.FunctionCall
		id := synphora.GenerateMessageID()
		first := true

		for resp, err := range c.client.Models.GenerateContentStream(ctx, c.model, contents, config) {
			if err != nil {
				llm.Send(ctx, ch, synphora.Fragment{Err: wrapError(err)})
				return
			}
			if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
				llm.Send(ctx, ch, synphora.Fragment{Err: &BlockedError{Reason: string(resp.PromptFeedback.BlockReason)}})
				return
			}
			if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
				continue
			}
			for _, part := range resp.Candidates[0].Content.Parts {
				if part.FunctionCall != nil {
					calls = append(calls, part.FunctionCall)
				}
				if part.Text == "" || part.Thought {
					continue
				}
				f := synphora.Fragment{Text: part.Text}
				if first {
					f.ID = id
					first = false
				}
				if !llm.Send(ctx, ch, f) {
					return
				}
			}
		}

		final := synphora.Fragment{ToolCalls: extractToolCalls(calls)}
		if first {
			final.ID = id
		}
		if first || len(final.ToolCalls) > 0 {
			llm.Send(ctx, ch, final)
		}
	}()

	return ch, nil
}

// BlockedError indicates the request was blocked by content filtering.
type BlockedError struct {
	Reason string
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("request blocked: %s", e.Reason)
}

// wrapError categorizes a GenAI SDK error. genai.APIError does not expose
// headers, so no Retry-After hint is available.
func wrapError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return synphora.NewStatusError("google", apiErr.Code, err)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return synphora.NewStatusError("google", apiErrPtr.Code, err)
	}
	return err
}

var _ llm.Client = (*Client)(nil)
