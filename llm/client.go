// Package llm abstracts the language model behind a single-call client so
// agents and the classifier can run against OpenAI-compatible endpoints or
// a canned stand-in.
package llm

import (
	"context"

	"github.com/rohanthewiz/serr"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Client is the minimal completion surface the agents need.
type Client interface {
	Complete(ctx context.Context, systemPrompt, userMsg string) (string, error)
}

// OpenAIClient talks to an OpenAI-compatible chat endpoint via langchaingo.
type OpenAIClient struct {
	model llms.Model
}

// Options configures the OpenAI client.
type Options struct {
	APIKey  string
	Model   string
	BaseURL string // optional endpoint override
}

// NewOpenAI creates a client for an OpenAI-compatible endpoint.
func NewOpenAI(opts Options) (*OpenAIClient, error) {
	if opts.APIKey == "" {
		return nil, serr.New("no API key provided")
	}

	oaOpts := []openai.Option{
		openai.WithToken(opts.APIKey),
		openai.WithModel(opts.Model),
	}
	if opts.BaseURL != "" {
		oaOpts = append(oaOpts, openai.WithBaseURL(opts.BaseURL))
	}

	model, err := openai.New(oaOpts...)
	if err != nil {
		return nil, serr.Wrap(err, "failed to create OpenAI client")
	}

	return &OpenAIClient{model: model}, nil
}

// Complete sends a system + user message pair and returns the first choice.
func (c *OpenAIClient) Complete(ctx context.Context, systemPrompt, userMsg string) (string, error) {
	var messages []llms.MessageContent
	if systemPrompt != "" {
		messages = append(messages, llms.MessageContent{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(systemPrompt)},
		})
	}
	messages = append(messages, llms.MessageContent{
		Role:  llms.ChatMessageTypeHuman,
		Parts: []llms.ContentPart{llms.TextPart(userMsg)},
	})

	resp, err := c.model.GenerateContent(ctx, messages)
	if err != nil {
		return "", serr.Wrap(err, "LLM completion failed")
	}
	if len(resp.Choices) == 0 {
		return "", serr.New("LLM returned no choices")
	}

	return resp.Choices[0].Content, nil
}
