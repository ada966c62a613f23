package llm

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/markmdev/networking-copilot/internal/model"
	"github.com/markmdev/networking-copilot/pkg/anthropic"
)

const defaultMaxTokens int64 = 2048

type anthropicClient struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// NewAnthropic returns a Client backed by the Anthropic messages API.
func NewAnthropic(client anthropic.Client, modelID string, maxTokens int64) Client {
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	return &anthropicClient{client: client, model: modelID, maxTokens: maxTokens}
}

func (c *anthropicClient) Generate(ctx context.Context, req Request) (*Response, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.maxTokens
	}

	resp, err := c.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       c.model,
		MaxTokens:   maxTokens,
		System:      anthropic.CachedSystem(req.System),
		Messages:    []anthropic.Message{{Role: "user", Content: req.Prompt}},
		Temperature: req.Temperature,
	})
	if err != nil {
		return nil, eris.Wrapf(err, "llm: %s", req.Stage)
	}
	resp.Usage.LogCost(c.model, req.Stage)

	text := resp.Text()
	if text == "" {
		return nil, eris.Errorf("llm: %s: empty response (stop_reason=%s)", req.Stage, resp.StopReason)
	}

	return &Response{
		Text:  text,
		Model: c.model,
		Usage: model.TokenUsage{
			InputTokens:  int(resp.Usage.InputTokens + resp.Usage.CacheReadInputTokens + resp.Usage.CacheCreationInputTokens),
			OutputTokens: int(resp.Usage.OutputTokens),
			Cost:         resp.Usage.EstimateCost(c.model),
		},
	}, nil
}
