package llm

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"

	"github.com/markmdev/networking-copilot/internal/model"
)

type langchainClient struct {
	llm   llms.Model
	model string
}

// NewOpenAI returns a Client backed by OpenAI chat completions through
// langchaingo.
func NewOpenAI(apiKey, modelID string, opts ...openai.Option) (Client, error) {
	opts = append([]openai.Option{openai.WithToken(apiKey), openai.WithModel(modelID)}, opts...)
	m, err := openai.New(opts...)
	if err != nil {
		return nil, eris.Wrap(err, "llm: create openai client")
	}
	return NewLangChain(m, modelID), nil
}

// NewLangChain adapts any langchaingo model.
func NewLangChain(m llms.Model, modelID string) Client {
	return &langchainClient{llm: m, model: modelID}
}

func (c *langchainClient) Generate(ctx context.Context, req Request) (*Response, error) {
	var messages []llms.MessageContent
	if req.System != "" {
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, req.System))
	}
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, req.Prompt))

	var opts []llms.CallOption
	if req.Temperature != nil {
		opts = append(opts, llms.WithTemperature(*req.Temperature))
	}
	if req.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(int(req.MaxTokens)))
	}

	resp, err := c.llm.GenerateContent(ctx, messages, opts...)
	if err != nil {
		return nil, eris.Wrapf(err, "llm: %s", req.Stage)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Content == "" {
		return nil, eris.Errorf("llm: %s: empty response", req.Stage)
	}

	choice := resp.Choices[0]
	usage := model.TokenUsage{
		InputTokens:  intInfo(choice.GenerationInfo, "PromptTokens"),
		OutputTokens: intInfo(choice.GenerationInfo, "CompletionTokens"),
	}
	zap.L().Info("cost attribution",
		zap.String("model", c.model),
		zap.String("stage", req.Stage),
		zap.Int("input_tokens", usage.InputTokens),
		zap.Int("output_tokens", usage.OutputTokens),
	)

	return &Response{Text: choice.Content, Model: c.model, Usage: usage}, nil
}

func intInfo(info map[string]any, key string) int {
	switch v := info[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}
