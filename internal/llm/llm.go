// Package llm hides the generative model provider behind a single
// Generate call used by the selector, the contact structurer and the
// enrichment stages.
package llm

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/markmdev/networking-copilot/internal/config"
	"github.com/markmdev/networking-copilot/internal/model"
	"github.com/markmdev/networking-copilot/pkg/anthropic"
)

// Client generates text from a system and user prompt.
type Client interface {
	Generate(ctx context.Context, req Request) (*Response, error)
}

// Request is a single-turn generation request.
type Request struct {
	// Stage names the caller for logs and cost attribution.
	Stage       string
	System      string
	Prompt      string
	MaxTokens   int64
	Temperature *float64
}

// Response is the generated text and its token usage.
type Response struct {
	Text  string
	Model string
	Usage model.TokenUsage
}

// New builds the Client selected by cfg.LLM.Provider.
func New(cfg *config.Config) (Client, error) {
	switch cfg.LLM.Provider {
	case "anthropic", "":
		return NewAnthropic(anthropic.NewClient(cfg.Anthropic.Key), cfg.Anthropic.Model, cfg.Anthropic.MaxTokens), nil
	case "openai":
		return NewOpenAI(cfg.OpenAI.Key, cfg.OpenAI.Model)
	default:
		return nil, eris.Errorf("llm: unsupported provider %q", cfg.LLM.Provider)
	}
}

// Temperature returns a pointer to t for Request.Temperature.
func Temperature(t float64) *float64 { return &t }

// CleanJSON strips markdown fences and surrounding prose from a model reply,
// returning the outermost JSON object.
func CleanJSON(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		return text[start : end+1]
	}
	return text
}

// DecodeJSON unmarshals the JSON object in a model reply into out.
func DecodeJSON(text string, out any) error {
	cleaned := CleanJSON(text)
	if cleaned == "" {
		return eris.New("llm: empty response")
	}
	if err := json.Unmarshal([]byte(cleaned), out); err != nil {
		return eris.Wrap(err, "llm: decode json response")
	}
	return nil
}
