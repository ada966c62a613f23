package ocr

import (
	"context"
	"errors"
	"net"

	"github.com/rotisserie/eris"
	"google.golang.org/genai"

	"github.com/markmdev/networking-copilot/internal/config"
	"github.com/markmdev/networking-copilot/internal/resilience"
)

// Extractor turns an image into markdown text.
type Extractor interface {
	ExtractImage(ctx context.Context, data []byte, contentType string) (string, error)
}

// NewExtractor creates an Extractor based on config.
func NewExtractor(ctx context.Context, cfg config.OCRConfig) (Extractor, error) {
	switch cfg.Provider {
	case "gemini", "":
		if cfg.GeminiKey == "" {
			return nil, eris.New("ocr: gemini provider requires ocr.gemini_key")
		}
		return NewGeminiOCR(ctx, cfg.GeminiKey, cfg.GeminiModel)
	case "mistral":
		if cfg.MistralKey == "" {
			return nil, eris.New("ocr: mistral provider requires ocr.mistral_key")
		}
		return NewMistralOCR(cfg.MistralKey, cfg.MistralModel), nil
	default:
		return nil, eris.Errorf("ocr: unknown provider %q", cfg.Provider)
	}
}

// classifyErr marks rate limits, 5xx responses and network timeouts as transient.
func classifyErr(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == 429 || apiErr.Code/100 == 5 {
			return resilience.NewTransientError(err, apiErr.Code)
		}
		return err
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return resilience.NewTransientError(err, 0)
	}
	return err
}
