package ocr

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.5-flash"

const transcribePrompt = `Transcribe all text visible in this image (a name badge, business card or similar) as markdown.
Keep names, titles, company names, URLs, handles, emails and phone numbers exactly as printed.
Do not add commentary.`

// GeminiOCR extracts text from images with a Gemini vision model.
type GeminiOCR struct {
	client *genai.Client
	model  string
}

// NewGeminiOCR creates a GeminiOCR extractor. If model is empty, the default is used.
func NewGeminiOCR(ctx context.Context, apiKey, model string, opts ...func(*genai.ClientConfig)) (*GeminiOCR, error) {
	if model == "" {
		model = defaultGeminiModel
	}
	cc := &genai.ClientConfig{
		APIKey:  strings.TrimSpace(apiKey),
		Backend: genai.BackendGeminiAPI,
	}
	for _, opt := range opts {
		opt(cc)
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, eris.Wrap(err, "ocr: create gemini client")
	}
	return &GeminiOCR{client: client, model: model}, nil
}

// WithGeminiBaseURL points the client at a different API host.
func WithGeminiBaseURL(u string) func(*genai.ClientConfig) {
	return func(cc *genai.ClientConfig) {
		cc.HTTPOptions.BaseURL = u
	}
}

// ExtractImage sends the image to Gemini and returns the transcription.
func (g *GeminiOCR) ExtractImage(ctx context.Context, data []byte, contentType string) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(data, contentType),
			genai.NewPartFromText(transcribePrompt),
		}, genai.RoleUser),
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		CandidateCount: 1,
	})
	if err != nil {
		return "", eris.Wrap(classifyErr(err), "ocr: gemini generate content")
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", eris.New("ocr: gemini returned no text")
	}
	return text, nil
}
