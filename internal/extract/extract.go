package extract

import (
	"context"
	"fmt"
	"html"
	"mime"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/markmdev/networking-copilot/internal/llm"
	"github.com/markmdev/networking-copilot/internal/model"
	"github.com/markmdev/networking-copilot/internal/ocr"
)

const structureSystem = "You are an extraction assistant. Respond with valid JSON only."

const structureTemplate = `Extract the following information from this content and return as JSON:
- basic_info: names, company
- links: linkedin, github, website, email, phone

Only fill a field when the value appears in the content. Use an empty string for anything not present; never guess.

Content: %s

Return only valid JSON format:
{
  "basic_info": {"names": "", "company": ""},
  "links": {"linkedin": "", "github": "", "website": "", "email": "", "phone": ""}
}`

// Result is the outcome of extracting contact fields from an image.
type Result struct {
	Fields   model.ContactFields
	Markdown string
}

// Adapter extracts contact fields from an image via OCR followed by LLM
// structuring.
type Adapter struct {
	ocr    ocr.Extractor
	llm    llm.Client
	policy *bluemonday.Policy
}

// New creates an Adapter.
func New(extractor ocr.Extractor, client llm.Client) *Adapter {
	return &Adapter{ocr: extractor, llm: client, policy: bluemonday.StrictPolicy()}
}

// CheckInput validates the upload without calling any service.
func CheckInput(filename string, data []byte, contentType string) error {
	if strings.TrimSpace(filename) == "" || len(data) == 0 {
		return ErrMissingInput
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mediaType, "image/") {
		return eris.Wrapf(ErrUnsupportedMedia, "content type %q", contentType)
	}
	return nil
}

// Extract runs OCR on the image and maps the text onto ContactFields.
func (a *Adapter) Extract(ctx context.Context, filename string, data []byte, contentType string) (*Result, error) {
	if err := CheckInput(filename, data, contentType); err != nil {
		return nil, err
	}
	log := zap.L().With(zap.String("stage", "extract"), zap.String("filename", filename))

	raw, err := a.ocr.ExtractImage(ctx, data, contentType)
	if err != nil {
		return nil, &Error{Step: "ocr", Err: err}
	}
	markdown := a.clean(raw)
	if markdown == "" {
		return nil, &Error{Step: "ocr", Err: eris.New("no text recognized in image")}
	}

	resp, err := a.llm.Generate(ctx, llm.Request{
		Stage:       "extract",
		System:      structureSystem,
		Prompt:      fmt.Sprintf(structureTemplate, markdown),
		Temperature: llm.Temperature(0),
	})
	if err != nil {
		return nil, &Error{Step: "structure", Err: err}
	}

	var parsed structured
	if err := llm.DecodeJSON(resp.Text, &parsed); err != nil {
		return nil, &Error{Step: "parse", Err: err}
	}

	fields := parsed.fields()
	log.Info("extract: contact fields parsed",
		zap.Bool("has_names", fields.Names != ""),
		zap.Bool("has_company", fields.Company != ""),
		zap.Bool("has_linkedin", fields.Links.LinkedIn != ""),
	)
	return &Result{Fields: fields, Markdown: markdown}, nil
}

// Query turns extracted fields into a directory search. A single name token
// is used as both first and last name.
func Query(fields model.ContactFields) (model.SearchQuery, error) {
	first, last, ok := fields.SplitName()
	if !ok {
		return model.SearchQuery{}, &Error{Step: "names", Err: eris.New("unable to extract names")}
	}
	return model.SearchQuery{
		FirstName:         first,
		LastName:          last,
		AdditionalContext: fields.SearchContext(),
	}, nil
}

// clean strips any HTML the OCR engine emitted and normalizes whitespace.
func (a *Adapter) clean(text string) string {
	text = html.UnescapeString(a.policy.Sanitize(text))
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t\r")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

type structured struct {
	BasicInfo struct {
		Names   string `json:"names"`
		Company string `json:"company"`
	} `json:"basic_info"`
	Links struct {
		LinkedIn string `json:"linkedin"`
		GitHub   string `json:"github"`
		Website  string `json:"website"`
		Email    string `json:"email"`
		Phone    string `json:"phone"`
	} `json:"links"`
}

func (s structured) fields() model.ContactFields {
	return model.ContactFields{
		Names:   confident(s.BasicInfo.Names),
		Company: confident(s.BasicInfo.Company),
		Links: model.ContactLinks{
			LinkedIn: confident(s.Links.LinkedIn),
			GitHub:   confident(s.Links.GitHub),
			Website:  confident(s.Links.Website),
			Email:    confident(s.Links.Email),
			Phone:    confident(s.Links.Phone),
		},
	}
}

// placeholders are values models return instead of leaving a field empty.
var placeholders = map[string]bool{
	"null": true, "none": true, "n/a": true, "na": true, "unknown": true,
	"not found": true, "not available": true, "not provided": true,
	"extracted names": true, "extracted company": true,
}

func confident(v string) string {
	v = strings.TrimSpace(v)
	lower := strings.ToLower(v)
	if placeholders[lower] || strings.HasSuffix(lower, " if found") {
		return ""
	}
	return v
}
