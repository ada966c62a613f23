package selector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/markmdev/networking-copilot/internal/llm"
	"github.com/markmdev/networking-copilot/internal/model"
)

const selectorSystem = `You are a people-research specialist. Given LinkedIn search results and search criteria, you pick the single profile that most likely belongs to the person being looked up. You never invent profiles or URLs. Respond with valid JSON only.`

const selectorTemplate = `Review the candidate profiles below and select the one that best matches the search criteria.

Candidate profiles (JSON):
%s

Search criteria:
%s

Rules:
- selected_profile must be copied exactly from the candidate list, including its "url".
- rationale explains in one or two sentences why this candidate fits better than the others.

Return only JSON in this shape:
{"selected_profile": {"url": "", "name": "", "subtitle": "", "location": ""}, "rationale": ""}`

// LLM selects candidates with a generative model.
type LLM struct {
	client llm.Client
}

// NewLLM creates an LLM selector.
func NewLLM(client llm.Client) *LLM {
	return &LLM{client: client}
}

type selection struct {
	Selected  json.RawMessage `json:"selected_profile"`
	Rationale string          `json:"rationale"`
}

// Select asks the model for a choice and validates it against the input.
func (s *LLM) Select(ctx context.Context, candidates []model.CandidateSummary, q model.SearchQuery) (*model.SelectionResult, error) {
	if len(candidates) == 0 {
		return nil, ErrEmpty
	}

	listing, err := json.MarshalIndent(candidates, "", "  ")
	if err != nil {
		return nil, eris.Wrap(err, "selector: encode candidates")
	}

	resp, err := s.client.Generate(ctx, llm.Request{
		Stage:       "select",
		System:      selectorSystem,
		Prompt:      fmt.Sprintf(selectorTemplate, listing, Criteria(q)),
		Temperature: llm.Temperature(0),
	})
	if err != nil {
		return nil, &Error{Err: err}
	}

	var out selection
	if err := llm.DecodeJSON(resp.Text, &out); err != nil {
		return nil, &Error{Err: err}
	}

	url := selectedURL(out.Selected)
	i := indexOf(candidates, url)
	if i < 0 {
		return nil, &Error{Err: eris.Wrapf(ErrUnknownURL, "%q", url)}
	}
	rationale := strings.TrimSpace(out.Rationale)
	if rationale == "" {
		return nil, &Error{Err: ErrNoRationale}
	}

	zap.L().Info("selector: candidate chosen",
		zap.String("stage", "select"),
		zap.String("url", url),
		zap.Int("position", i),
		zap.Int("candidates", len(candidates)),
	)
	return &model.SelectionResult{Selected: candidates[i], Rationale: rationale}, nil
}

// selectedURL accepts either a profile object or a bare URL string.
func selectedURL(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if json.Unmarshal(raw, &s) == nil {
			return s
		}
		return ""
	}
	var obj struct {
		URL string `json:"url"`
	}
	if json.Unmarshal(raw, &obj) != nil {
		return ""
	}
	return obj.URL
}
