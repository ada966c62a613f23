package crew

import (
	"context"
	"encoding/json"

	"github.com/rotisserie/eris"

	"github.com/markmdev/networking-copilot/internal/llm"
	"github.com/markmdev/networking-copilot/internal/model"
)

// Stage names one step of the enrichment run.
type Stage string

const (
	StageAnalyze   Stage = "analyze"
	StageSummarize Stage = "summarize"
	StageIcebreak  Stage = "icebreak"
)

// Analyzer turns a raw profile into structured facts.
type Analyzer interface {
	Analyze(ctx context.Context, profile json.RawMessage) (*model.AnalyzerOutput, error)
}

// Summarizer condenses an analysis.
type Summarizer interface {
	Summarize(ctx context.Context, analysis *model.AnalyzerOutput) (*model.SummaryOutput, error)
}

// IcebreakerGenerator writes conversation starters.
type IcebreakerGenerator interface {
	Icebreak(ctx context.Context, analysis *model.AnalyzerOutput, summary *model.SummaryOutput) (*model.IcebreakerSet, error)
}

// LLMStages implements all three stages with a generative model.
type LLMStages struct {
	client  llm.Client
	prompts *Prompts
}

// NewLLMStages creates stages using prompts, or the built-in catalogue when
// prompts is nil.
func NewLLMStages(client llm.Client, prompts *Prompts) (*LLMStages, error) {
	if prompts == nil {
		var err error
		if prompts, err = LoadPrompts(nil); err != nil {
			return nil, err
		}
	}
	return &LLMStages{client: client, prompts: prompts}, nil
}

func (s *LLMStages) Analyze(ctx context.Context, profile json.RawMessage) (*model.AnalyzerOutput, error) {
	var out model.AnalyzerOutput
	err := s.generate(ctx, StageAnalyze, s.prompts.Analyzer, map[string]string{
		"linkedin_profile": indent(profile),
	}, &out)
	return &out, err
}

func (s *LLMStages) Summarize(ctx context.Context, analysis *model.AnalyzerOutput) (*model.SummaryOutput, error) {
	var out model.SummaryOutput
	err := s.generate(ctx, StageSummarize, s.prompts.Summarizer, map[string]string{
		"analysis": mustJSON(analysis),
	}, &out)
	return &out, err
}

func (s *LLMStages) Icebreak(ctx context.Context, analysis *model.AnalyzerOutput, summary *model.SummaryOutput) (*model.IcebreakerSet, error) {
	var out model.IcebreakerSet
	err := s.generate(ctx, StageIcebreak, s.prompts.Icebreaker, map[string]string{
		"analysis": mustJSON(analysis),
		"summary":  mustJSON(summary),
	}, &out)
	return &out, err
}

func (s *LLMStages) generate(ctx context.Context, stage Stage, p Prompt, vars map[string]string, out any) error {
	resp, err := s.client.Generate(ctx, llm.Request{
		Stage:  string(stage),
		System: p.System,
		Prompt: p.Render(vars),
	})
	if err != nil {
		return eris.Wrapf(err, "crew: %s", stage)
	}
	if err := llm.DecodeJSON(resp.Text, out); err != nil {
		return &ShapeError{Reason: err.Error()}
	}
	return nil
}

func indent(raw json.RawMessage) string {
	var v any
	if json.Unmarshal(raw, &v) != nil {
		return string(raw)
	}
	return mustJSON(v)
}

func mustJSON(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(b)
}
