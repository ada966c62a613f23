// Package crew runs the three enrichment stages (analyze, summarize,
// icebreak) over a profile snapshot as a linear state graph.
package crew

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"github.com/smallnest/langgraphgo/graph"
	"go.uber.org/zap"

	"github.com/markmdev/networking-copilot/internal/llm"
	"github.com/markmdev/networking-copilot/internal/model"
)

// Status is the position of a run in the stage machine. Failed is absorbing.
type Status string

const (
	StatusStart      Status = "start"
	StatusAnalyzed   Status = "analyzed"
	StatusSummarized Status = "summarized"
	StatusIcebroken  Status = "icebroken"
	StatusDone       Status = "done"
	StatusFailed     Status = "failed"
)

// state flows through the graph. Each node reads the previous stage's
// output and sets its own.
type state struct {
	Profile     json.RawMessage
	Status      Status
	Analysis    *model.AnalyzerOutput
	Summary     *model.SummaryOutput
	Icebreakers *model.IcebreakerSet
}

// Crew runs the enrichment stages in order.
type Crew struct {
	analyzer   Analyzer
	summarizer Summarizer
	icebreaker IcebreakerGenerator
	runnable   *graph.StateRunnable[state]
}

// New wires the stages into a compiled graph.
func New(a Analyzer, s Summarizer, i IcebreakerGenerator) (*Crew, error) {
	c := &Crew{analyzer: a, summarizer: s, icebreaker: i}

	g := graph.NewStateGraph[state]()
	g.AddNode(string(StageAnalyze), "Extract structured facts from the profile", c.analyze)
	g.AddNode(string(StageSummarize), "Write a two sentence summary", c.summarize)
	g.AddNode(string(StageIcebreak), "Generate conversation starters", c.icebreak)
	g.AddEdge(string(StageAnalyze), string(StageSummarize))
	g.AddEdge(string(StageSummarize), string(StageIcebreak))
	g.AddEdge(string(StageIcebreak), graph.END)
	g.SetEntryPoint(string(StageAnalyze))

	runnable, err := g.Compile()
	if err != nil {
		return nil, eris.Wrap(err, "crew: compile graph")
	}
	c.runnable = runnable
	return c, nil
}

// NewLLM builds a Crew whose stages all use client with the built-in prompts.
func NewLLM(client llm.Client) (*Crew, error) {
	stages, err := NewLLMStages(client, nil)
	if err != nil {
		return nil, err
	}
	return New(stages, stages, stages)
}

// Run enriches one profile. On failure it returns a *Error naming the
// stage and no outputs.
func (c *Crew) Run(ctx context.Context, profile json.RawMessage) (*model.CrewOutputs, error) {
	start := time.Now()
	final, err := c.runnable.Invoke(ctx, state{Profile: profile, Status: StatusStart})
	if err != nil {
		var stageErr *Error
		if !errors.As(err, &stageErr) {
			stageErr = &Error{Stage: StageAnalyze, Err: err}
		}
		zap.L().Warn("crew: enrichment failed",
			zap.String("stage", string(stageErr.Stage)),
			zap.String("status", string(StatusFailed)),
			zap.Error(stageErr.Err),
		)
		return nil, stageErr
	}
	if final.Status != StatusIcebroken {
		return nil, &Error{Stage: StageIcebreak, Err: eris.Errorf("run ended in status %s", final.Status)}
	}

	zap.L().Info("crew: enrichment complete",
		zap.String("status", string(StatusDone)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return &model.CrewOutputs{
		Analyzer:    *final.Analysis,
		Summary:     *final.Summary,
		Icebreakers: *final.Icebreakers,
	}, nil
}

func (c *Crew) analyze(ctx context.Context, s state) (state, error) {
	out, err := c.analyzer.Analyze(ctx, s.Profile)
	if err == nil {
		err = checkOutput(out == nil, func() error { return ValidateAnalysis(out) })
	}
	if err != nil {
		return s, &Error{Stage: StageAnalyze, Err: err}
	}
	s.Analysis, s.Status = out, StatusAnalyzed
	return s, nil
}

func (c *Crew) summarize(ctx context.Context, s state) (state, error) {
	out, err := c.summarizer.Summarize(ctx, s.Analysis)
	if err == nil {
		err = checkOutput(out == nil, func() error { return ValidateSummary(out, s.Analysis) })
	}
	if err != nil {
		return s, &Error{Stage: StageSummarize, Err: err}
	}
	s.Summary, s.Status = out, StatusSummarized
	return s, nil
}

func (c *Crew) icebreak(ctx context.Context, s state) (state, error) {
	out, err := c.icebreaker.Icebreak(ctx, s.Analysis, s.Summary)
	if err == nil {
		err = checkOutput(out == nil, func() error { return ValidateIcebreakers(out) })
	}
	if err != nil {
		return s, &Error{Stage: StageIcebreak, Err: err}
	}
	s.Icebreakers, s.Status = out, StatusIcebroken
	return s, nil
}

func checkOutput(missing bool, validate func() error) error {
	if missing {
		return &ShapeError{Reason: "stage returned no output"}
	}
	return validate()
}
