package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/markmdev/networking-copilot/internal/crew"
	"github.com/markmdev/networking-copilot/internal/extract"
	"github.com/markmdev/networking-copilot/internal/llm"
	"github.com/markmdev/networking-copilot/internal/ocr"
	"github.com/markmdev/networking-copilot/internal/pipeline"
	"github.com/markmdev/networking-copilot/internal/resilience"
	"github.com/markmdev/networking-copilot/internal/search"
	"github.com/markmdev/networking-copilot/internal/selector"
	"github.com/markmdev/networking-copilot/internal/snapshot"
	"github.com/markmdev/networking-copilot/internal/store"
	"github.com/markmdev/networking-copilot/pkg/brightdata"
)

// pipelineEnv holds the store and the pipeline built for one command.
type pipelineEnv struct {
	Store    store.Store
	Pipeline *pipeline.Pipeline
}

// Close releases resources held by the pipeline environment.
func (pe *pipelineEnv) Close() {
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

// needs lists the collaborators a command mode uses.
type needs struct {
	directory bool
	llm       bool
	ocr       bool
}

func needsFor(mode string) needs {
	switch mode {
	case "serve", "capture":
		return needs{directory: true, llm: true, ocr: true}
	case "lookup":
		return needs{directory: true, llm: true}
	case "snapshot":
		return needs{directory: true}
	case "enrich":
		return needs{llm: true}
	}
	return needs{}
}

// initPipeline opens the store and builds the pipeline with only the
// clients mode needs. The root command has already validated config for
// mode. Callers should defer env.Close().
func initPipeline(ctx context.Context, mode string) (*pipelineEnv, error) {
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}

	deps := pipeline.Deps{Store: st}
	n := needsFor(mode)

	if n.directory {
		bd := brightdata.NewClient(cfg.BrightData.Key,
			brightdata.WithBaseURL(cfg.BrightData.BaseURL),
			brightdata.WithRateLimit(cfg.BrightData.RatePerSec),
			brightdata.WithCircuitBreaker(resilience.NewCircuitBreaker(
				resilience.ProviderBreakerConfig("brightdata", cfg.BrightData.BreakerThreshold, cfg.BrightData.BreakerResetSecs),
			)),
		)
		poll := pollOptions()
		deps.Searcher = search.New(bd, cfg.BrightData.SearchDatasetID, cfg.BrightData.SearchURL, poll...)
		deps.Fetcher = snapshot.NewFetcher(bd, cfg.BrightData.ProfileDatasetID, poll...)
	}

	if n.llm {
		client, err := llm.New(cfg)
		if err != nil {
			_ = st.Close()
			return nil, err
		}
		sel, err := selector.New(cfg.Selector.Mode, client)
		if err != nil {
			_ = st.Close()
			return nil, err
		}
		enricher, err := crew.NewLLM(client)
		if err != nil {
			_ = st.Close()
			return nil, eris.Wrap(err, "build enrichment crew")
		}
		deps.Selector = sel
		deps.Enricher = enricher

		if n.ocr {
			extractor, err := ocr.NewExtractor(ctx, cfg.OCR)
			if err != nil {
				_ = st.Close()
				return nil, err
			}
			deps.Extractor = extract.New(extractor, client)
		}
	}

	zap.L().Info("pipeline initialized",
		zap.String("mode", mode),
		zap.String("store", cfg.Store.Driver),
		zap.String("llm", cfg.LLM.Provider),
		zap.String("selector", cfg.Selector.Mode),
	)

	return &pipelineEnv{
		Store:    st,
		Pipeline: pipeline.New(deps, pipeline.OptionsFromConfig(cfg.Pipeline)),
	}, nil
}

func pollOptions() []brightdata.PollOption {
	var opts []brightdata.PollOption
	if ms := cfg.BrightData.PollIntervalMs; ms > 0 {
		opts = append(opts, brightdata.WithPollInterval(time.Duration(ms)*time.Millisecond))
	}
	if ms := cfg.BrightData.PollCapMs; ms > 0 {
		opts = append(opts, brightdata.WithPollCap(time.Duration(ms)*time.Millisecond))
	}
	if secs := cfg.BrightData.PollTimeoutSecs; secs > 0 {
		opts = append(opts, brightdata.WithPollTimeout(time.Duration(secs)*time.Second))
	}
	return opts
}
