// Package pipeline sequences extraction, search, selection, snapshot fetch
// and enrichment into one run, widens component errors into a single
// taxonomy and persists successful results.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/markmdev/networking-copilot/internal/config"
	"github.com/markmdev/networking-copilot/internal/extract"
	"github.com/markmdev/networking-copilot/internal/model"
	"github.com/markmdev/networking-copilot/internal/resilience"
	"github.com/markmdev/networking-copilot/internal/search"
	"github.com/markmdev/networking-copilot/internal/selector"
	"github.com/markmdev/networking-copilot/internal/store"
)

// Extractor turns an uploaded image into contact fields.
type Extractor interface {
	Extract(ctx context.Context, filename string, data []byte, contentType string) (*extract.Result, error)
}

// Searcher queries the directory for candidates.
type Searcher interface {
	Search(ctx context.Context, q model.SearchQuery) (*search.Result, error)
}

// Fetcher retrieves a full profile snapshot for a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*model.SnapshotResult, error)
}

// Enricher runs the analyzer, summarizer and icebreaker stages.
type Enricher interface {
	Run(ctx context.Context, profile json.RawMessage) (*model.CrewOutputs, error)
}

// ProgressFunc receives capture progress as a percentage and a message.
type ProgressFunc func(percent int, message string)

// Options tunes retries, timeouts and caching.
type Options struct {
	SearchRetry resilience.RetryConfig
	CallTimeout time.Duration
	CacheTTL    time.Duration
}

// DefaultOptions returns one search retry after 1.5s, a 4 minute per-call
// timeout and a 24 hour lookup cache.
func DefaultOptions() Options {
	return Options{
		SearchRetry: resilience.SearchRetryConfig(1, 1500),
		CallTimeout: 4 * time.Minute,
		CacheTTL:    24 * time.Hour,
	}
}

// OptionsFromConfig builds Options from pipeline settings, keeping defaults
// for unset values.
func OptionsFromConfig(cfg config.PipelineConfig) Options {
	opts := DefaultOptions()
	opts.SearchRetry = resilience.SearchRetryConfig(cfg.SearchRetries, cfg.SearchBackoffMs)
	if cfg.CallTimeoutSecs > 0 {
		opts.CallTimeout = time.Duration(cfg.CallTimeoutSecs) * time.Second
	}
	if cfg.LookupCacheTTLHours > 0 {
		opts.CacheTTL = time.Duration(cfg.LookupCacheTTLHours) * time.Hour
	}
	return opts
}

// Deps are the collaborators of a Pipeline. Store may be nil, in which
// case nothing is persisted or cached.
type Deps struct {
	Extractor Extractor
	Searcher  Searcher
	Selector  selector.Selector
	Fetcher   Fetcher
	Enricher  Enricher
	Store     store.Store
}

// Pipeline runs profile resolution and enrichment. It holds no per-run
// state and is safe for concurrent use.
type Pipeline struct {
	deps Deps
	opts Options
}

// New creates a Pipeline.
func New(deps Deps, opts Options) *Pipeline {
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = DefaultOptions().CallTimeout
	}
	return &Pipeline{deps: deps, opts: opts}
}

// Outcome is a computed result and how it was stored. A persistence
// failure is reported in PersistError without invalidating Result.
type Outcome struct {
	Result       *model.EnrichmentResult `json:"result"`
	RecordID     string                  `json:"record_id,omitempty"`
	Persisted    bool                    `json:"persisted"`
	PersistError string                  `json:"persist_error,omitempty"`
	Cached       bool                    `json:"cached,omitempty"`
}

// step runs fn under the per-call timeout, logging its duration and
// widening its error for stage.
func step[T any](ctx context.Context, p *Pipeline, stage string, fn func(ctx context.Context) (T, error)) (T, error) {
	callCtx, cancel := context.WithTimeout(ctx, p.opts.CallTimeout)
	defer cancel()

	start := time.Now()
	val, err := fn(callCtx)
	duration := time.Since(start).Milliseconds()

	if err != nil {
		var zero T
		err = wrap(stage, err)
		zap.L().Error("pipeline: stage failed",
			zap.String("stage", stage),
			zap.Int64("duration_ms", duration),
			zap.String("kind", string(KindOf(err))),
			zap.Error(err),
		)
		return zero, err
	}
	zap.L().Info("pipeline: stage complete",
		zap.String("stage", stage),
		zap.Int64("duration_ms", duration),
	)
	return val, nil
}

// retryableSearch reports whether a search failure is worth one more try.
func retryableSearch(err error) bool {
	var se *search.ServiceError
	return errors.As(err, &se)
}
