package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/markmdev/networking-copilot/internal/extract"
	"github.com/markmdev/networking-copilot/internal/model"
	"github.com/markmdev/networking-copilot/internal/resilience"
	"github.com/markmdev/networking-copilot/internal/search"
	"github.com/markmdev/networking-copilot/internal/selector"
	"github.com/markmdev/networking-copilot/internal/snapshot"
	"github.com/markmdev/networking-copilot/internal/store"
)

// Search finds candidates for q and selects one. Nothing is fetched or
// persisted.
func (p *Pipeline) Search(ctx context.Context, q model.SearchQuery) (*model.SelectionResult, error) {
	if err := validateQuery(q); err != nil {
		return nil, err
	}
	return p.searchAndSelect(ctx, q)
}

// Lookup resolves and enriches a person from a typed name. A cached result
// is returned without calling any dependency and is not stored again.
func (p *Pipeline) Lookup(ctx context.Context, q model.SearchQuery) (*Outcome, error) {
	if err := validateQuery(q); err != nil {
		return nil, err
	}
	res, cached, err := p.lookup(ctx, q)
	if err != nil {
		return nil, err
	}
	out := &Outcome{Result: res, Cached: cached}
	if cached {
		return out, nil
	}
	if err := p.persist(ctx, &model.Record{EnrichmentResult: *res}, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Capture resolves and enriches a person from a badge or card image. The
// record always carries the filename, extracted fields and OCR markdown.
func (p *Pipeline) Capture(ctx context.Context, filename string, data []byte, contentType string, progress ProgressFunc) (*Outcome, error) {
	report := func(percent int, message string) {
		if progress != nil {
			progress(percent, message)
		}
	}
	if err := extract.CheckInput(filename, data, contentType); err != nil {
		return nil, wrap(StageExtract, err)
	}

	report(5, "Processing image")
	ext, err := step(ctx, p, StageExtract, func(ctx context.Context) (*extract.Result, error) {
		return p.deps.Extractor.Extract(ctx, filename, data, contentType)
	})
	if err != nil {
		return nil, err
	}
	q, err := extract.Query(ext.Fields)
	if err != nil {
		return nil, wrap(StageExtract, err)
	}

	report(45, "Searching LinkedIn")
	res, cached, err := p.lookup(ctx, q)
	if err != nil {
		return nil, err
	}

	report(90, "Saving profile")
	fields := ext.Fields
	rec := &model.Record{
		Filename:         filename,
		Markdown:         ext.Markdown,
		Extracted:        &fields,
		EnrichmentResult: *res,
	}
	out := &Outcome{Result: res, Cached: cached}
	if err := p.persist(ctx, rec, out); err != nil {
		return nil, err
	}
	report(100, "Completed")
	return out, nil
}

// FetchSnapshot returns the raw snapshot for a profile URL.
func (p *Pipeline) FetchSnapshot(ctx context.Context, url string) (*model.SnapshotResult, error) {
	if _, err := snapshot.NormalizeURL(url); err != nil {
		return nil, wrap(StageInput, err)
	}
	return step(ctx, p, StageFetch, func(ctx context.Context) (*model.SnapshotResult, error) {
		return p.deps.Fetcher.Fetch(ctx, url)
	})
}

// Direct enriches a snapshot supplied by the caller, skipping search and
// fetch. payload is a profile object or a non-empty list whose first
// element is used.
func (p *Pipeline) Direct(ctx context.Context, payload json.RawMessage) (*Outcome, error) {
	profile, err := primaryProfile(payload)
	if err != nil {
		return nil, &Error{Kind: KindValidation, Stage: StageInput, Err: err}
	}

	outputs, err := p.enrich(ctx, profile.Raw())
	if err != nil {
		return nil, err
	}
	res := &model.EnrichmentResult{Person: personFromSnapshot(profile), CrewOutputs: *outputs}
	out := &Outcome{Result: res}
	if err := p.persist(ctx, &model.Record{EnrichmentResult: *res}, out); err != nil {
		return nil, err
	}
	return out, nil
}

func validateQuery(q model.SearchQuery) error {
	if strings.TrimSpace(q.FirstName) == "" || strings.TrimSpace(q.LastName) == "" {
		return &Error{
			Kind:  KindValidation,
			Stage: StageInput,
			Err:   eris.Wrap(ErrInvalidInput, "first_name and last_name are required"),
		}
	}
	return nil
}

// searchAndSelect runs the directory search, retrying service failures,
// then picks one candidate.
func (p *Pipeline) searchAndSelect(ctx context.Context, q model.SearchQuery) (*model.SelectionResult, error) {
	cfg := p.opts.SearchRetry
	cfg.ShouldRetry = retryableSearch
	cfg.OnRetry = resilience.RetryLogger(StageSearch, "directory search")

	found, err := resilience.DoVal(ctx, cfg, func(ctx context.Context) (*search.Result, error) {
		return step(ctx, p, StageSearch, func(ctx context.Context) (*search.Result, error) {
			return p.deps.Searcher.Search(ctx, q)
		})
	})
	if err != nil {
		return nil, err
	}

	sel, err := step(ctx, p, StageSelect, func(ctx context.Context) (*model.SelectionResult, error) {
		return p.deps.Selector.Select(ctx, found.Candidates, q)
	})
	if err != nil {
		return nil, err
	}
	if !containsURL(found.Candidates, sel.Selected.URL) {
		return nil, &Error{
			Kind:  KindDependency,
			Stage: StageSelect,
			Err:   eris.Wrapf(selector.ErrUnknownURL, "url %q", sel.Selected.URL),
		}
	}
	return sel, nil
}

// lookup serves q from the cache or runs search, fetch and enrichment and
// caches the result. Cache failures are logged and ignored.
func (p *Pipeline) lookup(ctx context.Context, q model.SearchQuery) (*model.EnrichmentResult, bool, error) {
	log := zap.L().With(zap.String("first_name", q.FirstName), zap.String("last_name", q.LastName))
	key := store.LookupKey(q.FirstName, q.LastName)

	if p.deps.Store != nil {
		cached, err := p.deps.Store.GetCachedLookup(ctx, key)
		switch {
		case err != nil:
			log.Warn("pipeline: lookup cache read failed", zap.Error(err))
		case cached != nil:
			log.Info("pipeline: lookup cache hit")
			return cached, true, nil
		}
	}

	res, err := p.resolve(ctx, q)
	if err != nil {
		return nil, false, err
	}

	if p.deps.Store != nil && ctx.Err() == nil {
		if err := p.deps.Store.SetCachedLookup(ctx, key, res, p.opts.CacheTTL); err != nil {
			log.Warn("pipeline: lookup cache write failed", zap.Error(err))
		}
	}
	return res, false, nil
}

// resolve runs the full chain for a name: search, select, fetch, enrich.
func (p *Pipeline) resolve(ctx context.Context, q model.SearchQuery) (*model.EnrichmentResult, error) {
	sel, err := p.searchAndSelect(ctx, q)
	if err != nil {
		return nil, err
	}

	canonical, err := snapshot.NormalizeURL(sel.Selected.URL)
	if err != nil {
		return nil, &Error{Kind: KindData, Stage: StageFetch, Err: err}
	}

	snap, err := step(ctx, p, StageFetch, func(ctx context.Context) (*model.SnapshotResult, error) {
		return p.deps.Fetcher.Fetch(ctx, canonical)
	})
	if err != nil {
		return nil, err
	}
	if len(snap.Records) == 0 {
		return nil, &Error{Kind: KindData, Stage: StageFetch, Err: snapshot.ErrEmpty}
	}

	outputs, err := p.enrich(ctx, snap.Records[0].Raw())
	if err != nil {
		return nil, err
	}

	person := sel.Selected
	person.URL = canonical
	return &model.EnrichmentResult{
		Person:            person,
		SelectorRationale: sel.Rationale,
		CrewOutputs:       *outputs,
	}, nil
}

func (p *Pipeline) enrich(ctx context.Context, profile json.RawMessage) (*model.CrewOutputs, error) {
	return step(ctx, p, StageEnrich, func(ctx context.Context) (*model.CrewOutputs, error) {
		return p.deps.Enricher.Run(ctx, profile)
	})
}

// persist stores rec and records the outcome on out. A caller that has
// gone away gets an error and nothing is stored; a store failure is only
// flagged on out.
func (p *Pipeline) persist(ctx context.Context, rec *model.Record, out *Outcome) error {
	if p.deps.Store == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return &Error{Kind: KindDependency, Stage: StagePersist, Err: err}
	}
	if err := p.deps.Store.PutRecord(ctx, rec); err != nil {
		zap.L().Warn("pipeline: persist failed", zap.Error(err))
		out.PersistError = err.Error()
		return nil
	}
	out.RecordID = rec.ID
	out.Persisted = true
	return nil
}

func containsURL(candidates []model.CandidateSummary, url string) bool {
	for _, c := range candidates {
		if c.URL == url {
			return true
		}
	}
	return false
}

func primaryProfile(payload json.RawMessage) (model.ProfileSnapshot, error) {
	var profile model.ProfileSnapshot
	payload = bytes.TrimSpace(payload)
	if len(payload) > 0 && payload[0] == '[' {
		var list []json.RawMessage
		if err := json.Unmarshal(payload, &list); err != nil {
			return profile, eris.Wrap(ErrInvalidInput, "profile list is not valid json")
		}
		if len(list) == 0 {
			return profile, eris.Wrap(ErrInvalidInput, "profile list must include at least one profile")
		}
		payload = bytes.TrimSpace(list[0])
	}
	if len(payload) == 0 || payload[0] != '{' {
		return profile, eris.Wrap(ErrInvalidInput, "profile must be an object or a list of objects")
	}
	if err := json.Unmarshal(payload, &profile); err != nil {
		return profile, eris.Wrap(ErrInvalidInput, "profile is not valid json")
	}
	return profile, nil
}

func personFromSnapshot(s model.ProfileSnapshot) model.CandidateSummary {
	url := s.URL
	if canonical, err := snapshot.NormalizeURL(url); err == nil {
		url = canonical
	}
	return model.CandidateSummary{
		URL:      url,
		Name:     s.Name,
		Subtitle: s.Position,
		Location: s.City,
		Avatar:   s.Avatar,
	}
}
