package search

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/markmdev/networking-copilot/internal/model"
	"github.com/markmdev/networking-copilot/pkg/brightdata"
)

// DefaultSiteURL is the directory root searched when no override is given.
const DefaultSiteURL = "https://www.linkedin.com"

// Result is a search response with its snapshot provenance.
type Result struct {
	SnapshotID string
	DatasetID  string
	Status     string
	Errors     int
	Candidates []model.CandidateSummary
}

// Adapter runs people searches against a Bright Data search dataset.
type Adapter struct {
	client    brightdata.Client
	datasetID string
	siteURL   string
	poll      []brightdata.PollOption
}

// New creates an Adapter. An empty siteURL falls back to DefaultSiteURL.
func New(client brightdata.Client, datasetID, siteURL string, poll ...brightdata.PollOption) *Adapter {
	if siteURL == "" {
		siteURL = DefaultSiteURL
	}
	return &Adapter{client: client, datasetID: datasetID, siteURL: siteURL, poll: poll}
}

// Search returns candidates in provider order. It never reorders or
// deduplicates; ranking belongs to the selector.
func (a *Adapter) Search(ctx context.Context, q model.SearchQuery) (*Result, error) {
	site := strings.TrimSpace(q.SiteOverride)
	if site == "" {
		site = a.siteURL
	}
	log := zap.L().With(
		zap.String("stage", "search"),
		zap.String("first_name", q.FirstName),
		zap.String("last_name", q.LastName),
	)

	snapshotID, err := a.client.Trigger(ctx, a.datasetID, []brightdata.Input{{
		URL:       site,
		FirstName: q.FirstName,
		LastName:  q.LastName,
	}})
	if err != nil {
		return nil, &ServiceError{Err: err}
	}

	res := &Result{SnapshotID: snapshotID, DatasetID: a.datasetID, Status: "unknown"}

	// Some search datasets never report progress; the download loop below
	// is authoritative either way.
	progress, err := brightdata.WaitReady(ctx, a.client, snapshotID, a.poll...)
	if err != nil {
		if ctx.Err() != nil {
			return nil, &ServiceError{Err: err}
		}
		log.Debug("search: progress unavailable, polling download", zap.Error(err))
	} else {
		res.Status = progress.Status
		res.Errors = progress.Errors
	}

	rows, err := brightdata.PollDownload(ctx, a.client, snapshotID, a.poll...)
	if err != nil {
		return nil, &ServiceError{Err: err}
	}

	res.Candidates, err = decodeCandidates(rows)
	if err != nil {
		return nil, &ServiceError{Err: err}
	}
	log.Info("search: candidates received",
		zap.String("snapshot_id", snapshotID),
		zap.Int("rows", len(rows)),
		zap.Int("candidates", len(res.Candidates)),
	)
	if len(res.Candidates) == 0 {
		return res, ErrNoCandidates
	}
	return res, nil
}

// decodeCandidates keeps rows that carry a profile URL. Rows without one
// are provider error entries for the input.
func decodeCandidates(rows []json.RawMessage) ([]model.CandidateSummary, error) {
	out := make([]model.CandidateSummary, 0, len(rows))
	for i, row := range rows {
		var c model.CandidateSummary
		if err := json.Unmarshal(row, &c); err != nil {
			return nil, eris.Wrapf(err, "search: decode candidate %d", i)
		}
		if strings.TrimSpace(c.URL) == "" {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}
