package snapshot

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/markmdev/networking-copilot/internal/model"
	"github.com/markmdev/networking-copilot/pkg/brightdata"
)

// Fetcher retrieves full profile snapshots from a Bright Data profile
// dataset.
type Fetcher struct {
	client    brightdata.Client
	datasetID string
	poll      []brightdata.PollOption
}

// NewFetcher creates a Fetcher.
func NewFetcher(client brightdata.Client, datasetID string, poll ...brightdata.PollOption) *Fetcher {
	return &Fetcher{client: client, datasetID: datasetID, poll: poll}
}

// Fetch normalizes url, triggers a collection job and waits for it. The
// job must reach "ready" with zero errors and at least one record.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*model.SnapshotResult, error) {
	canonical, err := NormalizeURL(url)
	if err != nil {
		return nil, err
	}
	log := zap.L().With(zap.String("stage", "fetch"), zap.String("url", canonical))

	snapshotID, err := f.client.Trigger(ctx, f.datasetID, []brightdata.Input{{URL: canonical}})
	if err != nil {
		return nil, &FetchError{URL: canonical, Err: err}
	}

	progress, err := brightdata.WaitReady(ctx, f.client, snapshotID, f.poll...)
	if err != nil {
		return nil, &FetchError{URL: canonical, Err: err}
	}
	if progress.Errors > 0 {
		return nil, &FetchError{URL: canonical, Err: &brightdata.JobError{
			SnapshotID: snapshotID, Status: progress.Status, Errors: progress.Errors,
		}}
	}

	rows, err := f.client.Download(ctx, snapshotID)
	if errors.Is(err, brightdata.ErrNotReady) {
		rows, err = brightdata.PollDownload(ctx, f.client, snapshotID, f.poll...)
	}
	if err != nil {
		return nil, &FetchError{URL: canonical, Err: err}
	}

	res := &model.SnapshotResult{
		SnapshotID: snapshotID,
		DatasetID:  f.datasetID,
		Status:     model.SnapshotStatus(progress.Status),
		Errors:     progress.Errors,
		Records:    make([]model.ProfileSnapshot, 0, len(rows)),
	}
	for i, row := range rows {
		var p model.ProfileSnapshot
		if err := json.Unmarshal(row, &p); err != nil {
			return nil, eris.Wrapf(ErrMalformed, "record %d: %v", i, err)
		}
		res.Records = append(res.Records, p)
	}
	if len(res.Records) == 0 {
		return nil, eris.Wrapf(ErrEmpty, "snapshot %s", snapshotID)
	}

	log.Info("snapshot: fetched",
		zap.String("snapshot_id", snapshotID),
		zap.Int("records", len(res.Records)),
	)
	return res, nil
}
