package brightdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
)

const (
	defaultPollInitial = 2 * time.Second
	defaultPollCap     = 15 * time.Second
	defaultPollTimeout = 180 * time.Second
)

// JobError is returned when a snapshot job ends in a failed or error state.
type JobError struct {
	SnapshotID string
	Status     string
	Errors     int
}

func (e *JobError) Error() string {
	return fmt.Sprintf("brightdata: snapshot %s ended with status %s (%d errors)", e.SnapshotID, e.Status, e.Errors)
}

// PollOption configures polling behavior.
type PollOption func(*pollConfig)

type pollConfig struct {
	initial time.Duration
	cap     time.Duration
	timeout time.Duration
}

func defaultPollConfig() pollConfig {
	return pollConfig{
		initial: defaultPollInitial,
		cap:     defaultPollCap,
		timeout: defaultPollTimeout,
	}
}

// WithPollInterval overrides the initial poll interval.
func WithPollInterval(d time.Duration) PollOption {
	return func(c *pollConfig) {
		if d > 0 {
			c.initial = d
		}
	}
}

// WithPollCap overrides the maximum poll interval.
func WithPollCap(d time.Duration) PollOption {
	return func(c *pollConfig) {
		if d > 0 {
			c.cap = d
		}
	}
}

// WithPollTimeout overrides the default timeout. A parent deadline that
// ends sooner still wins.
func WithPollTimeout(d time.Duration) PollOption {
	return func(c *pollConfig) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func (cfg pollConfig) next(interval time.Duration) time.Duration {
	interval *= 2
	if interval > cfg.cap {
		interval = cfg.cap
	}
	return interval
}

func resolve(opts []PollOption) pollConfig {
	cfg := defaultPollConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.cap < cfg.initial {
		cfg.cap = cfg.initial
	}
	return cfg
}

// WaitReady polls Progress until the snapshot is ready, ends in a failed or
// error state, or the context expires.
func WaitReady(ctx context.Context, client Client, snapshotID string, opts ...PollOption) (*ProgressResponse, error) {
	cfg := resolve(opts)

	ctx, cancel := context.WithTimeout(ctx, cfg.timeout)
	defer cancel()

	interval := cfg.initial
	for {
		progress, err := client.Progress(ctx, snapshotID)
		if err != nil {
			return nil, eris.Wrapf(err, "brightdata: poll snapshot %s", snapshotID)
		}

		switch progress.Status {
		case "ready":
			return progress, nil
		case "failed", "error":
			return progress, &JobError{SnapshotID: snapshotID, Status: progress.Status, Errors: progress.Errors}
		}

		select {
		case <-ctx.Done():
			return nil, eris.Wrapf(ctx.Err(), "brightdata: poll snapshot %s timed out", snapshotID)
		case <-time.After(interval):
		}
		interval = cfg.next(interval)
	}
}

// PollDownload calls Download until it yields records or the context
// expires. It is used for datasets whose progress endpoint is unreliable;
// any download error is retried and the last one is returned on timeout.
func PollDownload(ctx context.Context, client Client, snapshotID string, opts ...PollOption) ([]json.RawMessage, error) {
	cfg := resolve(opts)

	ctx, cancel := context.WithTimeout(ctx, cfg.timeout)
	defer cancel()

	interval := cfg.initial
	for {
		records, err := client.Download(ctx, snapshotID)
		if err == nil {
			return records, nil
		}
		if ctx.Err() != nil {
			return nil, downloadTimeout(ctx, err, snapshotID)
		}

		select {
		case <-ctx.Done():
			return nil, downloadTimeout(ctx, err, snapshotID)
		case <-time.After(interval):
		}
		interval = cfg.next(interval)
	}
}

// downloadTimeout reports the context error when the snapshot was simply
// not ready yet, and the last download error otherwise.
func downloadTimeout(ctx context.Context, last error, snapshotID string) error {
	if errors.Is(last, ErrNotReady) {
		return eris.Wrapf(ctx.Err(), "brightdata: download snapshot %s timed out", snapshotID)
	}
	return eris.Wrapf(last, "brightdata: download snapshot %s", snapshotID)
}
