package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/markmdev/networking-copilot/internal/model"
	"github.com/markmdev/networking-copilot/internal/pipeline"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func waitFor(t *testing.T, r *Runner, id string, want Status) Job {
	t.Helper()
	var job Job
	require.Eventually(t, func() bool {
		var ok bool
		job, ok = r.Get(id)
		return ok && job.Status == want
	}, 2*time.Second, 5*time.Millisecond)
	return job
}

func TestRunner_Finished(t *testing.T) {
	var seen []int
	var mu sync.Mutex
	r := NewRunner(func(_ context.Context, filename string, data []byte, contentType string, progress pipeline.ProgressFunc) (*pipeline.Outcome, error) {
		assert.Equal(t, "badge.png", filename)
		assert.Equal(t, []byte("img"), data)
		assert.Equal(t, "image/png", contentType)
		for _, p := range []int{5, 45, 90} {
			progress(p, "step")
			mu.Lock()
			seen = append(seen, p)
			mu.Unlock()
		}
		return &pipeline.Outcome{
			Result:    &model.EnrichmentResult{Person: model.CandidateSummary{Name: "Tony"}},
			RecordID:  "rec-1",
			Persisted: true,
		}, nil
	}, 2)
	defer r.Close(context.Background()) //nolint:errcheck

	id, err := r.Submit("badge.png", []byte("img"), "image/png")
	require.NoError(t, err)

	job := waitFor(t, r, id, StatusFinished)
	assert.Equal(t, 100, job.Progress)
	assert.Equal(t, "Completed", job.Message)
	require.NotNil(t, job.Result)
	assert.Equal(t, "rec-1", job.Result.RecordID)
	assert.Nil(t, job.Error)
	assert.NotNil(t, job.StartedAt)
	assert.NotNil(t, job.EndedAt)

	mu.Lock()
	assert.Equal(t, []int{5, 45, 90}, seen)
	mu.Unlock()
}

func TestRunner_Failed(t *testing.T) {
	r := NewRunner(func(context.Context, string, []byte, string, pipeline.ProgressFunc) (*pipeline.Outcome, error) {
		return nil, &pipeline.Error{Kind: pipeline.KindNotFound, Stage: pipeline.StageSearch, Err: errors.New("no candidates")}
	}, 1)
	defer r.Close(context.Background()) //nolint:errcheck

	id, err := r.Submit("badge.png", []byte("img"), "image/png")
	require.NoError(t, err)

	job := waitFor(t, r, id, StatusFailed)
	assert.Equal(t, 100, job.Progress)
	assert.Equal(t, "Failed", job.Message)
	assert.Nil(t, job.Result)
	require.NotNil(t, job.Error)
	assert.Equal(t, pipeline.KindNotFound, job.Error.Kind)
	assert.Equal(t, pipeline.StageSearch, job.Error.Stage)
	assert.Equal(t, "no candidates", job.Error.Message)
}

func TestRunner_QueuedUntilWorkerFree(t *testing.T) {
	release := make(chan struct{})
	r := NewRunner(func(ctx context.Context, _ string, _ []byte, _ string, _ pipeline.ProgressFunc) (*pipeline.Outcome, error) {
		<-release
		return &pipeline.Outcome{}, nil
	}, 1)

	first, err := r.Submit("a.png", []byte("a"), "image/png")
	require.NoError(t, err)
	waitFor(t, r, first, StatusStarted)

	second, err := r.Submit("b.png", []byte("b"), "image/png")
	require.NoError(t, err)
	job, ok := r.Get(second)
	require.True(t, ok)
	assert.Equal(t, StatusQueued, job.Status)
	assert.Equal(t, "Queued", job.Message)

	close(release)
	require.NoError(t, r.Close(context.Background()))

	job, _ = r.Get(second)
	assert.Equal(t, StatusFinished, job.Status)
}

func TestRunner_QueueFull(t *testing.T) {
	release := make(chan struct{})
	r := NewRunner(func(context.Context, string, []byte, string, pipeline.ProgressFunc) (*pipeline.Outcome, error) {
		<-release
		return &pipeline.Outcome{}, nil
	}, 1)
	defer func() {
		close(release)
		require.NoError(t, r.Close(context.Background()))
	}()

	first, err := r.Submit("a.png", []byte("a"), "image/png")
	require.NoError(t, err)
	waitFor(t, r, first, StatusStarted)

	for i := 0; i < 16; i++ {
		_, err := r.Submit("q.png", []byte("q"), "image/png")
		require.NoError(t, err)
	}
	_, err = r.Submit("over.png", []byte("o"), "image/png")
	assert.ErrorIs(t, err, ErrQueueFull)
}

func TestRunner_CloseCancelsOnDeadline(t *testing.T) {
	r := NewRunner(func(ctx context.Context, _ string, _ []byte, _ string, _ pipeline.ProgressFunc) (*pipeline.Outcome, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}, 1)

	id, err := r.Submit("a.png", []byte("a"), "image/png")
	require.NoError(t, err)
	waitFor(t, r, id, StatusStarted)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.Error(t, r.Close(ctx))

	job, _ := r.Get(id)
	assert.Equal(t, StatusFailed, job.Status)

	_, err = r.Submit("late.png", []byte("l"), "image/png")
	assert.ErrorIs(t, err, ErrClosed)
	assert.NoError(t, r.Close(context.Background()))
}

func TestRunner_PrunesOldJobs(t *testing.T) {
	r := NewRunner(func(context.Context, string, []byte, string, pipeline.ProgressFunc) (*pipeline.Outcome, error) {
		return &pipeline.Outcome{}, nil
	}, 1)
	defer r.Close(context.Background()) //nolint:errcheck

	old, err := r.Submit("old.png", []byte("o"), "image/png")
	require.NoError(t, err)
	waitFor(t, r, old, StatusFinished)

	r.mu.Lock()
	r.now = func() time.Time { return time.Now().Add(25 * time.Hour) }
	r.mu.Unlock()

	_, err = r.Submit("new.png", []byte("n"), "image/png")
	require.NoError(t, err)
	_, ok := r.Get(old)
	assert.False(t, ok)
}

func TestGetUnknown(t *testing.T) {
	r := NewRunner(nil, 1)
	defer r.Close(context.Background()) //nolint:errcheck

	_, ok := r.Get("missing")
	assert.False(t, ok)
}
