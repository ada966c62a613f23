// Package jobs runs image captures in the background on a bounded pool of
// workers and tracks their progress in memory.
package jobs

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/markmdev/networking-copilot/internal/pipeline"
)

// Status is the lifecycle state of a job.
type Status string

const (
	StatusQueued   Status = "queued"
	StatusStarted  Status = "started"
	StatusFinished Status = "finished"
	StatusFailed   Status = "failed"
)

var (
	// ErrClosed is returned by Submit after Close.
	ErrClosed = errors.New("jobs: runner closed")
	// ErrQueueFull is returned when every worker is busy and the backlog is full.
	ErrQueueFull = errors.New("jobs: queue full")
)

// DefaultRetention is how long finished jobs stay queryable.
const DefaultRetention = 24 * time.Hour

// CaptureFunc processes one upload, reporting progress as it goes.
type CaptureFunc func(ctx context.Context, filename string, data []byte, contentType string, progress pipeline.ProgressFunc) (*pipeline.Outcome, error)

// Failure describes why a job failed.
type Failure struct {
	Kind    pipeline.Kind `json:"kind"`
	Stage   string        `json:"stage,omitempty"`
	Message string        `json:"message"`
}

// Job is a snapshot of one capture job.
type Job struct {
	ID         string            `json:"job_id"`
	Status     Status            `json:"status"`
	Progress   int               `json:"progress"`
	Message    string            `json:"message"`
	Filename   string            `json:"filename"`
	EnqueuedAt time.Time         `json:"enqueued_at"`
	StartedAt  *time.Time        `json:"started_at,omitempty"`
	EndedAt    *time.Time        `json:"ended_at,omitempty"`
	Result     *pipeline.Outcome `json:"result,omitempty"`
	Error      *Failure          `json:"error,omitempty"`
}

type task struct {
	id          string
	filename    string
	data        []byte
	contentType string
}

// Runner executes capture jobs on a fixed number of workers.
type Runner struct {
	capture   CaptureFunc
	retention time.Duration
	now       func() time.Time

	mu     sync.RWMutex
	jobs   map[string]*Job
	closed bool

	queue  chan task
	ctx    context.Context
	cancel context.CancelFunc
	group  errgroup.Group
}

// NewRunner starts workers goroutines that call capture for each submitted
// job. The backlog holds up to 16 jobs per worker.
func NewRunner(capture CaptureFunc, workers int) *Runner {
	if workers < 1 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	r := &Runner{
		capture:   capture,
		retention: DefaultRetention,
		now:       time.Now,
		jobs:      make(map[string]*Job),
		queue:     make(chan task, workers*16),
		ctx:       ctx,
		cancel:    cancel,
	}
	for i := 0; i < workers; i++ {
		r.group.Go(func() error {
			for t := range r.queue {
				r.run(t)
			}
			return nil
		})
	}
	return r
}

// Submit enqueues an upload and returns the job id.
func (r *Runner) Submit(filename string, data []byte, contentType string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return "", ErrClosed
	}
	r.prune()

	id := uuid.New().String()
	r.jobs[id] = &Job{
		ID:         id,
		Status:     StatusQueued,
		Message:    "Queued",
		Filename:   filename,
		EnqueuedAt: r.now().UTC(),
	}
	select {
	case r.queue <- task{id: id, filename: filename, data: data, contentType: contentType}:
	default:
		delete(r.jobs, id)
		return "", ErrQueueFull
	}
	zap.L().Info("jobs: capture queued", zap.String("job_id", id), zap.String("filename", filename))
	return id, nil
}

// Get returns a copy of the job with id.
func (r *Runner) Get(id string) (Job, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	j, ok := r.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *j, true
}

// Close stops accepting jobs and waits for queued ones to finish. When ctx
// ends first, running captures are cancelled.
func (r *Runner) Close(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	close(r.queue)
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		_ = r.group.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.cancel()
		return nil
	case <-ctx.Done():
		r.cancel()
		<-done
		return eris.Wrap(ctx.Err(), "jobs: close")
	}
}

func (r *Runner) run(t task) {
	log := zap.L().With(zap.String("job_id", t.id))

	r.update(t.id, func(j *Job) {
		started := r.now().UTC()
		j.Status = StatusStarted
		j.StartedAt = &started
	})

	out, err := r.capture(r.ctx, t.filename, t.data, t.contentType, func(percent int, message string) {
		r.update(t.id, func(j *Job) {
			j.Progress = percent
			j.Message = message
		})
	})

	r.update(t.id, func(j *Job) {
		ended := r.now().UTC()
		j.EndedAt = &ended
		j.Progress = 100
		if err != nil {
			j.Status = StatusFailed
			j.Message = "Failed"
			j.Error = failureOf(err)
			return
		}
		j.Status = StatusFinished
		j.Message = "Completed"
		j.Result = out
	})

	if err != nil {
		log.Warn("jobs: capture failed", zap.Error(err))
		return
	}
	log.Info("jobs: capture finished", zap.String("record_id", out.RecordID))
}

func (r *Runner) update(id string, fn func(j *Job)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if j, ok := r.jobs[id]; ok {
		fn(j)
	}
}

// prune drops finished jobs older than the retention window. Callers hold mu.
func (r *Runner) prune() {
	cutoff := r.now().Add(-r.retention)
	for id, j := range r.jobs {
		if j.EndedAt != nil && j.EndedAt.Before(cutoff) {
			delete(r.jobs, id)
		}
	}
}

func failureOf(err error) *Failure {
	f := &Failure{Kind: pipeline.KindOf(err), Message: err.Error()}
	var pe *pipeline.Error
	if errors.As(err, &pe) {
		f.Stage = pe.Stage
		f.Message = pe.Err.Error()
	}
	return f
}
