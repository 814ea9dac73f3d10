package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shop/backend/internal/domain/catalog"
)

type JobState string

const (
	JobQueued  JobState = "queued"
	JobRunning JobState = "running"
	JobDone    JobState = "done"
	JobFailed  JobState = "failed"
)

// Job is one price list refresh. A job is owned by a single worker at a
// time, so its fields are not guarded.
type Job struct {
	ID          uuid.UUID
	Shop        catalog.Shop
	State       JobState
	Attempt     int // runs so far, including the current one
	MaxAttempts int
	LastError   string
	QueuedAt    time.Time
	StartedAt   time.Time
	FinishedAt  time.Time
}

// NewJob queues a refresh of shop that may be retried up to retries times.
func NewJob(shop catalog.Shop, retries int) *Job {
	return &Job{
		ID:          uuid.New(),
		Shop:        shop,
		State:       JobQueued,
		MaxAttempts: max(retries, 0) + 1,
		QueuedAt:    time.Now(),
	}
}

func (j *Job) begin() {
	j.Attempt++
	j.State = JobRunning
	j.StartedAt = time.Now()
	j.FinishedAt = time.Time{}
}

func (j *Job) finish(err error) {
	j.FinishedAt = time.Now()
	if err != nil {
		j.State = JobFailed
		j.LastError = err.Error()
		return
	}
	j.State = JobDone
	j.LastError = ""
}

func (j *Job) retryable() bool {
	return j.State == JobFailed && j.Attempt < j.MaxAttempts
}

func (j *Job) requeue() {
	j.State = JobQueued
	j.QueuedAt = time.Now()
}

// JobExecutor performs the work of a job.
type JobExecutor interface {
	Execute(ctx context.Context, job *Job) error
}

type JobExecutorFunc func(ctx context.Context, job *Job) error

func (f JobExecutorFunc) Execute(ctx context.Context, job *Job) error {
	return f(ctx, job)
}
