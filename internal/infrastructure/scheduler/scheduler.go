package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shop/backend/internal/domain/catalog"
	"github.com/shop/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Config sizes the worker pool.
type Config struct {
	Workers       int
	JobTimeout    time.Duration
	RetryAttempts int
	RetryDelay    time.Duration // grows linearly with each attempt
	QueueSize     int
}

func DefaultConfig() Config {
	return Config{
		Workers:       3,
		JobTimeout:    10 * time.Minute,
		RetryAttempts: 3,
		RetryDelay:    time.Minute,
		QueueSize:     100,
	}
}

// ConfigFrom overlays the non-zero scheduler settings on DefaultConfig.
// RetryAttempts is always taken as is, so zero disables retries.
func ConfigFrom(cfg config.SchedulerConfig) Config {
	c := DefaultConfig()
	c.RetryAttempts = max(cfg.RetryAttempts, 0)
	if cfg.Workers > 0 {
		c.Workers = cfg.Workers
	}
	if cfg.QueueSize > 0 {
		c.QueueSize = cfg.QueueSize
	}
	if cfg.JobTimeout > 0 {
		c.JobTimeout = cfg.JobTimeout
	}
	if cfg.RetryDelay > 0 {
		c.RetryDelay = cfg.RetryDelay
	}
	return c
}

func (c Config) check() error {
	switch {
	case c.Workers <= 0:
		return fmt.Errorf("%w: workers must be positive", ErrInvalidConfig)
	case c.JobTimeout <= 0:
		return fmt.Errorf("%w: job timeout must be positive", ErrInvalidConfig)
	case c.QueueSize <= 0:
		return fmt.Errorf("%w: queue size must be positive", ErrInvalidConfig)
	}
	return nil
}

// Scheduler feeds refresh jobs to a fixed number of workers. Failed jobs
// are re-queued after a delay until their attempts run out.
type Scheduler struct {
	cfg      Config
	executor JobExecutor
	logger   *zap.Logger
	queue    chan *Job

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	// tracks workers and pending retry timers
	inflight sync.WaitGroup
}

func NewScheduler(cfg Config, executor JobExecutor, logger *zap.Logger) (*Scheduler, error) {
	if err := cfg.check(); err != nil {
		return nil, err
	}
	return &Scheduler{
		cfg:      cfg,
		executor: executor,
		logger:   logger.Named("refresh"),
		queue:    make(chan *Job, cfg.QueueSize),
	}, nil
}

// Start launches the workers. Calling it on a running scheduler is a no-op.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.running = true
	for id := range s.cfg.Workers {
		s.inflight.Add(1)
		go s.work(ctx, id)
	}

	s.logger.Info("scheduler started",
		zap.Int("workers", s.cfg.Workers),
		zap.Duration("job_timeout", s.cfg.JobTimeout),
		zap.Int("retry_attempts", s.cfg.RetryAttempts),
	)
	return nil
}

// Stop cancels running jobs and pending retries, then waits for workers
// to exit or ctx to expire. Jobs still queued are dropped.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.cancel()
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("scheduler stop timed out", zap.Error(ctx.Err()))
		return ctx.Err()
	}
}

func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// SubmitJob enqueues job without blocking.
func (s *Scheduler) SubmitJob(job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return ErrStopped
	}

	select {
	case s.queue <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

// ScheduleShop enqueues a refresh of shop with the configured retries.
func (s *Scheduler) ScheduleShop(shop catalog.Shop) (*Job, error) {
	job := NewJob(shop, s.cfg.RetryAttempts)
	if err := s.SubmitJob(job); err != nil {
		return nil, err
	}
	s.logger.Debug("refresh queued", zap.Stringer("job_id", job.ID), zap.Int64("shop_id", shop.ID))
	return job, nil
}

func (s *Scheduler) work(ctx context.Context, id int) {
	defer s.inflight.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-s.queue:
			s.run(ctx, job, id)
		}
	}
}

func (s *Scheduler) run(ctx context.Context, job *Job, worker int) {
	job.begin()
	log := s.logger.With(
		zap.Int("worker", worker),
		zap.Stringer("job_id", job.ID),
		zap.Int64("shop_id", job.Shop.ID),
		zap.String("shop", job.Shop.Name),
		zap.Int("attempt", job.Attempt),
	)

	jobCtx, cancel := context.WithTimeout(ctx, s.cfg.JobTimeout)
	err := s.executor.Execute(jobCtx, job)
	cancel()
	job.finish(err)

	if err == nil {
		log.Info("price list refreshed", zap.Duration("took", job.FinishedAt.Sub(job.StartedAt)))
		return
	}
	if !job.retryable() || ctx.Err() != nil {
		log.Error("price list refresh failed", zap.Error(err))
		return
	}

	delay := s.cfg.RetryDelay * time.Duration(job.Attempt)
	log.Warn("price list refresh failed, retrying", zap.Error(err), zap.Duration("retry_in", delay))
	s.inflight.Add(1)
	go s.retryAfter(ctx, job, delay)
}

func (s *Scheduler) retryAfter(ctx context.Context, job *Job, delay time.Duration) {
	defer s.inflight.Done()
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return
	case <-timer.C:
	}
	job.requeue()
	if err := s.SubmitJob(job); err != nil {
		s.logger.Warn("retry dropped", zap.Stringer("job_id", job.ID), zap.Error(err))
	}
}
