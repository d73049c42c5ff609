// Package jobs dispatches queued report jobs to a bounded pool of workers.
// Job state lives in the database; the queue only carries job IDs and
// retry counters, so a restart is recovered by re-enqueueing pending rows.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrNotStarted is returned when a job is enqueued before Start.
	ErrNotStarted = errors.New("jobs: queue not started")
	// ErrStopped is returned once the queue context is cancelled.
	ErrStopped = errors.New("jobs: queue stopped")
)

// Job identifies one report job run. Attempt counts failed runs so far.
type Job struct {
	ID       string
	Type     string
	Attempt  int
	Enqueued time.Time
}

// Handler runs a job. A non-nil error schedules a retry.
type Handler func(context.Context, Job) error

// QueueConfig sizes the worker pool and its retry policy.
type QueueConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
	Logger     *zap.Logger
}

func (c QueueConfig) withDefaults() QueueConfig {
	if c.Workers <= 0 {
		c.Workers = 1
	}
	if c.BufferSize <= 0 {
		c.BufferSize = c.Workers * 4
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = time.Second
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	return c
}

// Queue feeds report jobs to its workers and re-enqueues failed runs after
// RetryDelay until MaxRetries is exceeded.
type Queue struct {
	name    string
	handler Handler
	cfg     QueueConfig
	log     *zap.Logger
	pending chan Job

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	running sync.WaitGroup
}

// NewQueue builds a queue; workers are not launched until Start.
func NewQueue(name string, handler Handler, cfg QueueConfig) *Queue {
	cfg = cfg.withDefaults()
	return &Queue{
		name:    name,
		handler: handler,
		cfg:     cfg,
		log:     cfg.Logger.With(zap.String("queue", name)),
		pending: make(chan Job, cfg.BufferSize),
	}
}

// Start launches the workers. Later calls are no-ops.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.ctx != nil {
		return
	}
	q.ctx, q.cancel = context.WithCancel(ctx)
	for i := 1; i <= q.cfg.Workers; i++ {
		q.running.Add(1)
		go q.work(i)
	}
	q.log.Info("report workers started", zap.Int("workers", q.cfg.Workers), zap.Int("buffer", q.cfg.BufferSize))
}

// Name returns the queue label.
func (q *Queue) Name() string {
	return q.name
}

// Pending reports how many jobs are buffered and not yet picked up.
func (q *Queue) Pending() int {
	return len(q.pending)
}

// Stop cancels in-flight work and waits for workers and retry timers.
func (q *Queue) Stop() {
	q.mu.Lock()
	cancel := q.cancel
	q.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	q.running.Wait()
	q.log.Info("report workers stopped", zap.Int("dropped", len(q.pending)))
}

// Enqueue buffers a job, blocking while the buffer is full.
func (q *Queue) Enqueue(job Job) error {
	q.mu.Lock()
	ctx := q.ctx
	q.mu.Unlock()
	if ctx == nil {
		return fmt.Errorf("%w: %s", ErrNotStarted, q.name)
	}
	if ctx.Err() != nil {
		return fmt.Errorf("%w: %s", ErrStopped, q.name)
	}
	if job.Enqueued.IsZero() {
		job.Enqueued = time.Now().UTC()
	}
	select {
	case q.pending <- job:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %s", ErrStopped, q.name)
	}
}

func (q *Queue) work(worker int) {
	defer q.running.Done()
	for {
		select {
		case <-q.ctx.Done():
			return
		case job := <-q.pending:
			started := time.Now()
			err := q.handler(q.ctx, job)
			fields := []zap.Field{
				zap.Int("worker", worker),
				zap.String("job_id", job.ID),
				zap.String("report_type", job.Type),
				zap.Int("attempt", job.Attempt),
				zap.Duration("took", time.Since(started)),
			}
			if err == nil {
				q.log.Debug("report job finished", fields...)
				continue
			}
			q.retry(job, err, fields)
		}
	}
}

func (q *Queue) retry(job Job, cause error, fields []zap.Field) {
	job.Attempt++
	fields = append(fields, zap.Error(cause))
	if job.Attempt > q.cfg.MaxRetries {
		q.log.Error("report job gave up", append(fields, zap.Int("max_retries", q.cfg.MaxRetries))...)
		return
	}
	q.log.Warn("report job failed, retrying", append(fields, zap.Duration("retry_in", q.cfg.RetryDelay))...)

	q.running.Add(1)
	go func() {
		defer q.running.Done()
		timer := time.NewTimer(q.cfg.RetryDelay)
		defer timer.Stop()
		select {
		case <-q.ctx.Done():
		case <-timer.C:
			if err := q.Enqueue(job); err != nil {
				q.log.Warn("report job not requeued", zap.String("job_id", job.ID), zap.Error(err))
			}
		}
	}()
}
