// Package queue runs background jobs on a pluggable driver (in-memory or
// Redis) with optional delayed delivery and a persistent failed-job log.
//
//	q := queue.New(queue.NewMemoryDriver(), queue.WithFailedJobs(queue.NewFailedJobStore(db)))
//	q.Register(func() queue.Job { return &jobs.SettlePayment{Settler: svc} })
//	_ = q.DispatchAfter(ctx, &jobs.SettlePayment{PaymentID: p.ID}, 2*time.Second)
//	go q.Run(ctx, 4)
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shashiranjanraj/storefront/pkg/logger"
	"github.com/shashiranjanraj/storefront/pkg/metrics"
)

// Job is a unit of background work. Exported fields are the serialised
// payload; unexported fields are set by the registered factory.
type Job interface {
	Handle(ctx context.Context) error
}

// Limited is implemented by jobs that override the queue's attempt limit.
type Limited interface {
	MaxAttempts() int
}

// Driver stores and delivers encoded jobs.
type Driver interface {
	Push(ctx context.Context, payload []byte) error
	// Pop blocks until a payload is available or ctx ends. A nil payload
	// with a nil error means "nothing yet".
	Pop(ctx context.Context) ([]byte, error)
}

// DelayedDriver is implemented by drivers that can hold a job until a
// future time themselves.
type DelayedDriver interface {
	PushDelayed(ctx context.Context, payload []byte, delay time.Duration) error
}

// backgroundDriver is implemented by drivers that need a maintenance loop
// (the Redis driver promotes due delayed jobs).
type backgroundDriver interface {
	Run(ctx context.Context)
}

// ErrUnregistered is returned when a payload names an unknown job type.
var ErrUnregistered = errors.New("queue: unregistered job type")

type envelope struct {
	ID      string          `json:"id"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Option configures a Queue.
type Option func(*Queue)

// WithMaxAttempts sets the default attempt limit (minimum 1).
func WithMaxAttempts(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.maxAttempts = n
		}
	}
}

// WithBackoff sets the delay before retry attempt n+1.
func WithBackoff(fn func(attempt int) time.Duration) Option {
	return func(q *Queue) { q.backoff = fn }
}

// WithFailedJobs persists jobs that exhaust their attempts.
func WithFailedJobs(s FailedStore) Option {
	return func(q *Queue) { q.failed = s }
}

// Queue dispatches and processes jobs.
type Queue struct {
	driver      Driver
	mu          sync.RWMutex
	registry    map[string]func() Job
	failed      FailedStore
	maxAttempts int
	backoff     func(int) time.Duration
}

// New returns a Queue over driver.
func New(driver Driver, opts ...Option) *Queue {
	q := &Queue{
		driver:      driver,
		registry:    make(map[string]func() Job),
		maxAttempts: 3,
		backoff:     func(attempt int) time.Duration { return time.Duration(attempt) * time.Second },
	}
	for _, o := range opts {
		o(q)
	}
	return q
}

// TypeName is the registry key for job.
func TypeName(job Job) string { return fmt.Sprintf("%T", job) }

// Register makes the job type produced by factory available to workers.
// The factory should return a zero job with its dependencies set.
func (q *Queue) Register(factory func() Job) {
	name := TypeName(factory())
	q.mu.Lock()
	q.registry[name] = factory
	q.mu.Unlock()
}

// Dispatch enqueues job for immediate processing.
func (q *Queue) Dispatch(ctx context.Context, job Job) error {
	raw, err := encode(job)
	if err != nil {
		return err
	}
	return q.driver.Push(ctx, raw)
}

// DispatchAfter enqueues job to become visible after delay. Drivers that
// cannot delay are given the job from a timer goroutine.
func (q *Queue) DispatchAfter(ctx context.Context, job Job, delay time.Duration) error {
	if delay <= 0 {
		return q.Dispatch(ctx, job)
	}
	raw, err := encode(job)
	if err != nil {
		return err
	}
	if d, ok := q.driver.(DelayedDriver); ok {
		return d.PushDelayed(ctx, raw, delay)
	}
	time.AfterFunc(delay, func() {
		if err := q.driver.Push(context.Background(), raw); err != nil {
			logger.Error("queue: delayed push failed", "type", TypeName(job), "error", err)
		}
	})
	return nil
}

func encode(job Job) ([]byte, error) {
	name := TypeName(job)
	payload, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("queue: marshal job %s: %w", name, err)
	}
	raw, err := json.Marshal(envelope{ID: uuid.NewString(), Type: name, Payload: payload})
	if err != nil {
		return nil, fmt.Errorf("queue: marshal envelope: %w", err)
	}
	return raw, nil
}

// Run starts n workers and blocks until ctx is cancelled and every
// in-flight job has returned.
func (q *Queue) Run(ctx context.Context, n int) {
	if n < 1 {
		n = 1
	}
	var wg sync.WaitGroup
	if bg, ok := q.driver.(backgroundDriver); ok {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bg.Run(ctx)
		}()
	}
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.work(ctx)
		}()
	}
	logger.Info("queue: workers started", "count", n)
	wg.Wait()
	logger.Info("queue: workers stopped")
}

func (q *Queue) work(ctx context.Context) {
	for {
		raw, err := q.driver.Pop(ctx)
		if raw != nil {
			// A popped payload has already left the driver; run it even when
			// shutdown raced the pop. Jobs finish with a detached context so
			// shutdown does not abort a settlement half way.
			q.Process(context.WithoutCancel(ctx), raw)
			continue
		}
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			logger.Warn("queue: pop failed", "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(500 * time.Millisecond):
			}
			continue
		}
	}
}

// Process decodes and runs one payload. Exposed for drivers and tests that
// deliver payloads themselves.
func (q *Queue) Process(ctx context.Context, raw []byte) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		logger.Error("queue: bad envelope", "error", err)
		return
	}

	q.mu.RLock()
	factory, ok := q.registry[env.Type]
	q.mu.RUnlock()
	if !ok {
		logger.Error("queue: unregistered job type", "type", env.Type)
		q.recordFailure(ctx, env, fmt.Errorf("%w: %s", ErrUnregistered, env.Type), 0)
		return
	}

	job := factory()
	if err := json.Unmarshal(env.Payload, job); err != nil {
		logger.Error("queue: unmarshal payload", "type", env.Type, "error", err)
		q.recordFailure(ctx, env, err, 0)
		return
	}

	q.runWithRetry(ctx, job, env)
}

func (q *Queue) runWithRetry(ctx context.Context, job Job, env envelope) {
	attempts := q.maxAttempts
	if l, ok := job.(Limited); ok && l.MaxAttempts() > 0 {
		attempts = l.MaxAttempts()
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		start := time.Now()
		lastErr = q.handle(ctx, job)
		if lastErr == nil {
			metrics.RecordQueueJob(env.Type, "success", start)
			logger.Debug("queue: job processed", "type", env.Type, "job_id", env.ID)
			return
		}
		metrics.RecordQueueJob(env.Type, "failed", start)
		logger.Warn("queue: job failed",
			"type", env.Type, "job_id", env.ID, "attempt", attempt, "of", attempts, "error", lastErr)
		if attempt < attempts {
			time.Sleep(q.backoff(attempt))
		}
	}

	q.recordFailure(ctx, env, lastErr, attempts)
}

// handle runs job, converting a panic into an error so a bad job cannot
// take down the worker.
func (q *Queue) handle(ctx context.Context, job Job) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return job.Handle(ctx)
}

func (q *Queue) recordFailure(ctx context.Context, env envelope, cause error, attempts int) {
	if q.failed == nil {
		return
	}
	rec := FailedJobRecord{
		JobID:    env.ID,
		JobType:  env.Type,
		Payload:  string(env.Payload),
		Error:    cause.Error(),
		Attempts: attempts,
	}
	if err := q.failed.Record(ctx, &rec); err != nil {
		logger.Error("queue: persist failed job", "type", env.Type, "error", err)
	}
}

// Retry re-dispatches a recorded failure and removes it from the store.
func (q *Queue) Retry(ctx context.Context, id uint) error {
	if q.failed == nil {
		return errors.New("queue: no failed-job store configured")
	}
	rec, err := q.failed.Find(ctx, id)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(envelope{ID: uuid.NewString(), Type: rec.JobType, Payload: json.RawMessage(rec.Payload)})
	if err != nil {
		return err
	}
	if err := q.driver.Push(ctx, raw); err != nil {
		return err
	}
	return q.failed.Forget(ctx, id)
}
