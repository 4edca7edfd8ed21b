// Package schedule runs recurring background tasks.
//
//	s := schedule.New()
//	s.EveryMinute().Name("reconcile-payments").WithoutOverlapping().Run(reconciler.Sweep)
//	s.Cron("0 3 * * *").Name("purge-failed-jobs").Run(purge)
//	go s.Start(ctx)
package schedule

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shashiranjanraj/storefront/pkg/logger"
)

// Task is a scheduled unit of work.
type Task func(ctx context.Context) error

type entry struct {
	id        string
	interval  time.Duration
	cronExpr  string
	task      Task
	noOverlap bool

	mu      sync.Mutex
	lastRun time.Time
	running bool
}

// Scheduler holds entries and dispatches them when due.
type Scheduler struct {
	mu       sync.Mutex
	entries  []*entry
	inflight sync.WaitGroup
	tick     time.Duration
}

// New returns an empty Scheduler that checks for due tasks every second.
func New() *Scheduler { return &Scheduler{tick: time.Second} }

// Entry is a fluent builder for one task.
type Entry struct {
	s *Scheduler
	e *entry
}

// Frequency picks the unit for Every(n).
type Frequency struct {
	s *Scheduler
	n int
}

func (s *Scheduler) Every(n int) *Frequency { return &Frequency{s: s, n: n} }
func (s *Scheduler) EveryMinute() *Entry    { return s.Every(1).Minutes() }
func (s *Scheduler) Hourly() *Entry         { return s.Every(1).Hours() }
func (s *Scheduler) Daily() *Entry          { return s.Every(24).Hours() }

// Cron schedules with a 5-field expression (minute hour dom month dow).
// Fields accept *, n, a-b, */step and comma lists.
func (s *Scheduler) Cron(expr string) *Entry {
	return &Entry{s: s, e: &entry{cronExpr: expr}}
}

func (f *Frequency) every(d time.Duration) *Entry {
	return &Entry{s: f.s, e: &entry{interval: time.Duration(f.n) * d}}
}

func (f *Frequency) Seconds() *Entry { return f.every(time.Second) }
func (f *Frequency) Minutes() *Entry { return f.every(time.Minute) }
func (f *Frequency) Hours() *Entry   { return f.every(time.Hour) }

// WithoutOverlapping skips a run while the previous one is still going.
func (b *Entry) WithoutOverlapping() *Entry {
	b.e.noOverlap = true
	return b
}

// Name sets the identifier used in logs and List.
func (b *Entry) Name(id string) *Entry {
	b.e.id = id
	return b
}

// Run registers the task.
func (b *Entry) Run(task Task) {
	b.e.task = task
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	if b.e.id == "" {
		b.e.id = fmt.Sprintf("task-%d", len(b.s.entries)+1)
	}
	b.s.entries = append(b.s.entries, b.e)
}

// Start dispatches due tasks until ctx ends, then waits for running tasks.
func (s *Scheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()
	logger.Info("schedule: scheduler started", "tasks", len(s.List()))

	for {
		select {
		case <-ctx.Done():
			s.inflight.Wait()
			logger.Info("schedule: scheduler stopped")
			return
		case now := <-ticker.C:
			s.RunDue(ctx, now)
		}
	}
}

// RunDue starts every task due at now and returns how many were started.
func (s *Scheduler) RunDue(ctx context.Context, now time.Time) int {
	s.mu.Lock()
	current := append([]*entry(nil), s.entries...)
	s.mu.Unlock()

	started := 0
	for _, e := range current {
		if s.dispatch(ctx, e, now) {
			started++
		}
	}
	return started
}

// RunAll runs every task once, synchronously, ignoring schedules. Used by
// the schedule:run command.
func (s *Scheduler) RunAll(ctx context.Context) error {
	s.mu.Lock()
	current := append([]*entry(nil), s.entries...)
	s.mu.Unlock()

	for _, e := range current {
		if err := e.task(ctx); err != nil {
			return fmt.Errorf("schedule: %s: %w", e.id, err)
		}
	}
	return nil
}

func (e *entry) due(now time.Time) bool {
	if e.cronExpr != "" {
		// Cron fires once per matching minute.
		if !e.lastRun.IsZero() && e.lastRun.Truncate(time.Minute).Equal(now.Truncate(time.Minute)) {
			return false
		}
		return matchCron(e.cronExpr, now)
	}
	return e.lastRun.IsZero() || now.Sub(e.lastRun) >= e.interval
}

func (s *Scheduler) dispatch(ctx context.Context, e *entry, now time.Time) bool {
	e.mu.Lock()
	if !e.due(now) {
		e.mu.Unlock()
		return false
	}
	if e.noOverlap && e.running {
		e.mu.Unlock()
		logger.Warn("schedule: skipping overlapping task", "id", e.id)
		return false
	}
	e.running = true
	e.lastRun = now
	e.mu.Unlock()

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		defer func() {
			e.mu.Lock()
			e.running = false
			e.mu.Unlock()
			if r := recover(); r != nil {
				logger.Error("schedule: task panicked", "id", e.id, "panic", r)
			}
		}()

		start := time.Now()
		if err := e.task(ctx); err != nil {
			logger.Error("schedule: task failed", "id", e.id, "error", err)
			return
		}
		logger.Debug("schedule: task finished", "id", e.id, "took", time.Since(start))
	}()
	return true
}

// List describes every registered task.
func (s *Scheduler) List() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.entries))
	for _, e := range s.entries {
		freq := e.cronExpr
		if freq == "" {
			freq = "every " + e.interval.String()
		}
		out = append(out, fmt.Sprintf("%s  [%s]", e.id, freq))
	}
	return out
}

func matchCron(expr string, t time.Time) bool {
	fields := strings.Fields(expr)
	if len(fields) != 5 {
		return false
	}
	vals := []int{t.Minute(), t.Hour(), t.Day(), int(t.Month()), int(t.Weekday())}
	for i, f := range fields {
		if !matchField(f, vals[i]) {
			return false
		}
	}
	return true
}

func matchField(field string, val int) bool {
	for _, part := range strings.Split(field, ",") {
		if matchPart(part, val) {
			return true
		}
	}
	return false
}

func matchPart(part string, val int) bool {
	switch {
	case part == "*":
		return true
	case strings.HasPrefix(part, "*/"):
		step, err := strconv.Atoi(part[2:])
		return err == nil && step > 0 && val%step == 0
	case strings.Contains(part, "-"):
		lo, hi, _ := strings.Cut(part, "-")
		a, err1 := strconv.Atoi(lo)
		b, err2 := strconv.Atoi(hi)
		return err1 == nil && err2 == nil && val >= a && val <= b
	default:
		n, err := strconv.Atoi(part)
		return err == nil && n == val
	}
}
