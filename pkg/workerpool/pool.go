// Package workerpool provides a bounded goroutine pool with backpressure.
//
// Submit never blocks and returns ErrPoolFull when every worker is busy and
// the buffer is full; SubmitWait blocks until there is room or ctx ends.
//
//	pool := workerpool.New(4)
//	defer pool.Shutdown()
//	err := workerpool.Each(ctx, pool, ids, func(ctx context.Context, id uint) { settle(ctx, id) })
package workerpool

import (
	"context"
	"errors"
	"sync"

	"github.com/shashiranjanraj/storefront/pkg/logger"
)

var (
	ErrPoolFull   = errors.New("workerpool: pool is full")
	ErrPoolClosed = errors.New("workerpool: pool is closed")
)

// Pool is a fixed set of workers draining a buffered task channel.
type Pool struct {
	mu     sync.RWMutex
	closed bool
	tasks  chan func()
	wg     sync.WaitGroup
	once   sync.Once
}

// New starts size workers (minimum 1) with a buffer of twice that.
func New(size int) *Pool {
	if size <= 0 {
		size = 1
	}
	p := &Pool{tasks: make(chan func(), size*2)}
	for i := 0; i < size; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

// Submit enqueues task without blocking.
func (p *Pool) Submit(task func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}
	select {
	case p.tasks <- task:
		return nil
	default:
		return ErrPoolFull
	}
}

// SubmitWait enqueues task, blocking until there is room or ctx ends.
func (p *Pool) SubmitWait(ctx context.Context, task func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}
	select {
	case p.tasks <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Each runs fn for every item on the pool and waits for all of them. It
// stops submitting when ctx ends and returns ctx's error in that case.
func Each[T any](ctx context.Context, p *Pool, items []T, fn func(context.Context, T)) error {
	var wg sync.WaitGroup
	var err error
	for _, item := range items {
		item := item
		wg.Add(1)
		if err = p.SubmitWait(ctx, func() {
			defer wg.Done()
			fn(ctx, item)
		}); err != nil {
			wg.Done()
			break
		}
	}
	wg.Wait()
	return err
}

// Shutdown stops accepting tasks and waits for queued ones to finish.
// Safe to call more than once.
func (p *Pool) Shutdown() {
	p.once.Do(func() {
		p.mu.Lock()
		p.closed = true
		close(p.tasks)
		p.mu.Unlock()
		p.wg.Wait()
	})
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for task := range p.tasks {
		safeRun(task)
	}
}

func safeRun(task func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("workerpool: task panicked", "panic", r)
		}
	}()
	task()
}
