package queue

import (
	"context"
	"time"

	"github.com/shashiranjanraj/storefront/pkg/logger"
)

// fullBufferRetry is how long a due delayed job waits before another try
// when the buffer is full.
const fullBufferRetry = time.Second

// MemoryDriver is an in-process, channel-backed driver. Jobs do not survive
// a restart.
type MemoryDriver struct {
	ch chan []byte
}

// NewMemoryDriver creates an in-memory queue buffering up to 1000 jobs.
func NewMemoryDriver() *MemoryDriver { return NewMemoryDriverSize(1000) }

// NewMemoryDriverSize creates an in-memory queue buffering up to size jobs.
func NewMemoryDriverSize(size int) *MemoryDriver {
	return &MemoryDriver{ch: make(chan []byte, size)}
}

func (d *MemoryDriver) Push(ctx context.Context, payload []byte) error {
	select {
	case d.ch <- payload:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PushDelayed holds payload on a timer. A due job that finds the buffer
// full is logged and re-armed instead of parking a goroutine on the send.
func (d *MemoryDriver) PushDelayed(_ context.Context, payload []byte, delay time.Duration) error {
	time.AfterFunc(delay, func() { d.release(payload) })
	return nil
}

func (d *MemoryDriver) release(payload []byte) {
	select {
	case d.ch <- payload:
	default:
		logger.Warn("queue: memory buffer full, delaying job", "capacity", cap(d.ch), "retry_in", fullBufferRetry)
		time.AfterFunc(fullBufferRetry, func() { d.release(payload) })
	}
}

func (d *MemoryDriver) Pop(ctx context.Context) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case payload := <-d.ch:
		return payload, nil
	}
}

// Len reports how many jobs are waiting.
func (d *MemoryDriver) Len() int { return len(d.ch) }
