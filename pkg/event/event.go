// Package event provides an in-process event bus. Listeners run either
// inline (Fire) or on their own goroutine (FireAsync); a panicking listener
// is logged and does not affect the others.
package event

import (
	"context"
	"sync"

	"github.com/shashiranjanraj/storefront/pkg/logger"
)

// Handler receives an event payload.
type Handler func(ctx context.Context, payload any)

// Bus routes named events to their listeners.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	inflight sync.WaitGroup
}

// New returns an empty Bus.
func New() *Bus {
	return &Bus{handlers: make(map[string][]Handler)}
}

// Listen registers handler for event.
func (b *Bus) Listen(event string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[event] = append(b.handlers[event], handler)
}

func (b *Bus) listeners(event string) []Handler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]Handler(nil), b.handlers[event]...)
}

// Fire dispatches event synchronously, in registration order.
func (b *Bus) Fire(ctx context.Context, event string, payload any) {
	for _, h := range b.listeners(event) {
		b.call(ctx, event, h, payload)
	}
}

// FireAsync dispatches event to every listener concurrently and returns
// immediately. Listeners get a context detached from ctx's cancellation.
func (b *Bus) FireAsync(ctx context.Context, event string, payload any) {
	detached := context.WithoutCancel(ctx)
	for _, h := range b.listeners(event) {
		b.inflight.Add(1)
		go func(h Handler) {
			defer b.inflight.Done()
			b.call(detached, event, h, payload)
		}(h)
	}
}

// Wait blocks until every FireAsync listener has returned.
func (b *Bus) Wait() { b.inflight.Wait() }

func (b *Bus) call(ctx context.Context, event string, h Handler, payload any) {
	defer func() {
		if r := recover(); r != nil {
			logger.WithCtx(ctx).Error("event: listener panicked", "event", event, "panic", r)
		}
	}()
	h(ctx, payload)
}

// Flush removes all listeners.
func (b *Bus) Flush() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = make(map[string][]Handler)
}
