// Package middleware provides the HTTP middleware stack.
package middleware

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/shashiranjanraj/storefront/pkg/response"
)

// bucket tracks a fixed-window request count for one client.
type bucket struct {
	count   int
	resetAt time.Time
}

// Limiter is a per-client fixed-window rate limiter.
type Limiter struct {
	mu      sync.Mutex
	max     int
	window  time.Duration
	buckets map[string]*bucket
	now     func() time.Time
}

// NewLimiter allows max requests per window for each client IP.
func NewLimiter(max int, window time.Duration) *Limiter {
	return &Limiter{max: max, window: window, buckets: map[string]*bucket{}, now: time.Now}
}

// Allow records a hit for key and reports whether it is within the limit.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[key]
	if !ok || now.After(b.resetAt) {
		b = &bucket{resetAt: now.Add(l.window)}
		l.buckets[key] = b
	}
	b.count++
	return b.count <= l.max
}

// Sweep evicts expired buckets every window until ctx is done.
func (l *Limiter) Sweep(ctx context.Context) {
	ticker := time.NewTicker(l.window)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := l.now()
			l.mu.Lock()
			for k, b := range l.buckets {
				if now.After(b.resetAt) {
					delete(l.buckets, k)
				}
			}
			l.mu.Unlock()
		}
	}
}

// Middleware rejects clients over the limit with a 429 envelope.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := r.RemoteAddr
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			ip = strings.TrimSpace(strings.SplitN(fwd, ",", 2)[0])
		}
		if !l.Allow(ip) {
			response.Error(w, http.StatusTooManyRequests, "Too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}
