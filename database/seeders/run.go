// Package seeders fills a database with demo accounts, catalog products
// and sample orders. Every seeder is idempotent: rows are matched on a
// natural key and only created when missing.
//
//	func init() {
//	    seeders.Register("accounts", SeedAccounts)
//	}
//
// Run via CLI: storefront seed
package seeders

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/storefront/pkg/logger"
)

// SeederFunc is the signature for a seed function.
type SeederFunc func(ctx context.Context, db *gorm.DB) error

type seederEntry struct {
	name string
	fn   SeederFunc
}

var (
	mu      sync.Mutex
	entries []seederEntry
)

// Register adds a seeder to the global registry. Seeders run in
// registration order, so register dependencies first.
func Register(name string, fn SeederFunc) {
	mu.Lock()
	defer mu.Unlock()
	entries = append(entries, seederEntry{name: name, fn: fn})
}

// Names lists registered seeders in run order.
func Names() []string {
	mu.Lock()
	defer mu.Unlock()
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.name
	}
	return out
}

// RunAll executes every registered seeder in registration order.
// It stops on the first error.
func RunAll(ctx context.Context, db *gorm.DB) error {
	mu.Lock()
	current := append([]seederEntry(nil), entries...)
	mu.Unlock()

	if len(current) == 0 {
		logger.Warn("seed: no seeders registered")
		return nil
	}

	for _, e := range current {
		start := time.Now()
		if err := e.fn(ctx, db); err != nil {
			return fmt.Errorf("seeder %q: %w", e.name, err)
		}
		logger.Info("seed: done", "seeder", e.name, "duration", time.Since(start).String())
	}
	return nil
}

func init() {
	Register("accounts", SeedAccounts)
	Register("products", SeedProducts)
	Register("orders", SeedOrders)
}
