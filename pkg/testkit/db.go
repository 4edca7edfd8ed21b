package testkit

import (
	"path/filepath"
	"testing"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/storefront/pkg/database"
)

// SQLite opens a throwaway sqlite database in t's temp dir. It uses a single
// connection, so concurrent callers are serialised by the pool.
func SQLite(t testing.TB) *gorm.DB {
	t.Helper()
	opts := database.DefaultOptions()
	opts.MaxOpenConns = 1
	opts.MaxIdleConns = 1

	db, err := database.Open("sqlite", filepath.Join(t.TempDir(), "test.db"), opts)
	if err != nil {
		t.Fatalf("testkit: open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}
