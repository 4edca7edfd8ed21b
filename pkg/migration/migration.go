// Package migration runs versioned schema migrations and records which have
// been applied in the schema_migrations table.
//
// Migrations register themselves from init() in database/migrations:
//
//	func init() {
//	    migration.Register("20260101000000_create_accounts_table", &CreateAccountsTable{})
//	}
package migration

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/storefront/pkg/logger"
)

// Migration is implemented by every schema change.
type Migration interface {
	Up(db *gorm.DB) error
	Down(db *gorm.DB) error
}

type record struct {
	ID    uint      `gorm:"primaryKey;autoIncrement"`
	Name  string    `gorm:"uniqueIndex;size:255;not null"`
	Batch int       `gorm:"not null"`
	RunAt time.Time `gorm:"autoCreateTime"`
}

func (record) TableName() string { return "schema_migrations" }

type entry struct {
	name string
	m    Migration
}

var (
	mu       sync.Mutex
	registry []entry
)

// Register adds m under name to the default registry. Names are timestamp
// prefixed; they are applied in lexical order regardless of Register order.
func Register(name string, m Migration) {
	mu.Lock()
	defer mu.Unlock()
	registry = append(registry, entry{name: name, m: m})
}

func registered() []entry {
	mu.Lock()
	defer mu.Unlock()
	out := append([]entry(nil), registry...)
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

// ErrNotRegistered is returned by Rollback when a recorded migration has no
// implementation in the current binary.
var ErrNotRegistered = errors.New("migration not registered")

// Status describes one migration for migrate:status.
type Status struct {
	Name  string
	Ran   bool
	Batch int
}

// Runner applies and reverts migrations against one database.
type Runner struct {
	db      *gorm.DB
	entries []entry
}

// New returns a Runner over the default registry.
func New(db *gorm.DB) *Runner {
	return &Runner{db: db, entries: registered()}
}

// NewWith returns a Runner over an explicit migration set, keyed by name.
func NewWith(db *gorm.DB, migrations map[string]Migration) *Runner {
	r := &Runner{db: db}
	for name, m := range migrations {
		r.entries = append(r.entries, entry{name: name, m: m})
	}
	sort.Slice(r.entries, func(i, j int) bool { return r.entries[i].name < r.entries[j].name })
	return r
}

func (r *Runner) ensureTable() error {
	return r.db.AutoMigrate(&record{})
}

func (r *Runner) applied(ctx context.Context) (map[string]record, error) {
	var rows []record
	if err := r.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]record, len(rows))
	for _, row := range rows {
		out[row.Name] = row
	}
	return out, nil
}

// Up applies every pending migration as one batch and returns their names.
// Each migration and its bookkeeping row commit together.
func (r *Runner) Up(ctx context.Context) ([]string, error) {
	if err := r.ensureTable(); err != nil {
		return nil, fmt.Errorf("migration: ensure table: %w", err)
	}
	done, err := r.applied(ctx)
	if err != nil {
		return nil, fmt.Errorf("migration: read applied: %w", err)
	}

	batch := r.lastBatch(ctx) + 1
	var ran []string
	for _, e := range r.entries {
		e := e
		if _, ok := done[e.name]; ok {
			continue
		}
		err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := e.m.Up(tx); err != nil {
				return err
			}
			return tx.Create(&record{Name: e.name, Batch: batch}).Error
		})
		if err != nil {
			return ran, fmt.Errorf("migration: %s up: %w", e.name, err)
		}
		logger.Info("migration applied", "name", e.name, "batch", batch)
		ran = append(ran, e.name)
	}
	return ran, nil
}

// Rollback reverts the most recent batch, newest first.
func (r *Runner) Rollback(ctx context.Context) ([]string, error) {
	if err := r.ensureTable(); err != nil {
		return nil, fmt.Errorf("migration: ensure table: %w", err)
	}
	last := r.lastBatch(ctx)
	if last == 0 {
		return nil, nil
	}

	var rows []record
	if err := r.db.WithContext(ctx).Where("batch = ?", last).Order("name desc").Find(&rows).Error; err != nil {
		return nil, err
	}

	byName := make(map[string]Migration, len(r.entries))
	for _, e := range r.entries {
		byName[e.name] = e.m
	}

	var reverted []string
	for _, row := range rows {
		row := row
		m, ok := byName[row.Name]
		if !ok {
			return reverted, fmt.Errorf("migration: %s: %w", row.Name, ErrNotRegistered)
		}
		err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := m.Down(tx); err != nil {
				return err
			}
			return tx.Delete(&record{}, row.ID).Error
		})
		if err != nil {
			return reverted, fmt.Errorf("migration: %s down: %w", row.Name, err)
		}
		logger.Info("migration rolled back", "name", row.Name, "batch", last)
		reverted = append(reverted, row.Name)
	}
	return reverted, nil
}

// Status lists every known migration in apply order.
func (r *Runner) Status(ctx context.Context) ([]Status, error) {
	if err := r.ensureTable(); err != nil {
		return nil, err
	}
	done, err := r.applied(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Status, 0, len(r.entries))
	for _, e := range r.entries {
		row, ok := done[e.name]
		out = append(out, Status{Name: e.name, Ran: ok, Batch: row.Batch})
	}
	return out, nil
}

func (r *Runner) lastBatch(ctx context.Context) int {
	var out struct{ Batch int }
	r.db.WithContext(ctx).Model(&record{}).Select("COALESCE(MAX(batch), 0) AS batch").Scan(&out)
	return out.Batch
}
