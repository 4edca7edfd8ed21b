package migration

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type widget struct {
	ID   uint
	Name string
}

type createWidgets struct{}

func (createWidgets) Up(db *gorm.DB) error   { return db.AutoMigrate(&widget{}) }
func (createWidgets) Down(db *gorm.DB) error { return db.Migrator().DropTable(&widget{}) }

type broken struct{}

func (broken) Up(*gorm.DB) error   { return errors.New("boom") }
func (broken) Down(*gorm.DB) error { return nil }

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "m.db")), &gorm.Config{})
	require.NoError(t, err)
	return db
}

func TestUpRollbackStatus(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	r := NewWith(db, map[string]Migration{"20260101000000_create_widgets": createWidgets{}})

	ran, err := r.Up(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"20260101000000_create_widgets"}, ran)
	assert.True(t, db.Migrator().HasTable(&widget{}))

	ran, err = r.Up(ctx)
	require.NoError(t, err)
	assert.Empty(t, ran)

	st, err := r.Status(ctx)
	require.NoError(t, err)
	require.Len(t, st, 1)
	assert.True(t, st[0].Ran)
	assert.Equal(t, 1, st[0].Batch)

	reverted, err := r.Rollback(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"20260101000000_create_widgets"}, reverted)
	assert.False(t, db.Migrator().HasTable(&widget{}))

	reverted, err = r.Rollback(ctx)
	require.NoError(t, err)
	assert.Empty(t, reverted)
}

func TestUpStopsOnFailure(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	r := NewWith(db, map[string]Migration{
		"20260101000000_create_widgets": createWidgets{},
		"20260101000001_broken":         broken{},
	})

	ran, err := r.Up(ctx)
	require.Error(t, err)
	assert.Equal(t, []string{"20260101000000_create_widgets"}, ran)

	st, err := r.Status(ctx)
	require.NoError(t, err)
	assert.True(t, st[0].Ran)
	assert.False(t, st[1].Ran)
}
