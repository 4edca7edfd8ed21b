package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/storefront/pkg/metrics"
)

func TestOpenSQLiteAndTimeQueries(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxOpenConns = 1
	db, err := Open("sqlite", filepath.Join(t.TempDir(), "t.db"), opts)
	require.NoError(t, err)
	defer Close(db)

	require.NoError(t, Ping(context.Background(), db))

	type widget struct {
		ID   uint
		Name string
	}
	require.NoError(t, db.AutoMigrate(&widget{}))
	require.NoError(t, db.Create(&widget{Name: "a"}).Error)

	var got []widget
	require.NoError(t, db.Find(&got).Error)
	assert.Len(t, got, 1)
	assert.Positive(t, testutil.CollectAndCount(metrics.DBQueryDuration))
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open("oracle", "x", DefaultOptions())
	assert.ErrorContains(t, err, "unsupported DB_DRIVER")
}
