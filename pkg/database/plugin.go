package database

import (
	"time"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/storefront/pkg/metrics"
)

const startKey = "storefront:query_start"

// queryTimer is a gorm plugin feeding metrics.DBQueryDuration.
type queryTimer struct{}

func (queryTimer) Name() string { return "storefront:query_timer" }

func (queryTimer) Initialize(db *gorm.DB) error {
	before := func(tx *gorm.DB) { tx.InstanceSet(startKey, time.Now()) }
	after := func(op string) func(*gorm.DB) {
		return func(tx *gorm.DB) {
			if v, ok := tx.InstanceGet(startKey); ok {
				if start, ok := v.(time.Time); ok {
					metrics.ObserveDBQuery(op, start)
				}
			}
		}
	}

	cb := db.Callback()
	for _, err := range []error{
		cb.Create().Before("gorm:create").Register("timer:before_create", before),
		cb.Create().After("gorm:create").Register("timer:after_create", after("create")),
		cb.Query().Before("gorm:query").Register("timer:before_query", before),
		cb.Query().After("gorm:query").Register("timer:after_query", after("query")),
		cb.Update().Before("gorm:update").Register("timer:before_update", before),
		cb.Update().After("gorm:update").Register("timer:after_update", after("update")),
		cb.Delete().Before("gorm:delete").Register("timer:before_delete", before),
		cb.Delete().After("gorm:delete").Register("timer:after_delete", after("delete")),
		cb.Row().Before("gorm:row").Register("timer:before_row", before),
		cb.Row().After("gorm:row").Register("timer:after_row", after("row")),
		cb.Raw().Before("gorm:raw").Register("timer:before_raw", before),
		cb.Raw().After("gorm:raw").Register("timer:after_raw", after("raw")),
	} {
		if err != nil {
			return err
		}
	}
	return nil
}
