package migrations

import (
	"gorm.io/gorm"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/pkg/migration"
	"github.com/shashiranjanraj/storefront/pkg/queue"
)

func init() {
	migration.Register("20260101000000_create_users_table", &createTables{models: []any{&models.User{}}})
	migration.Register("20260101000001_create_products_table", &createTables{models: []any{&models.Product{}}})
	migration.Register("20260101000002_create_orders_table", &createTables{models: []any{&models.Order{}, &models.OrderItem{}}})
	migration.Register("20260101000003_create_payments_table", &createTables{models: []any{&models.Payment{}}})
	migration.Register("20260101000004_create_failed_jobs_table", &createTables{models: []any{&queue.FailedJobRecord{}}})
}

// createTables auto-migrates a group of models and drops them, in reverse,
// on rollback.
type createTables struct {
	models []any
}

func (m *createTables) Up(db *gorm.DB) error {
	for _, model := range m.models {
		if err := db.AutoMigrate(model); err != nil {
			return err
		}
	}
	return nil
}

func (m *createTables) Down(db *gorm.DB) error {
	for i := len(m.models) - 1; i >= 0; i-- {
		if err := db.Migrator().DropTable(m.models[i]); err != nil {
			return err
		}
	}
	return nil
}
