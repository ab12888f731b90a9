package config

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"

	"github.com/amarinov1974/cmms-system-sub000/models"
)

func Migrations(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "10032026_create_directory_tables",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.Company{}, &models.Region{}, &models.Store{}, &models.User{})
			},
		},
		{
			ID: "10032026_create_ticket_tables",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.Ticket{})
			},
		},
		{
			ID: "10032026_create_work_order_tables",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.WorkOrder{}, &models.WorkOrderVisit{},
					&models.WorkReportRow{}, &models.InvoiceRow{}, &models.AuditLogEntry{})
			},
		},
		{
			ID: "10032026_create_billing_tables",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.VendorPriceListItem{}, &models.InvoiceBatch{})
			},
		},
		{
			ID: "12032026_add_open_visit_unique_index",
			Migrate: func(tx *gorm.DB) error {
				// At most one open visit (checkout_ts IS NULL) per work order.
				return tx.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_one_open_visit
					ON work_order_visits (work_order_id) WHERE checkout_ts IS NULL`).Error
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Exec(`DROP INDEX IF EXISTS idx_one_open_visit`).Error
			},
		},
	})
	return m.Migrate()
}
