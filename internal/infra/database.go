package infra

import (
	"fmt"

	"itineramio/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx, then runs
// RunMigrations so the schema is ready before the first request.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

// RunMigrations creates / updates all tables and applies the schema patches.
// It is also what repository and integration tests call on their own databases.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.PropertyOwner{},
		&model.Property{},
		&model.PropertyBillingConfig{},
		&model.Reservation{},
		&model.PropertyExpense{},
		&model.Liquidation{},
		&model.InvoiceSeries{},
		&model.ClientInvoice{},
		&model.InvoiceItem{},
		&model.ImportTemplate{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	if err := applySchemaPatches(db); err != nil {
		return fmt.Errorf("schema patches: %w", err)
	}
	return nil
}

// applySchemaPatches runs idempotent DDL that GORM tags cannot express.
// Statements must stay valid on both PostgreSQL and SQLite.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		// reservation identity: only enforced when the platform supplied a code
		{"uq reservations identity", `
CREATE UNIQUE INDEX IF NOT EXISTS uq_reservations_property_code_platform
    ON reservations (property_id, confirmation_code, platform)
    WHERE confirmation_code <> ''`},
		// fallback identity lookup for code-less (DIRECT / email) bookings
		{"idx reservations fallback identity", `
CREATE INDEX IF NOT EXISTS idx_reservations_fallback_identity
    ON reservations (property_id, guest_name, check_in, check_out, platform)`},
		// aggregation candidate scan
		{"idx reservations unclaimed", `
CREATE INDEX IF NOT EXISTS idx_reservations_unclaimed
    ON reservations (property_id, check_in)
    WHERE liquidation_id IS NULL AND invoiced = false`},
		{"idx expenses unclaimed", `
CREATE INDEX IF NOT EXISTS idx_property_expenses_unclaimed
    ON property_expenses (property_id, date)
    WHERE liquidation_id IS NULL`},
		// overdue sweep
		{"idx invoices open due", `
CREATE INDEX IF NOT EXISTS idx_client_invoices_open_due
    ON client_invoices (due_date)
    WHERE status IN ('ISSUED', 'SENT')`},
	}
	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", p.descr, err)
		}
	}
	return nil
}
