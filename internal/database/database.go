package database

import (
	"fmt"

	"trade-cashback-go/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// NewDatabase creates a new database connection and performs auto-migration.
// TranslateError is enabled so unique-constraint violations surface as
// gorm.ErrDuplicatedKey; the admission path relies on that to converge
// concurrent duplicate tickets onto a single row.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := AutoMigrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// AutoMigrate creates or updates the three core tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.TradingAccount{},
		&models.Trade{},
		&models.CashbackLedgerEntry{},
	); err != nil {
		return fmt.Errorf("failed to auto-migrate database: %w", err)
	}
	return nil
}
