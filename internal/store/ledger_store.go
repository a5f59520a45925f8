package store

import (
	"context"
	"fmt"

	"trade-cashback-go/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LedgerStore is the persistence boundary for cashback ledger entries.
type LedgerStore interface {
	// Upsert writes the entry keyed by (user_id, period). On conflict only
	// volume, amount and updated_at are overwritten: a status already set to
	// paid by the withdrawal workflow survives recomputation.
	Upsert(ctx context.Context, entry *models.CashbackLedgerEntry) error
	ListByUser(ctx context.Context, userID string) ([]models.CashbackLedgerEntry, error)
}

type gormLedgerStore struct {
	db *gorm.DB
}

// NewLedgerStore creates a gorm-backed LedgerStore.
func NewLedgerStore(db *gorm.DB) LedgerStore {
	return &gormLedgerStore{db: db}
}

func (s *gormLedgerStore) Upsert(ctx context.Context, entry *models.CashbackLedgerEntry) error {
	if entry.Status == "" {
		entry.Status = models.LedgerStatusPending
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "period"}},
			DoUpdates: clause.AssignmentColumns([]string{"volume_lots", "cashback_amount", "updated_at"}),
		}).
		Create(entry).Error
	if err != nil {
		return fmt.Errorf("could not upsert ledger entry: %w", err)
	}
	return nil
}

func (s *gormLedgerStore) ListByUser(ctx context.Context, userID string) ([]models.CashbackLedgerEntry, error) {
	var entries []models.CashbackLedgerEntry
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("period desc").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("could not list ledger entries: %w", err)
	}
	return entries, nil
}
