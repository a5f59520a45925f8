package store

import (
	"context"
	"errors"
	"fmt"

	"trade-cashback-go/internal/models"

	"gorm.io/gorm"
)

// TradeStore is the persistence boundary for admitted trades. Trades are
// insert-only; there is no update or delete path.
type TradeStore interface {
	Insert(ctx context.Context, trade *models.Trade) error
	FindByAccountAndTicket(ctx context.Context, accountID string, ticket int64) (*models.Trade, error)
	// ListByUser returns every trade across all of the user's accounts,
	// ordered by close time. This is the source of truth the ledger is
	// recomputed from.
	ListByUser(ctx context.Context, userID string) ([]models.Trade, error)
}

type gormTradeStore struct {
	db *gorm.DB
}

// NewTradeStore creates a gorm-backed TradeStore.
func NewTradeStore(db *gorm.DB) TradeStore {
	return &gormTradeStore{db: db}
}

func (s *gormTradeStore) Insert(ctx context.Context, trade *models.Trade) error {
	if err := s.db.WithContext(ctx).Create(trade).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicate
		}
		return fmt.Errorf("could not insert trade: %w", err)
	}
	return nil
}

func (s *gormTradeStore) FindByAccountAndTicket(ctx context.Context, accountID string, ticket int64) (*models.Trade, error) {
	var trade models.Trade
	err := s.db.WithContext(ctx).
		Where("trading_account_id = ? AND ticket = ?", accountID, ticket).
		First(&trade).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("could not look up trade: %w", err)
	}
	return &trade, nil
}

func (s *gormTradeStore) ListByUser(ctx context.Context, userID string) ([]models.Trade, error) {
	var trades []models.Trade
	err := s.db.WithContext(ctx).
		Joins("JOIN trading_accounts ON trading_accounts.id = trades.trading_account_id").
		Where("trading_accounts.user_id = ?", userID).
		Order("trades.close_time asc").
		Find(&trades).Error
	if err != nil {
		return nil, fmt.Errorf("could not list trades for user: %w", err)
	}
	return trades, nil
}
