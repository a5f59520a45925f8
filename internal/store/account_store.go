package store

import (
	"context"
	"errors"
	"fmt"

	"trade-cashback-go/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TradingAccountStore is the persistence boundary for linked broker accounts.
type TradingAccountStore interface {
	Create(ctx context.Context, account *models.TradingAccount) error
	FindByNaturalKey(ctx context.Context, platform, server, login string) (*models.TradingAccount, error)
	FindByExternalID(ctx context.Context, externalID string) (*models.TradingAccount, error)
	FindByLogin(ctx context.Context, login string) (*models.TradingAccount, error)
	ListByUser(ctx context.Context, userID string) ([]models.TradingAccount, error)
	ListByStatus(ctx context.Context, status string) ([]models.TradingAccount, error)
	UpdateStatusByExternalID(ctx context.Context, externalID, status, errorMessage string) error
	// UpdateStatusIf sets status to `to` only when the current status is
	// `from`, reporting whether a row changed. This is the conditional write
	// the one-way awaiting_setup -> connected promotion relies on.
	UpdateStatusIf(ctx context.Context, id, from, to string) (bool, error)
}

type gormTradingAccountStore struct {
	db *gorm.DB
}

// NewTradingAccountStore creates a gorm-backed TradingAccountStore.
func NewTradingAccountStore(db *gorm.DB) TradingAccountStore {
	return &gormTradingAccountStore{db: db}
}

func (s *gormTradingAccountStore) Create(ctx context.Context, account *models.TradingAccount) error {
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	if err := s.db.WithContext(ctx).Create(account).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicate
		}
		return fmt.Errorf("could not create trading account: %w", err)
	}
	return nil
}

func (s *gormTradingAccountStore) FindByNaturalKey(ctx context.Context, platform, server, login string) (*models.TradingAccount, error) {
	var account models.TradingAccount
	err := s.db.WithContext(ctx).
		Where("platform = ? AND server = ? AND login = ?", platform, server, login).
		First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("could not look up trading account: %w", err)
	}
	return &account, nil
}

func (s *gormTradingAccountStore) FindByExternalID(ctx context.Context, externalID string) (*models.TradingAccount, error) {
	var account models.TradingAccount
	err := s.db.WithContext(ctx).Where("external_account_id = ?", externalID).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("could not look up trading account: %w", err)
	}
	return &account, nil
}

func (s *gormTradingAccountStore) FindByLogin(ctx context.Context, login string) (*models.TradingAccount, error) {
	var account models.TradingAccount
	err := s.db.WithContext(ctx).Where("login = ?", login).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("could not look up trading account: %w", err)
	}
	return &account, nil
}

func (s *gormTradingAccountStore) ListByUser(ctx context.Context, userID string) ([]models.TradingAccount, error) {
	var accounts []models.TradingAccount
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&accounts).Error
	if err != nil {
		return nil, fmt.Errorf("could not list trading accounts: %w", err)
	}
	return accounts, nil
}

func (s *gormTradingAccountStore) ListByStatus(ctx context.Context, status string) ([]models.TradingAccount, error) {
	var accounts []models.TradingAccount
	err := s.db.WithContext(ctx).Where("status = ?", status).Find(&accounts).Error
	if err != nil {
		return nil, fmt.Errorf("could not list trading accounts: %w", err)
	}
	return accounts, nil
}

func (s *gormTradingAccountStore) UpdateStatusByExternalID(ctx context.Context, externalID, status, errorMessage string) error {
	updates := map[string]any{
		"status":        status,
		"error_message": errorMessage,
	}
	result := s.db.WithContext(ctx).
		Model(&models.TradingAccount{}).
		Where("external_account_id = ?", externalID).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("could not update account status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *gormTradingAccountStore) UpdateStatusIf(ctx context.Context, id, from, to string) (bool, error) {
	result := s.db.WithContext(ctx).
		Model(&models.TradingAccount{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if result.Error != nil {
		return false, fmt.Errorf("could not update account status: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}
