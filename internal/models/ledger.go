package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Ledger entry statuses. Paid is set by the withdrawal workflow; recomputation
// never overwrites it.
const (
	LedgerStatusPending = "pending"
	LedgerStatusPaid    = "paid"
)

// CashbackLedgerEntry is the accrued cashback of one user for one calendar
// month. Volume and amount are always recomputed from the full trade history,
// never patched incrementally.
type CashbackLedgerEntry struct {
	gorm.Model     `json:"-"`
	UserID         string          `gorm:"uniqueIndex:idx_user_period;not null" json:"user_id"`
	Period         string          `gorm:"uniqueIndex:idx_user_period;not null" json:"period"` // "2006-01", UTC close-time month
	VolumeLots     decimal.Decimal `gorm:"type:decimal(20,8)" json:"volume_lots"`
	CashbackAmount decimal.Decimal `gorm:"type:decimal(20,8)" json:"cashback_amount"`
	Status         string          `gorm:"default:pending" json:"status"`
}
