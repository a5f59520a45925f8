package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Trade is one closed trade reported by the unattended client. Broker tickets
// are only unique within a single account, so the composite
// (trading_account_id, ticket) index is the idempotency key for admission.
type Trade struct {
	gorm.Model
	TradingAccountID string          `gorm:"uniqueIndex:idx_account_ticket;not null" json:"trading_account_id"`
	Ticket           int64           `gorm:"uniqueIndex:idx_account_ticket;not null" json:"ticket"`
	Symbol           string          `json:"symbol"`
	Lots             decimal.Decimal `gorm:"type:decimal(20,8)" json:"lots"`
	Commission       decimal.Decimal `gorm:"type:decimal(20,8)" json:"commission"`
	Swap             decimal.Decimal `gorm:"type:decimal(20,8)" json:"swap"`
	Profit           decimal.Decimal `gorm:"type:decimal(20,8)" json:"profit"`
	OpenTime         time.Time       `json:"open_time"`
	CloseTime        time.Time       `json:"close_time"`
	RawPayload       string          `json:"-"` // submitted report as received, kept for audit
}
