package models

import "time"

// Trading account status values. The only transition owned by this service is
// StatusAwaitingSetup -> StatusConnected on the first admitted trade; the VPS
// manager callback may report any of the others.
const (
	StatusAwaitingSetup = "awaiting_setup"
	StatusConnected     = "connected"
	StatusError         = "error"
	StatusDisconnected  = "disconnected"
)

// Supported trading platforms.
const (
	PlatformMT4 = "MT4"
	PlatformMT5 = "MT5"
)

// TradingAccount is a broker account a dashboard user has linked.
// (Platform, Server, Login) is the natural key the unattended client
// registers with; ExternalAccountID is the opaque id it reports trades under,
// and APISecret keys the report signatures. The secret is distinct from the
// external id and is only ever returned by registration.
type TradingAccount struct {
	ID                string `gorm:"primaryKey"`
	UserID            string `gorm:"index;not null"`
	Broker            string
	Platform          string `gorm:"uniqueIndex:idx_platform_server_login;not null"`
	Server            string `gorm:"uniqueIndex:idx_platform_server_login;not null"`
	Login             string `gorm:"uniqueIndex:idx_platform_server_login;not null"`
	ExternalAccountID string `gorm:"uniqueIndex;not null"`
	APISecret         string `gorm:"not null"`
	InvestorPassword  string // encrypted at rest, opaque to this service
	Status            string `gorm:"default:awaiting_setup"`
	ErrorMessage      string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
