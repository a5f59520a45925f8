// Package accounts resolves unattended-client identities to linked trading
// accounts and owns the account status lifecycle.
package accounts

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"trade-cashback-go/internal/models"
	"trade-cashback-go/internal/secrets"
	"trade-cashback-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrNotLinked means no dashboard-linked account matches the natural key
	// a client tried to register with.
	ErrNotLinked = errors.New("no linked trading account matches")
	// ErrUnknownAccount means a report subject (external id) resolved to
	// nothing.
	ErrUnknownAccount = errors.New("unknown trading account")
	// ErrLoginTaken means the broker login is already linked.
	ErrLoginTaken = errors.New("trading account already linked")
)

// Service implements account resolution, linking and status transitions over
// the account store.
type Service struct {
	accounts store.TradingAccountStore
	cipher   *secrets.Cipher
	logger   *zap.Logger
}

// NewService creates an account service.
func NewService(accounts store.TradingAccountStore, cipher *secrets.Cipher, logger *zap.Logger) *Service {
	return &Service{accounts: accounts, cipher: cipher, logger: logger}
}

// Credentials is what registration hands back to the unattended client: the
// subject it reports trades under and the secret it signs them with.
type Credentials struct {
	ExternalAccountID string `json:"external_account_id"`
	APISecret         string `json:"api_secret"`
}

// Register resolves a (platform, server, login) triple to the client's
// credentials. Accounts are provisioned when the user links a broker in the
// dashboard; registration never creates one, so an unknown triple is
// ErrNotLinked. Re-registration returns the same values.
func (s *Service) Register(ctx context.Context, platform, server, login string) (*Credentials, error) {
	account, err := s.accounts.FindByNaturalKey(ctx, platform, server, login)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotLinked
		}
		return nil, fmt.Errorf("account lookup failed: %w", err)
	}

	s.logger.Info("Client registered",
		zap.String("platform", platform),
		zap.String("server", server),
		zap.String("login", login))

	return &Credentials{
		ExternalAccountID: account.ExternalAccountID,
		APISecret:         account.APISecret,
	}, nil
}

// ResolveByExternalID recovers the account behind a signed report's subject.
func (s *Service) ResolveByExternalID(ctx context.Context, externalID string) (*models.TradingAccount, error) {
	account, err := s.accounts.FindByExternalID(ctx, externalID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUnknownAccount
		}
		return nil, fmt.Errorf("account lookup failed: %w", err)
	}
	return account, nil
}

// MarkActiveIfPending promotes an account from awaiting_setup to connected
// after its first admitted trade. The transition is one-way and idempotent;
// any other current status is left alone.
func (s *Service) MarkActiveIfPending(ctx context.Context, accountID string) error {
	promoted, err := s.accounts.UpdateStatusIf(ctx, accountID, models.StatusAwaitingSetup, models.StatusConnected)
	if err != nil {
		return fmt.Errorf("status promotion failed: %w", err)
	}
	if promoted {
		s.logger.Info("Trading account connected", zap.String("account_id", accountID))
	}
	return nil
}

// LinkParams describes a broker account a dashboard user wants tracked.
type LinkParams struct {
	UserID           string
	Broker           string
	Platform         string
	Server           string
	Login            string
	InvestorPassword string
}

// Link provisions a trading account: fresh external id, fresh signing secret,
// credentials encrypted at rest, status awaiting_setup. A login that is
// already linked (to anyone) is rejected.
func (s *Service) Link(ctx context.Context, p LinkParams) (*models.TradingAccount, error) {
	if _, err := s.accounts.FindByLogin(ctx, p.Login); err == nil {
		return nil, ErrLoginTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("login check failed: %w", err)
	}

	encrypted, err := s.cipher.Encrypt(p.InvestorPassword)
	if err != nil {
		return nil, fmt.Errorf("could not encrypt credentials: %w", err)
	}

	secret, err := newAPISecret()
	if err != nil {
		return nil, err
	}

	account := &models.TradingAccount{
		UserID:            p.UserID,
		Broker:            p.Broker,
		Platform:          p.Platform,
		Server:            p.Server,
		Login:             p.Login,
		ExternalAccountID: uuid.NewString(),
		APISecret:         secret,
		InvestorPassword:  encrypted,
		Status:            models.StatusAwaitingSetup,
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrLoginTaken
		}
		return nil, fmt.Errorf("account create failed: %w", err)
	}

	s.logger.Info("Trading account linked",
		zap.String("account_id", account.ID),
		zap.String("user_id", p.UserID),
		zap.String("broker", p.Broker))

	return account, nil
}

// ListByUser returns the user's accounts with credential fields blanked.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]models.TradingAccount, error) {
	accounts, err := s.accounts.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range accounts {
		accounts[i].InvestorPassword = ""
		accounts[i].APISecret = ""
	}
	return accounts, nil
}

// PendingAccount is the provisioning view handed to the VPS manager, with the
// investor password decrypted for client setup.
type PendingAccount struct {
	ExternalAccountID string `json:"external_account_id"`
	Broker            string `json:"broker"`
	Platform          string `json:"platform"`
	Server            string `json:"server"`
	Login             string `json:"login"`
	InvestorPassword  string `json:"investor_password"`
}

// PendingAccounts lists every account still awaiting VPS setup.
func (s *Service) PendingAccounts(ctx context.Context) ([]PendingAccount, error) {
	accounts, err := s.accounts.ListByStatus(ctx, models.StatusAwaitingSetup)
	if err != nil {
		return nil, err
	}

	pending := make([]PendingAccount, 0, len(accounts))
	for _, account := range accounts {
		password, err := s.cipher.Decrypt(account.InvestorPassword)
		if err != nil {
			return nil, fmt.Errorf("could not decrypt credentials for account %s: %w", account.ID, err)
		}
		pending = append(pending, PendingAccount{
			ExternalAccountID: account.ExternalAccountID,
			Broker:            account.Broker,
			Platform:          account.Platform,
			Server:            account.Server,
			Login:             account.Login,
			InvestorPassword:  password,
		})
	}
	return pending, nil
}

// UpdateStatus applies a VPS manager status report (connected, error or
// disconnected) to the account.
func (s *Service) UpdateStatus(ctx context.Context, externalID, status, errorMessage string) error {
	err := s.accounts.UpdateStatusByExternalID(ctx, externalID, status, errorMessage)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUnknownAccount
		}
		return err
	}
	s.logger.Info("Account status reported",
		zap.String("external_account_id", externalID),
		zap.String("status", status))
	return nil
}

// newAPISecret generates the per-account signing secret. It is independent of
// the external id so knowing the subject never yields the key.
func newAPISecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("could not generate API secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
