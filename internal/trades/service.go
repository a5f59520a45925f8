// Package trades implements exactly-once admission of closed-trade reports
// from the unattended client.
package trades

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"trade-cashback-go/internal/accounts"
	"trade-cashback-go/internal/models"
	"trade-cashback-go/internal/signature"
	"trade-cashback-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	// ErrUnauthorized covers both an unknown report subject and a signature
	// mismatch. The two are deliberately indistinguishable to the caller.
	ErrUnauthorized = errors.New("unauthorized trade report")
	// ErrInvalidReport means the report was well signed but malformed, e.g.
	// an unparseable timestamp.
	ErrInvalidReport = errors.New("invalid trade report")
)

// Report is a closed-trade submission. Field declaration order is the
// canonical signing order: the signature is the HMAC of the JSON
// serialization of the report with the Signature field removed.
type Report struct {
	ExternalAccountID string          `json:"external_account_id" binding:"required"`
	Ticket            int64           `json:"ticket" binding:"required"`
	Symbol            string          `json:"symbol" binding:"required"`
	Lots              decimal.Decimal `json:"lots" binding:"required"`
	Commission        decimal.Decimal `json:"commission"`
	Swap              decimal.Decimal `json:"swap"`
	Profit            decimal.Decimal `json:"profit"`
	OpenTime          string          `json:"open_time" binding:"required"`
	CloseTime         string          `json:"close_time" binding:"required"`
	Signature         string          `json:"signature" binding:"required"`
}

// canonicalReport mirrors Report without the signature field.
type canonicalReport struct {
	ExternalAccountID string          `json:"external_account_id"`
	Ticket            int64           `json:"ticket"`
	Symbol            string          `json:"symbol"`
	Lots              decimal.Decimal `json:"lots"`
	Commission        decimal.Decimal `json:"commission"`
	Swap              decimal.Decimal `json:"swap"`
	Profit            decimal.Decimal `json:"profit"`
	OpenTime          string          `json:"open_time"`
	CloseTime         string          `json:"close_time"`
}

// CanonicalPayload returns the exact bytes the report's signature is computed
// over.
func (r *Report) CanonicalPayload() ([]byte, error) {
	return json.Marshal(canonicalReport{
		ExternalAccountID: r.ExternalAccountID,
		Ticket:            r.Ticket,
		Symbol:            r.Symbol,
		Lots:              r.Lots,
		Commission:        r.Commission,
		Swap:              r.Swap,
		Profit:            r.Profit,
		OpenTime:          r.OpenTime,
		CloseTime:         r.CloseTime,
	})
}

// Result is the admission outcome. Both fresh admissions and replays are
// accepted; AlreadyRecorded distinguishes them for the HTTP status only.
type Result struct {
	TradeID         uint `json:"trade_id"`
	AlreadyRecorded bool `json:"-"`
}

// Resolver maps a report subject to its account and signing secret.
type Resolver interface {
	ResolveByExternalID(ctx context.Context, externalID string) (*models.TradingAccount, error)
}

// Reconciler folds the admitted trade history into the cashback ledger.
type Reconciler interface {
	Recompute(ctx context.Context, userID string) ([]string, error)
}

// Tracker promotes account status after a first admitted trade.
type Tracker interface {
	MarkActiveIfPending(ctx context.Context, accountID string) error
}

// Notifier announces ledger updates to the dashboard, best effort.
type Notifier interface {
	LedgerUpdated(ctx context.Context, userID string, periods []string)
}

// Service admits trade reports exactly once per (account, ticket).
type Service struct {
	resolver   Resolver
	trades     store.TradeStore
	reconciler Reconciler
	tracker    Tracker
	notifier   Notifier
	logger     *zap.Logger
}

// NewService creates a trade admission service. notifier may be nil.
func NewService(resolver Resolver, trades store.TradeStore, reconciler Reconciler, tracker Tracker, notifier Notifier, logger *zap.Logger) *Service {
	return &Service{
		resolver:   resolver,
		trades:     trades,
		reconciler: reconciler,
		tracker:    tracker,
		notifier:   notifier,
		logger:     logger,
	}
}

// Admit verifies and persists a trade report.
//
// Authentication and validation failures abort before any write. Once the
// trade row is durably inserted, no downstream failure (ledger recompute,
// status promotion, webhook) may surface as a failure of the admission:
// both re-run from stored state and the trade itself is real.
func (s *Service) Admit(ctx context.Context, report *Report) (*Result, error) {
	account, err := s.resolver.ResolveByExternalID(ctx, report.ExternalAccountID)
	if err != nil {
		if errors.Is(err, accounts.ErrUnknownAccount) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}

	payload, err := report.CanonicalPayload()
	if err != nil {
		return nil, fmt.Errorf("could not canonicalize report: %w", err)
	}
	if !signature.Verify(payload, report.Signature, account.APISecret) {
		return nil, ErrUnauthorized
	}

	openTime, err := time.Parse(time.RFC3339, report.OpenTime)
	if err != nil {
		return nil, fmt.Errorf("%w: bad open_time: %v", ErrInvalidReport, err)
	}
	closeTime, err := time.Parse(time.RFC3339, report.CloseTime)
	if err != nil {
		return nil, fmt.Errorf("%w: bad close_time: %v", ErrInvalidReport, err)
	}

	// Replay check. The unattended client resubmits on any network ambiguity;
	// a known (account, ticket) pair is success, not an error.
	if existing, err := s.trades.FindByAccountAndTicket(ctx, account.ID, report.Ticket); err == nil {
		return &Result{TradeID: existing.ID, AlreadyRecorded: true}, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("duplicate check failed: %w", err)
	}

	raw, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("could not serialize report: %w", err)
	}

	trade := &models.Trade{
		TradingAccountID: account.ID,
		Ticket:           report.Ticket,
		Symbol:           report.Symbol,
		Lots:             report.Lots,
		Commission:       report.Commission,
		Swap:             report.Swap,
		Profit:           report.Profit,
		OpenTime:         openTime,
		CloseTime:        closeTime,
		RawPayload:       string(raw),
	}

	if err := s.trades.Insert(ctx, trade); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			// A concurrent retry raced past the replay check. The unique
			// index is the real guarantee; converge on the stored row.
			existing, findErr := s.trades.FindByAccountAndTicket(ctx, account.ID, report.Ticket)
			if findErr != nil {
				return nil, fmt.Errorf("duplicate trade lookup failed: %w", findErr)
			}
			return &Result{TradeID: existing.ID, AlreadyRecorded: true}, nil
		}
		return nil, fmt.Errorf("trade insert failed: %w", err)
	}

	s.logger.Info("Trade admitted",
		zap.String("account_id", account.ID),
		zap.Int64("ticket", report.Ticket),
		zap.String("symbol", report.Symbol))

	periods, err := s.reconciler.Recompute(ctx, account.UserID)
	if err != nil {
		s.logger.Error("Cashback recompute failed after admission",
			zap.String("user_id", account.UserID),
			zap.Error(err))
	} else if s.notifier != nil {
		s.notifier.LedgerUpdated(ctx, account.UserID, periods)
	}

	if err := s.tracker.MarkActiveIfPending(ctx, account.ID); err != nil {
		s.logger.Error("Status promotion failed after admission",
			zap.String("account_id", account.ID),
			zap.Error(err))
	}

	return &Result{TradeID: trade.ID}, nil
}
