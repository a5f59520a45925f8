// Package cashback folds admitted trades into the per-period cashback ledger.
package cashback

import (
	"context"
	"fmt"
	"sort"

	"trade-cashback-go/internal/models"
	"trade-cashback-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// periodLayout buckets accrual by the UTC month a trade closed in.
const periodLayout = "2006-01"

// Engine recomputes a user's cashback ledger from the full trade history.
// Full recomputation is deliberately order independent: however often trades
// arrive, and in whatever order, the ledger converges on the same totals.
type Engine struct {
	trades store.TradeStore
	ledger store.LedgerStore
	rate   decimal.Decimal
	logger *zap.Logger
}

// NewEngine creates a reconciliation engine with the given per-lot rate.
func NewEngine(trades store.TradeStore, ledger store.LedgerStore, ratePerLot float64, logger *zap.Logger) *Engine {
	return &Engine{
		trades: trades,
		ledger: ledger,
		rate:   decimal.NewFromFloat(ratePerLot),
		logger: logger,
	}
}

// Recompute rebuilds every period entry for the user and returns the periods
// written. Volume is the sum of lots closed in the period; the amount is
// volume times the per-lot rate. Existing paid statuses survive the upsert.
func (e *Engine) Recompute(ctx context.Context, userID string) ([]string, error) {
	trades, err := e.trades.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("could not load trades for user %s: %w", userID, err)
	}

	volumes := make(map[string]decimal.Decimal)
	for _, trade := range trades {
		period := trade.CloseTime.UTC().Format(periodLayout)
		volumes[period] = volumes[period].Add(trade.Lots)
	}

	periods := make([]string, 0, len(volumes))
	for period := range volumes {
		periods = append(periods, period)
	}
	sort.Strings(periods)

	for _, period := range periods {
		volume := volumes[period]
		entry := &models.CashbackLedgerEntry{
			UserID:         userID,
			Period:         period,
			VolumeLots:     volume,
			CashbackAmount: volume.Mul(e.rate),
			Status:         models.LedgerStatusPending,
		}
		if err := e.ledger.Upsert(ctx, entry); err != nil {
			return nil, fmt.Errorf("could not upsert ledger entry for %s/%s: %w", userID, period, err)
		}
	}

	e.logger.Debug("Cashback ledger recomputed",
		zap.String("user_id", userID),
		zap.Int("trades", len(trades)),
		zap.Int("periods", len(periods)))

	return periods, nil
}
