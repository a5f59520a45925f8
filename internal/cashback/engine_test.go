package cashback

import (
	"context"
	"strings"
	"testing"
	"time"

	"trade-cashback-go/internal/models"
	"trade-cashback-go/internal/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTest(t *testing.T) (store.TradingAccountStore, store.TradeStore, store.LedgerStore) {
	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.TradingAccount{}, &models.Trade{}, &models.CashbackLedgerEntry{})
	require.NoError(t, err)

	return store.NewTradingAccountStore(db), store.NewTradeStore(db), store.NewLedgerStore(db)
}

func createAccount(t *testing.T, accounts store.TradingAccountStore, userID string) *models.TradingAccount {
	account := &models.TradingAccount{
		UserID:            userID,
		Platform:          models.PlatformMT4,
		Server:            "Broker-Live",
		Login:             "100-" + userID,
		ExternalAccountID: "ext-" + userID,
		APISecret:         "secret",
		Status:            models.StatusAwaitingSetup,
	}
	require.NoError(t, accounts.Create(context.Background(), account))
	return account
}

func insertTrade(t *testing.T, trades store.TradeStore, accountID string, ticket int64, lots string, closeTime time.Time) {
	require.NoError(t, trades.Insert(context.Background(), &models.Trade{
		TradingAccountID: accountID,
		Ticket:           ticket,
		Symbol:           "EURUSD",
		Lots:             decimal.RequireFromString(lots),
		CloseTime:        closeTime,
	}))
}

func TestEngine_Recompute(t *testing.T) {
	accounts, trades, ledger := setupTest(t)
	account := createAccount(t, accounts, "user-1")
	engine := NewEngine(trades, ledger, 0.50, zap.NewNop())

	insertTrade(t, trades, account.ID, 1, "2.0", time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC))
	insertTrade(t, trades, account.ID, 2, "3.5", time.Date(2024, 3, 20, 10, 0, 0, 0, time.UTC))
	insertTrade(t, trades, account.ID, 3, "1.0", time.Date(2024, 4, 1, 10, 0, 0, 0, time.UTC))

	periods, err := engine.Recompute(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-03", "2024-04"}, periods)

	entries, err := ledger.ListByUser(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "2024-04", entries[0].Period)
	assert.True(t, entries[0].VolumeLots.Equal(decimal.RequireFromString("1.0")))
	assert.True(t, entries[0].CashbackAmount.Equal(decimal.RequireFromString("0.50")))

	assert.Equal(t, "2024-03", entries[1].Period)
	assert.True(t, entries[1].VolumeLots.Equal(decimal.RequireFromString("5.5")))
	assert.True(t, entries[1].CashbackAmount.Equal(decimal.RequireFromString("2.75")))
}

func TestEngine_RecomputeOrderIndependent(t *testing.T) {
	type fixture struct {
		ticket    int64
		lots      string
		closeTime time.Time
	}
	all := []fixture{
		{1, "2.0", time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)},
		{2, "3.5", time.Date(2024, 3, 20, 10, 0, 0, 0, time.UTC)},
		{3, "1.0", time.Date(2024, 4, 1, 10, 0, 0, 0, time.UTC)},
	}
	permutations := [][]int{
		{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0},
	}

	for _, perm := range permutations {
		accounts, trades, ledger := setupTest(t)
		account := createAccount(t, accounts, "user-1")
		engine := NewEngine(trades, ledger, 0.50, zap.NewNop())

		// Recompute after every admission, as the admission path does.
		for _, i := range perm {
			insertTrade(t, trades, account.ID, all[i].ticket, all[i].lots, all[i].closeTime)
			_, err := engine.Recompute(context.Background(), "user-1")
			require.NoError(t, err)
		}

		entries, err := ledger.ListByUser(context.Background(), "user-1")
		require.NoError(t, err)
		require.Len(t, entries, 2, "permutation %v", perm)
		assert.True(t, entries[0].VolumeLots.Equal(decimal.RequireFromString("1.0")), "permutation %v", perm)
		assert.True(t, entries[1].VolumeLots.Equal(decimal.RequireFromString("5.5")), "permutation %v", perm)
		assert.True(t, entries[1].CashbackAmount.Equal(decimal.RequireFromString("2.75")), "permutation %v", perm)
	}
}

func TestEngine_RecomputeSpansAccounts(t *testing.T) {
	accounts, trades, ledger := setupTest(t)
	first := createAccount(t, accounts, "user-1")

	second := &models.TradingAccount{
		UserID:            "user-1",
		Platform:          models.PlatformMT5,
		Server:            "Broker-Live2",
		Login:             "200",
		ExternalAccountID: "ext-200",
		APISecret:         "secret",
		Status:            models.StatusAwaitingSetup,
	}
	require.NoError(t, accounts.Create(context.Background(), second))

	engine := NewEngine(trades, ledger, 0.50, zap.NewNop())
	insertTrade(t, trades, first.ID, 1, "1.0", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC))
	insertTrade(t, trades, second.ID, 1, "2.0", time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC))

	_, err := engine.Recompute(context.Background(), "user-1")
	require.NoError(t, err)

	entries, err := ledger.ListByUser(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].VolumeLots.Equal(decimal.RequireFromString("3.0")))
}

func TestEngine_RecomputeEmptyHistory(t *testing.T) {
	_, trades, ledger := setupTest(t)
	engine := NewEngine(trades, ledger, 0.50, zap.NewNop())

	periods, err := engine.Recompute(context.Background(), "user-without-trades")
	require.NoError(t, err)
	assert.Empty(t, periods)
}

func TestEngine_PeriodIsUTCMonth(t *testing.T) {
	accounts, trades, ledger := setupTest(t)
	account := createAccount(t, accounts, "user-1")
	engine := NewEngine(trades, ledger, 0.50, zap.NewNop())

	// 23:30 UTC-5 on March 31 is already April in UTC.
	loc := time.FixedZone("UTC-5", -5*60*60)
	insertTrade(t, trades, account.ID, 1, "1.0", time.Date(2024, 3, 31, 23, 30, 0, 0, loc))

	periods, err := engine.Recompute(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-04"}, periods)
}
