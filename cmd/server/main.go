package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"trade-cashback-go/internal/accounts"
	"trade-cashback-go/internal/cashback"
	"trade-cashback-go/internal/config"
	"trade-cashback-go/internal/database"
	"trade-cashback-go/internal/handler"
	"trade-cashback-go/internal/logger"
	"trade-cashback-go/internal/notify"
	"trade-cashback-go/internal/router"
	"trade-cashback-go/internal/secrets"
	"trade-cashback-go/internal/store"
	"trade-cashback-go/internal/trades"

	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewLogger(cfg.Logger.Level, cfg.Logger.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	log.Info("Configuration loaded")

	// Connect to the database
	db, err := database.NewDatabase(cfg.Database.DSN)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	log.Info("Database connection successful and schema migrated")

	cipher, err := secrets.NewCipher(cfg.Security.EncryptionKey)
	if err != nil {
		log.Fatal("Failed to initialize credential cipher", zap.Error(err))
	}

	// Stores and services
	accountStore := store.NewTradingAccountStore(db)
	tradeStore := store.NewTradeStore(db)
	ledgerStore := store.NewLedgerStore(db)

	accountService := accounts.NewService(accountStore, cipher, log)
	engine := cashback.NewEngine(tradeStore, ledgerStore, cfg.Cashback.RatePerLot, log)
	notifier := notify.NewWebhookNotifier(cfg.Notify.WebhookURL, log)
	tradeService := trades.NewService(accountService, tradeStore, engine, accountService, notifier, log)

	r := router.NewRouter(&router.Config{
		TradeHandler:   handler.NewTradeHandler(accountService, tradeService, log),
		AccountHandler: handler.NewAccountHandler(accountService, ledgerStore, log),
		VPSAPIKey:      cfg.Security.VPSAPIKey,
		RateLimit:      cfg.Server.RateLimit,
		RateLimitBurst: cfg.Server.RateLimitBurst,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		log.Info("Starting server", zap.String("address", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Wait for shutdown signal
	sigchan := make(chan os.Signal, 1)
	signal.Notify(sigchan, syscall.SIGINT, syscall.SIGTERM)
	<-sigchan
	log.Info("Shutdown signal received, gracefully shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server shutdown failed", zap.Error(err))
	}
	log.Info("Server has been shut down")
}
