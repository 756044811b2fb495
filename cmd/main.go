package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"paygate/internal/bootstrap"
	"paygate/internal/config"
	cronpkg "paygate/internal/cron"
	"paygate/internal/middleware"
	"paygate/internal/payment"
	"paygate/internal/pkg/alert"
	"paygate/internal/repository"
	"paygate/internal/router"
	"paygate/internal/vault"
)

func main() {
	// --- Logger ---
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// --- Config ---
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	// --- Database ---
	db, err := config.NewDatabase(&cfg.Database, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := bootstrap.Migrate(db); err != nil {
		logger.Fatal("Failed to migrate database schema", zap.Error(err))
	}

	// --- Credential vault ---
	credVault, err := vault.NewAES(cfg.Vault.Key)
	if err != nil {
		logger.Fatal("Failed to initialize credential vault", zap.Error(err))
	}

	// --- Payment router + adapters ---
	integrations := repository.NewIntegrationRepository(db)
	payments := payment.NewService(integrations, logger,
		payment.NewCardAdapter(credVault),
		payment.NewWalletAdapter(credVault),
		payment.NewTerminalPOSAdapter(credVault),
	)

	// --- Ops alerting ---
	notifier := alert.New(cfg.Alert.BotToken, cfg.Alert.ChatID, logger)

	// --- Webhook deduper (Redis with in-memory fallback) ---
	deduper, dedupeErr := middleware.NewEventDeduper(
		cfg.Redis.Addr,
		cfg.Redis.Pass,
		cfg.Redis.DB,
		10*time.Minute,
	)
	if dedupeErr != nil {
		logger.Warn("Redis unavailable for webhook dedup, using in-memory fallback", zap.Error(dedupeErr))
	}

	// --- Echo ---
	e := echo.New()
	e.HideBanner = true

	router.Setup(e, db, payments, credVault, notifier, deduper, logger, cfg.API.Key)

	// --- Checkout reconciler ---
	checkouts := repository.NewCheckoutRepository(db)
	scheduler := cronpkg.New(cfg, payments, checkouts, notifier, logger)
	scheduler.Start()

	// --- Serve ---
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		if err := e.Start(addr); err != nil {
			logger.Info("Server stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...")
	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
	}
}
