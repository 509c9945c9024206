package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"moneta/internal/bankfeed"
	"moneta/internal/config"
	"moneta/internal/database"
	"moneta/internal/logger"
	"moneta/internal/services"
	"moneta/internal/vault"
)

// One-shot sync runner for cron. Syncs every active item and exits non-zero
// if any item failed.
func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Sync error: %v", err)
	}
}

func run() error {
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	credentialVault, err := vault.New(appConfig.CredentialKey)
	if err != nil {
		return fmt.Errorf("failed to initialize credential vault: %w", err)
	}

	client := bankfeed.NewHTTPClient(
		appConfig.BankfeedBaseURL,
		appConfig.BankfeedClientID,
		appConfig.BankfeedSecret,
		&http.Client{Timeout: appConfig.BankfeedTimeout},
	)

	syncService := services.NewSyncService(dbManager.DB(), client, credentialVault)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	results, err := syncService.SyncAll(ctx)
	if err != nil {
		return err
	}

	failed := 0
	for _, result := range results {
		if result.Error != "" {
			failed++
			logger.Get().Warnw("item sync failed", "item_id", result.ItemID, "error", result.Error)
			continue
		}
		logger.Get().Infow("item synced",
			"item_id", result.ItemID,
			"added", result.Added,
			"modified", result.Modified,
			"removed", result.Removed,
		)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d items failed", failed, len(results))
	}
	logger.Get().Infof("Synced %d item(s)", len(results))
	return nil
}
