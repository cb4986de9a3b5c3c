package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"finsight/internal/config"
	applog "finsight/internal/log"
	"finsight/internal/services"
	"finsight/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.Setup(applog.Config{Level: slog.LevelInfo}).
		WithComponent(applog.ComponentRewards)

	logger.Info("Starting rewards-worker")

	// Load and validate configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}

	repo, err := storage.Open(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to open database", applog.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	rewards := services.NewRewardsService(repo, repo)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sweep := func() {
		runCtx, done := context.WithTimeout(ctx, 10*time.Minute)
		defer done()

		if err := rewards.SweepAll(runCtx, time.Now().UTC()); err != nil {
			logger.Error("Achievement sweep failed", applog.FieldError, err)
			return
		}
		logger.Info("Achievement sweep complete")
	}

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.RewardsSchedule, sweep); err != nil {
		logger.Error("Invalid rewards schedule", applog.FieldError, err, "schedule", cfg.RewardsSchedule)
		os.Exit(1)
	}

	// Catch up on startup, then run on the schedule.
	sweep()
	scheduler.Start()
	logger.Info("Rewards sweep scheduled", "schedule", cfg.RewardsSchedule)

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	logger.Info("Shutdown signal received", "signal", sig.String())

	stopCtx := scheduler.Stop()
	cancel()

	select {
	case <-stopCtx.Done():
		logger.Info("Rewards worker shutdown complete")
	case <-time.After(30 * time.Second):
		logger.Warn("Shutdown timeout reached")
	}
}
