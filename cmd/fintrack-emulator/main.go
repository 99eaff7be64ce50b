package main

import (
	"context"
	"net"
	"os"
	"strings"
	"time"

	"fintrack/internal/cli"
	"fintrack/internal/core"
	"fintrack/internal/emulator"
	"fintrack/internal/log"
)

const (
	shutdownTimeout = 30 * time.Second
	premiumPeriod   = 365 * 24 * time.Hour
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		log.Default().Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	logger := cli.SetupLogger(cfg, log.ComponentEmulator, os.Stdout)
	logger.Info("Starting fintrack-emulator")

	repo, err := cli.InitSQLite(logger, cfg.EmulatorDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", log.FieldError, err, log.FieldPath, cfg.EmulatorDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	if strings.EqualFold(cfg.EmulatorTier, string(core.TierPremium)) {
		if err := repo.SetPlan(context.Background(), core.TierPremium, core.SubscriptionActive, premiumPeriod); err != nil {
			logger.Error("Failed to set premium plan", log.FieldError, err)
			os.Exit(1)
		}
		logger.Info("Premium plan active", "days", int(premiumPeriod.Hours()/24))
	}

	srv := emulator.New(repo,
		emulator.WithToken(cfg.EmulatorToken),
		emulator.WithLogger(logger),
		emulator.WithLocation(cfg.Location()),
		emulator.WithRateLimit(cfg.EmulatorRateLimit),
	)

	ctx, done := cli.GracefulShutdown(logger, shutdownTimeout, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
	})

	addr := net.JoinHostPort("", cfg.EmulatorPort)
	if err := srv.Start(addr); err != nil {
		logger.Error("Server error", log.FieldError, err, "addr", addr)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
