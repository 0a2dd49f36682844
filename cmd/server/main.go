package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/mmynk/settleup/internal/auth"
	"github.com/mmynk/settleup/internal/config"
	"github.com/mmynk/settleup/internal/guest"
	"github.com/mmynk/settleup/internal/server"
	"github.com/mmynk/settleup/internal/storage"
	"github.com/mmynk/settleup/internal/storage/postgres"
	"github.com/mmynk/settleup/internal/storage/sqlite"
	"github.com/mmynk/settleup/pkg/logging"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logging.SetupWithLevel(logging.ParseLevel(cfg.LogLevel))

	if err := run(cfg); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	guests := guest.NewRegistry(cfg.GuestTTL, cfg.GuestMaxSessions)
	sweeper, err := guest.NewSweeper(guests, cfg.GuestSweepSchedule)
	if err != nil {
		return err
	}
	sweeper.Start()
	defer sweeper.Stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	srv := server.New(cfg, server.Deps{
		Store:      store,
		Guests:     guests,
		JWTManager: auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL),
		Registry:   registry,
		Logger:     slog.Default(),
	})

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down", "timeout", cfg.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

func openStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	switch cfg.DBDriver {
	case config.DriverPostgres:
		store, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize postgres storage: %w", err)
		}
		slog.Info("Storage initialized", "driver", cfg.DBDriver)
		return store, nil
	default:
		store, err := sqlite.New(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize sqlite storage: %w", err)
		}
		slog.Info("Storage initialized", "driver", cfg.DBDriver, "database", cfg.DBPath)
		return store, nil
	}
}
