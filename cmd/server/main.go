package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"example.com/subtracker/backend/internal/alerts"
	"example.com/subtracker/backend/internal/auth"
	"example.com/subtracker/backend/internal/config"
	"example.com/subtracker/backend/internal/database"
	"example.com/subtracker/backend/internal/notifications"
	"example.com/subtracker/backend/internal/repository"
	"example.com/subtracker/backend/internal/scheduler"
	"example.com/subtracker/backend/internal/server"
)

func main() {
	ensureEnvFile()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	ctx := context.Background()
	db, err := database.Open(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		db.Close()
	}()

	if err := database.Migrate(ctx, db); err != nil {
		logger.Error("failed to apply schema", slog.String("error", err.Error()))
		os.Exit(1)
	}

	store := repository.NewStore(db)
	if cfg.Database.SeedDefaults {
		seeded, err := store.SeedDefaults(ctx)
		if err != nil {
			logger.Error("failed to seed defaults", slog.String("error", err.Error()))
			os.Exit(1)
		}
		if seeded {
			logger.Info("default categories created")
		}
	}

	hub := notifications.NewHub()
	keyring := auth.NewKeyring(time.Now)

	e := server.New(cfg, logger, server.Deps{
		Store:     store,
		DB:        db,
		Hub:       hub,
		Keyring:   keyring,
		Dismissed: alerts.NewDismissedSet(),
		Now:       time.Now,
	})
	httpServer := server.NewHTTPServer(cfg.Server, e)

	var jobs *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		jobs = scheduler.New(scheduler.NewJobs(store.Subscriptions, keyring, hub, logger, time.Now), logger, cfg.Scheduler)
		jobs.Start()
	}

	go func() {
		logger.Info("http server started", slog.String("addr", httpServer.Addr))
		if err := e.StartServer(httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", slog.String("error", err.Error()))
		}
	}()

	shutdownSignal := make(chan os.Signal, 1)
	signal.Notify(shutdownSignal, syscall.SIGINT, syscall.SIGTERM)
	<-shutdownSignal

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if jobs != nil {
		select {
		case <-jobs.Stop().Done():
		case <-shutdownCtx.Done():
			logger.Warn("scheduler did not stop in time")
		}
	}

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.String("error", err.Error()))
	}
}

func ensureEnvFile() {
	if os.Getenv("ENV_FILE") != "" {
		return
	}

	if _, err := os.Stat(".env"); err == nil {
		_ = os.Setenv("ENV_FILE", ".env")
		return
	}

	if _, err := os.Stat("../.env"); err == nil {
		_ = os.Setenv("ENV_FILE", "../.env")
	}
}
