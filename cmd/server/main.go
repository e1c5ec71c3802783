package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/mcoot/wordduel/internal/api"
	"github.com/mcoot/wordduel/internal/factory"
)

func main() {
	// A missing .env file is fine; the environment may be set directly
	_ = godotenv.Load()

	cfg, err := loadConfig()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)
	cfg.Factory.Logger = logger

	// Create application factory
	app, err := factory.New(cfg.Factory)
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() { _ = app.Close() }()

	// Handle graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Player and match tables start empty; results survive restarts
	if err := app.DuelController.Reset(ctx); err != nil {
		logger.Error("failed to reset storage", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := app.Server.Listen(); err != nil {
		logger.Error("failed to listen", slog.String("error", err.Error()))
		os.Exit(1)
	}

	errCh := make(chan error, 2)
	go func() {
		errCh <- app.Server.Serve(ctx)
	}()
	logger.Info("game server started", slog.String("addr", app.Server.Addr().String()))

	var admin *api.Server
	if cfg.adminEnabled() {
		router := api.NewRouter(api.RouterConfig{
			Logger:     logger,
			Source:     app.DuelController,
			AdminToken: cfg.AdminToken,
		})
		admin = api.NewServer(router, cfg.Admin, logger)
		go func() {
			errCh <- admin.Start()
		}()
	}

	// Wait for shutdown or error
	exitCode := 0
	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", slog.String("error", err.Error()))
			exitCode = 1
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	if admin != nil {
		if err := admin.Shutdown(context.Background()); err != nil {
			logger.Error("admin shutdown error", slog.String("error", err.Error()))
			exitCode = 1
		}
	}
	if err := app.Server.Shutdown(context.Background()); err != nil {
		logger.Error("shutdown error", slog.String("error", err.Error()))
		exitCode = 1
	}

	logger.Info("server stopped")
	if exitCode != 0 {
		_ = app.Close()
		os.Exit(exitCode)
	}
}
