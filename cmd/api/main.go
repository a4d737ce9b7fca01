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

	"github.com/joho/godotenv"
	"github.com/joshua-takyi/unibook/internal/config"
	"github.com/joshua-takyi/unibook/internal/connect"
	"github.com/joshua-takyi/unibook/internal/container"
	"github.com/joshua-takyi/unibook/internal/routes"
	"github.com/spf13/pflag"
)

func main() {
	envFile := pflag.String("env-file", ".env.local", "dotenv file loaded before reading the environment")
	pflag.Parse()

	// Missing env file is fine; the process environment still applies.
	_ = godotenv.Load(*envFile)

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := setupLogger(cfg)
	slog.SetDefault(logger)
	logger.Info("Starting UniBook API server",
		"environment", cfg.Environment,
		"store", cfg.StoreDriver,
		"auth", cfg.AuthMode,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conns, err := connect.Open(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to open connections", "error", err)
		os.Exit(1)
	}
	defer conns.Close(logger)

	appContainer, err := container.NewContainer(ctx, cfg, logger, conns)
	if err != nil {
		logger.Error("Failed to build container", "error", err)
		conns.Close(logger)
		os.Exit(1)
	}
	defer appContainer.Close()

	router := routes.SetupRoutes(appContainer)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("Server is shutting down...")
	case err := <-serverErr:
		logger.Error("Server failed to start", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	logger.Info("Server exited")
}

func setupLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}

	var handler slog.Handler
	if cfg.IsProduction() {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}
