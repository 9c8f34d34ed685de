// Package main is the entry point for the flatpool expense-sharing server.
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

	"github.com/flatpool/flatpool/internal/api"
	"github.com/flatpool/flatpool/internal/config"
	"github.com/flatpool/flatpool/internal/database"
	"github.com/flatpool/flatpool/internal/forecast"
	"github.com/flatpool/flatpool/internal/household"
	"github.com/flatpool/flatpool/internal/logger"
	"github.com/flatpool/flatpool/internal/notify"
	"github.com/flatpool/flatpool/internal/settlement"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "version" {
		fmt.Printf("flatpool %s (commit: %s, built: %s)\n", version, commit, date)
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to load config")
	}

	logger.SetLevel(cfg.LogLevel)
	logger.InitHashSalt(cfg.LogHashSalt)

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()

	if err := database.RunMigrations(ctx, pool); err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	logger.Log.Info().Msg("Database initialized successfully")

	var remote forecast.Forecaster
	if cfg.ForecastServiceURL != "" {
		remote = forecast.NewHTTPClient(cfg.ForecastServiceURL, cfg.ForecastTimeout)
	}
	forecaster := forecast.NewCached(forecast.NewService(remote), 15*time.Minute)

	var notifier notify.Notifier = notify.NewLogNotifier()
	if cfg.TelegramBotToken != "" && cfg.TelegramChatID != "" {
		telegramNotifier, err := notify.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID)
		if err != nil {
			logger.Log.Fatal().Err(err).Msg("Failed to create telegram notifier")
		}
		notifier = telegramNotifier
		logger.Log.Info().Msg("Telegram notifications enabled")
	}

	directory := household.NewDirectory(pool)
	engine := settlement.NewEngine(pool, directory, notifier, forecaster)
	handler := api.NewHandler(engine, directory)

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler.Router(cfg.CORSAllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		logger.Log.Info().Msg("Shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Log.Error().Err(err).Msg("Graceful shutdown failed")
		}
		cancel()
	}()

	logger.Log.Info().Str("addr", server.Addr).Msg("Starting HTTP server")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Log.Fatal().Err(err).Msg("Server failed")
	}
	<-ctx.Done()
}
