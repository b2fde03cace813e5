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

	"github.com/shopspring/decimal"

	_ "github.com/wealthpath/pricewatch/docs"
	"github.com/wealthpath/pricewatch/internal/app"
	"github.com/wealthpath/pricewatch/internal/config"
	"github.com/wealthpath/pricewatch/internal/handler"
	"github.com/wealthpath/pricewatch/internal/logger"
	"github.com/wealthpath/pricewatch/internal/scheduler"
)

// @title PriceWatch API
// @version 1.0
// @description Track product prices on Amazon, Flipkart and other shops and get alerted on drops.

// @contact.name API Support
// @contact.email support@wealthpath.io

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	cfg := config.Load()

	log := logger.New(os.Stdout, cfg.Env)
	slog.SetDefault(log)

	// prices go over the wire as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true

	ctx := context.Background()
	application, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Error("Failed to start", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer application.Close()

	var checkScheduler *scheduler.Scheduler
	if cfg.PriceCheck.Enabled {
		checkScheduler = scheduler.New(scheduler.Config{
			Schedule:   cfg.PriceCheck.Schedule,
			Timeout:    cfg.PriceCheck.Timeout,
			Enabled:    cfg.PriceCheck.Enabled,
			RunOnStart: cfg.PriceCheck.RunOnStart,
		}, application.PriceCheck, application.Locker, log)
		if err := checkScheduler.Start(); err != nil {
			log.Error("Failed to start price check scheduler", slog.String("error", err.Error()))
			checkScheduler = nil
		}
	}

	var nextRun handler.NextRunFunc
	if checkScheduler != nil {
		nextRun = checkScheduler.GetNextRunTime
	}

	watchlistHandler := handler.NewWatchlistHandler(
		application.Watchlist,
		application.Alerts,
		application.PriceCheck,
		application.Metrics,
		nextRun,
	)

	server := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: handler.NewRouter(handler.RouterConfig{
			AllowedOrigins: cfg.AllowedOrigins,
			JWTSecret:      cfg.JWTSecret,
		}, watchlistHandler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Handle graceful shutdown
	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info("Shutting down server...")

		// Stop scheduler first so no new batch starts
		if checkScheduler != nil {
			stopped := checkScheduler.Stop()
			select {
			case <-stopped.Done():
				log.Info("Scheduler stopped")
			case <-time.After(30 * time.Second):
				log.Warn("Price check still running, not waiting any longer")
			}
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("Server shutdown error", slog.String("error", err.Error()))
		}
	}()

	log.Info("Server starting", slog.String("port", cfg.Port), slog.String("env", cfg.Env))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("Server failed", slog.String("error", err.Error()))
		return
	}
	<-shutdownDone
}
