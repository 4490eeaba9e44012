package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	notifysvc "github.com/erijustudio/storefront-backend/internal/notify"
	"github.com/erijustudio/storefront-backend/internal/notify/outbox"
	ordersvc "github.com/erijustudio/storefront-backend/internal/orders"
	"github.com/erijustudio/storefront-backend/pkg/config"
	"github.com/erijustudio/storefront-backend/pkg/db"
	"github.com/erijustudio/storefront-backend/pkg/logger"
	"github.com/erijustudio/storefront-backend/pkg/metrics"
	"github.com/erijustudio/storefront-backend/pkg/migrate"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "notify-sweeper"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "notify-sweeper",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if !cfg.Notify.OutboxEnabled {
		logg.Warn(context.Background(), "notification outbox disabled, nothing to sweep")
		os.Exit(0)
	}

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	dispatcher, err := notifysvc.NewDiscordDispatcher(cfg.Notify)
	if err != nil {
		logg.Error(context.Background(), "failed to create discord dispatcher", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	notifyMetrics := metrics.NewNotifyMetrics(registry)

	sweeper, err := outbox.NewSweeper(
		outbox.NewRepository(dbClient.DB()),
		ordersvc.NewRepository(dbClient.DB()),
		dispatcher,
		notifyMetrics,
		logg,
		cfg.Notify,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create sweeper", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":          cfg.App.Env,
		"metrics_port": cfg.Notify.MetricsPort,
	})

	metricsServer := &http.Server{
		Addr:              ":" + cfg.Notify.MetricsPort,
		Handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "metrics server stopped unexpectedly", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	logg.Info(ctx, "starting notification sweeper")

	if err := sweeper.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "notification sweeper stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "notification sweeper shutting down gracefully")
}
