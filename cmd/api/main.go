package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/erijustudio/storefront-backend/api/routes"
	"github.com/erijustudio/storefront-backend/internal/adminauth"
	cartsvc "github.com/erijustudio/storefront-backend/internal/cart"
	checkoutsvc "github.com/erijustudio/storefront-backend/internal/checkout"
	notifysvc "github.com/erijustudio/storefront-backend/internal/notify"
	"github.com/erijustudio/storefront-backend/internal/notify/outbox"
	ordersvc "github.com/erijustudio/storefront-backend/internal/orders"
	productsvc "github.com/erijustudio/storefront-backend/internal/products"
	"github.com/erijustudio/storefront-backend/pkg/auth/session"
	"github.com/erijustudio/storefront-backend/pkg/config"
	"github.com/erijustudio/storefront-backend/pkg/db"
	"github.com/erijustudio/storefront-backend/pkg/logger"
	"github.com/erijustudio/storefront-backend/pkg/migrate"
	"github.com/erijustudio/storefront-backend/pkg/redis"
	"github.com/erijustudio/storefront-backend/pkg/storage/publicurl"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

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

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessions, err := session.NewManager(redisClient, cfg.Admin.SessionTTL())
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	resolver, err := publicurl.NewResolver(cfg.Storage)
	if err != nil {
		logg.Error(context.Background(), "failed to create image resolver", err)
		os.Exit(1)
	}

	productRepo := productsvc.NewRepository(dbClient.DB())
	productService, err := productsvc.NewService(productRepo, resolver)
	if err != nil {
		logg.Error(context.Background(), "failed to create product service", err)
		os.Exit(1)
	}

	mirror, err := cartsvc.NewMirror(redisClient, cfg.Redis.CartTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart mirror", err)
		os.Exit(1)
	}
	cartService, err := cartsvc.NewService(cartsvc.NewRepository(dbClient.DB()), productRepo, mirror, resolver, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	orderRepo := ordersvc.NewRepository(dbClient.DB())
	orderService, err := ordersvc.NewService(orderRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create order service", err)
		os.Exit(1)
	}

	var dispatcher notifysvc.Dispatcher
	if cfg.Notify.WebhookURL != "" {
		discord, err := notifysvc.NewDiscordDispatcher(cfg.Notify)
		if err != nil {
			logg.Error(context.Background(), "failed to create discord dispatcher", err)
			os.Exit(1)
		}
		dispatcher = discord
	} else {
		logg.Warn(context.Background(), "discord webhook not configured, order notifications disabled")
	}

	var outboxRepo outbox.Repository
	if cfg.Notify.OutboxEnabled {
		outboxRepo = outbox.NewRepository(dbClient.DB())
	}

	checkoutService, err := checkoutsvc.NewService(
		cartService,
		orderRepo,
		outboxRepo,
		dispatcher,
		dbClient,
		logg,
		cfg.Shipping.PickupCarrierLabel,
		cfg.Notify.OutboxEnabled,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	adminAuthService, err := adminauth.NewService(cfg.JWT, cfg.Admin, sessions)
	if err != nil {
		logg.Error(context.Background(), "failed to create admin auth service", err)
		os.Exit(1)
	}

	router := routes.NewRouter(routes.Deps{
		Config:     cfg,
		Logger:     logg,
		DB:         dbClient,
		Redis:      redisClient,
		Sessions:   sessions,
		Products:   productService,
		Cart:       cartService,
		Checkout:   checkoutService,
		Orders:     orderService,
		AdminAuth:  adminAuthService,
		Dispatcher: dispatcher,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "error shutting down api server", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "api server shutting down gracefully")
}
