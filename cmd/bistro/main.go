package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/bistro-suite/bistro/internal/app"
	"github.com/bistro-suite/bistro/internal/auth"
	"github.com/bistro-suite/bistro/internal/billing"
	"github.com/bistro-suite/bistro/internal/finance/categories"
	"github.com/bistro-suite/bistro/internal/finance/dre"
	"github.com/bistro-suite/bistro/internal/finance/ledger"
	"github.com/bistro-suite/bistro/internal/observability"
	"github.com/bistro-suite/bistro/internal/platform/cache"
	"github.com/bistro-suite/bistro/internal/platform/db"
	"github.com/bistro-suite/bistro/internal/settings"
	"github.com/bistro-suite/bistro/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()

	tokenStore := auth.NewTokenStore(redisClient, cfg.TokenTTL)
	authService := auth.NewService(auth.NewRepository(pool), tokenStore)
	authHandler := auth.NewHandler(logger, authService)

	categoriesService := categories.NewService(categories.NewRepository(pool), logger)
	categoriesHandler := categories.NewHandler(logger, categoriesService)

	dreCache := dre.NewCache(redisClient, cfg.DRECacheTTL)

	ledgerService := ledger.NewService(ledger.NewRepository(pool), logger, dreCache)
	ledgerHandler := ledger.NewHandler(logger, ledgerService)

	dreService := dre.NewService(ledgerService, categoriesService, dreCache, logger)
	dreHandler := dre.NewHandler(logger, dreService)

	settingsService := settings.NewService(settings.NewRepository(pool))
	settingsHandler := settings.NewHandler(logger, settingsService)

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	billingService := billing.NewService(billing.NewRepository(pool), settingsService, jobClient, logger)
	billingHandler := billing.NewHandler(logger, billingService)

	jobHandler := jobs.NewHandler(asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr}), logger)

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		AuthHandler:       authHandler,
		CategoriesHandler: categoriesHandler,
		LedgerHandler:     ledgerHandler,
		DREHandler:        dreHandler,
		BillingHandler:    billingHandler,
		SettingsHandler:   settingsHandler,
		JobHandler:        jobHandler,
		Metrics:           metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
