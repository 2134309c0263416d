package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/bistro-suite/bistro/internal/app"
	"github.com/bistro-suite/bistro/internal/billing"
	"github.com/bistro-suite/bistro/internal/finance/categories"
	"github.com/bistro-suite/bistro/internal/finance/dre"
	"github.com/bistro-suite/bistro/internal/finance/ledger"
	"github.com/bistro-suite/bistro/internal/observability"
	"github.com/bistro-suite/bistro/internal/platform/cache"
	"github.com/bistro-suite/bistro/internal/platform/db"
	"github.com/bistro-suite/bistro/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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

	dreCache := dre.NewCache(redisClient, cfg.DRECacheTTL)
	categoriesService := categories.NewService(categories.NewRepository(pool), logger)
	ledgerService := ledger.NewService(ledger.NewRepository(pool), logger, dreCache)
	billingRepo := billing.NewRepository(pool)

	importer := jobs.NewImporter(billingRepo, categoriesService, ledgerService, logger, metrics)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Importer:  importer,
		Cron: []jobs.CronRegistration{
			{
				Spec:    cfg.SettlementSweepCron,
				Task:    jobs.NewSettlementSweepTask(),
				Options: []asynq.Option{asynq.MaxRetry(3)},
			},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
