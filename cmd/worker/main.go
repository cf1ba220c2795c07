package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"github.com/telcodash/telcodash/internal/app"
	jobmetrics "github.com/telcodash/telcodash/internal/jobs"
	"github.com/telcodash/telcodash/internal/platform/cache"
	"github.com/telcodash/telcodash/internal/platform/db"
	"github.com/telcodash/telcodash/internal/rollup"
	"github.com/telcodash/telcodash/internal/territory"
	"github.com/telcodash/telcodash/internal/warehouse"
	"github.com/telcodash/telcodash/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
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

	catalog, err := territory.Bundled()
	if err != nil {
		logger.Error("load territory catalog", slog.Any("error", err))
		os.Exit(1)
	}

	reader := warehouse.NewReader(pool)
	engine := rollup.NewEngine(catalog, reader)
	reportCache := rollup.NewCache(redisClient, cfg.CacheTTL)
	service := rollup.NewService(engine, reportCache)

	metrics := jobmetrics.NewMetrics(nil)
	warmupJob := jobs.NewReportWarmupJob(service, logger, metrics)
	invalidateJob := jobs.NewCacheInvalidateJob(service, logger, metrics)

	warmupTask, err := jobs.NewReportWarmupTask(nil, "")
	if err != nil {
		logger.Error("build warmup task", slog.Any("error", err))
		os.Exit(1)
	}
	invalidateTask, err := jobs.NewCacheInvalidateTask("nightly warehouse load")
	if err != nil {
		logger.Error("build invalidate task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskReportWarmup, Handler: warmupJob.Handle},
			{Type: jobs.TaskCacheInvalidate, Handler: invalidateJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			// The ETL lands before 04:00 UTC. Invalidate first, warm after.
			{Spec: "0 4 * * *", Task: invalidateTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "15 4 * * *", Task: warmupTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
