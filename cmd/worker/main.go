package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/atheneum-portal/atheneum-portal/internal/alerts"
	"github.com/atheneum-portal/atheneum-portal/internal/app"
	"github.com/atheneum-portal/atheneum-portal/internal/auth"
	jobmetrics "github.com/atheneum-portal/atheneum-portal/internal/jobs"
	"github.com/atheneum-portal/atheneum-portal/internal/platform/db"
	"github.com/atheneum-portal/atheneum-portal/jobs"
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
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	metrics := jobmetrics.NewMetrics(nil)
	alertsRepo := alerts.NewRepository(pool)
	alertsService := alerts.NewService(alertsRepo, nil, logger)
	auditLog := auth.NewAuditLog(pool)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypeRecordAlert, Handler: jobs.NewRecordAlertHandler(alertsService, metrics, logger)},
			{Type: jobs.TaskTypeAlertDigest, Handler: jobs.NewAlertDigestHandler(alertsRepo, metrics, logger)},
			{Type: jobs.TaskTypeAuditSweep, Handler: jobs.NewAuditSweepHandler(auditLog, metrics, logger)},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "0 7 * * *", Task: jobs.NewAlertDigestTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "30 3 * * *", Task: jobs.NewAuditSweepTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
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
