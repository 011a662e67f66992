package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/meridian-erp/meridian-erp/internal/app"
	"github.com/meridian-erp/meridian-erp/internal/ledger"
	"github.com/meridian-erp/meridian-erp/internal/ledger/sources"
	"github.com/meridian-erp/meridian-erp/internal/observability/jobmetrics"
	"github.com/meridian-erp/meridian-erp/internal/platform/cache"
	"github.com/meridian-erp/meridian-erp/internal/platform/db"
	"github.com/meridian-erp/meridian-erp/internal/render"
	"github.com/meridian-erp/meridian-erp/internal/ticket"
	"github.com/meridian-erp/meridian-erp/jobs"
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

	baseline, err := cfg.Baseline()
	if err != nil {
		logger.Error("parse baseline date", slog.Any("error", err))
		os.Exit(1)
	}
	carry, err := cfg.CarryForward()
	if err != nil {
		logger.Error("parse carry-forward", slog.Any("error", err))
		os.Exit(1)
	}

	srcs := sources.All(pool)
	resolver := &ledger.Resolver{
		Classifier: ledger.Classifier{
			RetainedEarningsAcct: cfg.RetainedEarningsAcct,
			PnLThreshold:         cfg.PnLThreshold,
		},
		Baseline:     baseline,
		CarryForward: carry,
	}
	assembler := ledger.NewAssembler(ledger.NewRepository(pool), srcs, resolver, logger)

	pdfClient := render.NewGotenbergClient(cfg.GotenbergURL)
	renderer, err := render.NewLedger(pdfClient)
	if err != nil {
		logger.Error("init renderer", slog.Any("error", err))
		os.Exit(1)
	}

	store := ticket.NewStore(redisClient, cfg.TicketTTL)
	job := ticket.NewJob(ticket.JobConfig{
		Store:         store,
		Builder:       assembler,
		Renderer:      renderer,
		OutputDir:     cfg.OutputDir,
		RetentionDays: cfg.RetentionDays,
		Metrics:       jobmetrics.NewMetrics(nil),
		Logger:        logger,
	})

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskLedgerReport, Handler: job.Handle},
			{Type: jobs.TaskArtifactSweep, Handler: job.HandleSweep},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "0 3 * * *", Task: jobs.NewArtifactSweepTask(), Options: []asynq.Option{asynq.MaxRetry(1)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("worker started", slog.String("redis", cfg.RedisAddr))
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("worker stopped")
}
