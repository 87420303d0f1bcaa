package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/caudal-erp/caudal-erp/internal/accounting/accounts"
	"github.com/caudal-erp/caudal-erp/internal/accounting/journals"
	"github.com/caudal-erp/caudal-erp/internal/accounting/periods"
	"github.com/caudal-erp/caudal-erp/internal/app"
	"github.com/caudal-erp/caudal-erp/internal/integration"
	"github.com/caudal-erp/caudal-erp/internal/platform/db"
	"github.com/caudal-erp/caudal-erp/internal/shared"
	"github.com/caudal-erp/caudal-erp/jobs"
)

func main() {
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

	auditLogger := shared.NewAuditLogger(pool)

	accountsRepo := accounts.NewRepository(pool)
	periodsRepo := periods.NewRepository(pool)
	journalsRepo := journals.NewRepository(pool)
	journalsService := journals.NewService(journalsRepo, auditLogger)

	hooks := integration.NewHooks(journalsService, periodsRepo, accountsRepo, integration.AccountCodes{
		Cash:              cfg.LedgerCashAccountCode,
		ReteFuentePayable: cfg.LedgerRetePayableCode,
	}, logger)

	metrics := jobs.NewMetrics(nil)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypeExpensePaid, Handler: metrics.Instrument("expense_paid", hooks.HandleExpensePaidTask)},
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
