package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/caudal-erp/caudal-erp/internal/accounting/accounts"
	"github.com/caudal-erp/caudal-erp/internal/accounting/journals"
	"github.com/caudal-erp/caudal-erp/internal/accounting/periods"
	"github.com/caudal-erp/caudal-erp/internal/app"
	"github.com/caudal-erp/caudal-erp/internal/expenses"
	"github.com/caudal-erp/caudal-erp/internal/identity"
	"github.com/caudal-erp/caudal-erp/internal/observability"
	"github.com/caudal-erp/caudal-erp/internal/platform/cache"
	"github.com/caudal-erp/caudal-erp/internal/platform/db"
	"github.com/caudal-erp/caudal-erp/internal/pos"
	"github.com/caudal-erp/caudal-erp/internal/purchasing"
	"github.com/caudal-erp/caudal-erp/internal/shared"
	"github.com/caudal-erp/caudal-erp/internal/withholding"
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
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable", slog.Any("error", err))
	} else {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	validate := validator.New()
	auditLogger := shared.NewAuditLogger(pool)
	identityRepo := identity.NewRepository(pool)

	accountsRepo := accounts.NewRepository(pool)
	accountsService := accounts.NewService(accountsRepo)
	accountsHandler := accounts.NewHandler(logger, accountsService, validate)

	periodsRepo := periods.NewRepository(pool)
	periodsService := periods.NewService(periodsRepo, auditLogger)
	periodsHandler := periods.NewHandler(logger, periodsService, validate)

	journalsRepo := journals.NewRepository(pool)
	journalsService := journals.NewService(journalsRepo, auditLogger)
	journalsHandler := journals.NewHandler(logger, journalsService, validate)

	ledgerNotifier := jobs.NewLedgerNotifier(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := ledgerNotifier.Close(); err != nil {
			logger.Warn("notifier close", slog.Any("error", err))
		}
	}()

	expensesRepo := expenses.NewRepository(pool)
	expensesService := expenses.NewService(expensesRepo, ledgerNotifier, logger)
	expensesHandler := expenses.NewHandler(logger, expensesService, validate)

	posRepo := pos.NewRepository(pool)
	posService := pos.NewService(posRepo, identityRepo, auditLogger)
	posHandler := pos.NewHandler(logger, posService, validate)

	purchasingRepo := purchasing.NewRepository(pool)
	withholdingRepo := withholding.NewRepository(pool)
	withholdingService := withholding.NewService(withholdingRepo, purchasingRepo, logger)
	if redisClient != nil {
		withholdingService.WithCache(cache.NewCache(redisClient, cfg.CacheTTL))
	}
	withholdingHandler := withholding.NewHandler(logger, withholdingService, validate)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		AccountsHandler:    accountsHandler,
		PeriodsHandler:     periodsHandler,
		JournalsHandler:    journalsHandler,
		ExpensesHandler:    expensesHandler,
		POSHandler:         posHandler,
		WithholdingHandler: withholdingHandler,
		JobHandler:         jobHandler,
		Metrics:            metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server exit", slog.Any("error", err))
		os.Exit(1)
	}
}
