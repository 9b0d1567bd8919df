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

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/venue-erp/venue-erp/internal/app"
	"github.com/venue-erp/venue-erp/internal/bulkpay"
	"github.com/venue-erp/venue-erp/internal/halls"
	"github.com/venue-erp/venue-erp/internal/ledger/accounts"
	"github.com/venue-erp/venue-erp/internal/ledger/balances"
	"github.com/venue-erp/venue-erp/internal/ledger/bookings"
	"github.com/venue-erp/venue-erp/internal/ledger/currency"
	"github.com/venue-erp/venue-erp/internal/platform/cache"
	"github.com/venue-erp/venue-erp/internal/platform/db"
	"github.com/venue-erp/venue-erp/internal/pos"
	"github.com/venue-erp/venue-erp/internal/shared"
	"github.com/venue-erp/venue-erp/jobs"
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

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

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

	auditLogger := shared.NewAuditLogger(dbpool)
	locker := shared.NewRedisLocker(redisClient)

	rateRepo := currency.NewRepository(dbpool)
	converter := currency.NewConverter(rateRepo, cfg.ReportingCurrency)
	currencyHandler := currency.NewHandler(logger, rateRepo)

	accountsRepo := accounts.NewRepository(dbpool)
	accountsService := accounts.NewService(accountsRepo)
	accountsHandler := accounts.NewHandler(logger, accountsService)

	bookingsRepo := bookings.NewRepository(dbpool)
	bookingsService := bookings.NewService(bookingsRepo, auditLogger)
	bookingsHandler := bookings.NewHandler(logger, bookingsService)

	balancesRepo := balances.NewRepository(dbpool)
	balancesService := balances.NewService(balancesRepo, converter)
	balancesHandler := balances.NewHandler(logger, balancesService)

	posRepo := pos.NewRepository(dbpool)
	posService := pos.NewService(posRepo, auditLogger, rateRepo, cfg.ReportingCurrency)
	posHandler := pos.NewHandler(logger, posService)

	hallsRepo := halls.NewRepository(dbpool)
	hallsService := halls.NewService(hallsRepo, auditLogger)
	hallsHandler := halls.NewHandler(logger, hallsService)

	bulkRepo := bulkpay.NewRepository(dbpool)
	bulkService := bulkpay.NewService(bulkRepo, auditLogger, locker)
	bulkHandler := bulkpay.NewHandler(logger, bulkService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobsHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		AccountsHandler: accountsHandler,
		BookingsHandler: bookingsHandler,
		BalancesHandler: balancesHandler,
		CurrencyHandler: currencyHandler,
		POSHandler:      posHandler,
		HallsHandler:    hallsHandler,
		BulkPayHandler:  bulkHandler,
		JobsHandler:     jobsHandler,
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
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server", slog.Any("error", err))
		os.Exit(1)
	}
}
