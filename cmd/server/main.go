package main // Entry point package

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/shift-payroll/internal/config"
	"github.com/iliyamo/shift-payroll/internal/database"
	"github.com/iliyamo/shift-payroll/internal/handler"
	"github.com/iliyamo/shift-payroll/internal/queue"
	"github.com/iliyamo/shift-payroll/internal/repository"
	"github.com/iliyamo/shift-payroll/internal/router"
	"github.com/iliyamo/shift-payroll/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	if cfg.IsProd() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return err
	}
	defer db.Close()
	if cfg.DBMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			return err
		}
		logger.Info("schema applied")
	}

	rdb := config.NewRedisClient(cfg.Redis)
	if rdb == nil {
		logger.Warn("redis unavailable; rate limiting and caching disabled", zap.String("addr", cfg.Redis.Addr))
	} else {
		defer rdb.Close()
	}

	var events service.EventPublisher = queue.Discard{}
	if cfg.EventsEnabled {
		events = queue.NewPublisher(cfg.AMQPURL, logger)
		consumer := queue.NewAuditConsumer(cfg.AMQPURL, logger)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("audit consumer stopped", zap.Error(err))
			}
		}()
	}

	users := repository.NewUserRepo(db)
	categories := repository.NewCategoryRepo(db)
	assignments := repository.NewAssignmentRepo(db)
	shifts := repository.NewShiftRepo(db)
	payrolls := repository.NewPayrollRepo(db)

	ledger := service.NewLedger(shifts, users, assignments, events, cfg.Timezone, logger)
	payroll := service.NewPayroll(shifts, payrolls, users, events, cfg.Timezone, logger)
	catalog := service.NewCatalog(categories, assignments, users, ledger, logger)
	accounts := service.NewAccounts(users, ledger, cfg.BcryptCost, logger)

	if err := accounts.EnsureAdmin(ctx, cfg.AdminUser, cfg.AdminPass); err != nil {
		return err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	router.RegisterRoutes(e, router.Deps{
		Cfg:      cfg,
		DB:       db,
		Redis:    rdb,
		Log:      logger,
		Auth:     handler.NewAuthHandler(cfg, accounts, logger),
		Employee: handler.NewEmployeeHandler(ledger, catalog, cfg.Timezone, logger),
		Admin:    handler.NewAdminHandler(ledger, payroll, catalog, accounts, cfg.Timezone, logger),
	})

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env), zap.String("timezone", cfg.Timezone.String()))
		errCh <- e.Start(addr)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Info("shutting down")
		return e.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
