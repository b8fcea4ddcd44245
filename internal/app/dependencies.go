// Package app wires configuration, storage and handlers into a runnable server.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/FACorreiaa/expense-importer/internal/domain/categorization"
	"github.com/FACorreiaa/expense-importer/internal/domain/expense"
	expensehandler "github.com/FACorreiaa/expense-importer/internal/domain/expense/handler"
	importhandler "github.com/FACorreiaa/expense-importer/internal/domain/import/handler"
	importservice "github.com/FACorreiaa/expense-importer/internal/domain/import/service"
	"github.com/FACorreiaa/expense-importer/pkg/cache"
	"github.com/FACorreiaa/expense-importer/pkg/config"
	"github.com/FACorreiaa/expense-importer/pkg/cron"
	"github.com/FACorreiaa/expense-importer/pkg/db"
	"github.com/FACorreiaa/expense-importer/pkg/metrics"
	"github.com/FACorreiaa/expense-importer/pkg/storage"
)

// Dependencies holds all application dependencies
type Dependencies struct {
	Config  *config.Config
	DB      *db.DB
	Cache   *cache.RedisCache
	Metrics *metrics.Metrics
	Logger  *slog.Logger

	Catalog        *categorization.Catalog
	FileStorage    storage.Storage
	Scheduler      *cron.Scheduler
	ImportService  *importservice.ImportService
	ExpenseService *expense.Service

	ImportHandler  *importhandler.ImportHandler
	ExpenseHandler *expensehandler.ExpenseHandler
}

// InitDependencies connects to Postgres (running migrations), Redis when
// configured, and builds every service and handler.
func InitDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if cfg.Observability.MetricsEnabled {
		deps.Metrics = metrics.New()
	}

	if err := deps.initDatabase(ctx); err != nil {
		return nil, fmt.Errorf("failed to init database: %w", err)
	}

	if err := deps.initServices(ctx); err != nil {
		deps.Cleanup()
		return nil, fmt.Errorf("failed to init services: %w", err)
	}

	deps.initHandlers()

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initDatabase initializes the database connection and runs migrations
func (d *Dependencies) initDatabase(ctx context.Context) error {
	database, err := db.New(ctx, db.Config{
		DSN:             d.Config.Database.DSN(),
		MaxConns:        25,
		MinConns:        5,
		MaxConnLifetime: 5 * time.Minute,
		MaxConnIdleTime: 10 * time.Minute,
	}, d.Logger)
	if err != nil {
		return err
	}
	d.DB = database

	if err := d.DB.RunMigrations(ctx); err != nil {
		d.DB.Close()
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	d.Logger.Info("database connected and migrations completed successfully")
	return nil
}

func (d *Dependencies) initServices(ctx context.Context) error {
	catalog, err := categorization.DefaultCatalog()
	if err != nil {
		return err
	}
	d.Catalog = catalog

	d.ImportService = importservice.NewImportService(nil, d.Logger).WithMetrics(d.Metrics)
	d.ExpenseService = expense.NewService(expense.NewRepository(d.DB.Pool), catalog, d.Logger)

	if addr := d.Config.Redis.Addr; addr != "" {
		c, err := cache.NewRedisCache(ctx, cache.Options{
			Addr:     addr,
			Password: d.Config.Redis.Password,
			DB:       d.Config.Redis.DB,
			TTL:      d.Config.Redis.TTL,
		}, d.Logger)
		if err != nil {
			// Listings still work uncached.
			d.Logger.Warn("redis unavailable, caching disabled", slog.Any("error", err))
		} else {
			d.Cache = c
			d.ExpenseService.WithCache(c)
		}
	}

	fileStorage, err := storage.New(&d.Config.Storage)
	if err != nil {
		return fmt.Errorf("failed to init file storage: %w", err)
	}
	d.FileStorage = fileStorage

	if fileStorage != nil && d.Config.Retention.UploadDays > 0 {
		retention := time.Duration(d.Config.Retention.UploadDays) * 24 * time.Hour
		d.Scheduler = cron.NewScheduler(fileStorage, retention, d.Logger).WithMetrics(d.Metrics)
	}

	d.Logger.Info("services initialized")
	return nil
}

func (d *Dependencies) initHandlers() {
	d.ImportHandler = importhandler.NewImportHandler(d.ImportService, d.ExpenseService, d.Logger).
		WithMaxUploadBytes(d.Config.Server.MaxUploadBytes)
	if d.FileStorage != nil {
		d.ImportHandler.WithStorage(d.FileStorage)
	}
	d.ExpenseHandler = expensehandler.NewExpenseHandler(d.ExpenseService, d.Catalog, d.Logger)

	d.Logger.Info("handlers initialized")
}

// Cleanup closes all resources
func (d *Dependencies) Cleanup() {
	if d.Cache != nil {
		if err := d.Cache.Close(); err != nil {
			d.Logger.Warn("failed to close redis", slog.Any("error", err))
		}
	}
	if d.DB != nil {
		d.DB.Close()
	}
	d.Logger.Info("cleanup completed")
}
