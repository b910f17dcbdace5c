package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/sundayezeilo/shortlink/internal/config"
	"github.com/sundayezeilo/shortlink/internal/db/migrations"
	db "github.com/sundayezeilo/shortlink/internal/db/sqlc"
	"github.com/sundayezeilo/shortlink/internal/metrics"
	"github.com/sundayezeilo/shortlink/internal/server"
	"github.com/sundayezeilo/shortlink/internal/shortener"
)

// App holds the application dependencies and configuration.
type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	Server  *server.Server
	Handler *shortener.Handler
	Metrics *metrics.Metrics

	// closeStore releases whatever the selected store driver opened.
	closeStore func() error
}

// LoadConfig reads .env (outside production) and the environment, and builds
// the logger described by the result.
func LoadConfig() (*config.Config, *slog.Logger, error) {
	if err := loadEnv(); err != nil {
		return nil, nil, fmt.Errorf("failed to load environment: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, setupLogger(cfg.App.LogLevel), nil
}

// New initializes and returns a new App instance with all dependencies wired up.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	logger.Info("starting application",
		"env", cfg.App.Environment,
		"version", cfg.Observability.ServiceVersion,
		"store", cfg.Store.Driver,
	)

	repo, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Store.Driver, err)
	}

	svc := shortener.NewService(repo, &shortener.ServiceConfig{
		IDLength:     cfg.Store.IDLength,
		ReadTimeout:  cfg.Store.ReadTimeout,
		WriteTimeout: cfg.Store.WriteTimeout,
	})
	handler := shortener.NewHandler(shortener.HandlerConfig{
		Service: svc,
		Logger:  logger,
	})

	var m *metrics.Metrics
	if cfg.Observability.MetricsEnabled {
		m = metrics.New(cfg.Observability.ServiceName)
	}

	srv := server.New(cfg, logger, handler, m)

	logger.Info("application initialized",
		"addr", cfg.Server.Addr(),
		"metrics", cfg.Observability.MetricsEnabled,
		"store_read_timeout", cfg.Store.ReadTimeout,
		"store_write_timeout", cfg.Store.WriteTimeout,
	)

	return &App{
		Config:     cfg,
		Logger:     logger,
		Server:     srv,
		Handler:    handler,
		Metrics:    m,
		closeStore: closeStore,
	}, nil
}

// Start starts the application server and blocks until ctx is cancelled.
func (a *App) Start(ctx context.Context) error {
	if err := a.Server.Start(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown releases the store.
func (a *App) Shutdown() error {
	a.Logger.Info("shutting down application")

	if a.closeStore != nil {
		if err := a.closeStore(); err != nil {
			return fmt.Errorf("failed to close store: %w", err)
		}
		a.Logger.Info("store closed")
	}

	return nil
}

// Migrate applies pending PostgreSQL migrations and returns their versions.
func Migrate(ctx context.Context, cfg *config.Config, logger *slog.Logger) ([]string, error) {
	if cfg.Store.Driver != config.DriverPostgres {
		return nil, fmt.Errorf("migrations only apply to the %s driver, configured driver is %s",
			config.DriverPostgres, cfg.Store.Driver)
	}

	pool, err := connectDatabase(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	applied, err := migrations.Up(ctx, pool, logger)
	if err != nil {
		return applied, fmt.Errorf("failed to migrate: %w", err)
	}
	return applied, nil
}

// openStore builds the Repository for the configured driver together with the
// function that releases it.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (shortener.Repository, func() error, error) {
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		pool, err := connectDatabase(ctx, cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		return shortener.NewRepository(db.New(pool)), func() error {
			pool.Close()
			return nil
		}, nil

	case config.DriverSQLite:
		logger.Info("opening sqlite database", "path", cfg.Store.SQLitePath)
		repo, err := shortener.OpenSQLite(ctx, cfg.Store.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		if err := repo.Ping(ctx); err != nil {
			_ = repo.Close()
			return nil, nil, fmt.Errorf("failed to ping sqlite database: %w", err)
		}
		return repo, repo.Close, nil

	case config.DriverMemory:
		logger.Warn("using in-memory store, links are lost on restart")
		return shortener.NewMemoryRepository(), nil, nil

	default:
		return nil, nil, errors.New("unknown store driver: " + cfg.Store.Driver)
	}
}

// loadEnv loads .env file only in non-production environments.
func loadEnv() error {
	env := os.Getenv("APP_ENV")
	if env == "development" || env == "test" {
		if err := godotenv.Load(); err != nil {
			log.Println("no .env file found.")
		}
	}
	return nil
}

// setupLogger creates a structured logger based on the log level.
func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: logLevel,
	}

	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}

// connectDatabase establishes a connection to the PostgreSQL database.
func connectDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.Database.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	poolConfig.MaxConns = cfg.Database.MaxConns
	poolConfig.MinConns = cfg.Database.MinConns

	logger.Info("connecting to database",
		"host", poolConfig.ConnConfig.Host,
		"port", poolConfig.ConnConfig.Port,
		"database", poolConfig.ConnConfig.Database,
	)

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("database connection established")

	return pool, nil
}
