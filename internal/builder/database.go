package builder

import (
	"context"
	"fmt"

	"github.com/futig/docchat/internal/config"
	"github.com/futig/docchat/internal/repository"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// stores bundles the repositories selected by REPOSITORY_DRIVER
type stores struct {
	documents repository.DocumentRepository
	chunks    repository.ChunkRepository
	close     func()
}

func setupStores(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*stores, error) {
	switch cfg.RepositoryDriver {
	case config.RepositoryPostgres:
		db, err := setupDatabase(ctx, cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("setup database: %w", err)
		}

		logger.Info("Running database migrations")
		if err := repository.RunMigrations(cfg.DatabaseURL); err != nil {
			db.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		logger.Info("Database migrations completed successfully")

		return &stores{
			documents: repository.NewDocumentPostgres(db),
			chunks:    repository.NewChunkPostgres(db),
			close:     db.Close,
		}, nil

	case config.RepositorySQLite:
		store, err := repository.NewSQLiteStore(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		logger.Info("sqlite store opened", zap.String("path", cfg.SQLitePath))

		return &stores{
			documents: store,
			chunks:    store,
			close: func() {
				if err := store.Close(); err != nil {
					logger.Warn("failed to close sqlite store", zap.Error(err))
				}
			},
		}, nil

	case config.RepositoryMemory:
		logger.Warn("using in-memory store, data is lost on restart")
		store := repository.NewMemoryStore()
		return &stores{documents: store, chunks: store, close: func() {}}, nil

	default:
		return nil, fmt.Errorf("unknown repository driver %q", cfg.RepositoryDriver)
	}
}

// setupDatabase creates a new database connection pool
func setupDatabase(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	// Configure pool settings from config
	poolConfig.MaxConns = int32(cfg.DBMaxConns)
	poolConfig.MinConns = int32(cfg.DBMinConns)
	poolConfig.MaxConnLifetime = cfg.DBMaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.DBMaxConnIdleTime
	poolConfig.HealthCheckPeriod = cfg.DBHealthCheckPeriod

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	// Test the connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger.Info("database connection pool established",
		zap.Int32("max_conns", poolConfig.MaxConns),
		zap.Int32("min_conns", poolConfig.MinConns),
		zap.Duration("max_conn_lifetime", poolConfig.MaxConnLifetime),
		zap.Duration("health_check_period", poolConfig.HealthCheckPeriod),
	)

	return pool, nil
}
