// Package infrastructure provides store and connection pool setup.
//
// The sqlite driver needs no pool; the postgres driver shares one pgxpool
// between the store and the River queue so maintenance jobs and application
// writes use the same connections.
package infrastructure

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
	"go.uber.org/zap"

	"tastebook.io/tastebook/internal/config"
	"tastebook.io/tastebook/internal/pkg/logger"
	"tastebook.io/tastebook/internal/repository"
)

// DatabaseClients contains the store and, on PostgreSQL, the shared pool
// and River client.
type DatabaseClients struct {
	// Store is the persistence backend selected by configuration.
	Store repository.Store

	// Pool is the shared PostgreSQL connection pool; nil on sqlite.
	Pool *pgxpool.Pool

	// RiverClient is the maintenance job queue client; nil on sqlite.
	RiverClient *river.Client[pgx.Tx]
}

// NewDatabaseClients opens the configured store backend.
func NewDatabaseClients(ctx context.Context, cfg config.DatabaseConfig) (*DatabaseClients, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		store, err := repository.NewSQLite(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		logger.Info("SQLite store opened", zap.String("path", cfg.Path))
		return &DatabaseClients{Store: store}, nil

	case config.DriverPostgres:
		return newPostgresClients(ctx, cfg)

	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func newPostgresClients(ctx context.Context, cfg config.DatabaseConfig) (*DatabaseClients, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}
	poolConfig.MaxConns = cfg.MaxConns
	poolConfig.MinConns = cfg.MinConns
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	poolConfig.HealthCheckPeriod = time.Minute

	// Set UTC timezone on each new connection.
	poolConfig.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		_, err := conn.Exec(ctx, "SET timezone = 'UTC'")
		return err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store, err := repository.NewPostgres(ctx, pool)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("open postgres store: %w", err)
	}

	logger.Info("PostgreSQL connection pool created",
		zap.Int32("max_conns", cfg.MaxConns),
		zap.Int32("min_conns", cfg.MinConns),
	)

	return &DatabaseClients{Store: store, Pool: pool}, nil
}

// MigrateRiver creates the River queue tables. PostgreSQL only; a no-op on
// sqlite deployments.
func (c *DatabaseClients) MigrateRiver(ctx context.Context) error {
	if c.Pool == nil {
		return nil
	}

	migrator, err := rivermigrate.New(riverpgxv5.New(c.Pool), nil)
	if err != nil {
		return fmt.Errorf("create river migrator: %w", err)
	}
	res, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil)
	if err != nil {
		return fmt.Errorf("river migrate up: %w", err)
	}
	if len(res.Versions) > 0 {
		logger.Info("River migration completed",
			zap.Int("versions_applied", len(res.Versions)),
		)
	}
	return nil
}

// InitRiverClient creates a River client with registered workers.
// PostgreSQL only; callers must skip on sqlite.
func (c *DatabaseClients) InitRiverClient(workers *river.Workers, cfg config.RiverConfig) error {
	if c.Pool == nil {
		return fmt.Errorf("river requires the postgres driver")
	}

	riverClient, err := river.NewClient(riverpgxv5.New(c.Pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: cfg.MaxWorkers},
		},
		Workers:                     workers,
		CompletedJobRetentionPeriod: cfg.CompletedJobRetentionPeriod,
	})
	if err != nil {
		return fmt.Errorf("create river client: %w", err)
	}
	c.RiverClient = riverClient
	logger.Info("River client initialized", zap.Int("max_workers", cfg.MaxWorkers))
	return nil
}

// Close closes the store and connection pool gracefully.
func (c *DatabaseClients) Close() {
	if c.Store != nil {
		if err := c.Store.Close(); err != nil {
			logger.Warn("close store", zap.Error(err))
		}
	}
	if c.Pool != nil {
		c.Pool.Close()
	}
}
