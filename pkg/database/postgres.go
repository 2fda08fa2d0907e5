// Package database owns the engine's metadata store: the PostgreSQL
// database holding the connection registry and cached schema snapshots.
// Target databases are never touched from here.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dbquery-io/dbquery-engine/pkg/config"
)

// DB wraps the metadata store's connection pool.
type DB struct {
	*pgxpool.Pool
}

// Connect opens the metadata store pool and verifies reachability.
func Connect(ctx context.Context, cfg *config.StoreConfig) (*DB, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL())
	if err != nil {
		return nil, fmt.Errorf("failed to parse store URL: %w", err)
	}

	poolConfig.MaxConns = cfg.MaxConnections
	if poolConfig.MaxConns == 0 {
		poolConfig.MaxConns = 10
	}
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create store pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping store: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// Close closes the store pool.
func (db *DB) Close() {
	db.Pool.Close()
}
