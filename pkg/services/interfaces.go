// Package services implements the engine's business logic: the
// connection registry, schema snapshots, and gatekept query execution.
package services

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dbquery-io/dbquery-engine/pkg/models"
)

// PoolProvider hands out cached pools for registered connections.
// Implemented by datasource.PoolCache.
type PoolProvider interface {
	Acquire(ctx context.Context, name, connURL string) (*pgxpool.Pool, error)
	Evict(name string)
}

// SQLExecutor runs a validated statement on a target pool.
// Implemented by postgres.Executor.
type SQLExecutor interface {
	Execute(ctx context.Context, pool *pgxpool.Pool, sqlText string) (*models.ResultSet, error)
}

// SchemaIntrospector reads a target database's structure.
// Implemented by postgres.Introspector.
type SchemaIntrospector interface {
	Introspect(ctx context.Context, pool *pgxpool.Pool, dbName string) (*models.SchemaSnapshot, error)
}
