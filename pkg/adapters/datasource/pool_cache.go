// Package datasource manages pooled connections to registered target
// databases. One pgx pool exists per registered connection name; pools
// are created lazily on first use and reused until evicted.
package datasource

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/dbquery-io/dbquery-engine/pkg/apperrors"
	"github.com/dbquery-io/dbquery-engine/pkg/config"
	"github.com/dbquery-io/dbquery-engine/pkg/logging"
	"github.com/dbquery-io/dbquery-engine/pkg/retry"
)

// dialFunc creates a pool from a parsed config. Overridable in tests.
type dialFunc func(ctx context.Context, poolCfg *pgxpool.Config) (*pgxpool.Pool, error)

// pingFunc verifies a cached pool is still usable. Overridable in tests.
type pingFunc func(ctx context.Context, pool *pgxpool.Pool) error

// PoolCache caches one connection pool per registered connection name.
// Concurrent acquires for the same name share a single creation attempt;
// acquires for different names never block each other.
type PoolCache struct {
	mu      sync.RWMutex
	entries map[string]*poolEntry
	cfg     config.PoolConfig
	logger  *zap.Logger
	closed  bool

	dial dialFunc
	ping pingFunc
}

// poolEntry is a single cached pool. The once guards creation: every
// goroutine that finds the entry waits on the same attempt, and pool/err
// are written exactly once before done is set.
type poolEntry struct {
	once sync.Once
	pool *pgxpool.Pool
	err  error
	done atomic.Bool
}

// NewPoolCache creates an empty cache. Pools are bounded by cfg.
func NewPoolCache(cfg config.PoolConfig, logger *zap.Logger) *PoolCache {
	c := &PoolCache{
		entries: make(map[string]*poolEntry),
		cfg:     cfg,
		logger:  logger,
	}
	c.dial = c.dialAndVerify
	c.ping = c.healthCheck
	return c
}

// Acquire returns the pool for the named connection, creating it on
// first use. A cached pool is health-checked before being handed out;
// an unhealthy pool is closed and recreated once.
func (c *PoolCache) Acquire(ctx context.Context, name, connURL string) (*pgxpool.Pool, error) {
	entry, created := c.entryFor(name)
	if entry == nil {
		return nil, apperrors.New(apperrors.KindInternal, "pool cache is closed")
	}

	pool, err := entry.connect(ctx, c, name, connURL)
	if err != nil {
		// Failed creations are not cached; the next acquire retries.
		c.remove(name, entry)
		return nil, err
	}
	if created {
		return pool, nil
	}

	if pingErr := c.ping(ctx, pool); pingErr != nil {
		c.logger.Warn("cached pool unhealthy, recreating",
			zap.String("connection", name),
			zap.String("error", logging.SanitizeError(pingErr)),
		)
		c.remove(name, entry)

		fresh, _ := c.entryFor(name)
		if fresh == nil {
			return nil, apperrors.New(apperrors.KindInternal, "pool cache is closed")
		}
		pool, err = fresh.connect(ctx, c, name, connURL)
		if err != nil {
			c.remove(name, fresh)
			return nil, err
		}
	}

	return pool, nil
}

// Evict removes and closes the named pool. Evicting an unknown name is
// a no-op. An acquire whose creation is still in flight fails with a
// connection error and its pool is closed; the next acquire starts
// clean against the current registration.
func (c *PoolCache) Evict(name string) {
	c.mu.Lock()
	entry, exists := c.entries[name]
	if exists {
		delete(c.entries, name)
	}
	c.mu.Unlock()

	if exists && entry.done.Load() && entry.pool != nil {
		entry.pool.Close()
		c.logger.Info("evicted connection pool", zap.String("connection", name))
	}
}

// Close closes every cached pool. The cache is unusable afterwards.
func (c *PoolCache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true

	for name, entry := range c.entries {
		if entry.done.Load() && entry.pool != nil {
			entry.pool.Close()
		}
		delete(c.entries, name)
	}
	c.logger.Info("pool cache closed")
}

// Len reports the number of cached entries.
func (c *PoolCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// entryFor returns the entry for name, inserting a fresh one if absent.
// The second return is true when this call inserted the entry. Returns
// nil after Close.
func (c *PoolCache) entryFor(name string) (*poolEntry, bool) {
	c.mu.RLock()
	entry, exists := c.entries[name]
	closed := c.closed
	c.mu.RUnlock()
	if closed {
		return nil, false
	}
	if exists {
		return entry, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, false
	}
	if entry, exists = c.entries[name]; exists {
		return entry, false
	}
	entry = &poolEntry{}
	c.entries[name] = entry
	return entry, true
}

// remove drops the entry from the cache if it is still the current one,
// closing its pool when creation succeeded.
func (c *PoolCache) remove(name string, entry *poolEntry) {
	c.mu.Lock()
	if current, exists := c.entries[name]; exists && current == entry {
		delete(c.entries, name)
	}
	c.mu.Unlock()

	if entry.done.Load() && entry.pool != nil && entry.err == nil {
		entry.pool.Close()
	}
}

// connect runs the entry's single creation attempt. All callers for the
// same entry block until the first finishes and share its outcome. The
// finished pool is published under the cache lock: if the entry was
// evicted while the dial was in flight, the pool is closed immediately
// and the attempt fails, so the orphaned pool cannot leak.
func (e *poolEntry) connect(ctx context.Context, c *PoolCache, name, connURL string) (*pgxpool.Pool, error) {
	e.once.Do(func() {
		poolCfg, err := pgxpool.ParseConfig(connURL)
		if err != nil {
			e.err = apperrors.Wrap(apperrors.KindConnection, err,
				"invalid connection string for %q: %s", name, logging.SanitizeError(err))
			e.done.Store(true)
			return
		}
		poolCfg.MaxConns = c.cfg.MaxConns
		poolCfg.MinConns = c.cfg.MinConns
		poolCfg.MaxConnIdleTime = c.cfg.IdleTimeout()
		poolCfg.MaxConnLifetime = c.cfg.MaxLifetime()
		poolCfg.ConnConfig.ConnectTimeout = c.cfg.ConnectTimeout()

		pool, err := c.dial(ctx, poolCfg)
		if err != nil {
			e.err = apperrors.Wrap(apperrors.KindConnection, err,
				"failed to connect to %q: %s", name, logging.SanitizeError(err))
			e.done.Store(true)
			return
		}

		c.mu.Lock()
		if c.entries[name] != e {
			c.mu.Unlock()
			pool.Close()
			e.err = apperrors.New(apperrors.KindConnection,
				"connection %q was evicted during pool creation", name)
			e.done.Store(true)
			return
		}
		e.pool = pool
		e.done.Store(true)
		c.mu.Unlock()

		c.logger.Info("created connection pool",
			zap.String("connection", name),
			zap.Int32("maxConns", c.cfg.MaxConns),
		)
	})
	return e.pool, e.err
}

// dialAndVerify is the default dial: create the pool, then prove the
// target is reachable within the connect timeout. pgx pools connect
// lazily, so without the ping a bad URL would be cached as healthy.
func (c *PoolCache) dialAndVerify(ctx context.Context, poolCfg *pgxpool.Config) (*pgxpool.Pool, error) {
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, c.cfg.ConnectTimeout())
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// healthCheck is the default cached-pool probe, retried briefly to ride
// out transient blips.
func (c *PoolCache) healthCheck(ctx context.Context, pool *pgxpool.Pool) error {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return retry.Do(pingCtx, retry.DefaultConfig(), func() error {
		return pool.Ping(pingCtx)
	})
}
