package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // database/sql driver for migrations
	"go.uber.org/zap"

	"github.com/dbquery-io/dbquery-engine/pkg/adapters/datasource"
	"github.com/dbquery-io/dbquery-engine/pkg/adapters/datasource/postgres"
	"github.com/dbquery-io/dbquery-engine/pkg/config"
	"github.com/dbquery-io/dbquery-engine/pkg/database"
	"github.com/dbquery-io/dbquery-engine/pkg/handlers"
	"github.com/dbquery-io/dbquery-engine/pkg/llm"
	"github.com/dbquery-io/dbquery-engine/pkg/logging"
	"github.com/dbquery-io/dbquery-engine/pkg/middleware"
	"github.com/dbquery-io/dbquery-engine/pkg/repositories"
	"github.com/dbquery-io/dbquery-engine/pkg/services"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.NewLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	if err := run(cfg, logger); err != nil {
		logger.Fatal("engine exited", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := migrateStore(cfg, logger); err != nil {
		return err
	}

	store, err := database.Connect(ctx, &cfg.Store)
	if err != nil {
		return err
	}
	defer store.Close()

	connRepo := repositories.NewConnectionRepository(store)
	snapRepo := repositories.NewSnapshotRepository(store)

	pools := datasource.NewPoolCache(cfg.Pools, logger)
	defer pools.Close()

	executor := postgres.NewExecutor(cfg.Query.ExecutionTimeout(), logger)
	introspector := postgres.NewIntrospector(logger)

	generator, err := llm.NewClient(&cfg.AI, logger)
	if err != nil {
		return err
	}
	if generator == nil {
		logger.Warn("no generation API key configured, natural-language queries disabled")
	}

	registrySvc := services.NewRegistryService(connRepo, pools, logger)
	schemaSvc := services.NewSchemaService(connRepo, snapRepo, pools, introspector, logger)
	querySvc := services.NewQueryService(connRepo, pools, executor, schemaSvc, generator, cfg.AI, logger)

	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg).RegisterRoutes(mux)
	handlers.NewDatabaseHandler(registrySvc, schemaSvc, logger).RegisterRoutes(mux)
	handlers.NewQueryHandler(querySvc, logger).RegisterRoutes(mux)

	server := &http.Server{
		Addr:              net.JoinHostPort(cfg.BindAddr, cfg.Port),
		Handler:           middleware.RequestLogger(logger)(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting dbquery-engine",
			zap.String("addr", server.Addr),
			zap.String("version", cfg.Version),
			zap.String("env", cfg.Env),
		)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}

// migrateStore applies metadata store migrations over a short-lived
// database/sql connection; golang-migrate requires one.
func migrateStore(cfg *config.Config, logger *zap.Logger) error {
	sqlDB, err := sql.Open("pgx", cfg.Store.URL())
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	return database.RunMigrations(sqlDB, cfg.Store.MigrationsPath, logger)
}
