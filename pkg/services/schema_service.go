package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/dbquery-io/dbquery-engine/pkg/apperrors"
	"github.com/dbquery-io/dbquery-engine/pkg/models"
	"github.com/dbquery-io/dbquery-engine/pkg/repositories"
)

// SchemaService serves schema snapshots for registered connections,
// caching them in the metadata store.
type SchemaService interface {
	// Fetch returns the schema for the named connection. A cached
	// snapshot is served unless forceRefresh is set or none exists.
	Fetch(ctx context.Context, name string, forceRefresh bool) (*models.SchemaSnapshot, error)
}

type schemaService struct {
	registry     repositories.ConnectionRepository
	snapshots    repositories.SnapshotRepository
	pools        PoolProvider
	introspector SchemaIntrospector
	logger       *zap.Logger
}

// NewSchemaService creates the schema service.
func NewSchemaService(
	registry repositories.ConnectionRepository,
	snapshots repositories.SnapshotRepository,
	pools PoolProvider,
	introspector SchemaIntrospector,
	logger *zap.Logger,
) SchemaService {
	return &schemaService{
		registry:     registry,
		snapshots:    snapshots,
		pools:        pools,
		introspector: introspector,
		logger:       logger,
	}
}

func (s *schemaService) Fetch(ctx context.Context, name string, forceRefresh bool) (*models.SchemaSnapshot, error) {
	conn, err := s.registry.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}

	if !forceRefresh {
		snapshot, err := s.snapshots.Get(ctx, conn.ID)
		if err == nil {
			return snapshot, nil
		}
		if !apperrors.Is(err, apperrors.KindNotFound) {
			// Unreadable cache falls through to a live introspection.
			s.logger.Warn("snapshot cache read failed",
				zap.String("connection", name),
				zap.Error(err),
			)
		}
	}

	pool, err := s.pools.Acquire(ctx, conn.Name, conn.URL)
	if err != nil {
		return nil, err
	}

	snapshot, err := s.introspector.Introspect(ctx, pool, conn.Name)
	if err != nil {
		return nil, err
	}

	// Persisting the snapshot is best-effort; the caller still gets the
	// fresh result when the store write fails.
	if err := s.snapshots.Put(ctx, conn.ID, snapshot); err != nil {
		s.logger.Warn("snapshot cache write failed",
			zap.String("connection", name),
			zap.Error(err),
		)
	}

	s.logger.Info("schema introspected",
		zap.String("connection", name),
		zap.Int("tables", len(snapshot.Tables)),
		zap.Int("views", len(snapshot.Views)),
	)
	return snapshot, nil
}
