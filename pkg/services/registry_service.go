package services

import (
	"context"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/dbquery-io/dbquery-engine/pkg/apperrors"
	"github.com/dbquery-io/dbquery-engine/pkg/models"
	"github.com/dbquery-io/dbquery-engine/pkg/repositories"
)

// connectionNamePattern bounds registry names to URL-path-safe tokens.
var connectionNamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// RegistryService manages the catalog of registered target databases.
type RegistryService interface {
	// Upsert registers or updates the named connection. The second
	// return is true when the connection was newly created.
	Upsert(ctx context.Context, name, url string) (*models.Connection, bool, error)

	// Get retrieves a registered connection by name.
	Get(ctx context.Context, name string) (*models.Connection, error)

	// List returns all registered connections, URLs masked.
	List(ctx context.Context) ([]models.ConnectionSummary, error)

	// Delete unregisters a connection, dropping its cached pool and
	// schema snapshot.
	Delete(ctx context.Context, name string) error
}

type registryService struct {
	repo   repositories.ConnectionRepository
	pools  PoolProvider
	logger *zap.Logger
}

// NewRegistryService creates the registry service.
func NewRegistryService(repo repositories.ConnectionRepository, pools PoolProvider, logger *zap.Logger) RegistryService {
	return &registryService{repo: repo, pools: pools, logger: logger}
}

func (s *registryService) Upsert(ctx context.Context, name, url string) (*models.Connection, bool, error) {
	if !connectionNamePattern.MatchString(name) {
		return nil, false, apperrors.New(apperrors.KindValidation,
			"invalid connection name: must be 1-64 characters of letters, digits, '_' or '-'")
	}
	if err := validateConnectionURL(url); err != nil {
		return nil, false, err
	}

	// A changed URL invalidates any cached pool for the old target.
	if existing, err := s.repo.GetByName(ctx, name); err == nil && existing.URL != url {
		s.pools.Evict(name)
	}

	conn := &models.Connection{Name: name, URL: url}
	created, err := s.repo.Upsert(ctx, conn)
	if err != nil {
		return nil, false, err
	}

	s.logger.Info("connection registered",
		zap.String("connection", name),
		zap.String("url", conn.MaskedURL()),
		zap.Bool("created", created),
	)
	return conn, created, nil
}

func (s *registryService) Get(ctx context.Context, name string) (*models.Connection, error) {
	return s.repo.GetByName(ctx, name)
}

func (s *registryService) List(ctx context.Context) ([]models.ConnectionSummary, error) {
	conns, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make([]models.ConnectionSummary, 0, len(conns))
	for _, conn := range conns {
		summaries = append(summaries, conn.Summary())
	}
	return summaries, nil
}

func (s *registryService) Delete(ctx context.Context, name string) error {
	if err := s.repo.Delete(ctx, name); err != nil {
		return err
	}
	// Snapshot rows cascade with the connection; the pool we drop here.
	s.pools.Evict(name)
	s.logger.Info("connection unregistered", zap.String("connection", name))
	return nil
}

// validateConnectionURL accepts PostgreSQL URLs only. Deep validation
// happens when a pool is first created; this catches obvious mistakes
// at registration time.
func validateConnectionURL(url string) error {
	if strings.TrimSpace(url) == "" {
		return apperrors.New(apperrors.KindValidation, "connection url is required")
	}
	if !strings.HasPrefix(url, "postgres://") && !strings.HasPrefix(url, "postgresql://") {
		return apperrors.New(apperrors.KindValidation,
			"connection url must start with postgres:// or postgresql://")
	}
	return nil
}
