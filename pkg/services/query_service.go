package services

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/dbquery-io/dbquery-engine/pkg/apperrors"
	"github.com/dbquery-io/dbquery-engine/pkg/config"
	"github.com/dbquery-io/dbquery-engine/pkg/llm"
	"github.com/dbquery-io/dbquery-engine/pkg/logging"
	"github.com/dbquery-io/dbquery-engine/pkg/models"
	"github.com/dbquery-io/dbquery-engine/pkg/prompts"
	"github.com/dbquery-io/dbquery-engine/pkg/repositories"
	"github.com/dbquery-io/dbquery-engine/pkg/sql"
)

// NaturalLanguageResult is the outcome of a natural-language query:
// the executed results plus the SQL that produced them.
type NaturalLanguageResult struct {
	Result *models.ResultSet
	SQL    string
}

// QueryService validates and executes queries against registered
// connections.
type QueryService interface {
	// ExecuteSQL gatekeeps rawSQL and runs it on the named connection.
	ExecuteSQL(ctx context.Context, name, rawSQL string) (*models.ResultSet, error)

	// ExecuteNaturalLanguage turns a question into SQL via the
	// generation service, then gatekeeps and runs it.
	ExecuteNaturalLanguage(ctx context.Context, name, question string) (*NaturalLanguageResult, error)
}

type queryService struct {
	registry  repositories.ConnectionRepository
	pools     PoolProvider
	executor  SQLExecutor
	schema    SchemaService
	generator llm.Client
	aiCfg     config.AIConfig
	logger    *zap.Logger
}

// NewQueryService creates the query service. generator may be nil, in
// which case natural-language queries are rejected.
func NewQueryService(
	registry repositories.ConnectionRepository,
	pools PoolProvider,
	executor SQLExecutor,
	schema SchemaService,
	generator llm.Client,
	aiCfg config.AIConfig,
	logger *zap.Logger,
) QueryService {
	return &queryService{
		registry:  registry,
		pools:     pools,
		executor:  executor,
		schema:    schema,
		generator: generator,
		aiCfg:     aiCfg,
		logger:    logger,
	}
}

func (s *queryService) ExecuteSQL(ctx context.Context, name, rawSQL string) (*models.ResultSet, error) {
	stmt, err := sql.Validate(rawSQL)
	if err != nil {
		return nil, err
	}
	return s.run(ctx, name, stmt)
}

func (s *queryService) ExecuteNaturalLanguage(ctx context.Context, name, question string) (*NaturalLanguageResult, error) {
	if s.generator == nil {
		return nil, apperrors.New(apperrors.KindGeneration,
			"natural-language queries are disabled: no generation service configured")
	}
	if strings.TrimSpace(question) == "" {
		return nil, apperrors.New(apperrors.KindValidation, "question is required")
	}

	// Schema context comes from the cache when available; a stale
	// snapshot just means the model sees slightly old structure.
	snapshot, err := s.schema.Fetch(ctx, name, false)
	if err != nil {
		return nil, err
	}

	genCtx, cancel := context.WithTimeout(ctx, s.aiCfg.Timeout())
	defer cancel()

	prompt := prompts.BuildText2SQLPrompt(snapshot, question)
	completion, err := s.generator.GenerateResponse(genCtx, prompt, prompts.Text2SQLSystem, s.aiCfg.Temperature)
	if err != nil {
		return nil, err
	}

	generated, err := llm.ExtractSQL(completion)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("generated SQL",
		zap.String("connection", name),
		zap.String("query", logging.SanitizeQuery(generated)),
	)

	// From here on every failure carries the generated SQL so the
	// caller can see what was attempted.
	stmt, err := sql.Validate(generated)
	if err != nil {
		return nil, withGeneratedSQL(err, generated)
	}

	result, err := s.run(ctx, name, stmt)
	if err != nil {
		return nil, withGeneratedSQL(err, stmt.SQL)
	}

	return &NaturalLanguageResult{Result: result, SQL: stmt.SQL}, nil
}

// run resolves the connection, acquires its pool, and executes an
// already-validated statement.
func (s *queryService) run(ctx context.Context, name string, stmt *sql.ValidatedStatement) (*models.ResultSet, error) {
	conn, err := s.registry.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}

	pool, err := s.pools.Acquire(ctx, conn.Name, conn.URL)
	if err != nil {
		return nil, err
	}

	return s.executor.Execute(ctx, pool, stmt.SQL)
}

// withGeneratedSQL attaches the generated statement to a classified
// error's details.
func withGeneratedSQL(err error, generated string) error {
	var e *apperrors.Error
	if errors.As(err, &e) {
		return e.WithDetail("sql", generated)
	}
	return apperrors.Wrap(apperrors.KindInternal, err, "%s", err.Error()).
		WithDetail("sql", generated)
}
