// Package postgres executes validated queries against target PostgreSQL
// databases and introspects their schemas.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/dbquery-io/dbquery-engine/pkg/apperrors"
	"github.com/dbquery-io/dbquery-engine/pkg/logging"
	"github.com/dbquery-io/dbquery-engine/pkg/models"
)

// pgCodeQueryCanceled is raised when statement_timeout or a cancelled
// context interrupts a running query server-side.
const pgCodeQueryCanceled = "57014"

// Executor runs already-validated SELECT statements with a hard
// execution timeout.
type Executor struct {
	timeout time.Duration
	logger  *zap.Logger
}

func NewExecutor(timeout time.Duration, logger *zap.Logger) *Executor {
	return &Executor{timeout: timeout, logger: logger}
}

// Execute runs sqlText on the given pool and materializes the full
// result set. The reported execution time covers submission through the
// last fetched row. Column names are present even when no rows match.
func (e *Executor) Execute(ctx context.Context, pool *pgxpool.Pool, sqlText string) (*models.ResultSet, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	start := time.Now()
	rows, err := pool.Query(ctx, sqlText)
	if err != nil {
		return nil, e.classify(err, sqlText)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	columns := make([]string, len(fields))
	for i, fd := range fields {
		columns[i] = string(fd.Name)
	}

	resultRows := make([][]models.CellValue, 0)
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, e.classify(err, sqlText)
		}
		cells := make([]models.CellValue, len(values))
		for i, v := range values {
			cells[i] = toCell(v)
		}
		resultRows = append(resultRows, cells)
	}
	if err := rows.Err(); err != nil {
		return nil, e.classify(err, sqlText)
	}
	elapsed := time.Since(start)

	e.logger.Debug("query executed",
		zap.String("query", logging.SanitizeQuery(sqlText)),
		zap.Int("rows", len(resultRows)),
		zap.Int64("elapsedMs", elapsed.Milliseconds()),
	)

	return &models.ResultSet{
		Columns:         columns,
		Rows:            resultRows,
		RowCount:        len(resultRows),
		ExecutionTimeMs: elapsed.Milliseconds(),
	}, nil
}

// classify maps driver failures onto the engine's error kinds. Database
// error messages pass through verbatim; they describe the caller's own
// SQL and carry no credentials.
func (e *Executor) classify(err error, sqlText string) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Wrap(apperrors.KindExecutionTimeout, err,
			"query exceeded execution timeout of %s", e.timeout)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == pgCodeQueryCanceled {
			return apperrors.Wrap(apperrors.KindExecutionTimeout, err,
				"query exceeded execution timeout of %s", e.timeout)
		}
		e.logger.Debug("query rejected by database",
			zap.String("query", logging.SanitizeQuery(sqlText)),
			zap.String("code", pgErr.Code),
		)
		return apperrors.Wrap(apperrors.KindExecution, err, "%s", pgErr.Message)
	}

	return apperrors.Wrap(apperrors.KindExecution, err,
		"query failed: %s", logging.SanitizeError(err))
}
