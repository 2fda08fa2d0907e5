package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/dbquery-io/dbquery-engine/pkg/apperrors"
	"github.com/dbquery-io/dbquery-engine/pkg/logging"
	"github.com/dbquery-io/dbquery-engine/pkg/models"
)

// Introspector reads a target database's structure from the public
// schema.
type Introspector struct {
	logger *zap.Logger
}

func NewIntrospector(logger *zap.Logger) *Introspector {
	return &Introspector{logger: logger}
}

// Introspect builds a snapshot of dbName's public tables and views.
// Row counts are best-effort: a table whose COUNT(*) fails is still
// included, with its count omitted.
func (in *Introspector) Introspect(ctx context.Context, pool *pgxpool.Pool, dbName string) (*models.SchemaSnapshot, error) {
	tables, err := in.listRelations(ctx, pool, "BASE TABLE")
	if err != nil {
		return nil, err
	}
	views, err := in.listRelations(ctx, pool, "VIEW")
	if err != nil {
		return nil, err
	}

	columnsByTable, err := in.listColumns(ctx, pool)
	if err != nil {
		return nil, err
	}
	pksByTable, err := in.listPrimaryKeys(ctx, pool)
	if err != nil {
		return nil, err
	}

	snapshot := &models.SchemaSnapshot{
		DBName:    dbName,
		Tables:    make([]models.TableInfo, 0, len(tables)),
		Views:     make([]models.ViewInfo, 0, len(views)),
		UpdatedAt: time.Now().UTC(),
	}

	for _, name := range tables {
		info := models.TableInfo{
			Name:       name,
			Columns:    columnsByTable[name],
			PrimaryKey: pksByTable[name],
		}
		if count, err := in.countRows(ctx, pool, name); err != nil {
			in.logger.Warn("row count failed, omitting",
				zap.String("table", name),
				zap.String("error", logging.SanitizeError(err)),
			)
		} else {
			info.RowCount = &count
		}
		snapshot.Tables = append(snapshot.Tables, info)
	}

	for _, name := range views {
		snapshot.Views = append(snapshot.Views, models.ViewInfo{
			Name:    name,
			Columns: columnsByTable[name],
		})
	}

	return snapshot, nil
}

// listRelations returns public relations of the given type in name
// order.
func (in *Introspector) listRelations(ctx context.Context, pool *pgxpool.Pool, tableType string) ([]string, error) {
	const query = `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'public' AND table_type = $1
		ORDER BY table_name
	`

	rows, err := pool.Query(ctx, query, tableType)
	if err != nil {
		return nil, introspectionError(err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, introspectionError(err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, introspectionError(err)
	}
	return names, nil
}

// listColumns returns every public column keyed by relation name, in
// ordinal order.
func (in *Introspector) listColumns(ctx context.Context, pool *pgxpool.Pool) (map[string][]models.ColumnInfo, error) {
	const query = `
		SELECT table_name, column_name, data_type, is_nullable = 'YES', column_default
		FROM information_schema.columns
		WHERE table_schema = 'public'
		ORDER BY table_name, ordinal_position
	`

	rows, err := pool.Query(ctx, query)
	if err != nil {
		return nil, introspectionError(err)
	}
	defer rows.Close()

	columns := make(map[string][]models.ColumnInfo)
	for rows.Next() {
		var table string
		var col models.ColumnInfo
		if err := rows.Scan(&table, &col.Name, &col.DataType, &col.Nullable, &col.DefaultValue); err != nil {
			return nil, introspectionError(err)
		}
		columns[table] = append(columns[table], col)
	}
	if err := rows.Err(); err != nil {
		return nil, introspectionError(err)
	}
	return columns, nil
}

// listPrimaryKeys returns primary-key column names keyed by table, in
// key order. pg_index detects keys that information_schema misses when
// an ORM created them as unique indexes.
func (in *Introspector) listPrimaryKeys(ctx context.Context, pool *pgxpool.Pool) (map[string][]string, error) {
	const query = `
		SELECT t.relname, a.attname
		FROM pg_index ix
		JOIN pg_class t ON t.oid = ix.indrelid
		JOIN pg_namespace n ON n.oid = t.relnamespace
		JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = ANY(ix.indkey)
		WHERE ix.indisprimary AND n.nspname = 'public'
		ORDER BY t.relname, array_position(ix.indkey, a.attnum)
	`

	rows, err := pool.Query(ctx, query)
	if err != nil {
		return nil, introspectionError(err)
	}
	defer rows.Close()

	pks := make(map[string][]string)
	for rows.Next() {
		var table, column string
		if err := rows.Scan(&table, &column); err != nil {
			return nil, introspectionError(err)
		}
		pks[table] = append(pks[table], column)
	}
	if err := rows.Err(); err != nil {
		return nil, introspectionError(err)
	}
	return pks, nil
}

// countRows runs COUNT(*) with a short timeout so one huge table cannot
// stall the whole introspection.
func (in *Introspector) countRows(ctx context.Context, pool *pgxpool.Pool, table string) (int64, error) {
	countCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", pgx.Identifier{table}.Sanitize())
	var count int64
	if err := pool.QueryRow(countCtx, query).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func introspectionError(err error) error {
	return apperrors.Wrap(apperrors.KindExecution, err,
		"schema introspection failed: %s", logging.SanitizeError(err))
}
