package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/dbquery-io/dbquery-engine/pkg/apperrors"
	"github.com/dbquery-io/dbquery-engine/pkg/models"
	"github.com/dbquery-io/dbquery-engine/pkg/testhelpers"
)

func setupExecutorTable(t *testing.T) *testhelpers.TestDB {
	t.Helper()
	testDB := testhelpers.GetTestDB(t)
	ctx := context.Background()

	_, err := testDB.Pool.Exec(ctx, `
		DROP TABLE IF EXISTS exec_products;
		CREATE TABLE exec_products (
			id BIGINT PRIMARY KEY,
			name TEXT NOT NULL,
			price NUMERIC(10,2),
			in_stock BOOLEAN,
			tags JSONB,
			added_at TIMESTAMPTZ
		);
		INSERT INTO exec_products VALUES
			(1, 'widget', 9.99, true, '["a","b"]', '2025-01-02T03:04:05Z'),
			(2, 'gadget', NULL, false, NULL, NULL);
	`)
	require.NoError(t, err)
	return testDB
}

func TestExecutor_Execute(t *testing.T) {
	testDB := setupExecutorTable(t)
	exec := NewExecutor(30*time.Second, zaptest.NewLogger(t))

	result, err := exec.Execute(context.Background(), testDB.Pool,
		"SELECT id, name, price, in_stock, tags, added_at FROM exec_products ORDER BY id")
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "name", "price", "in_stock", "tags", "added_at"}, result.Columns)
	require.Equal(t, 2, result.RowCount)
	require.Len(t, result.Rows, 2)
	assert.GreaterOrEqual(t, result.ExecutionTimeMs, int64(0))

	first := result.Rows[0]
	require.Len(t, first, 6)
	assert.Equal(t, models.CellNumber, first[0].Kind())
	assert.Equal(t, models.CellString, first[1].Kind())
	assert.Equal(t, models.CellNumber, first[2].Kind())
	assert.Equal(t, models.CellBool, first[3].Kind())
	assert.Equal(t, models.CellStructured, first[4].Kind())
	assert.Equal(t, models.CellString, first[5].Kind())

	second := result.Rows[1]
	assert.Equal(t, models.CellNull, second[2].Kind())
	assert.Equal(t, models.CellNull, second[4].Kind())
	assert.Equal(t, models.CellNull, second[5].Kind())
}

func TestExecutor_ZeroRowsKeepsColumns(t *testing.T) {
	testDB := setupExecutorTable(t)
	exec := NewExecutor(30*time.Second, zaptest.NewLogger(t))

	result, err := exec.Execute(context.Background(), testDB.Pool,
		"SELECT id, name FROM exec_products WHERE id = -1")
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "name"}, result.Columns)
	assert.Equal(t, 0, result.RowCount)
	assert.NotNil(t, result.Rows)
}

func TestExecutor_DatabaseErrorPassedThrough(t *testing.T) {
	testDB := setupExecutorTable(t)
	exec := NewExecutor(30*time.Second, zaptest.NewLogger(t))

	_, err := exec.Execute(context.Background(), testDB.Pool,
		"SELECT missing_column FROM exec_products")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindExecution))
	assert.Contains(t, err.Error(), "missing_column")
}

func TestExecutor_Timeout(t *testing.T) {
	testDB := setupExecutorTable(t)
	exec := NewExecutor(500*time.Millisecond, zaptest.NewLogger(t))

	_, err := exec.Execute(context.Background(), testDB.Pool, "SELECT pg_sleep(5)")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindExecutionTimeout))
}
