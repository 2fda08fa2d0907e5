package postgres

import (
	"context"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/dbquery-io/dbquery-engine/pkg/models"
	"github.com/dbquery-io/dbquery-engine/pkg/testhelpers"
)

func TestIntrospector_Introspect(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	ctx := context.Background()

	_, err := testDB.Pool.Exec(ctx, `
		DROP VIEW IF EXISTS intro_recent_orders;
		DROP TABLE IF EXISTS intro_order_items;
		DROP TABLE IF EXISTS intro_orders;
		CREATE TABLE intro_orders (
			id UUID PRIMARY KEY,
			customer TEXT NOT NULL,
			total NUMERIC(12,2) DEFAULT 0,
			placed_at TIMESTAMPTZ
		);
		CREATE TABLE intro_order_items (
			order_id UUID REFERENCES intro_orders(id),
			line_no INT,
			sku TEXT NOT NULL,
			PRIMARY KEY (order_id, line_no)
		);
		CREATE VIEW intro_recent_orders AS
			SELECT id, customer FROM intro_orders WHERE placed_at > now() - interval '7 days';
		INSERT INTO intro_orders VALUES (gen_random_uuid(), 'ada', 10.00, now());
	`)
	require.NoError(t, err)

	snapshot, err := NewIntrospector(zaptest.NewLogger(t)).Introspect(ctx, testDB.Pool, "target_test")
	require.NoError(t, err)

	assert.Equal(t, "target_test", snapshot.DBName)
	assert.False(t, snapshot.UpdatedAt.IsZero())

	var orders, items *models.TableInfo
	for i := range snapshot.Tables {
		switch snapshot.Tables[i].Name {
		case "intro_orders":
			orders = &snapshot.Tables[i]
		case "intro_order_items":
			items = &snapshot.Tables[i]
		}
	}
	require.NotNil(t, orders, "intro_orders should be discovered")
	require.NotNil(t, items, "intro_order_items should be discovered")

	assert.Equal(t, []string{"id"}, orders.PrimaryKey)
	assert.Equal(t, []string{"order_id", "line_no"}, items.PrimaryKey)
	require.NotNil(t, orders.RowCount)
	assert.Equal(t, int64(1), *orders.RowCount)

	colsByName := map[string]models.ColumnInfo{}
	for _, col := range orders.Columns {
		colsByName[col.Name] = col
	}
	require.Contains(t, colsByName, "customer")
	assert.Equal(t, "text", colsByName["customer"].DataType)
	assert.False(t, colsByName["customer"].Nullable)
	assert.True(t, colsByName["placed_at"].Nullable)
	require.NotNil(t, colsByName["total"].DefaultValue)

	// Every primary-key column appears in the column list.
	for _, pk := range orders.PrimaryKey {
		assert.Contains(t, colsByName, pk)
	}

	var view *models.ViewInfo
	for i := range snapshot.Views {
		if snapshot.Views[i].Name == "intro_recent_orders" {
			view = &snapshot.Views[i]
		}
	}
	require.NotNil(t, view, "view should be discovered")
	assert.Len(t, view.Columns, 2)
}

func TestIntrospector_EmptyDatabase(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	ctx := context.Background()

	_, err := testDB.Pool.Exec(ctx, `CREATE DATABASE empty_introspect`)
	if err != nil && !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("create database: %v", err)
	}

	emptyConnStr := strings.Replace(testDB.ConnStr, "target_test", "empty_introspect", 1)
	pool, err := pgxpool.New(ctx, emptyConnStr)
	require.NoError(t, err)
	defer pool.Close()

	snapshot, err := NewIntrospector(zaptest.NewLogger(t)).Introspect(ctx, pool, "empty_introspect")
	require.NoError(t, err)

	assert.NotNil(t, snapshot.Tables)
	assert.NotNil(t, snapshot.Views)
	assert.Empty(t, snapshot.Tables)
	assert.Empty(t, snapshot.Views)
}
