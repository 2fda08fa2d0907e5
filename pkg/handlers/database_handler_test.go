package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/dbquery-io/dbquery-engine/pkg/models"
)

func newDatabaseMux(t *testing.T, registry *mockRegistry, schema *mockSchemaService) *http.ServeMux {
	t.Helper()
	mux := http.NewServeMux()
	NewDatabaseHandler(registry, schema, zaptest.NewLogger(t)).RegisterRoutes(mux)
	return mux
}

func TestDatabaseHandler_UpsertCreates(t *testing.T) {
	registry := newMockRegistry()
	mux := newDatabaseMux(t, registry, &mockSchemaService{})

	body := strings.NewReader(`{"url":"postgres://app:pw@db:5432/orders"}`)
	req := httptest.NewRequest(http.MethodPut, "/api/v1/dbs/orders", body)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp models.ConnectionSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "orders", resp.Name)
	assert.NotContains(t, resp.URL, "pw", "password must be masked in responses")
}

func TestDatabaseHandler_UpsertExistingReturnsOK(t *testing.T) {
	registry := newMockRegistry()
	mux := newDatabaseMux(t, registry, &mockSchemaService{})

	for i, wantStatus := range []int{http.StatusCreated, http.StatusOK} {
		body := strings.NewReader(`{"url":"postgres://app:pw@db:5432/orders"}`)
		req := httptest.NewRequest(http.MethodPut, "/api/v1/dbs/orders", body)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		assert.Equal(t, wantStatus, rec.Code, "request %d", i)
	}
}

func TestDatabaseHandler_UpsertBadBody(t *testing.T) {
	mux := newDatabaseMux(t, newMockRegistry(), &mockSchemaService{})

	req := httptest.NewRequest(http.MethodPut, "/api/v1/dbs/orders", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "VALIDATION_ERROR")
}

func TestDatabaseHandler_List(t *testing.T) {
	registry := newMockRegistry()
	registry.conns["orders"] = &models.Connection{Name: "orders", URL: "postgres://app:pw@db:5432/orders"}
	mux := newDatabaseMux(t, registry, &mockSchemaService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/dbs", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"orders"`)
	assert.NotContains(t, rec.Body.String(), ":pw@")
}

func TestDatabaseHandler_Delete(t *testing.T) {
	registry := newMockRegistry()
	registry.conns["orders"] = &models.Connection{Name: "orders"}
	mux := newDatabaseMux(t, registry, &mockSchemaService{})

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/dbs/orders", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, registry.conns)
}

func TestDatabaseHandler_DeleteUnknown(t *testing.T) {
	mux := newDatabaseMux(t, newMockRegistry(), &mockSchemaService{})

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/dbs/nope", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "NOT_FOUND")
}

func TestDatabaseHandler_Schema(t *testing.T) {
	schema := &mockSchemaService{snapshot: &models.SchemaSnapshot{
		DBName: "orders",
		Tables: []models.TableInfo{{Name: "users"}},
	}}
	mux := newDatabaseMux(t, newMockRegistry(), schema)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/dbs/orders/schema", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "orders", schema.lastName)
	assert.False(t, schema.lastRefresh)
	assert.Contains(t, rec.Body.String(), `"users"`)
}

func TestDatabaseHandler_SchemaForceRefresh(t *testing.T) {
	schema := &mockSchemaService{}
	mux := newDatabaseMux(t, newMockRegistry(), schema)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/dbs/orders/schema?refresh=true", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, schema.lastRefresh)
}
