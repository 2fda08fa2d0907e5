package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/dbquery-io/dbquery-engine/pkg/models"
	"github.com/dbquery-io/dbquery-engine/pkg/services"
)

// DatabaseHandler serves the connection registry and schema endpoints.
type DatabaseHandler struct {
	registry services.RegistryService
	schema   services.SchemaService
	logger   *zap.Logger
}

func NewDatabaseHandler(registry services.RegistryService, schema services.SchemaService, logger *zap.Logger) *DatabaseHandler {
	return &DatabaseHandler{registry: registry, schema: schema, logger: logger}
}

// RegisterRoutes registers the registry and schema routes on the given
// mux.
func (h *DatabaseHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/dbs", h.List)
	mux.HandleFunc("PUT /api/v1/dbs/{name}", h.Upsert)
	mux.HandleFunc("DELETE /api/v1/dbs/{name}", h.Delete)
	mux.HandleFunc("GET /api/v1/dbs/{name}/schema", h.Schema)
}

// List handles GET /api/v1/dbs.
func (h *DatabaseHandler) List(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.registry.List(r.Context())
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, map[string]any{"dbs": summaries})
}

// Upsert handles PUT /api/v1/dbs/{name}.
func (h *DatabaseHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	var req models.UpsertConnectionRequest
	if err := decodeBody(r, &req); err != nil {
		WriteError(w, h.logger, err)
		return
	}

	conn, created, err := h.registry.Upsert(r.Context(), name, req.URL)
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	_ = WriteJSON(w, status, conn.Summary())
}

// Delete handles DELETE /api/v1/dbs/{name}.
func (h *DatabaseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.registry.Delete(r.Context(), r.PathValue("name")); err != nil {
		WriteError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Schema handles GET /api/v1/dbs/{name}/schema. The refresh=true query
// parameter forces a live introspection.
func (h *DatabaseHandler) Schema(w http.ResponseWriter, r *http.Request) {
	forceRefresh := r.URL.Query().Get("refresh") == "true"

	snapshot, err := h.schema.Fetch(r.Context(), r.PathValue("name"), forceRefresh)
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, snapshot)
}
