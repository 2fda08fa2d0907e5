package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/dbquery-io/dbquery-engine/pkg/models"
	"github.com/dbquery-io/dbquery-engine/pkg/services"
)

// QueryHandler serves query execution endpoints.
type QueryHandler struct {
	queries services.QueryService
	logger  *zap.Logger
}

func NewQueryHandler(queries services.QueryService, logger *zap.Logger) *QueryHandler {
	return &QueryHandler{queries: queries, logger: logger}
}

// RegisterRoutes registers the query routes on the given mux.
func (h *QueryHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/dbs/{name}/query", h.Query)
	mux.HandleFunc("POST /api/v1/dbs/{name}/query/natural", h.NaturalLanguage)
}

// Query handles POST /api/v1/dbs/{name}/query.
func (h *QueryHandler) Query(w http.ResponseWriter, r *http.Request) {
	var req models.QueryRequest
	if err := decodeBody(r, &req); err != nil {
		WriteError(w, h.logger, err)
		return
	}

	result, err := h.queries.ExecuteSQL(r.Context(), r.PathValue("name"), req.SQL)
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, result)
}

// NaturalLanguage handles POST /api/v1/dbs/{name}/query/natural. The
// success body is the bare ResultSet, identical to the direct SQL
// endpoint; the generated statement surfaces only in error details
// when a post-generation step fails.
func (h *QueryHandler) NaturalLanguage(w http.ResponseWriter, r *http.Request) {
	var req models.NaturalLanguageRequest
	if err := decodeBody(r, &req); err != nil {
		WriteError(w, h.logger, err)
		return
	}

	res, err := h.queries.ExecuteNaturalLanguage(r.Context(), r.PathValue("name"), req.Prompt)
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, res.Result)
}
