// Package handlers implements the engine's HTTP API.
package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/dbquery-io/dbquery-engine/pkg/apperrors"
)

// errorBody is the wire shape of every error response.
type errorBody struct {
	Error   string         `json:"error"`
	Code    string         `json:"code"`
	Details map[string]any `json:"details,omitempty"`
}

// WriteJSON writes a JSON response and returns any encoding error.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}
	return json.NewEncoder(w).Encode(data)
}

// WriteError maps a classified error onto an HTTP response. Messages
// are already sanitized at the point the error is built, so they pass
// through as-is.
func WriteError(w http.ResponseWriter, logger *zap.Logger, err error) {
	kind := apperrors.KindOf(err)
	status := statusForKind(kind)

	if status >= http.StatusInternalServerError {
		logger.Error("request failed", zap.String("code", string(kind)), zap.Error(err))
	}

	body := errorBody{
		Error:   err.Error(),
		Code:    string(kind),
		Details: apperrors.DetailsOf(err),
	}
	if kind == apperrors.KindInternal {
		// Never leak internals to the caller.
		body.Error = "internal error"
		body.Details = nil
	}

	_ = WriteJSON(w, status, body)
}

func statusForKind(kind apperrors.Kind) int {
	switch kind {
	case apperrors.KindValidation, apperrors.KindSyntax, apperrors.KindNotReadOnly, apperrors.KindExecution:
		return http.StatusBadRequest
	case apperrors.KindNotFound:
		return http.StatusNotFound
	case apperrors.KindConnection, apperrors.KindGeneration:
		return http.StatusBadGateway
	case apperrors.KindExecutionTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// decodeBody parses a JSON request body into dst.
func decodeBody(r *http.Request, dst any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperrors.New(apperrors.KindValidation, "invalid JSON body: %v", err)
	}
	return nil
}
