package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hashicorp-forge/docvault/internal/server"
	"github.com/hashicorp-forge/docvault/pkg/registry"
)

// respondJSON encodes v as the response body.
func respondJSON(w http.ResponseWriter, srv server.Server, status int, v interface{}, logArgs []any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		srv.Logger.Error("error encoding response",
			append(logArgs, "error", err)...)
	}
}

// decodeJSON decodes the request body into dst, writing a 400 on failure.
// Returns false if the request was already answered.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

// respondRegistryError maps a registry error kind to an HTTP status.
func respondRegistryError(w http.ResponseWriter, srv server.Server, err error, logArgs []any) {
	srv.Logger.Error("registry operation failed",
		append(logArgs, "error", err)...)

	switch {
	case errors.Is(err, registry.ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, registry.ErrAccessDenied):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, registry.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, registry.ErrInvalidState),
		errors.Is(err, registry.ErrIdentifierCollision):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, registry.ErrRegistryPaused):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	default:
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
