package api

import (
	"net/http"
	"strings"

	"github.com/hashicorp-forge/docvault/internal/auth"
	"github.com/hashicorp-forge/docvault/internal/server"
)

// StatsHandler serves the registry-wide aggregate snapshot.
// Endpoint: GET /api/v1/stats
func StatsHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logArgs := []any{
			"path", r.URL.Path,
			"method", r.Method,
		}

		if r.Method != "GET" {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		stats, err := srv.Registry.GetSystemStats(r.Context())
		if err != nil {
			respondRegistryError(w, srv, err, logArgs)
			return
		}
		respondJSON(w, srv, http.StatusOK, stats, logArgs)
	})
}

// MaxDocumentSizeRequest is the request body for
// POST /api/v1/admin/max-document-size.
type MaxDocumentSizeRequest struct {
	Bytes int64 `json:"bytes"`
}

// AdminHandler serves the registry-admin operations.
// Endpoints:
//
//	POST /api/v1/admin/pause
//	POST /api/v1/admin/unpause
//	POST /api/v1/admin/max-document-size
func AdminHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logArgs := []any{
			"path", r.URL.Path,
			"method", r.Method,
		}

		caller := auth.MustGetCaller(r.Context())
		if caller == "" {
			http.Error(w, "No authorization information for request", http.StatusUnauthorized)
			return
		}

		if r.Method != "POST" {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		action := strings.TrimPrefix(r.URL.Path, "/api/v1/admin/")
		switch action {
		case "pause":
			if err := srv.Registry.Pause(r.Context(), caller); err != nil {
				respondRegistryError(w, srv, err, logArgs)
				return
			}
			w.WriteHeader(http.StatusNoContent)

		case "unpause":
			if err := srv.Registry.Unpause(r.Context(), caller); err != nil {
				respondRegistryError(w, srv, err, logArgs)
				return
			}
			w.WriteHeader(http.StatusNoContent)

		case "max-document-size":
			var req MaxDocumentSizeRequest
			if !decodeJSON(w, r, &req) {
				return
			}
			if err := srv.Registry.SetMaxDocumentSize(r.Context(), req.Bytes, caller); err != nil {
				respondRegistryError(w, srv, err, logArgs)
				return
			}
			w.WriteHeader(http.StatusNoContent)

		default:
			http.Error(w, "Not found", http.StatusNotFound)
		}
	})
}
