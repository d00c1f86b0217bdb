package api

import (
	"net/http"
	"time"

	"github.com/hashicorp-forge/docvault/internal/server"
	"github.com/hashicorp-forge/docvault/pkg/docid"
	"github.com/hashicorp-forge/docvault/pkg/models"
)

// ShareRequest is the request body for POST /api/v1/documents/{id}/access.
type ShareRequest struct {
	User  string `json:"user"`
	Level string `json:"level"`

	// ExpiresAt is optional; absent means the grant never expires.
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// HasAccessResponse is the response for
// GET /api/v1/documents/{id}/access/{user}.
type HasAccessResponse struct {
	Allowed bool `json:"allowed"`
}

// accessSubresourceHandler handles the access subresource of a document.
// Endpoints:
//
//	GET    /api/v1/documents/{id}/access
//	POST   /api/v1/documents/{id}/access
//	GET    /api/v1/documents/{id}/access/{user}?level=view
//	DELETE /api/v1/documents/{id}/access/{user}
func accessSubresourceHandler(srv server.Server, w http.ResponseWriter, r *http.Request, id docid.ID, rest []string, caller string, logArgs []any) {
	if len(rest) == 0 || rest[0] == "" {
		switch r.Method {
		case "GET":
			entries, err := srv.Registry.GetAccessList(r.Context(), id, caller)
			if err != nil {
				respondRegistryError(w, srv, err, logArgs)
				return
			}
			respondJSON(w, srv, http.StatusOK, entries, logArgs)

		case "POST":
			var req ShareRequest
			if !decodeJSON(w, r, &req) {
				return
			}
			level, err := models.ParseAccessLevel(req.Level)
			if err != nil {
				http.Error(w, "Invalid access level", http.StatusBadRequest)
				return
			}

			if err := srv.Registry.Share(r.Context(), id, req.User, level,
				req.ExpiresAt, caller); err != nil {
				respondRegistryError(w, srv, err, logArgs)
				return
			}
			w.WriteHeader(http.StatusNoContent)

		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	user := rest[0]
	switch r.Method {
	case "GET":
		level := models.AccessLevelView
		if s := r.URL.Query().Get("level"); s != "" {
			parsed, err := models.ParseAccessLevel(s)
			if err != nil {
				http.Error(w, "Invalid access level", http.StatusBadRequest)
				return
			}
			level = parsed
		}

		allowed, err := srv.Registry.HasAccess(r.Context(), id, user, level)
		if err != nil {
			respondRegistryError(w, srv, err, logArgs)
			return
		}
		respondJSON(w, srv, http.StatusOK, HasAccessResponse{Allowed: allowed}, logArgs)

	case "DELETE":
		if err := srv.Registry.RevokeAccess(r.Context(), id, user, caller); err != nil {
			respondRegistryError(w, srv, err, logArgs)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
