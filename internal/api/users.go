package api

import (
	"net/http"
	"strings"

	"github.com/hashicorp-forge/docvault/internal/auth"
	"github.com/hashicorp-forge/docvault/internal/server"
	"github.com/hashicorp-forge/docvault/pkg/docid"
)

// UserDocumentsResponse is the response for the per-user index endpoints.
type UserDocumentsResponse struct {
	Documents []string `json:"documents"`
}

// UserDocumentsHandler serves the per-user reverse indices.
// Endpoints:
//
//	GET /api/v1/users/{user}/documents  - IDs created by the user, one per version
//	GET /api/v1/users/{user}/shared    - IDs shared with the user, first-time grants
func UserDocumentsHandler(srv server.Server) http.Handler {
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

		if r.Method != "GET" {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		// URL pattern: /api/v1/users/{user}/{index}
		pathParts := strings.Split(
			strings.TrimPrefix(r.URL.Path, "/api/v1/users/"), "/")
		if len(pathParts) != 2 || pathParts[0] == "" {
			http.Error(w, "Not found", http.StatusNotFound)
			return
		}
		user := pathParts[0]

		var (
			ids []docid.ID
			err error
		)
		switch pathParts[1] {
		case "documents":
			ids, err = srv.Registry.GetOwnedDocuments(r.Context(), user)
		case "shared":
			ids, err = srv.Registry.GetSharedDocuments(r.Context(), user)
		default:
			http.Error(w, "Not found", http.StatusNotFound)
			return
		}
		if err != nil {
			respondRegistryError(w, srv, err, logArgs)
			return
		}

		resp := UserDocumentsResponse{Documents: make([]string, 0, len(ids))}
		for _, id := range ids {
			resp.Documents = append(resp.Documents, id.String())
		}
		respondJSON(w, srv, http.StatusOK, resp, logArgs)
	})
}
