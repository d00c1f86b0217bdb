// Package api exposes the registry operation surface over HTTP.
//
// Registry error kinds map onto statuses: InvalidInput is 400, AccessDenied
// is 403, NotFound is 404, InvalidState and IdentifierCollision are 409, and
// RegistryPaused is 503. Reads keep working while the registry is paused.
package api

import (
	"net/http"

	"github.com/hashicorp-forge/docvault/internal/auth"
	"github.com/hashicorp-forge/docvault/internal/server"
)

// RegisterRoutes wires every API endpoint onto mux, wrapped in the caller
// identity middleware.
func RegisterRoutes(srv server.Server, mux *http.ServeMux) {
	mux.Handle("/api/v1/documents", auth.Middleware(DocumentsHandler(srv)))
	mux.Handle("/api/v1/documents/", auth.Middleware(DocumentHandler(srv)))
	mux.Handle("/api/v1/users/", auth.Middleware(UserDocumentsHandler(srv)))
	mux.Handle("/api/v1/stats", auth.Middleware(StatsHandler(srv)))
	mux.Handle("/api/v1/admin/", auth.Middleware(AdminHandler(srv)))
}
