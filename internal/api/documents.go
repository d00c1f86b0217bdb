package api

import (
	"net/http"
	"strings"

	"github.com/hashicorp-forge/docvault/internal/auth"
	"github.com/hashicorp-forge/docvault/internal/server"
	"github.com/hashicorp-forge/docvault/pkg/docid"
	"github.com/hashicorp-forge/docvault/pkg/registry"
)

// DocumentUploadRequest is the request body for POST /api/v1/documents.
type DocumentUploadRequest struct {
	ContentRef   string `json:"contentRef"`
	EncryptedKey string `json:"encryptedKey"`
	ByteSize     int64  `json:"byteSize"`
	ContentType  string `json:"contentType"`
	Metadata     string `json:"metadata"`
}

// DocumentUploadResponse is the response for POST /api/v1/documents.
type DocumentUploadResponse struct {
	ID string `json:"id"`
}

// DocumentsHandler handles requests for the documents collection.
// Endpoint: POST /api/v1/documents
func DocumentsHandler(srv server.Server) http.Handler {
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

		switch r.Method {
		case "POST":
			var req DocumentUploadRequest
			if !decodeJSON(w, r, &req) {
				return
			}

			id, err := srv.Registry.Upload(r.Context(), registry.UploadRequest{
				ContentRef:   req.ContentRef,
				EncryptedKey: req.EncryptedKey,
				ByteSize:     req.ByteSize,
				ContentType:  req.ContentType,
				Metadata:     req.Metadata,
			}, caller)
			if err != nil {
				respondRegistryError(w, srv, err, logArgs)
				return
			}

			respondJSON(w, srv, http.StatusCreated,
				DocumentUploadResponse{ID: id.String()}, logArgs)

		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
}

// DocumentUpdateRequest is the request body for
// POST /api/v1/documents/{id}/update.
type DocumentUpdateRequest struct {
	ContentRef   string `json:"contentRef"`
	EncryptedKey string `json:"encryptedKey"`
	ByteSize     int64  `json:"byteSize"`
	Metadata     string `json:"metadata"`
}

// DocumentHandler handles requests for a single document and its
// subresources.
// Endpoints:
//
//	GET    /api/v1/documents/{id}
//	DELETE /api/v1/documents/{id}
//	POST   /api/v1/documents/{id}/update
//	POST   /api/v1/documents/{id}/archive
//	GET    /api/v1/documents/{id}/versions
//	GET    /api/v1/documents/{id}/audit
func DocumentHandler(srv server.Server) http.Handler {
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

		// URL pattern: /api/v1/documents/{id}[/{subresource}]
		pathParts := strings.Split(
			strings.TrimPrefix(r.URL.Path, "/api/v1/documents/"), "/")
		if len(pathParts) == 0 || pathParts[0] == "" {
			http.Error(w, "Document ID required", http.StatusBadRequest)
			return
		}

		id, err := docid.Parse(pathParts[0])
		if err != nil {
			http.Error(w, "Invalid document ID", http.StatusBadRequest)
			return
		}
		logArgs = append(logArgs, "doc_id", id)

		if len(pathParts) == 1 {
			switch r.Method {
			case "GET":
				doc, err := srv.Registry.GetDocument(r.Context(), id, caller)
				if err != nil {
					respondRegistryError(w, srv, err, logArgs)
					return
				}
				respondJSON(w, srv, http.StatusOK, doc, logArgs)

			case "DELETE":
				if err := srv.Registry.DeleteDocument(r.Context(), id, caller); err != nil {
					respondRegistryError(w, srv, err, logArgs)
					return
				}
				w.WriteHeader(http.StatusNoContent)

			default:
				http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			}
			return
		}

		switch pathParts[1] {
		case "update":
			if r.Method != "POST" {
				http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
				return
			}
			var req DocumentUpdateRequest
			if !decodeJSON(w, r, &req) {
				return
			}

			newID, err := srv.Registry.Update(r.Context(), id, registry.UpdateRequest{
				ContentRef:   req.ContentRef,
				EncryptedKey: req.EncryptedKey,
				ByteSize:     req.ByteSize,
				Metadata:     req.Metadata,
			}, caller)
			if err != nil {
				respondRegistryError(w, srv, err, logArgs)
				return
			}
			respondJSON(w, srv, http.StatusCreated,
				DocumentUploadResponse{ID: newID.String()}, logArgs)

		case "archive":
			if r.Method != "POST" {
				http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
				return
			}
			if err := srv.Registry.ArchiveDocument(r.Context(), id, caller); err != nil {
				respondRegistryError(w, srv, err, logArgs)
				return
			}
			w.WriteHeader(http.StatusNoContent)

		case "versions":
			if r.Method != "GET" {
				http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
				return
			}
			chain, err := srv.Registry.GetVersionHistory(r.Context(), id, caller)
			if err != nil {
				respondRegistryError(w, srv, err, logArgs)
				return
			}
			respondJSON(w, srv, http.StatusOK, chain, logArgs)

		case "audit":
			if r.Method != "GET" {
				http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
				return
			}
			trail, err := srv.Registry.GetAuditTrail(r.Context(), id, caller)
			if err != nil {
				respondRegistryError(w, srv, err, logArgs)
				return
			}
			respondJSON(w, srv, http.StatusOK, trail, logArgs)

		case "access":
			accessSubresourceHandler(srv, w, r, id, pathParts[2:], caller, logArgs)

		default:
			http.Error(w, "Not found", http.StatusNotFound)
		}
	})
}
