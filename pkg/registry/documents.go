package registry

import (
	"context"

	"gorm.io/gorm"

	"github.com/hashicorp-forge/docvault/pkg/docid"
	"github.com/hashicorp-forge/docvault/pkg/models"
)

// UploadRequest carries the caller-supplied fields for a new document.
// ContentRef locates the bytes in the external content store; EncryptedKey
// is the opaque client-encrypted key blob.
type UploadRequest struct {
	ContentRef   string
	EncryptedKey string
	ByteSize     int64
	ContentType  string
	Metadata     string
}

// Upload registers a new document and grants caller a permanent admin entry
// in the same transaction.
func (r *Registry) Upload(ctx context.Context, req UploadRequest, caller string) (docid.ID, error) {
	if caller == "" {
		return docid.ID{}, invalidInputf("caller identity is required")
	}
	if req.ContentRef == "" {
		return docid.ID{}, invalidInputf("content reference is required")
	}
	if req.ContentType == "" {
		return docid.ID{}, invalidInputf("content type is required")
	}
	if req.ByteSize <= 0 {
		return docid.ID{}, invalidInputf("document size must be positive")
	}

	var (
		id    docid.ID
		audit models.AuditEntry
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		state, err := loadStateForWrite(tx)
		if err != nil {
			return err
		}
		if req.ByteSize > state.MaxDocumentSize {
			return invalidInputf("document size %d exceeds maximum %d",
				req.ByteSize, state.MaxDocumentSize)
		}

		now := r.now()
		id = docid.Derive(req.ContentRef, caller, now, uint64(state.TotalCreated))

		// Defensive check: the derivation is collision-free in practice.
		var existing models.Document
		switch err := existing.GetByID(tx, id); err {
		case gorm.ErrRecordNotFound:
		case nil:
			return ErrIdentifierCollision
		default:
			return err
		}

		doc := models.Document{
			DocID:        id,
			ContentRef:   req.ContentRef,
			EncryptedKey: req.EncryptedKey,
			Owner:        caller,
			CreatedAt:    now,
			UpdatedAt:    now,
			ByteSize:     req.ByteSize,
			ContentType:  req.ContentType,
			Metadata:     req.Metadata,
			Status:       models.DocumentStatusActive,
			Version:      1,
		}
		if err := doc.Create(tx); err != nil {
			return err
		}

		// The owner's admin entry never expires and is never revocable.
		ownerEntry := models.AccessEntry{
			DocID:     id,
			UserID:    caller,
			Level:     models.AccessLevelAdmin,
			GrantedAt: now,
			GrantedBy: caller,
		}
		if err := ownerEntry.Create(tx); err != nil {
			return err
		}

		state.TotalCreated++
		state.StorageBytes += req.ByteSize
		if err := state.Save(tx); err != nil {
			return err
		}

		audit = models.AuditEntry{
			Kind:      models.AuditKindUpload,
			DocID:     id,
			Actor:     caller,
			CreatedAt: now,
		}
		return audit.Append(tx)
	})
	if err != nil {
		return docid.ID{}, err
	}

	r.log.Info("document uploaded", "doc_id", id, "owner", caller, "bytes", req.ByteSize)
	r.publish(ctx, audit)
	return id, nil
}

// GetDocument returns the document record for id. The caller must be the
// original owner or hold at least View-level effective access.
func (r *Registry) GetDocument(ctx context.Context, id docid.ID, caller string) (*models.Document, error) {
	tx := r.db.WithContext(ctx)

	doc, err := getDocument(tx, id)
	if err != nil {
		return nil, err
	}

	ok, err := canRead(tx, doc, caller, r.now())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, accessDeniedf("%s cannot read document %s", caller, id)
	}
	return doc, nil
}

// ArchiveDocument sets an active document's status to Archived. Requires
// effective Admin access. The storage total is left untouched.
func (r *Registry) ArchiveDocument(ctx context.Context, id docid.ID, caller string) error {
	var audit models.AuditEntry
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := loadStateForWrite(tx); err != nil {
			return err
		}

		doc, err := getDocumentForUpdate(tx, id)
		if err != nil {
			return err
		}

		now := r.now()
		ok, err := hasEffectiveAccess(tx, id, caller, models.AccessLevelAdmin, now)
		if err != nil {
			return err
		}
		if !ok {
			return accessDeniedf("%s lacks admin access on %s", caller, id)
		}
		if doc.Status != models.DocumentStatusActive {
			return invalidStatef("cannot archive document with status %q", doc.Status)
		}

		if err := doc.SetStatus(tx, models.DocumentStatusArchived); err != nil {
			return err
		}

		audit = models.AuditEntry{
			Kind:      models.AuditKindArchive,
			DocID:     id,
			Actor:     caller,
			CreatedAt: now,
		}
		return audit.Append(tx)
	})
	if err != nil {
		return err
	}

	r.log.Info("document archived", "doc_id", id, "caller", caller)
	r.publish(ctx, audit)
	return nil
}

// DeleteDocument logically deletes a document: the row, its ACLs, its audit
// history, and its index entries all remain. Only the owner may delete; an
// admin grantee who is not the owner cannot. The document's size is removed
// from the running storage total.
func (r *Registry) DeleteDocument(ctx context.Context, id docid.ID, caller string) error {
	var audit models.AuditEntry
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		state, err := loadStateForWrite(tx)
		if err != nil {
			return err
		}

		doc, err := getDocumentForUpdate(tx, id)
		if err != nil {
			return err
		}
		if doc.Owner != caller {
			return accessDeniedf("only the owner may delete document %s", id)
		}
		if doc.Status == models.DocumentStatusDeleted {
			return invalidStatef("document %s is already deleted", id)
		}

		if err := doc.SetStatus(tx, models.DocumentStatusDeleted); err != nil {
			return err
		}

		state.StorageBytes -= doc.ByteSize
		if err := state.Save(tx); err != nil {
			return err
		}

		audit = models.AuditEntry{
			Kind:      models.AuditKindDelete,
			DocID:     id,
			Actor:     caller,
			CreatedAt: r.now(),
		}
		return audit.Append(tx)
	})
	if err != nil {
		return err
	}

	r.log.Info("document deleted", "doc_id", id, "caller", caller)
	r.publish(ctx, audit)
	return nil
}

// GetOwnedDocuments returns every document ID created by user in creation
// order, one entry per version. Deleted and archived documents stay listed.
func (r *Registry) GetOwnedDocuments(ctx context.Context, user string) ([]docid.ID, error) {
	docs, err := models.GetDocumentsByOwner(r.db.WithContext(ctx), user)
	if err != nil {
		return nil, err
	}

	ids := make([]docid.ID, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.DocID)
	}
	return ids, nil
}

// GetSharedDocuments returns the document IDs user received a first-time
// access grant for, in grant order. The index is append-only: revoked
// documents stay listed, and a revoke followed by a re-share appends a
// second entry.
func (r *Registry) GetSharedDocuments(ctx context.Context, user string) ([]docid.ID, error) {
	return models.GetSharedDocIDsByUser(r.db.WithContext(ctx), user)
}
