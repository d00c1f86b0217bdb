package registry

import (
	"context"

	"gorm.io/gorm"

	"github.com/hashicorp-forge/docvault/pkg/docid"
	"github.com/hashicorp-forge/docvault/pkg/models"
)

// UpdateRequest carries the replacement content fields for a new version.
// Owner, creation time, and content type always carry forward from the
// source version.
type UpdateRequest struct {
	ContentRef   string
	EncryptedKey string
	ByteSize     int64
	Metadata     string
}

// Update creates a new version of an active document and archives the
// source. The caller must hold effective Edit access on the source.
//
// The new record gets version source.Version+1 and links back to the source
// through its previous-version ID. Every current access entry on the source
// is copied to the new version as a snapshot: later ACL changes on either
// version do not propagate to the other.
//
// The running storage total moves by newSize - oldSize; the archived source
// is treated as replaced, its bytes are not freed separately.
func (r *Registry) Update(ctx context.Context, id docid.ID, req UpdateRequest, caller string) (docid.ID, error) {
	var (
		newID docid.ID
		audit models.AuditEntry
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		state, err := loadStateForWrite(tx)
		if err != nil {
			return err
		}

		src, err := getDocumentForUpdate(tx, id)
		if err != nil {
			return err
		}

		if req.ContentRef == "" {
			return invalidInputf("content reference is required")
		}
		if req.ByteSize <= 0 {
			return invalidInputf("document size must be positive")
		}
		if req.ByteSize > state.MaxDocumentSize {
			return invalidInputf("document size %d exceeds maximum %d",
				req.ByteSize, state.MaxDocumentSize)
		}

		now := r.now()
		ok, err := hasEffectiveAccess(tx, id, caller, models.AccessLevelEdit, now)
		if err != nil {
			return err
		}
		if !ok {
			return accessDeniedf("%s lacks edit access on %s", caller, id)
		}
		if src.Status != models.DocumentStatusActive {
			return invalidStatef("cannot update document with status %q", src.Status)
		}

		newVersion := src.Version + 1
		newID = docid.DeriveVersion(req.ContentRef, caller, now, uint64(newVersion))

		var existing models.Document
		switch err := existing.GetByID(tx, newID); err {
		case gorm.ErrRecordNotFound:
		case nil:
			return ErrIdentifierCollision
		default:
			return err
		}

		newDoc := models.Document{
			DocID:        newID,
			ContentRef:   req.ContentRef,
			EncryptedKey: req.EncryptedKey,
			Owner:        src.Owner,
			CreatedAt:    src.CreatedAt,
			UpdatedAt:    now,
			ByteSize:     req.ByteSize,
			ContentType:  src.ContentType,
			Metadata:     req.Metadata,
			Status:       models.DocumentStatusActive,
			Version:      newVersion,
			PreviousID:   src.DocID,
		}
		if err := newDoc.Create(tx); err != nil {
			return err
		}

		// Snapshot the source ACL onto the new version.
		entries, err := models.GetAccessEntriesByDoc(tx, id)
		if err != nil {
			return err
		}
		for _, e := range entries {
			copied := models.AccessEntry{
				DocID:     newID,
				UserID:    e.UserID,
				Level:     e.Level,
				GrantedAt: e.GrantedAt,
				ExpiresAt: e.ExpiresAt,
				GrantedBy: e.GrantedBy,
			}
			if err := copied.Create(tx); err != nil {
				return err
			}
		}

		if err := src.SetStatus(tx, models.DocumentStatusArchived); err != nil {
			return err
		}

		state.TotalCreated++
		state.StorageBytes += req.ByteSize - src.ByteSize
		if err := state.Save(tx); err != nil {
			return err
		}

		audit = models.AuditEntry{
			Kind:      models.AuditKindUpdate,
			DocID:     id,
			RelatedID: newID,
			Actor:     caller,
			CreatedAt: now,
		}
		return audit.Append(tx)
	})
	if err != nil {
		return docid.ID{}, err
	}

	r.log.Info("document updated", "doc_id", id, "new_doc_id", newID, "caller", caller)
	r.publish(ctx, audit)
	return newID, nil
}

// GetVersionHistory walks the version chain backward from id, newest first.
// The caller must be able to read the requested version; the chain itself is
// returned whole, since every version shares one owner.
func (r *Registry) GetVersionHistory(ctx context.Context, id docid.ID, caller string) ([]models.Document, error) {
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

	chain := []models.Document{*doc}
	for !doc.PreviousID.IsZero() {
		prev, err := getDocument(tx, doc.PreviousID)
		if err != nil {
			return nil, err
		}
		chain = append(chain, *prev)
		doc = prev
	}
	return chain, nil
}
