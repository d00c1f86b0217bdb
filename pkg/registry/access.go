package registry

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/hashicorp-forge/docvault/pkg/docid"
	"github.com/hashicorp-forge/docvault/pkg/models"
)

// Share grants (or wholesale overwrites) grantee's access entry on an active
// document. The caller must hold effective Admin access. A nil expiresAt
// means the grant never expires; a non-nil one must be strictly in the
// future. The owner cannot be a grantee; their Admin entry is permanent.
//
// A first-time grant appends grantee to the document's access list and to
// grantee's shared-with index; an overwrite changes the existing entry in
// place and touches neither index.
func (r *Registry) Share(ctx context.Context, id docid.ID, grantee string, level models.AccessLevel, expiresAt *time.Time, caller string) error {
	var audit models.AuditEntry
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := loadStateForWrite(tx); err != nil {
			return err
		}

		doc, err := getDocumentForUpdate(tx, id)
		if err != nil {
			return err
		}

		if grantee == "" {
			return invalidInputf("grantee identity is required")
		}
		if grantee == caller {
			return invalidInputf("cannot share a document with yourself")
		}
		if grantee == doc.Owner {
			return invalidInputf("owner access cannot be regranted")
		}
		if level == models.AccessLevelNone || !level.IsValid() {
			return invalidInputf("invalid grant level %d", level)
		}

		now := r.now()
		if expiresAt != nil && !expiresAt.After(now) {
			return invalidInputf("expiry must be in the future")
		}

		ok, err := hasEffectiveAccess(tx, id, caller, models.AccessLevelAdmin, now)
		if err != nil {
			return err
		}
		if !ok {
			return accessDeniedf("%s lacks admin access on %s", caller, id)
		}
		if doc.Status != models.DocumentStatusActive {
			return invalidStatef("cannot share document with status %q", doc.Status)
		}

		var entry models.AccessEntry
		switch err := entry.GetByDocAndUser(tx, id, grantee); err {
		case nil:
			// Overwrite replaces the grant wholesale, not additively.
			if err := entry.Overwrite(tx, level, expiresAt, caller, now); err != nil {
				return err
			}
		case gorm.ErrRecordNotFound:
			entry = models.AccessEntry{
				DocID:     id,
				UserID:    grantee,
				Level:     level,
				GrantedAt: now,
				ExpiresAt: expiresAt,
				GrantedBy: caller,
			}
			if err := entry.Create(tx); err != nil {
				return err
			}

			indexEntry := models.SharedDocIndexEntry{
				UserID: grantee,
				DocID:  id,
			}
			if err := indexEntry.Append(tx); err != nil {
				return err
			}
		default:
			return err
		}

		audit = models.AuditEntry{
			Kind:      models.AuditKindShare,
			DocID:     id,
			Actor:     caller,
			CreatedAt: now,
		}
		return audit.Append(tx)
	})
	if err != nil {
		return err
	}

	r.log.Info("document shared", "doc_id", id, "grantee", grantee,
		"level", level.String(), "caller", caller)
	r.publish(ctx, audit)
	return nil
}

// RevokeAccess removes target's access entry entirely. Presence itself is
// revoked: a later hasAccess check fails immediately, and a later Share for
// the same user counts as a brand-new grant. The owner's entry is permanent
// and cannot be revoked.
func (r *Registry) RevokeAccess(ctx context.Context, id docid.ID, target string, caller string) error {
	var audit models.AuditEntry
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := loadStateForWrite(tx); err != nil {
			return err
		}

		doc, err := getDocumentForUpdate(tx, id)
		if err != nil {
			return err
		}
		if target == doc.Owner {
			return invalidInputf("owner access cannot be revoked")
		}

		now := r.now()
		ok, err := hasEffectiveAccess(tx, id, caller, models.AccessLevelAdmin, now)
		if err != nil {
			return err
		}
		if !ok {
			return accessDeniedf("%s lacks admin access on %s", caller, id)
		}

		var entry models.AccessEntry
		switch err := entry.GetByDocAndUser(tx, id, target); err {
		case nil:
			if err := entry.Delete(tx); err != nil {
				return err
			}
		case gorm.ErrRecordNotFound:
			// Nothing to remove; the revoke still commits and is logged.
		default:
			return err
		}

		audit = models.AuditEntry{
			Kind:      models.AuditKindRevoke,
			DocID:     id,
			Actor:     caller,
			CreatedAt: now,
		}
		return audit.Append(tx)
	})
	if err != nil {
		return err
	}

	r.log.Info("access revoked", "doc_id", id, "target", target, "caller", caller)
	r.publish(ctx, audit)
	return nil
}

// HasAccess reports whether user holds an unexpired entry on id at or above
// level. Pure and side-effect-free: an unknown document or missing entry is
// simply false, and expired entries are ignored where they sit.
func (r *Registry) HasAccess(ctx context.Context, id docid.ID, user string, level models.AccessLevel) (bool, error) {
	return hasEffectiveAccess(r.db.WithContext(ctx), id, user, level, r.now())
}

// GetAccessList returns the document's current access entries in grant
// order. The caller must be the owner or hold at least View-level effective
// access. Expired entries are included; they remain until revoked or
// overwritten.
func (r *Registry) GetAccessList(ctx context.Context, id docid.ID, caller string) ([]models.AccessEntry, error) {
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

	return models.GetAccessEntriesByDoc(tx, id)
}
