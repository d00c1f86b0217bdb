package registry

import (
	"context"

	"gorm.io/gorm"

	"github.com/hashicorp-forge/docvault/pkg/docid"
	"github.com/hashicorp-forge/docvault/pkg/models"
)

// SetMaxDocumentSize changes the upload size cap. Registry admins only.
func (r *Registry) SetMaxDocumentSize(ctx context.Context, bytes int64, caller string) error {
	if !r.IsRegistryAdmin(caller) {
		return accessDeniedf("%s is not a registry admin", caller)
	}
	if bytes <= 0 {
		return invalidInputf("maximum document size must be positive")
	}

	var audit models.AuditEntry
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		state, err := loadStateForWrite(tx)
		if err != nil {
			return err
		}

		state.MaxDocumentSize = bytes
		if err := state.Save(tx); err != nil {
			return err
		}

		audit = models.AuditEntry{
			Kind:      models.AuditKindSetMaxSize,
			Actor:     caller,
			CreatedAt: r.now(),
		}
		return audit.Append(tx)
	})
	if err != nil {
		return err
	}

	r.log.Info("max document size changed", "bytes", bytes, "caller", caller)
	r.publish(ctx, audit)
	return nil
}

// Pause halts every mutating operation until Unpause. Reads keep working.
// Registry admins only.
func (r *Registry) Pause(ctx context.Context, caller string) error {
	return r.setPaused(ctx, caller, true)
}

// Unpause lifts a pause. Registry admins only.
func (r *Registry) Unpause(ctx context.Context, caller string) error {
	return r.setPaused(ctx, caller, false)
}

func (r *Registry) setPaused(ctx context.Context, caller string, paused bool) error {
	if !r.IsRegistryAdmin(caller) {
		return accessDeniedf("%s is not a registry admin", caller)
	}

	kind := models.AuditKindPause
	if !paused {
		kind = models.AuditKindUnpause
	}

	var audit models.AuditEntry
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Not loadStateForWrite: pause and unpause must work while paused.
		state, err := models.GetRegistryStateForUpdate(tx)
		if err != nil {
			return err
		}

		state.Paused = paused
		if err := state.Save(tx); err != nil {
			return err
		}

		audit = models.AuditEntry{
			Kind:      kind,
			Actor:     caller,
			CreatedAt: r.now(),
		}
		return audit.Append(tx)
	})
	if err != nil {
		return err
	}

	r.log.Info("registry pause state changed", "paused", paused, "caller", caller)
	r.publish(ctx, audit)
	return nil
}

// IsPaused reports the registry pause flag.
func (r *Registry) IsPaused(ctx context.Context) (bool, error) {
	state, err := models.GetRegistryState(r.db.WithContext(ctx))
	if err != nil {
		return false, err
	}
	return state.Paused, nil
}

// GetAuditTrail returns the audit entries whose subject or related document
// is id, in log order. The caller must be able to read the document. The
// registry itself never consumes this; it exists for external observers.
func (r *Registry) GetAuditTrail(ctx context.Context, id docid.ID, caller string) ([]models.AuditEntry, error) {
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

	return models.GetAuditEntriesByDoc(tx, id)
}
