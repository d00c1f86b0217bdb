// Package registry implements the document metadata registry: the canonical
// document store, per-document access control, version-chain management,
// registry-wide statistics, and the append-only audit log.
//
// Every mutating operation runs as a single database transaction and takes
// row-level write locks on the registry state row and the source document,
// so writers touching the same document serialize. Preconditions are checked
// after the lock is held: a caller racing a conflicting writer observes the
// winner's committed state and fails its own precondition check.
package registry

import (
	"context"
	"time"

	"github.com/hashicorp/go-hclog"
	"gorm.io/gorm"

	"github.com/hashicorp-forge/docvault/pkg/docid"
	"github.com/hashicorp-forge/docvault/pkg/models"
)

// AuditPublisher mirrors committed audit entries to an external sink, such
// as a Kafka topic. Publishing happens after commit and is fire-and-forget;
// the registry never reads the mirror back.
type AuditPublisher interface {
	Publish(ctx context.Context, entry models.AuditEntry)
}

// Registry is the shared registry state handle. All state is reachable only
// through its operations; there are no ambient globals.
type Registry struct {
	db  *gorm.DB
	log hclog.Logger

	// admins holds the registry-admin identities allowed to pause the
	// registry and change the size cap.
	admins map[string]struct{}

	publisher AuditPublisher

	// now is the clock, overridable in tests.
	now func() time.Time
}

// Option configures a Registry.
type Option func(*Registry)

// WithAdmins sets the registry-admin identity list.
func WithAdmins(admins []string) Option {
	return func(r *Registry) {
		for _, a := range admins {
			r.admins[a] = struct{}{}
		}
	}
}

// WithAuditPublisher sets an external audit mirror.
func WithAuditPublisher(p AuditPublisher) Option {
	return func(r *Registry) {
		r.publisher = p
	}
}

// WithClock overrides the registry clock.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		r.now = now
	}
}

// New creates a Registry backed by db.
func New(db *gorm.DB, log hclog.Logger, opts ...Option) *Registry {
	if log == nil {
		log = hclog.NewNullLogger()
	}

	r := &Registry{
		db:     db,
		log:    log,
		admins: make(map[string]struct{}),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// IsRegistryAdmin reports whether caller is on the configured registry-admin
// list.
func (r *Registry) IsRegistryAdmin(caller string) bool {
	_, ok := r.admins[caller]
	return ok
}

// publish mirrors entry to the configured publisher, if any. Called only
// after the owning transaction has committed.
func (r *Registry) publish(ctx context.Context, entry models.AuditEntry) {
	if r.publisher != nil {
		r.publisher.Publish(ctx, entry)
	}
}

// loadStateForWrite loads the singleton registry state inside tx, locking
// the row so concurrent mutations serialize on the counters, and rejects the
// operation if the registry is paused.
func loadStateForWrite(tx *gorm.DB) (*models.RegistryState, error) {
	state, err := models.GetRegistryStateForUpdate(tx)
	if err != nil {
		return nil, err
	}
	if state.Paused {
		return nil, ErrRegistryPaused
	}
	return state, nil
}

// getDocument loads the document row for id, mapping a missing row to
// ErrNotFound.
func getDocument(tx *gorm.DB, id docid.ID) (*models.Document, error) {
	var doc models.Document
	if err := doc.GetByID(tx, id); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &doc, nil
}

// getDocumentForUpdate is getDocument with a row-level write lock. Every
// mutating path loads its source document through this, so two transactions
// touching the same document run strictly one after the other and the loser
// re-checks status against the winner's committed row.
func getDocumentForUpdate(tx *gorm.DB, id docid.ID) (*models.Document, error) {
	var doc models.Document
	if err := doc.GetByIDForUpdate(tx, id); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &doc, nil
}

// hasEffectiveAccess reports whether user holds an unexpired entry on id at
// or above required. Pure: expired entries are ignored in place, never
// removed (lazy expiry, no sweep).
func hasEffectiveAccess(tx *gorm.DB, id docid.ID, user string, required models.AccessLevel, now time.Time) (bool, error) {
	var entry models.AccessEntry
	err := entry.GetByDocAndUser(tx, id, user)
	if err == gorm.ErrRecordNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return entry.EffectiveAt(required, now), nil
}

// canRead reports whether caller may read doc: original owner, or at least
// View-level effective access.
func canRead(tx *gorm.DB, doc *models.Document, caller string, now time.Time) (bool, error) {
	if doc.Owner == caller {
		return true, nil
	}
	return hasEffectiveAccess(tx, doc.DocID, caller, models.AccessLevelView, now)
}
