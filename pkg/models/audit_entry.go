package models

import (
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gorm.io/gorm"

	"github.com/hashicorp-forge/docvault/pkg/docid"
)

// Audit operation kinds, one per mutating registry operation.
const (
	AuditKindUpload     = "upload"
	AuditKindShare      = "share"
	AuditKindUpdate     = "update"
	AuditKindRevoke     = "revoke"
	AuditKindDelete     = "delete"
	AuditKindArchive    = "archive"
	AuditKindPause      = "pause"
	AuditKindUnpause    = "unpause"
	AuditKindSetMaxSize = "set_max_size"
)

// AuditEntry is one immutable record of a successful mutating operation.
//
// Entries are appended in the same transaction as the state change they
// describe, so the log and registry state can never disagree. They are never
// edited or removed, and the registry never reads its own log; it exists for
// external observers to reconstruct history.
type AuditEntry struct {
	// ID is the log sequence number.
	ID uint `gorm:"primaryKey" json:"seq"`

	Kind string `gorm:"type:varchar(20);not null" json:"kind"`

	// DocID is the subject document. Zero for registry-wide operations
	// (pause, unpause, set_max_size).
	DocID docid.ID `gorm:"type:varchar(64);index:idx_audit_doc" json:"documentId,omitempty"`

	// RelatedID is the newly created version ID on update entries, zero
	// otherwise.
	RelatedID docid.ID `gorm:"type:varchar(64)" json:"relatedId,omitempty"`

	// Actor is the caller identity that performed the operation.
	Actor string `gorm:"type:varchar(255);not null" json:"actor"`

	CreatedAt time.Time `json:"at"`
}

// TableName specifies the table name.
func (AuditEntry) TableName() string {
	return "audit_entries"
}

// Append writes the entry. Must run inside the transaction that applies the
// operation it records.
func (a *AuditEntry) Append(db *gorm.DB) error {
	if err := validation.ValidateStruct(a,
		validation.Field(&a.Kind, validation.Required),
		validation.Field(&a.Actor, validation.Required),
	); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	return db.Create(&a).Error
}

// GetAuditEntriesByDoc returns the entries whose subject or related ID is
// id, in log order. Update entries are found from either end of the link.
func GetAuditEntriesByDoc(db *gorm.DB, id docid.ID) ([]AuditEntry, error) {
	var entries []AuditEntry
	err := db.
		Where("doc_id = ? OR related_id = ?", id, id).
		Order("id ASC").
		Find(&entries).
		Error
	return entries, err
}
