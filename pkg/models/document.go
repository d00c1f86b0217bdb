package models

import (
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hashicorp-forge/docvault/pkg/docid"
)

// Document is one version record of a registered document. Content bytes
// live in an external content-addressed store; the registry holds only the
// content reference and the client-encrypted key blob.
//
// Rows are never deleted: deletion and archival are status flips, and every
// update creates a fresh row linked to its predecessor through PreviousID.
type Document struct {
	// Seq is the global creation sequence. It orders the append-only list
	// of all IDs ever created and the per-owner index.
	Seq uint `gorm:"primaryKey" json:"-"`

	// DocID is the derived identifier (see pkg/docid). Immutable.
	DocID docid.ID `gorm:"type:varchar(64);uniqueIndex;not null" json:"id"`

	// ContentRef locates the document in the external content store.
	ContentRef string `gorm:"type:varchar(500);not null" json:"contentRef"`

	// EncryptedKey is the opaque client-encrypted key blob. The registry
	// never interprets it.
	EncryptedKey string `gorm:"type:text" json:"encryptedKey"`

	// Owner is the caller identity recorded at creation. Carried forward
	// unchanged to every later version.
	Owner string `gorm:"type:varchar(255);not null;index:idx_documents_owner" json:"owner"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// ByteSize is the size of the stored content in bytes.
	ByteSize int64 `gorm:"not null" json:"byteSize"`

	// ContentType is the MIME type string supplied at upload.
	ContentType string `gorm:"type:varchar(255);not null" json:"contentType"`

	// Metadata is a free-form string the registry stores but never reads.
	Metadata string `gorm:"type:text" json:"metadata"`

	// Status is one of the DocumentStatus* constants.
	Status string `gorm:"type:varchar(20);not null;default:'active';index:idx_documents_status" json:"status"`

	// Version starts at 1 and increases by exactly one along the chain.
	Version int `gorm:"not null;default:1" json:"version"`

	// PreviousID links to the superseded version. Zero for version 1.
	PreviousID docid.ID `gorm:"type:varchar(64)" json:"previousId,omitempty"`
}

// Document status values.
const (
	DocumentStatusActive   = "active"
	DocumentStatusArchived = "archived"
	DocumentStatusDeleted  = "deleted"
)

// TableName specifies the table name.
func (Document) TableName() string {
	return "documents"
}

// Create inserts the document row.
func (d *Document) Create(db *gorm.DB) error {
	if err := validation.ValidateStruct(d,
		validation.Field(&d.ContentRef, validation.Required),
		validation.Field(&d.Owner, validation.Required),
		validation.Field(&d.ContentType, validation.Required),
		validation.Field(&d.Status, validation.Required),
		validation.Field(&d.Version, validation.Min(1)),
	); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}
	if d.DocID.IsZero() {
		return fmt.Errorf("validation error: document ID is required")
	}

	return db.Create(&d).Error
}

// GetByID retrieves a document by its derived identifier.
// Returns gorm.ErrRecordNotFound if no row exists.
func (d *Document) GetByID(db *gorm.DB, id docid.ID) error {
	return db.
		Where("doc_id = ?", id).
		First(&d).
		Error
}

// GetByIDForUpdate retrieves a document by its derived identifier while
// taking a row-level write lock, so concurrent mutations of the same
// document serialize at the row. SQLite has no row locks; its driver drops
// the clause and serializes writers itself.
func (d *Document) GetByIDForUpdate(db *gorm.DB, id docid.ID) error {
	return db.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("doc_id = ?", id).
		First(&d).
		Error
}

// SetStatus flips the document's status. Internal to the registry's
// transaction paths; never exposed as a standalone capability.
func (d *Document) SetStatus(db *gorm.DB, status string) error {
	switch status {
	case DocumentStatusActive, DocumentStatusArchived, DocumentStatusDeleted:
	default:
		return fmt.Errorf("invalid document status: %q", status)
	}

	if err := db.Model(&d).Update("status", status).Error; err != nil {
		return err
	}
	d.Status = status
	return nil
}

// GetDocumentsByOwner returns every document row created by owner, in
// creation order. Each version has its own row, so a chain of n versions
// contributes n entries.
func GetDocumentsByOwner(db *gorm.DB, owner string) ([]Document, error) {
	var docs []Document
	err := db.
		Where("owner = ?", owner).
		Order("seq ASC").
		Find(&docs).
		Error
	return docs, err
}

// CountDocumentsByStatus tallies rows per status across every document ever
// created. A full scan by design: it backs a read-only diagnostic.
func CountDocumentsByStatus(db *gorm.DB) (map[string]int64, error) {
	type row struct {
		Status string
		N      int64
	}
	var rows []row
	err := db.
		Model(&Document{}).
		Select("status, count(*) as n").
		Group("status").
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}

	counts := map[string]int64{
		DocumentStatusActive:   0,
		DocumentStatusArchived: 0,
		DocumentStatusDeleted:  0,
	}
	for _, r := range rows {
		counts[r.Status] = r.N
	}
	return counts, nil
}
