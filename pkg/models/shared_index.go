package models

import (
	"gorm.io/gorm"

	"github.com/hashicorp-forge/docvault/pkg/docid"
)

// SharedDocIndexEntry is the reverse index from a user to the documents they
// received a first-time access grant for.
//
// The index is append-only and never cleaned: revoking access leaves the
// entry behind, and a later re-share appends a fresh one, so duplicates are
// possible and meaningful (one entry per first-time grant event).
type SharedDocIndexEntry struct {
	ID uint `gorm:"primaryKey"`

	UserID string   `gorm:"type:varchar(255);not null;index:idx_shared_index_user"`
	DocID  docid.ID `gorm:"type:varchar(64);not null"`
}

// TableName specifies the table name.
func (SharedDocIndexEntry) TableName() string {
	return "shared_doc_index"
}

// Append records a first-time grant of id to user.
func (se *SharedDocIndexEntry) Append(db *gorm.DB) error {
	return db.Create(&se).Error
}

// GetSharedDocIDsByUser returns the document IDs shared with user, in grant
// order, duplicates preserved.
func GetSharedDocIDsByUser(db *gorm.DB, user string) ([]docid.ID, error) {
	var entries []SharedDocIndexEntry
	err := db.
		Where("user_id = ?", user).
		Order("id ASC").
		Find(&entries).
		Error
	if err != nil {
		return nil, err
	}

	ids := make([]docid.ID, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.DocID)
	}
	return ids, nil
}
