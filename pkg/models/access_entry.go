package models

import (
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gorm.io/gorm"

	"github.com/hashicorp-forge/docvault/pkg/docid"
)

// AccessLevel is a document access level. Levels are totally ordered:
// None < View < Edit < Admin, and comparisons use that order directly.
type AccessLevel int

const (
	AccessLevelNone AccessLevel = iota
	AccessLevelView
	AccessLevelEdit
	AccessLevelAdmin
)

// IsValid returns true for a recognized access level, including None.
func (l AccessLevel) IsValid() bool {
	return l >= AccessLevelNone && l <= AccessLevelAdmin
}

// String returns the string representation of the access level.
func (l AccessLevel) String() string {
	switch l {
	case AccessLevelNone:
		return "none"
	case AccessLevelView:
		return "view"
	case AccessLevelEdit:
		return "edit"
	case AccessLevelAdmin:
		return "admin"
	default:
		return fmt.Sprintf("access-level-%d", int(l))
	}
}

// ParseAccessLevel parses an access level from its string form.
func ParseAccessLevel(s string) (AccessLevel, error) {
	switch s {
	case "none":
		return AccessLevelNone, nil
	case "view":
		return AccessLevelView, nil
	case "edit":
		return AccessLevelEdit, nil
	case "admin":
		return AccessLevelAdmin, nil
	default:
		return AccessLevelNone, fmt.Errorf("invalid access level: %q", s)
	}
}

// AccessEntry is one user's grant on one document version, keyed by
// (document ID, user identity).
//
// The autoincrement ID doubles as grant order: the per-document access list
// is the current entries ordered by ID. Overwriting a grant updates the row
// in place, so a re-granted user keeps their list position; revoking deletes
// the row outright.
//
// Expiry is lazy. Expired entries stay in storage and are ignored at check
// time; there is no background sweep.
type AccessEntry struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`

	DocID  docid.ID `gorm:"type:varchar(64);not null;uniqueIndex:idx_access_doc_user;index:idx_access_doc" json:"documentId"`
	UserID string   `gorm:"type:varchar(255);not null;uniqueIndex:idx_access_doc_user" json:"userId"`

	// Level is never AccessLevelNone: a grant of None is rejected up front
	// and revocation removes the row instead of zeroing it.
	Level AccessLevel `gorm:"not null" json:"level"`

	GrantedAt time.Time `gorm:"not null" json:"grantedAt"`

	// ExpiresAt is nil for grants that never expire.
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`

	// GrantedBy is the caller that created or last overwrote this entry.
	GrantedBy string `gorm:"type:varchar(255);not null" json:"grantedBy"`
}

// TableName specifies the table name.
func (AccessEntry) TableName() string {
	return "access_entries"
}

// Create inserts the access entry.
func (ae *AccessEntry) Create(db *gorm.DB) error {
	if err := validation.ValidateStruct(ae,
		validation.Field(&ae.UserID, validation.Required),
		validation.Field(&ae.GrantedBy, validation.Required),
	); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}
	if ae.DocID.IsZero() {
		return fmt.Errorf("validation error: document ID is required")
	}
	if ae.Level <= AccessLevelNone || !ae.Level.IsValid() {
		return fmt.Errorf("validation error: invalid grant level %d", ae.Level)
	}

	return db.Create(&ae).Error
}

// GetByDocAndUser retrieves the entry for (id, user).
// Returns gorm.ErrRecordNotFound if the user holds no entry.
func (ae *AccessEntry) GetByDocAndUser(db *gorm.DB, id docid.ID, user string) error {
	return db.
		Where("doc_id = ? AND user_id = ?", id, user).
		First(&ae).
		Error
}

// Overwrite replaces the entry's level, expiry, grantor, and grant time
// wholesale. The row (and its list position) is preserved.
func (ae *AccessEntry) Overwrite(db *gorm.DB, level AccessLevel, expiresAt *time.Time, grantedBy string, grantedAt time.Time) error {
	err := db.Model(&ae).Updates(map[string]interface{}{
		"level":      level,
		"expires_at": expiresAt,
		"granted_by": grantedBy,
		"granted_at": grantedAt,
	}).Error
	if err != nil {
		return err
	}

	ae.Level = level
	ae.ExpiresAt = expiresAt
	ae.GrantedBy = grantedBy
	ae.GrantedAt = grantedAt
	return nil
}

// Delete removes the entry entirely: presence itself is revoked, so a later
// grant for the same user counts as brand-new access.
func (ae *AccessEntry) Delete(db *gorm.DB) error {
	return db.Delete(&ae).Error
}

// EffectiveAt reports whether the entry grants at least required as of now.
// Pure: expired entries are ignored, never removed.
func (ae *AccessEntry) EffectiveAt(required AccessLevel, now time.Time) bool {
	if ae.ExpiresAt != nil && !ae.ExpiresAt.After(now) {
		return false
	}
	return ae.Level >= required
}

// GetAccessEntriesByDoc returns the document's current entries in grant
// order.
func GetAccessEntriesByDoc(db *gorm.DB, id docid.ID) ([]AccessEntry, error) {
	var entries []AccessEntry
	err := db.
		Where("doc_id = ?", id).
		Order("id ASC").
		Find(&entries).
		Error
	return entries, err
}
