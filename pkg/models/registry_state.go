package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultMaxDocumentSize caps uploads when no explicit limit is configured.
const DefaultMaxDocumentSize int64 = 1 << 30 // 1 GiB

// RegistryState is the singleton row holding registry-wide counters and
// switches. It is created on first access and mutated only inside the same
// transaction as the document/ACL change it accounts for.
type RegistryState struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`

	// InstanceID identifies this registry instance.
	InstanceID uuid.UUID `gorm:"type:uuid;not null" json:"instanceId"`

	// TotalCreated counts every document row ever created, across all
	// versions. Monotonic. Also serves as the identifier derivation
	// counter for new uploads.
	TotalCreated int64 `gorm:"not null;default:0" json:"totalCreated"`

	// StorageBytes is the running active-storage total. Upload adds the
	// new size, update adjusts by the size delta, delete subtracts.
	// Archive leaves it untouched.
	StorageBytes int64 `gorm:"not null;default:0" json:"storageBytes"`

	// MaxDocumentSize is the upload size cap in bytes.
	MaxDocumentSize int64 `gorm:"not null" json:"maxDocumentSize"`

	// Paused halts every mutating operation while set. Reads continue.
	Paused bool `gorm:"not null;default:false" json:"paused"`
}

// TableName specifies the table name.
func (RegistryState) TableName() string {
	return "registry_state"
}

// BeforeCreate hook to ensure the instance ID is set.
func (rs *RegistryState) BeforeCreate(tx *gorm.DB) error {
	if rs.InstanceID == uuid.Nil {
		rs.InstanceID = uuid.New()
	}
	if rs.MaxDocumentSize == 0 {
		rs.MaxDocumentSize = DefaultMaxDocumentSize
	}
	return nil
}

// GetRegistryState loads the singleton row, creating it on first use.
func GetRegistryState(db *gorm.DB) (*RegistryState, error) {
	var rs RegistryState
	err := db.First(&rs).Error
	if err == gorm.ErrRecordNotFound {
		rs = RegistryState{}
		if err := db.Create(&rs).Error; err != nil {
			return nil, err
		}
		return &rs, nil
	}
	if err != nil {
		return nil, err
	}
	return &rs, nil
}

// GetRegistryStateForUpdate loads the singleton row while taking a
// row-level write lock, so concurrent writers serialize on the counters
// instead of both reading the same values. Creates the row on first use.
func GetRegistryStateForUpdate(db *gorm.DB) (*RegistryState, error) {
	var rs RegistryState
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&rs).Error
	if err == gorm.ErrRecordNotFound {
		rs = RegistryState{}
		if err := db.Create(&rs).Error; err != nil {
			return nil, err
		}
		return &rs, nil
	}
	if err != nil {
		return nil, err
	}
	return &rs, nil
}

// Save persists counter and switch changes.
func (rs *RegistryState) Save(db *gorm.DB) error {
	return db.Model(&rs).Updates(map[string]interface{}{
		"total_created":     rs.TotalCreated,
		"storage_bytes":     rs.StorageBytes,
		"max_document_size": rs.MaxDocumentSize,
		"paused":            rs.Paused,
	}).Error
}
