package docid

import (
	"crypto/sha256"
	"database/sql/driver"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// EncodedLen is the length of an ID's string form: a full SHA-256 digest,
// hex encoded.
const EncodedLen = 64

// ID is a stable, globally unique document identifier.
//
// Each version of a document gets its own ID; the logical document is the
// backward chain of version records rooted at the first upload.
//
// IDs are immutable once created.
type ID struct {
	value string
}

// Derive computes the ID for a new document from its content reference, the
// uploading caller, the creation time, and the registry's creation counter.
func Derive(contentRef, caller string, at time.Time, counter uint64) ID {
	return derive(contentRef, caller, at, counter)
}

// DeriveVersion computes the ID for a new version. The version number takes
// the place of the creation counter in the derivation.
func DeriveVersion(contentRef, caller string, at time.Time, version uint64) ID {
	return derive(contentRef, caller, at, version)
}

func derive(contentRef, caller string, at time.Time, n uint64) ID {
	h := sha256.New()
	h.Write([]byte(contentRef))
	h.Write([]byte{0})
	h.Write([]byte(caller))
	h.Write([]byte{0})

	var buf [16]byte
	binary.BigEndian.PutUint64(buf[:8], uint64(at.UnixNano()))
	binary.BigEndian.PutUint64(buf[8:], n)
	h.Write(buf[:])

	return ID{value: hex.EncodeToString(h.Sum(nil))}
}

// Parse parses an ID from its 64-character hex string form.
func Parse(s string) (ID, error) {
	if s == "" {
		return ID{}, fmt.Errorf("document ID cannot be empty")
	}
	if len(s) != EncodedLen {
		return ID{}, fmt.Errorf("invalid document ID length: %d (want %d)", len(s), EncodedLen)
	}
	if _, err := hex.DecodeString(s); err != nil {
		return ID{}, fmt.Errorf("invalid document ID format: %w", err)
	}
	return ID{value: s}, nil
}

// MustParse parses an ID from string, panicking on error.
// Useful for test fixtures where the ID is known valid.
func MustParse(s string) ID {
	id, err := Parse(s)
	if err != nil {
		panic(fmt.Sprintf("invalid document ID: %s: %v", s, err))
	}
	return id
}

// String returns the canonical lowercase hex form.
func (id ID) String() string {
	return id.value
}

// IsZero returns true if this is the zero ID.
func (id ID) IsZero() bool {
	return id.value == ""
}

// Equal returns true if two IDs are equal.
func (id ID) Equal(other ID) bool {
	return id.value == other.value
}

// MarshalJSON implements json.Marshaler. IDs serialize as hex strings.
func (id ID) MarshalJSON() ([]byte, error) {
	if id.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(id.value)
}

// UnmarshalJSON implements json.Unmarshaler.
func (id *ID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("document ID must be a string: %w", err)
	}
	if s == "" || s == "null" {
		*id = ID{}
		return nil
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// Scan implements sql.Scanner for database reading.
func (id *ID) Scan(value interface{}) error {
	if value == nil {
		*id = ID{}
		return nil
	}

	switch v := value.(type) {
	case string:
		if v == "" {
			*id = ID{}
			return nil
		}
		parsed, err := Parse(v)
		if err != nil {
			return fmt.Errorf("cannot scan string into document ID: %w", err)
		}
		*id = parsed
		return nil
	case []byte:
		if len(v) == 0 {
			*id = ID{}
			return nil
		}
		parsed, err := Parse(string(v))
		if err != nil {
			return fmt.Errorf("cannot scan bytes into document ID: %w", err)
		}
		*id = parsed
		return nil
	default:
		return fmt.Errorf("cannot scan %T into document ID", value)
	}
}

// Value implements driver.Valuer for database writing.
// Returns nil for the zero ID.
func (id ID) Value() (driver.Value, error) {
	if id.IsZero() {
		return nil, nil
	}
	return id.value, nil
}
