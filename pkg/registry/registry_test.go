package registry

import (
	"context"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/hashicorp-forge/docvault/pkg/docid"
	"github.com/hashicorp-forge/docvault/pkg/models"
)

const (
	alice = "alice@example.com"
	bob   = "bob@example.com"
	carol = "carol@example.com"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func newTestRegistry(t *testing.T, opts ...Option) (*Registry, *fakeClock) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.ModelsToAutoMigrate()...))

	clock := &fakeClock{now: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)}
	opts = append([]Option{WithClock(clock.Now)}, opts...)
	return New(db, hclog.NewNullLogger(), opts...), clock
}

func mustUpload(t *testing.T, r *Registry, owner string, size int64) docid.ID {
	t.Helper()

	id, err := r.Upload(context.Background(), UploadRequest{
		ContentRef:   "cas://" + owner + "/blob",
		EncryptedKey: "enc-key-blob",
		ByteSize:     size,
		ContentType:  "application/pdf",
		Metadata:     "{}",
	}, owner)
	require.NoError(t, err)
	return id
}

func TestUpload(t *testing.T) {
	ctx := context.Background()

	t.Run("owner immediately holds unexpiring admin access", func(t *testing.T) {
		r, _ := newTestRegistry(t)
		id := mustUpload(t, r, alice, 1000)

		ok, err := r.HasAccess(ctx, id, alice, models.AccessLevelAdmin)
		require.NoError(t, err)
		assert.True(t, ok)

		entries, err := r.GetAccessList(ctx, id, alice)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, alice, entries[0].UserID)
		assert.Equal(t, models.AccessLevelAdmin, entries[0].Level)
		assert.Nil(t, entries[0].ExpiresAt)
	})

	t.Run("document starts active at version 1", func(t *testing.T) {
		r, _ := newTestRegistry(t)
		id := mustUpload(t, r, alice, 1000)

		doc, err := r.GetDocument(ctx, id, alice)
		require.NoError(t, err)
		assert.Equal(t, models.DocumentStatusActive, doc.Status)
		assert.Equal(t, 1, doc.Version)
		assert.True(t, doc.PreviousID.IsZero())
		assert.Equal(t, alice, doc.Owner)
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		r, _ := newTestRegistry(t)

		_, err := r.Upload(ctx, UploadRequest{
			ContentRef: "", ByteSize: 10, ContentType: "text/plain",
		}, alice)
		assert.ErrorIs(t, err, ErrInvalidInput)

		_, err = r.Upload(ctx, UploadRequest{
			ContentRef: "cas://x", ByteSize: 0, ContentType: "text/plain",
		}, alice)
		assert.ErrorIs(t, err, ErrInvalidInput)

		_, err = r.Upload(ctx, UploadRequest{
			ContentRef: "cas://x", ByteSize: 10, ContentType: "",
		}, alice)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("enforces the configured size cap", func(t *testing.T) {
		r, _ := newTestRegistry(t, WithAdmins([]string{carol}))
		require.NoError(t, r.SetMaxDocumentSize(ctx, 500, carol))

		_, err := r.Upload(ctx, UploadRequest{
			ContentRef: "cas://big", ByteSize: 501, ContentType: "text/plain",
		}, alice)
		assert.ErrorIs(t, err, ErrInvalidInput)

		_, err = r.Upload(ctx, UploadRequest{
			ContentRef: "cas://ok", ByteSize: 500, ContentType: "text/plain",
		}, alice)
		assert.NoError(t, err)
	})

	t.Run("identical uploads get distinct IDs", func(t *testing.T) {
		r, _ := newTestRegistry(t)

		// Same content ref, caller, and frozen clock: only the creation
		// counter separates the two derivations.
		req := UploadRequest{
			ContentRef: "cas://same", ByteSize: 10, ContentType: "text/plain",
		}
		a, err := r.Upload(ctx, req, alice)
		require.NoError(t, err)
		b, err := r.Upload(ctx, req, alice)
		require.NoError(t, err)
		assert.False(t, a.Equal(b))
	})

	t.Run("appends an upload audit entry", func(t *testing.T) {
		r, _ := newTestRegistry(t)
		id := mustUpload(t, r, alice, 1000)

		trail, err := r.GetAuditTrail(ctx, id, alice)
		require.NoError(t, err)
		require.Len(t, trail, 1)
		assert.Equal(t, models.AuditKindUpload, trail[0].Kind)
		assert.Equal(t, alice, trail[0].Actor)
		assert.True(t, trail[0].DocID.Equal(id))
	})
}

func TestGetDocument(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown ID is NotFound", func(t *testing.T) {
		r, _ := newTestRegistry(t)
		bogus := docid.Derive("cas://nowhere", alice, time.Now(), 999)

		_, err := r.GetDocument(ctx, bogus, alice)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("stranger is denied", func(t *testing.T) {
		r, _ := newTestRegistry(t)
		id := mustUpload(t, r, alice, 1000)

		_, err := r.GetDocument(ctx, id, bob)
		assert.ErrorIs(t, err, ErrAccessDenied)
	})

	t.Run("view grantee can read", func(t *testing.T) {
		r, _ := newTestRegistry(t)
		id := mustUpload(t, r, alice, 1000)
		require.NoError(t, r.Share(ctx, id, bob, models.AccessLevelView, nil, alice))

		doc, err := r.GetDocument(ctx, id, bob)
		require.NoError(t, err)
		assert.True(t, doc.DocID.Equal(id))
	})

	t.Run("owner can still read after deletion", func(t *testing.T) {
		r, _ := newTestRegistry(t)
		id := mustUpload(t, r, alice, 1000)
		require.NoError(t, r.DeleteDocument(ctx, id, alice))

		doc, err := r.GetDocument(ctx, id, alice)
		require.NoError(t, err)
		assert.Equal(t, models.DocumentStatusDeleted, doc.Status)
	})
}

func TestOwnedIndex(t *testing.T) {
	ctx := context.Background()

	t.Run("lists every version in creation order", func(t *testing.T) {
		r, _ := newTestRegistry(t)
		first := mustUpload(t, r, alice, 1000)
		second := mustUpload(t, r, alice, 2000)

		v2, err := r.Update(ctx, first, UpdateRequest{
			ContentRef: "cas://v2", ByteSize: 1500,
		}, alice)
		require.NoError(t, err)

		owned, err := r.GetOwnedDocuments(ctx, alice)
		require.NoError(t, err)
		require.Len(t, owned, 3)
		assert.True(t, owned[0].Equal(first))
		assert.True(t, owned[1].Equal(second))
		assert.True(t, owned[2].Equal(v2))
	})

	t.Run("deleted documents stay listed", func(t *testing.T) {
		r, _ := newTestRegistry(t)
		id := mustUpload(t, r, alice, 1000)
		require.NoError(t, r.DeleteDocument(ctx, id, alice))

		owned, err := r.GetOwnedDocuments(ctx, alice)
		require.NoError(t, err)
		require.Len(t, owned, 1)
		assert.True(t, owned[0].Equal(id))
	})

	t.Run("empty when the user owns nothing", func(t *testing.T) {
		r, _ := newTestRegistry(t)

		owned, err := r.GetOwnedDocuments(ctx, bob)
		require.NoError(t, err)
		assert.Empty(t, owned)
	})
}
