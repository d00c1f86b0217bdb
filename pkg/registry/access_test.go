package registry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hashicorp-forge/docvault/pkg/models"
)

func TestShare(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects invalid grants", func(t *testing.T) {
		r, clock := newTestRegistry(t)
		id := mustUpload(t, r, alice, 1000)

		// Self-share.
		err := r.Share(ctx, id, alice, models.AccessLevelView, nil, alice)
		assert.ErrorIs(t, err, ErrInvalidInput)

		// Empty grantee.
		err = r.Share(ctx, id, "", models.AccessLevelView, nil, alice)
		assert.ErrorIs(t, err, ErrInvalidInput)

		// Level none.
		err = r.Share(ctx, id, bob, models.AccessLevelNone, nil, alice)
		assert.ErrorIs(t, err, ErrInvalidInput)

		// Expiry at the current instant is not strictly in the future.
		now := clock.Now()
		err = r.Share(ctx, id, bob, models.AccessLevelView, &now, alice)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("owner entry cannot be overwritten by a grant", func(t *testing.T) {
		r, clock := newTestRegistry(t)
		id := mustUpload(t, r, alice, 1000)
		require.NoError(t, r.Share(ctx, id, bob, models.AccessLevelAdmin, nil, alice))

		// An admin grantee targeting the owner would downgrade the
		// permanent owner entry; it is rejected like an owner revoke.
		expiry := clock.Now().Add(time.Hour)
		err := r.Share(ctx, id, alice, models.AccessLevelView, &expiry, bob)
		assert.ErrorIs(t, err, ErrInvalidInput)

		ok, err := r.HasAccess(ctx, id, alice, models.AccessLevelAdmin)
		require.NoError(t, err)
		assert.True(t, ok)
		require.NoError(t, r.ArchiveDocument(ctx, id, alice))
	})

	t.Run("requires admin on the document", func(t *testing.T) {
		r, _ := newTestRegistry(t)
		id := mustUpload(t, r, alice, 1000)
		require.NoError(t, r.Share(ctx, id, bob, models.AccessLevelEdit, nil, alice))

		// Edit is not enough to share onward.
		err := r.Share(ctx, id, carol, models.AccessLevelView, nil, bob)
		assert.ErrorIs(t, err, ErrAccessDenied)
	})

	t.Run("admin grantee can share onward", func(t *testing.T) {
		r, _ := newTestRegistry(t)
		id := mustUpload(t, r, alice, 1000)
		require.NoError(t, r.Share(ctx, id, bob, models.AccessLevelAdmin, nil, alice))

		require.NoError(t, r.Share(ctx, id, carol, models.AccessLevelView, nil, bob))
		ok, err := r.HasAccess(ctx, id, carol, models.AccessLevelView)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("requires active status", func(t *testing.T) {
		r, _ := newTestRegistry(t)
		id := mustUpload(t, r, alice, 1000)
		require.NoError(t, r.ArchiveDocument(ctx, id, alice))

		err := r.Share(ctx, id, bob, models.AccessLevelView, nil, alice)
		assert.ErrorIs(t, err, ErrInvalidState)
	})

	t.Run("overwrite replaces the grant wholesale", func(t *testing.T) {
		r, clock := newTestRegistry(t)
		id := mustUpload(t, r, alice, 1000)

		expiry := clock.Now().Add(time.Hour)
		require.NoError(t, r.Share(ctx, id, bob, models.AccessLevelEdit, &expiry, alice))
		require.NoError(t, r.Share(ctx, id, bob, models.AccessLevelView, nil, alice))

		entries, err := r.GetAccessList(ctx, id, alice)
		require.NoError(t, err)
		require.Len(t, entries, 2) // owner + bob, not three
		assert.Equal(t, bob, entries[1].UserID)
		assert.Equal(t, models.AccessLevelView, entries[1].Level)
		assert.Nil(t, entries[1].ExpiresAt)
	})

	t.Run("first-time grant populates the shared index once", func(t *testing.T) {
		r, _ := newTestRegistry(t)
		id := mustUpload(t, r, alice, 1000)

		require.NoError(t, r.Share(ctx, id, bob, models.AccessLevelView, nil, alice))
		require.NoError(t, r.Share(ctx, id, bob, models.AccessLevelEdit, nil, alice))

		shared, err := r.GetSharedDocuments(ctx, bob)
		require.NoError(t, err)
		require.Len(t, shared, 1)
		assert.True(t, shared[0].Equal(id))
	})
}

func TestHasAccess(t *testing.T) {
	ctx := context.Background()

	t.Run("false without an entry", func(t *testing.T) {
		r, _ := newTestRegistry(t)
		id := mustUpload(t, r, alice, 1000)

		ok, err := r.HasAccess(ctx, id, bob, models.AccessLevelView)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("false once the entry expires, at any level", func(t *testing.T) {
		r, clock := newTestRegistry(t)
		id := mustUpload(t, r, alice, 1000)

		expiry := clock.Now().Add(time.Hour)
		require.NoError(t, r.Share(ctx, id, bob, models.AccessLevelAdmin, &expiry, alice))

		ok, err := r.HasAccess(ctx, id, bob, models.AccessLevelAdmin)
		require.NoError(t, err)
		assert.True(t, ok)

		clock.Advance(time.Hour) // expiry boundary is inclusive

		for _, level := range []models.AccessLevel{
			models.AccessLevelView, models.AccessLevelEdit, models.AccessLevelAdmin,
		} {
			ok, err := r.HasAccess(ctx, id, bob, level)
			require.NoError(t, err)
			assert.False(t, ok, "level %s", level)
		}
	})

	t.Run("expired entries are ignored, not removed", func(t *testing.T) {
		r, clock := newTestRegistry(t)
		id := mustUpload(t, r, alice, 1000)

		expiry := clock.Now().Add(time.Hour)
		require.NoError(t, r.Share(ctx, id, bob, models.AccessLevelView, &expiry, alice))
		clock.Advance(2 * time.Hour)

		entries, err := r.GetAccessList(ctx, id, alice)
		require.NoError(t, err)
		assert.Len(t, entries, 2) // the expired entry is still enumerable
	})

	t.Run("level comparisons follow the total order", func(t *testing.T) {
		r, _ := newTestRegistry(t)
		id := mustUpload(t, r, alice, 1000)
		require.NoError(t, r.Share(ctx, id, bob, models.AccessLevelEdit, nil, alice))

		ok, err := r.HasAccess(ctx, id, bob, models.AccessLevelView)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = r.HasAccess(ctx, id, bob, models.AccessLevelAdmin)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestRevokeAccess(t *testing.T) {
	ctx := context.Background()

	t.Run("owner access is unrevocable", func(t *testing.T) {
		r, _ := newTestRegistry(t)
		id := mustUpload(t, r, alice, 1000)
		require.NoError(t, r.Share(ctx, id, bob, models.AccessLevelAdmin, nil, alice))

		err := r.RevokeAccess(ctx, id, alice, bob)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("requires admin", func(t *testing.T) {
		r, _ := newTestRegistry(t)
		id := mustUpload(t, r, alice, 1000)
		require.NoError(t, r.Share(ctx, id, bob, models.AccessLevelView, nil, alice))

		err := r.RevokeAccess(ctx, id, bob, carol)
		assert.ErrorIs(t, err, ErrAccessDenied)
	})

	t.Run("revoked user loses access immediately", func(t *testing.T) {
		r, _ := newTestRegistry(t)
		id := mustUpload(t, r, alice, 1000)
		require.NoError(t, r.Share(ctx, id, bob, models.AccessLevelAdmin, nil, alice))
		require.NoError(t, r.RevokeAccess(ctx, id, bob, alice))

		for _, level := range []models.AccessLevel{
			models.AccessLevelView, models.AccessLevelEdit, models.AccessLevelAdmin,
		} {
			ok, err := r.HasAccess(ctx, id, bob, level)
			require.NoError(t, err)
			assert.False(t, ok, "level %s", level)
		}

		_, err := r.GetDocument(ctx, id, bob)
		assert.ErrorIs(t, err, ErrAccessDenied)
	})

	t.Run("re-share after revoke is a brand-new grant", func(t *testing.T) {
		r, _ := newTestRegistry(t)
		id := mustUpload(t, r, alice, 1000)

		require.NoError(t, r.Share(ctx, id, bob, models.AccessLevelView, nil, alice))
		require.NoError(t, r.RevokeAccess(ctx, id, bob, alice))
		require.NoError(t, r.Share(ctx, id, bob, models.AccessLevelView, nil, alice))

		// Exactly one current entry for bob in the access list.
		entries, err := r.GetAccessList(ctx, id, alice)
		require.NoError(t, err)
		var bobEntries int
		for _, e := range entries {
			if e.UserID == bob {
				bobEntries++
			}
		}
		assert.Equal(t, 1, bobEntries)

		// The append-only shared index records both first-time grants.
		shared, err := r.GetSharedDocuments(ctx, bob)
		require.NoError(t, err)
		assert.Len(t, shared, 2)
	})

	t.Run("revoking an absent entry still succeeds", func(t *testing.T) {
		r, _ := newTestRegistry(t)
		id := mustUpload(t, r, alice, 1000)

		assert.NoError(t, r.RevokeAccess(ctx, id, bob, alice))
	})
}
