package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAccessLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    AccessLevel
		wantErr bool
	}{
		{input: "none", want: AccessLevelNone},
		{input: "view", want: AccessLevelView},
		{input: "edit", want: AccessLevelEdit},
		{input: "admin", want: AccessLevelAdmin},
		{input: "owner", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			level, err := ParseAccessLevel(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, level)
			assert.Equal(t, tt.input, level.String())
		})
	}
}

func TestAccessLevelOrdering(t *testing.T) {
	assert.True(t, AccessLevelNone < AccessLevelView)
	assert.True(t, AccessLevelView < AccessLevelEdit)
	assert.True(t, AccessLevelEdit < AccessLevelAdmin)
}

func TestEffectiveAt(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	t.Run("unexpiring entry compares by level", func(t *testing.T) {
		entry := AccessEntry{Level: AccessLevelEdit}
		assert.True(t, entry.EffectiveAt(AccessLevelView, now))
		assert.True(t, entry.EffectiveAt(AccessLevelEdit, now))
		assert.False(t, entry.EffectiveAt(AccessLevelAdmin, now))
	})

	t.Run("expiry boundary is inclusive", func(t *testing.T) {
		expiry := now
		entry := AccessEntry{Level: AccessLevelAdmin, ExpiresAt: &expiry}

		// At the expiry instant the entry is already dead.
		assert.False(t, entry.EffectiveAt(AccessLevelView, now))
		assert.True(t, entry.EffectiveAt(AccessLevelView, now.Add(-time.Second)))
	})
}
