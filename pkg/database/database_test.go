package database

import (
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

func TestOpenSQLite(t *testing.T) {
	t.Run("opens an in-memory database", func(t *testing.T) {
		db, err := OpenSQLite(":memory:", nil)
		require.NoError(t, err)

		var one int
		require.NoError(t, db.Raw("SELECT 1").Scan(&one).Error)
		assert.Equal(t, 1, one)
	})

	t.Run("wires the hclog adapter", func(t *testing.T) {
		db, err := OpenSQLite(":memory:", hclog.NewNullLogger())
		require.NoError(t, err)
		require.NoError(t, db.Raw("SELECT 1").Row().Err())
	})
}

func TestGormLoggerLogMode(t *testing.T) {
	l := NewGormLogger(hclog.NewNullLogger())

	quiet := l.LogMode(logger.Silent)
	assert.NotSame(t, l, quiet)
}
