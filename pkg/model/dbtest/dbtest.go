// Package dbtest opens a migrated sqlite database in a test's temp dir.
package dbtest

import (
	"path/filepath"
	"testing"

	"trademan/pkg/config"
	"trademan/pkg/model"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func Open(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := model.Open(config.Database{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "trademan.db"),
	}, false)
	require.Nil(t, err)
	require.Nil(t, model.Migrate(db))

	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
	})
	return db
}
