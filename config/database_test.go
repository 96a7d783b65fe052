package config

import (
	"path/filepath"
	"testing"

	"restaurant-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

func TestInitDB_SQLiteMigratesAndSeedsGroups(t *testing.T) {
	cfg := Default().Database
	cfg.Path = filepath.Join(t.TempDir(), "test.db")
	cfg.LogLevel = "silent"

	db, err := InitDB(cfg)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	var names []string
	require.NoError(t, db.Model(&models.Group{}).Order("name").Pluck("name", &names).Error)
	assert.Equal(t, []string{models.GroupDeliveryCrew, models.GroupManager}, names)

	require.NoError(t, Migrate(db), "migrating twice must not duplicate groups")
	var count int64
	require.NoError(t, db.Model(&models.Group{}).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

func TestDialectorFor(t *testing.T) {
	cases := map[string]struct {
		cfg     DatabaseConfig
		name    string
		wantErr bool
	}{
		"sqlite":   {cfg: DatabaseConfig{Driver: "sqlite", Path: "x.db"}, name: "sqlite"},
		"default":  {cfg: DatabaseConfig{Path: "x.db"}, name: "sqlite"},
		"mysql":    {cfg: DatabaseConfig{Driver: "mysql", Host: "h", Port: "3306"}, name: "mysql"},
		"postgres": {cfg: DatabaseConfig{Driver: "postgres", DSN: "host=h"}, name: "postgres"},
		"unknown":  {cfg: DatabaseConfig{Driver: "oracle"}, wantErr: true},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			d, err := dialectorFor(tc.cfg)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.name, d.Name())
		})
	}
}

func TestGormLogLevel(t *testing.T) {
	assert.Equal(t, logger.Silent, gormLogLevel("SILENT"))
	assert.Equal(t, logger.Info, gormLogLevel("info"))
	assert.Equal(t, logger.Warn, gormLogLevel(""))
}
