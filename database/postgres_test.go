package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yashrajoria/restaurant-backend/models"
)

func TestConnect_SQLiteMigratesSchema(t *testing.T) {
	t.Cleanup(func() { DB = nil })
	cfg := Config{Driver: "sqlite", SQLitePath: filepath.Join(t.TempDir(), "test.db"), MaxRetries: 1}

	db, err := Connect(cfg, zap.NewNop())
	require.NoError(t, err)
	defer Close()

	for _, m := range Models() {
		assert.True(t, db.Migrator().HasTable(m))
	}
	assert.True(t, db.Migrator().HasIndex(&models.Order{}, "StripeSessionID"))
}

func TestConnect_RejectsUnknownDriver(t *testing.T) {
	_, err := open(Config{Driver: "oracle"})
	assert.ErrorContains(t, err, "unsupported DB_DRIVER")
}

func TestConfigDSN(t *testing.T) {
	cfg := Config{Host: "db", Port: "5432", User: "u", Password: "p", Name: "restaurant", SSLMode: "disable", TimeZone: "UTC"}
	assert.Equal(t, "host=db user=u password=p dbname=restaurant port=5432 sslmode=disable TimeZone=UTC", cfg.dsn())
}

func TestOpenSQLitePool_ServesConcurrentConnections(t *testing.T) {
	db, err := OpenSQLitePool(filepath.Join(t.TempDir(), "pool.db"), 4)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	defer sqlDB.Close()

	var mode string
	require.NoError(t, db.Raw("PRAGMA journal_mode").Scan(&mode).Error)
	assert.Equal(t, "wal", mode)
	assert.Equal(t, 4, sqlDB.Stats().MaxOpenConnections)
}
