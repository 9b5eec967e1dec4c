// Package testutil provides shared test fixtures. It never appears in
// production code paths.
package testutil

import (
	"testing"

	"github.com/hakoniwa-games/questforge/cache"
	"github.com/hakoniwa-games/questforge/config"
	dbadapter "github.com/hakoniwa-games/questforge/db"
	"github.com/hakoniwa-games/questforge/model"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// SetupTestDB opens a private in-memory database and runs AutoMigrate.
// No external services; safe for parallel tests.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := dbadapter.Open(config.DatabaseConfig{Mode: dbadapter.ModeSQLiteMemory})
	require.NoError(t, err, "SetupTestDB: Open")
	require.NoError(t, model.AutoMigrate(db), "SetupTestDB: AutoMigrate")
	return db
}

// SetupTestCache creates a local in-process cache (no Redis required).
func SetupTestCache(t *testing.T) cache.Cache {
	t.Helper()
	c, err := cache.New(cache.Config{}) // empty RedisAddr → local
	require.NoError(t, err, "SetupTestCache: New")
	return c
}
