package db

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/hakoniwa-games/questforge/config"
	dbmysql "github.com/hakoniwa-games/questforge/db/mysql"
	dbsqlite "github.com/hakoniwa-games/questforge/db/sqlite"
	"gorm.io/gorm"
)

const (
	ModeSQLite       = "sqlite"
	ModeSQLiteMemory = "sqlite_memory"
	ModeMySQL        = "mysql"
)

// Open returns a *gorm.DB for the configured database mode.
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	switch cfg.Mode {
	case ModeSQLite:
		return dbsqlite.Open(cfg.SQLitePath)
	case ModeSQLiteMemory:
		// A uniquely named shared-cache DB keeps gorm's pooled connections
		// on the same in-memory database while isolating separate Opens.
		dsn := fmt.Sprintf("file:mem-%s?mode=memory&cache=shared", uuid.NewString())
		return dbsqlite.Open(dsn)
	case ModeMySQL:
		return dbmysql.Open(cfg.MySQLDSN, cfg.MySQLMaxOpen, cfg.MySQLMaxIdle, cfg.MySQLMaxLife)
	default:
		return nil, fmt.Errorf("db: unknown mode %q", cfg.Mode)
	}
}
