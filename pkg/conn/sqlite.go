package conn

import (
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// InMemoryDSN keeps the whole store in process memory. One shared cache so a
// single handle's connections all see the same tables.
const InMemoryDSN = "file::memory:?cache=shared"

// SQLiteOption defines connection options for SQLite.
type SQLiteOption struct {
	// DSN is a file path or InMemoryDSN. Empty means in-memory.
	DSN    string
	Config *gorm.Config
}

// NewSQLite opens a SQLite-backed gorm handle. The in-memory form mirrors the
// bot's default store medium; a file path gives cheap local durability.
func NewSQLite(opt SQLiteOption) (*gorm.DB, error) {
	dsn := opt.DSN
	if dsn == "" {
		dsn = InMemoryDSN
	}

	config := opt.Config
	if config == nil {
		config = &gorm.Config{}
	}

	return gorm.Open(sqlite.Open(dsn), config)
}
