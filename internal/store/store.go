// Package store is the bounded retention layer for board snapshots, ticks,
// bars and the decision log. It owns every persisted row: callers never touch
// the tables directly, and each insert applies the table's eviction policy so
// row counts stay under the configured caps.
//
// The store itself takes no locks. The backing medium must serialize
// concurrent writers when the ingestion and trading loops run in separate
// OS threads or processes.
package store

import (
	"main/internal/model"

	"gorm.io/gorm"
)

// Store wraps a gorm handle with the retention-table CRUD.
type Store struct {
	db *gorm.DB
}

// New wraps an opened gorm handle. Call Migrate before first use.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying handle.
func (s *Store) DB() *gorm.DB {
	if s == nil {
		return nil
	}
	return s.db
}

func tables() []any {
	return []any{&model.Board{}, &model.Tick{}, &model.OHLCV{}, &model.Decision{}}
}

// Migrate creates the retention tables.
func (s *Store) Migrate() error {
	return s.db.AutoMigrate(tables()...)
}

// Reset drops and recreates every table. The supervisor calls this between
// pipeline restarts so each run starts from an empty store.
func (s *Store) Reset() error {
	for _, table := range tables() {
		if err := s.db.Migrator().DropTable(table); err != nil {
			return err
		}
	}
	return s.Migrate()
}
