package store

import (
	"time"

	"main/internal/model"

	"github.com/google/uuid"
)

// InsertDecisions appends signal evaluations to the audit log. Missing ids and
// timestamps are filled in here; the log has no eviction policy.
func (s *Store) InsertDecisions(items []model.Decision) error {
	if len(items) == 0 {
		return nil
	}

	now := time.Now().UnixMilli()
	for i := range items {
		if items[i].ID == "" {
			items[i].ID = uuid.NewString()
		}
		if items[i].Timestamp == 0 {
			items[i].Timestamp = now
		}
	}

	return s.db.Create(items).Error
}

// Decisions returns the symbol's decision log ordered by timestamp.
func (s *Store) Decisions(symbol string) ([]model.Decision, error) {
	var rows []model.Decision
	err := s.db.
		Where("symbol = ?", symbol).
		Order("timestamp").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	return rows, nil
}
