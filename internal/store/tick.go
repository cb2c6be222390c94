package store

import (
	"main/internal/model"
	"main/pkg/exception"

	"github.com/yanun0323/errors"
)

// InsertTick stores one trade event. Eviction is row-wise: enough oldest rows
// are removed first that the post-insert count never exceeds maxRows.
func (s *Store) InsertTick(tick model.Tick, maxRows int) error {
	count, err := s.countTicks()
	if err != nil {
		return errors.Wrap(err, "count ticks")
	}

	if count+1 > int64(maxRows) {
		stale, err := s.Ticks(false, int(count)-maxRows+1)
		if err != nil {
			return errors.Wrap(err, "query stale ticks")
		}
		if err := s.deleteTicks(stale); err != nil {
			return errors.Wrap(err, "delete stale ticks")
		}
	}

	return s.db.Create(&tick).Error
}

// Ticks returns up to limit rows ordered by timestamp, newest first when
// isNewer is set.
func (s *Store) Ticks(isNewer bool, limit int) ([]model.Tick, error) {
	if limit < 1 {
		return nil, errors.Wrap(exception.ErrInvalidLimit, "query ticks").
			With("limit", limit)
	}

	order := "timestamp"
	if isNewer {
		order = "timestamp desc"
	}

	var rows []model.Tick
	if err := s.db.Order(order).Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}

	return rows, nil
}

// TicksSince returns the symbol's ticks at or after minTimestamp (unix ms),
// ordered by timestamp ascending. This is the aggregator's working set.
func (s *Store) TicksSince(symbol string, minTimestamp int64) ([]model.Tick, error) {
	var rows []model.Tick
	err := s.db.
		Where("symbol = ? AND timestamp >= ?", symbol, minTimestamp).
		Order("timestamp").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	return rows, nil
}

func (s *Store) countTicks() (int64, error) {
	var n int64
	err := s.db.Model(&model.Tick{}).Count(&n).Error
	return n, err
}

func (s *Store) deleteTicks(rows []model.Tick) error {
	for _, row := range rows {
		if err := s.db.Where("id = ?", row.ID).Delete(&model.Tick{}).Error; err != nil {
			return err
		}
	}
	return nil
}
