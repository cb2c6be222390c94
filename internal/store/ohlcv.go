package store

import (
	"main/internal/model"
	"main/pkg/exception"

	"github.com/yanun0323/errors"
)

// InsertBars stores new bars, applying the row-wise cap against the projected
// post-insert count so the table never exceeds maxRows after the call.
func (s *Store) InsertBars(items []model.OHLCV, maxRows int) error {
	if len(items) == 0 {
		return nil
	}

	count, err := s.countBars()
	if err != nil {
		return errors.Wrap(err, "count bars")
	}

	if over := count + int64(len(items)) - int64(maxRows); over > 0 {
		stale, err := s.oldestBars(int(over))
		if err != nil {
			return errors.Wrap(err, "query stale bars")
		}
		if err := s.deleteBars(stale); err != nil {
			return errors.Wrap(err, "delete stale bars")
		}
	}

	return s.db.Create(items).Error
}

// UpdateBars overwrites the stored fields of existing bars, matched by bucket
// timestamp. The update path must stay field-for-field equivalent to an
// insert so aggregation reruns are idempotent.
func (s *Store) UpdateBars(items []model.OHLCV) error {
	for _, item := range items {
		err := s.db.Model(&model.OHLCV{}).
			Where("timestamp = ?", item.Timestamp).
			Updates(map[string]any{
				"open":   item.Open,
				"high":   item.High,
				"low":    item.Low,
				"close":  item.Close,
				"volume": item.Volume,
				"symbol": item.Symbol,
			}).Error
		if err != nil {
			return err
		}
	}
	return nil
}

// Bars returns up to limit bars of a symbol ordered by bucket timestamp.
func (s *Store) Bars(symbol string, limit int, ascending bool) ([]model.OHLCV, error) {
	if limit < 1 {
		return nil, errors.Wrap(exception.ErrInvalidLimit, "query bars").
			With("limit", limit)
	}

	order := "timestamp"
	if !ascending {
		order = "timestamp desc"
	}

	var rows []model.OHLCV
	err := s.db.
		Where("symbol = ?", symbol).
		Order(order).
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	return rows, nil
}

// AllBars returns every bar of a symbol ordered by bucket timestamp.
func (s *Store) AllBars(symbol string, ascending bool) ([]model.OHLCV, error) {
	order := "timestamp"
	if !ascending {
		order = "timestamp desc"
	}

	var rows []model.OHLCV
	if err := s.db.Where("symbol = ?", symbol).Order(order).Find(&rows).Error; err != nil {
		return nil, err
	}

	return rows, nil
}

// BarAt returns the bar stored at the bucket timestamp, if any.
func (s *Store) BarAt(timestamp int64) (model.OHLCV, bool, error) {
	var rows []model.OHLCV
	err := s.db.Where("timestamp = ?", timestamp).Limit(1).Find(&rows).Error
	if err != nil || len(rows) == 0 {
		return model.OHLCV{}, false, err
	}

	return rows[0], true, nil
}

// BarStored reports whether a bar exists at the bucket timestamp.
func (s *Store) BarStored(timestamp int64) (bool, error) {
	_, ok, err := s.BarAt(timestamp)
	return ok, err
}

func (s *Store) countBars() (int64, error) {
	var n int64
	err := s.db.Model(&model.OHLCV{}).Count(&n).Error
	return n, err
}

func (s *Store) oldestBars(limit int) ([]model.OHLCV, error) {
	var rows []model.OHLCV
	if err := s.db.Order("timestamp").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *Store) deleteBars(rows []model.OHLCV) error {
	for _, row := range rows {
		if err := s.db.Where("timestamp = ?", row.Timestamp).Delete(&model.OHLCV{}).Error; err != nil {
			return err
		}
	}
	return nil
}
