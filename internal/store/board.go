package store

import (
	"database/sql"

	"main/internal/model"
	"main/internal/model/enum"
	"main/pkg/exception"

	"github.com/yanun0323/errors"
)

// InsertBoardSnapshot stores all rows of one book snapshot. Eviction is
// group-wise: when the projected number of distinct snapshot groups would
// exceed maxSnapshots, whole oldest groups are deleted first.
func (s *Store) InsertBoardSnapshot(rows []model.Board, maxSnapshots int) error {
	if len(rows) == 0 {
		return nil
	}

	symbol := rows[0].Symbol

	groups, err := s.countBoardGroups()
	if err != nil {
		return errors.Wrap(err, "count board groups")
	}

	for groups+1 > int64(maxSnapshots) {
		oldest, ok, err := s.oldestBoardTimestamp(symbol)
		if err != nil {
			return errors.Wrap(err, "find oldest board group")
		}
		if !ok {
			break
		}
		if err := s.deleteBoardGroup(oldest); err != nil {
			return errors.Wrap(err, "delete oldest board group")
		}
		groups--
	}

	return s.db.Create(rows).Error
}

// CurrentBoard returns the latest snapshot rows of one side, price ascending.
// The two sides arrive independently, so each side resolves its own maximum
// timestamp.
func (s *Store) CurrentBoard(symbol string, side enum.Side) ([]model.Board, error) {
	return s.boardAtExtremum(symbol, side, false)
}

// CurrentBoards returns the latest buy and sell snapshot rows.
func (s *Store) CurrentBoards(symbol string) (buy, sell []model.Board, err error) {
	buy, err = s.CurrentBoard(symbol, enum.SideBuy)
	if err != nil {
		return nil, nil, err
	}

	sell, err = s.CurrentBoard(symbol, enum.SideSell)
	if err != nil {
		return nil, nil, err
	}

	return buy, sell, nil
}

// OldestBoard returns the oldest retained snapshot rows of one side,
// price ascending.
func (s *Store) OldestBoard(symbol string, side enum.Side) ([]model.Board, error) {
	return s.boardAtExtremum(symbol, side, true)
}

func (s *Store) boardAtExtremum(symbol string, side enum.Side, oldest bool) ([]model.Board, error) {
	if !side.IsAvailable() {
		return nil, errors.Wrap(exception.ErrInvalidSide, "query board").
			With("side", string(side))
	}

	agg := "max(timestamp)"
	if oldest {
		agg = "min(timestamp)"
	}

	sub := s.db.Model(&model.Board{}).
		Select(agg).
		Where("symbol = ? AND side = ?", symbol, side)

	var rows []model.Board
	err := s.db.
		Where("timestamp = (?) AND symbol = ? AND side = ?", sub, symbol, side).
		Order("price").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	return rows, nil
}

// countBoardGroups counts retained snapshots, one group per distinct timestamp.
func (s *Store) countBoardGroups() (int64, error) {
	var n int64
	err := s.db.Model(&model.Board{}).Distinct("timestamp").Count(&n).Error
	return n, err
}

// oldestBoardTimestamp resolves the eviction target through the buy side as a
// deterministic representative; every member of a group shares the timestamp.
func (s *Store) oldestBoardTimestamp(symbol string) (int64, bool, error) {
	var ts sql.NullInt64
	err := s.db.Model(&model.Board{}).
		Select("min(timestamp)").
		Where("symbol = ? AND side = ?", symbol, enum.SideBuy).
		Scan(&ts).Error
	if err != nil {
		return 0, false, err
	}

	return ts.Int64, ts.Valid, nil
}

func (s *Store) deleteBoardGroup(timestamp int64) error {
	return s.db.Where("timestamp = ?", timestamp).Delete(&model.Board{}).Error
}
