package store

import (
	"testing"

	"main/internal/model"
	"main/pkg/exception"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yanun0323/errors"
)

func barAt(timestamp int64, close float64) model.OHLCV {
	return model.OHLCV{
		Timestamp: timestamp,
		Open:      close - 1,
		High:      close + 1,
		Low:       close - 2,
		Close:     close,
		Volume:    1,
		Symbol:    "BTC_JPY",
	}
}

func TestInsertBarsProjectedCap(t *testing.T) {
	s := newTestStore(t)
	const maxRows = 3

	require.NoError(t, s.InsertBars([]model.OHLCV{barAt(5, 100), barAt(10, 101)}, maxRows))

	// Two more would project to four rows: one oldest must go first.
	require.NoError(t, s.InsertBars([]model.OHLCV{barAt(15, 102), barAt(20, 103)}, maxRows))

	count, err := s.countBars()
	require.NoError(t, err)
	assert.Equal(t, int64(maxRows), count)

	stored, err := s.BarStored(5)
	require.NoError(t, err)
	assert.False(t, stored, "oldest bar should be evicted")
}

func TestUpdateBarsMatchesInsertFieldForField(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.InsertBars([]model.OHLCV{barAt(5, 100)}, 10))

	updated := model.OHLCV{
		Timestamp: 5,
		Open:      200,
		High:      210,
		Low:       190,
		Close:     205,
		Volume:    7,
		Symbol:    "BTC_JPY",
	}
	require.NoError(t, s.UpdateBars([]model.OHLCV{updated}))

	got, ok, err := s.BarAt(5)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, updated, got)
}

func TestBarsLimitAndOrder(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.InsertBars([]model.OHLCV{barAt(10, 101), barAt(5, 100), barAt(15, 102)}, 10))

	asc, err := s.Bars("BTC_JPY", 2, true)
	require.NoError(t, err)
	require.Len(t, asc, 2)
	assert.Equal(t, int64(5), asc[0].Timestamp)

	desc, err := s.Bars("BTC_JPY", 2, false)
	require.NoError(t, err)
	require.Len(t, desc, 2)
	assert.Equal(t, int64(15), desc[0].Timestamp)

	_, err = s.Bars("BTC_JPY", 0, true)
	require.True(t, errors.Is(err, exception.ErrInvalidLimit))
}

func TestInsertBarsKeepsZeroTimestamp(t *testing.T) {
	s := newTestStore(t)

	// The epoch bucket must round-trip as 0, not as a database-assigned key.
	require.NoError(t, s.InsertBars([]model.OHLCV{barAt(0, 100)}, 10))

	stored, err := s.BarStored(0)
	require.NoError(t, err)
	assert.True(t, stored)

	got, ok, err := s.BarAt(0)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(0), got.Timestamp)
	assert.Equal(t, 100.0, got.Close)
}

func TestBarAtMissing(t *testing.T) {
	s := newTestStore(t)

	_, ok, err := s.BarAt(42)
	require.NoError(t, err)
	assert.False(t, ok)
}
