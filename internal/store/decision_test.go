package store

import (
	"testing"

	"main/internal/model"
	"main/internal/model/enum"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertDecisionsFillsIDAndTimestamp(t *testing.T) {
	s := newTestStore(t)

	items := []model.Decision{
		{Side: enum.SideBuy, Price: 100, Size: 0.01, PredictValue: 2, Symbol: "BTC_JPY"},
		{Side: enum.SideSell, Price: 101, Size: 0.01, PredictValue: 2, Symbol: "BTC_JPY"},
	}
	require.NoError(t, s.InsertDecisions(items))

	rows, err := s.Decisions("BTC_JPY")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	for _, row := range rows {
		assert.NotEmpty(t, row.ID)
		assert.Positive(t, row.Timestamp)
	}
	assert.NotEqual(t, rows[0].ID, rows[1].ID)
}

func TestDecisionsAppendOnly(t *testing.T) {
	s := newTestStore(t)

	for i := 0; i < 5; i++ {
		err := s.InsertDecisions([]model.Decision{
			{Side: enum.SideBuy, Symbol: "BTC_JPY", Timestamp: int64(1000 + i)},
		})
		require.NoError(t, err)
	}

	rows, err := s.Decisions("BTC_JPY")
	require.NoError(t, err)
	assert.Len(t, rows, 5, "no eviction on the decision log")
	assert.Equal(t, int64(1000), rows[0].Timestamp)
}
