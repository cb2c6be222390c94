package signal

import (
	"fmt"
	"sync/atomic"
	"testing"

	"main/internal/model"
	"main/internal/model/enum"
	"main/internal/store"
	"main/pkg/conn"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDBSeq atomic.Int64

func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	dsn := fmt.Sprintf("file:signaltest%d?mode=memory&cache=shared", testDBSeq.Add(1))
	db, err := conn.NewSQLite(conn.SQLiteOption{DSN: dsn})
	require.NoError(t, err)

	s := store.New(db)
	require.NoError(t, s.Migrate())
	return s
}

// seedBars inserts one bar per element: true rises, false falls.
func seedBars(t *testing.T, s *store.Store, rising []bool) {
	t.Helper()

	bars := make([]model.OHLCV, 0, len(rising))
	for i, up := range rising {
		bar := model.OHLCV{
			Timestamp: int64(i * 5),
			Open:      100,
			High:      103,
			Low:       97,
			Close:     99,
			Volume:    1,
			Symbol:    "BTC_JPY",
		}
		if up {
			bar.Close = 101
		}
		bars = append(bars, bar)
	}
	require.NoError(t, s.InsertBars(bars, 1000))
}

func seedBoard(t *testing.T, s *store.Store) {
	t.Helper()

	rows := []model.Board{
		{ID: uuid.NewString(), Timestamp: 1000, Price: 455665, Size: 0.1, Side: enum.SideBuy, Symbol: "BTC_JPY"},
		{ID: uuid.NewString(), Timestamp: 1000, Price: 455660, Size: 0.2, Side: enum.SideBuy, Symbol: "BTC_JPY"},
		{ID: uuid.NewString(), Timestamp: 1000, Price: 455670, Size: 0.1, Side: enum.SideSell, Symbol: "BTC_JPY"},
		{ID: uuid.NewString(), Timestamp: 1000, Price: 455675, Size: 0.3, Side: enum.SideSell, Symbol: "BTC_JPY"},
	}
	require.NoError(t, s.InsertBoardSnapshot(rows, 1000))
}

func TestEvaluateNoBarsStandsAside(t *testing.T) {
	s := newTestStore(t)
	seedBoard(t, s)

	intent, err := NewUpCandle(s).Evaluate("BTC_JPY")
	require.NoError(t, err)
	assert.Equal(t, Intent{}, intent)
}

func TestEvaluateNoBoardStandsAside(t *testing.T) {
	s := newTestStore(t)
	seedBars(t, s, []bool{true, true, true})

	intent, err := NewUpCandle(s).Evaluate("BTC_JPY")
	require.NoError(t, err)
	assert.Equal(t, Intent{}, intent)
}

func TestEvaluateBuyEntry(t *testing.T) {
	s := newTestStore(t)
	seedBars(t, s, []bool{true, true, false, true, false})
	seedBoard(t, s)

	intent, err := NewUpCandle(s).Evaluate("BTC_JPY")
	require.NoError(t, err)

	assert.True(t, intent.IsBuyEntry)
	assert.False(t, intent.IsSellEntry)
	assert.Equal(t, 3.0, intent.BuyPredictValue)
	// One tick inside best bid and best ask.
	assert.Equal(t, 455666.0, intent.BuyPrice)
	assert.Equal(t, 455669.0, intent.SellPrice)
	assert.Equal(t, 0.01, intent.BuySize)
	assert.Equal(t, 0.01, intent.SellSize)
}

func TestEvaluateSellEntry(t *testing.T) {
	s := newTestStore(t)
	seedBars(t, s, []bool{false, false, false, false, false})
	seedBoard(t, s)

	intent, err := NewUpCandle(s).Evaluate("BTC_JPY")
	require.NoError(t, err)

	assert.False(t, intent.IsBuyEntry)
	assert.True(t, intent.IsSellEntry)
	assert.Equal(t, 0.0, intent.SellPredictValue)
}

func TestEvaluateThresholdStandsAside(t *testing.T) {
	s := newTestStore(t)
	seedBars(t, s, []bool{true, false, false, false, false})
	seedBoard(t, s)

	intent, err := NewUpCandle(s).Evaluate("BTC_JPY")
	require.NoError(t, err)

	// Exactly one rising candle gives no direction, but quotes still carry.
	assert.False(t, intent.IsBuyEntry)
	assert.False(t, intent.IsSellEntry)
	assert.Equal(t, 1.0, intent.BuyPredictValue)
	assert.Equal(t, 455666.0, intent.BuyPrice)
}

func TestEvaluateLooksBackFiveBarsOnly(t *testing.T) {
	s := newTestStore(t)
	// Five old rising bars followed by five recent falling ones: only the
	// recent window should count.
	seedBars(t, s, []bool{true, true, true, true, true, false, false, false, false, false})
	seedBoard(t, s)

	intent, err := NewUpCandle(s).Evaluate("BTC_JPY")
	require.NoError(t, err)

	assert.True(t, intent.IsSellEntry)
	assert.Equal(t, 0.0, intent.BuyPredictValue)
}
