package pipeline

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"main/internal/bar"
	"main/internal/bus"
	"main/internal/model"
	"main/internal/model/enum"
	"main/internal/store"
	"main/pkg/conn"
	"main/pkg/exception"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yanun0323/errors"
)

var testDBSeq atomic.Int64

func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	dsn := fmt.Sprintf("file:pipelinetest%d?mode=memory&cache=shared", testDBSeq.Add(1))
	db, err := conn.NewSQLite(conn.SQLiteOption{DSN: dsn})
	require.NoError(t, err)

	s := store.New(db)
	require.NoError(t, s.Migrate())
	return s
}

type runnerFunc func(ctx context.Context) error

func (f runnerFunc) Run(ctx context.Context) error { return f(ctx) }

func blockUntilDone(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func testConfig() Config {
	return Config{
		Symbol:           "BTC_JPY",
		BarSpanSeconds:   5,
		MaxBoardSnapshot: 1000,
		MaxTickRows:      1000,
		MaxOhlcvRows:     1000,
	}
}

func TestDrainCyclePersistsAndAggregates(t *testing.T) {
	s := newTestStore(t)
	agg := bar.New(s).WithClock(func() time.Time { return time.Unix(103, 0) })

	boards := bus.NewQueue[[]model.Board]()
	ticks := bus.NewQueue[model.Tick]()

	boards.Push([]model.Board{
		{ID: uuid.NewString(), Timestamp: 96000, Price: 99, Size: 0.1, Side: enum.SideBuy, Symbol: "BTC_JPY"},
		{ID: uuid.NewString(), Timestamp: 96000, Price: 101, Size: 0.1, Side: enum.SideSell, Symbol: "BTC_JPY"},
	})
	ticks.Push(model.Tick{ID: uuid.NewString(), Timestamp: 96000, Price: 100, Size: 0.5, Symbol: "BTC_JPY"})
	ticks.Push(model.Tick{ID: uuid.NewString(), Timestamp: 97000, Price: 102, Size: 0.5, Symbol: "BTC_JPY"})

	p := New(testConfig(), s, agg, boards, ticks, bus.NewLiveness(), nil, nil)
	require.NoError(t, p.DrainCycle())

	// Both queues drained in one pass.
	assert.Zero(t, boards.Len())
	assert.Zero(t, ticks.Len())

	bids, err := s.CurrentBoard("BTC_JPY", enum.SideBuy)
	require.NoError(t, err)
	require.Len(t, bids, 1)

	rows, err := s.Ticks(false, 10)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	// The ticks flushed this cycle are already visible to the aggregation.
	ohlcv, found, err := s.BarAt(95)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 100.0, ohlcv.Open)
	assert.Equal(t, 102.0, ohlcv.Close)
	assert.Equal(t, 1.0, ohlcv.Volume)
}

func TestDrainCycleEmptyQueuesIsNoOp(t *testing.T) {
	s := newTestStore(t)
	agg := bar.New(s).WithClock(func() time.Time { return time.Unix(103, 0) })

	p := New(testConfig(), s, agg, bus.NewQueue[[]model.Board](), bus.NewQueue[model.Tick](), bus.NewLiveness(), nil, nil)
	require.NoError(t, p.DrainCycle())

	bars, err := s.AllBars("BTC_JPY", true)
	require.NoError(t, err)
	assert.Empty(t, bars)
}

func TestRunSurfacesLoopFailure(t *testing.T) {
	s := newTestStore(t)
	agg := bar.New(s).WithClock(func() time.Time { return time.Unix(103, 0) })
	live := bus.NewLiveness()

	feed := runnerFunc(func(context.Context) error {
		return errors.New("socket dropped")
	})
	trader := runnerFunc(blockUntilDone)

	p := New(testConfig(), s, agg, bus.NewQueue[[]model.Board](), bus.NewQueue[model.Tick](), live, feed, trader)

	err := p.Run(context.Background())
	assert.True(t, errors.Is(err, exception.ErrConnectionFailed))
	assert.False(t, live.Alive(), "a failed loop kills the whole unit")
}

func TestRunWrappedCancellationIsNotFailure(t *testing.T) {
	s := newTestStore(t)
	agg := bar.New(s).WithClock(func() time.Time { return time.Unix(103, 0) })
	live := bus.NewLiveness()

	feed := runnerFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return errors.Wrap(ctx.Err(), "feed stopped")
	})
	trader := runnerFunc(blockUntilDone)

	p := New(testConfig(), s, agg, bus.NewQueue[[]model.Board](), bus.NewQueue[model.Tick](), live, feed, trader)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	cancel()

	select {
	case err := <-done:
		assert.False(t, errors.Is(err, exception.ErrConnectionFailed))
		assert.True(t, errors.Is(err, context.Canceled))
	case <-time.After(2 * time.Second):
		t.Fatal("pipeline did not stop after cancel")
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	s := newTestStore(t)
	agg := bar.New(s).WithClock(func() time.Time { return time.Unix(103, 0) })
	live := bus.NewLiveness()

	feed := runnerFunc(blockUntilDone)
	trader := runnerFunc(blockUntilDone)

	p := New(testConfig(), s, agg, bus.NewQueue[[]model.Board](), bus.NewQueue[model.Tick](), live, feed, trader)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("pipeline did not stop after cancel")
	}
	assert.False(t, live.Alive())
}
