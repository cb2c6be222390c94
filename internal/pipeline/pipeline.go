// Package pipeline runs the ingestion, aggregation and trading loops as one
// orchestration unit: any terminal failure inside tears down the whole unit
// and surfaces as a connection failure for the supervisor to restart.
package pipeline

import (
	"context"
	"sync"
	"time"

	"main/internal/bar"
	"main/internal/bus"
	"main/internal/model"
	"main/internal/store"
	"main/pkg/exception"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"
)

// Runner is a long-running loop owned by the pipeline (feed pump, trader).
type Runner interface {
	Run(ctx context.Context) error
}

// Config carries the retention and cadence settings of one run.
type Config struct {
	Symbol           string
	BarSpanSeconds   int
	MaxBoardSnapshot int
	MaxTickRows      int
	MaxOhlcvRows     int
}

const drainInterval = 10 * time.Millisecond

// Pipeline wires the queues, store and loops of one orchestration unit.
type Pipeline struct {
	cfg    Config
	store  *store.Store
	agg    *bar.Aggregator
	boards *bus.Queue[[]model.Board]
	ticks  *bus.Queue[model.Tick]
	live   *bus.Liveness
	feed   Runner
	trader Runner
}

func New(cfg Config, s *store.Store, agg *bar.Aggregator, boards *bus.Queue[[]model.Board], ticks *bus.Queue[model.Tick], live *bus.Liveness, feed, trader Runner) *Pipeline {
	return &Pipeline{
		cfg:    cfg,
		store:  s,
		agg:    agg,
		boards: boards,
		ticks:  ticks,
		live:   live,
		feed:   feed,
		trader: trader,
	}
}

// Run blocks until a loop fails or the context ends. Every failure comes back
// as ErrConnectionFailed: the caller restarts the whole unit against a reset
// store, never a single loop.
func (p *Pipeline) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 3)
	var wg sync.WaitGroup

	run := func(name string, fn func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errCh <- errors.Wrap(err, name)
			}
			// Whatever ends first, the rest of the unit follows.
			p.live.Kill()
			cancel()
		}()
	}

	run("feed", p.feed.Run)
	run("store worker", p.storeWorker)
	run("trader", p.trader.Run)

	wg.Wait()
	close(errCh)

	if err := <-errCh; err != nil {
		logs.Errorf("pipeline failed: %+v", err)
		return errors.Wrap(exception.ErrConnectionFailed, err.Error())
	}

	return ctx.Err()
}

// storeWorker is the single writer of the retention tables. Each cycle drains
// every queued board snapshot, then every queued tick, then aggregates, so
// bar aggregation always observes the ticks flushed by its own cycle.
func (p *Pipeline) storeWorker(ctx context.Context) error {
	for p.live.Alive() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := p.DrainCycle(); err != nil {
			return err
		}

		time.Sleep(drainInterval)
	}

	return nil
}

// DrainCycle performs one flush-and-aggregate pass.
func (p *Pipeline) DrainCycle() error {
	for {
		rows, ok := p.boards.Pop()
		if !ok {
			break
		}
		if err := p.store.InsertBoardSnapshot(rows, p.cfg.MaxBoardSnapshot); err != nil {
			return errors.Wrap(err, "insert board snapshot")
		}
	}

	for {
		tick, ok := p.ticks.Pop()
		if !ok {
			break
		}
		if err := p.store.InsertTick(tick, p.cfg.MaxTickRows); err != nil {
			return errors.Wrap(err, "insert tick")
		}
	}

	if err := p.agg.Run(p.cfg.Symbol, p.cfg.BarSpanSeconds, p.cfg.MaxOhlcvRows); err != nil {
		return errors.Wrap(err, "aggregate bars")
	}

	return nil
}
