// Package bar turns the retained tick stream into fixed-span OHLCV bars.
package bar

import (
	"sort"
	"time"

	"main/internal/model"
	"main/internal/store"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"
)

// Aggregator builds bars for one symbol from the tick table. Running it twice
// over the same ticks and clock yields the same bar rows.
type Aggregator struct {
	store *store.Store
	now   func() time.Time
}

// New creates an aggregator against the shared store.
func New(s *store.Store) *Aggregator {
	return &Aggregator{store: s, now: time.Now}
}

// WithClock overrides the time source.
func (a *Aggregator) WithClock(now func() time.Time) *Aggregator {
	a.now = now
	return a
}

// Run performs one aggregation cycle: bucket the recent ticks, upsert the
// derived bars, and fill the preceding bucket with a flat bar when trading
// paused there. A cycle without ticks is a no-op.
func (a *Aggregator) Run(symbol string, span int, maxRows int) error {
	spanMS := int64(span) * 1000

	// Only the last ~2 buckets are ever rebuilt, which bounds cycle cost.
	minTimestamp := (a.now().Unix()/int64(span) - 1) * spanMS

	ticks, err := a.store.TicksSince(symbol, minTimestamp)
	if err != nil {
		return errors.Wrap(err, "query recent ticks")
	}

	bars := bucketize(ticks, symbol, spanMS)

	var (
		inserts []model.OHLCV
		updates []model.OHLCV
		seen    = make(map[int64]bool, len(bars))
	)

	for _, item := range bars {
		stored, err := a.store.BarStored(item.Timestamp)
		if err != nil {
			return errors.Wrap(err, "check stored bar")
		}

		seen[item.Timestamp] = true
		if stored {
			updates = append(updates, item)
		} else {
			inserts = append(inserts, item)
		}
	}

	if flat, ok, err := a.flatBar(symbol, span, minTimestamp/1000, seen); err != nil {
		return err
	} else if ok {
		inserts = append(inserts, flat)
	}

	if len(inserts) == 0 && len(updates) == 0 {
		return nil
	}

	if err := a.store.InsertBars(inserts, maxRows); err != nil {
		return errors.Wrap(err, "insert bars")
	}
	if err := a.store.UpdateBars(updates); err != nil {
		return errors.Wrap(err, "update bars")
	}

	logs.Debugf("aggregated %d bars (%d new) for %s", len(inserts)+len(updates), len(inserts), symbol)
	return nil
}

// flatBar synthesizes a zero-volume bar at checkTimestamp (the bucket before
// the current one, unix seconds) when that bucket saw no trades but the
// bucket before it is stored. Consumers of the bar series then never observe
// a hole once trading has started.
func (a *Aggregator) flatBar(symbol string, span int, checkTimestamp int64, seen map[int64]bool) (model.OHLCV, bool, error) {
	if seen[checkTimestamp] {
		return model.OHLCV{}, false, nil
	}

	stored, err := a.store.BarStored(checkTimestamp)
	if err != nil || stored {
		return model.OHLCV{}, false, err
	}

	prev, ok, err := a.store.BarAt(checkTimestamp - int64(span))
	if err != nil || !ok {
		return model.OHLCV{}, false, err
	}

	return model.OHLCV{
		Timestamp: checkTimestamp,
		Open:      prev.Close,
		High:      prev.Close,
		Low:       prev.Close,
		Close:     prev.Close,
		Volume:    0,
		Symbol:    symbol,
	}, true, nil
}

// bucketize partitions ticks into spanMS-wide buckets and reduces each bucket
// to a bar. Open and close take the earliest and latest tick; ties on equal
// timestamps resolve toward the largest price, which keeps the reduction
// independent of tick arrival order.
func bucketize(ticks []model.Tick, symbol string, spanMS int64) []model.OHLCV {
	type acc struct {
		openTS, closeTS int64
		open, close     float64
		high, low       float64
		volume          float64
	}

	buckets := make(map[int64]*acc)
	for _, tick := range ticks {
		bucket := tick.Timestamp / spanMS

		b, ok := buckets[bucket]
		if !ok {
			buckets[bucket] = &acc{
				openTS:  tick.Timestamp,
				closeTS: tick.Timestamp,
				open:    tick.Price,
				close:   tick.Price,
				high:    tick.Price,
				low:     tick.Price,
				volume:  tick.Size,
			}
			continue
		}

		if tick.Timestamp < b.openTS || (tick.Timestamp == b.openTS && tick.Price > b.open) {
			b.openTS = tick.Timestamp
			b.open = tick.Price
		}
		if tick.Timestamp > b.closeTS || (tick.Timestamp == b.closeTS && tick.Price > b.close) {
			b.closeTS = tick.Timestamp
			b.close = tick.Price
		}
		b.high = max(b.high, tick.Price)
		b.low = min(b.low, tick.Price)
		b.volume += tick.Size
	}

	keys := make([]int64, 0, len(buckets))
	for key := range buckets {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	bars := make([]model.OHLCV, 0, len(keys))
	for _, key := range keys {
		b := buckets[key]
		bars = append(bars, model.OHLCV{
			Timestamp: key * spanMS / 1000,
			Open:      b.open,
			High:      b.high,
			Low:       b.low,
			Close:     b.close,
			Volume:    b.volume,
			Symbol:    symbol,
		})
	}

	return bars
}
