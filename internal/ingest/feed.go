// Package ingest pumps normalized feed events into the ingestion queues.
package ingest

import (
	"context"

	"main/internal/bus"
	"main/internal/ingest/gmo"
	"main/internal/model"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"
)

// Feed is the producer side of the pipeline: one websocket connection whose
// snapshots and trades land in the board and tick queues.
type Feed struct {
	pub    *gmo.Pub
	boards *bus.Queue[[]model.Board]
	ticks  *bus.Queue[model.Tick]
	live   *bus.Liveness
	symbol string
}

func NewFeed(pub *gmo.Pub, boards *bus.Queue[[]model.Board], ticks *bus.Queue[model.Tick], live *bus.Liveness, symbol string) *Feed {
	return &Feed{
		pub:    pub,
		boards: boards,
		ticks:  ticks,
		live:   live,
		symbol: symbol,
	}
}

// Run subscribes both public channels and pumps events until the context ends
// or the connection drops. The returned error is terminal for the run.
func (f *Feed) Run(ctx context.Context) error {
	if err := f.pub.StartWebsocket(ctx); err != nil {
		return errors.Wrap(err, "start feed websocket")
	}
	defer f.pub.Close()

	if err := f.pub.SubscribeOrderbooks(f.symbol); err != nil {
		return errors.Wrap(err, "subscribe orderbooks")
	}
	if err := f.pub.SubscribeTrades(f.symbol); err != nil {
		return errors.Wrap(err, "subscribe trades")
	}

	logs.Infof("feed subscribed, symbol: %s", f.symbol)

	return f.pub.Listen(ctx, f.onOrderbooks, f.onTrade)
}

func (f *Feed) onOrderbooks(payload gmo.Orderbooks) {
	if !f.live.Alive() {
		return
	}

	rows, err := payload.BoardRows()
	if err != nil {
		logs.Errorf("normalize snapshot, err: %+v", err)
		return
	}

	f.boards.Push(rows)
}

func (f *Feed) onTrade(payload gmo.Trade) {
	if !f.live.Alive() {
		return
	}

	row, err := payload.TickRow()
	if err != nil {
		logs.Errorf("normalize trade, err: %+v", err)
		return
	}

	f.ticks.Push(row)
}
