package trade

import (
	"context"
	"time"

	"main/internal/bus"
	"main/internal/model"
	"main/internal/model/enum"
	"main/internal/signal"
	"main/internal/store"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"
)

// OrderClient fires the stubbed private request that stands in for order
// placement.
type OrderClient interface {
	TestPrivateRequest(ctx context.Context) error
}

const defaultPollInterval = 10 * time.Millisecond

// Trader polls the signal port once per bar-span boundary, fires the stub
// order on entry intent, and appends both sides to the decision log.
type Trader struct {
	store  *store.Store
	port   signal.Port
	orders OrderClient
	live   *bus.Liveness
	symbol string
	span   int

	now  func() time.Time
	poll time.Duration
}

func NewTrader(s *store.Store, port signal.Port, orders OrderClient, live *bus.Liveness, symbol string, span int) *Trader {
	return &Trader{
		store:  s,
		port:   port,
		orders: orders,
		live:   live,
		symbol: symbol,
		span:   span,
		now:    time.Now,
		poll:   defaultPollInterval,
	}
}

// WithClock overrides the time source and disables the inter-poll sleep.
func (t *Trader) WithClock(now func() time.Time) *Trader {
	t.now = now
	t.poll = 0
	return t
}

// Run loops until the context ends or the liveness flag drops. Any failure
// inside the loop is terminal for the run.
func (t *Trader) Run(ctx context.Context) error {
	var before int64 = -1

	for t.live.Alive() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		current := t.now().Unix() / int64(t.span)
		if before >= 0 && current > before {
			if err := t.evaluate(ctx); err != nil {
				return err
			}
		}
		before = current

		if t.poll > 0 {
			time.Sleep(t.poll)
		}
	}

	return nil
}

// Step forces one evaluation regardless of the span boundary.
func (t *Trader) Step(ctx context.Context) error {
	return t.evaluate(ctx)
}

func (t *Trader) evaluate(ctx context.Context) error {
	intent, err := t.port.Evaluate(t.symbol)
	if err != nil {
		return errors.Wrap(err, "evaluate signal")
	}

	if intent.IsBuyEntry {
		logs.Info("buy order")
		if err := t.fireOrder(ctx); err != nil {
			return errors.Wrap(err, "fire buy order")
		}
	}

	if intent.IsSellEntry {
		logs.Info("sell order")
		if err := t.fireOrder(ctx); err != nil {
			return errors.Wrap(err, "fire sell order")
		}
	}

	// Both sides are logged every cycle, including stand-aside cycles with
	// zero price and size: the offline eligibility pass keys off those zeros.
	decisions := []model.Decision{
		{
			Side:         enum.SideBuy,
			Price:        intent.BuyPrice,
			Size:         intent.BuySize,
			PredictValue: intent.BuyPredictValue,
			Symbol:       t.symbol,
		},
		{
			Side:         enum.SideSell,
			Price:        intent.SellPrice,
			Size:         intent.SellSize,
			PredictValue: intent.SellPredictValue,
			Symbol:       t.symbol,
		},
	}

	if err := t.store.InsertDecisions(decisions); err != nil {
		return errors.Wrap(err, "insert decisions")
	}

	return nil
}

func (t *Trader) fireOrder(ctx context.Context) error {
	if t.orders == nil {
		return nil
	}
	return t.orders.TestPrivateRequest(ctx)
}
