// Package signal produces entry/exit intent for the trading loop.
package signal

import (
	"main/internal/store"

	"github.com/yanun0323/errors"
)

// Intent is one evaluation of both sides. A zero Intent means "stand aside":
// the evaluator found too little data to quote.
type Intent struct {
	IsBuyEntry       bool
	IsSellEntry      bool
	BuyPrice         float64
	SellPrice        float64
	BuySize          float64
	SellSize         float64
	BuyPredictValue  float64
	SellPredictValue float64
}

// Port is what the pipeline calls to obtain intent. Implementations read the
// store; they never write it.
type Port interface {
	Evaluate(symbol string) (Intent, error)
}

const (
	lookbackBars = 5
	buyThreshold = 1.0
	orderSize    = 0.01
	quoteOffset  = 1.0 // one tick inside the touch
)

// UpCandle counts rising candles among the last few bars and quotes one tick
// inside the current best bid/ask. With the count at exactly the threshold it
// stands aside rather than guessing a direction.
type UpCandle struct {
	store *store.Store
}

func NewUpCandle(s *store.Store) *UpCandle {
	return &UpCandle{store: s}
}

func (u *UpCandle) Evaluate(symbol string) (Intent, error) {
	bars, err := u.store.Bars(symbol, lookbackBars, false)
	if err != nil {
		return Intent{}, errors.Wrap(err, "query recent bars")
	}
	if len(bars) == 0 {
		return Intent{}, nil
	}

	predictValue := 0.0
	for _, b := range bars {
		if b.Open != 0 && b.Close/b.Open-1 > 0 {
			predictValue++
		}
	}

	buyBoard, sellBoard, err := u.store.CurrentBoards(symbol)
	if err != nil {
		return Intent{}, errors.Wrap(err, "query current boards")
	}
	if len(buyBoard) == 0 || len(sellBoard) == 0 {
		return Intent{}, nil
	}

	// Boards come back price-ascending, so the best bid is the last buy row
	// and the best ask the first sell row.
	bestBid := buyBoard[len(buyBoard)-1].Price
	bestAsk := sellBoard[0].Price

	intent := Intent{
		BuyPrice:         bestBid + quoteOffset,
		SellPrice:        bestAsk - quoteOffset,
		BuySize:          orderSize,
		SellSize:         orderSize,
		BuyPredictValue:  predictValue,
		SellPredictValue: predictValue,
	}

	if predictValue != buyThreshold {
		intent.IsBuyEntry = predictValue > buyThreshold
		intent.IsSellEntry = !intent.IsBuyEntry
	}

	return intent, nil
}
