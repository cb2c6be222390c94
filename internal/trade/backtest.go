// Package trade holds the position/P&L accounting engine and the live trading
// loop built on top of it.
package trade

import (
	"math"

	"main/pkg/exception"

	"github.com/yanun0323/errors"
)

// Series is the time-indexed input of one accounting run. All slices must
// share the length of Close. BuyPrice/SellPrice are the hypothetical resting
// order prices; NaN means no order at that step.
type Series struct {
	Close        []float64
	BuySignal    []bool
	SellSignal   []bool
	BuyPriority  []bool
	BuyExecuted  []bool
	SellExecuted []bool
	BuyPrice     []float64
	SellPrice    []float64
}

// Result carries the per-step outputs. Entry and exit price slices hold NaN
// at indices where no trade occurred.
type Result struct {
	CumulativeReturn []float64
	Position         []float64
	BuyEntryPrice    []float64
	SellEntryPrice   []float64
	BuyExitPrice     []float64
	SellExitPrice    []float64
}

// Backtest replays the series in index order against a unit position bound.
// It is a pure function of its input: repeated runs over the same series are
// bit-reproducible.
//
// Each step applies, strictly in order: short exit, long exit, long entry,
// short entry. Exits run before entries so a same-step flip never nets.
// Entries are mutually exclusive per step; the buy side wins when its
// priority flag is set. Exits close exactly one full unit or nothing, and
// cumulative return accrues in price-ratio units against the recorded entry
// price of the closed side.
func Backtest(in Series) (Result, error) {
	n := len(in.Close)
	if err := in.validate(n); err != nil {
		return Result{}, err
	}

	out := Result{
		CumulativeReturn: make([]float64, n),
		Position:         make([]float64, n),
		BuyEntryPrice:    nanSlice(n),
		SellEntryPrice:   nanSlice(n),
		BuyExitPrice:     nanSlice(n),
		SellExitPrice:    nanSlice(n),
	}

	var (
		ret            float64
		pos            float64
		buyEntryPrice  = 1.0
		sellEntryPrice = 1.0
	)

	for i := 0; i < n; i++ {
		prevPos := pos

		// Exit of short
		if in.BuyExecuted[i] && in.BuySignal[i] {
			if vol := math.Max(0, -prevPos); vol == 1 {
				out.BuyExitPrice[i] = in.BuyPrice[i]
				ret -= (in.BuyPrice[i]/sellEntryPrice - 1) * vol
				pos += vol
			}
		}

		// Exit of long
		if in.SellExecuted[i] && in.SellSignal[i] {
			if vol := math.Max(0, prevPos); vol == 1 {
				out.SellExitPrice[i] = in.SellPrice[i]
				ret += (in.SellPrice[i]/buyEntryPrice - 1) * vol
				pos -= vol
			}
		}

		// Entries size off prevPos, not the post-exit position.
		if in.BuyPriority[i] && in.BuySignal[i] && in.BuyExecuted[i] {
			vol := math.Min(1, 1-prevPos)
			pos += vol
			if vol == 1 {
				buyEntryPrice = in.BuyPrice[i]
				out.BuyEntryPrice[i] = in.BuyPrice[i]
			}
		} else if !in.BuyPriority[i] && in.SellSignal[i] && in.SellExecuted[i] {
			vol := math.Min(1, prevPos+1)
			pos -= vol
			if vol == 1 {
				sellEntryPrice = in.SellPrice[i]
				out.SellEntryPrice[i] = in.SellPrice[i]
			}
		}

		out.CumulativeReturn[i] = ret
		out.Position[i] = pos
	}

	return out, nil
}

func (in Series) validate(n int) error {
	ok := len(in.BuySignal) == n &&
		len(in.SellSignal) == n &&
		len(in.BuyPriority) == n &&
		len(in.BuyExecuted) == n &&
		len(in.SellExecuted) == n &&
		len(in.BuyPrice) == n &&
		len(in.SellPrice) == n
	if !ok {
		return errors.Wrap(exception.ErrInvalidArgument, "series lengths mismatch")
	}
	return nil
}

func nanSlice(n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = math.NaN()
	}
	return s
}
