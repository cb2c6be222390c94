package trade

import (
	"main/internal/model"
	"main/internal/model/enum"
)

// ExecutedSeries derives fill eligibility per step: a resting buy at prices[i]
// would have filled if it crossed the next bar's low, a resting sell if it
// crossed the next bar's high. The last step has no following bar and never
// executes, and so does any step with a NaN price.
func ExecutedSeries(side enum.Side, prices []float64, bars []model.OHLCV) []bool {
	executed := make([]bool, len(prices))
	for i := range prices {
		if i+1 >= len(bars) {
			break
		}

		if side == enum.SideBuy {
			executed[i] = prices[i] > bars[i+1].Low
		} else {
			executed[i] = prices[i] < bars[i+1].High
		}
	}

	return executed
}

// EntrySeries flags the steps whose decision carries a real order: the signal
// evaluator emits zero price and size when it declines to enter.
func EntrySeries(prices, sizes []float64) []bool {
	entries := make([]bool, len(prices))
	for i := range entries {
		entries[i] = sizes[i] != 0 && prices[i] != 0
	}
	return entries
}
