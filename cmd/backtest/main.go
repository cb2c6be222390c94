// Command backtest replays a recorded session offline: it loads the stored
// bars and decision log, derives fill eligibility against the following bar,
// and runs the accounting engine over the whole series.
package main

import (
	"errors"
	"flag"
	"fmt"
	"math"
	"os"

	"main/internal/model"
	"main/internal/model/enum"
	"main/internal/store"
	"main/internal/trade"
	"main/pkg/conn"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "backtest: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	dbFlag := flag.String("db", "", "sqlite database file recorded by the bot")
	symbolFlag := flag.String("symbol", "BTC_JPY", "symbol to replay")
	spanFlag := flag.Int("span", 5, "bar span in seconds")
	tailFlag := flag.Int("tail", 10, "result rows to print")
	flag.Parse()

	if *dbFlag == "" {
		return errors.New("missing database file; use -db")
	}

	db, err := conn.NewSQLite(conn.SQLiteOption{DSN: *dbFlag})
	if err != nil {
		return err
	}
	st := store.New(db)

	bars, err := st.AllBars(*symbolFlag, true)
	if err != nil {
		return err
	}
	if len(bars) < 2 {
		return fmt.Errorf("not enough bars recorded: %d", len(bars))
	}

	decisions, err := st.Decisions(*symbolFlag)
	if err != nil {
		return err
	}

	series := buildSeries(bars, decisions, int64(*spanFlag))

	result, err := trade.Backtest(series)
	if err != nil {
		return err
	}

	printResult(bars, result, *tailFlag)
	return nil
}

// buildSeries aligns decision rows onto bar buckets and derives the signal
// and eligibility inputs. Buckets without a decision keep NaN prices and zero
// sizes, which disable both the signal and the fill check.
func buildSeries(bars []model.OHLCV, decisions []model.Decision, span int64) trade.Series {
	n := len(bars)

	index := make(map[int64]int, n)
	for i, b := range bars {
		index[b.Timestamp] = i
	}

	buyPrices, sellPrices := nanSlice(n), nanSlice(n)
	buySizes, sellSizes := make([]float64, n), make([]float64, n)

	for _, d := range decisions {
		bucket := d.Timestamp / 1000 / span * span
		i, ok := index[bucket]
		if !ok {
			continue
		}

		if d.Side == enum.SideBuy {
			buyPrices[i], buySizes[i] = d.Price, d.Size
		} else {
			sellPrices[i], sellSizes[i] = d.Price, d.Size
		}
	}

	closes := make([]float64, n)
	for i, b := range bars {
		closes[i] = b.Close
	}

	buyExecuted := trade.ExecutedSeries(enum.SideBuy, buyPrices, bars)
	sellExecuted := trade.ExecutedSeries(enum.SideSell, sellPrices, bars)

	return trade.Series{
		Close:        closes,
		BuySignal:    trade.EntrySeries(buyPrices, buySizes),
		SellSignal:   trade.EntrySeries(sellPrices, sellSizes),
		BuyPriority:  buyExecuted,
		BuyExecuted:  buyExecuted,
		SellExecuted: sellExecuted,
		BuyPrice:     buyPrices,
		SellPrice:    sellPrices,
	}
}

func printResult(bars []model.OHLCV, result trade.Result, tail int) {
	n := len(bars)

	trades := 0
	for i := 0; i < n; i++ {
		if !math.IsNaN(result.BuyEntryPrice[i]) || !math.IsNaN(result.SellEntryPrice[i]) {
			trades++
		}
	}

	fmt.Printf("steps: %d  entries: %d  final position: %+.0f  cumulative return: %+.6f\n",
		n, trades, result.Position[n-1], result.CumulativeReturn[n-1])

	start := n - tail
	if start < 0 {
		start = 0
	}

	fmt.Println("timestamp      close        position  cum_return")
	for i := start; i < n; i++ {
		fmt.Printf("%-14d %-12.2f %+8.0f  %+.6f\n",
			bars[i].Timestamp, bars[i].Close, result.Position[i], result.CumulativeReturn[i])
	}
}

func nanSlice(n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = math.NaN()
	}
	return s
}
