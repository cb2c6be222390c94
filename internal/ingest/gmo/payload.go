package gmo

import (
	"strconv"
	"time"

	"main/internal/model"
	"main/internal/model/enum"
	"main/pkg/exception"

	"github.com/google/uuid"
	"github.com/yanun0323/decimal"
	"github.com/yanun0323/errors"
)

// Envelope carries the fields shared by every public-channel message.
type Envelope struct {
	Channel string `json:"channel"`
	Error   string `json:"error"`
}

const (
	ChannelOrderbooks = "orderbooks"
	ChannelTrades     = "trades"
)

// BookLevel is one price level of a snapshot. GMO sends prices and sizes as
// decimal strings.
type BookLevel struct {
	Price decimal.Decimal `json:"price"`
	Size  decimal.Decimal `json:"size"`
}

// Orderbooks is a full book snapshot message.
type Orderbooks struct {
	Channel   string      `json:"channel"`
	Asks      []BookLevel `json:"asks"`
	Bids      []BookLevel `json:"bids"`
	Symbol    string      `json:"symbol"`
	Timestamp string      `json:"timestamp"` // ISO-8601
}

// Trade is a single public trade message.
type Trade struct {
	Channel   string          `json:"channel"`
	Price     decimal.Decimal `json:"price"`
	Side      string          `json:"side"`
	Size      decimal.Decimal `json:"size"`
	Timestamp string          `json:"timestamp"` // ISO-8601
	Symbol    string          `json:"symbol"`
}

// BoardRows normalizes a snapshot into board rows: asks become SELL rows,
// bids BUY rows, all sharing the snapshot's epoch-ms timestamp.
func (p Orderbooks) BoardRows() ([]model.Board, error) {
	timestamp, err := parseTimestampMS(p.Timestamp)
	if err != nil {
		return nil, errors.Wrap(err, "parse snapshot timestamp").With("raw", p.Timestamp)
	}

	rows := make([]model.Board, 0, len(p.Asks)+len(p.Bids))
	for _, level := range p.Asks {
		row, err := level.boardRow(timestamp, enum.SideSell, p.Symbol)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	for _, level := range p.Bids {
		row, err := level.boardRow(timestamp, enum.SideBuy, p.Symbol)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}

	return rows, nil
}

func (l BookLevel) boardRow(timestamp int64, side enum.Side, symbol string) (model.Board, error) {
	price, err := toFloat(l.Price)
	if err != nil {
		return model.Board{}, errors.Wrap(err, "parse level price")
	}

	size, err := toFloat(l.Size)
	if err != nil {
		return model.Board{}, errors.Wrap(err, "parse level size")
	}

	return model.Board{
		ID:        uuid.NewString(),
		Timestamp: timestamp,
		Price:     price,
		Size:      size,
		Side:      side,
		Symbol:    symbol,
	}, nil
}

// TickRow normalizes a trade message into a tick row. The side is validated
// even though tick rows do not carry it: a trade with a malformed side is a
// malformed trade.
func (p Trade) TickRow() (model.Tick, error) {
	if _, ok := enum.ParseSide(p.Side); !ok {
		return model.Tick{}, errors.Wrap(exception.ErrInvalidSide, "parse trade side").With("raw", p.Side)
	}

	timestamp, err := parseTimestampMS(p.Timestamp)
	if err != nil {
		return model.Tick{}, errors.Wrap(err, "parse trade timestamp").With("raw", p.Timestamp)
	}

	price, err := toFloat(p.Price)
	if err != nil {
		return model.Tick{}, errors.Wrap(err, "parse trade price")
	}

	size, err := toFloat(p.Size)
	if err != nil {
		return model.Tick{}, errors.Wrap(err, "parse trade size")
	}

	return model.Tick{
		ID:        uuid.NewString(),
		Timestamp: timestamp,
		Price:     price,
		Size:      size,
		Symbol:    p.Symbol,
	}, nil
}

func parseTimestampMS(raw string) (int64, error) {
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return 0, err
	}
	return t.UnixMilli(), nil
}

func toFloat(d decimal.Decimal) (float64, error) {
	return strconv.ParseFloat(d.String(), 64)
}
