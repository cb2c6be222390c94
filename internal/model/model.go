package model

import (
	"main/internal/model/enum"
)

// Board is one price level of an order-book snapshot. All rows of a snapshot
// share the same timestamp.
type Board struct {
	ID        string    `gorm:"primaryKey;size:128"`
	Timestamp int64     `gorm:"index"` // unix ms
	Price     float64   `gorm:"index"`
	Size      float64
	Side      enum.Side `gorm:"size:10;index"`
	Symbol    string    `gorm:"size:10;index"`
}

func (Board) TableName() string { return "board" }

// Tick is a single trade event.
type Tick struct {
	ID        string  `gorm:"primaryKey;size:128"`
	Timestamp int64   `gorm:"index"` // unix ms
	Price     float64 `gorm:"index"`
	Size      float64
	Symbol    string `gorm:"size:10;index"`
}

func (Tick) TableName() string { return "tick" }

// OHLCV is one fixed-span bar. Timestamp is the bucket start in unix seconds
// and acts as the primary key, so there is at most one bar per bucket.
type OHLCV struct {
	Timestamp int64 `gorm:"primaryKey;autoIncrement:false"` // unix seconds, bucket start
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	Symbol    string `gorm:"size:10;index"`
}

func (OHLCV) TableName() string { return "ohlcv" }

// Decision is one row of the append-only signal-evaluation audit log.
type Decision struct {
	ID           string    `gorm:"primaryKey;size:128"`
	Timestamp    int64     `gorm:"index"` // unix ms
	Side         enum.Side `gorm:"size:10"`
	Price        float64
	Size         float64
	PredictValue float64
	Symbol       string `gorm:"size:10;index"`
}

func (Decision) TableName() string { return "predict" }
