package database

import (
	"time"

	"gorm.io/gorm"
)

// Signal is a persisted trade signal row.
type Signal struct {
	gorm.Model
	SignalID    string  `gorm:"index"`
	SignalType  string
	Priority    string
	Instrument  string
	Confidence  float64
	Regime      string
	RegimeScore float64
	Entry       float64
	StopLoss    float64
	TakeProfit  float64
	Reasoning   string
	SignalTime  time.Time
}

// TradeResult records a closed trade's outcome.
type TradeResult struct {
	gorm.Model
	SignalID   string `gorm:"index"`
	Instrument string
	Quantity   float64
	EntryPrice float64
	ExitPrice  float64
	PnL        float64
	EntryTime  time.Time
	ExitTime   time.Time
}

// RegimeSnapshot is one regime classification row, kept for later review of
// how the classifier behaved around shifts.
type RegimeSnapshot struct {
	gorm.Model
	Regime     string
	Score      float64
	VIXLevel   float64
	Threshold  float64
	Confidence float64
	Session    string
}
