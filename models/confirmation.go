package models

import "time"

// ConfirmationResponse is terminal per trade id. Once recorded it is
// immutable.
type ConfirmationResponse struct {
	TradeID   string    `json:"tradeId"`
	Confirmed bool      `json:"confirmed"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

// PendingTrade describes a trade awaiting out-of-band confirmation.
type PendingTrade struct {
	Instrument string     `json:"instrument"`
	SignalType SignalType `json:"signalType"`
	Confidence float64    `json:"confidence"`
	Timestamp  time.Time  `json:"timestamp"`
	AgeSeconds float64    `json:"ageSeconds"`
}
