package models

import "time"

// AccountSummary is the broker's view of the account.
type AccountSummary struct {
	Equity            float64   `json:"equity"`
	Cash              float64   `json:"cash"`
	MarginUsed        float64   `json:"marginUsed"`
	MarginAvailable   float64   `json:"marginAvailable"`
	MaintenanceMargin float64   `json:"maintenanceMargin"`
	BuyingPower       float64   `json:"buyingPower"`
	UnrealizedPnL     float64   `json:"unrealizedPnl"`
	RealizedPnL       float64   `json:"realizedPnl"`
	Timestamp         time.Time `json:"timestamp"`
}

// Position is an open position reported by the broker.
type Position struct {
	Symbol        string    `json:"symbol"`
	Quantity      float64   `json:"quantity"`
	EntryPrice    float64   `json:"entryPrice"`
	CurrentPrice  float64   `json:"currentPrice"`
	UnrealizedPnL float64   `json:"unrealizedPnl"`
	RealizedPnL   float64   `json:"realizedPnl"`
	MarginUsed    float64   `json:"marginUsed"`
	Timestamp     time.Time `json:"timestamp"`
}

// Value is the absolute market value of the position.
func (p *Position) Value() float64 {
	value := p.Quantity * p.CurrentPrice
	if value < 0 {
		return -value
	}
	return value
}
