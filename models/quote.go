package models

import "time"

// MarketQuote is a single spot quote from the data feed.
type MarketQuote struct {
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	Bid       float64   `json:"bid"`
	Ask       float64   `json:"ask"`
	Spread    float64   `json:"spread"`
	Volume    float64   `json:"volume"`
	Timestamp time.Time `json:"timestamp"`
}
