package models

import "time"

// DivergenceType is the direction implied by a price/correlation breakdown.
type DivergenceType string

const (
	BullishDivergence DivergenceType = "bullish"
	BearishDivergence DivergenceType = "bearish"
	InvalidDivergence DivergenceType = "invalid"
)

// DivergenceSignal is a detected divergence that survived every
// false-positive filter.
type DivergenceSignal struct {
	Type        DivergenceType     `json:"type"`
	Instrument  string             `json:"instrument"`
	Confidence  float64            `json:"confidence"`
	Magnitude   float64            `json:"magnitude"`
	Correlation float64            `json:"correlation"`
	Details     map[string]float64 `json:"details,omitempty"`
	Timestamp   time.Time          `json:"timestamp"`
}
