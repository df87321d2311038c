package models

import "time"

type SignalType string

const (
	SignalBuy     SignalType = "buy"
	SignalSell    SignalType = "sell"
	SignalClose   SignalType = "close"
	SignalNoTrade SignalType = "no_trade"
)

// SignalPriority rungs. First match wins during fusion.
type SignalPriority string

const (
	PriorityP0Critical SignalPriority = "P0" // regime shift, immediate action
	PriorityP1High     SignalPriority = "P1" // validated divergence
	PriorityP2Medium   SignalPriority = "P2" // strong regime
	PriorityP3Low      SignalPriority = "P3" // informational
)

// TradeSignal is the single output of one fusion cycle. It owns by value the
// classification and divergence that justified it.
type TradeSignal struct {
	ID                     string               `json:"id"`
	SignalType             SignalType           `json:"signalType"`
	Instrument             string               `json:"instrument"`
	Priority               SignalPriority       `json:"priority"`
	Confidence             float64              `json:"confidence"`
	Regime                 RegimeClassification `json:"regime"`
	Divergence             *DivergenceSignal    `json:"divergence,omitempty"`
	CorrelationHealth      string               `json:"correlationHealth"`
	SuggestedEntry         float64              `json:"suggestedEntry"`
	SuggestedStop          float64              `json:"suggestedStop"`
	SuggestedTarget        float64              `json:"suggestedTarget"`
	PositionSizeMultiplier float64              `json:"positionSizeMultiplier"`
	Reasoning              string               `json:"reasoning"`
	Timestamp              time.Time            `json:"timestamp"`
}

// IsActionable reports whether the signal proposes an action at all.
func (ts *TradeSignal) IsActionable() bool {
	return ts.SignalType != SignalNoTrade
}
