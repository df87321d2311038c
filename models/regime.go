package models

import "time"

// RegimeType is a discrete label for aggregate directional risk appetite.
type RegimeType string

const (
	StrongRiskOn  RegimeType = "strong_risk_on"
	WeakRiskOn    RegimeType = "weak_risk_on"
	Neutral       RegimeType = "neutral"
	WeakRiskOff   RegimeType = "weak_risk_off"
	StrongRiskOff RegimeType = "strong_risk_off"

	// Sentinel variants carrying no tradable score.
	RegimeUnreliable RegimeType = "unreliable"
	RegimeDataError  RegimeType = "data_error"
)

type VIXCategory string

const (
	VIXLow      VIXCategory = "low"
	VIXModerate VIXCategory = "moderate"
	VIXHigh     VIXCategory = "high"
	VIXExtreme  VIXCategory = "extreme"
)

// RegimeClassification is the result of one regime analysis call.
type RegimeClassification struct {
	RegimeType        RegimeType     `json:"regimeType"`
	Score             float64        `json:"score"`
	CorrelationHealth float64        `json:"correlationHealth"`
	VIXLevel          float64        `json:"vixLevel"`
	ThresholdUsed     float64        `json:"thresholdUsed"`
	Confidence        float64        `json:"confidence"`
	Session           TradingSession `json:"session"`
	Status            string         `json:"status"`
	Reason            string         `json:"reason"`
	Timestamp         time.Time      `json:"timestamp"`
}

// IsSentinel reports whether this classification carries no tradable score.
func (rc *RegimeClassification) IsSentinel() bool {
	return rc.RegimeType == RegimeUnreliable || rc.RegimeType == RegimeDataError
}
