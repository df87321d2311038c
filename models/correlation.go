package models

import "time"

// CorrelationHealth is a categorical judgment of whether a measured
// correlation is strong and stable enough to be decision-relevant.
type CorrelationHealth string

const (
	CorrelationHealthy  CorrelationHealth = "healthy"
	CorrelationWarning  CorrelationHealth = "warning"
	CorrelationCritical CorrelationHealth = "critical"
	CorrelationBroken   CorrelationHealth = "broken"
)

// CorrelationStatus is the measured state of one instrument pair.
type CorrelationStatus struct {
	Instrument1     string            `json:"instrument1"`
	Instrument2     string            `json:"instrument2"`
	Correlation     float64           `json:"correlation"`
	Volatility      float64           `json:"volatility"`
	Health          CorrelationHealth `json:"health"`
	LookbackPeriods int               `json:"lookbackPeriods"`
	Timestamp       time.Time         `json:"timestamp"`
}

// PairCorrelationReport aggregates recent checks for one pair.
type PairCorrelationReport struct {
	CurrentCorrelation float64           `json:"currentCorrelation"`
	AvgCorrelation     float64           `json:"avgCorrelation"`
	AvgVolatility      float64           `json:"avgVolatility"`
	Health             CorrelationHealth `json:"health"`
}

type CorrelationReport struct {
	Timestamp     time.Time                        `json:"timestamp"`
	OverallHealth string                           `json:"overallHealth"`
	Pairs         map[string]PairCorrelationReport `json:"pairs"`
}
