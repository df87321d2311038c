package core

import (
	"fmt"
	"math"
	"time"

	"gitlab.com/acervero/RoRoSentinel/config"
	"gitlab.com/acervero/RoRoSentinel/helpers"
	"gitlab.com/acervero/RoRoSentinel/interfaces"
	"gitlab.com/acervero/RoRoSentinel/models"
)

const correlationHistoryCap = 1000

// CorrelationMonitor tracks correlation health between the configured
// instrument pairs. Critical for detecting regime changes and false signals.
type CorrelationMonitor struct {
	cfg      *config.Config
	dataFeed interfaces.DataFeed
	history  []models.CorrelationStatus
}

func NewCorrelationMonitor(cfg *config.Config, dataFeed interfaces.DataFeed) *CorrelationMonitor {
	return &CorrelationMonitor{cfg: cfg, dataFeed: dataFeed}
}

// CheckCorrelationHealth measures every configured pair. A failing pair is
// logged and skipped; it never aborts the batch.
func (cm *CorrelationMonitor) CheckCorrelationHealth() []models.CorrelationStatus {
	var statuses []models.CorrelationStatus
	lookback := cm.cfg.Correlation.LookbackPeriods

	for _, pair := range cm.cfg.Correlation.Pairs {
		status, err := cm.checkPairCorrelation(pair.First, pair.Second, lookback)
		if err != nil {
			helpers.Logger.Errorln(fmt.Sprintf("Error checking correlation %s/%s: %s", pair.First, pair.Second, err.Error()))
			continue
		}
		statuses = append(statuses, status)
		cm.logStatus(status)
	}

	cm.history = append(cm.history, statuses...)
	if len(cm.history) > correlationHistoryCap {
		cm.history = cm.history[len(cm.history)-correlationHistoryCap:]
	}

	return statuses
}

func (cm *CorrelationMonitor) checkPairCorrelation(inst1 string, inst2 string, lookback int) (models.CorrelationStatus, error) {
	// A few extra bars so that `lookback` aligned returns survive the
	// percent-change and alignment drops.
	bars := lookback + 10
	series1, err := cm.dataFeed.GetSeries(inst1, bars, "1m")
	if err != nil {
		return models.CorrelationStatus{}, err
	}
	series2, err := cm.dataFeed.GetSeries(inst2, bars, "1m")
	if err != nil {
		return models.CorrelationStatus{}, err
	}

	correlation, volatility := helpers.Correlation(&series1, &series2, lookback)

	return models.CorrelationStatus{
		Instrument1:     inst1,
		Instrument2:     inst2,
		Correlation:     correlation,
		Volatility:      volatility,
		Health:          cm.assessHealth(correlation, volatility),
		LookbackPeriods: lookback,
		Timestamp:       time.Now().UTC(),
	}, nil
}

// assessHealth derives the 4-rung health ladder. Volatility above the limit
// dominates regardless of correlation strength.
func (cm *CorrelationMonitor) assessHealth(correlation float64, volatility float64) models.CorrelationHealth {
	healthy := cm.cfg.Correlation.HealthyThreshold
	critical := cm.cfg.Correlation.CriticalBreakdown

	if volatility > cm.cfg.Correlation.VolatilityLimit {
		return models.CorrelationWarning
	}

	abs := math.Abs(correlation)
	switch {
	case abs >= healthy:
		return models.CorrelationHealthy
	case abs >= critical:
		return models.CorrelationWarning
	case abs >= critical*0.75:
		return models.CorrelationCritical
	default:
		return models.CorrelationBroken
	}
}

func (cm *CorrelationMonitor) logStatus(status models.CorrelationStatus) {
	switch status.Health {
	case models.CorrelationCritical, models.CorrelationBroken:
		helpers.Logger.Warnln(fmt.Sprintf("CORRELATION %s: %s/%s = %.3f (vol: %.3f)",
			status.Health, status.Instrument1, status.Instrument2, status.Correlation, status.Volatility))
	case models.CorrelationWarning:
		helpers.Logger.Infoln(fmt.Sprintf("Correlation warning: %s/%s = %.3f (vol: %.3f)",
			status.Instrument1, status.Instrument2, status.Correlation, status.Volatility))
	}
}

func (cm *CorrelationMonitor) isCorePair(status *models.CorrelationStatus) bool {
	first := cm.cfg.Instruments.PrimaryIndex
	second := cm.cfg.Instruments.CarryPair
	return (status.Instrument1 == first && status.Instrument2 == second) ||
		(status.Instrument1 == second && status.Instrument2 == first)
}

// CoreCorrelation returns the most recent core-pair correlation.
func (cm *CorrelationMonitor) CoreCorrelation() float64 {
	for i := len(cm.history) - 1; i >= 0; i-- {
		if cm.isCorePair(&cm.history[i]) {
			return cm.history[i].Correlation
		}
	}
	return 0.0
}

// IsCorrelationHealthy reports whether every core-pair entry among the last
// ten history records is HEALTHY or WARNING. No history means not healthy.
func (cm *CorrelationMonitor) IsCorrelationHealthy() bool {
	start := len(cm.history) - 10
	if start < 0 {
		start = 0
	}

	found := false
	for _, status := range cm.history[start:] {
		if !cm.isCorePair(&status) {
			continue
		}
		found = true
		if status.Health != models.CorrelationHealthy && status.Health != models.CorrelationWarning {
			return false
		}
	}
	return found
}

// Report aggregates the last 20 checks per pair.
func (cm *CorrelationMonitor) Report() models.CorrelationReport {
	report := models.CorrelationReport{
		Timestamp:     time.Now().UTC(),
		OverallHealth: "NO_DATA",
		Pairs:         map[string]models.PairCorrelationReport{},
	}
	if len(cm.history) == 0 {
		return report
	}

	start := len(cm.history) - 20
	if start < 0 {
		start = 0
	}
	recent := cm.history[start:]

	grouped := map[string][]models.CorrelationStatus{}
	for _, status := range recent {
		key := status.Instrument1 + "/" + status.Instrument2
		grouped[key] = append(grouped[key], status)
	}

	report.OverallHealth = "HEALTHY"
	for key, statuses := range grouped {
		latest := statuses[len(statuses)-1]
		var correlations, volatilities []float64
		for _, s := range statuses {
			correlations = append(correlations, s.Correlation)
			volatilities = append(volatilities, s.Volatility)
		}

		report.Pairs[key] = models.PairCorrelationReport{
			CurrentCorrelation: latest.Correlation,
			AvgCorrelation:     helpers.Mean(correlations),
			AvgVolatility:      helpers.Mean(volatilities),
			Health:             latest.Health,
		}

		if latest.Health == models.CorrelationCritical || latest.Health == models.CorrelationBroken {
			report.OverallHealth = "CRITICAL"
		} else if latest.Health == models.CorrelationWarning && report.OverallHealth == "HEALTHY" {
			report.OverallHealth = "WARNING"
		}
	}
	return report
}
