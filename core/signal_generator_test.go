package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"gitlab.com/acervero/RoRoSentinel/models"
)

func classification(regimeType models.RegimeType, confidence float64) models.RegimeClassification {
	return models.RegimeClassification{
		RegimeType: regimeType,
		Score:      2.5,
		Confidence: confidence,
		Session:    models.SessionEuropean,
		Status:     "OK",
		Timestamp:  time.Now().UTC(),
	}
}

func healthyMonitor() *CorrelationMonitor {
	monitor := NewCorrelationMonitor(testConfig(), &stubFeed{})
	monitor.history = append(monitor.history, coreStatus(models.CorrelationHealthy))
	return monitor
}

func TestGenerateSignalDefaultsToNoTrade(t *testing.T) {
	monitor := NewCorrelationMonitor(testConfig(), &stubFeed{})
	generator := NewSignalGenerator(testConfig(), &stubFeed{}, monitor)

	signal := generator.GenerateSignal(classification(models.Neutral, 0.9), nil)

	assert.Equal(t, models.SignalNoTrade, signal.SignalType)
	assert.Equal(t, models.PriorityP3Low, signal.Priority)
	assert.False(t, signal.IsActionable())
	assert.Equal(t, models.Neutral, signal.Regime.RegimeType)
	assert.NotEmpty(t, signal.ID)
}

func TestGenerateSignalSentinelRegimeNeverTrades(t *testing.T) {
	generator := NewSignalGenerator(testConfig(), &stubFeed{}, healthyMonitor())

	for _, sentinel := range []models.RegimeType{models.RegimeUnreliable, models.RegimeDataError} {
		signal := generator.GenerateSignal(classification(sentinel, 0.9), nil)
		assert.Equal(t, models.SignalNoTrade, signal.SignalType)
	}
}

func TestGenerateSignalRegimeShiftClosesAll(t *testing.T) {
	monitor := NewCorrelationMonitor(testConfig(), &stubFeed{})
	generator := NewSignalGenerator(testConfig(), &stubFeed{}, monitor)

	generator.GenerateSignal(classification(models.StrongRiskOn, 0.9), nil)
	signal := generator.GenerateSignal(classification(models.StrongRiskOff, 0.9), nil)

	assert.Equal(t, models.SignalClose, signal.SignalType)
	assert.Equal(t, models.PriorityP0Critical, signal.Priority)
	assert.Equal(t, "ALL", signal.Instrument)
	assert.Equal(t, 0.95, signal.Confidence)
}

func TestGenerateSignalWeakDriftIsNotAShift(t *testing.T) {
	monitor := NewCorrelationMonitor(testConfig(), &stubFeed{})
	generator := NewSignalGenerator(testConfig(), &stubFeed{}, monitor)

	generator.GenerateSignal(classification(models.WeakRiskOn, 0.9), nil)
	signal := generator.GenerateSignal(classification(models.Neutral, 0.9), nil)

	assert.Equal(t, models.SignalNoTrade, signal.SignalType)
}

func TestGenerateSignalDivergenceEntry(t *testing.T) {
	feed := &stubFeed{quotes: map[string]models.MarketQuote{
		"US500": {Symbol: "US500", Price: 4500},
	}}
	generator := NewSignalGenerator(testConfig(), feed, healthyMonitor())

	divergence := models.DivergenceSignal{
		Type:       models.BullishDivergence,
		Instrument: "US500",
		Confidence: 0.70,
		Magnitude:  0.004,
	}
	signal := generator.GenerateSignal(classification(models.Neutral, 0.9),
		[]models.DivergenceSignal{divergence})

	assert.Equal(t, models.SignalBuy, signal.SignalType)
	assert.Equal(t, models.PriorityP1High, signal.Priority)
	assert.Equal(t, 4500.0, signal.SuggestedEntry)
	assert.InDelta(t, 4500*0.9975, signal.SuggestedStop, 1e-9)
	assert.InDelta(t, 4500*1.005, signal.SuggestedTarget, 1e-9)
	assert.Equal(t, 0.5, signal.PositionSizeMultiplier)
	// neutral regime gives no alignment boost
	assert.Equal(t, 0.70, signal.Confidence)
}

func TestGenerateSignalAlignedDivergenceBoost(t *testing.T) {
	feed := &stubFeed{quotes: map[string]models.MarketQuote{
		"US500": {Symbol: "US500", Price: 4500},
	}}
	generator := NewSignalGenerator(testConfig(), feed, healthyMonitor())

	divergence := models.DivergenceSignal{
		Type:       models.BullishDivergence,
		Instrument: "US500",
		Confidence: 0.90,
	}
	signal := generator.GenerateSignal(classification(models.StrongRiskOn, 0.9),
		[]models.DivergenceSignal{divergence})

	// 0.90 * 1.2 caps at 0.95
	assert.Equal(t, 0.95, signal.Confidence)
}

func TestGenerateSignalDivergenceNeedsHealthyCorrelation(t *testing.T) {
	feed := &stubFeed{quotes: map[string]models.MarketQuote{
		"US500": {Symbol: "US500", Price: 4500},
	}}
	monitor := NewCorrelationMonitor(testConfig(), &stubFeed{})
	generator := NewSignalGenerator(testConfig(), feed, monitor)

	divergence := models.DivergenceSignal{
		Type:       models.BullishDivergence,
		Instrument: "US500",
		Confidence: 0.90,
	}
	signal := generator.GenerateSignal(classification(models.Neutral, 0.9),
		[]models.DivergenceSignal{divergence})

	assert.Equal(t, models.SignalNoTrade, signal.SignalType)
}

func TestGenerateSignalStrongRegimeEntry(t *testing.T) {
	feed := &stubFeed{quotes: map[string]models.MarketQuote{
		"US500": {Symbol: "US500", Price: 4500},
	}}
	generator := NewSignalGenerator(testConfig(), feed, healthyMonitor())

	signal := generator.GenerateSignal(classification(models.StrongRiskOff, 0.80), nil)

	assert.Equal(t, models.SignalSell, signal.SignalType)
	assert.Equal(t, models.PriorityP2Medium, signal.Priority)
	assert.InDelta(t, 4500*1.003, signal.SuggestedStop, 1e-9)
	assert.InDelta(t, 4500*0.99, signal.SuggestedTarget, 1e-9)
	assert.Equal(t, 0.8, signal.PositionSizeMultiplier)
}

func TestGenerateSignalStrongRegimeNeedsConfidence(t *testing.T) {
	feed := &stubFeed{quotes: map[string]models.MarketQuote{
		"US500": {Symbol: "US500", Price: 4500},
	}}
	generator := NewSignalGenerator(testConfig(), feed, healthyMonitor())

	signal := generator.GenerateSignal(classification(models.StrongRiskOn, 0.65), nil)

	assert.Equal(t, models.SignalNoTrade, signal.SignalType)
}

func TestGenerateSignalQuoteErrorFallsBackToNoTrade(t *testing.T) {
	// feed with no quotes: the P2 path cannot price an entry
	generator := NewSignalGenerator(testConfig(), &stubFeed{}, healthyMonitor())

	signal := generator.GenerateSignal(classification(models.StrongRiskOn, 0.85), nil)

	assert.Equal(t, models.SignalNoTrade, signal.SignalType)
}
