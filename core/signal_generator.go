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

// SignalGenerator fuses regime state, divergences and correlation health
// into a single prioritized trade signal per cycle.
type SignalGenerator struct {
	cfg                *config.Config
	dataFeed           interfaces.DataFeed
	correlationMonitor *CorrelationMonitor
	lastSignal         *models.TradeSignal
}

func NewSignalGenerator(cfg *config.Config, dataFeed interfaces.DataFeed,
	correlationMonitor *CorrelationMonitor) *SignalGenerator {
	return &SignalGenerator{
		cfg:                cfg,
		dataFeed:           dataFeed,
		correlationMonitor: correlationMonitor,
	}
}

// GenerateSignal evaluates rules in strict priority order and returns the
// first match. Sentinel regimes never produce actionable signals.
func (sg *SignalGenerator) GenerateSignal(regime models.RegimeClassification,
	divergences []models.DivergenceSignal) models.TradeSignal {

	signal := sg.evaluate(regime, divergences)
	signal.ID = helpers.NewTradeID()
	sg.lastSignal = &signal

	if signal.IsActionable() {
		helpers.Logger.Infoln(fmt.Sprintf("SIGNAL [%s] %s %s conf=%.2f: %s",
			signal.Priority, signal.SignalType, signal.Instrument, signal.Confidence, signal.Reasoning))
	}
	return signal
}

func (sg *SignalGenerator) evaluate(regime models.RegimeClassification,
	divergences []models.DivergenceSignal) models.TradeSignal {

	if regime.IsSentinel() {
		return sg.noTrade(regime, "Regime unreliable or data error: "+string(regime.RegimeType))
	}

	correlationHealthy := sg.correlationMonitor.IsCorrelationHealthy()
	health := "healthy"
	if !correlationHealthy {
		health = "degraded"
	}

	// P0: significant regime shift. Close everything before repositioning.
	if sg.lastSignal != nil && isSignificantShift(sg.lastSignal.Regime.RegimeType, regime.RegimeType) {
		helpers.Logger.Warnln(fmt.Sprintf("REGIME SHIFT: %s -> %s",
			sg.lastSignal.Regime.RegimeType, regime.RegimeType))
		return models.TradeSignal{
			SignalType:        models.SignalClose,
			Priority:          models.PriorityP0Critical,
			Instrument:        "ALL",
			Confidence:        0.95,
			Regime:            regime,
			CorrelationHealth: health,
			Reasoning: fmt.Sprintf("Significant regime shift: %s -> %s",
				sg.lastSignal.Regime.RegimeType, regime.RegimeType),
			Timestamp: time.Now().UTC(),
		}
	}

	// P1: divergence-driven entry.
	if best := bestDivergence(divergences); best != nil && best.Confidence > 0.65 && correlationHealthy {
		if signal := sg.divergenceSignal(regime, best, health); signal != nil {
			return *signal
		}
	}

	// P2: regime-aligned entry.
	if (regime.RegimeType == models.StrongRiskOn || regime.RegimeType == models.StrongRiskOff) &&
		correlationHealthy && regime.Confidence > 0.70 {
		if signal := sg.regimeSignal(regime, health); signal != nil {
			return *signal
		}
	}

	return sg.noTrade(regime, "No high-conviction setup")
}

func (sg *SignalGenerator) divergenceSignal(regime models.RegimeClassification,
	divergence *models.DivergenceSignal, health string) *models.TradeSignal {

	quote, err := sg.dataFeed.GetQuote(divergence.Instrument)
	if err != nil {
		helpers.Logger.Errorln("Error fetching quote for " + divergence.Instrument + ": " + err.Error())
		return nil
	}

	entry := quote.Price
	signalType := models.SignalBuy
	stopLoss := entry * 0.9975
	takeProfit := entry * 1.005
	if divergence.Type == models.BearishDivergence {
		signalType = models.SignalSell
		stopLoss = entry * 1.0025
		takeProfit = entry * 0.995
	}

	confidence := divergence.Confidence
	if regimeAligned(regime.RegimeType, divergence.Type) {
		confidence = math.Min(0.95, confidence*1.2)
	}

	return &models.TradeSignal{
		SignalType:             signalType,
		Priority:               models.PriorityP1High,
		Instrument:             divergence.Instrument,
		Confidence:             confidence,
		Regime:                 regime,
		Divergence:             divergence,
		CorrelationHealth:      health,
		SuggestedEntry:         entry,
		SuggestedStop:          stopLoss,
		SuggestedTarget:        takeProfit,
		PositionSizeMultiplier: sg.cfg.Risk.DivergencePenalty,
		Reasoning: fmt.Sprintf("%s divergence on %s (magnitude %.4f)",
			divergence.Type, divergence.Instrument, divergence.Magnitude),
		Timestamp: time.Now().UTC(),
	}
}

func (sg *SignalGenerator) regimeSignal(regime models.RegimeClassification, health string) *models.TradeSignal {
	instrument := sg.cfg.Instruments.PrimaryIndex
	quote, err := sg.dataFeed.GetQuote(instrument)
	if err != nil {
		helpers.Logger.Errorln("Error fetching quote for " + instrument + ": " + err.Error())
		return nil
	}

	entry := quote.Price
	signalType := models.SignalBuy
	stopLoss := entry * 0.997
	takeProfit := entry * 1.01
	if regime.RegimeType == models.StrongRiskOff {
		signalType = models.SignalSell
		stopLoss = entry * 1.003
		takeProfit = entry * 0.99
	}

	return &models.TradeSignal{
		SignalType:             signalType,
		Priority:               models.PriorityP2Medium,
		Instrument:             instrument,
		Confidence:             regime.Confidence,
		Regime:                 regime,
		CorrelationHealth:      health,
		SuggestedEntry:         entry,
		SuggestedStop:          stopLoss,
		SuggestedTarget:        takeProfit,
		PositionSizeMultiplier: 0.8,
		Reasoning:              fmt.Sprintf("%s regime with confidence %.2f", regime.RegimeType, regime.Confidence),
		Timestamp:              time.Now().UTC(),
	}
}

func (sg *SignalGenerator) noTrade(regime models.RegimeClassification, reason string) models.TradeSignal {
	return models.TradeSignal{
		SignalType: models.SignalNoTrade,
		Priority:   models.PriorityP3Low,
		Regime:     regime,
		Reasoning:  reason,
		Timestamp:  time.Now().UTC(),
	}
}

// LastSignal returns the previously generated signal, nil on the first cycle.
func (sg *SignalGenerator) LastSignal() *models.TradeSignal {
	return sg.lastSignal
}

// isSignificantShift reports whether moving between the two regimes warrants
// closing all positions: a flip between strong regimes, or a weak regime
// jumping to the opposite strong one.
func isSignificantShift(previous models.RegimeType, current models.RegimeType) bool {
	if previous == current {
		return false
	}
	shifts := map[models.RegimeType][]models.RegimeType{
		models.StrongRiskOn:  {models.StrongRiskOff, models.WeakRiskOff},
		models.StrongRiskOff: {models.StrongRiskOn, models.WeakRiskOn},
		models.WeakRiskOn:    {models.StrongRiskOff},
		models.WeakRiskOff:   {models.StrongRiskOn},
	}
	for _, target := range shifts[previous] {
		if current == target {
			return true
		}
	}
	return false
}

func regimeAligned(regime models.RegimeType, divergence models.DivergenceType) bool {
	if divergence == models.BullishDivergence {
		return regime == models.StrongRiskOn || regime == models.WeakRiskOn
	}
	return regime == models.StrongRiskOff || regime == models.WeakRiskOff
}

func bestDivergence(divergences []models.DivergenceSignal) *models.DivergenceSignal {
	var best *models.DivergenceSignal
	for i := range divergences {
		if divergences[i].Type == models.InvalidDivergence {
			continue
		}
		if best == nil || divergences[i].Confidence > best.Confidence {
			best = &divergences[i]
		}
	}
	return best
}
