package core

import (
	"fmt"
	"time"

	"github.com/sdcoffey/techan"
	"gitlab.com/acervero/RoRoSentinel/config"
	"gitlab.com/acervero/RoRoSentinel/helpers"
	"gitlab.com/acervero/RoRoSentinel/interfaces"
	"gitlab.com/acervero/RoRoSentinel/models"
)

// RegimeEngine classifies directional market state with a VIX-adaptive
// threshold and correlation-stability gating. State-free per call except for
// the previous classification retained for shift logging.
type RegimeEngine struct {
	cfg        *config.Config
	dataFeed   interfaces.DataFeed
	lastRegime *models.RegimeClassification
}

func NewRegimeEngine(cfg *config.Config, dataFeed interfaces.DataFeed) *RegimeEngine {
	return &RegimeEngine{cfg: cfg, dataFeed: dataFeed}
}

// AnalyzeRegime produces exactly one classification per call. Any fetch
// failure resolves to a DATA_ERROR sentinel, never an error.
func (re *RegimeEngine) AnalyzeRegime(session models.TradingSession) models.RegimeClassification {
	instruments := re.cfg.Instruments

	indexSeries, err := re.dataFeed.GetSeries(instruments.PrimaryIndex, 15, "1m")
	if err != nil {
		return re.dataError(session, err)
	}
	carrySeries, err := re.dataFeed.GetSeries(instruments.CarryPair, 15, "1m")
	if err != nil {
		return re.dataError(session, err)
	}
	vixSeries, err := re.dataFeed.GetSeries(instruments.VolatilityIndex, 15, "1m")
	if err != nil {
		return re.dataError(session, err)
	}
	yieldSeries, err := re.dataFeed.GetSeries(instruments.YieldProxy, 3, "5m")
	if err != nil {
		return re.dataError(session, err)
	}

	indexChange := percentChange(&indexSeries)
	carryChange := percentChange(&carrySeries)
	vixChange := percentChange(&vixSeries)
	yieldTrend := trendDirection(&yieldSeries)

	vixLevel := lastClose(&vixSeries)
	threshold := re.cfg.Regime.BaseThresholdPercent * re.thresholdMultiplier(vixLevel)
	threshold *= re.cfg.Session(string(session)).ThresholdMultiplier

	coreCorr, corrVol := helpers.Correlation(&indexSeries, &carrySeries, re.cfg.Correlation.LookbackPeriods)

	// Correlation instability invalidates any directional read.
	if corrVol > re.cfg.Correlation.VolatilityLimit {
		helpers.Logger.Warnln(fmt.Sprintf("Correlation volatile: %.3f. Regime unreliable.", corrVol))
		return models.RegimeClassification{
			RegimeType:        models.RegimeUnreliable,
			CorrelationHealth: coreCorr,
			VIXLevel:          vixLevel,
			ThresholdUsed:     threshold,
			Session:           session,
			Status:            "UNRELIABLE",
			Reason:            "Correlation instability",
			Timestamp:         time.Now().UTC(),
		}
	}

	weights := map[string]float64{}
	for _, gauge := range re.cfg.Regime.Gauges {
		weights[gauge.Symbol] = gauge.Weight
	}

	score := 0.0
	if indexChange > threshold {
		score += weights[instruments.PrimaryIndex]
	} else if indexChange < -threshold {
		score -= weights[instruments.PrimaryIndex]
	}
	if carryChange > threshold {
		score += weights[instruments.CarryPair]
	} else if carryChange < -threshold {
		score -= weights[instruments.CarryPair]
	}
	// The volatility index is its own reference: fixed +-5% band, not the
	// adaptive threshold. Declining volatility reads risk-on.
	if vixChange < -5 {
		score += weights[instruments.VolatilityIndex]
	} else if vixChange > 5 {
		score -= weights[instruments.VolatilityIndex]
	}
	if yieldTrend == "rising" {
		score += weights[instruments.YieldProxy]
	} else if yieldTrend == "falling" {
		score -= weights[instruments.YieldProxy]
	}

	regimeType := re.classifyScore(score)
	score *= re.cfg.Session(string(session)).ScoreMultiplier

	result := models.RegimeClassification{
		RegimeType:        regimeType,
		Score:             score,
		CorrelationHealth: coreCorr,
		VIXLevel:          vixLevel,
		ThresholdUsed:     threshold,
		Confidence:        re.confidence(coreCorr, corrVol, vixLevel),
		Session:           session,
		Status:            "OK",
		Timestamp:         time.Now().UTC(),
	}

	if re.lastRegime != nil && re.lastRegime.RegimeType != result.RegimeType {
		helpers.Logger.Warnln(fmt.Sprintf("REGIME SHIFT: %s -> %s", re.lastRegime.RegimeType, result.RegimeType))
		helpers.Logger.Warnln(fmt.Sprintf("  Score: %.2f -> %.2f", re.lastRegime.Score, result.Score))
		helpers.Logger.Warnln(fmt.Sprintf("  Correlation: %.2f -> %.2f", re.lastRegime.CorrelationHealth, result.CorrelationHealth))
	}
	re.lastRegime = &result

	return result
}

func (re *RegimeEngine) dataError(session models.TradingSession, err error) models.RegimeClassification {
	helpers.Logger.Errorln("Data feed error: " + err.Error())
	return models.RegimeClassification{
		RegimeType: models.RegimeDataError,
		Session:    session,
		Status:     "DATA_ERROR",
		Reason:     err.Error(),
		Timestamp:  time.Now().UTC(),
	}
}

func (re *RegimeEngine) thresholdMultiplier(vixLevel float64) float64 {
	bands := re.cfg.Regime.VIXBands
	switch re.CategorizeVIX(vixLevel) {
	case models.VIXLow:
		return bands.Low.ThresholdMultiplier
	case models.VIXModerate:
		return bands.Moderate.ThresholdMultiplier
	case models.VIXHigh:
		return bands.High.ThresholdMultiplier
	default:
		return bands.Extreme.ThresholdMultiplier
	}
}

// CategorizeVIX places a volatility-index level into one of four bands.
func (re *RegimeEngine) CategorizeVIX(vixLevel float64) models.VIXCategory {
	bands := re.cfg.Regime.VIXBands
	switch {
	case vixLevel < bands.Low.Max:
		return models.VIXLow
	case vixLevel < bands.Moderate.Max:
		return models.VIXModerate
	case vixLevel < bands.High.Max:
		return models.VIXHigh
	default:
		return models.VIXExtreme
	}
}

func (re *RegimeEngine) classifyScore(score float64) models.RegimeType {
	ladder := re.cfg.Regime.ScoreLadder
	switch {
	case score >= ladder.StrongRiskOnMin:
		return models.StrongRiskOn
	case score >= ladder.WeakRiskOnMin:
		return models.WeakRiskOn
	case score >= ladder.NeutralMin:
		return models.Neutral
	case score >= ladder.WeakRiskOffMin:
		return models.WeakRiskOff
	default:
		return models.StrongRiskOff
	}
}

// confidence is the unweighted mean of three normalized factors:
// correlation strength, correlation stability and volatility-index calmness.
func (re *RegimeEngine) confidence(correlation float64, corrVol float64, vixLevel float64) float64 {
	factors := []float64{
		helpers.Clamp(correlation/0.7, 0, 1),
		helpers.Clamp(1.0-corrVol/0.2, 0, 1),
		helpers.Clamp(1.0-(vixLevel-15)/25, 0, 1),
	}
	return helpers.Mean(factors)
}

func lastClose(series *techan.TimeSeries) float64 {
	if len(series.Candles) == 0 {
		return 0.0
	}
	return series.Candles[len(series.Candles)-1].ClosePrice.Float()
}

func closes(series *techan.TimeSeries) []float64 {
	values := make([]float64, 0, len(series.Candles))
	for _, candle := range series.Candles {
		values = append(values, candle.ClosePrice.Float())
	}
	return values
}

func percentChange(series *techan.TimeSeries) float64 {
	return helpers.PercentChange(closes(series))
}

// trendDirection labels the move from first to last close with a +-0.05%
// deadband.
func trendDirection(series *techan.TimeSeries) string {
	change := percentChange(series)
	if change > 0.05 {
		return "rising"
	}
	if change < -0.05 {
		return "falling"
	}
	return "flat"
}
