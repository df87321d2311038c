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

const fractalPeriod = 5

// divergenceFilter rejects false positives. All filters must accept;
// a filter error also rejects.
type divergenceFilter struct {
	name  string
	check func(signal *models.DivergenceSignal) (bool, error)
}

// DivergenceEngine detects price/correlation-relationship breakdowns with
// robustness checks.
type DivergenceEngine struct {
	cfg      *config.Config
	dataFeed interfaces.DataFeed
	filters  []divergenceFilter
}

func NewDivergenceEngine(cfg *config.Config, dataFeed interfaces.DataFeed) *DivergenceEngine {
	engine := &DivergenceEngine{cfg: cfg, dataFeed: dataFeed}
	engine.filters = []divergenceFilter{
		{name: "vix_spike", check: engine.filterVIXSpike},
		{name: "low_volatility", check: engine.filterLowVolatility},
		{name: "correlation_decay", check: engine.filterCorrelationDecay},
	}
	return engine
}

// ScanDivergences returns validated divergence signals only.
func (de *DivergenceEngine) ScanDivergences() []models.DivergenceSignal {
	var signals []models.DivergenceSignal

	if core := de.checkCoreDivergence(); core != nil && de.validate(core) {
		signals = append(signals, *core)
		helpers.Logger.Infoln(fmt.Sprintf("CORE DIVERGENCE DETECTED: %s on %s", core.Type, core.Instrument))
	}

	for _, satellite := range de.cfg.Divergence.Satellites {
		signal, err := de.checkSatelliteDivergence(satellite)
		if err != nil {
			helpers.Logger.Warnln(fmt.Sprintf("Error checking %s divergence: %s", satellite, err.Error()))
			continue
		}
		if signal != nil && de.validate(signal) {
			signals = append(signals, *signal)
			helpers.Logger.Infoln(fmt.Sprintf("SATELLITE DIVERGENCE: %s on %s", signal.Type, satellite))
		}
	}

	return signals
}

// validate runs every false-positive filter. Fail-closed.
func (de *DivergenceEngine) validate(signal *models.DivergenceSignal) bool {
	for _, filter := range de.filters {
		ok, err := filter.check(signal)
		if err != nil {
			helpers.Logger.Warnln(fmt.Sprintf("Filter %s failed: %s", filter.name, err.Error()))
			return false
		}
		if !ok {
			helpers.Logger.Infoln("Divergence rejected by filter: " + filter.name)
			return false
		}
	}
	return true
}

// filterVIXSpike rejects when the volatility index rose beyond the spike
// limit over a short window. Panic conditions invalidate relational logic.
func (de *DivergenceEngine) filterVIXSpike(_ *models.DivergenceSignal) (bool, error) {
	vixSeries, err := de.dataFeed.GetSeries(de.cfg.Instruments.VolatilityIndex, 10, "1m")
	if err != nil {
		return false, err
	}
	change := percentChange(&vixSeries)
	if change > de.cfg.Divergence.VIXSpikeLimit {
		helpers.Logger.Warnln(fmt.Sprintf("VIX spike detected: +%.1f%%", change))
		return false, nil
	}
	return true, nil
}

// filterLowVolatility rejects when the primary index's recent high-low range
// is pure noise.
func (de *DivergenceEngine) filterLowVolatility(_ *models.DivergenceSignal) (bool, error) {
	indexSeries, err := de.dataFeed.GetSeries(de.cfg.Instruments.PrimaryIndex, 30, "1m")
	if err != nil {
		return false, err
	}
	if len(indexSeries.Candles) == 0 {
		return false, fmt.Errorf("empty series for %s", de.cfg.Instruments.PrimaryIndex)
	}

	high := indexSeries.Candles[0].MaxPrice.Float()
	low := indexSeries.Candles[0].MinPrice.Float()
	for _, candle := range indexSeries.Candles {
		high = math.Max(high, candle.MaxPrice.Float())
		low = math.Min(low, candle.MinPrice.Float())
	}
	if low == 0 {
		return false, fmt.Errorf("zero low price")
	}

	priceRange := (high - low) / low
	if priceRange < de.cfg.Divergence.MinRangePct/100 {
		helpers.Logger.Infoln(fmt.Sprintf("Low volatility: %.4f - potential noise", priceRange))
		return false, nil
	}
	return true, nil
}

// filterCorrelationDecay rejects when the short-window correlation has
// fallen well below the longer-window one: the relationship is actively
// breaking down as the signal fires.
func (de *DivergenceEngine) filterCorrelationDecay(_ *models.DivergenceSignal) (bool, error) {
	indexSeries, err := de.dataFeed.GetSeries(de.cfg.Instruments.PrimaryIndex, 30, "1m")
	if err != nil {
		return false, err
	}
	carrySeries, err := de.dataFeed.GetSeries(de.cfg.Instruments.CarryPair, 30, "1m")
	if err != nil {
		return false, err
	}

	recentCorr, _ := helpers.Correlation(&indexSeries, &carrySeries, 10)
	longerCorr, _ := helpers.Correlation(&indexSeries, &carrySeries, 20)

	if recentCorr < longerCorr*de.cfg.Divergence.DecayRatio {
		helpers.Logger.Warnln(fmt.Sprintf("Correlation decay: %.2f -> %.2f", longerCorr, recentCorr))
		return false, nil
	}
	return true, nil
}

// checkCoreDivergence compares fractal extrema of the primary index and the
// carry pair, gated by the volatility index's direction. Bullish: index new
// swing low, carry higher low, volatility declining. Bearish mirrors it.
func (de *DivergenceEngine) checkCoreDivergence() *models.DivergenceSignal {
	instruments := de.cfg.Instruments

	indexSeries, err := de.dataFeed.GetSeries(instruments.PrimaryIndex, 30, "1m")
	if err != nil {
		helpers.Logger.Errorln("Error checking core divergence: " + err.Error())
		return nil
	}
	carrySeries, err := de.dataFeed.GetSeries(instruments.CarryPair, 30, "1m")
	if err != nil {
		helpers.Logger.Errorln("Error checking core divergence: " + err.Error())
		return nil
	}
	vixSeries, err := de.dataFeed.GetSeries(instruments.VolatilityIndex, 10, "1m")
	if err != nil {
		helpers.Logger.Errorln("Error checking core divergence: " + err.Error())
		return nil
	}
	if len(vixSeries.Candles) == 0 {
		return nil
	}

	correlation, _ := helpers.Correlation(&indexSeries, &carrySeries, 20)
	vixFirst := vixSeries.Candles[0].ClosePrice.Float()
	vixLast := lastClose(&vixSeries)

	indexLows := fractalLows(closes(&indexSeries), fractalPeriod)
	carryLows := fractalLows(closes(&carrySeries), fractalPeriod)

	if len(indexLows) >= 2 && len(carryLows) >= 2 {
		indexNewLow := indexLows[len(indexLows)-1] < indexLows[len(indexLows)-2]*0.9995
		carryHigherLow := carryLows[len(carryLows)-1] > carryLows[len(carryLows)-2]*1.0002
		if indexNewLow && carryHigherLow && vixLast < vixFirst {
			magnitude := math.Abs((indexLows[len(indexLows)-2] - indexLows[len(indexLows)-1]) / indexLows[len(indexLows)-2])
			return &models.DivergenceSignal{
				Type:        models.BullishDivergence,
				Instrument:  instruments.PrimaryIndex,
				Confidence:  divergenceStrength(magnitude, correlation),
				Magnitude:   magnitude,
				Correlation: correlation,
				Timestamp:   time.Now().UTC(),
				Details: map[string]float64{
					"index_low_1": indexLows[len(indexLows)-2],
					"index_low_2": indexLows[len(indexLows)-1],
					"carry_low_1": carryLows[len(carryLows)-2],
					"carry_low_2": carryLows[len(carryLows)-1],
				},
			}
		}
	}

	indexHighs := fractalHighs(closes(&indexSeries), fractalPeriod)
	carryHighs := fractalHighs(closes(&carrySeries), fractalPeriod)

	if len(indexHighs) >= 2 && len(carryHighs) >= 2 {
		indexNewHigh := indexHighs[len(indexHighs)-1] > indexHighs[len(indexHighs)-2]*1.0005
		carryLowerHigh := carryHighs[len(carryHighs)-1] < carryHighs[len(carryHighs)-2]*0.9998
		if indexNewHigh && carryLowerHigh && vixLast > vixFirst {
			magnitude := math.Abs((indexHighs[len(indexHighs)-1] - indexHighs[len(indexHighs)-2]) / indexHighs[len(indexHighs)-2])
			return &models.DivergenceSignal{
				Type:        models.BearishDivergence,
				Instrument:  instruments.PrimaryIndex,
				Confidence:  divergenceStrength(magnitude, correlation),
				Magnitude:   magnitude,
				Correlation: correlation,
				Timestamp:   time.Now().UTC(),
				Details: map[string]float64{
					"index_high_1": indexHighs[len(indexHighs)-2],
					"index_high_2": indexHighs[len(indexHighs)-1],
					"carry_high_1": carryHighs[len(carryHighs)-2],
					"carry_high_2": carryHighs[len(carryHighs)-1],
				},
			}
		}
	}

	return nil
}

// checkSatelliteDivergence flags a satellite moving materially against the
// primary index over the same window.
func (de *DivergenceEngine) checkSatelliteDivergence(satellite string) (*models.DivergenceSignal, error) {
	indexSeries, err := de.dataFeed.GetSeries(de.cfg.Instruments.PrimaryIndex, 30, "1m")
	if err != nil {
		return nil, err
	}
	satSeries, err := de.dataFeed.GetSeries(satellite, 30, "1m")
	if err != nil {
		return nil, err
	}

	indexChange := percentChange(&indexSeries) / 100
	satChange := percentChange(&satSeries) / 100
	minMove := de.cfg.Divergence.MinSatelliteMove / 100

	if math.Abs(indexChange) <= minMove || math.Abs(satChange) <= minMove {
		return nil, nil
	}
	if indexChange*satChange >= 0 {
		return nil, nil
	}

	correlation, _ := helpers.Correlation(&indexSeries, &satSeries, 20)
	magnitude := math.Abs(indexChange - satChange)

	divType := models.BearishDivergence
	if indexChange < 0 {
		divType = models.BullishDivergence
	}

	return &models.DivergenceSignal{
		Type:        divType,
		Instrument:  satellite,
		Confidence:  divergenceStrength(magnitude, correlation),
		Magnitude:   magnitude,
		Correlation: correlation,
		Timestamp:   time.Now().UTC(),
	}, nil
}

// fractalLows finds local minima strictly below every close within `period`
// bars on both sides. Falls back to the series minimum when none qualify.
func fractalLows(values []float64, period int) []float64 {
	var lows []float64
	for i := period; i < len(values)-period; i++ {
		isLow := true
		for j := 1; j <= period; j++ {
			if values[i] >= values[i-j] || values[i] >= values[i+j] {
				isLow = false
				break
			}
		}
		if isLow {
			lows = append(lows, values[i])
		}
	}
	if len(lows) == 0 && len(values) > 0 {
		min := values[0]
		for _, v := range values {
			min = math.Min(min, v)
		}
		lows = []float64{min}
	}
	return lows
}

func fractalHighs(values []float64, period int) []float64 {
	var highs []float64
	for i := period; i < len(values)-period; i++ {
		isHigh := true
		for j := 1; j <= period; j++ {
			if values[i] <= values[i-j] || values[i] <= values[i+j] {
				isHigh = false
				break
			}
		}
		if isHigh {
			highs = append(highs, values[i])
		}
	}
	if len(highs) == 0 && len(values) > 0 {
		max := values[0]
		for _, v := range values {
			max = math.Max(max, v)
		}
		highs = []float64{max}
	}
	return highs
}

// divergenceStrength: 1% magnitude saturates the magnitude score, 0.7
// correlation saturates the correlation score with a 0.3 floor.
func divergenceStrength(magnitude float64, correlation float64) float64 {
	magnitudeScore := math.Min(1.0, magnitude/0.01)
	correlationScore := math.Max(0.3, math.Min(1.0, correlation/0.7))
	return magnitudeScore*0.6 + correlationScore*0.4
}
