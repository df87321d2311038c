package core

import (
	"fmt"
	"time"

	"github.com/sdcoffey/big"
	"github.com/sdcoffey/techan"

	"gitlab.com/acervero/RoRoSentinel/config"
	"gitlab.com/acervero/RoRoSentinel/models"
)

var testStart = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

// stubFeed serves canned series and quotes per instrument.
type stubFeed struct {
	series map[string]techan.TimeSeries
	quotes map[string]models.MarketQuote
	err    error
}

func (sf *stubFeed) GetQuote(symbol string) (models.MarketQuote, error) {
	if sf.err != nil {
		return models.MarketQuote{}, sf.err
	}
	quote, ok := sf.quotes[symbol]
	if !ok {
		return models.MarketQuote{}, fmt.Errorf("no quote for %s", symbol)
	}
	return quote, nil
}

func (sf *stubFeed) GetSeries(symbol string, bars int, interval string) (techan.TimeSeries, error) {
	if sf.err != nil {
		return techan.TimeSeries{}, sf.err
	}
	series, ok := sf.series[symbol]
	if !ok {
		return techan.TimeSeries{}, fmt.Errorf("no series for %s", symbol)
	}
	if bars < len(series.Candles) {
		trimmed := techan.TimeSeries{}
		for _, candle := range series.Candles[len(series.Candles)-bars:] {
			trimmed.AddCandle(candle)
		}
		return trimmed, nil
	}
	return series, nil
}

func seriesOf(closes ...float64) techan.TimeSeries {
	series := techan.TimeSeries{}
	for i, close := range closes {
		candle := techan.NewCandle(techan.NewTimePeriod(testStart.Add(time.Duration(i)*time.Minute), time.Minute))
		candle.OpenPrice = big.NewDecimal(close)
		candle.ClosePrice = big.NewDecimal(close)
		candle.MaxPrice = big.NewDecimal(close * 1.0001)
		candle.MinPrice = big.NewDecimal(close * 0.9999)
		series.AddCandle(candle)
	}
	return series
}

// driftSeries builds n bars compounding a fixed per-bar return.
func driftSeries(start float64, perBar float64, n int) techan.TimeSeries {
	closes := make([]float64, 0, n)
	price := start
	for i := 0; i < n; i++ {
		price *= 1 + perBar
		closes = append(closes, price)
	}
	return seriesOf(closes...)
}

func testConfig() *config.Config {
	return &config.Config{
		Correlation: config.CorrelationConfig{
			LookbackPeriods:   10,
			HealthyThreshold:  0.6,
			CriticalBreakdown: 0.3,
			VolatilityLimit:   0.15,
			Pairs: []config.PairConfig{
				{First: "US500", Second: "USDJPY"},
			},
		},
		Regime: config.RegimeConfig{
			BaseThresholdPercent: 0.1,
			VIXBands: config.VIXBandsConfig{
				Low:      config.VIXBand{Max: 15, ThresholdMultiplier: 1.0},
				Moderate: config.VIXBand{Max: 20, ThresholdMultiplier: 1.3},
				High:     config.VIXBand{Max: 30, ThresholdMultiplier: 1.7},
				Extreme:  config.VIXBand{ThresholdMultiplier: 2.5},
			},
			ScoreLadder: config.ScoreLadderConfig{
				StrongRiskOnMin: 2.0,
				WeakRiskOnMin:   0.5,
				NeutralMin:      -0.5,
				WeakRiskOffMin:  -2.0,
			},
			Gauges: []config.GaugeConfig{
				{Symbol: "US500", Weight: 1.0},
				{Symbol: "USDJPY", Weight: 0.8},
				{Symbol: "VIX", Weight: 1.0},
				{Symbol: "US10Y", Weight: 0.5},
			},
		},
		Divergence: config.DivergenceConfig{
			Satellites:       []string{"DAX"},
			VIXSpikeLimit:    10,
			MinRangePct:      0.3,
			DecayRatio:       0.7,
			MinSatelliteMove: 0.2,
		},
		Risk: config.RiskConfig{
			MaxPerTradeRiskPercent: 1.8,
			MaxDailyRiskPercent:    3.0,
			MaxLeverage:            20,
			DivergencePenalty:      0.5,
			SwapCostThreshold:      -10,
			MarginUtilizationCap:   0.7,
			DefaultSwapRate:        -0.03,
		},
		Instruments: config.InstrumentsConfig{
			PrimaryIndex:    "US500",
			CarryPair:       "USDJPY",
			VolatilityIndex: "VIX",
			YieldProxy:      "US10Y",
		},
	}
}
