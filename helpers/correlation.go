package helpers

import (
	"sort"

	"github.com/sdcoffey/techan"
)

const rollingCorrelationWindow = 5

// closeReturns maps each candle start to the percentage return of its close
// over the previous close.
func closeReturns(series *techan.TimeSeries) map[int64]float64 {
	returns := make(map[int64]float64)
	for i := 1; i < len(series.Candles); i++ {
		prev := series.Candles[i-1].ClosePrice.Float()
		curr := series.Candles[i].ClosePrice.Float()
		if prev == 0 {
			continue
		}
		returns[series.Candles[i].Period.Start.Unix()] = (curr - prev) / prev
	}
	return returns
}

// AlignedReturns pairs the close-to-close returns of two series on shared
// candle timestamps, ascending. Unmatched rows are dropped.
func AlignedReturns(series1 *techan.TimeSeries, series2 *techan.TimeSeries) ([]float64, []float64) {
	returns1 := closeReturns(series1)
	returns2 := closeReturns(series2)

	var timestamps []int64
	for ts := range returns1 {
		if _, ok := returns2[ts]; ok {
			timestamps = append(timestamps, ts)
		}
	}
	sort.Slice(timestamps, func(i, j int) bool { return timestamps[i] < timestamps[j] })

	aligned1 := make([]float64, 0, len(timestamps))
	aligned2 := make([]float64, 0, len(timestamps))
	for _, ts := range timestamps {
		aligned1 = append(aligned1, returns1[ts])
		aligned2 = append(aligned2, returns2[ts])
	}
	return aligned1, aligned2
}

// Correlation returns the Pearson correlation of the last `lookback` aligned
// returns of both series, plus its volatility: the standard deviation of a
// short rolling-window correlation series. Series shorter than the lookback
// resolve to (0, 0), never an error.
func Correlation(series1 *techan.TimeSeries, series2 *techan.TimeSeries, lookback int) (float64, float64) {
	if len(series1.Candles) < lookback || len(series2.Candles) < lookback {
		return 0.0, 0.0
	}

	returns1, returns2 := AlignedReturns(series1, series2)
	if len(returns1) < lookback {
		return 0.0, 0.0
	}

	correlation := Pearson(returns1[len(returns1)-lookback:], returns2[len(returns2)-lookback:])

	var rolling []float64
	for i := rollingCorrelationWindow; i <= len(returns1); i++ {
		rolling = append(rolling, Pearson(returns1[i-rollingCorrelationWindow:i], returns2[i-rollingCorrelationWindow:i]))
	}
	volatility := StdDev(rolling, Mean(rolling))

	return correlation, volatility
}
