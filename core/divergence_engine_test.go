package core

import (
	"errors"
	"testing"

	"github.com/sdcoffey/techan"
	"github.com/stretchr/testify/assert"

	"gitlab.com/acervero/RoRoSentinel/models"
)

// indexWithDoubleDip has fractal lows at 4480 and 4470, the second a fresh
// swing low.
var indexWithDoubleDip = []float64{
	4520, 4515, 4510, 4500, 4495, 4490, 4487, 4483, 4480, 4484,
	4488, 4492, 4496, 4500, 4502, 4500, 4495, 4490, 4485, 4480,
	4476, 4473, 4470, 4474, 4478, 4482, 4486, 4490, 4494, 4498,
}

// carryWithHigherLow has fractal lows at 149.0 and 149.5.
var carryWithHigherLow = []float64{
	150.5, 150.4, 150.3, 150.2, 150.1, 150.0, 149.8, 149.4, 149.0, 149.3,
	149.6, 149.9, 150.1, 150.3, 150.4, 150.35, 150.2, 150.1, 150.0, 149.9,
	149.8, 149.65, 149.5, 149.6, 149.75, 149.9, 150.0, 150.1, 150.2, 150.3,
}

func decliningVIX() techan.TimeSeries {
	return seriesOf(16.0, 15.9, 15.8, 15.7, 15.6, 15.5, 15.4, 15.3, 15.2, 15.0)
}

func divergentFeed() *stubFeed {
	return &stubFeed{series: map[string]techan.TimeSeries{
		"US500":  seriesOf(indexWithDoubleDip...),
		"USDJPY": seriesOf(carryWithHigherLow...),
		"VIX":    decliningVIX(),
		"DAX":    driftSeries(18000, 0.0005, 30),
	}}
}

func TestFractalLows(t *testing.T) {
	lows := fractalLows(indexWithDoubleDip, fractalPeriod)
	assert.Equal(t, []float64{4480, 4470}, lows)
}

func TestFractalHighsFallBackToSeriesMax(t *testing.T) {
	// monotonic series has no fractal highs
	rising := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
	assert.Equal(t, []float64{12}, fractalHighs(rising, fractalPeriod))
	assert.Equal(t, []float64{1}, fractalLows(rising, fractalPeriod))
}

func TestCheckCoreDivergenceBullish(t *testing.T) {
	engine := NewDivergenceEngine(testConfig(), divergentFeed())

	signal := engine.checkCoreDivergence()

	assert.NotNil(t, signal)
	assert.Equal(t, models.BullishDivergence, signal.Type)
	assert.Equal(t, "US500", signal.Instrument)
	assert.InDelta(t, 10.0/4480.0, signal.Magnitude, 1e-9)
	assert.Equal(t, 4480.0, signal.Details["index_low_1"])
	assert.Equal(t, 4470.0, signal.Details["index_low_2"])
}

func TestCheckCoreDivergenceNoSetup(t *testing.T) {
	feed := &stubFeed{series: map[string]techan.TimeSeries{
		"US500":  driftSeries(4500, 0.0005, 30),
		"USDJPY": driftSeries(150, 0.0005, 30),
		"VIX":    decliningVIX(),
	}}
	engine := NewDivergenceEngine(testConfig(), feed)

	assert.Nil(t, engine.checkCoreDivergence())
}

func TestCheckSatelliteDivergence(t *testing.T) {
	engine := NewDivergenceEngine(testConfig(), divergentFeed())

	signal, err := engine.checkSatelliteDivergence("DAX")

	assert.NoError(t, err)
	assert.NotNil(t, signal)
	// the index fell while the satellite rose
	assert.Equal(t, models.BullishDivergence, signal.Type)
	assert.Equal(t, "DAX", signal.Instrument)
}

func TestScanDivergencesWithPassingFilters(t *testing.T) {
	engine := NewDivergenceEngine(testConfig(), divergentFeed())
	engine.filters = nil

	signals := engine.ScanDivergences()

	assert.Len(t, signals, 2)
}

func TestScanDivergencesRejectedByFilter(t *testing.T) {
	engine := NewDivergenceEngine(testConfig(), divergentFeed())
	engine.filters = []divergenceFilter{{
		name:  "always_reject",
		check: func(*models.DivergenceSignal) (bool, error) { return false, nil },
	}}

	assert.Empty(t, engine.ScanDivergences())
}

func TestScanDivergencesFilterErrorFailsClosed(t *testing.T) {
	engine := NewDivergenceEngine(testConfig(), divergentFeed())
	engine.filters = []divergenceFilter{{
		name:  "broken_filter",
		check: func(*models.DivergenceSignal) (bool, error) { return true, errors.New("no data") },
	}}

	assert.Empty(t, engine.ScanDivergences())
}

func TestScanDivergencesFeedError(t *testing.T) {
	engine := NewDivergenceEngine(testConfig(), &stubFeed{err: errors.New("feed down")})

	assert.Empty(t, engine.ScanDivergences())
}

func TestDivergenceStrength(t *testing.T) {
	assert.InDelta(t, 1.0, divergenceStrength(0.01, 0.7), 1e-9)
	assert.InDelta(t, 1.0, divergenceStrength(0.02, 0.9), 1e-9)
	// weak correlation is floored at 0.3
	assert.InDelta(t, 0.42, divergenceStrength(0.005, 0.0), 1e-9)
}
