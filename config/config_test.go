package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

const minimalSettings = `
correlation:
  lookback_periods: 20
  healthy_threshold: 0.6
  critical_breakdown: 0.3
  volatility_limit: 0.15
regime:
  base_threshold_percent: 0.1
  vix_bands:
    low:
      max: 15
      threshold_multiplier: 1.0
    moderate:
      max: 20
      threshold_multiplier: 1.3
    high:
      max: 30
      threshold_multiplier: 1.7
    extreme:
      threshold_multiplier: 2.5
  gauges:
    - symbol: US500
      weight: 1.0
risk:
  max_per_trade_risk_percent: 1.8
  max_daily_risk_percent: 3.0
  max_leverage: 20
`

func writeSettings(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.yaml")
	assert.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeSettings(t, minimalSettings))

	assert.NoError(t, err)
	assert.Equal(t, "paper", cfg.System.Mode)
	assert.Equal(t, "1m", cfg.System.RefreshInterval)
	assert.Equal(t, "US500", cfg.Instruments.PrimaryIndex)
	assert.Equal(t, 0.5, cfg.Risk.DivergencePenalty)
	assert.Equal(t, -10.0, cfg.Risk.SwapCostThreshold)
	assert.Equal(t, 0.7, cfg.Risk.MarginUtilizationCap)
	assert.Equal(t, 10.0, cfg.Divergence.VIXSpikeLimit)
	assert.Equal(t, 0.3, cfg.Divergence.MinRangePct)
	assert.Equal(t, "5m", cfg.Execution.ConfirmationTimeout)
	assert.False(t, cfg.Execution.AutoConfirm)
}

func TestLoadCompositeFallbacks(t *testing.T) {
	cfg, err := Load(writeSettings(t, minimalSettings))

	assert.NoError(t, err)
	// pairs derive from the configured instruments
	assert.NotEmpty(t, cfg.Correlation.Pairs)
	assert.Equal(t, "US500", cfg.Correlation.Pairs[0].First)
	assert.Equal(t, "USDJPY", cfg.Correlation.Pairs[0].Second)
	assert.Equal(t, []string{"DAX", "NAS100", "AUDJPY"}, cfg.Divergence.Satellites)
}

func TestLoadMissingRequiredThreshold(t *testing.T) {
	broken := `
correlation:
  lookback_periods: 20
  healthy_threshold: 0.6
  critical_breakdown: 0.3
  volatility_limit: 0.15
regime:
  vix_bands:
    low:
      threshold_multiplier: 1.0
    moderate:
      threshold_multiplier: 1.3
    high:
      threshold_multiplier: 1.7
    extreme:
      threshold_multiplier: 2.5
  gauges:
    - symbol: US500
      weight: 1.0
risk:
  max_per_trade_risk_percent: 1.8
  max_daily_risk_percent: 3.0
  max_leverage: 20
`
	_, err := Load(writeSettings(t, broken))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "validate config")
}

func TestLoadRejectsUnknownMode(t *testing.T) {
	_, err := Load(writeSettings(t, minimalSettings+`
system:
  mode: yolo
`))
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestSessionFallsBackToNeutral(t *testing.T) {
	cfg, err := Load(writeSettings(t, minimalSettings))
	assert.NoError(t, err)

	session := cfg.Session("ASIAN")
	assert.Equal(t, 1.0, session.ThresholdMultiplier)
	assert.Equal(t, 1.0, session.ScoreMultiplier)
	assert.Equal(t, 1.0, session.PositionSizeMultiplier)
}

func TestSessionUsesConfiguredMultipliers(t *testing.T) {
	cfg, err := Load(writeSettings(t, minimalSettings+`
sessions:
  ASIAN:
    threshold_multiplier: 1.3
    score_multiplier: 1.4
    position_size_multiplier: 0.7
`))
	assert.NoError(t, err)

	session := cfg.Session("ASIAN")
	assert.Equal(t, 1.3, session.ThresholdMultiplier)
	assert.Equal(t, 1.4, session.ScoreMultiplier)
	assert.Equal(t, 0.7, session.PositionSizeMultiplier)
}

func TestSessionKeepsExplicitZeroMultiplier(t *testing.T) {
	cfg, err := Load(writeSettings(t, minimalSettings+`
sessions:
  CLOSED:
    position_size_multiplier: 0.0
`))
	assert.NoError(t, err)

	session := cfg.Session("CLOSED")
	assert.Equal(t, 0.0, session.PositionSizeMultiplier)
	// omitted multipliers still come back neutral
	assert.Equal(t, 1.0, session.ThresholdMultiplier)
	assert.Equal(t, 1.0, session.ScoreMultiplier)
}

func TestSwapRate(t *testing.T) {
	cfg, err := Load(writeSettings(t, minimalSettings+`
  swap_rates:
    USDJPY: 0.01
`))
	assert.NoError(t, err)

	assert.Equal(t, 0.01, cfg.SwapRate("USDJPY"))
	assert.Equal(t, -0.03, cfg.SwapRate("US500"))
}

func TestDurationHelpers(t *testing.T) {
	cfg, err := Load(writeSettings(t, minimalSettings))
	assert.NoError(t, err)

	assert.Equal(t, 5*time.Minute, cfg.ConfirmationTimeout())
	assert.Equal(t, time.Minute, cfg.RefreshInterval())
}
