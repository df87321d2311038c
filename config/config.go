package config

import (
	"fmt"
	"os"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	str2duration "github.com/xhit/go-str2duration/v2"
	"gopkg.in/yaml.v3"
)

type SystemConfig struct {
	Mode            string  `yaml:"mode" default:"paper" validate:"oneof=paper backtest live"`
	RefreshInterval string  `yaml:"refresh_interval" default:"1m"`
	EnableDatabase  bool    `yaml:"enable_database"`
	Scenario        string  `yaml:"scenario" default:"normal" validate:"oneof=normal crash rally chop"`
	StartingCash    float64 `yaml:"starting_cash" default:"100000"`
}

type PairConfig struct {
	First  string `yaml:"first" validate:"required"`
	Second string `yaml:"second" validate:"required"`
}

type CorrelationConfig struct {
	LookbackPeriods   int          `yaml:"lookback_periods" validate:"required,gt=1"`
	HealthyThreshold  float64      `yaml:"healthy_threshold" validate:"required,gt=0,lte=1"`
	CriticalBreakdown float64      `yaml:"critical_breakdown" validate:"required,gt=0,lte=1"`
	VolatilityLimit   float64      `yaml:"volatility_limit" validate:"required,gt=0"`
	Pairs             []PairConfig `yaml:"pairs"`
}

type VIXBand struct {
	Max                 float64 `yaml:"max"`
	ThresholdMultiplier float64 `yaml:"threshold_multiplier" validate:"required,gt=0"`
}

type VIXBandsConfig struct {
	Low      VIXBand `yaml:"low"`
	Moderate VIXBand `yaml:"moderate"`
	High     VIXBand `yaml:"high"`
	Extreme  VIXBand `yaml:"extreme"`
}

type ScoreLadderConfig struct {
	StrongRiskOnMin float64 `yaml:"strong_risk_on_min"`
	WeakRiskOnMin   float64 `yaml:"weak_risk_on_min"`
	NeutralMin      float64 `yaml:"neutral_min"`
	WeakRiskOffMin  float64 `yaml:"weak_risk_off_min"`
}

type GaugeConfig struct {
	Symbol string  `yaml:"symbol" validate:"required"`
	Weight float64 `yaml:"weight" validate:"required,gt=0"`
}

type RegimeConfig struct {
	BaseThresholdPercent float64           `yaml:"base_threshold_percent" validate:"required,gt=0"`
	VIXBands             VIXBandsConfig    `yaml:"vix_bands"`
	ScoreLadder          ScoreLadderConfig `yaml:"score_ladder"`
	Gauges               []GaugeConfig     `yaml:"gauges" validate:"required,min=1,dive"`
}

type DivergenceConfig struct {
	Satellites      []string `yaml:"satellites"`
	VIXSpikeLimit   float64  `yaml:"vix_spike_limit_pct" default:"10"`
	MinRangePct     float64  `yaml:"min_range_pct" default:"0.3"`
	DecayRatio      float64  `yaml:"decay_ratio" default:"0.7"`
	MinSatelliteMove float64 `yaml:"min_satellite_move_pct" default:"0.2"`
}

type RiskConfig struct {
	MaxPerTradeRiskPercent float64            `yaml:"max_per_trade_risk_percent" validate:"required,gt=0"`
	MaxDailyRiskPercent    float64            `yaml:"max_daily_risk_percent" validate:"required,gt=0"`
	DivergencePenalty      float64            `yaml:"divergence_penalty" default:"0.5" validate:"gt=0,lte=1"`
	MaxLeverage            float64            `yaml:"max_leverage" validate:"required,gt=0"`
	SwapCostThreshold      float64            `yaml:"swap_cost_threshold" default:"-10"`
	MarginUtilizationCap   float64            `yaml:"margin_utilization_cap" default:"0.7" validate:"gt=0,lte=1"`
	SwapRates              map[string]float64 `yaml:"swap_rates"`
	DefaultSwapRate        float64            `yaml:"default_swap_rate" default:"-0.03"`
}

type InstrumentsConfig struct {
	PrimaryIndex    string `yaml:"primary_index" default:"US500"`
	CarryPair       string `yaml:"carry_pair" default:"USDJPY"`
	VolatilityIndex string `yaml:"volatility_index" default:"VIX"`
	YieldProxy      string `yaml:"yield_proxy" default:"US10Y"`
}

type SessionConfig struct {
	ThresholdMultiplier    float64 `yaml:"threshold_multiplier"`
	ScoreMultiplier        float64 `yaml:"score_multiplier"`
	PositionSizeMultiplier float64 `yaml:"position_size_multiplier"`
}

// UnmarshalYAML defaults omitted multipliers to 1 while keeping an explicit
// 0.0 intact, which the defaults library cannot distinguish.
func (sc *SessionConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		ThresholdMultiplier    *float64 `yaml:"threshold_multiplier"`
		ScoreMultiplier        *float64 `yaml:"score_multiplier"`
		PositionSizeMultiplier *float64 `yaml:"position_size_multiplier"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}

	sc.ThresholdMultiplier = 1
	sc.ScoreMultiplier = 1
	sc.PositionSizeMultiplier = 1
	if raw.ThresholdMultiplier != nil {
		sc.ThresholdMultiplier = *raw.ThresholdMultiplier
	}
	if raw.ScoreMultiplier != nil {
		sc.ScoreMultiplier = *raw.ScoreMultiplier
	}
	if raw.PositionSizeMultiplier != nil {
		sc.PositionSizeMultiplier = *raw.PositionSizeMultiplier
	}
	return nil
}

type AlertChannelConfig struct {
	Type           string   `yaml:"type" validate:"required,oneof=console telegram webhook"`
	URL            string   `yaml:"url"`
	SeverityLevels []string `yaml:"severity_levels"`
}

type ExecutionConfig struct {
	// AutoConfirm disables the manual confirmation requirement.
	AutoConfirm           bool                 `yaml:"auto_confirm"`
	ConfirmationTimeout   string               `yaml:"confirmation_timeout" default:"5m"`
	LowLiquidityStartHour int                  `yaml:"low_liquidity_start_hour" default:"0"`
	LowLiquidityEndHour   int                  `yaml:"low_liquidity_end_hour" default:"5"`
	AlertChannels         []AlertChannelConfig `yaml:"alert_channels" validate:"dive"`
}

type Config struct {
	System      SystemConfig             `yaml:"system"`
	Correlation CorrelationConfig        `yaml:"correlation"`
	Regime      RegimeConfig             `yaml:"regime"`
	Divergence  DivergenceConfig         `yaml:"divergence"`
	Risk        RiskConfig               `yaml:"risk"`
	Instruments InstrumentsConfig        `yaml:"instruments"`
	Sessions    map[string]SessionConfig `yaml:"sessions"`
	Execution   ExecutionConfig          `yaml:"execution"`
	Holidays    []string                 `yaml:"holidays"`
}

// Load reads, defaults and validates a YAML configuration file. A missing
// required threshold is the one fatal error class, surfaced here at startup.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := defaults.Set(&cfg); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	cfg.applyFallbacks()

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

// applyFallbacks fills the documented composite fallbacks the defaults
// library cannot express.
func (c *Config) applyFallbacks() {
	if len(c.Correlation.Pairs) == 0 {
		c.Correlation.Pairs = []PairConfig{
			{First: c.Instruments.PrimaryIndex, Second: c.Instruments.CarryPair},
			{First: c.Instruments.PrimaryIndex, Second: c.Instruments.VolatilityIndex},
			{First: c.Instruments.CarryPair, Second: "DXY"},
			{First: c.Instruments.PrimaryIndex, Second: c.Instruments.YieldProxy},
		}
	}
	if len(c.Divergence.Satellites) == 0 {
		c.Divergence.Satellites = []string{"DAX", "NAS100", "AUDJPY"}
	}
	if c.Sessions == nil {
		c.Sessions = map[string]SessionConfig{}
	}
}

// Session returns the multipliers for a session label, or neutral ones.
func (c *Config) Session(label string) SessionConfig {
	if sc, ok := c.Sessions[label]; ok {
		return sc
	}
	return SessionConfig{ThresholdMultiplier: 1, ScoreMultiplier: 1, PositionSizeMultiplier: 1}
}

// SwapRate returns the annualized swap rate for an instrument.
func (c *Config) SwapRate(instrument string) float64 {
	if rate, ok := c.Risk.SwapRates[instrument]; ok {
		return rate
	}
	return c.Risk.DefaultSwapRate
}

// ConfirmationTimeout parses the configured confirmation window.
func (c *Config) ConfirmationTimeout() time.Duration {
	d, err := str2duration.ParseDuration(c.Execution.ConfirmationTimeout)
	if err != nil {
		return 5 * time.Minute
	}
	return d
}

// RefreshInterval parses the main loop cadence.
func (c *Config) RefreshInterval() time.Duration {
	d, err := str2duration.ParseDuration(c.System.RefreshInterval)
	if err != nil {
		return time.Minute
	}
	return d
}
