package risk

import (
	"fmt"
	"math"
	"sync"

	"gitlab.com/acervero/RoRoSentinel/config"
	"gitlab.com/acervero/RoRoSentinel/helpers"
	"gitlab.com/acervero/RoRoSentinel/models"
)

// PositionSizer computes swap-aware, confidence-scaled position sizes for
// leveraged CFD trades. A zero-size result with a reason is the refusal
// signal, never an error.
type PositionSizer struct {
	cfg               *config.Config
	todayRiskUsed     float64
	activeDivergences map[string]bool
	mu                sync.Mutex
}

func NewPositionSizer(cfg *config.Config) *PositionSizer {
	return &PositionSizer{
		cfg:               cfg,
		activeDivergences: make(map[string]bool),
	}
}

// CalculatePositionSize runs the sizing pipeline for one proposed trade.
// sessionMultiplier comes from the current trading session, score and
// confidence from the regime classification.
func (ps *PositionSizer) CalculatePositionSize(instrument string, equity float64,
	entryPrice float64, stopLoss float64, confidence float64, regimeScore float64,
	sessionMultiplier float64) models.PositionSizingResult {

	ps.mu.Lock()
	defer ps.mu.Unlock()

	riskAmount := equity * ps.cfg.Risk.MaxPerTradeRiskPercent / 100
	var notes []string

	if confidence < 0.65 {
		riskAmount *= 0.5
		notes = append(notes, "half size on low confidence")
	}

	scoreScale := math.Min(1.0, math.Abs(regimeScore)/2.0)
	riskAmount *= scoreScale
	riskAmount *= sessionMultiplier

	if ps.activeDivergences[instrument] {
		riskAmount *= ps.cfg.Risk.DivergencePenalty
		notes = append(notes, "divergence penalty applied")
	}

	stopDistance := math.Abs(entryPrice - stopLoss)
	if stopDistance == 0 || entryPrice == 0 {
		return models.PositionSizingResult{Reasoning: "Stop distance is zero"}
	}

	positionValue := riskAmount / (stopDistance / entryPrice)

	swapCost := positionValue * ps.cfg.SwapRate(instrument) / 365
	if swapCost < ps.cfg.Risk.SwapCostThreshold {
		positionValue *= 0.7
		riskAmount *= 0.7
		notes = append(notes, fmt.Sprintf("reduced for swap cost %.2f", swapCost))
		swapCost = positionValue * ps.cfg.SwapRate(instrument) / 365
	}

	marginRequired := positionValue / ps.cfg.Risk.MaxLeverage
	marginCap := equity * ps.cfg.Risk.MarginUtilizationCap
	if marginRequired > marginCap {
		scale := marginCap / marginRequired
		positionValue *= scale
		riskAmount *= scale
		marginRequired = marginCap
		notes = append(notes, "scaled to margin utilization cap")
	}

	dailyBudget := equity * ps.cfg.Risk.MaxDailyRiskPercent / 100
	available := dailyBudget - ps.todayRiskUsed
	if riskAmount > available {
		if available <= 0 {
			return models.PositionSizingResult{Reasoning: "Daily risk limit reached"}
		}
		scale := available / riskAmount
		riskAmount = available
		positionValue *= scale
		marginRequired = positionValue / ps.cfg.Risk.MaxLeverage
		swapCost = positionValue * ps.cfg.SwapRate(instrument) / 365
		notes = append(notes, "capped by daily risk budget")
	}

	leverageUsed := 0.0
	if marginRequired > 0 {
		leverageUsed = positionValue / marginRequired
	}

	reasoning := fmt.Sprintf("risk %.2f at %.1fx leverage", riskAmount, leverageUsed)
	for _, note := range notes {
		reasoning += ", " + note
	}

	result := models.PositionSizingResult{
		RiskAmount:     riskAmount,
		PositionSize:   positionValue / entryPrice,
		MarginRequired: marginRequired,
		SwapCost:       swapCost,
		LeverageUsed:   leverageUsed,
		Reasoning:      reasoning,
	}
	helpers.Logger.Infoln(fmt.Sprintf("Sized %s: value %.2f (%s)", instrument, positionValue, reasoning))
	return result
}

// UpdateDailyRiskUsed adds realized risk consumption for the current day.
func (ps *PositionSizer) UpdateDailyRiskUsed(amount float64) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.todayRiskUsed += amount
}

// ResetDailyRisk clears the day counter at session rollover.
func (ps *PositionSizer) ResetDailyRisk() {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.todayRiskUsed = 0
}

func (ps *PositionSizer) TodayRiskUsed() float64 {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return ps.todayRiskUsed
}

// AddDivergenceInstrument marks an instrument as having an active divergence
// so subsequent entries on it are penalized.
func (ps *PositionSizer) AddDivergenceInstrument(instrument string) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.activeDivergences[instrument] = true
}

func (ps *PositionSizer) RemoveDivergenceInstrument(instrument string) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	delete(ps.activeDivergences, instrument)
}
