package risk

import (
	"fmt"
	"math"
	"sort"
	"time"

	"gitlab.com/acervero/RoRoSentinel/config"
	"gitlab.com/acervero/RoRoSentinel/helpers"
	"gitlab.com/acervero/RoRoSentinel/interfaces"
	"gitlab.com/acervero/RoRoSentinel/models"
)

const marginHistoryLimit = 1000

// maintenanceMarginRatio is the broker's maintenance requirement as a
// fraction of initial margin.
const maintenanceMarginRatio = 0.5

// LiquidationGuard tracks the margin ratio against a 5-rung ladder and
// decides when entries stop and positions get force-reduced.
type LiquidationGuard struct {
	cfg           *config.Config
	brokerService interfaces.BrokerService
	history       []models.MarginStatus
}

func NewLiquidationGuard(cfg *config.Config, brokerService interfaces.BrokerService) *LiquidationGuard {
	return &LiquidationGuard{cfg: cfg, brokerService: brokerService}
}

// CheckMarginStatus classifies the account's current margin ratio.
func (lg *LiquidationGuard) CheckMarginStatus() (models.MarginStatus, error) {
	account, err := lg.brokerService.GetAccountSummary()
	if err != nil {
		return models.MarginStatus{}, err
	}
	positions, err := lg.brokerService.GetPositions()
	if err != nil {
		return models.MarginStatus{}, err
	}

	ratio := math.Inf(1)
	if account.MarginUsed > 0 {
		ratio = account.Equity / account.MarginUsed
	}

	status := models.MarginStatus{
		MarginRatio:           ratio,
		Equity:                account.Equity,
		MarginUsed:            account.MarginUsed,
		MaintenanceMargin:     account.MarginUsed * maintenanceMarginRatio,
		MaxAdverseMovePercent: adverseMoveBuffer(account, positions),
		Timestamp:             time.Now().UTC(),
	}

	switch {
	case ratio < 1.25:
		status.Level = models.MarginCritical
		status.ActionRequired = "LIQUIDATE_NOW"
		status.Message = fmt.Sprintf("Margin ratio %.2f - liquidation imminent", ratio)
	case ratio < 1.5:
		status.Level = models.MarginDanger
		status.ActionRequired = "IMMEDIATE_REDUCTION"
		status.Message = fmt.Sprintf("Margin ratio %.2f - reduce exposure now", ratio)
	case ratio < 1.75:
		status.Level = models.MarginWarning
		status.ActionRequired = "STOP_NEW_ENTRIES"
		status.Message = fmt.Sprintf("Margin ratio %.2f - no new positions", ratio)
	case ratio < 2.5:
		status.Level = models.MarginMonitor
		status.Message = fmt.Sprintf("Margin ratio %.2f - watch closely", ratio)
	default:
		status.Level = models.MarginSafe
		status.Message = fmt.Sprintf("Margin ratio %.2f", ratio)
	}

	if status.Level == models.MarginCritical || status.Level == models.MarginDanger {
		helpers.Logger.Warnln(status.Message)
	}

	lg.history = append(lg.history, status)
	if len(lg.history) > marginHistoryLimit {
		lg.history = lg.history[len(lg.history)-marginHistoryLimit:]
	}
	return status, nil
}

// ShouldAllowNewPosition is the margin-side gate for new entries.
func (lg *LiquidationGuard) ShouldAllowNewPosition() bool {
	status, err := lg.CheckMarginStatus()
	if err != nil {
		helpers.Logger.Errorln("Error checking margin status: " + err.Error())
		return false
	}
	return status.AllowsNewPositions()
}

// PositionsToClose picks the worst-performing fraction of open positions,
// at least one, ordered worst PnL first.
func (lg *LiquidationGuard) PositionsToClose(fraction float64) ([]models.Position, error) {
	positions, err := lg.brokerService.GetPositions()
	if err != nil {
		return nil, err
	}
	if len(positions) == 0 {
		return nil, nil
	}

	sorted := make([]models.Position, len(positions))
	copy(sorted, positions)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].UnrealizedPnL < sorted[j].UnrealizedPnL
	})

	count := int(float64(len(sorted)) * fraction)
	if count < 1 {
		count = 1
	}
	if count > len(sorted) {
		count = len(sorted)
	}
	return sorted[:count], nil
}

// Report summarizes the current status plus the range of recent ratios.
func (lg *LiquidationGuard) Report() (models.MarginReport, error) {
	status, err := lg.CheckMarginStatus()
	if err != nil {
		return models.MarginReport{}, err
	}

	report := models.MarginReport{
		Timestamp:          status.Timestamp,
		CurrentLevel:       status.Level,
		CurrentRatio:       status.MarginRatio,
		Equity:             status.Equity,
		MarginUsed:         status.MarginUsed,
		BufferToMarginCall: status.Equity - status.MaintenanceMargin,
		ActionRequired:     status.ActionRequired,
		Message:            status.Message,
		MinRecentRatio:     status.MarginRatio,
		MaxRecentRatio:     status.MarginRatio,
	}

	recent := lg.history
	if len(recent) > 20 {
		recent = recent[len(recent)-20:]
	}
	for _, entry := range recent {
		report.MinRecentRatio = math.Min(report.MinRecentRatio, entry.MarginRatio)
		report.MaxRecentRatio = math.Max(report.MaxRecentRatio, entry.MarginRatio)
	}
	return report, nil
}

// adverseMoveBuffer estimates how far the market can move against the whole
// book, in percent, before a margin call. A flat account reports 100.
func adverseMoveBuffer(account models.AccountSummary, positions []models.Position) float64 {
	if len(positions) == 0 || account.MarginUsed == 0 {
		return 100
	}
	totalValue := 0.0
	for _, position := range positions {
		totalValue += math.Abs(position.Value())
	}
	if totalValue == 0 {
		return 100
	}
	buffer := account.Equity - account.MarginUsed*maintenanceMarginRatio
	if buffer <= 0 {
		return 0
	}
	return buffer / totalValue * 100
}
