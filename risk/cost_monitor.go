package risk

import (
	"fmt"
	"time"

	"gitlab.com/acervero/RoRoSentinel/config"
	"gitlab.com/acervero/RoRoSentinel/helpers"
	"gitlab.com/acervero/RoRoSentinel/interfaces"
	"gitlab.com/acervero/RoRoSentinel/models"
)

const costHistoryLimit = 1000

// spreadCostRate approximates round-trip spread as a fraction of notional.
const spreadCostRate = 0.0002

// CostMonitor tracks CFD holding costs per open position and warns when
// carry eats the trade.
type CostMonitor struct {
	cfg           *config.Config
	brokerService interfaces.BrokerService
	history       map[string][]models.CFDCostSnapshot
}

func NewCostMonitor(cfg *config.Config, brokerService interfaces.BrokerService) *CostMonitor {
	return &CostMonitor{
		cfg:           cfg,
		brokerService: brokerService,
		history:       make(map[string][]models.CFDCostSnapshot),
	}
}

// MonitorPositionCosts snapshots holding costs for every open position and
// logs warnings for positions whose costs are out of line.
func (cm *CostMonitor) MonitorPositionCosts() ([]models.CFDCostSnapshot, error) {
	positions, err := cm.brokerService.GetPositions()
	if err != nil {
		return nil, err
	}

	var snapshots []models.CFDCostSnapshot
	for _, position := range positions {
		snapshot := cm.snapshotPosition(position)
		snapshots = append(snapshots, snapshot)

		cm.history[position.Symbol] = append(cm.history[position.Symbol], snapshot)
		if len(cm.history[position.Symbol]) > costHistoryLimit {
			cm.history[position.Symbol] = cm.history[position.Symbol][len(cm.history[position.Symbol])-costHistoryLimit:]
		}

		if snapshot.SwapCostDaily < cm.cfg.Risk.SwapCostThreshold {
			helpers.Logger.Warnln(fmt.Sprintf("High swap cost on %s: %.2f/day",
				position.Symbol, snapshot.SwapCostDaily))
		}
		if position.UnrealizedPnL > 0 && snapshot.TotalDaily < 0 &&
			-snapshot.TotalDaily > position.UnrealizedPnL*0.5 {
			helpers.Logger.Warnln(fmt.Sprintf("Holding costs on %s consume over half its profit",
				position.Symbol))
		}
	}
	return snapshots, nil
}

func (cm *CostMonitor) snapshotPosition(position models.Position) models.CFDCostSnapshot {
	value := position.Value()
	swapDaily := value * cm.cfg.SwapRate(position.Symbol) / 365
	spread := value * spreadCostRate
	return models.CFDCostSnapshot{
		Instrument:    position.Symbol,
		PositionValue: value,
		SwapCostDaily: swapDaily,
		SpreadCost:    spread,
		TotalDaily:    swapDaily,
		Timestamp:     time.Now().UTC(),
	}
}

// TotalDailyCost sums the latest daily cost of every tracked instrument.
func (cm *CostMonitor) TotalDailyCost() float64 {
	total := 0.0
	for _, snapshots := range cm.history {
		if len(snapshots) > 0 {
			total += snapshots[len(snapshots)-1].TotalDaily
		}
	}
	return total
}

// Report aggregates recorded cost history per instrument.
func (cm *CostMonitor) Report() map[string]models.InstrumentCostReport {
	report := make(map[string]models.InstrumentCostReport)
	for instrument, snapshots := range cm.history {
		if len(snapshots) == 0 {
			continue
		}
		latest := snapshots[len(snapshots)-1]
		sum := 0.0
		for _, snapshot := range snapshots {
			sum += snapshot.TotalDaily
		}
		report[instrument] = models.InstrumentCostReport{
			PositionValue:    latest.PositionValue,
			CurrentDailyCost: latest.TotalDaily,
			AvgDailyCost:     sum / float64(len(snapshots)),
			SwapCost:         latest.SwapCostDaily,
			SpreadCost:       latest.SpreadCost,
			Warning:          latest.SwapCostDaily < cm.cfg.Risk.SwapCostThreshold,
		}
	}
	return report
}
