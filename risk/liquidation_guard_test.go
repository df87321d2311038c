package risk

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"gitlab.com/acervero/RoRoSentinel/models"
)

type stubBroker struct {
	account   models.AccountSummary
	positions []models.Position
	err       error
}

func (sb *stubBroker) GetAccountSummary() (models.AccountSummary, error) {
	return sb.account, sb.err
}

func (sb *stubBroker) GetPositions() ([]models.Position, error) {
	return sb.positions, sb.err
}

func (sb *stubBroker) PlaceOrder(order models.Order) (models.Order, error) {
	return order, sb.err
}

func (sb *stubBroker) ClosePosition(string) error {
	return sb.err
}

func guardWithRatio(equity float64, marginUsed float64) *LiquidationGuard {
	broker := &stubBroker{account: models.AccountSummary{Equity: equity, MarginUsed: marginUsed}}
	return NewLiquidationGuard(sizerConfig(), broker)
}

func TestCheckMarginStatusLadder(t *testing.T) {
	cases := []struct {
		equity float64
		level  models.MarginLevel
		action string
	}{
		{1249.99, models.MarginCritical, "LIQUIDATE_NOW"},
		{1250, models.MarginDanger, "IMMEDIATE_REDUCTION"},
		{1499.99, models.MarginDanger, "IMMEDIATE_REDUCTION"},
		{1500, models.MarginWarning, "STOP_NEW_ENTRIES"},
		{1750, models.MarginMonitor, ""},
		{2499.99, models.MarginMonitor, ""},
		{2500, models.MarginSafe, ""},
	}

	for _, c := range cases {
		status, err := guardWithRatio(c.equity, 1000).CheckMarginStatus()
		assert.NoError(t, err)
		assert.Equal(t, c.level, status.Level, "equity %.2f", c.equity)
		assert.Equal(t, c.action, status.ActionRequired, "equity %.2f", c.equity)
	}
}

func TestCheckMarginStatusFlatAccount(t *testing.T) {
	status, err := guardWithRatio(100000, 0).CheckMarginStatus()

	assert.NoError(t, err)
	assert.True(t, math.IsInf(status.MarginRatio, 1))
	assert.Equal(t, models.MarginSafe, status.Level)
	assert.Equal(t, 100.0, status.MaxAdverseMovePercent)
	assert.True(t, status.AllowsNewPositions())
}

func TestAllowsNewPositionsPerLevel(t *testing.T) {
	assert.True(t, guardWithRatio(2500, 1000).ShouldAllowNewPosition())
	assert.True(t, guardWithRatio(1750, 1000).ShouldAllowNewPosition())
	assert.False(t, guardWithRatio(1500, 1000).ShouldAllowNewPosition())
	assert.False(t, guardWithRatio(1250, 1000).ShouldAllowNewPosition())
}

func TestShouldAllowNewPositionBrokerError(t *testing.T) {
	guard := NewLiquidationGuard(sizerConfig(), &stubBroker{err: errors.New("broker down")})

	assert.False(t, guard.ShouldAllowNewPosition())
}

func TestPositionsToCloseWorstFirst(t *testing.T) {
	broker := &stubBroker{
		account: models.AccountSummary{Equity: 1000, MarginUsed: 800},
		positions: []models.Position{
			{Symbol: "US500", UnrealizedPnL: 50},
			{Symbol: "DAX", UnrealizedPnL: -120},
			{Symbol: "USDJPY", UnrealizedPnL: -30},
		},
	}
	guard := NewLiquidationGuard(sizerConfig(), broker)

	toClose, err := guard.PositionsToClose(0.5)
	assert.NoError(t, err)
	assert.Len(t, toClose, 1)
	assert.Equal(t, "DAX", toClose[0].Symbol)

	all, err := guard.PositionsToClose(1.0)
	assert.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, []string{"DAX", "USDJPY", "US500"},
		[]string{all[0].Symbol, all[1].Symbol, all[2].Symbol})
}

func TestPositionsToCloseAtLeastOne(t *testing.T) {
	broker := &stubBroker{
		positions: []models.Position{{Symbol: "US500", UnrealizedPnL: -5}},
	}
	guard := NewLiquidationGuard(sizerConfig(), broker)

	toClose, err := guard.PositionsToClose(0.1)
	assert.NoError(t, err)
	assert.Len(t, toClose, 1)
}

func TestAdverseMoveBuffer(t *testing.T) {
	account := models.AccountSummary{Equity: 10000, MarginUsed: 8000}
	positions := []models.Position{{Symbol: "US500", Quantity: 10, CurrentPrice: 4500}}

	// buffer = 10000 - 4000 = 6000 over 45000 notional
	assert.InDelta(t, 6000.0/45000.0*100, adverseMoveBuffer(account, positions), 1e-9)

	drained := models.AccountSummary{Equity: 3000, MarginUsed: 8000}
	assert.Equal(t, 0.0, adverseMoveBuffer(drained, positions))

	assert.Equal(t, 100.0, adverseMoveBuffer(account, nil))
}

func TestMarginReportTracksRecentRange(t *testing.T) {
	broker := &stubBroker{account: models.AccountSummary{Equity: 3000, MarginUsed: 1000}}
	guard := NewLiquidationGuard(sizerConfig(), broker)

	guard.CheckMarginStatus()
	broker.account.Equity = 1600
	report, err := guard.Report()

	assert.NoError(t, err)
	assert.Equal(t, models.MarginWarning, report.CurrentLevel)
	assert.InDelta(t, 1.6, report.MinRecentRatio, 1e-9)
	assert.InDelta(t, 3.0, report.MaxRecentRatio, 1e-9)
}
