package execution

import (
	"fmt"
	"sync"
	"time"

	"gitlab.com/acervero/RoRoSentinel/config"
	"gitlab.com/acervero/RoRoSentinel/helpers"
	"gitlab.com/acervero/RoRoSentinel/models"
)

type pendingEntry struct {
	signal   models.TradeSignal
	response chan bool
	created  time.Time
}

// TradeValidator gates every proposed trade behind readiness checks and,
// unless auto-confirm is enabled, an out-of-band confirmation with timeout.
// An expired confirmation is a rejection.
type TradeValidator struct {
	cfg       *config.Config
	publisher *AlertPublisher
	pending   map[string]*pendingEntry
	results   []tradeResult
	dailyPnL  float64
	now       func() time.Time
	mu        sync.Mutex
}

type tradeResult struct {
	pnl       float64
	timestamp time.Time
}

func NewTradeValidator(cfg *config.Config, publisher *AlertPublisher) *TradeValidator {
	return &TradeValidator{
		cfg:       cfg,
		publisher: publisher,
		pending:   make(map[string]*pendingEntry),
		now:       time.Now,
	}
}

// RequestConfirmation runs readiness checks, publishes the signal alert and
// blocks until the trade is confirmed, rejected or timed out.
func (tv *TradeValidator) RequestConfirmation(signal models.TradeSignal,
	equity float64) models.ConfirmationResponse {

	if reason := tv.readinessFailure(equity); reason != "" {
		helpers.Logger.Warnln("Trade rejected before confirmation: " + reason)
		tv.publisher.Publish(models.AlertMessage{
			Severity:  models.AlertP3Low,
			Header:    "TRADE REJECTED",
			Body:      map[string]string{"Instrument": signal.Instrument, "Reason": reason},
			Timestamp: tv.now().UTC(),
		})
		return models.ConfirmationResponse{
			TradeID:   signal.ID,
			Confirmed: false,
			Reason:    reason,
			Timestamp: tv.now().UTC(),
		}
	}

	timeout := tv.cfg.ConfirmationTimeout()
	if signal.Divergence != nil {
		tv.publisher.Publish(FormatP1Divergence(signal, int(timeout.Seconds())))
	} else {
		tv.publisher.Publish(FormatP2RegimeSignal(signal, int(timeout.Seconds())))
	}

	if tv.cfg.Execution.AutoConfirm {
		return models.ConfirmationResponse{
			TradeID:   signal.ID,
			Confirmed: true,
			Reason:    "Auto-confirmed",
			Timestamp: tv.now().UTC(),
		}
	}

	entry := &pendingEntry{
		signal:   signal,
		response: make(chan bool, 1),
		created:  tv.now(),
	}
	tv.mu.Lock()
	tv.pending[signal.ID] = entry
	tv.mu.Unlock()

	defer func() {
		tv.mu.Lock()
		delete(tv.pending, signal.ID)
		tv.mu.Unlock()
	}()

	select {
	case confirmed := <-entry.response:
		reason := "Confirmed by operator"
		if !confirmed {
			reason = "Rejected by operator"
		}
		return models.ConfirmationResponse{
			TradeID:   signal.ID,
			Confirmed: confirmed,
			Reason:    reason,
			Timestamp: tv.now().UTC(),
		}
	case <-time.After(timeout):
		helpers.Logger.Warnln("Confirmation timed out for trade " + signal.ID)
		return models.ConfirmationResponse{
			TradeID:   signal.ID,
			Confirmed: false,
			Reason:    "Confirmation timeout",
			Timestamp: tv.now().UTC(),
		}
	}
}

// ConfirmTrade resolves a pending confirmation. Unknown or already-resolved
// trade ids are ignored.
func (tv *TradeValidator) ConfirmTrade(tradeID string, confirmed bool) {
	tv.mu.Lock()
	entry, ok := tv.pending[tradeID]
	tv.mu.Unlock()
	if !ok {
		helpers.Logger.Warnln("Confirmation for unknown trade id " + tradeID)
		return
	}
	select {
	case entry.response <- confirmed:
	default:
	}
}

// RecordTradeResult feeds closed-trade outcomes into the readiness checks.
func (tv *TradeValidator) RecordTradeResult(pnl float64) {
	tv.mu.Lock()
	defer tv.mu.Unlock()
	tv.results = append(tv.results, tradeResult{pnl: pnl, timestamp: tv.now()})
	tv.dailyPnL += pnl
}

// ResetDailyStats clears the day counters at session rollover.
func (tv *TradeValidator) ResetDailyStats() {
	tv.mu.Lock()
	defer tv.mu.Unlock()
	tv.results = nil
	tv.dailyPnL = 0
}

// PendingTrades lists trades still awaiting confirmation.
func (tv *TradeValidator) PendingTrades() []models.PendingTrade {
	tv.mu.Lock()
	defer tv.mu.Unlock()

	trades := make([]models.PendingTrade, 0, len(tv.pending))
	for _, entry := range tv.pending {
		trades = append(trades, models.PendingTrade{
			Instrument: entry.signal.Instrument,
			SignalType: entry.signal.SignalType,
			Confidence: entry.signal.Confidence,
			Timestamp:  entry.created,
			AgeSeconds: tv.now().Sub(entry.created).Seconds(),
		})
	}
	return trades
}

// readinessFailure returns a rejection reason, or "" when trading may
// proceed.
func (tv *TradeValidator) readinessFailure(equity float64) string {
	tv.mu.Lock()
	defer tv.mu.Unlock()

	cutoff := tv.now().Add(-60 * time.Minute)
	recentLosses := 0
	for _, result := range tv.results {
		if result.timestamp.After(cutoff) && result.pnl < 0 {
			recentLosses++
		}
	}
	if recentLosses >= 3 {
		return fmt.Sprintf("%d losses in the last hour, cooling off", recentLosses)
	}

	hour := tv.now().UTC().Hour()
	if hour >= tv.cfg.Execution.LowLiquidityStartHour && hour < tv.cfg.Execution.LowLiquidityEndHour {
		return fmt.Sprintf("Low liquidity hours (%02d:00 UTC)", hour)
	}

	dailyCap := equity * tv.cfg.Risk.MaxDailyRiskPercent / 100
	if tv.dailyPnL < 0 && -tv.dailyPnL > dailyCap*0.7 {
		helpers.Logger.Warnln(fmt.Sprintf("Daily loss %.2f approaching cap %.2f",
			-tv.dailyPnL, dailyCap))
	}
	return ""
}
