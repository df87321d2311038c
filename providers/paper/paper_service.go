package paper

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/sdcoffey/big"
	"github.com/sdcoffey/techan"

	"gitlab.com/acervero/RoRoSentinel/helpers"
	"gitlab.com/acervero/RoRoSentinel/models"
)

const (
	paperSpreadRate = 0.0002
	paperLeverage   = 20.0
	historyBars     = 500
)

var basePrices = map[string]float64{
	"US500":  4500.0,
	"USDJPY": 150.0,
	"VIX":    15.0,
	"US10Y":  4.5,
	"DXY":    104.0,
	"DAX":    18000.0,
	"NAS100": 15500.0,
	"AUDJPY": 97.0,
}

// PaperService simulates both the data feed and the broker. Prices follow a
// correlated random walk driven by a shared risk factor; the scenario biases
// that factor so crash and rally paths are reproducible in behavior if not
// in exact values.
type PaperService struct {
	scenario  string
	rng       *rand.Rand
	prices    map[string]float64
	history   map[string][]float64
	positions map[string]*models.Position
	cash      float64
	realized  float64
	lastStep  time.Time
	mu        sync.Mutex
}

func NewPaperService(scenario string, startingCash float64) *PaperService {
	if scenario == "" {
		scenario = "normal"
	}
	if startingCash <= 0 {
		startingCash = 100000
	}

	service := &PaperService{
		scenario:  scenario,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		prices:    make(map[string]float64),
		history:   make(map[string][]float64),
		positions: make(map[string]*models.Position),
		cash:      startingCash,
		lastStep:  time.Now(),
	}
	for instrument, price := range basePrices {
		service.prices[instrument] = price
	}
	for i := 0; i < historyBars; i++ {
		service.step()
	}
	helpers.Logger.Infoln(fmt.Sprintf("Paper trading session started: scenario=%s cash=%.2f",
		scenario, startingCash))
	return service
}

// step advances every instrument one bar.
func (ps *PaperService) step() {
	riskFactor := ps.rng.NormFloat64() * 0.0005
	switch ps.scenario {
	case "crash":
		riskFactor -= 0.0015
	case "rally":
		riskFactor += 0.0012
	case "chop":
		riskFactor = ps.rng.NormFloat64() * 0.002
	}

	for instrument := range ps.prices {
		noise := ps.rng.NormFloat64() * 0.0003
		var change float64
		switch instrument {
		case "VIX":
			change = -8*riskFactor + ps.rng.NormFloat64()*0.005
		case "US10Y":
			change = 0.3*riskFactor + ps.rng.NormFloat64()*0.001
		case "USDJPY", "AUDJPY":
			change = 0.6*riskFactor + noise
		case "DXY":
			change = -0.3*riskFactor + noise
		default:
			change = riskFactor + noise
		}
		ps.prices[instrument] *= 1 + change
		ps.history[instrument] = append(ps.history[instrument], ps.prices[instrument])
		if len(ps.history[instrument]) > historyBars {
			ps.history[instrument] = ps.history[instrument][1:]
		}
	}
	ps.lastStep = time.Now()
}

func (ps *PaperService) stepIfStale() {
	if time.Since(ps.lastStep) >= time.Second {
		ps.step()
	}
}

func (ps *PaperService) GetQuote(instrument string) (models.MarketQuote, error) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.stepIfStale()

	price, ok := ps.prices[instrument]
	if !ok {
		return models.MarketQuote{}, fmt.Errorf("unknown instrument %s", instrument)
	}

	halfSpread := price * paperSpreadRate / 2
	return models.MarketQuote{
		Symbol:    instrument,
		Price:     price,
		Bid:       price - halfSpread,
		Ask:       price + halfSpread,
		Spread:    halfSpread * 2,
		Timestamp: time.Now().UTC(),
	}, nil
}

func (ps *PaperService) GetSeries(instrument string, bars int, interval string) (techan.TimeSeries, error) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.stepIfStale()

	closes, ok := ps.history[instrument]
	if !ok {
		return techan.TimeSeries{}, fmt.Errorf("unknown instrument %s", instrument)
	}
	if bars > len(closes) {
		bars = len(closes)
	}

	intervalSeconds := helpers.StringIntervalToSeconds(interval)
	period := time.Duration(intervalSeconds) * time.Second
	start := time.Now().Add(-time.Duration(bars) * period).Truncate(period)

	timeSeries := techan.TimeSeries{}
	recent := closes[len(closes)-bars:]
	for i, close := range recent {
		open := close
		if i > 0 {
			open = recent[i-1]
		}
		candle := techan.NewCandle(techan.NewTimePeriod(start.Add(time.Duration(i)*period), period))
		candle.OpenPrice = big.NewDecimal(open)
		candle.ClosePrice = big.NewDecimal(close)
		candle.MaxPrice = big.NewDecimal(math.Max(open, close) * 1.0002)
		candle.MinPrice = big.NewDecimal(math.Min(open, close) * 0.9998)
		candle.Volume = big.NewDecimal(1000 + ps.rng.Float64()*500)
		timeSeries.AddCandle(candle)
	}
	return timeSeries, nil
}

func (ps *PaperService) GetAccountSummary() (models.AccountSummary, error) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.stepIfStale()

	unrealized := 0.0
	marginUsed := 0.0
	for _, position := range ps.positions {
		ps.refreshPosition(position)
		unrealized += position.UnrealizedPnL
		marginUsed += position.MarginUsed
	}

	equity := ps.cash + unrealized
	return models.AccountSummary{
		Equity:            equity,
		Cash:              ps.cash,
		MarginUsed:        marginUsed,
		MarginAvailable:   equity - marginUsed,
		MaintenanceMargin: marginUsed * 0.5,
		BuyingPower:       (equity - marginUsed) * paperLeverage,
		UnrealizedPnL:     unrealized,
		RealizedPnL:       ps.realized,
		Timestamp:         time.Now().UTC(),
	}, nil
}

func (ps *PaperService) GetPositions() ([]models.Position, error) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.stepIfStale()

	positions := make([]models.Position, 0, len(ps.positions))
	for _, position := range ps.positions {
		ps.refreshPosition(position)
		positions = append(positions, *position)
	}
	return positions, nil
}

func (ps *PaperService) refreshPosition(position *models.Position) {
	price, ok := ps.prices[position.Symbol]
	if !ok {
		return
	}
	position.CurrentPrice = price
	position.UnrealizedPnL = (price - position.EntryPrice) * position.Quantity
}

func (ps *PaperService) PlaceOrder(order models.Order) (models.Order, error) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.stepIfStale()

	price, ok := ps.prices[order.Symbol]
	if !ok {
		order.Status = models.OrderStatusTypeRejected
		return order, fmt.Errorf("unknown instrument %s", order.Symbol)
	}

	fillPrice := price * (1 + paperSpreadRate/2)
	quantity := order.Quantity
	if order.Side == models.SideTypeSell {
		fillPrice = price * (1 - paperSpreadRate/2)
		quantity = -quantity
	}

	existing, ok := ps.positions[order.Symbol]
	if ok {
		if existing.Quantity*quantity >= 0 {
			// same side: average the entry, nothing realized
			total := existing.Quantity + quantity
			existing.EntryPrice = (existing.EntryPrice*existing.Quantity + fillPrice*quantity) / total
			existing.Quantity = total
			existing.MarginUsed = math.Abs(total) * fillPrice / paperLeverage
		} else {
			// realize PnL only on the offsetting portion
			offset := math.Min(math.Abs(quantity), math.Abs(existing.Quantity))
			direction := 1.0
			if existing.Quantity < 0 {
				direction = -1.0
			}
			pnl := (fillPrice - existing.EntryPrice) * offset * direction
			ps.realized += pnl
			ps.cash += pnl

			remaining := existing.Quantity + quantity
			if math.Abs(remaining) < 1e-9 {
				delete(ps.positions, order.Symbol)
			} else {
				if remaining*existing.Quantity < 0 {
					// flipped through zero, remainder opens at the fill
					existing.EntryPrice = fillPrice
				}
				existing.Quantity = remaining
				existing.MarginUsed = math.Abs(remaining) * fillPrice / paperLeverage
			}
		}
	} else {
		ps.positions[order.Symbol] = &models.Position{
			Symbol:     order.Symbol,
			Quantity:   quantity,
			EntryPrice: fillPrice,
			MarginUsed: math.Abs(quantity) * fillPrice / paperLeverage,
			Timestamp:  time.Now().UTC(),
		}
	}

	order.OrderID = helpers.NewTradeID()
	order.Status = models.OrderStatusTypeFilled
	order.FilledQuantity = order.Quantity
	order.AverageFillPrice = fillPrice
	order.Time = time.Now().UTC()

	helpers.Logger.Infoln(fmt.Sprintf("Paper fill: %s %s %.4f @ %.4f",
		order.Side, order.Symbol, order.Quantity, fillPrice))
	return order, nil
}

func (ps *PaperService) ClosePosition(instrument string) error {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.stepIfStale()

	if strings.EqualFold(instrument, "ALL") {
		for symbol := range ps.positions {
			ps.closeOne(symbol)
		}
		return nil
	}

	if _, ok := ps.positions[instrument]; !ok {
		return fmt.Errorf("no open position on %s", instrument)
	}
	ps.closeOne(instrument)
	return nil
}

func (ps *PaperService) closeOne(symbol string) {
	position := ps.positions[symbol]
	ps.refreshPosition(position)
	ps.realized += position.UnrealizedPnL
	ps.cash += position.UnrealizedPnL
	helpers.Logger.Infoln(fmt.Sprintf("Paper close: %s pnl %.2f", symbol, position.UnrealizedPnL))
	delete(ps.positions, symbol)
}
