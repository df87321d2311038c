package binance

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/sdcoffey/big"
	"github.com/sdcoffey/techan"

	"gitlab.com/acervero/RoRoSentinel/helpers"
	"gitlab.com/acervero/RoRoSentinel/models"
)

// BinanceService serves market data and order routing through the Binance
// spot API. Instrument labels are translated to exchange symbols through the
// overrides map; unmapped labels pass through unchanged.
type BinanceService struct {
	binanceClient   *binance.Client
	symbolOverrides map[string]string
}

func NewBinanceService(symbolOverrides map[string]string) *BinanceService {
	client := binance.NewClient(os.Getenv("apiKey"), os.Getenv("apiSecret"))
	if symbolOverrides == nil {
		symbolOverrides = make(map[string]string)
	}
	return &BinanceService{binanceClient: client, symbolOverrides: symbolOverrides}
}

func (bs *BinanceService) symbol(instrument string) string {
	if mapped, ok := bs.symbolOverrides[instrument]; ok {
		return mapped
	}
	return instrument
}

func (bs *BinanceService) GetQuote(instrument string) (models.MarketQuote, error) {
	symbol := bs.symbol(instrument)
	tickers, err := bs.binanceClient.NewListBookTickersService().Symbol(symbol).Do(context.Background())
	if err != nil {
		return models.MarketQuote{}, err
	}
	if len(tickers) == 0 {
		return models.MarketQuote{}, fmt.Errorf("no book ticker for %s", symbol)
	}

	bid, err := strconv.ParseFloat(tickers[0].BidPrice, 64)
	if err != nil {
		return models.MarketQuote{}, err
	}
	ask, err := strconv.ParseFloat(tickers[0].AskPrice, 64)
	if err != nil {
		return models.MarketQuote{}, err
	}

	return models.MarketQuote{
		Symbol:    instrument,
		Price:     (bid + ask) / 2,
		Bid:       bid,
		Ask:       ask,
		Spread:    ask - bid,
		Timestamp: time.Now().UTC(),
	}, nil
}

func (bs *BinanceService) GetSeries(instrument string, bars int, interval string) (techan.TimeSeries, error) {
	timeSeries := techan.TimeSeries{}
	if bars == 0 {
		bars = 1000
	}

	intervalSeconds := helpers.StringIntervalToSeconds(interval)
	startTime := time.Now().Unix() - int64(intervalSeconds)*int64(bars)

	klines, err := bs.binanceClient.NewKlinesService().Symbol(bs.symbol(instrument)).
		Interval(interval).Limit(bars).StartTime(startTime * 1000).Do(context.Background())
	if err != nil {
		return timeSeries, err
	}

	for _, k := range klines {
		period := techan.NewTimePeriod(time.Unix(k.OpenTime/1000, 0), time.Duration(intervalSeconds)*time.Second)
		candle := techan.NewCandle(period)
		candle.OpenPrice = big.NewFromString(k.Open)
		candle.ClosePrice = big.NewFromString(k.Close)
		candle.MaxPrice = big.NewFromString(k.High)
		candle.MinPrice = big.NewFromString(k.Low)
		candle.TradeCount = uint(k.TradeNum)
		candle.Volume = big.NewFromString(k.Volume)
		timeSeries.AddCandle(candle)
	}
	return timeSeries, nil
}

func (bs *BinanceService) GetAccountSummary() (models.AccountSummary, error) {
	account, err := bs.binanceClient.NewGetAccountService().Do(context.Background())
	if err != nil {
		return models.AccountSummary{}, err
	}

	cash := 0.0
	for _, balance := range account.Balances {
		if balance.Asset != "USDT" && balance.Asset != "BUSD" {
			continue
		}
		free, err := strconv.ParseFloat(balance.Free, 64)
		if err != nil {
			continue
		}
		locked, err := strconv.ParseFloat(balance.Locked, 64)
		if err != nil {
			continue
		}
		cash += free + locked
	}

	return models.AccountSummary{
		Equity:          cash,
		Cash:            cash,
		MarginAvailable: cash,
		BuyingPower:     cash,
		Timestamp:       time.Now().UTC(),
	}, nil
}

func (bs *BinanceService) GetPositions() ([]models.Position, error) {
	// Spot accounts carry no leveraged positions; open exposure is tracked
	// by the paper layer in backtests and by the margin account in live
	// deployments with a mapped symbol set.
	return nil, nil
}

func (bs *BinanceService) PlaceOrder(order models.Order) (models.Order, error) {
	service := bs.binanceClient.NewCreateOrderService().
		Symbol(bs.symbol(order.Symbol)).
		Side(binance.SideType(order.Side)).
		Type(binance.OrderType(order.Type)).
		Quantity(fmt.Sprintf("%.6f", order.Quantity))

	if order.Type == models.OrderTypeLimit {
		service = service.Price(fmt.Sprintf("%.6f", order.Price)).
			TimeInForce(binance.TimeInForceTypeGTC)
	}

	response, err := service.Do(context.Background())
	if err != nil {
		return order, err
	}

	order.OrderID = strconv.FormatInt(response.OrderID, 10)
	order.Status = models.OrderStatusType(response.Status)
	order.Time = time.Now().UTC()
	if filled, err := strconv.ParseFloat(response.ExecutedQuantity, 64); err == nil {
		order.FilledQuantity = filled
	}

	helpers.Logger.Infoln(fmt.Sprintf("Order placed: %s %s %f %s",
		order.Side, order.Symbol, order.Quantity, order.Status))
	return order, nil
}

func (bs *BinanceService) ClosePosition(instrument string) error {
	// Without position tracking on spot there is nothing to flatten here.
	helpers.Logger.Warnln("ClosePosition is a no-op on the spot data provider: " + instrument)
	return nil
}
