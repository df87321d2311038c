package database

import (
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	database "gitlab.com/acervero/RoRoSentinel/database/models"
	"gitlab.com/acervero/RoRoSentinel/models"
)

type DBService struct {
	DB *gorm.DB
}

func NewDBService(dbHost string, dbPort string, dbName string, dbUser string, dbPass string) (*DBService, error) {
	dsn := dbUser + ":" + dbPass + "@tcp(" + dbHost + ":" + dbPort + ")/" + dbName + "?charset=utf8mb4&parseTime=True&loc=Local"
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	dbs := &DBService{
		DB: db,
	}

	err = dbs.DB.AutoMigrate(&database.Signal{}, &database.TradeResult{}, &database.RegimeSnapshot{})
	if err != nil {
		return nil, err
	}

	return dbs, nil
}

// AddSignal persists a generated trade signal.
func (dbs *DBService) AddSignal(signal models.TradeSignal) uint {
	dbSignal := database.Signal{
		SignalID:    signal.ID,
		SignalType:  string(signal.SignalType),
		Priority:    string(signal.Priority),
		Instrument:  signal.Instrument,
		Confidence:  signal.Confidence,
		Regime:      string(signal.Regime.RegimeType),
		RegimeScore: signal.Regime.Score,
		Entry:       signal.SuggestedEntry,
		StopLoss:    signal.SuggestedStop,
		TakeProfit:  signal.SuggestedTarget,
		Reasoning:   signal.Reasoning,
		SignalTime:  signal.Timestamp,
	}
	dbs.DB.Create(&dbSignal)
	return dbSignal.ID
}

// AddTradeResult persists a closed trade outcome.
func (dbs *DBService) AddTradeResult(signalID string, instrument string, quantity float64,
	entryPrice float64, exitPrice float64, pnl float64, entryTime time.Time) uint {
	result := database.TradeResult{
		SignalID:   signalID,
		Instrument: instrument,
		Quantity:   quantity,
		EntryPrice: entryPrice,
		ExitPrice:  exitPrice,
		PnL:        pnl,
		EntryTime:  entryTime,
		ExitTime:   time.Now().UTC(),
	}
	dbs.DB.Create(&result)
	return result.ID
}

// AddRegimeSnapshot persists one classification for later review.
func (dbs *DBService) AddRegimeSnapshot(classification models.RegimeClassification) uint {
	snapshot := database.RegimeSnapshot{
		Regime:     string(classification.RegimeType),
		Score:      classification.Score,
		VIXLevel:   classification.VIXLevel,
		Threshold:  classification.ThresholdUsed,
		Confidence: classification.Confidence,
		Session:    string(classification.Session),
	}
	dbs.DB.Create(&snapshot)
	return snapshot.ID
}

// PerformanceMetrics aggregates recorded trade results.
func (dbs *DBService) PerformanceMetrics() models.PerformanceMetrics {
	var results []database.TradeResult
	dbs.DB.Find(&results)

	metrics := models.PerformanceMetrics{TotalTrades: len(results)}
	if len(results) == 0 {
		return metrics
	}

	wins := 0
	grossProfit := 0.0
	grossLoss := 0.0
	for _, result := range results {
		metrics.TotalPnL += result.PnL
		if result.PnL > 0 {
			wins++
			grossProfit += result.PnL
		} else if result.PnL < 0 {
			grossLoss += -result.PnL
		}
	}

	metrics.WinRate = float64(wins) / float64(len(results))
	if wins > 0 {
		metrics.AvgProfit = grossProfit / float64(wins)
	}
	losses := len(results) - wins
	if losses > 0 {
		metrics.AvgLoss = grossLoss / float64(losses)
	}
	if grossLoss > 0 {
		metrics.ProfitFactor = grossProfit / grossLoss
	}
	return metrics
}
