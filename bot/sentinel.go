package bot

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"gitlab.com/acervero/RoRoSentinel/config"
	"gitlab.com/acervero/RoRoSentinel/core"
	"gitlab.com/acervero/RoRoSentinel/database"
	"gitlab.com/acervero/RoRoSentinel/execution"
	"gitlab.com/acervero/RoRoSentinel/helpers"
	"gitlab.com/acervero/RoRoSentinel/models"
	"gitlab.com/acervero/RoRoSentinel/providers"
	"gitlab.com/acervero/RoRoSentinel/risk"
)

const statusAlertEvery = 5

type Sentinel struct {
}

func init() {
	cwd, _ := os.Getwd()
	if err := godotenv.Load(cwd + "/conf.env"); err != nil {
		helpers.Logger.Warnln("No conf.env file loaded: " + err.Error())
	}
}

func (s *Sentinel) Run(c *cli.Context) error {
	helpers.Logger.Infoln("🛰 RoRo Sentinel started")

	configPath := c.String("config")
	if configPath == "" {
		configPath = "settings.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		helpers.Logger.Fatalln("Error loading configuration: " + err.Error())
	}

	services := providers.ForMode(cfg)

	var databaseService *database.DBService
	if cfg.System.EnableDatabase {
		databaseService, err = database.NewDBService(os.Getenv("databaseHost"), os.Getenv("databasePort"),
			os.Getenv("databaseName"), os.Getenv("databaseUser"), os.Getenv("databasePassword"))
		if err != nil {
			helpers.Logger.Fatalln("Error connecting to database: " + err.Error())
		}
	}

	sessionManager := core.NewSessionManager(cfg)
	correlationMonitor := core.NewCorrelationMonitor(cfg, services.DataFeed)
	regimeEngine := core.NewRegimeEngine(cfg, services.DataFeed)
	divergenceEngine := core.NewDivergenceEngine(cfg, services.DataFeed)
	signalGenerator := core.NewSignalGenerator(cfg, services.DataFeed, correlationMonitor)
	positionSizer := risk.NewPositionSizer(cfg)
	liquidationGuard := risk.NewLiquidationGuard(cfg, services.Broker)
	costMonitor := risk.NewCostMonitor(cfg, services.Broker)
	alertPublisher := execution.NewAlertPublisher(cfg)
	tradeValidator := execution.NewTradeValidator(cfg, alertPublisher)

	refreshInterval := cfg.RefreshInterval()
	lastDay := time.Now().UTC().Day()
	var previousRegime models.RegimeType

	for iteration := 0; ; iteration++ {
		if day := time.Now().UTC().Day(); day != lastDay {
			positionSizer.ResetDailyRisk()
			tradeValidator.ResetDailyStats()
			lastDay = day
		}

		session := sessionManager.CurrentSession()
		if sessionManager.IsHoliday() {
			helpers.Logger.Infoln("Market holiday, skipping cycle")
			time.Sleep(refreshInterval)
			continue
		}

		marginStatus, err := liquidationGuard.CheckMarginStatus()
		if err != nil {
			helpers.Logger.Errorln("Error checking margin: " + err.Error())
			time.Sleep(refreshInterval)
			continue
		}
		s.enforceMargin(marginStatus, liquidationGuard, services.Broker, alertPublisher)

		if sessionManager.IsClosureRequired() {
			s.closeAll(services.Broker, tradeValidator, "Session closure window")
			time.Sleep(refreshInterval)
			continue
		}

		correlationMonitor.CheckCorrelationHealth()
		regime := regimeEngine.AnalyzeRegime(session)
		divergences := divergenceEngine.ScanDivergences()
		signal := signalGenerator.GenerateSignal(regime, divergences)

		if databaseService != nil {
			databaseService.AddRegimeSnapshot(regime)
			if signal.IsActionable() {
				databaseService.AddSignal(signal)
			}
		}

		for _, divergence := range divergences {
			positionSizer.AddDivergenceInstrument(divergence.Instrument)
		}

		if signal.IsActionable() {
			s.handleSignal(signal, previousRegime, cfg, services, sessionManager,
				marginStatus, tradeValidator, positionSizer, alertPublisher, databaseService)
		}
		previousRegime = regime.RegimeType

		if _, err := costMonitor.MonitorPositionCosts(); err != nil {
			helpers.Logger.Errorln("Error monitoring position costs: " + err.Error())
		}

		if iteration%statusAlertEvery == 0 {
			positions, _ := services.Broker.GetPositions()
			alertPublisher.Publish(execution.FormatP3Status(regime, marginStatus, len(positions)))
		}

		time.Sleep(refreshInterval)
	}
}

func (s *Sentinel) handleSignal(signal models.TradeSignal, previousRegime models.RegimeType,
	cfg *config.Config, services providers.Services, sessionManager *core.SessionManager,
	marginStatus models.MarginStatus, tradeValidator *execution.TradeValidator,
	positionSizer *risk.PositionSizer, alertPublisher *execution.AlertPublisher,
	databaseService *database.DBService) {

	if signal.SignalType == models.SignalClose {
		positions, err := services.Broker.GetPositions()
		if err != nil {
			helpers.Logger.Errorln("Error fetching positions: " + err.Error())
		}
		alertPublisher.Publish(execution.FormatP0RegimeShift(
			previousRegime, signal.Regime.RegimeType, len(positions)))
		s.closeAll(services.Broker, tradeValidator, signal.Reasoning)
		return
	}

	if !sessionManager.ShouldAllowNewPositions() {
		helpers.Logger.Infoln("Signal skipped: session does not allow new positions")
		return
	}
	if !marginStatus.AllowsNewPositions() {
		helpers.Logger.Infoln("Signal skipped: margin level " + string(marginStatus.Level))
		return
	}

	account, err := services.Broker.GetAccountSummary()
	if err != nil {
		helpers.Logger.Errorln("Error fetching account summary: " + err.Error())
		return
	}

	confirmation := tradeValidator.RequestConfirmation(signal, account.Equity)
	if !confirmation.Confirmed {
		helpers.Logger.Infoln("Trade not confirmed: " + confirmation.Reason)
		return
	}

	multipliers := sessionManager.Multipliers()
	sizing := positionSizer.CalculatePositionSize(signal.Instrument, account.Equity,
		signal.SuggestedEntry, signal.SuggestedStop, signal.Confidence,
		signal.Regime.Score, multipliers.PositionSizeMultiplier*signal.PositionSizeMultiplier)
	if sizing.PositionSize == 0 {
		helpers.Logger.Infoln("Trade skipped: " + sizing.Reasoning)
		return
	}

	side := models.SideTypeBuy
	if signal.SignalType == models.SignalSell {
		side = models.SideTypeSell
	}
	order, err := services.Broker.PlaceOrder(models.Order{
		Symbol:   signal.Instrument,
		Side:     side,
		Type:     models.OrderTypeMarket,
		Quantity: sizing.PositionSize,
	})
	if err != nil {
		helpers.Logger.Errorln("Error placing order: " + err.Error())
		return
	}

	positionSizer.UpdateDailyRiskUsed(sizing.RiskAmount)
	helpers.Logger.Infoln(fmt.Sprintf("Executed %s %s size %.4f (order %s): %s",
		side, signal.Instrument, sizing.PositionSize, order.OrderID, sizing.Reasoning))

	if databaseService != nil {
		databaseService.AddTradeResult(signal.ID, signal.Instrument, sizing.PositionSize,
			order.AverageFillPrice, 0, 0, order.Time)
	}
}

// enforceMargin acts on dangerous margin levels before any new analysis.
func (s *Sentinel) enforceMargin(status models.MarginStatus, guard *risk.LiquidationGuard,
	broker interface {
		ClosePosition(symbol string) error
	}, alertPublisher *execution.AlertPublisher) {

	if status.Level != models.MarginCritical && status.Level != models.MarginDanger {
		return
	}

	alertPublisher.Publish(models.AlertMessage{
		Severity: models.AlertP0Critical,
		Header:   "MARGIN " + string(status.Level),
		Body: map[string]string{
			"Margin ratio": fmt.Sprintf("%.2f", status.MarginRatio),
			"Action":       status.ActionRequired,
		},
		Timestamp: time.Now().UTC(),
	})

	fraction := 0.5
	if status.Level == models.MarginCritical {
		fraction = 1.0
	}
	positions, err := guard.PositionsToClose(fraction)
	if err != nil {
		helpers.Logger.Errorln("Error selecting positions to close: " + err.Error())
		return
	}
	for _, position := range positions {
		if err := broker.ClosePosition(position.Symbol); err != nil {
			helpers.Logger.Errorln("Error closing " + position.Symbol + ": " + err.Error())
		}
	}
}

func (s *Sentinel) closeAll(broker interface {
	GetPositions() ([]models.Position, error)
	ClosePosition(symbol string) error
}, tradeValidator *execution.TradeValidator, reason string) {

	positions, err := broker.GetPositions()
	if err != nil {
		helpers.Logger.Errorln("Error fetching positions: " + err.Error())
		return
	}
	if len(positions) == 0 {
		return
	}

	helpers.Logger.Warnln(fmt.Sprintf("Closing %d positions: %s", len(positions), reason))
	for _, position := range positions {
		if err := broker.ClosePosition(position.Symbol); err != nil {
			helpers.Logger.Errorln("Error closing " + position.Symbol + ": " + err.Error())
			continue
		}
		tradeValidator.RecordTradeResult(position.UnrealizedPnL)
	}
}
