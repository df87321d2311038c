package providers

import (
	"fmt"
	"time"

	"gitlab.com/acervero/RoRoSentinel/config"
	"gitlab.com/acervero/RoRoSentinel/helpers"
	"gitlab.com/acervero/RoRoSentinel/interfaces"
	"gitlab.com/acervero/RoRoSentinel/providers/binance"
	"gitlab.com/acervero/RoRoSentinel/providers/paper"
)

const (
	liveConnectAttempts = 3
	liveConnectBackoff  = 5 * time.Second
)

// Services bundles the mode-selected data feed and broker.
type Services struct {
	DataFeed interfaces.DataFeed
	Broker   interfaces.BrokerService
}

// ForMode wires providers for the configured system mode. Live mode retries
// the exchange connection and falls back to paper so the monitor keeps
// running on simulated data instead of dying at startup.
func ForMode(cfg *config.Config) Services {
	switch cfg.System.Mode {
	case "live":
		if services, err := connectLive(); err == nil {
			return services
		}
		helpers.Logger.Errorln("Live connection failed, falling back to paper trading")
		fallthrough
	default:
		paperService := paper.NewPaperService(cfg.System.Scenario, cfg.System.StartingCash)
		return Services{DataFeed: paperService, Broker: paperService}
	}
}

func connectLive() (Services, error) {
	var lastErr error
	for attempt := 1; attempt <= liveConnectAttempts; attempt++ {
		service := binance.NewBinanceService(nil)
		if _, err := service.GetAccountSummary(); err != nil {
			lastErr = err
			helpers.Logger.Warnln(fmt.Sprintf("Live connection attempt %d/%d failed: %s",
				attempt, liveConnectAttempts, err.Error()))
			time.Sleep(liveConnectBackoff)
			continue
		}
		helpers.Logger.Infoln("Connected to live exchange")
		return Services{DataFeed: service, Broker: service}, nil
	}
	return Services{}, lastErr
}
