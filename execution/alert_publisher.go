package execution

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"golang.org/x/time/rate"
	"gopkg.in/tucnak/telebot.v2"

	"gitlab.com/acervero/RoRoSentinel/config"
	"gitlab.com/acervero/RoRoSentinel/helpers"
	"gitlab.com/acervero/RoRoSentinel/models"
)

const alertHistoryLimit = 1000

// AlertChannel delivers a formatted alert somewhere.
type AlertChannel interface {
	Name() string
	Send(alert models.AlertMessage) error
	Accepts(severity models.AlertSeverity) bool
}

// AlertPublisher routes alerts to configured channels by severity. P0
// alerts are rate limited so a flapping regime cannot flood operators.
type AlertPublisher struct {
	channels  []AlertChannel
	p0Limiter *rate.Limiter
	history   []models.AlertMessage
}

func NewAlertPublisher(cfg *config.Config) *AlertPublisher {
	publisher := &AlertPublisher{
		// 3 critical alerts per 15 minutes.
		p0Limiter: rate.NewLimiter(rate.Every(5*time.Minute), 3),
	}

	publisher.channels = append(publisher.channels, &consoleChannel{})
	for _, channelCfg := range cfg.Execution.AlertChannels {
		switch channelCfg.Type {
		case "telegram":
			channel, err := newTelegramChannel(channelCfg)
			if err != nil {
				helpers.Logger.Errorln("Error initializing telegram channel: " + err.Error())
				continue
			}
			publisher.channels = append(publisher.channels, channel)
		case "webhook":
			publisher.channels = append(publisher.channels, newWebhookChannel(channelCfg))
		}
	}
	return publisher
}

// Publish delivers the alert to every channel accepting its severity.
// Returns false when a P0 alert was suppressed by the rate limiter.
func (ap *AlertPublisher) Publish(alert models.AlertMessage) bool {
	if alert.Timestamp.IsZero() {
		alert.Timestamp = time.Now().UTC()
	}

	if alert.Severity == models.AlertP0Critical && !ap.p0Limiter.Allow() {
		helpers.Logger.Warnln("P0 alert rate limit hit, suppressing: " + alert.Header)
		return false
	}

	ap.history = append(ap.history, alert)
	if len(ap.history) > alertHistoryLimit {
		ap.history = ap.history[len(ap.history)-alertHistoryLimit:]
	}

	for _, channel := range ap.channels {
		if !channel.Accepts(alert.Severity) {
			continue
		}
		if err := channel.Send(alert); err != nil {
			helpers.Logger.Errorln(fmt.Sprintf("Error sending alert via %s: %s",
				channel.Name(), err.Error()))
		}
	}
	return true
}

// History returns up to the last n published alerts, newest last.
func (ap *AlertPublisher) History(n int) []models.AlertMessage {
	if n <= 0 || n > len(ap.history) {
		n = len(ap.history)
	}
	return ap.history[len(ap.history)-n:]
}

// FormatP0RegimeShift builds the forced-close alert for a regime flip.
func FormatP0RegimeShift(previous models.RegimeType, current models.RegimeType,
	openPositions int) models.AlertMessage {
	return models.AlertMessage{
		Severity: models.AlertP0Critical,
		Header:   "REGIME SHIFT - CLOSE ALL POSITIONS",
		Body: map[string]string{
			"Previous regime": string(previous),
			"Current regime":  string(current),
			"Open positions":  strconv.Itoa(openPositions),
			"Action":          "Close all positions immediately",
		},
		Timestamp: time.Now().UTC(),
	}
}

// FormatP1Divergence builds the confirmation request for a divergence entry.
func FormatP1Divergence(signal models.TradeSignal, timeoutSeconds int) models.AlertMessage {
	body := map[string]string{
		"Instrument": signal.Instrument,
		"Direction":  string(signal.SignalType),
		"Entry":      fmt.Sprintf("%.4f", signal.SuggestedEntry),
		"Stop loss":  fmt.Sprintf("%.4f", signal.SuggestedStop),
		"Target":     fmt.Sprintf("%.4f", signal.SuggestedTarget),
		"Confidence": fmt.Sprintf("%.2f", signal.Confidence),
	}
	if signal.Divergence != nil {
		body["Divergence"] = string(signal.Divergence.Type)
		body["Magnitude"] = fmt.Sprintf("%.4f", signal.Divergence.Magnitude)
	}
	return models.AlertMessage{
		Severity:               models.AlertP1High,
		Header:                 "DIVERGENCE TRADE SIGNAL",
		Body:                   body,
		RequiresAcknowledgment: true,
		TimeoutSeconds:         timeoutSeconds,
		Timestamp:              time.Now().UTC(),
	}
}

// FormatP2RegimeSignal builds the confirmation request for a regime entry.
func FormatP2RegimeSignal(signal models.TradeSignal, timeoutSeconds int) models.AlertMessage {
	return models.AlertMessage{
		Severity: models.AlertP2Medium,
		Header:   "REGIME TRADE SIGNAL",
		Body: map[string]string{
			"Instrument": signal.Instrument,
			"Direction":  string(signal.SignalType),
			"Regime":     string(signal.Regime.RegimeType),
			"Entry":      fmt.Sprintf("%.4f", signal.SuggestedEntry),
			"Stop loss":  fmt.Sprintf("%.4f", signal.SuggestedStop),
			"Confidence": fmt.Sprintf("%.2f", signal.Confidence),
		},
		RequiresAcknowledgment: true,
		TimeoutSeconds:         timeoutSeconds,
		Timestamp:              time.Now().UTC(),
	}
}

// FormatP3Status builds the periodic status update.
func FormatP3Status(regime models.RegimeClassification, marginStatus models.MarginStatus,
	openPositions int) models.AlertMessage {
	return models.AlertMessage{
		Severity: models.AlertP3Low,
		Header:   "STATUS UPDATE",
		Body: map[string]string{
			"Regime":         string(regime.RegimeType),
			"Score":          fmt.Sprintf("%.2f", regime.Score),
			"VIX":            fmt.Sprintf("%.1f", regime.VIXLevel),
			"Margin level":   string(marginStatus.Level),
			"Margin ratio":   fmt.Sprintf("%.2f", marginStatus.MarginRatio),
			"Open positions": strconv.Itoa(openPositions),
		},
		Timestamp: time.Now().UTC(),
	}
}

// consoleChannel logs every alert regardless of severity filters.
type consoleChannel struct{}

func (cc *consoleChannel) Name() string { return "console" }

func (cc *consoleChannel) Accepts(models.AlertSeverity) bool { return true }

func (cc *consoleChannel) Send(alert models.AlertMessage) error {
	helpers.Logger.Infoln("\n" + alert.FormatForChannel())
	return nil
}

type telegramChannel struct {
	bot        *telebot.Bot
	chat       *telebot.Chat
	severities map[models.AlertSeverity]bool
}

func newTelegramChannel(cfg config.AlertChannelConfig) (*telegramChannel, error) {
	bot, err := telebot.NewBot(telebot.Settings{
		Token:  os.Getenv("telegramBotToken"),
		Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
	})
	if err != nil {
		return nil, err
	}
	chatID, err := strconv.ParseInt(os.Getenv("telegramChatID"), 10, 64)
	if err != nil {
		return nil, err
	}
	return &telegramChannel{
		bot:        bot,
		chat:       &telebot.Chat{ID: chatID},
		severities: severitySet(cfg.SeverityLevels),
	}, nil
}

func (tc *telegramChannel) Name() string { return "telegram" }

func (tc *telegramChannel) Accepts(severity models.AlertSeverity) bool {
	return len(tc.severities) == 0 || tc.severities[severity]
}

func (tc *telegramChannel) Send(alert models.AlertMessage) error {
	_, err := tc.bot.Send(tc.chat, alert.FormatForChannel())
	return err
}

type webhookChannel struct {
	url        string
	client     *http.Client
	severities map[models.AlertSeverity]bool
}

func newWebhookChannel(cfg config.AlertChannelConfig) *webhookChannel {
	return &webhookChannel{
		url:        cfg.URL,
		client:     &http.Client{Timeout: 10 * time.Second},
		severities: severitySet(cfg.SeverityLevels),
	}
}

func (wc *webhookChannel) Name() string { return "webhook" }

func (wc *webhookChannel) Accepts(severity models.AlertSeverity) bool {
	return len(wc.severities) == 0 || wc.severities[severity]
}

func (wc *webhookChannel) Send(alert models.AlertMessage) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return err
	}
	response, err := wc.client.Post(wc.url, "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer response.Body.Close()
	if response.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", response.StatusCode)
	}
	return nil
}

func severitySet(levels []string) map[models.AlertSeverity]bool {
	set := make(map[models.AlertSeverity]bool, len(levels))
	for _, level := range levels {
		set[models.AlertSeverity(level)] = true
	}
	return set
}
