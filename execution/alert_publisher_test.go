package execution

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"gitlab.com/acervero/RoRoSentinel/models"
)

// recordingChannel captures alerts for assertions.
type recordingChannel struct {
	accepted map[models.AlertSeverity]bool
	sent     []models.AlertMessage
}

func (rc *recordingChannel) Name() string { return "recording" }

func (rc *recordingChannel) Accepts(severity models.AlertSeverity) bool {
	return len(rc.accepted) == 0 || rc.accepted[severity]
}

func (rc *recordingChannel) Send(alert models.AlertMessage) error {
	rc.sent = append(rc.sent, alert)
	return nil
}

func TestPublishRoutesBySeverity(t *testing.T) {
	publisher := NewAlertPublisher(validatorConfig())
	p0Only := &recordingChannel{accepted: map[models.AlertSeverity]bool{models.AlertP0Critical: true}}
	everything := &recordingChannel{}
	publisher.channels = append(publisher.channels, p0Only, everything)

	publisher.Publish(models.AlertMessage{Severity: models.AlertP0Critical, Header: "a"})
	publisher.Publish(models.AlertMessage{Severity: models.AlertP3Low, Header: "b"})

	assert.Len(t, p0Only.sent, 1)
	assert.Len(t, everything.sent, 2)
}

func TestPublishRateLimitsP0(t *testing.T) {
	publisher := NewAlertPublisher(validatorConfig())
	sink := &recordingChannel{}
	publisher.channels = []AlertChannel{sink}

	delivered := 0
	for i := 0; i < 5; i++ {
		if publisher.Publish(models.AlertMessage{Severity: models.AlertP0Critical, Header: "shift"}) {
			delivered++
		}
	}

	// burst of 3, the rest suppressed
	assert.Equal(t, 3, delivered)
	assert.Len(t, sink.sent, 3)
}

func TestPublishNeverLimitsLowerSeverities(t *testing.T) {
	publisher := NewAlertPublisher(validatorConfig())
	sink := &recordingChannel{}
	publisher.channels = []AlertChannel{sink}

	for i := 0; i < 10; i++ {
		assert.True(t, publisher.Publish(models.AlertMessage{Severity: models.AlertP1High, Header: "sig"}))
	}
	assert.Len(t, sink.sent, 10)
}

func TestHistoryKeepsDeliveredAlerts(t *testing.T) {
	publisher := NewAlertPublisher(validatorConfig())
	publisher.channels = []AlertChannel{&recordingChannel{}}

	publisher.Publish(models.AlertMessage{Severity: models.AlertP2Medium, Header: "one"})
	publisher.Publish(models.AlertMessage{Severity: models.AlertP3Low, Header: "two"})

	history := publisher.History(1)
	assert.Len(t, history, 1)
	assert.Equal(t, "two", history[0].Header)
	assert.Len(t, publisher.History(0), 2)
}

func TestFormatP1DivergenceRequiresAcknowledgment(t *testing.T) {
	signal := testSignal()
	signal.Divergence = &models.DivergenceSignal{
		Type:      models.BullishDivergence,
		Magnitude: 0.004,
	}

	alert := FormatP1Divergence(signal, 300)

	assert.Equal(t, models.AlertP1High, alert.Severity)
	assert.True(t, alert.RequiresAcknowledgment)
	assert.Equal(t, 300, alert.TimeoutSeconds)
	assert.Equal(t, "bullish", alert.Body["Divergence"])

	text := alert.FormatForChannel()
	assert.Contains(t, text, "[P1]")
	assert.Contains(t, text, "CONFIRMATION REQUIRED within 300s")
}

func TestFormatP0RegimeShift(t *testing.T) {
	alert := FormatP0RegimeShift(models.StrongRiskOn, models.StrongRiskOff, 4)

	assert.Equal(t, models.AlertP0Critical, alert.Severity)
	assert.False(t, alert.RequiresAcknowledgment)
	assert.Equal(t, "strong_risk_on", alert.Body["Previous regime"])
	assert.Equal(t, "4", alert.Body["Open positions"])
}

func TestFormatP3Status(t *testing.T) {
	alert := FormatP3Status(
		models.RegimeClassification{RegimeType: models.Neutral, Score: 0.3, VIXLevel: 16.2},
		models.MarginStatus{Level: models.MarginSafe, MarginRatio: 5.1},
		2)

	assert.Equal(t, models.AlertP3Low, alert.Severity)
	assert.Equal(t, "neutral", alert.Body["Regime"])
	assert.Equal(t, "2", alert.Body["Open positions"])
}
