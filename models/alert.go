package models

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// AlertSeverity mirrors signal priority rungs.
type AlertSeverity string

const (
	AlertP0Critical AlertSeverity = "P0" // immediate action, forced close
	AlertP1High     AlertSeverity = "P1" // entry/exit signal needing confirmation
	AlertP2Medium   AlertSeverity = "P2" // watchlist
	AlertP3Low      AlertSeverity = "P3" // status update
)

type AlertMessage struct {
	Severity               AlertSeverity     `json:"severity"`
	Header                 string            `json:"header"`
	Body                   map[string]string `json:"body"`
	RequiresAcknowledgment bool              `json:"requiresAcknowledgment"`
	TimeoutSeconds         int               `json:"timeoutSeconds"`
	Timestamp              time.Time         `json:"timestamp"`
}

// FormatForChannel renders the alert as plain text for any channel.
func (a *AlertMessage) FormatForChannel() string {
	divider := strings.Repeat("=", 60)
	lines := []string{
		divider,
		fmt.Sprintf("[%s] %s", a.Severity, a.Header),
		fmt.Sprintf("Time: %s", a.Timestamp.UTC().Format("2006-01-02 15:04:05 UTC")),
		divider,
	}

	keys := make([]string, 0, len(a.Body))
	for key := range a.Body {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		lines = append(lines, fmt.Sprintf("%s: %s", key, a.Body[key]))
	}

	if a.RequiresAcknowledgment {
		lines = append(lines, fmt.Sprintf("\nCONFIRMATION REQUIRED within %ds", a.TimeoutSeconds))
	}
	lines = append(lines, divider)
	return strings.Join(lines, "\n")
}
