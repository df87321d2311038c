package models

import "time"

// MarginLevel is a 5-rung margin-ratio ladder, safest first.
type MarginLevel string

const (
	MarginSafe     MarginLevel = "safe"
	MarginMonitor  MarginLevel = "monitor"
	MarginWarning  MarginLevel = "warning"
	MarginDanger   MarginLevel = "danger"
	MarginCritical MarginLevel = "critical"
)

// MarginStatus is computed fresh each cycle from the broker's account data.
type MarginStatus struct {
	Level                 MarginLevel `json:"level"`
	MarginRatio           float64     `json:"marginRatio"` // equity / margin used, +Inf when flat
	Equity                float64     `json:"equity"`
	MarginUsed            float64     `json:"marginUsed"`
	MaintenanceMargin     float64     `json:"maintenanceMargin"`
	MaxAdverseMovePercent float64     `json:"maxAdverseMovePercent"`
	ActionRequired        string      `json:"actionRequired"`
	Message               string      `json:"message"`
	Timestamp             time.Time   `json:"timestamp"`
}

// AllowsNewPositions reports whether new entries are permitted at this level.
func (ms *MarginStatus) AllowsNewPositions() bool {
	return ms.Level == MarginSafe || ms.Level == MarginMonitor
}

type MarginReport struct {
	Timestamp          time.Time   `json:"timestamp"`
	CurrentLevel       MarginLevel `json:"currentLevel"`
	CurrentRatio       float64     `json:"currentRatio"`
	Equity             float64     `json:"equity"`
	MarginUsed         float64     `json:"marginUsed"`
	BufferToMarginCall float64     `json:"bufferToMarginCall"`
	ActionRequired     string      `json:"actionRequired"`
	Message            string      `json:"message"`
	MinRecentRatio     float64     `json:"minRecentRatio"`
	MaxRecentRatio     float64     `json:"maxRecentRatio"`
}
