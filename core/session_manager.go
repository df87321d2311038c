package core

import (
	"fmt"
	"time"

	"gitlab.com/acervero/RoRoSentinel/config"
	"gitlab.com/acervero/RoRoSentinel/helpers"
	"gitlab.com/acervero/RoRoSentinel/models"
)

// SessionManager maps wall-clock GMT time onto a trading session and its
// configured parameter multipliers.
type SessionManager struct {
	cfg            *config.Config
	currentSession models.TradingSession
	now            func() time.Time
}

func NewSessionManager(cfg *config.Config) *SessionManager {
	return &SessionManager{cfg: cfg, now: time.Now}
}

// CurrentSession returns the session active at the current GMT time.
func (sm *SessionManager) CurrentSession() models.TradingSession {
	session := SessionAt(sm.now().UTC())
	if sm.currentSession != session {
		helpers.Logger.Infoln(fmt.Sprintf("Session changed: %s -> %s", sm.currentSession, session))
		sm.currentSession = session
	}
	return session
}

// SessionAt classifies any instant into a trading session.
func SessionAt(t time.Time) models.TradingSession {
	hour := t.UTC().Hour()
	switch {
	case hour < 8:
		return models.SessionAsian
	case hour < 13:
		return models.SessionEuropean
	case hour < 16:
		return models.SessionUSOverlap
	case hour < 21:
		return models.SessionUSOnly
	default:
		return models.SessionClosed
	}
}

// Multipliers returns the configured adjustments for the current session.
func (sm *SessionManager) Multipliers() config.SessionConfig {
	return sm.cfg.Session(string(sm.CurrentSession()))
}

// IsHoliday checks the configured holiday table (dates as YYYY-MM-DD).
func (sm *SessionManager) IsHoliday() bool {
	today := sm.now().UTC().Format("2006-01-02")
	for _, holiday := range sm.cfg.Holidays {
		if holiday == today {
			return true
		}
	}
	return false
}

// IsClosureRequired reports whether open positions must be closed: the last
// five minutes of the US session and the whole CLOSED window.
func (sm *SessionManager) IsClosureRequired() bool {
	now := sm.now().UTC()
	session := SessionAt(now)

	if session == models.SessionClosed {
		return true
	}
	if session == models.SessionUSOnly && (now.Hour() > 20 || (now.Hour() == 20 && now.Minute() >= 55)) {
		return true
	}
	return false
}

// ShouldAllowNewPositions rejects new entries during CLOSED, the forced
// closure window and holidays.
func (sm *SessionManager) ShouldAllowNewPositions() bool {
	if sm.IsHoliday() {
		return false
	}
	if SessionAt(sm.now().UTC()) == models.SessionClosed {
		return false
	}
	return !sm.IsClosureRequired()
}
