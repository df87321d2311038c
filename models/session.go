package models

// TradingSession is a named window of the trading day with its own
// liquidity characteristics and parameter multipliers.
type TradingSession string

const (
	SessionAsian     TradingSession = "ASIAN"      // 00:00-08:00 GMT
	SessionEuropean  TradingSession = "EUROPEAN"   // 08:00-13:00 GMT
	SessionUSOverlap TradingSession = "US_OVERLAP" // 13:00-16:00 GMT
	SessionUSOnly    TradingSession = "US_ONLY"    // 16:00-21:00 GMT
	SessionClosed    TradingSession = "CLOSED"     // 21:00-00:00 GMT
	SessionUnknown   TradingSession = "UNKNOWN"
)
