package models

import "time"

// CFDCostSnapshot captures holding costs of one position at a point in time.
type CFDCostSnapshot struct {
	Instrument    string    `json:"instrument"`
	PositionValue float64   `json:"positionValue"`
	SwapCostDaily float64   `json:"swapCostDaily"`
	SpreadCost    float64   `json:"spreadCost"`
	Commission    float64   `json:"commission"`
	TotalDaily    float64   `json:"totalDaily"`
	Timestamp     time.Time `json:"timestamp"`
}

type InstrumentCostReport struct {
	PositionValue    float64 `json:"positionValue"`
	CurrentDailyCost float64 `json:"currentDailyCost"`
	AvgDailyCost     float64 `json:"avgDailyCost"`
	SwapCost         float64 `json:"swapCost"`
	SpreadCost       float64 `json:"spreadCost"`
	Warning          bool    `json:"warning"`
}

// PerformanceMetrics summarizes recorded trade outcomes.
type PerformanceMetrics struct {
	TotalTrades  int     `json:"totalTrades"`
	WinRate      float64 `json:"winRate"`
	AvgProfit    float64 `json:"avgProfit"`
	AvgLoss      float64 `json:"avgLoss"`
	ProfitFactor float64 `json:"profitFactor"`
	TotalPnL     float64 `json:"totalPnl"`
}
