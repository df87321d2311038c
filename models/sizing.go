package models

// PositionSizingResult is the derived outcome of one sizing calculation.
// It is never persisted.
type PositionSizingResult struct {
	RiskAmount     float64 `json:"riskAmount"`
	PositionSize   float64 `json:"positionSize"`
	MarginRequired float64 `json:"marginRequired"`
	SwapCost       float64 `json:"swapCost"`
	LeverageUsed   float64 `json:"leverageUsed"`
	Reasoning      string  `json:"reasoning"`
}
