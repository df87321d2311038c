package models

import "time"

type OrderType string

type OrderSide string

type OrderStatusType string

const (
	OrderTypeMarket OrderType = "MARKET"
	OrderTypeLimit  OrderType = "LIMIT"
	OrderTypeStop   OrderType = "STOP"

	SideTypeBuy  OrderSide = "BUY"
	SideTypeSell OrderSide = "SELL"

	OrderStatusTypeNew       OrderStatusType = "NEW"
	OrderStatusTypeFilled    OrderStatusType = "FILLED"
	OrderStatusTypeCanceled  OrderStatusType = "CANCELED"
	OrderStatusTypeRejected  OrderStatusType = "REJECTED"
)

type Order struct {
	OrderID          string          `json:"orderId"`
	Symbol           string          `json:"symbol"`
	Side             OrderSide       `json:"side"`
	Type             OrderType       `json:"type"`
	Quantity         float64         `json:"quantity"`
	Price            float64         `json:"price"`
	StopPrice        float64         `json:"stopPrice"`
	Status           OrderStatusType `json:"status"`
	FilledQuantity   float64         `json:"filledQuantity"`
	AverageFillPrice float64         `json:"averageFillPrice"`
	Time             time.Time       `json:"time"`
}
