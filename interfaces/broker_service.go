package interfaces

import "gitlab.com/acervero/RoRoSentinel/models"

// BrokerService abstracts the account/execution side of the broker.
type BrokerService interface {
	GetAccountSummary() (models.AccountSummary, error)
	GetPositions() ([]models.Position, error)
	PlaceOrder(order models.Order) (models.Order, error)
	ClosePosition(symbol string) error
}
