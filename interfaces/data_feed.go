package interfaces

import (
	"github.com/sdcoffey/techan"
	"gitlab.com/acervero/RoRoSentinel/models"
)

// DataFeed abstracts the market data source. Core components depend only on
// this interface, never on a concrete backend.
type DataFeed interface {
	GetQuote(symbol string) (models.MarketQuote, error)
	GetSeries(symbol string, bars int, interval string) (techan.TimeSeries, error)
}
