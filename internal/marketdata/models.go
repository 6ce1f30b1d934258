// Package marketdata fetches historical daily price data and index
// membership lists from public endpoints. It is the only part of the
// repository that touches the network; the analysis pipeline never does.
package marketdata

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Jakob-KB/financial-market-correlation-topology/internal/contracts"
)

// Bar is one daily OHLCV record as delivered by the data source. Prices
// stay decimal until they cross into the float64 analysis pipeline.
type Bar struct {
	Date   time.Time
	Open   decimal.Decimal
	High   decimal.Decimal
	Low    decimal.Decimal
	Close  decimal.Decimal
	Volume int64
}

// History is the fetched price history for one symbol.
type History struct {
	Symbol string
	Bars   []Bar
}

// ToPriceSeries converts a history into the pipeline's input type,
// collapsing each bar to its closing price.
func (h *History) ToPriceSeries() *contracts.PriceSeries {
	series := &contracts.PriceSeries{Symbol: h.Symbol}
	for _, bar := range h.Bars {
		series.Points = append(series.Points, contracts.PricePoint{
			Timestamp: bar.Date,
			Close:     bar.Close.InexactFloat64(),
		})
	}
	return series
}
