package contracts

import "time"

// PricePoint is a single closing-price observation for an asset.
type PricePoint struct {
	Timestamp time.Time `json:"timestamp"`
	Close     float64   `json:"close"`
}

// PriceSeries holds the ordered price history for one asset.
// Timestamps are strictly increasing with no duplicates; the series is
// read-only once handed to the pipeline.
type PriceSeries struct {
	Symbol string       `json:"symbol"`
	Points []PricePoint `json:"points"`
}

// Len returns the number of observations in the series.
func (s *PriceSeries) Len() int {
	return len(s.Points)
}

// ReturnPoint is a single percentage-change observation.
type ReturnPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Return    float64   `json:"return"`
}

// ReturnSeries holds the daily returns derived from one PriceSeries.
// It is one observation shorter than its source series.
type ReturnSeries struct {
	Symbol string        `json:"symbol"`
	Points []ReturnPoint `json:"points"`
}

// ReturnsMatrix holds aligned return columns for a set of assets.
// Every column shares the same timestamp index (inner join of all
// source series) and therefore the same length.
type ReturnsMatrix struct {
	Symbols    []string             `json:"symbols"`
	Timestamps []time.Time          `json:"timestamps"`
	Columns    map[string][]float64 `json:"columns"` // key: symbol, value aligned to Timestamps
}

// NumAssets returns the number of asset columns.
func (m *ReturnsMatrix) NumAssets() int {
	return len(m.Symbols)
}

// NumRows returns the number of aligned observation rows.
func (m *ReturnsMatrix) NumRows() int {
	return len(m.Timestamps)
}

// Column returns the return column for a symbol.
func (m *ReturnsMatrix) Column(symbol string) ([]float64, bool) {
	col, ok := m.Columns[symbol]
	return col, ok
}
