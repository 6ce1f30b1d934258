package marketdata

import (
	"context"
	"encoding/csv"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Jakob-KB/financial-market-correlation-topology/pkg/config"
	"github.com/Jakob-KB/financial-market-correlation-topology/pkg/httputil"
	"github.com/Jakob-KB/financial-market-correlation-topology/pkg/logger"
)

// dateLayout is the YYYY-MM-DD format used by the chart endpoint.
const dateLayout = "2006-01-02"

// Client fetches daily price history from a Stooq-style CSV chart
// endpoint. Requests are rate limited and retried by the shared HTTP
// client.
type Client struct {
	httpClient *httputil.Client
	baseURL    string
	symbolsURL string
	logger     *logger.Logger
}

// NewClient creates a market data client from config.
func NewClient(cfg *config.Config, log *logger.Logger) *Client {
	httpClient := httputil.New(log, cfg.MarketData.Timeout).
		WithRateLimit(cfg.MarketData.RequestsPerSec, 1)

	return &Client{
		httpClient: httpClient,
		baseURL:    cfg.MarketData.BaseURL,
		symbolsURL: cfg.MarketData.SymbolsURL,
		logger:     log,
	}
}

// FetchHistory downloads the daily bars for one symbol over a date range.
func (c *Client) FetchHistory(ctx context.Context, symbol string, from, to time.Time) (*History, error) {
	endpoint := fmt.Sprintf("%s?s=%s&d1=%s&d2=%s&i=d",
		c.baseURL,
		url.QueryEscape(normalizeSymbol(symbol)),
		from.Format("20060102"),
		to.Format("20060102"),
	)

	body, err := c.httpClient.GetBody(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("fetch history for %s: %w", symbol, err)
	}

	history, err := parseHistoryCSV(symbol, string(body))
	if err != nil {
		return nil, fmt.Errorf("parse history for %s: %w", symbol, err)
	}

	c.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"bars":   len(history.Bars),
	}).Debug("Fetched price history")

	return history, nil
}

// FetchHistoryBatch downloads histories for many symbols, skipping
// symbols that fail and reporting how many were dropped.
func (c *Client) FetchHistoryBatch(ctx context.Context, symbols []string, from, to time.Time) ([]*History, error) {
	var histories []*History
	failed := 0

	for _, symbol := range symbols {
		history, err := c.FetchHistory(ctx, symbol, from, to)
		if err != nil {
			c.logger.WithError(err).WithField("symbol", symbol).Warn("Skipping symbol")
			failed++
			continue
		}
		if len(history.Bars) == 0 {
			c.logger.WithField("symbol", symbol).Warn("No data returned, skipping symbol")
			failed++
			continue
		}
		histories = append(histories, history)
	}

	c.logger.WithFields(map[string]interface{}{
		"fetched": len(histories),
		"failed":  failed,
	}).Info("Fetched price histories")

	if len(histories) == 0 {
		return nil, fmt.Errorf("no symbol out of %d returned data", len(symbols))
	}
	return histories, nil
}

// parseHistoryCSV parses the Date,Open,High,Low,Close,Volume format the
// chart endpoint returns. Rows with unparsable numbers abort the parse:
// corrupted input is surfaced, not guessed at.
func parseHistoryCSV(symbol, body string) (*History, error) {
	records, err := csv.NewReader(strings.NewReader(body)).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("empty response")
	}

	header := records[0]
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"date", "close"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("response missing %q column", required)
		}
	}

	history := &History{Symbol: symbol}
	for i, record := range records[1:] {
		date, err := time.Parse(dateLayout, record[col["date"]])
		if err != nil {
			return nil, fmt.Errorf("row %d: bad date %q: %w", i+1, record[col["date"]], err)
		}

		bar := Bar{Date: date.UTC()}
		if bar.Close, err = decimal.NewFromString(record[col["close"]]); err != nil {
			return nil, fmt.Errorf("row %d: bad close %q: %w", i+1, record[col["close"]], err)
		}
		bar.Open = parseOptionalDecimal(record, col, "open")
		bar.High = parseOptionalDecimal(record, col, "high")
		bar.Low = parseOptionalDecimal(record, col, "low")
		if idx, ok := col["volume"]; ok && idx < len(record) {
			bar.Volume, _ = strconv.ParseInt(record[idx], 10, 64)
		}

		history.Bars = append(history.Bars, bar)
	}
	return history, nil
}

func parseOptionalDecimal(record []string, col map[string]int, name string) decimal.Decimal {
	idx, ok := col[name]
	if !ok || idx >= len(record) {
		return decimal.Zero
	}
	v, err := decimal.NewFromString(record[idx])
	if err != nil {
		return decimal.Zero
	}
	return v
}

// normalizeSymbol maps a plain US ticker to the data source's naming
// (lowercase with a .us suffix).
func normalizeSymbol(symbol string) string {
	s := strings.ToLower(strings.TrimSpace(symbol))
	if strings.Contains(s, ".") {
		return s
	}
	return s + ".us"
}
