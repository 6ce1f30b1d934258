package marketdata

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// FetchIndexSymbols scrapes an index-membership table (one ticker per
// row, ticker in a linked cell) and returns the ticker list. Used to
// seed the analysis universe when no explicit symbol list is configured.
func (c *Client) FetchIndexSymbols(ctx context.Context) ([]string, error) {
	body, err := c.httpClient.GetBody(ctx, c.symbolsURL)
	if err != nil {
		return nil, fmt.Errorf("fetch symbol list: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse symbol list html: %w", err)
	}

	seen := make(map[string]struct{})
	var symbols []string
	doc.Find("table tbody tr").Each(func(_ int, row *goquery.Selection) {
		ticker := extractTicker(row)
		if ticker == "" {
			return
		}
		if _, dup := seen[ticker]; dup {
			return
		}
		seen[ticker] = struct{}{}
		symbols = append(symbols, ticker)
	})

	if len(symbols) == 0 {
		return nil, fmt.Errorf("no tickers found at %s", c.symbolsURL)
	}

	c.logger.WithField("count", len(symbols)).Info("Scraped index symbol list")
	return symbols, nil
}

// extractTicker pulls the ticker cell out of a membership table row.
// Membership pages link tickers as /symbol/<TICKER>; fall back to the
// third cell's text, which is where the common layouts keep it.
func extractTicker(row *goquery.Selection) string {
	var ticker string
	row.Find("a").EachWithBreak(func(_ int, link *goquery.Selection) bool {
		href, ok := link.Attr("href")
		if !ok {
			return true
		}
		if idx := strings.LastIndex(href, "/symbol/"); idx >= 0 {
			ticker = strings.TrimSpace(href[idx+len("/symbol/"):])
			return false
		}
		return true
	})
	if ticker != "" {
		return sanitizeTicker(ticker)
	}

	cells := row.Find("td")
	if cells.Length() >= 3 {
		return sanitizeTicker(cells.Eq(2).Text())
	}
	return ""
}

// sanitizeTicker rejects anything that does not look like a ticker.
func sanitizeTicker(raw string) string {
	t := strings.ToUpper(strings.TrimSpace(raw))
	if t == "" || len(t) > 6 {
		return ""
	}
	for _, r := range t {
		if (r < 'A' || r > 'Z') && r != '.' && r != '-' {
			return ""
		}
	}
	return t
}
